package event

type Phase int

const (
	PhaseApplyExtrinsic Phase = iota
	PhaseFinalization
	PhaseInitialization
)

func (p Phase) String() string {
	switch p {
	case PhaseApplyExtrinsic:
		return "ApplyExtrinsic"
	case PhaseFinalization:
		return "Finalization"
	case PhaseInitialization:
		return "Initialization"
	}
	return "Unknown"
}

type (
	Param struct {
		Type  string      `json:"type"`
		Value interface{} `json:"value"`
	}

	// Event is one decoded record of System.Events.
	Event struct {
		Index          int
		Phase          Phase
		ExtrinsicIndex int // only meaningful for PhaseApplyExtrinsic
		Module         string
		Name           string
		Params         []Param
	}
)

// ForExtrinsic keeps the events applied by the extrinsic at position idx of its block.
func ForExtrinsic(events []Event, idx int) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Phase == PhaseApplyExtrinsic && ev.ExtrinsicIndex == idx {
			out = append(out, ev)
		}
	}
	return out
}
