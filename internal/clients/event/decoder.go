package event

import (
	"encoding/json"
	"errors"
	"fmt"

	scalecodec "github.com/itering/scale.go"
	"github.com/itering/scale.go/types"

	"go-subxt/internal/errs"
)

type (
	// Decoder turns the raw System.Events storage value into events.
	Decoder interface {
		Decode(raw []byte) ([]Event, error)
	}

	// ScaleDecoder decodes events with the dynamic decoder, driven by one metadata snapshot.
	ScaleDecoder struct {
		option types.ScaleDecoderOption
	}
)

// NewScaleDecoder wraps metadata already processed by itering's decoder, so the blob is only
// parsed once; specVersion keys the decoder's type cache the same way a block's runtime
// version does.
func NewScaleDecoder(decoded *types.MetadataStruct, specVersion int) (*ScaleDecoder, error) {
	if decoded == nil {
		return nil, errs.Metadata("events decoder", errors.New("no decoded metadata"))
	}
	return &ScaleDecoder{
		option: types.ScaleDecoderOption{Metadata: decoded, Spec: specVersion},
	}, nil
}

func (d *ScaleDecoder) Decode(raw []byte) (events []Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			events = nil
			err = errs.Decoding("events", fmt.Errorf("%v", r))
		}
	}()

	option := d.option
	eventDecoder := scalecodec.EventsDecoder{}
	eventDecoder.Init(types.ScaleBytes{Data: raw}, &option)
	eventDecoder.Process()

	records, ok := eventDecoder.Value.([]interface{})
	if !ok {
		return nil, errs.Decoding("events", fmt.Errorf("unexpected decoder output %T", eventDecoder.Value))
	}
	return FromRecords(records)
}

// FromRecords converts the generic records produced by the dynamic decoder.
func FromRecords(records []interface{}) ([]Event, error) {
	events := make([]Event, 0, len(records))
	for i, rec := range records {
		fields, ok := rec.(map[string]interface{})
		if !ok {
			return nil, errs.Decoding("events", fmt.Errorf("record %d: unexpected type %T", i, rec))
		}

		ev := Event{Index: i}
		if v, ok := fields["event_idx"]; ok {
			if idx, ok := toInt(v); ok {
				ev.Index = idx
			}
		}
		phase, _ := toInt(fields["phase"])
		ev.Phase = Phase(phase)
		ev.ExtrinsicIndex, _ = toInt(fields["extrinsic_idx"])
		ev.Module, _ = fields["module_id"].(string)
		ev.Name, _ = fields["event_id"].(string)
		if ev.Module == "" || ev.Name == "" {
			return nil, errs.Decoding("events", fmt.Errorf("record %d: missing module or event name", i))
		}

		if params, ok := fields["params"]; ok && params != nil {
			// the decoder emits either param structs or maps depending on version
			raw, err := json.Marshal(params)
			if err != nil {
				return nil, errs.Decoding("events", fmt.Errorf("record %d params: %w", i, err))
			}
			if err := json.Unmarshal(raw, &ev.Params); err != nil {
				return nil, errs.Decoding("events", fmt.Errorf("record %d params: %w", i, err))
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint8:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
