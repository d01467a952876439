package models

import (
	"encoding/json"
	"fmt"

	"go-subxt/internal/clients/event"
)

type ExtrinsicStatusKind string

const (
	StatusFuture          ExtrinsicStatusKind = "future"
	StatusReady           ExtrinsicStatusKind = "ready"
	StatusBroadcast       ExtrinsicStatusKind = "broadcast"
	StatusInBlock         ExtrinsicStatusKind = "inBlock"
	StatusRetracted       ExtrinsicStatusKind = "retracted"
	StatusFinalityTimeout ExtrinsicStatusKind = "finalityTimeout"
	StatusFinalized       ExtrinsicStatusKind = "finalized"
	StatusUsurped         ExtrinsicStatusKind = "usurped"
	StatusDropped         ExtrinsicStatusKind = "dropped"
	StatusInvalid         ExtrinsicStatusKind = "invalid"
)

// ExtrinsicStatus is one notification of author_submitAndWatchExtrinsic. Block is set for
// inBlock, retracted, finalityTimeout and finalized; Usurper for usurped; Peers for broadcast.
type ExtrinsicStatus struct {
	Kind    ExtrinsicStatusKind
	Block   Hash
	Usurper Hash
	Peers   []string
}

// Terminal reports whether the node will send no further status for the extrinsic.
func (s ExtrinsicStatus) Terminal() bool {
	switch s.Kind {
	case StatusFinalized, StatusFinalityTimeout, StatusUsurped, StatusDropped, StatusInvalid:
		return true
	}
	return false
}

// Failed reports statuses that end a watch without the extrinsic being included.
func (s ExtrinsicStatus) Failed() bool {
	switch s.Kind {
	case StatusFinalityTimeout, StatusUsurped, StatusDropped, StatusInvalid:
		return true
	}
	return false
}

func (s *ExtrinsicStatus) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		switch k := ExtrinsicStatusKind(plain); k {
		case StatusFuture, StatusReady, StatusDropped, StatusInvalid:
			*s = ExtrinsicStatus{Kind: k}
			return nil
		}
		return fmt.Errorf("unknown extrinsic status %q", plain)
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("extrinsic status: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("extrinsic status: expected one variant, got %s", data)
	}
	for key, body := range tagged {
		kind := ExtrinsicStatusKind(key)
		out := ExtrinsicStatus{Kind: kind}
		switch kind {
		case StatusBroadcast:
			if err := json.Unmarshal(body, &out.Peers); err != nil {
				return fmt.Errorf("extrinsic status %s: %w", key, err)
			}
		case StatusInBlock, StatusRetracted, StatusFinalityTimeout, StatusFinalized:
			if err := json.Unmarshal(body, &out.Block); err != nil {
				return fmt.Errorf("extrinsic status %s: %w", key, err)
			}
		case StatusUsurped:
			if err := json.Unmarshal(body, &out.Usurper); err != nil {
				return fmt.Errorf("extrinsic status %s: %w", key, err)
			}
		default:
			return fmt.Errorf("unknown extrinsic status %q", key)
		}
		*s = out
	}
	return nil
}

// ExtrinsicSuccess is the outcome of a watched submission.
type ExtrinsicSuccess struct {
	Block     Hash
	Extrinsic Hash
	Events    []event.Event
}

// Find returns the first event emitted by module with the given name.
func (e *ExtrinsicSuccess) Find(module, name string) (event.Event, bool) {
	for _, ev := range e.Events {
		if ev.Module == module && ev.Name == name {
			return ev, true
		}
	}
	return event.Event{}, false
}
