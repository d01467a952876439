package errs

import (
	"errors"
	"fmt"
)

// Kind classifies every failure surfaced by the client runtime.
type Kind string

const (
	KindTransport Kind = "transport"
	KindMetadata  Kind = "metadata"
	KindNotFound  Kind = "not found"
	KindEncoding  Kind = "encoding"
	KindDecoding  Kind = "decoding"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrTransport = &Error{Kind: KindTransport}
	ErrMetadata  = &Error{Kind: KindMetadata}
	ErrNotFound  = &Error{Kind: KindNotFound}
	ErrEncoding  = &Error{Kind: KindEncoding}
	ErrDecoding  = &Error{Kind: KindDecoding}

	// ErrUnsupportedHasher is wrapped by encoding errors raised for unknown storage hashers.
	ErrUnsupportedHasher = errors.New("unsupported hasher")
)

type (
	// Error is the typed failure returned across package boundaries.
	Error struct {
		Kind Kind
		// Op names the failing operation, e.g. "module", "call", "storage", "submit".
		Op string
		// Name carries the offending identifier for lookups.
		Name string
		Err  error
	}
)

func (e *Error) Error() string {
	msg := string(e.Kind) + " error"
	if e.Kind == KindNotFound {
		msg = e.Op + " not found"
		if e.Op == "" {
			msg = "not found"
		}
		if e.Name != "" {
			msg += ": " + e.Name
		}
		return msg
	}
	if e.Op != "" {
		msg += " (" + e.Op + ")"
	}
	if e.Name != "" {
		msg += " " + e.Name
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so sentinels match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Name != "" && t.Name != e.Name {
		return false
	}
	return t.Kind == e.Kind
}

func Transport(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func Metadata(op string, err error) error {
	return &Error{Kind: KindMetadata, Op: op, Err: err}
}

// NotFound builds a lookup failure; op is "module", "call", "storage", "event" or "constant".
func NotFound(op, name string) error {
	return &Error{Kind: KindNotFound, Op: op, Name: name}
}

func Encoding(op string, err error) error {
	return &Error{Kind: KindEncoding, Op: op, Err: err}
}

func Encodingf(op, format string, args ...interface{}) error {
	return &Error{Kind: KindEncoding, Op: op, Err: fmt.Errorf(format, args...)}
}

func Decoding(op string, err error) error {
	return &Error{Kind: KindDecoding, Op: op, Err: err}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Decodingf(op, format string, args ...interface{}) error {
	return &Error{Kind: KindDecoding, Op: op, Err: fmt.Errorf(format, args...)}
}
