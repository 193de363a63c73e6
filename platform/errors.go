package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineUnavailable means no interpreter handle could be constructed.
	ErrEngineUnavailable = errors.New("script engine unavailable")

	// ErrBadInput means the script failed to parse, raised during evaluation,
	// referenced an undefined binding or could not be committed.
	ErrBadInput = errors.New("bad input")

	// ErrUnsupportedResult means the script produced a value with no representation.
	ErrUnsupportedResult = errors.New("unsupported result type")
)

// ErrorKind classifies an execution failure.
type ErrorKind int

const (
	// KindNone is the kind of a nil error.
	KindNone ErrorKind = iota
	KindEngineUnavailable
	KindBadInput
	KindUnsupportedResult
	// KindUnknown is any error that carries none of the sentinels above.
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindEngineUnavailable:
		return "engine_unavailable"
	case KindBadInput:
		return "bad_input"
	case KindUnsupportedResult:
		return "unsupported_result"
	default:
		return "unknown"
	}
}

// KindOf reports which of the execution error kinds err carries.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrEngineUnavailable):
		return KindEngineUnavailable
	case errors.Is(err, ErrUnsupportedResult):
		return KindUnsupportedResult
	case errors.Is(err, ErrBadInput):
		return KindBadInput
	default:
		return KindUnknown
	}
}

// BadInput wraps the message of cause in ErrBadInput. Only the text survives;
// the concrete type of cause is not reachable through errors.As.
func BadInput(cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrBadInput, cause.Error())
}
