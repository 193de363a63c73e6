package starlark

import (
	"fmt"
	"log/slog"
)

// FunctionalOption configures an Engine.
type FunctionalOption func(*Engine) error

// WithLogHandler sets the log handler for the engine and the scripts' print output.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(e *Engine) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		e.logHandler = handler
		return nil
	}
}

// WithMaxSteps bounds the number of Starlark computation steps per
// evaluation. Zero means unbounded.
func WithMaxSteps(steps uint64) FunctionalOption {
	return func(e *Engine) error {
		e.maxSteps = steps
		return nil
	}
}
