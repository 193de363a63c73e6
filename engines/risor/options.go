package risor

import (
	"fmt"
	"log/slog"
)

// FunctionalOption configures an Engine.
type FunctionalOption func(*Engine) error

// WithLogHandler sets the log handler for the engine.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(e *Engine) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		e.logHandler = handler
		return nil
	}
}
