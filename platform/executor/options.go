package executor

import (
	"fmt"
	"time"
)

// FunctionalOption configures an Executor.
type FunctionalOption func(*Executor) error

// WithTimeout bounds every execution, from bindings to commit. Zero means
// the caller's context is the only limit.
func WithTimeout(d time.Duration) FunctionalOption {
	return func(x *Executor) error {
		if d < 0 {
			return fmt.Errorf("timeout cannot be negative: %s", d)
		}
		x.timeout = d
		return nil
	}
}
