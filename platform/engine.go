package platform

import (
	"context"
	"slices"

	"github.com/robbyt/go-graphscript/platform/result"
)

// Bindings is the variable environment of one script execution: the graph
// handle under constants.Graph plus every caller parameter by name.
type Bindings map[string]any

// Names returns the binding names in sorted order.
func (b Bindings) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Engine is an interpreter handle. A handle is safe for concurrent use: each
// Eval runs on its own interpreter thread with its own bindings, while the
// handle itself may keep state (such as compiled programs) that grows with
// the number of distinct scripts it has seen.
type Engine interface {
	// Eval runs script with bindings as its top-level variables and returns
	// the value of the last statement, or a null value when that statement
	// produces none. Cancelling ctx stops the evaluation.
	Eval(ctx context.Context, script string, bindings Bindings) (result.Value, error)

	// String names the engine for logs and metrics.
	String() string
}

// Factory constructs a fresh interpreter handle.
type Factory func() (Engine, error)
