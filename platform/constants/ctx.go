// Description: names shared between the executor, the binding builder and the engines.
package constants

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// Params is the context key holding caller-supplied script parameters
	Params ContextKey = "script_params" // added by data.ContextProvider, load with ctx.Value()

	// Graph is the reserved top-level variable name bound to the graph handle
	Graph = "g"

	// TableBuiltin is the predeclared constructor for result tables
	TableBuiltin = "Table"

	// DefaultReplacementThreshold is how many executions an interpreter handle serves before it is rebuilt
	DefaultReplacementThreshold = 500
)
