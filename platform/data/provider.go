package data

import (
	"context"
)

// Getter retrieves the data stored for a script execution.
type Getter interface {
	GetData(ctx context.Context) (map[string]any, error)
}

// Setter stores data for a script execution by enriching a context.
type Setter interface {
	// AddDataToContext returns a context carrying data. Later maps override
	// earlier ones for duplicate keys.
	//
	// Example:
	//  ctx, err := provider.AddDataToContext(ctx, map[string]any{"x": 1})
	//  if err != nil {
	//      return err
	//  }
	//  vars, err := provider.GetData(ctx)
	AddDataToContext(ctx context.Context, data ...map[string]any) (context.Context, error)
}

// Provider defines the interface for accessing the variables of a script execution.
type Provider interface {
	// Getter retrieves associated data from a context during script eval.
	Getter

	// Setter enriches a context with request data.
	Setter
}
