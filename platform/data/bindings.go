package data

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-graphscript/graph"
	"github.com/robbyt/go-graphscript/internal/helpers"
	"github.com/robbyt/go-graphscript/platform"
	"github.com/robbyt/go-graphscript/platform/constants"
)

// BindingBuilder assembles the variable environment of one execution: the
// graph handle under constants.Graph, then whatever the provider yields.
type BindingBuilder struct {
	logger   *slog.Logger
	provider Provider
}

// NewBindingBuilder creates a builder reading variables from provider. A nil
// provider means request parameters stored under constants.Params only.
func NewBindingBuilder(handler slog.Handler, provider Provider) *BindingBuilder {
	_, logger := helpers.SetupLogger(handler, "data", "BindingBuilder")
	if provider == nil {
		provider = NewContextProvider(constants.Params)
	}
	return &BindingBuilder{
		logger:   logger,
		provider: provider,
	}
}

// Provider returns the provider the builder reads from.
func (b *BindingBuilder) Provider() Provider {
	return b.provider
}

// Build returns the bindings for g and params. The graph is bound first, so a
// parameter named like the graph binding replaces it; that is allowed and
// logged at warn level. Nil or empty params leave only the graph and any
// static bindings.
func (b *BindingBuilder) Build(
	ctx context.Context,
	g *graph.Graph,
	params map[string]any,
) (platform.Bindings, error) {
	if len(params) > 0 {
		var err error
		ctx, err = b.provider.AddDataToContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
	}

	vars, err := b.provider.GetData(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading parameters: %w", err)
	}

	bindings := make(platform.Bindings, len(vars)+1)
	bindings[constants.Graph] = g
	for name, value := range vars {
		if name == constants.Graph {
			b.logger.WarnContext(ctx, "parameter overrides the graph binding", "name", name)
		}
		bindings[name] = value
	}

	b.logger.DebugContext(ctx, "bindings built", "names", bindings.Names())
	return bindings, nil
}
