// Package graphscript executes user scripts against a property graph. Each
// execution binds the graph as g plus the request parameters, evaluates the
// script on a shared interpreter that is rebuilt every few hundred
// executions, converts the result into a JSON-ready representation and
// commits the script's writes only when all of that succeeded.
package graphscript

import (
	"fmt"

	"github.com/robbyt/go-graphscript/engines/risor"
	"github.com/robbyt/go-graphscript/engines/starlark"
	"github.com/robbyt/go-graphscript/engines/types"
	"github.com/robbyt/go-graphscript/options"
	"github.com/robbyt/go-graphscript/platform"
	"github.com/robbyt/go-graphscript/platform/constants"
	"github.com/robbyt/go-graphscript/platform/data"
	"github.com/robbyt/go-graphscript/platform/executor"
	"github.com/robbyt/go-graphscript/platform/lifecycle"
	"github.com/robbyt/go-graphscript/platform/representation"
)

// NewStarlarkExecutor creates an executor evaluating Starlark scripts
func NewStarlarkExecutor(opts ...options.Option) (*executor.Executor, error) {
	return newExecutor(options.DefaultConfig(types.Starlark), opts...)
}

// NewRisorExecutor creates an executor evaluating Risor scripts
func NewRisorExecutor(opts ...options.Option) (*executor.Executor, error) {
	return newExecutor(options.DefaultConfig(types.Risor), opts...)
}

// NewExecutor creates an executor for the engine chosen by the options,
// Starlark when none is given. Use it with options.FromFile.
func NewExecutor(opts ...options.Option) (*executor.Executor, error) {
	return newExecutor(options.DefaultConfig(types.Starlark), opts...)
}

func newExecutor(cfg *options.Config, opts ...options.Option) (*executor.Executor, error) {
	if err := cfg.Apply(opts...); err != nil {
		return nil, err
	}

	// fill in anything an option cleared
	if err := options.WithDefaults()(cfg); err != nil {
		return nil, fmt.Errorf("error applying defaults: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return createExecutor(cfg)
}

// NewFactory returns the interpreter factory for the configured engine
func NewFactory(cfg *options.Config) (platform.Factory, error) {
	switch cfg.GetEngineType() {
	case types.Starlark:
		return starlark.NewFactory(
			starlark.WithLogHandler(cfg.GetHandler()),
			starlark.WithMaxSteps(cfg.GetMaxSteps()),
		), nil
	case types.Risor:
		return risor.NewFactory(risor.WithLogHandler(cfg.GetHandler())), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownType, cfg.GetEngineType())
	}
}

func createExecutor(cfg *options.Config) (*executor.Executor, error) {
	handler := cfg.GetHandler()

	factory, err := NewFactory(cfg)
	if err != nil {
		return nil, err
	}

	manager, err := lifecycle.NewManager(
		handler,
		factory,
		lifecycle.NewCountingPolicy(cfg.GetReplacementThreshold()),
		lifecycle.WithEngineName(cfg.GetEngineType().String()),
	)
	if err != nil {
		return nil, err
	}

	// request parameters override static bindings of the same name
	var provider data.Provider = data.NewContextProvider(constants.Params)
	if static := cfg.GetStaticBindings(); len(static) > 0 {
		provider = data.NewCompositeProvider(data.NewStaticProvider(static), provider)
	}

	return executor.New(
		handler,
		manager,
		data.NewBindingBuilder(handler, provider),
		representation.NewConverter(handler, cfg.GetBaseURI()),
		executor.WithTimeout(cfg.GetTimeout()),
	)
}
