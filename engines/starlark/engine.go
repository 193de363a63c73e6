package starlark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/robbyt/go-graphscript/engines/starlark/compiler"
	"github.com/robbyt/go-graphscript/engines/starlark/internal"
	"github.com/robbyt/go-graphscript/engines/types"
	"github.com/robbyt/go-graphscript/internal/helpers"
	"github.com/robbyt/go-graphscript/internal/metrics"
	"github.com/robbyt/go-graphscript/platform"
	"github.com/robbyt/go-graphscript/platform/result"
	starlarkLib "go.starlark.net/starlark"
)

var ErrExecutionFailed = errors.New("starlark execution failed")

// Engine is a Starlark interpreter handle. Compiled programs are cached by
// script and binding names, and every Eval runs on a fresh thread.
type Engine struct {
	logHandler slog.Handler
	logger     *slog.Logger
	maxSteps   uint64

	modules starlarkLib.StringDict

	mu       sync.RWMutex
	programs map[string]*starlarkLib.Program
}

var _ platform.Engine = (*Engine)(nil)

// New creates a Starlark engine.
func New(opts ...FunctionalOption) (*Engine, error) {
	e := &Engine{
		modules:  internal.StarlarkModules(),
		programs: make(map[string]*starlarkLib.Program),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	e.logHandler, e.logger = helpers.SetupLogger(e.logHandler, "starlark", "Engine")
	return e, nil
}

// NewFactory returns a factory building engines with opts, for use with the
// lifecycle manager.
func NewFactory(opts ...FunctionalOption) platform.Factory {
	return func() (platform.Engine, error) {
		return New(opts...)
	}
}

func (e *Engine) String() string {
	return types.Starlark.String()
}

// program returns the cached program for script, compiling it on first use.
func (e *Engine) program(script string, names []string) (*starlarkLib.Program, error) {
	key := helpers.ScriptKey(script, names)

	e.mu.RLock()
	prog, ok := e.programs[key]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}

	prog, err := compiler.Compile(script, names)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if cached, ok := e.programs[key]; ok {
		return cached, nil
	}
	e.programs[key] = prog
	metrics.CompiledScripts.WithLabelValues(e.String()).Set(float64(len(e.programs)))
	return prog, nil
}

// Eval compiles script, or reuses its cached program, and runs it with
// bindings as predeclared globals. Pass a context scoped to the request:
// cancelling it also stops a returned traversal that is still being drained.
func (e *Engine) Eval(ctx context.Context, script string, bindings platform.Bindings) (result.Value, error) {
	if err := ctx.Err(); err != nil {
		return result.Value{}, err
	}
	if strings.TrimSpace(script) == "" {
		return result.Null(), nil
	}
	logger := e.logger.With("script", helpers.SHA256(script)[:12])

	prog, err := e.program(script, bindings.Names())
	if err != nil {
		logger.DebugContext(ctx, "compile failed", "error", err)
		return result.Value{}, err
	}

	predeclared := make(starlarkLib.StringDict, len(e.modules)+len(bindings))
	maps.Copy(predeclared, e.modules)
	for name, val := range bindings {
		sv, err := internal.ToStarlark(val)
		if err != nil {
			return result.Value{}, fmt.Errorf("binding %q: %w", name, err)
		}
		predeclared[name] = sv
	}

	thread := &starlarkLib.Thread{
		Name: "eval",
		Print: func(_ *starlarkLib.Thread, msg string) {
			logger.InfoContext(ctx, msg)
		},
	}
	if e.maxSteps > 0 {
		thread.SetMaxExecutionSteps(e.maxSteps)
	}
	// A lazy result runs filter callbacks on this thread while it is drained
	// after Eval returns, so the thread stays cancellable until ctx is done.
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})

	globals, err := prog.Init(thread, predeclared)
	if err != nil {
		stop()
		return result.Value{}, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
	}
	return internal.ToResult(globals[compiler.ResultName]), nil
}

// Close drops the compiled program cache.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger.Debug("closing engine", "programs", len(e.programs))
	clear(e.programs)
	return nil
}
