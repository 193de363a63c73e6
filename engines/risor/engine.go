package risor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	risorLib "github.com/risor-io/risor"
	risorCompiler "github.com/risor-io/risor/compiler"
	"github.com/robbyt/go-graphscript/engines/risor/compiler"
	"github.com/robbyt/go-graphscript/engines/risor/internal"
	"github.com/robbyt/go-graphscript/engines/types"
	"github.com/robbyt/go-graphscript/internal/helpers"
	"github.com/robbyt/go-graphscript/internal/metrics"
	"github.com/robbyt/go-graphscript/platform"
	"github.com/robbyt/go-graphscript/platform/constants"
	"github.com/robbyt/go-graphscript/platform/result"
)

var ErrExecutionFailed = errors.New("risor execution failed")

// Engine is a Risor interpreter handle. Bytecode is cached by script and
// binding names; every Eval runs on its own VM.
type Engine struct {
	logHandler slog.Handler
	logger     *slog.Logger

	mu    sync.RWMutex
	codes map[string]*risorCompiler.Code
}

var _ platform.Engine = (*Engine)(nil)

// New creates a Risor engine.
func New(opts ...FunctionalOption) (*Engine, error) {
	e := &Engine{codes: make(map[string]*risorCompiler.Code)}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	e.logHandler, e.logger = helpers.SetupLogger(e.logHandler, "risor", "Engine")
	return e, nil
}

// NewFactory returns a factory building engines with opts.
func NewFactory(opts ...FunctionalOption) platform.Factory {
	return func() (platform.Engine, error) {
		return New(opts...)
	}
}

func (e *Engine) String() string {
	return types.Risor.String()
}

// globalNames lists the names a script is compiled against: the bindings
// plus the table constructor.
func globalNames(bindings platform.Bindings) []string {
	names := bindings.Names()
	if !slices.Contains(names, constants.TableBuiltin) {
		names = append(names, constants.TableBuiltin)
	}
	return names
}

func (e *Engine) code(ctx context.Context, script string, names []string) (*risorCompiler.Code, error) {
	key := helpers.ScriptKey(script, names)

	e.mu.RLock()
	code, ok := e.codes[key]
	e.mu.RUnlock()
	if ok {
		return code, nil
	}

	code, err := compiler.Compile(ctx, script, names)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if cached, ok := e.codes[key]; ok {
		return cached, nil
	}
	e.codes[key] = code
	metrics.CompiledScripts.WithLabelValues(e.String()).Set(float64(len(e.codes)))
	return code, nil
}

// Eval compiles script, or reuses its cached bytecode, and runs it with
// bindings as globals. The result is the value of the last expression.
func (e *Engine) Eval(ctx context.Context, script string, bindings platform.Bindings) (result.Value, error) {
	if err := ctx.Err(); err != nil {
		return result.Value{}, err
	}
	if strings.TrimSpace(script) == "" {
		return result.Null(), nil
	}
	logger := e.logger.With("script", helpers.SHA256(script)[:12])

	code, err := e.code(ctx, script, globalNames(bindings))
	if err != nil {
		logger.DebugContext(ctx, "compile failed", "error", err)
		return result.Value{}, err
	}

	options := make([]risorLib.Option, 0, len(bindings)+1)
	if _, ok := bindings[constants.TableBuiltin]; !ok {
		options = append(options, risorLib.WithGlobal(constants.TableBuiltin, internal.NewTableBuiltin(constants.TableBuiltin)))
	}
	for name, val := range bindings {
		obj, err := internal.ToObject(val)
		if err != nil {
			return result.Value{}, fmt.Errorf("binding %q: %w", name, err)
		}
		options = append(options, risorLib.WithGlobal(name, obj))
	}

	obj, err := risorLib.EvalCode(ctx, code, options...)
	if err != nil {
		return result.Value{}, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
	}
	return internal.ToResult(obj), nil
}

// Close drops the bytecode cache.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger.Debug("closing engine", "programs", len(e.codes))
	clear(e.codes)
	return nil
}
