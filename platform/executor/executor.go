package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robbyt/go-graphscript/graph"
	"github.com/robbyt/go-graphscript/internal/helpers"
	"github.com/robbyt/go-graphscript/internal/metrics"
	"github.com/robbyt/go-graphscript/platform"
	"github.com/robbyt/go-graphscript/platform/data"
	"github.com/robbyt/go-graphscript/platform/lifecycle"
	"github.com/robbyt/go-graphscript/platform/representation"
)

// Executor runs one script request end to end: bindings, interpreter,
// evaluation, conversion and commit. It is safe for concurrent use.
type Executor struct {
	logger    *slog.Logger
	manager   *lifecycle.Manager
	bindings  *data.BindingBuilder
	converter *representation.Converter
	timeout   time.Duration
}

// New creates an executor from its collaborators.
func New(
	handler slog.Handler,
	manager *lifecycle.Manager,
	bindings *data.BindingBuilder,
	converter *representation.Converter,
	opts ...FunctionalOption,
) (*Executor, error) {
	if manager == nil || bindings == nil || converter == nil {
		return nil, ErrNilComponent
	}
	_, logger := helpers.SetupLogger(handler, "executor", "Executor")
	x := &Executor{
		logger:    logger,
		manager:   manager,
		bindings:  bindings,
		converter: converter,
	}
	for _, opt := range opts {
		if err := opt(x); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	return x, nil
}

// Manager returns the lifecycle manager supplying interpreter handles.
func (x *Executor) Manager() *lifecycle.Manager {
	return x.manager
}

// ExecuteScript evaluates script against db with params bound as variables
// and returns the converted result. Graph writes made by the script are
// committed only when evaluation and conversion both succeed; otherwise the
// transaction is rolled back. When ctx carries a transaction of db (see
// graph.WithTransaction) the script joins it, and a failure marks it
// rollback-only instead.
//
// Script failures are reported as platform.ErrBadInput with the underlying
// message, interpreter construction failures as platform.ErrEngineUnavailable
// and results with no representation as platform.ErrUnsupportedResult.
func (x *Executor) ExecuteScript(
	ctx context.Context,
	db *graph.Store,
	script string,
	params map[string]any,
) (rep representation.Representation, err error) {
	if db == nil {
		return nil, ErrNilStore
	}

	requestID := uuid.NewString()
	logger := x.logger.With("requestID", requestID)
	start := time.Now()
	engineName := "unknown"
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = platform.KindOf(err).String()
			logger.WarnContext(ctx, "script execution failed", "error", err, "kind", outcome)
		}
		metrics.ScriptExecutionsTotal.WithLabelValues(engineName, outcome).Inc()
		metrics.ScriptDuration.WithLabelValues(engineName).Observe(time.Since(start).Seconds())
	}()

	// the request scope also covers draining lazy results during conversion
	var cancel context.CancelFunc
	if x.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	x.manager.BeforeExecution(script)

	g := graph.Open(ctx, db)
	g.AutoStartTransaction(true)
	defer g.Close()

	bindings, err := x.bindings.Build(ctx, g, params)
	if err != nil {
		return nil, platform.BadInput(err)
	}

	engine, err := x.manager.CurrentEngine(ctx)
	if err != nil {
		return nil, err
	}
	engineName = engine.String()

	logger.DebugContext(ctx, "evaluating script",
		"engine", engineName, "generation", x.manager.Generation(), "bindings", bindings.Names())

	value, err := engine.Eval(ctx, script, bindings)
	if err != nil {
		return nil, platform.BadInput(err)
	}

	rep, err = x.converter.Convert(value)
	if err != nil {
		if errors.Is(err, platform.ErrUnsupportedResult) {
			return nil, err
		}
		// raised while draining a lazy result
		return nil, platform.BadInput(err)
	}

	if err := g.Commit(); err != nil {
		return nil, platform.BadInput(err)
	}
	logger.DebugContext(ctx, "script executed", "type", rep.Type(), "duration", time.Since(start))
	return rep, nil
}
