package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/robbyt/go-graphscript/internal/helpers"
	"github.com/robbyt/go-graphscript/internal/metrics"
	"github.com/robbyt/go-graphscript/platform"
)

type handle struct {
	engine     platform.Engine
	generation uint64
}

// Manager owns the interpreter handle shared by all executions. It builds
// the handle lazily and rebuilds it when the replacement policy says so.
// The execution counter is carried over when a handle is built: executions
// recorded after the replacement was scheduled run on the new handle and
// count towards it. Readers take the current handle without locking; only
// construction is serialized, so one replacement builds exactly one handle no
// matter how many goroutines ask for it at once.
type Manager struct {
	logger  *slog.Logger
	factory platform.Factory
	policy  ReplacementPolicy

	current atomic.Pointer[handle]
	pending atomic.Bool

	mu         sync.Mutex
	name       string
	executions int64
	scheduled  int64
	generation uint64
	closed     bool
}

// NewManager creates a manager that builds handles with factory. A nil
// policy means NewCountingPolicy(constants.DefaultReplacementThreshold).
func NewManager(
	handler slog.Handler,
	factory platform.Factory,
	policy ReplacementPolicy,
	opts ...FunctionalOption,
) (*Manager, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	if policy == nil {
		policy = NewCountingPolicy(0)
	}
	_, logger := helpers.SetupLogger(handler, "lifecycle", "Manager")
	m := &Manager{
		logger:  logger,
		factory: factory,
		policy:  policy,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	return m, nil
}

// BeforeExecution records one execution attempt and marks the handle for
// replacement when the policy asks for it. Call it once per execution,
// before CurrentEngine.
func (m *Manager) BeforeExecution(script string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions++
	if m.pending.Load() {
		return
	}
	if m.current.Load() == nil || m.policy.ShouldReplace(m.executions, script) {
		m.pending.Store(true)
		m.scheduled = m.executions
		m.logger.Debug("engine replacement scheduled",
			"executions", m.executions, "generation", m.generation)
	}
}

// CurrentEngine returns the handle to evaluate with, building a new one
// when there is none yet or a replacement is pending. Callers arriving
// during a construction wait for it and get the new handle. Construction
// failures are reported as platform.ErrEngineUnavailable.
func (m *Manager) CurrentEngine(ctx context.Context) (platform.Engine, error) {
	if h := m.current.Load(); h != nil && !m.pending.Load() {
		return h.engine, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("%w: %w", platform.ErrEngineUnavailable, ErrManagerClosed)
	}
	if h := m.current.Load(); h != nil && !m.pending.Load() {
		return h.engine, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", platform.ErrEngineUnavailable, err)
	}

	engine, err := m.factory()
	if err == nil && engine == nil {
		err = ErrNilEngine
	}
	if err != nil {
		metrics.EngineConstructionsTotal.WithLabelValues(m.engineLabel(), "error").Inc()
		m.logger.ErrorContext(ctx, "failed to construct engine", "error", err)
		return nil, fmt.Errorf("%w: %w", platform.ErrEngineUnavailable, err)
	}

	m.generation++
	previous := m.current.Swap(&handle{engine: engine, generation: m.generation})
	// executions that arrived while the replacement was pending run on the new handle
	m.executions = max(m.executions-m.scheduled, 0)
	m.scheduled = 0
	m.pending.Store(false)
	if m.name == "" {
		m.name = engine.String()
	}

	metrics.EngineConstructionsTotal.WithLabelValues(engine.String(), "ok").Inc()
	if previous != nil {
		// in-flight evaluations may still hold the previous handle
		m.logger.InfoContext(ctx, "engine replaced",
			"engine", engine.String(), "generation", m.generation, "retired", previous.generation)
	} else {
		m.logger.InfoContext(ctx, "engine created", "engine", engine.String(), "generation", m.generation)
	}
	return engine, nil
}

// engineLabel names the engine in metrics; called with mu held.
func (m *Manager) engineLabel() string {
	if m.name == "" {
		return "unknown"
	}
	return m.name
}

// Generation identifies the current handle: 0 before the first
// construction, then 1, 2, ... for each handle built.
func (m *Manager) Generation() uint64 {
	if h := m.current.Load(); h != nil {
		return h.generation
	}
	return 0
}

// Executions returns the counter since the current handle was built.
func (m *Manager) Executions() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executions
}

// Close shuts the manager down, closing the current handle when it
// implements io.Closer. Later CurrentEngine calls fail.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	h := m.current.Swap(nil)
	if h == nil {
		return nil
	}
	if c, ok := h.engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
