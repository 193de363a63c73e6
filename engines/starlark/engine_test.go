package starlark

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/robbyt/go-graphscript/engines/starlark/compiler"
	"github.com/robbyt/go-graphscript/graph"
	"github.com/robbyt/go-graphscript/platform"
	"github.com/robbyt/go-graphscript/platform/constants"
	"github.com/robbyt/go-graphscript/platform/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...FunctionalOption) *Engine {
	t.Helper()
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})
	e, err := New(append([]FunctionalOption{WithLogHandler(handler)}, opts...)...)
	require.NoError(t, err)
	return e
}

func classicBindings(t *testing.T) platform.Bindings {
	t.Helper()
	store, err := graph.NewClassicStore("test")
	require.NoError(t, err)
	g := graph.Open(t.Context(), store)
	g.AutoStartTransaction(true)
	t.Cleanup(g.Close)
	return platform.Bindings{constants.Graph: g}
}

func drain(t *testing.T, v result.Value) []result.Value {
	t.Helper()
	require.Equal(t, result.KindSequence, v.Kind())
	var out []result.Value
	for item, err := range v.Items() {
		require.NoError(t, err)
		out = append(out, item)
	}
	return out
}

func TestNew(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	assert.Equal(t, "starlark", e.String())

	_, err := New(WithLogHandler(nil))
	require.Error(t, err)

	factory := NewFactory(WithMaxSteps(10))
	built, err := factory()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), built.(*Engine).maxSteps)
}

func TestEvalScalars(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	tests := []struct {
		name     string
		script   string
		bindings platform.Bindings
		want     any
	}{
		{name: "integer", script: "1", want: int64(1)},
		{name: "last statement wins", script: "1;\n2", want: int64(2)},
		{name: "float", script: "1.5 * 2", want: 3.0},
		{name: "string", script: "'a' + 'b'", want: "ab"},
		{name: "bool", script: "1 < 2", want: true},
		{name: "loop yields null", script: "for i in range(3):\n    x = i\n", want: nil},
		{name: "assignment yields null", script: "x = 1", want: nil},
		{name: "parameter", script: "x", bindings: platform.Bindings{"x": int64(10)}, want: int64(10)},
		{name: "parameter arithmetic", script: "x + y", bindings: platform.Bindings{"x": 1, "y": 2.5}, want: 3.5},
		{name: "nested parameter", script: "cfg['n'][1]", bindings: platform.Bindings{"cfg": map[string]any{"n": []any{"a", "b"}}}, want: "b"},
		{name: "function call", script: "def f(n):\n    return n * n\nf(4)", want: int64(16)},
		{name: "json module", script: "json.decode('[1]')[0]", want: int64(1)},
		{name: "empty script", script: "", want: nil},
		{name: "blank script", script: " \n", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Eval(t.Context(), tt.script, tt.bindings)
			require.NoError(t, err)
			require.Equal(t, result.KindScalar, got.Kind())
			assert.Equal(t, tt.want, got.Scalar())
		})
	}
}

func TestEvalCollections(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	got, err := e.Eval(t.Context(), "[1,2,5,6,8]", nil)
	require.NoError(t, err)
	items := drain(t, got)
	require.Len(t, items, 5)
	assert.Equal(t, int64(8), items[4].Scalar())

	got, err = e.Eval(t.Context(), `{"b": 1, "a": [True]}`, nil)
	require.NoError(t, err)
	require.Equal(t, result.KindMapping, got.Kind())
	entries := got.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Key)
	assert.Equal(t, "a", entries[1].Key)

	got, err = e.Eval(t.Context(), "range(3)", nil)
	require.NoError(t, err)
	assert.Len(t, drain(t, got), 3)
}

func TestEvalGraph(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	t.Run("graph", func(t *testing.T) {
		b := classicBindings(t)
		got, err := e.Eval(t.Context(), "g", b)
		require.NoError(t, err)
		assert.Equal(t, result.KindGraph, got.Kind())
		assert.Same(t, b[constants.Graph], got.Graph())
	})

	t.Run("vertex", func(t *testing.T) {
		got, err := e.Eval(t.Context(), "g.v(0)", classicBindings(t))
		require.NoError(t, err)
		require.Equal(t, result.KindElement, got.Kind())
		assert.Equal(t, "0", got.Element().ID())
	})

	t.Run("all vertices", func(t *testing.T) {
		got, err := e.Eval(t.Context(), "g.V()", classicBindings(t))
		require.NoError(t, err)
		assert.Len(t, drain(t, got), 6)
	})

	t.Run("all edges", func(t *testing.T) {
		got, err := e.Eval(t.Context(), "g.E()", classicBindings(t))
		require.NoError(t, err)
		assert.Len(t, drain(t, got), 6)
	})

	t.Run("filter", func(t *testing.T) {
		got, err := e.Eval(t.Context(), "g.V().filter(lambda it: it.name == 'marko').next()", classicBindings(t))
		require.NoError(t, err)
		require.Equal(t, result.KindElement, got.Kind())
		assert.Equal(t, "0", got.Element().ID())
	})

	t.Run("lazy filter result", func(t *testing.T) {
		got, err := e.Eval(t.Context(), "g.V().filter(lambda it: it.lang == 'java')", classicBindings(t))
		require.NoError(t, err)
		items := drain(t, got)
		require.Len(t, items, 2)
		assert.Equal(t, "4", items[1].Element().ID())
	})

	t.Run("table", func(t *testing.T) {
		script := "t = Table()\ng.v(0).out('knows').as_('friends').table(t).iterate()\nt"
		got, err := e.Eval(t.Context(), script, classicBindings(t))
		require.NoError(t, err)
		require.Equal(t, result.KindTable, got.Kind())
		assert.Equal(t, []string{"friends"}, got.Table().Columns())
		assert.Equal(t, 2, got.Table().Len())
	})

	t.Run("write is visible to the same graph", func(t *testing.T) {
		b := classicBindings(t)
		got, err := e.Eval(t.Context(), "v = g.addVertex(name='x')\nv.age = 3\ng.v(v.id).age", b)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Scalar())
		g := b[constants.Graph].(*graph.Graph)
		assert.Equal(t, 6, g.Store().VertexCount())
	})
}

func TestEvalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		script  string
		opts    []FunctionalOption
		wantErr error
	}{
		{name: "syntax error", script: "1 +", wantErr: compiler.ErrCompileFailed},
		{name: "undefined name", script: "nope", wantErr: compiler.ErrCompileFailed},
		{name: "runtime failure", script: "fail('boom')", wantErr: ErrExecutionFailed},
		{name: "type error", script: "1 + 'a'", wantErr: ErrExecutionFailed},
		{name: "graph error", script: "g.v(0).out(1)", wantErr: ErrExecutionFailed},
		{name: "missing element", script: "g.V().has('name', 'nobody').next()", wantErr: graph.ErrNoSuchElement},
		{name: "step limit", script: "while True:\n    pass\n", opts: []FunctionalOption{WithMaxSteps(1000)}, wantErr: ErrExecutionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, tt.opts...)
			_, err := e.Eval(t.Context(), tt.script, classicBindings(t))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("unsupported binding", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := e.Eval(t.Context(), "x", platform.Bindings{"x": struct{}{}})
		require.Error(t, err)
	})

	t.Run("function result is unsupported", func(t *testing.T) {
		e := newTestEngine(t)
		got, err := e.Eval(t.Context(), "def f():\n    pass\nf", nil)
		require.NoError(t, err)
		assert.Equal(t, result.KindUnsupported, got.Kind())
		assert.Equal(t, "function", got.TypeName())
	})
}

func TestEvalCancellation(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := e.Eval(ctx, "1", nil)
	require.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		_, err := e.Eval(ctx, "while True:\n    pass\n", nil)
		done <- err
	}()
	time.AfterFunc(20*time.Millisecond, cancel)
	err = <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
}

func TestProgramCache(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	for range 3 {
		_, err := e.Eval(t.Context(), "x", platform.Bindings{"x": 1})
		require.NoError(t, err)
	}
	assert.Len(t, e.programs, 1)

	_, err := e.Eval(t.Context(), "x", platform.Bindings{"x": 1, "y": 2})
	require.NoError(t, err)
	assert.Len(t, e.programs, 2, "binding names are part of the cache key")

	require.NoError(t, e.Close())
	assert.Empty(t, e.programs)

	got, err := e.Eval(t.Context(), "x", platform.Bindings{"x": 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Scalar())
}

func TestEvalConcurrent(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	const workers = 250
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Eval(t.Context(), "x = i; x", platform.Bindings{"i": i})
			if err != nil {
				errs <- err
				return
			}
			if got.Scalar() != int64(i) {
				errs <- fmt.Errorf("worker %d got %v", i, got.Scalar())
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.Len(t, e.programs, 1)
}
