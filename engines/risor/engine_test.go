package risor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/robbyt/go-graphscript/engines/risor/compiler"
	"github.com/robbyt/go-graphscript/graph"
	"github.com/robbyt/go-graphscript/platform"
	"github.com/robbyt/go-graphscript/platform/constants"
	"github.com/robbyt/go-graphscript/platform/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})
	e, err := New(WithLogHandler(handler))
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
	assert.Equal(t, "risor", e.String())

	_, err := New(WithLogHandler(nil))
	require.Error(t, err)

	built, err := NewFactory()()
	require.NoError(t, err)
	assert.IsType(t, &Engine{}, built)
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
		{name: "last expression", script: "1\n2", want: int64(2)},
		{name: "string", script: `"a" + "b"`, want: "ab"},
		{name: "parameter", script: "x", bindings: platform.Bindings{"x": int64(10)}, want: int64(10)},
		{name: "parameter arithmetic", script: "x * 2", bindings: platform.Bindings{"x": 21}, want: int64(42)},
		{name: "nested parameter", script: `cfg["n"][1]`, bindings: platform.Bindings{"cfg": map[string]any{"n": []any{"a", "b"}}}, want: "b"},
		{name: "function call", script: "func sq(n) { return n * n }\nsq(4)", want: int64(16)},
		{name: "empty script", script: "", want: nil},
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

	got, err := e.Eval(t.Context(), "[1, 2, 5, 6, 8]", nil)
	require.NoError(t, err)
	items := drain(t, got)
	require.Len(t, items, 5)
	assert.Equal(t, int64(5), items[2].Scalar())

	got, err = e.Eval(t.Context(), `{"b": 1, "a": 2}`, nil)
	require.NoError(t, err)
	require.Equal(t, result.KindMapping, got.Kind())
	assert.Equal(t, "a", got.Entries()[0].Key)
}

func TestEvalGraph(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	t.Run("graph", func(t *testing.T) {
		got, err := e.Eval(t.Context(), "g", classicBindings(t))
		require.NoError(t, err)
		assert.Equal(t, result.KindGraph, got.Kind())
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

	t.Run("traversal", func(t *testing.T) {
		got, err := e.Eval(t.Context(), `g.v(0).out("knows").values("name").toList()`, classicBindings(t))
		require.NoError(t, err)
		items := drain(t, got)
		require.Len(t, items, 2)
		assert.Equal(t, "vadas", items[0].Scalar())
		assert.Equal(t, "josh", items[1].Scalar())
	})

	t.Run("table", func(t *testing.T) {
		script := "t := Table()\ng.v(0).out(\"knows\").as_(\"friends\").table(t).iterate()\nt"
		got, err := e.Eval(t.Context(), script, classicBindings(t))
		require.NoError(t, err)
		require.Equal(t, result.KindTable, got.Kind())
		assert.Equal(t, 2, got.Table().Len())
	})

	t.Run("write", func(t *testing.T) {
		b := classicBindings(t)
		got, err := e.Eval(t.Context(), `g.addVertex("x", {"name": "xavier"}).name`, b)
		require.NoError(t, err)
		assert.Equal(t, "xavier", got.Scalar())
		g := b[constants.Graph].(*graph.Graph)
		_, ok := g.Vertex("x")
		assert.True(t, ok)
	})
}

func TestEvalErrors(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	tests := []struct {
		name    string
		script  string
		wantErr error
	}{
		{name: "syntax error", script: "1 +", wantErr: compiler.ErrCompileFailed},
		{name: "missing element", script: `g.V().has("name", "nobody").next()`, wantErr: ErrExecutionFailed},
		{name: "bad id", script: "g.v(1.5)", wantErr: ErrExecutionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Eval(t.Context(), tt.script, classicBindings(t))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("undefined name", func(t *testing.T) {
		_, err := e.Eval(t.Context(), "nope", nil)
		require.Error(t, err)
	})

	t.Run("unsupported binding", func(t *testing.T) {
		_, err := e.Eval(t.Context(), "x", platform.Bindings{"x": struct{}{}})
		require.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := e.Eval(ctx, "1", nil)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestCodeCache(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	for range 3 {
		_, err := e.Eval(t.Context(), "x", platform.Bindings{"x": 1})
		require.NoError(t, err)
	}
	assert.Len(t, e.codes, 1)

	_, err := e.Eval(t.Context(), "x", platform.Bindings{"x": 1, "y": 2})
	require.NoError(t, err)
	assert.Len(t, e.codes, 2)

	require.NoError(t, e.Close())
	assert.Empty(t, e.codes)
}

func TestEvalConcurrent(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	const workers = 100
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Eval(t.Context(), "x := i\nx", platform.Bindings{"i": i})
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
}
