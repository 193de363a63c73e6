package graphscript

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robbyt/go-graphscript/engines/types"
	"github.com/robbyt/go-graphscript/graph"
	"github.com/robbyt/go-graphscript/options"
	"github.com/robbyt/go-graphscript/platform"
	"github.com/robbyt/go-graphscript/platform/representation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogs() options.Option {
	return options.WithLogHandler(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func classicStore(t *testing.T) *graph.Store {
	t.Helper()
	store, err := graph.NewClassicStore(t.Name())
	require.NoError(t, err)
	return store
}

func marshal(t *testing.T, rep representation.Representation) string {
	t.Helper()
	b, err := rep.MarshalJSON()
	require.NoError(t, err)
	return string(b)
}

func TestExecutors(t *testing.T) {
	t.Parallel()

	for _, engineType := range types.All() {
		t.Run(engineType.String(), func(t *testing.T) {
			x, err := NewExecutor(quietLogs(), options.WithEngine(engineType))
			require.NoError(t, err)

			script := `g.v("0").out("knows").values("name").toList()`
			rep, err := x.ExecuteScript(t.Context(), classicStore(t), script, nil)
			require.NoError(t, err)
			assert.JSONEq(t, `["vadas","josh"]`, marshal(t, rep))
		})
	}
}

func TestNewStarlarkExecutor(t *testing.T) {
	t.Parallel()
	x, err := NewStarlarkExecutor(quietLogs(), options.WithMaxSteps(10_000))
	require.NoError(t, err)

	store := classicStore(t)
	rep, err := x.ExecuteScript(t.Context(), store, "[v.name for v in g.V() if v.age and v.age > n]",
		map[string]any{"n": 30})
	require.NoError(t, err)
	assert.JSONEq(t, `["josh","peter"]`, marshal(t, rep))

	_, err = x.ExecuteScript(t.Context(), store, "while True:\n    pass", nil)
	require.ErrorIs(t, err, platform.ErrBadInput)
}

func TestNewRisorExecutor(t *testing.T) {
	t.Parallel()
	x, err := NewRisorExecutor(quietLogs())
	require.NoError(t, err)

	store := classicStore(t)
	rep, err := x.ExecuteScript(t.Context(), store, `g.addVertex("x", {"name": name}).name`,
		map[string]any{"name": "xavier"})
	require.NoError(t, err)
	assert.Equal(t, representation.ValueRepresentation{Value: "xavier"}, rep)
	assert.Equal(t, 7, store.VertexCount())
}

func TestStaticBindings(t *testing.T) {
	t.Parallel()
	x, err := NewStarlarkExecutor(quietLogs(), options.WithStaticBindings(map[string]any{
		"region": "eu",
		"limit":  2,
	}))
	require.NoError(t, err)
	store := classicStore(t)

	rep, err := x.ExecuteScript(t.Context(), store, `[region, limit]`, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `["eu",2]`, marshal(t, rep))

	rep, err = x.ExecuteScript(t.Context(), store, `[region, limit]`, map[string]any{"region": "us"})
	require.NoError(t, err)
	assert.JSONEq(t, `["us",2]`, marshal(t, rep), "request parameters win")
}

func TestExecutorFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "graphscript.yaml")
	doc := strings.Join([]string{
		"engine: risor",
		"replacementThreshold: 2",
		"timeout: 5s",
		"baseURI: http://db.test/data",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	x, err := NewExecutor(quietLogs(), options.FromFile(path))
	require.NoError(t, err)

	store := classicStore(t)
	for range 5 {
		rep, err := x.ExecuteScript(t.Context(), store, `g.v("1")`, nil)
		require.NoError(t, err)
		node, ok := rep.(*representation.NodeRepresentation)
		require.True(t, ok)
		assert.Equal(t, "http://db.test/data/node/1", node.Self)
	}
	assert.Equal(t, uint64(2), x.Manager().Generation())
}

func TestNewExecutorErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]options.Option{
		"unknown engine":   options.WithEngine("lua"),
		"bad threshold":    options.WithReplacementThreshold(-1),
		"negative timeout": options.WithTimeout(-time.Second),
		"missing file":     options.FromFile(filepath.Join(t.TempDir(), "missing.yaml")),
	}
	for name, opt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewExecutor(quietLogs(), opt)
			require.Error(t, err)
		})
	}
}
