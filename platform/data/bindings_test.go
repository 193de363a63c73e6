package data

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/robbyt/go-graphscript/graph"
	"github.com/robbyt/go-graphscript/platform/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraph(t *testing.T) *graph.Graph {
	t.Helper()
	return graph.Open(context.Background(), graph.NewStore("bindings"))
}

func TestBindingBuilder_Build(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params map[string]any
		want   map[string]any
	}{
		{name: "nil params", params: nil, want: map[string]any{}},
		{name: "empty params", params: map[string]any{}, want: map[string]any{}},
		{name: "scalar param", params: map[string]any{"x": 1}, want: map[string]any{"x": int64(1)}},
		{
			name:   "nested param",
			params: map[string]any{"cfg": map[string]any{"depth": int32(2), "name": "n"}},
			want:   map[string]any{"cfg": map[string]any{"depth": int64(2), "name": "n"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGraph(t)
			builder := NewBindingBuilder(slog.NewTextHandler(&bytes.Buffer{}, nil), nil)

			bindings, err := builder.Build(t.Context(), g, tt.params)
			require.NoError(t, err)
			assert.Same(t, g, bindings[constants.Graph])
			assert.Len(t, bindings, len(tt.want)+1)
			for k, v := range tt.want {
				assert.Equal(t, v, bindings[k], "binding %q", k)
			}
		})
	}
}

func TestBindingBuilder_JSONNumbers(t *testing.T) {
	t.Parallel()
	dec := json.NewDecoder(strings.NewReader(`{"i": 1, "f": 1.5, "big": 1e400}`))
	dec.UseNumber()
	var params map[string]any
	require.NoError(t, dec.Decode(&params))

	builder := NewBindingBuilder(slog.NewTextHandler(&bytes.Buffer{}, nil), nil)

	_, err := builder.Build(t.Context(), newGraph(t), params)
	require.Error(t, err, "1e400 overflows float64")

	delete(params, "big")
	bindings, err := builder.Build(t.Context(), newGraph(t), params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bindings["i"])
	assert.Equal(t, 1.5, bindings["f"])
}

func TestBindingBuilder_GraphOverride(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	builder := NewBindingBuilder(slog.NewTextHandler(&logs, nil), nil)

	bindings, err := builder.Build(t.Context(), newGraph(t), map[string]any{constants.Graph: "not a graph"})
	require.NoError(t, err)
	assert.Equal(t, "not a graph", bindings[constants.Graph])
	assert.Contains(t, logs.String(), "parameter overrides the graph binding")
}

func TestBindingBuilder_StaticBindings(t *testing.T) {
	t.Parallel()
	provider := NewCompositeProvider(
		NewStaticProvider(map[string]any{"limit": int64(10), "env": "test"}),
		NewContextProvider(constants.Params),
	)
	builder := NewBindingBuilder(slog.NewTextHandler(&bytes.Buffer{}, nil), provider)
	assert.Same(t, provider, builder.Provider())

	bindings, err := builder.Build(t.Context(), newGraph(t), map[string]any{"limit": 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), bindings["limit"], "parameters override static bindings")
	assert.Equal(t, "test", bindings["env"])

	bindings, err = builder.Build(t.Context(), newGraph(t), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), bindings["limit"])
}

func TestBindingBuilder_InvalidParams(t *testing.T) {
	t.Parallel()
	builder := NewBindingBuilder(slog.NewTextHandler(&bytes.Buffer{}, nil), nil)
	_, err := builder.Build(t.Context(), newGraph(t), map[string]any{"": 1})
	require.ErrorIs(t, err, ErrEmptyKey)
}

func TestBindingBuilder_NilHandler(t *testing.T) {
	t.Parallel()
	builder := NewBindingBuilder(nil, nil)
	bindings, err := builder.Build(context.Background(), newGraph(t), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{constants.Graph}, bindings.Names())
}
