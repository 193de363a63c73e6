package internal

import (
	"math"
	"testing"

	"github.com/robbyt/go-graphscript/graph"
	"github.com/robbyt/go-graphscript/platform/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	starlarkLib "go.starlark.net/starlark"
)

func TestToStarlark(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   any
		want    string
		wantErr bool
	}{
		{name: "nil", input: nil, want: "None"},
		{name: "bool", input: true, want: "True"},
		{name: "int", input: 42, want: "42"},
		{name: "int64", input: int64(-7), want: "-7"},
		{name: "uint64", input: uint64(math.MaxUint64), want: "18446744073709551615"},
		{name: "float", input: 1.5, want: "1.5"},
		{name: "string", input: "hi", want: `"hi"`},
		{name: "string slice", input: []string{"a", "b"}, want: `["a", "b"]`},
		{name: "nested list", input: []any{int64(1), []any{"x"}}, want: `[1, ["x"]]`},
		{name: "map sorted keys", input: map[string]any{"b": 2, "a": 1}, want: `{"a": 1, "b": 2}`},
		{name: "starlark value", input: starlarkLib.String("s"), want: `"s"`},
		{name: "unsupported", input: struct{}{}, wantErr: true},
		{name: "unsupported nested", input: map[string]any{"k": make(chan int)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToStarlark(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromStarlark(t *testing.T) {
	t.Parallel()

	dict := starlarkLib.NewDict(2)
	require.NoError(t, dict.SetKey(starlarkLib.String("n"), starlarkLib.MakeInt(1)))
	require.NoError(t, dict.SetKey(starlarkLib.String("l"), starlarkLib.Tuple{starlarkLib.True}))

	badKey := starlarkLib.NewDict(1)
	require.NoError(t, badKey.SetKey(starlarkLib.MakeInt(1), starlarkLib.None))

	huge := starlarkLib.MakeInt(1).Lsh(80)

	tests := []struct {
		name    string
		input   starlarkLib.Value
		want    any
		wantErr bool
	}{
		{name: "nil", input: nil, want: nil},
		{name: "none", input: starlarkLib.None, want: nil},
		{name: "bool", input: starlarkLib.False, want: false},
		{name: "int", input: starlarkLib.MakeInt(9), want: int64(9)},
		{name: "float", input: starlarkLib.Float(2.5), want: 2.5},
		{name: "string", input: starlarkLib.String("x"), want: "x"},
		{name: "list", input: starlarkLib.NewList([]starlarkLib.Value{starlarkLib.MakeInt(1)}), want: []any{int64(1)}},
		{name: "dict", input: dict, want: map[string]any{"n": int64(1), "l": []any{true}}},
		{name: "big int", input: huge, wantErr: true},
		{name: "non string key", input: badKey, wantErr: true},
		{name: "function", input: starlarkLib.NewBuiltin("f", nil), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromStarlark(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToResult(t *testing.T) {
	t.Parallel()

	store, err := graph.NewClassicStore("test")
	require.NoError(t, err)
	g := graph.Open(t.Context(), store)
	marko, ok := g.Vertex("0")
	require.True(t, ok)

	t.Run("scalars", func(t *testing.T) {
		assert.True(t, ToResult(nil).IsNull())
		assert.True(t, ToResult(starlarkLib.None).IsNull())
		assert.Equal(t, true, ToResult(starlarkLib.True).Scalar())
		assert.Equal(t, int64(3), ToResult(starlarkLib.MakeInt(3)).Scalar())
		assert.Equal(t, 0.5, ToResult(starlarkLib.Float(0.5)).Scalar())
		assert.Equal(t, "s", ToResult(starlarkLib.String("s")).Scalar())
	})

	t.Run("big int is unsupported", func(t *testing.T) {
		got := ToResult(starlarkLib.MakeInt(1).Lsh(70))
		assert.Equal(t, result.KindUnsupported, got.Kind())
	})

	t.Run("list", func(t *testing.T) {
		got := ToResult(starlarkLib.Tuple{starlarkLib.MakeInt(1), NewVertex(marko)})
		require.Equal(t, result.KindSequence, got.Kind())
		var kinds []result.Kind
		for item, err := range got.Items() {
			require.NoError(t, err)
			kinds = append(kinds, item.Kind())
		}
		assert.Equal(t, []result.Kind{result.KindScalar, result.KindElement}, kinds)
	})

	t.Run("dict keeps insertion order", func(t *testing.T) {
		d := starlarkLib.NewDict(2)
		require.NoError(t, d.SetKey(starlarkLib.String("z"), starlarkLib.MakeInt(1)))
		require.NoError(t, d.SetKey(starlarkLib.MakeInt(5), starlarkLib.MakeInt(2)))
		got := ToResult(d)
		require.Equal(t, result.KindMapping, got.Kind())
		entries := got.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "z", entries[0].Key)
		assert.Equal(t, "5", entries[1].Key)
	})

	t.Run("graph values", func(t *testing.T) {
		assert.Equal(t, result.KindGraph, ToResult(NewGraph(g)).Kind())
		assert.Equal(t, result.KindElement, ToResult(NewVertex(marko)).Kind())
		assert.Equal(t, result.KindTable, ToResult(NewTable(graph.NewTable())).Kind())
		assert.Equal(t, result.KindSequence, ToResult(NewPipeline(g.Vertices())).Kind())
	})

	t.Run("function is unsupported", func(t *testing.T) {
		got := ToResult(starlarkLib.NewBuiltin("len", nil))
		assert.Equal(t, result.KindUnsupported, got.Kind())
		assert.Equal(t, "builtin_function_or_method", got.TypeName())
	})
}
