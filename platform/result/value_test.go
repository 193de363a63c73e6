package result

import (
	"context"
	"errors"
	"testing"

	"github.com/robbyt/go-graphscript/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, v Value) []Value {
	t.Helper()
	var out []Value
	for item, err := range v.Items() {
		require.NoError(t, err)
		out = append(out, item)
	}
	return out
}

func TestZeroValueIsNull(t *testing.T) {
	t.Parallel()
	var v Value
	assert.True(t, v.IsNull())
	assert.Equal(t, KindScalar, v.Kind())
	assert.True(t, Null().IsNull())
	assert.False(t, Int(0).IsNull())
}

func TestFromGo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       any
		wantKind Kind
		want     any
	}{
		{name: "nil", in: nil, wantKind: KindScalar, want: nil},
		{name: "bool", in: true, wantKind: KindScalar, want: true},
		{name: "int", in: 7, wantKind: KindScalar, want: int64(7)},
		{name: "uint32", in: uint32(7), wantKind: KindScalar, want: int64(7)},
		{name: "float32", in: float32(0.5), wantKind: KindScalar, want: 0.5},
		{name: "string", in: "héllo \"x\"", wantKind: KindScalar, want: "héllo \"x\""},
		{name: "channel", in: make(chan int), wantKind: KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := FromGo(tt.in)
			assert.Equal(t, tt.wantKind, v.Kind())
			if tt.wantKind == KindScalar {
				assert.Equal(t, tt.want, v.Scalar())
			}
		})
	}

	t.Run("unsupported names the type", func(t *testing.T) {
		v := FromGo(struct{ A int }{})
		assert.Equal(t, "struct { A int }", v.TypeName())
	})

	t.Run("list keeps order", func(t *testing.T) {
		v := FromGo([]any{int64(1), "a", []any{true}})
		require.Equal(t, KindSequence, v.Kind())
		items := collect(t, v)
		require.Len(t, items, 3)
		assert.Equal(t, int64(1), items[0].Scalar())
		assert.Equal(t, "a", items[1].Scalar())
		assert.Equal(t, KindSequence, items[2].Kind())
	})

	t.Run("map sorted by key", func(t *testing.T) {
		v := FromGo(map[string]any{"b": 2, "a": 1})
		require.Equal(t, KindMapping, v.Kind())
		entries := v.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "a", entries[0].Key)
		assert.Equal(t, int64(1), entries[0].Value.Scalar())
	})

	t.Run("value passes through", func(t *testing.T) {
		assert.Equal(t, "x", FromGo(String("x")).Scalar())
	})
}

func TestFromGoGraphObjects(t *testing.T) {
	t.Parallel()
	store, err := graph.NewClassicStore("result")
	require.NoError(t, err)
	g := graph.Open(context.Background(), store)

	assert.Equal(t, KindGraph, FromGo(g).Kind())
	assert.Equal(t, KindTable, FromGo(graph.NewTable("a")).Kind())

	v, ok := g.Vertex("0")
	require.True(t, ok)
	el := FromGo(v)
	require.Equal(t, KindElement, el.Kind())
	assert.Equal(t, "0", el.Element().ID())

	seq := FromGo(g.Vertices().Out("knows"))
	require.Equal(t, KindSequence, seq.Kind())
	items := collect(t, seq)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].Element().ID())
	assert.Equal(t, "3", items[1].Element().ID())
}

func TestSequencePropagatesErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	v := Sequence(func(yield func(Value, error) bool) {
		if !yield(Int(1), nil) {
			return
		}
		yield(Value{}, boom)
	})

	var gotErr error
	n := 0
	for _, err := range v.Items() {
		if err != nil {
			gotErr = err
			break
		}
		n++
	}
	assert.Equal(t, 1, n)
	require.ErrorIs(t, gotErr, boom)
}

func TestItemsOfNonSequence(t *testing.T) {
	t.Parallel()
	assert.Empty(t, collect(t, Int(1)))
}
