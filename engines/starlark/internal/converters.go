package internal

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/robbyt/go-graphscript/graph"
	"github.com/robbyt/go-graphscript/platform/result"
	starlarkLib "go.starlark.net/starlark"
)

var ErrUnsupportedType = errors.New("unsupported type")

// ToStarlark converts a Go value into a Starlark value. Maps become dicts
// with sorted keys.
func ToStarlark(v any) (starlarkLib.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlarkLib.None, nil
	case starlarkLib.Value:
		return val, nil
	case bool:
		return starlarkLib.Bool(val), nil
	case int:
		return starlarkLib.MakeInt(val), nil
	case int32:
		return starlarkLib.MakeInt64(int64(val)), nil
	case int64:
		return starlarkLib.MakeInt64(val), nil
	case uint64:
		return starlarkLib.MakeUint64(val), nil
	case float32:
		return starlarkLib.Float(val), nil
	case float64:
		return starlarkLib.Float(val), nil
	case string:
		return starlarkLib.String(val), nil
	case []string:
		elems := make([]starlarkLib.Value, len(val))
		for i, s := range val {
			elems[i] = starlarkLib.String(s)
		}
		return starlarkLib.NewList(elems), nil
	case []any:
		elems := make([]starlarkLib.Value, len(val))
		for i, item := range val {
			elem, err := ToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			elems[i] = elem
		}
		return starlarkLib.NewList(elems), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		dict := starlarkLib.NewDict(len(val))
		for _, k := range keys {
			elem, err := ToStarlark(val[k])
			if err != nil {
				return nil, fmt.Errorf("map key %q: %w", k, err)
			}
			if err := dict.SetKey(starlarkLib.String(k), elem); err != nil {
				return nil, err
			}
		}
		return dict, nil
	case *graph.Graph:
		return NewGraph(val), nil
	case *graph.Vertex:
		return NewVertex(val), nil
	case *graph.Edge:
		return NewEdge(val), nil
	case *graph.Pipeline:
		return NewPipeline(val), nil
	case *graph.Table:
		return NewTable(val), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

// FromStarlark converts a Starlark value into a Go value suitable for graph
// properties, ids and step arguments. Graph values unwrap to their graph
// package counterparts.
func FromStarlark(v starlarkLib.Value) (any, error) {
	switch val := v.(type) {
	case nil, starlarkLib.NoneType:
		return nil, nil
	case starlarkLib.Bool:
		return bool(val), nil
	case starlarkLib.Int:
		i, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("%w: integer %s overflows int64", ErrUnsupportedType, val)
		}
		return i, nil
	case starlarkLib.Float:
		return float64(val), nil
	case starlarkLib.String:
		return string(val), nil
	case *starlarkLib.List:
		return fromIterable(val, val.Len())
	case starlarkLib.Tuple:
		return fromIterable(val, val.Len())
	case *starlarkLib.Dict:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := starlarkLib.AsString(item[0])
			if !ok {
				return nil, fmt.Errorf("%w: dict key of type %s", ErrUnsupportedType, item[0].Type())
			}
			elem, err := FromStarlark(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", key, err)
			}
			out[key] = elem
		}
		return out, nil
	case *Graph:
		return val.g, nil
	case *Vertex:
		return val.v, nil
	case *Edge:
		return val.e, nil
	case *Pipeline:
		return val.p, nil
	case *Table:
		return val.t, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
	}
}

func fromIterable(it starlarkLib.Iterable, n int) ([]any, error) {
	out := make([]any, 0, n)
	iterator := it.Iterate()
	defer iterator.Done()
	var elem starlarkLib.Value
	for iterator.Next(&elem) {
		goVal, err := FromStarlark(elem)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", len(out), err)
		}
		out = append(out, goVal)
	}
	return out, nil
}

// ToResult converts the value a script produced into the engine neutral
// result model. Values with no result form, such as functions, become
// unsupported results rather than errors so the converter can report them.
func ToResult(v starlarkLib.Value) result.Value {
	switch val := v.(type) {
	case nil, starlarkLib.NoneType:
		return result.Null()
	case starlarkLib.Bool:
		return result.Bool(bool(val))
	case starlarkLib.Int:
		i, ok := val.Int64()
		if !ok {
			return result.Unsupported("bigint")
		}
		return result.Int(i)
	case starlarkLib.Float:
		return result.Float(float64(val))
	case starlarkLib.String:
		return result.String(string(val))
	case *starlarkLib.List:
		return listResult(val, val.Len())
	case starlarkLib.Tuple:
		return listResult(val, val.Len())
	case *starlarkLib.Set:
		return listResult(val, val.Len())
	case *starlarkLib.Dict:
		entries := make([]result.Entry, 0, val.Len())
		for _, item := range val.Items() {
			key, ok := starlarkLib.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			entries = append(entries, result.Entry{Key: key, Value: ToResult(item[1])})
		}
		return result.Mapping(entries...)
	case *Graph:
		return result.Graph(val.g)
	case *Vertex:
		return result.Element(val.v)
	case *Edge:
		return result.Element(val.e)
	case *Pipeline:
		return result.FromGo(val.p)
	case *Table:
		return result.Table(val.t)
	case starlarkLib.Iterable:
		return result.Sequence(iterableResults(val))
	default:
		return result.Unsupported(v.Type())
	}
}

func listResult(it starlarkLib.Iterable, n int) result.Value {
	items := make([]result.Value, 0, n)
	iterator := it.Iterate()
	defer iterator.Done()
	var elem starlarkLib.Value
	for iterator.Next(&elem) {
		items = append(items, ToResult(elem))
	}
	return result.List(items...)
}

// iterableResults adapts an iterable such as range() to a lazy result sequence.
func iterableResults(it starlarkLib.Iterable) iter.Seq2[result.Value, error] {
	return func(yield func(result.Value, error) bool) {
		iterator := it.Iterate()
		defer iterator.Done()
		var elem starlarkLib.Value
		for iterator.Next(&elem) {
			if !yield(ToResult(elem), nil) {
				return
			}
		}
		if e, ok := iterator.(interface{ Err() error }); ok && e.Err() != nil {
			yield(result.Value{}, e.Err())
		}
	}
}
