package internal

import (
	"errors"
	"fmt"
	"slices"

	"github.com/risor-io/risor/object"
	"github.com/robbyt/go-graphscript/graph"
	"github.com/robbyt/go-graphscript/platform/result"
)

var ErrUnsupportedType = errors.New("unsupported type")

// ToObject converts a Go value into a Risor object.
func ToObject(v any) (object.Object, error) {
	switch val := v.(type) {
	case nil:
		return object.Nil, nil
	case object.Object:
		return val, nil
	case bool:
		return object.NewBool(val), nil
	case int:
		return object.NewInt(int64(val)), nil
	case int32:
		return object.NewInt(int64(val)), nil
	case int64:
		return object.NewInt(val), nil
	case float32:
		return object.NewFloat(float64(val)), nil
	case float64:
		return object.NewFloat(val), nil
	case string:
		return object.NewString(val), nil
	case []string:
		items := make([]object.Object, len(val))
		for i, s := range val {
			items[i] = object.NewString(s)
		}
		return object.NewList(items), nil
	case []any:
		items := make([]object.Object, len(val))
		for i, item := range val {
			obj, err := ToObject(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			items[i] = obj
		}
		return object.NewList(items), nil
	case map[string]any:
		items := make(map[string]object.Object, len(val))
		for k, item := range val {
			obj, err := ToObject(item)
			if err != nil {
				return nil, fmt.Errorf("map key %q: %w", k, err)
			}
			items[k] = obj
		}
		return object.NewMap(items), nil
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

// FromObject converts a Risor object into a Go value for graph properties,
// ids and step arguments.
func FromObject(obj object.Object) (any, error) {
	switch val := obj.(type) {
	case nil:
		return nil, nil
	case *object.NilType:
		return nil, nil
	case *object.Bool:
		return val.Value(), nil
	case *object.Int:
		return val.Value(), nil
	case *object.Float:
		return val.Value(), nil
	case *object.String:
		return val.Value(), nil
	case *object.List:
		items := val.Value()
		out := make([]any, len(items))
		for i, item := range items {
			goVal, err := FromObject(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			out[i] = goVal
		}
		return out, nil
	case *object.Map:
		items := val.Value()
		out := make(map[string]any, len(items))
		for k, item := range items {
			goVal, err := FromObject(item)
			if err != nil {
				return nil, fmt.Errorf("map key %q: %w", k, err)
			}
			out[k] = goVal
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
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, obj.Type())
	}
}

// ToResult converts the value a script produced into the result model.
// Maps are ordered by key. Objects with no result form, such as functions,
// become unsupported results.
func ToResult(obj object.Object) result.Value {
	switch val := obj.(type) {
	case nil:
		return result.Null()
	case *object.NilType:
		return result.Null()
	case *object.Bool:
		return result.Bool(val.Value())
	case *object.Int:
		return result.Int(val.Value())
	case *object.Float:
		return result.Float(val.Value())
	case *object.String:
		return result.String(val.Value())
	case *object.List:
		items := val.Value()
		out := make([]result.Value, len(items))
		for i, item := range items {
			out[i] = ToResult(item)
		}
		return result.List(out...)
	case *object.Map:
		items := val.Value()
		keys := make([]string, 0, len(items))
		for k := range items {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		entries := make([]result.Entry, len(keys))
		for i, k := range keys {
			entries[i] = result.Entry{Key: k, Value: ToResult(items[k])}
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
	default:
		return result.Unsupported(string(obj.Type()))
	}
}
