// Package result holds the closed set of value shapes a script evaluation can
// produce. Engines translate interpreter values into a Value; the
// representation converter switches on Kind without knowing which engine ran.
package result

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/robbyt/go-graphscript/graph"
)

// Kind tags the shape held by a Value.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
	KindElement
	KindTable
	KindGraph
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindElement:
		return "element"
	case KindTable:
		return "table"
	case KindGraph:
		return "graph"
	default:
		return "unsupported"
	}
}

// Entry is one key/value pair of a mapping. Entries keep the order the
// interpreter produced them in.
type Entry struct {
	Key   string
	Value Value
}

// Value is a script result. The zero Value is the null scalar.
type Value struct {
	kind     Kind
	scalar   any
	seq      iter.Seq2[Value, error]
	entries  []Entry
	element  graph.Element
	table    *graph.Table
	graph    *graph.Graph
	typeName string
}

// Null is the result of a script whose last statement produced no value.
func Null() Value {
	return Value{}
}

// Bool, Int, Float and String build scalars.
func Bool(b bool) Value     { return Value{scalar: b} }
func Int(i int64) Value     { return Value{scalar: i} }
func Float(f float64) Value { return Value{scalar: f} }
func String(s string) Value { return Value{scalar: s} }

// Sequence wraps a possibly lazy sequence. It is consumed by the converter
// and should be iterated at most once.
func Sequence(seq iter.Seq2[Value, error]) Value {
	return Value{kind: KindSequence, seq: seq}
}

// List is an eager sequence.
func List(items ...Value) Value {
	items = slices.Clone(items)
	return Sequence(func(yield func(Value, error) bool) {
		for _, v := range items {
			if !yield(v, nil) {
				return
			}
		}
	})
}

func Mapping(entries ...Entry) Value {
	return Value{kind: KindMapping, entries: slices.Clone(entries)}
}

func Element(el graph.Element) Value {
	return Value{kind: KindElement, element: el}
}

func Table(t *graph.Table) Value {
	return Value{kind: KindTable, table: t}
}

func Graph(g *graph.Graph) Value {
	return Value{kind: KindGraph, graph: g}
}

// Unsupported records a value with no representation, by type name.
func Unsupported(typeName string) Value {
	return Value{kind: KindUnsupported, typeName: typeName}
}

func (v Value) Kind() Kind { return v.kind }

// Scalar returns nil, bool, int64, float64 or string.
func (v Value) Scalar() any { return v.scalar }

func (v Value) IsNull() bool { return v.kind == KindScalar && v.scalar == nil }

// Items iterates a sequence. For other kinds it yields nothing.
func (v Value) Items() iter.Seq2[Value, error] {
	if v.seq == nil {
		return func(func(Value, error) bool) {}
	}
	return v.seq
}

func (v Value) Entries() []Entry { return v.entries }

func (v Value) Element() graph.Element { return v.element }

func (v Value) Table() *graph.Table { return v.table }

func (v Value) Graph() *graph.Graph { return v.graph }

// TypeName names the type of an unsupported value.
func (v Value) TypeName() string { return v.typeName }

func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return fmt.Sprintf("%v", v.scalar)
	case KindElement:
		return fmt.Sprintf("%v", v.element)
	case KindGraph:
		return v.graph.String()
	case KindUnsupported:
		return "unsupported(" + v.typeName + ")"
	default:
		return v.kind.String()
	}
}

// FromGo converts a Go value, such as a graph property or a table cell, into
// a Value. Types with no representation become Unsupported.
func FromGo(x any) Value {
	switch val := x.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case bool:
		return Bool(val)
	case string:
		return String(val)
	case int:
		return Int(int64(val))
	case int8:
		return Int(int64(val))
	case int16:
		return Int(int64(val))
	case int32:
		return Int(int64(val))
	case int64:
		return Int(val)
	case uint8:
		return Int(int64(val))
	case uint16:
		return Int(int64(val))
	case uint32:
		return Int(int64(val))
	case uint64:
		if val > math.MaxInt64 {
			return Float(float64(val))
		}
		return Int(int64(val))
	case float32:
		return Float(float64(val))
	case float64:
		return Float(val)
	case []any:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = FromGo(item)
		}
		return List(items...)
	case []string:
		items := make([]Value, len(val))
		for i, s := range val {
			items[i] = String(s)
		}
		return List(items...)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			entries[i] = Entry{Key: k, Value: FromGo(val[k])}
		}
		return Mapping(entries...)
	case *graph.Vertex:
		return Element(val)
	case *graph.Edge:
		return Element(val)
	case *graph.Table:
		return Table(val)
	case *graph.Graph:
		return Graph(val)
	case *graph.Pipeline:
		return Sequence(func(yield func(Value, error) bool) {
			for obj, err := range val.All() {
				if err != nil {
					yield(Value{}, err)
					return
				}
				if !yield(FromGo(obj), nil) {
					return
				}
			}
		})
	default:
		return Unsupported(fmt.Sprintf("%T", x))
	}
}
