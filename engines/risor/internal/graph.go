package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/op"
	"github.com/robbyt/go-graphscript/graph"
)

const (
	GraphType    object.Type = "graph"
	VertexType   object.Type = "vertex"
	EdgeType     object.Type = "edge"
	PipelineType object.Type = "pipeline"
	TableType    object.Type = "table"
)

// method is a builtin bound to a receiver on attribute lookup.
type method func(ctx context.Context, args ...object.Object) object.Object

func bind(name string, fn method) *object.Builtin {
	return object.NewBuiltin(name, object.BuiltinFunction(fn))
}

func argsError(name string, want, got int) object.Object {
	return object.NewError(fmt.Errorf("%s: want %d arguments, got %d", name, want, got))
}

func errorf(format string, args ...any) *object.Error {
	return object.NewError(fmt.Errorf(format, args...))
}

func unsupportedOp(t object.Type, opType op.BinaryOpType) object.Object {
	return errorf("type error: unsupported operation for %s: %v", t, opType)
}

func stringArgs(name string, args []object.Object) ([]string, *object.Error) {
	out := make([]string, len(args))
	for i, a := range args {
		s, ok := a.(*object.String)
		if !ok {
			return nil, errorf("%s: argument %d must be a string, got %s", name, i+1, a.Type())
		}
		out[i] = s.Value()
	}
	return out, nil
}

func idArg(name string, arg object.Object) (string, *object.Error) {
	goVal, err := FromObject(arg)
	if err != nil {
		return "", object.NewError(fmt.Errorf("%s: %w", name, err))
	}
	id, err := graph.FormatID(goVal)
	if err != nil {
		return "", object.NewError(fmt.Errorf("%s: %w", name, err))
	}
	return id, nil
}

// Graph exposes a graph handle to scripts.
type Graph struct {
	g *graph.Graph
}

var _ object.Object = (*Graph)(nil)

func NewGraph(g *graph.Graph) *Graph { return &Graph{g: g} }

func (g *Graph) Type() object.Type    { return GraphType }
func (g *Graph) Inspect() string      { return g.g.String() }
func (g *Graph) String() string       { return g.g.String() }
func (g *Graph) Interface() any       { return g.g }
func (g *Graph) IsTruthy() bool       { return true }
func (g *Graph) Cost() int            { return 0 }
func (g *Graph) Unwrap() *graph.Graph { return g.g }

func (g *Graph) Equals(other object.Object) object.Object {
	o, ok := other.(*Graph)
	return object.NewBool(ok && o.g == g.g)
}

func (g *Graph) SetAttr(name string, _ object.Object) error {
	return fmt.Errorf("attribute error: graph has no settable attribute %q", name)
}

func (g *Graph) RunOperation(opType op.BinaryOpType, _ object.Object) object.Object {
	return unsupportedOp(GraphType, opType)
}

func (g *Graph) GetAttr(name string) (object.Object, bool) {
	switch name {
	case "v":
		return bind("graph.v", g.vertex), true
	case "e":
		return bind("graph.e", g.edge), true
	case "V":
		return bind("graph.V", g.vertices), true
	case "E":
		return bind("graph.E", g.edges), true
	case "addVertex":
		return bind("graph.addVertex", g.addVertex), true
	case "addEdge":
		return bind("graph.addEdge", g.addEdge), true
	case "removeVertex":
		return bind("graph.removeVertex", g.removeVertex), true
	case "removeEdge":
		return bind("graph.removeEdge", g.removeEdge), true
	}
	return nil, false
}

func (g *Graph) vertex(_ context.Context, args ...object.Object) object.Object {
	if len(args) != 1 {
		return argsError("graph.v", 1, len(args))
	}
	id, err := idArg("graph.v", args[0])
	if err != nil {
		return err
	}
	v, ok := g.g.Vertex(id)
	if !ok {
		return object.Nil
	}
	return NewVertex(v)
}

func (g *Graph) edge(_ context.Context, args ...object.Object) object.Object {
	if len(args) != 1 {
		return argsError("graph.e", 1, len(args))
	}
	id, err := idArg("graph.e", args[0])
	if err != nil {
		return err
	}
	e, ok := g.g.Edge(id)
	if !ok {
		return object.Nil
	}
	return NewEdge(e)
}

func (g *Graph) ids(name string, args []object.Object) ([]string, *object.Error) {
	ids := make([]string, len(args))
	for i, a := range args {
		id, err := idArg(name, a)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func (g *Graph) vertices(_ context.Context, args ...object.Object) object.Object {
	ids, err := g.ids("graph.V", args)
	if err != nil {
		return err
	}
	return NewPipeline(g.g.Vertices(ids...))
}

func (g *Graph) edges(_ context.Context, args ...object.Object) object.Object {
	ids, err := g.ids("graph.E", args)
	if err != nil {
		return err
	}
	return NewPipeline(g.g.Edges(ids...))
}

// propsArg converts an optional map argument into element properties.
func propsArg(name string, arg object.Object) (map[string]any, *object.Error) {
	if arg == object.Nil {
		return nil, nil
	}
	m, ok := arg.(*object.Map)
	if !ok {
		return nil, errorf("%s: properties must be a map, got %s", name, arg.Type())
	}
	goVal, err := FromObject(m)
	if err != nil {
		return nil, object.NewError(fmt.Errorf("%s: %w", name, err))
	}
	return goVal.(map[string]any), nil
}

// addVertex(id=nil, props=nil)
func (g *Graph) addVertex(_ context.Context, args ...object.Object) object.Object {
	const name = "graph.addVertex"
	if len(args) > 2 {
		return errorf("%s: want at most 2 arguments, got %d", name, len(args))
	}
	var id string
	if len(args) > 0 && args[0] != object.Nil {
		var err *object.Error
		if id, err = idArg(name, args[0]); err != nil {
			return err
		}
	}
	var props map[string]any
	if len(args) > 1 {
		var err *object.Error
		if props, err = propsArg(name, args[1]); err != nil {
			return err
		}
	}
	v, err := g.g.AddVertex(id, props)
	if err != nil {
		return object.NewError(fmt.Errorf("%s: %w", name, err))
	}
	return NewVertex(v)
}

// addEdge(out, in, label, props=nil, id=nil)
func (g *Graph) addEdge(_ context.Context, args ...object.Object) object.Object {
	const name = "graph.addEdge"
	if len(args) < 3 || len(args) > 5 {
		return errorf("%s: want 3 to 5 arguments, got %d", name, len(args))
	}
	out, ok := args[0].(*Vertex)
	if !ok {
		return errorf("%s: out must be a vertex, got %s", name, args[0].Type())
	}
	in, ok := args[1].(*Vertex)
	if !ok {
		return errorf("%s: in must be a vertex, got %s", name, args[1].Type())
	}
	label, ok := args[2].(*object.String)
	if !ok {
		return errorf("%s: label must be a string, got %s", name, args[2].Type())
	}
	var props map[string]any
	if len(args) > 3 {
		var err *object.Error
		if props, err = propsArg(name, args[3]); err != nil {
			return err
		}
	}
	var id string
	if len(args) > 4 && args[4] != object.Nil {
		var err *object.Error
		if id, err = idArg(name, args[4]); err != nil {
			return err
		}
	}
	e, err := g.g.AddEdge(id, out.v, in.v, label.Value(), props)
	if err != nil {
		return object.NewError(fmt.Errorf("%s: %w", name, err))
	}
	return NewEdge(e)
}

func (g *Graph) removeVertex(_ context.Context, args ...object.Object) object.Object {
	if len(args) != 1 {
		return argsError("graph.removeVertex", 1, len(args))
	}
	v, ok := args[0].(*Vertex)
	if !ok {
		return errorf("graph.removeVertex: expected a vertex, got %s", args[0].Type())
	}
	if err := g.g.RemoveVertex(v.v); err != nil {
		return object.NewError(fmt.Errorf("graph.removeVertex: %w", err))
	}
	return object.Nil
}

func (g *Graph) removeEdge(_ context.Context, args ...object.Object) object.Object {
	if len(args) != 1 {
		return argsError("graph.removeEdge", 1, len(args))
	}
	e, ok := args[0].(*Edge)
	if !ok {
		return errorf("graph.removeEdge: expected an edge, got %s", args[0].Type())
	}
	if err := g.g.RemoveEdge(e.e); err != nil {
		return object.NewError(fmt.Errorf("graph.removeEdge: %w", err))
	}
	return object.Nil
}

// elementAttr resolves the attributes shared by vertices and edges. Unknown
// names read properties; a missing property is nil.
func elementAttr(el graph.Element, typ object.Type, name string) object.Object {
	switch name {
	case "id":
		return object.NewString(el.ID())
	case "getProperty":
		return bind(string(typ)+".getProperty", func(_ context.Context, args ...object.Object) object.Object {
			if len(args) != 1 {
				return argsError(string(typ)+".getProperty", 1, len(args))
			}
			key, err := stringArgs(string(typ)+".getProperty", args)
			if err != nil {
				return err
			}
			val, ok := el.Property(key[0])
			if !ok {
				return object.Nil
			}
			return mustObject(val)
		})
	case "setProperty":
		return bind(string(typ)+".setProperty", func(_ context.Context, args ...object.Object) object.Object {
			if len(args) != 2 {
				return argsError(string(typ)+".setProperty", 2, len(args))
			}
			key, ok := args[0].(*object.String)
			if !ok {
				return errorf("%s.setProperty: key must be a string, got %s", typ, args[0].Type())
			}
			if err := setElementProperty(el, key.Value(), args[1]); err != nil {
				return object.NewError(err)
			}
			return object.Nil
		})
	case "removeProperty":
		return bind(string(typ)+".removeProperty", func(_ context.Context, args ...object.Object) object.Object {
			if len(args) != 1 {
				return argsError(string(typ)+".removeProperty", 1, len(args))
			}
			key, err := stringArgs(string(typ)+".removeProperty", args)
			if err != nil {
				return err
			}
			old, ok := el.Property(key[0])
			if !ok {
				return object.Nil
			}
			if err := el.RemoveProperty(key[0]); err != nil {
				return object.NewError(err)
			}
			return mustObject(old)
		})
	case "keys":
		return bind(string(typ)+".keys", func(_ context.Context, args ...object.Object) object.Object {
			keys := el.Keys()
			items := make([]object.Object, len(keys))
			for i, k := range keys {
				items[i] = object.NewString(k)
			}
			return object.NewList(items)
		})
	}
	val, ok := el.Property(name)
	if !ok {
		return object.Nil
	}
	return mustObject(val)
}

func setElementProperty(el graph.Element, name string, value object.Object) error {
	if name == "id" || name == "label" {
		return fmt.Errorf("attribute error: cannot assign to %s", name)
	}
	if value == object.Nil {
		return el.RemoveProperty(name)
	}
	goVal, err := FromObject(value)
	if err != nil {
		return err
	}
	return el.SetProperty(name, goVal)
}

// mustObject converts a stored property, which is always convertible.
func mustObject(v any) object.Object {
	obj, err := ToObject(v)
	if err != nil {
		return object.NewError(err)
	}
	return obj
}

// Vertex exposes a vertex. Unknown attributes read properties and assigning
// an attribute writes one.
type Vertex struct {
	v *graph.Vertex
}

var _ object.Object = (*Vertex)(nil)

func NewVertex(v *graph.Vertex) *Vertex { return &Vertex{v: v} }

func (v *Vertex) Type() object.Type     { return VertexType }
func (v *Vertex) Inspect() string       { return v.v.String() }
func (v *Vertex) String() string        { return v.v.String() }
func (v *Vertex) Interface() any        { return v.v }
func (v *Vertex) IsTruthy() bool        { return true }
func (v *Vertex) Cost() int             { return 0 }
func (v *Vertex) Unwrap() *graph.Vertex { return v.v }

func (v *Vertex) Equals(other object.Object) object.Object {
	o, ok := other.(*Vertex)
	return object.NewBool(ok && o.v.ID() == v.v.ID())
}

func (v *Vertex) SetAttr(name string, value object.Object) error {
	return setElementProperty(v.v, name, value)
}

func (v *Vertex) RunOperation(opType op.BinaryOpType, _ object.Object) object.Object {
	return unsupportedOp(VertexType, opType)
}

func (v *Vertex) GetAttr(name string) (object.Object, bool) {
	switch name {
	case "out", "in", "in_", "both", "outE", "inE", "bothE":
		step := strings.TrimSuffix(name, "_")
		return bind("vertex."+step, func(ctx context.Context, args ...object.Object) object.Object {
			start := NewPipeline(graph.Start(v.v.Graph(), v.v))
			return start.labelStep(step, args)
		}), true
	}
	return elementAttr(v.v, VertexType, name), true
}

// Edge exposes an edge with the same property access as Vertex.
type Edge struct {
	e *graph.Edge
}

var _ object.Object = (*Edge)(nil)

func NewEdge(e *graph.Edge) *Edge { return &Edge{e: e} }

func (e *Edge) Type() object.Type   { return EdgeType }
func (e *Edge) Inspect() string     { return e.e.String() }
func (e *Edge) String() string      { return e.e.String() }
func (e *Edge) Interface() any      { return e.e }
func (e *Edge) IsTruthy() bool      { return true }
func (e *Edge) Cost() int           { return 0 }
func (e *Edge) Unwrap() *graph.Edge { return e.e }

func (e *Edge) Equals(other object.Object) object.Object {
	o, ok := other.(*Edge)
	return object.NewBool(ok && o.e.ID() == e.e.ID())
}

func (e *Edge) SetAttr(name string, value object.Object) error {
	return setElementProperty(e.e, name, value)
}

func (e *Edge) RunOperation(opType op.BinaryOpType, _ object.Object) object.Object {
	return unsupportedOp(EdgeType, opType)
}

func (e *Edge) GetAttr(name string) (object.Object, bool) {
	switch name {
	case "label":
		return object.NewString(e.e.Label()), true
	case "outV":
		return bind("edge.outV", func(context.Context, ...object.Object) object.Object {
			return NewVertex(e.e.OutVertex())
		}), true
	case "inV":
		return bind("edge.inV", func(context.Context, ...object.Object) object.Object {
			return NewVertex(e.e.InVertex())
		}), true
	}
	return elementAttr(e.e, EdgeType, name), true
}

// Pipeline exposes a lazy traversal. Steps return new pipelines; next,
// toList, count and iterate drain it.
type Pipeline struct {
	p *graph.Pipeline
}

var _ object.Object = (*Pipeline)(nil)

func NewPipeline(p *graph.Pipeline) *Pipeline { return &Pipeline{p: p} }

func (p *Pipeline) Type() object.Type       { return PipelineType }
func (p *Pipeline) Inspect() string         { return "pipeline" }
func (p *Pipeline) String() string          { return "pipeline" }
func (p *Pipeline) Interface() any          { return p.p }
func (p *Pipeline) IsTruthy() bool          { return true }
func (p *Pipeline) Cost() int               { return 0 }
func (p *Pipeline) Unwrap() *graph.Pipeline { return p.p }

func (p *Pipeline) Equals(other object.Object) object.Object {
	return object.NewBool(other == object.Object(p))
}

func (p *Pipeline) SetAttr(name string, _ object.Object) error {
	return fmt.Errorf("attribute error: pipeline has no settable attribute %q", name)
}

func (p *Pipeline) RunOperation(opType op.BinaryOpType, _ object.Object) object.Object {
	return unsupportedOp(PipelineType, opType)
}

func (p *Pipeline) labelStep(step string, args []object.Object) object.Object {
	labels, err := stringArgs("pipeline."+step, args)
	if err != nil {
		return err
	}
	switch step {
	case "out":
		return NewPipeline(p.p.Out(labels...))
	case "in":
		return NewPipeline(p.p.In(labels...))
	case "both":
		return NewPipeline(p.p.Both(labels...))
	case "outE":
		return NewPipeline(p.p.OutE(labels...))
	case "inE":
		return NewPipeline(p.p.InE(labels...))
	default:
		return NewPipeline(p.p.BothE(labels...))
	}
}

func (p *Pipeline) GetAttr(name string) (object.Object, bool) {
	fn := "pipeline." + name
	switch name {
	case "out", "in", "in_", "both", "outE", "inE", "bothE":
		step := strings.TrimSuffix(name, "_")
		return bind(fn, func(_ context.Context, args ...object.Object) object.Object {
			return p.labelStep(step, args)
		}), true
	case "outV":
		return bind(fn, func(context.Context, ...object.Object) object.Object {
			return NewPipeline(p.p.OutV())
		}), true
	case "inV":
		return bind(fn, func(context.Context, ...object.Object) object.Object {
			return NewPipeline(p.p.InV())
		}), true
	case "dedup":
		return bind(fn, func(context.Context, ...object.Object) object.Object {
			return NewPipeline(p.p.Dedup())
		}), true
	case "has":
		return bind(fn, func(_ context.Context, args ...object.Object) object.Object {
			if len(args) != 2 {
				return argsError(fn, 2, len(args))
			}
			key, err := stringArgs(fn, args[:1])
			if err != nil {
				return err
			}
			val, convErr := FromObject(args[1])
			if convErr != nil {
				return object.NewError(fmt.Errorf("%s: %w", fn, convErr))
			}
			return NewPipeline(p.p.Has(key[0], val))
		}), true
	case "hasNot", "as", "as_", "values":
		return bind(fn, func(_ context.Context, args ...object.Object) object.Object {
			if len(args) != 1 {
				return argsError(fn, 1, len(args))
			}
			arg, err := stringArgs(fn, args)
			if err != nil {
				return err
			}
			switch name {
			case "hasNot":
				return NewPipeline(p.p.HasNot(arg[0]))
			case "as", "as_":
				return NewPipeline(p.p.As(arg[0]))
			default:
				return NewPipeline(p.p.Values(arg[0]))
			}
		}), true
	case "table":
		return bind(fn, func(_ context.Context, args ...object.Object) object.Object {
			if len(args) != 1 {
				return argsError(fn, 1, len(args))
			}
			t, ok := args[0].(*Table)
			if !ok {
				return errorf("%s: expected a table, got %s", fn, args[0].Type())
			}
			return NewPipeline(p.p.Table(t.t))
		}), true
	case "limit":
		return bind(fn, func(_ context.Context, args ...object.Object) object.Object {
			if len(args) != 1 {
				return argsError(fn, 1, len(args))
			}
			n, ok := args[0].(*object.Int)
			if !ok {
				return errorf("%s: expected an int, got %s", fn, args[0].Type())
			}
			return NewPipeline(p.p.Limit(int(n.Value())))
		}), true
	case "next":
		return bind(fn, func(context.Context, ...object.Object) object.Object {
			obj, err := p.p.Next()
			if err != nil {
				return object.NewError(err)
			}
			return mustObject(obj)
		}), true
	case "toList":
		return bind(fn, func(context.Context, ...object.Object) object.Object {
			objs, err := p.p.ToList()
			if err != nil {
				return object.NewError(err)
			}
			return mustObject(objs)
		}), true
	case "count":
		return bind(fn, func(context.Context, ...object.Object) object.Object {
			n, err := p.p.Count()
			if err != nil {
				return object.NewError(err)
			}
			return object.NewInt(n)
		}), true
	case "iterate":
		return bind(fn, func(context.Context, ...object.Object) object.Object {
			if err := p.p.Iterate(); err != nil {
				return object.NewError(err)
			}
			return object.Nil
		}), true
	}
	return nil, false
}

// Table exposes a result table.
type Table struct {
	t *graph.Table
}

var _ object.Object = (*Table)(nil)

func NewTable(t *graph.Table) *Table { return &Table{t: t} }

// NewTableBuiltin implements table(*columns).
func NewTableBuiltin(name string) *object.Builtin {
	return object.NewBuiltin(name, func(_ context.Context, args ...object.Object) object.Object {
		columns, err := stringArgs(name, args)
		if err != nil {
			return err
		}
		return NewTable(graph.NewTable(columns...))
	})
}

func (t *Table) Type() object.Type    { return TableType }
func (t *Table) Inspect() string      { return fmt.Sprintf("table(%d rows)", t.t.Len()) }
func (t *Table) String() string       { return t.Inspect() }
func (t *Table) Interface() any       { return t.t }
func (t *Table) IsTruthy() bool       { return t.t.Len() > 0 }
func (t *Table) Cost() int            { return 0 }
func (t *Table) Unwrap() *graph.Table { return t.t }

func (t *Table) Equals(other object.Object) object.Object {
	o, ok := other.(*Table)
	return object.NewBool(ok && o.t == t.t)
}

func (t *Table) SetAttr(name string, _ object.Object) error {
	return fmt.Errorf("attribute error: table has no settable attribute %q", name)
}

func (t *Table) RunOperation(opType op.BinaryOpType, _ object.Object) object.Object {
	return unsupportedOp(TableType, opType)
}

func (t *Table) GetAttr(name string) (object.Object, bool) {
	switch name {
	case "columns":
		return mustObject(t.t.Columns()), true
	case "size":
		return object.NewInt(int64(t.t.Len())), true
	}
	return nil, false
}
