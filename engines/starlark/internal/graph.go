package internal

import (
	"fmt"
	"iter"
	"sort"

	"github.com/robbyt/go-graphscript/graph"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Graph exposes a graph handle to scripts.
type Graph struct {
	g *graph.Graph
}

// Vertex exposes a vertex. Unknown attributes read properties, assigning an
// attribute writes one.
type Vertex struct {
	v *graph.Vertex
}

// Edge exposes an edge, with the same property access as Vertex.
type Edge struct {
	e *graph.Edge
}

// Pipeline exposes a lazy traversal. It is iterable.
type Pipeline struct {
	p *graph.Pipeline
}

// Table exposes a result table built with Table(*columns).
type Table struct {
	t *graph.Table
}

var (
	_ starlarkLib.HasAttrs    = (*Graph)(nil)
	_ starlarkLib.HasSetField = (*Vertex)(nil)
	_ starlarkLib.HasSetField = (*Edge)(nil)
	_ starlarkLib.Comparable  = (*Vertex)(nil)
	_ starlarkLib.Comparable  = (*Edge)(nil)
	_ starlarkLib.Iterable    = (*Pipeline)(nil)
	_ starlarkLib.HasAttrs    = (*Table)(nil)
)

func NewGraph(g *graph.Graph) *Graph { return &Graph{g: g} }

func (g *Graph) String() string          { return g.g.String() }
func (g *Graph) Type() string            { return "graph" }
func (g *Graph) Freeze()                 {}
func (g *Graph) Truth() starlarkLib.Bool { return starlarkLib.True }
func (g *Graph) Hash() (uint32, error)   { return 0, fmt.Errorf("unhashable type: graph") }
func (g *Graph) Attr(name string) (starlarkLib.Value, error) {
	return builtinAttr(g, name, graphMethods)
}
func (g *Graph) AttrNames() []string { return builtinAttrNames(graphMethods) }

// Unwrap returns the graph handle.
func (g *Graph) Unwrap() *graph.Graph { return g.g }

var graphMethods = map[string]*starlarkLib.Builtin{
	"v":            starlarkLib.NewBuiltin("v", graphVertex),
	"e":            starlarkLib.NewBuiltin("e", graphEdge),
	"V":            starlarkLib.NewBuiltin("V", graphVertices),
	"E":            starlarkLib.NewBuiltin("E", graphEdges),
	"addVertex":    starlarkLib.NewBuiltin("addVertex", graphAddVertex),
	"addEdge":      starlarkLib.NewBuiltin("addEdge", graphAddEdge),
	"removeVertex": starlarkLib.NewBuiltin("removeVertex", graphRemoveVertex),
	"removeEdge":   starlarkLib.NewBuiltin("removeEdge", graphRemoveEdge),
}

func builtinAttr(recv starlarkLib.Value, name string, methods map[string]*starlarkLib.Builtin) (starlarkLib.Value, error) {
	b := methods[name]
	if b == nil {
		return nil, nil // no such method
	}
	return b.BindReceiver(recv), nil
}

func builtinAttrNames(methods map[string]*starlarkLib.Builtin) []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unpackID(fnname string, v starlarkLib.Value) (string, error) {
	goVal, err := FromStarlark(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", fnname, err)
	}
	id, err := graph.FormatID(goVal)
	if err != nil {
		return "", fmt.Errorf("%s: %w", fnname, err)
	}
	return id, nil
}

func unpackIDs(fnname string, args starlarkLib.Tuple) ([]string, error) {
	ids := make([]string, len(args))
	for i, a := range args {
		id, err := unpackID(fnname, a)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func graphVertex(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var idVal starlarkLib.Value
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &idVal); err != nil {
		return nil, err
	}
	id, err := unpackID(b.Name(), idVal)
	if err != nil {
		return nil, err
	}
	v, ok := b.Receiver().(*Graph).g.Vertex(id)
	if !ok {
		return starlarkLib.None, nil
	}
	return &Vertex{v: v}, nil
}

func graphEdge(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var idVal starlarkLib.Value
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &idVal); err != nil {
		return nil, err
	}
	id, err := unpackID(b.Name(), idVal)
	if err != nil {
		return nil, err
	}
	e, ok := b.Receiver().(*Graph).g.Edge(id)
	if !ok {
		return starlarkLib.None, nil
	}
	return &Edge{e: e}, nil
}

func graphVertices(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	ids, err := unpackIDs(b.Name(), args)
	if err != nil {
		return nil, err
	}
	return &Pipeline{p: b.Receiver().(*Graph).g.Vertices(ids...)}, nil
}

func graphEdges(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	ids, err := unpackIDs(b.Name(), args)
	if err != nil {
		return nil, err
	}
	return &Pipeline{p: b.Receiver().(*Graph).g.Edges(ids...)}, nil
}

// splitProps separates the id keyword from the property keywords.
func splitProps(fnname string, kwargs []starlarkLib.Tuple) (string, map[string]any, error) {
	var id string
	props := make(map[string]any, len(kwargs))
	for _, kw := range kwargs {
		name := string(kw[0].(starlarkLib.String))
		if name == "id" {
			if kw[1] == starlarkLib.None {
				continue
			}
			var err error
			if id, err = unpackID(fnname, kw[1]); err != nil {
				return "", nil, err
			}
			continue
		}
		val, err := FromStarlark(kw[1])
		if err != nil {
			return "", nil, fmt.Errorf("%s: property %q: %w", fnname, name, err)
		}
		props[name] = val
	}
	return id, props, nil
}

func graphAddVertex(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	id, props, err := splitProps(b.Name(), kwargs)
	if err != nil {
		return nil, err
	}
	switch len(args) {
	case 0:
	case 1:
		if args[0] != starlarkLib.None {
			if id, err = unpackID(b.Name(), args[0]); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%s: got %d positional arguments, want at most 1", b.Name(), len(args))
	}
	v, err := b.Receiver().(*Graph).g.AddVertex(id, props)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return &Vertex{v: v}, nil
}

func graphAddEdge(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	id, props, err := splitProps(b.Name(), kwargs)
	if err != nil {
		return nil, err
	}
	var out, in *Vertex
	var label string
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, nil, 3, &out, &in, &label); err != nil {
		return nil, err
	}
	e, err := b.Receiver().(*Graph).g.AddEdge(id, out.v, in.v, label, props)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return &Edge{e: e}, nil
}

func graphRemoveVertex(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var v *Vertex
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	if err := b.Receiver().(*Graph).g.RemoveVertex(v.v); err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlarkLib.None, nil
}

func graphRemoveEdge(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var e *Edge
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &e); err != nil {
		return nil, err
	}
	if err := b.Receiver().(*Graph).g.RemoveEdge(e.e); err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlarkLib.None, nil
}

// element behaviour shared by vertices and edges

func elementAttr(recv starlarkLib.Value, el graph.Element, name string, methods map[string]*starlarkLib.Builtin) (starlarkLib.Value, error) {
	if name == "id" {
		return starlarkLib.String(el.ID()), nil
	}
	if b, ok := methods[name]; ok {
		return b.BindReceiver(recv), nil
	}
	val, ok := el.Property(name)
	if !ok {
		return starlarkLib.None, nil
	}
	return ToStarlark(val)
}

func elementSetField(el graph.Element, name string, val starlarkLib.Value) error {
	if name == "id" || name == "label" {
		return fmt.Errorf("cannot assign to %s", name)
	}
	if val == starlarkLib.None {
		return el.RemoveProperty(name)
	}
	goVal, err := FromStarlark(val)
	if err != nil {
		return err
	}
	return el.SetProperty(name, goVal)
}

func compareElements(op syntax.Token, x, y string, typeName string) (bool, error) {
	switch op {
	case syntax.EQL:
		return x == y, nil
	case syntax.NEQ:
		return x != y, nil
	default:
		return false, fmt.Errorf("%s %s %s not implemented", typeName, op, typeName)
	}
}

func receiverElement(b *starlarkLib.Builtin) graph.Element {
	switch r := b.Receiver().(type) {
	case *Vertex:
		return r.v
	case *Edge:
		return r.e
	}
	return nil
}

func elementGetProperty(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var key string
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &key); err != nil {
		return nil, err
	}
	val, ok := receiverElement(b).Property(key)
	if !ok {
		return starlarkLib.None, nil
	}
	return ToStarlark(val)
}

func elementSetProperty(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var key string
	var val starlarkLib.Value
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &key, &val); err != nil {
		return nil, err
	}
	if err := elementSetField(receiverElement(b), key, val); err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlarkLib.None, nil
}

func elementRemoveProperty(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var key string
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &key); err != nil {
		return nil, err
	}
	el := receiverElement(b)
	old, ok := el.Property(key)
	if !ok {
		return starlarkLib.None, nil
	}
	if err := el.RemoveProperty(key); err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return ToStarlark(old)
}

func elementKeys(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	keys := receiverElement(b).Keys()
	elems := make([]starlarkLib.Value, len(keys))
	for i, k := range keys {
		elems[i] = starlarkLib.String(k)
	}
	return starlarkLib.NewList(elems), nil
}

func NewVertex(v *graph.Vertex) *Vertex { return &Vertex{v: v} }

func (v *Vertex) String() string          { return v.v.String() }
func (v *Vertex) Type() string            { return "vertex" }
func (v *Vertex) Freeze()                 {}
func (v *Vertex) Truth() starlarkLib.Bool { return starlarkLib.True }
func (v *Vertex) Hash() (uint32, error)   { return starlarkLib.String("v" + v.v.ID()).Hash() }
func (v *Vertex) Attr(name string) (starlarkLib.Value, error) {
	return elementAttr(v, v.v, name, vertexMethods)
}
func (v *Vertex) AttrNames() []string {
	return append(builtinAttrNames(vertexMethods), v.v.Keys()...)
}
func (v *Vertex) SetField(name string, val starlarkLib.Value) error {
	return elementSetField(v.v, name, val)
}
func (v *Vertex) CompareSameType(op syntax.Token, y starlarkLib.Value, _ int) (bool, error) {
	return compareElements(op, v.v.ID(), y.(*Vertex).v.ID(), v.Type())
}

// Unwrap returns the vertex.
func (v *Vertex) Unwrap() *graph.Vertex { return v.v }

var vertexMethods = map[string]*starlarkLib.Builtin{
	"getProperty":    starlarkLib.NewBuiltin("getProperty", elementGetProperty),
	"setProperty":    starlarkLib.NewBuiltin("setProperty", elementSetProperty),
	"removeProperty": starlarkLib.NewBuiltin("removeProperty", elementRemoveProperty),
	"keys":           starlarkLib.NewBuiltin("keys", elementKeys),
	"out":            starlarkLib.NewBuiltin("out", vertexStep),
	"in_":            starlarkLib.NewBuiltin("in_", vertexStep),
	"both":           starlarkLib.NewBuiltin("both", vertexStep),
	"outE":           starlarkLib.NewBuiltin("outE", vertexStep),
	"inE":            starlarkLib.NewBuiltin("inE", vertexStep),
	"bothE":          starlarkLib.NewBuiltin("bothE", vertexStep),
}

// vertexStep starts a traversal at the receiver and applies the step named
// like the builtin.
func vertexStep(thread *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	v := b.Receiver().(*Vertex).v
	start := &Pipeline{p: graph.Start(v.Graph(), v)}
	return starlarkLib.Call(thread, pipelineMethods[b.Name()].BindReceiver(start), args, kwargs)
}

func NewEdge(e *graph.Edge) *Edge { return &Edge{e: e} }

func (e *Edge) String() string          { return e.e.String() }
func (e *Edge) Type() string            { return "edge" }
func (e *Edge) Freeze()                 {}
func (e *Edge) Truth() starlarkLib.Bool { return starlarkLib.True }
func (e *Edge) Hash() (uint32, error)   { return starlarkLib.String("e" + e.e.ID()).Hash() }
func (e *Edge) Attr(name string) (starlarkLib.Value, error) {
	if name == "label" {
		return starlarkLib.String(e.e.Label()), nil
	}
	return elementAttr(e, e.e, name, edgeMethods)
}
func (e *Edge) AttrNames() []string {
	return append(append(builtinAttrNames(edgeMethods), "id", "label"), e.e.Keys()...)
}
func (e *Edge) SetField(name string, val starlarkLib.Value) error {
	return elementSetField(e.e, name, val)
}
func (e *Edge) CompareSameType(op syntax.Token, y starlarkLib.Value, _ int) (bool, error) {
	return compareElements(op, e.e.ID(), y.(*Edge).e.ID(), e.Type())
}

// Unwrap returns the edge.
func (e *Edge) Unwrap() *graph.Edge { return e.e }

var edgeMethods = map[string]*starlarkLib.Builtin{
	"getProperty":    starlarkLib.NewBuiltin("getProperty", elementGetProperty),
	"setProperty":    starlarkLib.NewBuiltin("setProperty", elementSetProperty),
	"removeProperty": starlarkLib.NewBuiltin("removeProperty", elementRemoveProperty),
	"keys":           starlarkLib.NewBuiltin("keys", elementKeys),
	"outV":           starlarkLib.NewBuiltin("outV", edgeOutV),
	"inV":            starlarkLib.NewBuiltin("inV", edgeInV),
}

func edgeOutV(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return &Vertex{v: b.Receiver().(*Edge).e.OutVertex()}, nil
}

func edgeInV(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return &Vertex{v: b.Receiver().(*Edge).e.InVertex()}, nil
}

func NewPipeline(p *graph.Pipeline) *Pipeline { return &Pipeline{p: p} }

func (p *Pipeline) String() string          { return "pipeline" }
func (p *Pipeline) Type() string            { return "pipeline" }
func (p *Pipeline) Freeze()                 {}
func (p *Pipeline) Truth() starlarkLib.Bool { return starlarkLib.True }
func (p *Pipeline) Hash() (uint32, error)   { return 0, fmt.Errorf("unhashable type: pipeline") }
func (p *Pipeline) Attr(name string) (starlarkLib.Value, error) {
	return builtinAttr(p, name, pipelineMethods)
}
func (p *Pipeline) AttrNames() []string { return builtinAttrNames(pipelineMethods) }

// Unwrap returns the traversal.
func (p *Pipeline) Unwrap() *graph.Pipeline { return p.p }

func (p *Pipeline) Iterate() starlarkLib.Iterator {
	next, stop := iter.Pull2(p.p.All())
	return &pipelineIterator{next: next, stop: stop}
}

type pipelineIterator struct {
	next func() (any, error, bool)
	stop func()
	err  error
}

func (it *pipelineIterator) Next(p *starlarkLib.Value) bool {
	if it.err != nil {
		return false
	}
	obj, err, ok := it.next()
	if !ok {
		return false
	}
	if err == nil {
		*p, err = ToStarlark(obj)
	}
	if err != nil {
		it.err = err
		return false
	}
	return true
}

func (it *pipelineIterator) Done() { it.stop() }

// Err reports an error that ended the iteration early.
func (it *pipelineIterator) Err() error { return it.err }

var pipelineMethods = map[string]*starlarkLib.Builtin{
	"out":     starlarkLib.NewBuiltin("out", pipelineLabelStep),
	"in_":     starlarkLib.NewBuiltin("in_", pipelineLabelStep),
	"both":    starlarkLib.NewBuiltin("both", pipelineLabelStep),
	"outE":    starlarkLib.NewBuiltin("outE", pipelineLabelStep),
	"inE":     starlarkLib.NewBuiltin("inE", pipelineLabelStep),
	"bothE":   starlarkLib.NewBuiltin("bothE", pipelineLabelStep),
	"outV":    starlarkLib.NewBuiltin("outV", pipelineNoArgStep),
	"inV":     starlarkLib.NewBuiltin("inV", pipelineNoArgStep),
	"dedup":   starlarkLib.NewBuiltin("dedup", pipelineNoArgStep),
	"has":     starlarkLib.NewBuiltin("has", pipelineHas),
	"hasNot":  starlarkLib.NewBuiltin("hasNot", pipelineHasNot),
	"filter":  starlarkLib.NewBuiltin("filter", pipelineFilter),
	"as_":     starlarkLib.NewBuiltin("as_", pipelineAs),
	"table":   starlarkLib.NewBuiltin("table", pipelineTable),
	"limit":   starlarkLib.NewBuiltin("limit", pipelineLimit),
	"values":  starlarkLib.NewBuiltin("values", pipelineValues),
	"next":    starlarkLib.NewBuiltin("next", pipelineNext),
	"toList":  starlarkLib.NewBuiltin("toList", pipelineToList),
	"count":   starlarkLib.NewBuiltin("count", pipelineCount),
	"iterate": starlarkLib.NewBuiltin("iterate", pipelineIterate),
}

func receiverPipeline(b *starlarkLib.Builtin) *graph.Pipeline {
	return b.Receiver().(*Pipeline).p
}

func unpackLabels(fnname string, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) ([]string, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", fnname)
	}
	labels := make([]string, len(args))
	for i, a := range args {
		s, ok := starlarkLib.AsString(a)
		if !ok {
			return nil, fmt.Errorf("%s: label must be a string, got %s", fnname, a.Type())
		}
		labels[i] = s
	}
	return labels, nil
}

func pipelineLabelStep(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	labels, err := unpackLabels(b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	p := receiverPipeline(b)
	var next *graph.Pipeline
	switch b.Name() {
	case "out":
		next = p.Out(labels...)
	case "in_":
		next = p.In(labels...)
	case "both":
		next = p.Both(labels...)
	case "outE":
		next = p.OutE(labels...)
	case "inE":
		next = p.InE(labels...)
	default:
		next = p.BothE(labels...)
	}
	return &Pipeline{p: next}, nil
}

func pipelineNoArgStep(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	p := receiverPipeline(b)
	switch b.Name() {
	case "outV":
		return &Pipeline{p: p.OutV()}, nil
	case "inV":
		return &Pipeline{p: p.InV()}, nil
	default:
		return &Pipeline{p: p.Dedup()}, nil
	}
}

func pipelineHas(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var key string
	var val starlarkLib.Value
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &key, &val); err != nil {
		return nil, err
	}
	goVal, err := FromStarlark(val)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return &Pipeline{p: receiverPipeline(b).Has(key, goVal)}, nil
}

func pipelineHasNot(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var key string
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &key); err != nil {
		return nil, err
	}
	return &Pipeline{p: receiverPipeline(b).HasNot(key)}, nil
}

// pipelineFilter keeps objects for which fn returns a truthy value. fn runs
// lazily on the calling thread when the traversal is drained.
func pipelineFilter(thread *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var fn starlarkLib.Callable
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &fn); err != nil {
		return nil, err
	}
	keep := func(t graph.Traverser) (bool, error) {
		arg, err := ToStarlark(t.Object)
		if err != nil {
			return false, err
		}
		res, err := starlarkLib.Call(thread, fn, starlarkLib.Tuple{arg}, nil)
		if err != nil {
			return false, err
		}
		return bool(res.Truth()), nil
	}
	return &Pipeline{p: receiverPipeline(b).Filter(keep)}, nil
}

func pipelineAs(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var name string
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	return &Pipeline{p: receiverPipeline(b).As(name)}, nil
}

func pipelineTable(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var t *Table
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &t); err != nil {
		return nil, err
	}
	return &Pipeline{p: receiverPipeline(b).Table(t.t)}, nil
}

func pipelineLimit(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var n int
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &n); err != nil {
		return nil, err
	}
	return &Pipeline{p: receiverPipeline(b).Limit(n)}, nil
}

func pipelineValues(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	var key string
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &key); err != nil {
		return nil, err
	}
	return &Pipeline{p: receiverPipeline(b).Values(key)}, nil
}

func pipelineNext(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	obj, err := receiverPipeline(b).Next()
	if err != nil {
		return nil, err
	}
	return ToStarlark(obj)
}

func pipelineToList(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	objs, err := receiverPipeline(b).ToList()
	if err != nil {
		return nil, err
	}
	return ToStarlark(objs)
}

func pipelineCount(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	n, err := receiverPipeline(b).Count()
	if err != nil {
		return nil, err
	}
	return starlarkLib.MakeInt64(n), nil
}

func pipelineIterate(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	if err := receiverPipeline(b).Iterate(); err != nil {
		return nil, err
	}
	return starlarkLib.None, nil
}

// newTable implements Table(*columns).
func newTable(_ *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
	columns, err := unpackLabels(b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	return &Table{t: graph.NewTable(columns...)}, nil
}

func NewTable(t *graph.Table) *Table { return &Table{t: t} }

func (t *Table) String() string          { return fmt.Sprintf("Table(%d rows)", t.t.Len()) }
func (t *Table) Type() string            { return "Table" }
func (t *Table) Freeze()                 {}
func (t *Table) Truth() starlarkLib.Bool { return t.t.Len() > 0 }
func (t *Table) Hash() (uint32, error)   { return 0, fmt.Errorf("unhashable type: Table") }
func (t *Table) Attr(name string) (starlarkLib.Value, error) {
	switch name {
	case "columns":
		cols := t.t.Columns()
		elems := make([]starlarkLib.Value, len(cols))
		for i, c := range cols {
			elems[i] = starlarkLib.String(c)
		}
		return starlarkLib.NewList(elems), nil
	case "size":
		return starlarkLib.MakeInt(t.t.Len()), nil
	}
	return nil, nil
}
func (t *Table) AttrNames() []string { return []string{"columns", "size"} }

// Unwrap returns the table.
func (t *Table) Unwrap() *graph.Table { return t.t }
