package graph

import (
	"fmt"
	"iter"
)

// Mark is an object labelled by an as step.
type Mark struct {
	Name   string
	Object any
}

// Traverser carries the current object of a traversal and the marks collected
// on the way to it.
type Traverser struct {
	Object any
	Marks  []Mark
}

func (t Traverser) with(obj any) Traverser {
	return Traverser{Object: obj, Marks: t.Marks}
}

// Pipeline is a lazy traversal. Each step returns a new Pipeline; nothing runs
// until the pipeline is iterated or a terminal step is called.
type Pipeline struct {
	g   *Graph
	seq iter.Seq2[Traverser, error]
}

func newPipeline(g *Graph, seq iter.Seq2[Traverser, error]) *Pipeline {
	return &Pipeline{g: g, seq: g.guard(seq)}
}

// Start begins a traversal from the given objects.
func Start(g *Graph, objects ...any) *Pipeline {
	return newPipeline(g, func(yield func(Traverser, error) bool) {
		for _, obj := range objects {
			if !yield(Traverser{Object: obj}, nil) {
				return
			}
		}
	})
}

func (p *Pipeline) Graph() *Graph {
	return p.g
}

// Traversers yields every traverser with its marks.
func (p *Pipeline) Traversers() iter.Seq2[Traverser, error] {
	return p.seq
}

// All yields the current object of every traverser.
func (p *Pipeline) All() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for t, err := range p.seq {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(t.Object, nil) {
				return
			}
		}
	}
}

// flatMap replaces each traverser with zero or more successors.
func (p *Pipeline) flatMap(fn func(Traverser) ([]any, error)) *Pipeline {
	return newPipeline(p.g, func(yield func(Traverser, error) bool) {
		for t, err := range p.seq {
			if err != nil {
				yield(Traverser{}, err)
				return
			}
			next, err := fn(t)
			if err != nil {
				yield(Traverser{}, err)
				return
			}
			for _, obj := range next {
				if !yield(t.with(obj), nil) {
					return
				}
			}
		}
	})
}

func (p *Pipeline) vertexStep(name string, fn func(*Vertex) []any) *Pipeline {
	return p.flatMap(func(t Traverser) ([]any, error) {
		v, ok := t.Object.(*Vertex)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a vertex, got %T", ErrInvalidTraversal, name, t.Object)
		}
		return fn(v), nil
	})
}

func (p *Pipeline) edgeStep(name string, fn func(*Edge) any) *Pipeline {
	return p.flatMap(func(t Traverser) ([]any, error) {
		e, ok := t.Object.(*Edge)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects an edge, got %T", ErrInvalidTraversal, name, t.Object)
		}
		return []any{fn(e)}, nil
	})
}

func vertices(vs []*Vertex) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func edges(es []*Edge) []any {
	out := make([]any, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

func (p *Pipeline) Out(labels ...string) *Pipeline {
	return p.vertexStep("out", func(v *Vertex) []any { return vertices(v.Out(labels...)) })
}

func (p *Pipeline) In(labels ...string) *Pipeline {
	return p.vertexStep("in", func(v *Vertex) []any { return vertices(v.In(labels...)) })
}

func (p *Pipeline) Both(labels ...string) *Pipeline {
	return p.vertexStep("both", func(v *Vertex) []any { return vertices(v.Both(labels...)) })
}

func (p *Pipeline) OutE(labels ...string) *Pipeline {
	return p.vertexStep("outE", func(v *Vertex) []any { return edges(v.OutEdges(labels...)) })
}

func (p *Pipeline) InE(labels ...string) *Pipeline {
	return p.vertexStep("inE", func(v *Vertex) []any { return edges(v.InEdges(labels...)) })
}

func (p *Pipeline) BothE(labels ...string) *Pipeline {
	return p.vertexStep("bothE", func(v *Vertex) []any { return edges(v.BothEdges(labels...)) })
}

func (p *Pipeline) OutV() *Pipeline {
	return p.edgeStep("outV", func(e *Edge) any { return e.OutVertex() })
}

func (p *Pipeline) InV() *Pipeline {
	return p.edgeStep("inV", func(e *Edge) any { return e.InVertex() })
}

// Filter keeps the traversers for which keep returns true.
func (p *Pipeline) Filter(keep func(Traverser) (bool, error)) *Pipeline {
	return p.flatMap(func(t Traverser) ([]any, error) {
		ok, err := keep(t)
		if err != nil || !ok {
			return nil, err
		}
		return []any{t.Object}, nil
	})
}

// Has keeps elements whose property key equals value.
func (p *Pipeline) Has(key string, value any) *Pipeline {
	return p.Filter(func(t Traverser) (bool, error) {
		el, ok := t.Object.(Element)
		if !ok {
			return false, fmt.Errorf("%w: has expects an element, got %T", ErrInvalidTraversal, t.Object)
		}
		got, ok := el.Property(key)
		return ok && ValuesEqual(got, value), nil
	})
}

// HasNot keeps elements without property key.
func (p *Pipeline) HasNot(key string) *Pipeline {
	return p.Filter(func(t Traverser) (bool, error) {
		el, ok := t.Object.(Element)
		if !ok {
			return false, fmt.Errorf("%w: hasNot expects an element, got %T", ErrInvalidTraversal, t.Object)
		}
		_, ok = el.Property(key)
		return !ok, nil
	})
}

// As marks the current object under name.
func (p *Pipeline) As(name string) *Pipeline {
	return newPipeline(p.g, func(yield func(Traverser, error) bool) {
		for t, err := range p.seq {
			if err != nil {
				yield(Traverser{}, err)
				return
			}
			marks := make([]Mark, len(t.Marks), len(t.Marks)+1)
			copy(marks, t.Marks)
			marks = append(marks, Mark{Name: name, Object: t.Object})
			if !yield(Traverser{Object: t.Object, Marks: marks}, nil) {
				return
			}
		}
	})
}

// Table appends a row of marked objects to t for every traverser passing through.
func (p *Pipeline) Table(t *Table) *Pipeline {
	return p.Filter(func(tr Traverser) (bool, error) {
		t.AddRow(tr.Marks)
		return true, nil
	})
}

// Dedup drops objects already seen.
func (p *Pipeline) Dedup() *Pipeline {
	return newPipeline(p.g, func(yield func(Traverser, error) bool) {
		seen := make(map[string]struct{})
		for t, err := range p.seq {
			if err != nil {
				yield(Traverser{}, err)
				return
			}
			key := dedupKey(t.Object)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if !yield(t, nil) {
				return
			}
		}
	})
}

func dedupKey(obj any) string {
	switch o := obj.(type) {
	case *Vertex:
		return "v:" + o.id
	case *Edge:
		return "e:" + o.id
	default:
		return fmt.Sprintf("%T:%v", obj, obj)
	}
}

// Limit stops the traversal after n objects.
func (p *Pipeline) Limit(n int) *Pipeline {
	return newPipeline(p.g, func(yield func(Traverser, error) bool) {
		if n <= 0 {
			return
		}
		i := 0
		for t, err := range p.seq {
			if !yield(t, err) || err != nil {
				return
			}
			i++
			if i >= n {
				return
			}
		}
	})
}

// Values maps elements to the value of property key, skipping elements
// without it.
func (p *Pipeline) Values(key string) *Pipeline {
	return p.flatMap(func(t Traverser) ([]any, error) {
		el, ok := t.Object.(Element)
		if !ok {
			return nil, fmt.Errorf("%w: values expects an element, got %T", ErrInvalidTraversal, t.Object)
		}
		v, ok := el.Property(key)
		if !ok {
			return nil, nil
		}
		return []any{v}, nil
	})
}

// Next returns the first object, or ErrNoSuchElement.
func (p *Pipeline) Next() (any, error) {
	for obj, err := range p.All() {
		return obj, err
	}
	return nil, ErrNoSuchElement
}

// ToList drains the traversal.
func (p *Pipeline) ToList() ([]any, error) {
	var out []any
	for obj, err := range p.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// Count drains the traversal and returns the number of objects.
func (p *Pipeline) Count() (int64, error) {
	var n int64
	for _, err := range p.seq {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

// Iterate drains the traversal for its side effects.
func (p *Pipeline) Iterate() error {
	_, err := p.Count()
	return err
}
