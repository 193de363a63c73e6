package graph

import (
	"fmt"
	"slices"
)

// Element is a vertex or an edge.
type Element interface {
	ID() string
	Property(key string) (any, bool)
	Properties() map[string]any
	Keys() []string
	SetProperty(key string, value any) error
	RemoveProperty(key string) error
}

// Vertex is a live view of a vertex through a Graph. Property reads see the
// current state of the graph's transaction.
type Vertex struct {
	g  *Graph
	id string
}

func (v *Vertex) ID() string {
	return v.id
}

func (v *Vertex) String() string {
	return "v[" + v.id + "]"
}

func (v *Vertex) Graph() *Graph {
	return v.g
}

func (v *Vertex) props() map[string]any {
	r, ok := v.g.vertexRecord(v.id)
	if !ok {
		return nil
	}
	return r.props
}

func (v *Vertex) Property(key string) (any, bool) {
	val, ok := v.props()[key]
	return val, ok
}

// Properties returns a copy of the vertex properties.
func (v *Vertex) Properties() map[string]any {
	return cloneProps(v.props())
}

func (v *Vertex) Keys() []string {
	return sortedKeys(v.props())
}

func (v *Vertex) SetProperty(key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidProperty)
	}
	nv, err := NormalizeValue(value)
	if err != nil {
		return err
	}
	return v.g.setVertexProperty(v.id, key, nv)
}

func (v *Vertex) RemoveProperty(key string) error {
	return v.g.setVertexProperty(v.id, key, nil)
}

// Out returns the vertices at the head of outgoing edges.
func (v *Vertex) Out(labels ...string) []*Vertex {
	return v.adjacent(DirectionOut, labels)
}

func (v *Vertex) In(labels ...string) []*Vertex {
	return v.adjacent(DirectionIn, labels)
}

func (v *Vertex) Both(labels ...string) []*Vertex {
	return v.adjacent(DirectionBoth, labels)
}

func (v *Vertex) OutEdges(labels ...string) []*Edge {
	return v.g.incident(v.id, DirectionOut, labels)
}

func (v *Vertex) InEdges(labels ...string) []*Edge {
	return v.g.incident(v.id, DirectionIn, labels)
}

func (v *Vertex) BothEdges(labels ...string) []*Edge {
	return v.g.incident(v.id, DirectionBoth, labels)
}

func (v *Vertex) adjacent(dir Direction, labels []string) []*Vertex {
	var out []*Vertex
	if dir == DirectionOut || dir == DirectionBoth {
		for _, e := range v.g.incident(v.id, DirectionOut, labels) {
			if w, ok := v.g.Vertex(e.in); ok {
				out = append(out, w)
			}
		}
	}
	if dir == DirectionIn || dir == DirectionBoth {
		for _, e := range v.g.incident(v.id, DirectionIn, labels) {
			if w, ok := v.g.Vertex(e.out); ok {
				out = append(out, w)
			}
		}
	}
	return out
}

// Edge is a live view of an edge through a Graph. Endpoints and label never
// change after creation.
type Edge struct {
	g     *Graph
	id    string
	out   string
	in    string
	label string
}

func (e *Edge) ID() string {
	return e.id
}

func (e *Edge) String() string {
	return fmt.Sprintf("e[%s][%s-%s->%s]", e.id, e.out, e.label, e.in)
}

func (e *Edge) Label() string {
	return e.label
}

func (e *Edge) Graph() *Graph {
	return e.g
}

// OutID is the id of the tail vertex.
func (e *Edge) OutID() string {
	return e.out
}

// InID is the id of the head vertex.
func (e *Edge) InID() string {
	return e.in
}

func (e *Edge) OutVertex() *Vertex {
	return &Vertex{g: e.g, id: e.out}
}

func (e *Edge) InVertex() *Vertex {
	return &Vertex{g: e.g, id: e.in}
}

func (e *Edge) props() map[string]any {
	r, ok := e.g.edgeRecord(e.id)
	if !ok {
		return nil
	}
	return r.props
}

func (e *Edge) Property(key string) (any, bool) {
	val, ok := e.props()[key]
	return val, ok
}

func (e *Edge) Properties() map[string]any {
	return cloneProps(e.props())
}

func (e *Edge) Keys() []string {
	return sortedKeys(e.props())
}

func (e *Edge) SetProperty(key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidProperty)
	}
	nv, err := NormalizeValue(value)
	if err != nil {
		return err
	}
	return e.g.setEdgeProperty(e.id, key, nv)
}

func (e *Edge) RemoveProperty(key string) error {
	return e.g.setEdgeProperty(e.id, key, nil)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
