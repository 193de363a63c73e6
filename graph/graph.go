package graph

import (
	"context"
	"fmt"
	"iter"
	"sync"
)

// Direction selects which edges of a vertex a step follows.
type Direction int

const (
	DirectionOut Direction = iota
	DirectionIn
	DirectionBoth
)

// Graph is the per-request handle scripts see as g. It reads committed data
// plus its own transaction's staged writes, and starts a transaction on the
// first write when auto-start is enabled.
type Graph struct {
	store *Store
	ctx   context.Context

	mu        sync.Mutex
	tx        *Tx
	owned     bool
	autoStart bool
	committed bool
	closed    bool
}

// Open returns a graph handle over store. If ctx carries an ambient
// transaction the handle joins it: Commit leaves the decision to the owner of
// that transaction, and closing without a commit marks it rollback-only.
// Traversals started from the handle stop with ctx's error once it is done.
func Open(ctx context.Context, store *Store) *Graph {
	g := &Graph{store: store, ctx: ctx}
	if tx, ok := TransactionFromContext(ctx); ok && tx.store == store {
		g.tx = tx
	}
	return g
}

// AutoStartTransaction controls whether the first write starts a transaction.
func (g *Graph) AutoStartTransaction(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.autoStart = enabled
}

// Store returns the underlying database.
func (g *Graph) Store() *Store {
	return g.store
}

// String reports the identity of the underlying store.
func (g *Graph) String() string {
	return g.store.String()
}

// Transaction returns the transaction the handle currently uses, if any.
func (g *Graph) Transaction() (*Tx, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tx, g.tx != nil
}

// Commit commits a transaction started by this handle. For a joined
// transaction it only records success; the owner commits.
func (g *Graph) Commit() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrGraphClosed
	}
	g.committed = true
	if g.tx == nil || !g.owned {
		return nil
	}
	tx := g.tx
	g.tx = nil
	g.owned = false
	return tx.Commit()
}

// Rollback discards an owned transaction, or marks a joined one rollback-only.
func (g *Graph) Rollback() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollbackLocked()
}

func (g *Graph) rollbackLocked() {
	if g.tx == nil {
		return
	}
	if g.owned {
		g.tx.Rollback()
		g.tx = nil
		g.owned = false
		return
	}
	g.tx.MarkRollbackOnly()
}

// Close ends the handle. Anything not committed is rolled back.
func (g *Graph) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	if !g.committed {
		g.rollbackLocked()
	}
	g.closed = true
}

// guard ends seq with the context error once the handle's context is done.
func (g *Graph) guard(seq iter.Seq2[Traverser, error]) iter.Seq2[Traverser, error] {
	if g == nil || g.ctx == nil || g.ctx.Done() == nil {
		return seq
	}
	return func(yield func(Traverser, error) bool) {
		for t, err := range seq {
			if err == nil {
				if cerr := g.ctx.Err(); cerr != nil {
					yield(Traverser{}, cerr)
					return
				}
			}
			if !yield(t, err) {
				return
			}
		}
	}
}

func (g *Graph) readTx() *Tx {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tx
}

func (g *Graph) writeTx() (*Tx, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrGraphClosed
	}
	if g.tx != nil {
		return g.tx, nil
	}
	if !g.autoStart {
		return nil, ErrNoTransaction
	}
	g.tx = g.store.Begin()
	g.owned = true
	g.committed = false
	return g.tx, nil
}

func (g *Graph) vertexRecord(id string) (*vertexRecord, bool) {
	if tx := g.readTx(); tx != nil {
		return tx.vertex(id)
	}
	return g.store.vertex(id)
}

func (g *Graph) edgeRecord(id string) (*edgeRecord, bool) {
	if tx := g.readTx(); tx != nil {
		return tx.edge(id)
	}
	return g.store.edge(id)
}

func (g *Graph) vertexIDs() []string {
	if tx := g.readTx(); tx != nil {
		return tx.vertexIDs()
	}
	return g.store.vertexIDs()
}

func (g *Graph) edgeIDs() []string {
	if tx := g.readTx(); tx != nil {
		return tx.edgeIDs()
	}
	return g.store.edgeIDs()
}

func (g *Graph) incident(id string, dir Direction, labels []string) []*Edge {
	var ids []string
	if tx := g.readTx(); tx != nil {
		ids = tx.incident(id, dir)
	} else {
		ids = g.store.incident(id, dir)
	}
	sortIDs(ids)

	edges := make([]*Edge, 0, len(ids))
	for _, eid := range ids {
		r, ok := g.edgeRecord(eid)
		if !ok || !labelMatches(r.label, labels) {
			continue
		}
		edges = append(edges, g.wrapEdge(r))
	}
	return edges
}

func labelMatches(label string, labels []string) bool {
	if len(labels) == 0 {
		return true
	}
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// Vertex looks up a vertex by id.
func (g *Graph) Vertex(id string) (*Vertex, bool) {
	if _, ok := g.vertexRecord(id); !ok {
		return nil, false
	}
	return &Vertex{g: g, id: id}, true
}

// Edge looks up an edge by id.
func (g *Graph) Edge(id string) (*Edge, bool) {
	r, ok := g.edgeRecord(id)
	if !ok {
		return nil, false
	}
	return g.wrapEdge(r), true
}

func (g *Graph) wrapEdge(r *edgeRecord) *Edge {
	return &Edge{g: g, id: r.id, out: r.out, in: r.in, label: r.label}
}

// Vertices starts a traversal over vertices: all of them in id order, or the
// given ids in argument order (unknown ids are skipped).
func (g *Graph) Vertices(ids ...string) *Pipeline {
	return newPipeline(g, func(yield func(Traverser, error) bool) {
		list := ids
		if len(list) == 0 {
			list = g.vertexIDs()
		}
		for _, id := range list {
			v, ok := g.Vertex(id)
			if !ok {
				continue
			}
			if !yield(Traverser{Object: v}, nil) {
				return
			}
		}
	})
}

// Edges starts a traversal over edges, like Vertices.
func (g *Graph) Edges(ids ...string) *Pipeline {
	return newPipeline(g, func(yield func(Traverser, error) bool) {
		list := ids
		if len(list) == 0 {
			list = g.edgeIDs()
		}
		for _, id := range list {
			e, ok := g.Edge(id)
			if !ok {
				continue
			}
			if !yield(Traverser{Object: e}, nil) {
				return
			}
		}
	})
}

// AddVertex creates a vertex. An empty id asks the store for a fresh one.
func (g *Graph) AddVertex(id string, props map[string]any) (*Vertex, error) {
	tx, err := g.writeTx()
	if err != nil {
		return nil, err
	}
	normalized, err := normalizeProps(props)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = g.store.nextID(tx.taken)
	} else if tx.taken(id) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	if err := tx.putVertex(&vertexRecord{id: id, props: normalized}); err != nil {
		return nil, err
	}
	return &Vertex{g: g, id: id}, nil
}

// AddEdge creates an edge from out to in. An empty id asks the store for a fresh one.
func (g *Graph) AddEdge(id string, out, in *Vertex, label string, props map[string]any) (*Edge, error) {
	if out == nil || in == nil {
		return nil, fmt.Errorf("%w: edge endpoints are required", ErrVertexNotFound)
	}
	if label == "" {
		return nil, fmt.Errorf("%w: edge label is required", ErrInvalidProperty)
	}
	tx, err := g.writeTx()
	if err != nil {
		return nil, err
	}
	if _, ok := tx.vertex(out.id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrVertexNotFound, out.id)
	}
	if _, ok := tx.vertex(in.id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrVertexNotFound, in.id)
	}
	normalized, err := normalizeProps(props)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = g.store.nextID(tx.taken)
	} else if tx.taken(id) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	r := &edgeRecord{id: id, out: out.id, in: in.id, label: label, props: normalized}
	if err := tx.putEdge(r); err != nil {
		return nil, err
	}
	return g.wrapEdge(r), nil
}

// RemoveVertex deletes a vertex together with its edges.
func (g *Graph) RemoveVertex(v *Vertex) error {
	if v == nil {
		return fmt.Errorf("%w: nil vertex", ErrVertexNotFound)
	}
	tx, err := g.writeTx()
	if err != nil {
		return err
	}
	if _, ok := tx.vertex(v.id); !ok {
		return fmt.Errorf("%w: %s", ErrVertexNotFound, v.id)
	}
	return tx.deleteVertex(v.id)
}

// RemoveEdge deletes an edge.
func (g *Graph) RemoveEdge(e *Edge) error {
	if e == nil {
		return fmt.Errorf("%w: nil edge", ErrEdgeNotFound)
	}
	tx, err := g.writeTx()
	if err != nil {
		return err
	}
	if _, ok := tx.edge(e.id); !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, e.id)
	}
	return tx.deleteEdge(e.id)
}

func (g *Graph) setVertexProperty(id, key string, value any) error {
	tx, err := g.writeTx()
	if err != nil {
		return err
	}
	r, ok := tx.vertex(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrVertexNotFound, id)
	}
	r = r.clone()
	if value == nil {
		delete(r.props, key)
	} else {
		r.props[key] = value
	}
	return tx.putVertex(r)
}

func (g *Graph) setEdgeProperty(id, key string, value any) error {
	tx, err := g.writeTx()
	if err != nil {
		return err
	}
	r, ok := tx.edge(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	r = r.clone()
	if value == nil {
		delete(r.props, key)
	} else {
		r.props[key] = value
	}
	return tx.putEdge(r)
}
