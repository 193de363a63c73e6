package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type txState int

const (
	txActive txState = iota
	txCommitted
	txRolledBack
)

// Tx stages writes against a Store. Reads through a Tx see its own staged
// writes on top of the committed state. A nil entry in the staged maps marks
// a deletion.
type Tx struct {
	id    string
	store *Store

	mu           sync.Mutex
	vertices     map[string]*vertexRecord
	edges        map[string]*edgeRecord
	state        txState
	rollbackOnly bool
}

func newTx(s *Store) *Tx {
	return &Tx{
		id:       uuid.NewString(),
		store:    s,
		vertices: make(map[string]*vertexRecord),
		edges:    make(map[string]*edgeRecord),
	}
}

// ID identifies the transaction in logs.
func (tx *Tx) ID() string {
	return tx.id
}

// Active reports whether the transaction can still be committed or rolled back.
func (tx *Tx) Active() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.state == txActive
}

// MarkRollbackOnly makes any later Commit fail and discard the staged writes.
func (tx *Tx) MarkRollbackOnly() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.rollbackOnly = true
}

// Commit publishes the staged writes. A rollback-only transaction is rolled
// back instead and ErrRollbackOnly is returned.
func (tx *Tx) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.state != txActive {
		return ErrTxDone
	}
	if tx.rollbackOnly {
		tx.discardLocked()
		return ErrRollbackOnly
	}
	if err := tx.store.apply(tx); err != nil {
		tx.discardLocked()
		return fmt.Errorf("commit failed: %w", err)
	}
	tx.state = txCommitted
	return nil
}

// Rollback discards the staged writes. Rolling back a finished transaction is a no-op.
func (tx *Tx) Rollback() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.state != txActive {
		return
	}
	tx.discardLocked()
}

func (tx *Tx) discardLocked() {
	tx.vertices = make(map[string]*vertexRecord)
	tx.edges = make(map[string]*edgeRecord)
	tx.state = txRolledBack
}

func (tx *Tx) checkActiveLocked() error {
	if tx.state != txActive {
		return ErrTxDone
	}
	return nil
}

func (tx *Tx) vertex(id string) (*vertexRecord, bool) {
	tx.mu.Lock()
	r, staged := tx.vertices[id]
	tx.mu.Unlock()
	if staged {
		return r, r != nil
	}
	return tx.store.vertex(id)
}

func (tx *Tx) edge(id string) (*edgeRecord, bool) {
	tx.mu.Lock()
	r, staged := tx.edges[id]
	tx.mu.Unlock()
	if staged {
		return r, r != nil
	}
	return tx.store.edge(id)
}

func (tx *Tx) vertexIDs() []string {
	committed := tx.store.vertexIDs()
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return mergeIDs(committed, tx.vertices)
}

func (tx *Tx) edgeIDs() []string {
	committed := tx.store.edgeIDs()
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return mergeIDs(committed, tx.edges)
}

func mergeIDs[R any](committed []string, staged map[string]*R) []string {
	ids := make([]string, 0, len(committed)+len(staged))
	for _, id := range committed {
		if r, ok := staged[id]; ok && r == nil {
			continue
		}
		ids = append(ids, id)
	}
	seen := make(map[string]struct{}, len(committed))
	for _, id := range committed {
		seen[id] = struct{}{}
	}
	for id, r := range staged {
		if _, ok := seen[id]; ok || r == nil {
			continue
		}
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// incident returns the ids of edges touching vertex id, including staged edges.
func (tx *Tx) incident(id string, dir Direction) []string {
	committed := tx.store.incident(id, dir)
	tx.mu.Lock()
	defer tx.mu.Unlock()

	seen := make(map[string]struct{}, len(committed))
	ids := make([]string, 0, len(committed))
	for _, eid := range committed {
		if r, ok := tx.edges[eid]; ok && r == nil {
			continue
		}
		seen[eid] = struct{}{}
		ids = append(ids, eid)
	}
	for eid, r := range tx.edges {
		if r == nil {
			continue
		}
		if _, ok := seen[eid]; ok {
			continue
		}
		matches := (dir != DirectionIn && r.out == id) || (dir != DirectionOut && r.in == id)
		if matches {
			seen[eid] = struct{}{}
			ids = append(ids, eid)
		}
	}
	return ids
}

func (tx *Tx) taken(id string) bool {
	if _, ok := tx.vertex(id); ok {
		return true
	}
	_, ok := tx.edge(id)
	return ok
}

func (tx *Tx) putVertex(r *vertexRecord) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.checkActiveLocked(); err != nil {
		return err
	}
	tx.vertices[r.id] = r
	return nil
}

func (tx *Tx) putEdge(r *edgeRecord) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.checkActiveLocked(); err != nil {
		return err
	}
	tx.edges[r.id] = r
	return nil
}

func (tx *Tx) deleteEdge(id string) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.checkActiveLocked(); err != nil {
		return err
	}
	tx.edges[id] = nil
	return nil
}

// deleteVertex stages the removal of a vertex and every edge touching it.
func (tx *Tx) deleteVertex(id string) error {
	edges := tx.incident(id, DirectionBoth)
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.checkActiveLocked(); err != nil {
		return err
	}
	for _, eid := range edges {
		tx.edges[eid] = nil
	}
	tx.vertices[id] = nil
	return nil
}

type txContextKey struct{}

// WithTransaction returns a context carrying tx as the ambient transaction.
// Graphs opened with that context join tx instead of starting their own.
func WithTransaction(ctx context.Context, tx *Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TransactionFromContext returns the ambient transaction, if any.
func TransactionFromContext(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*Tx)
	return tx, ok && tx != nil
}
