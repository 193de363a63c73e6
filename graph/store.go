package graph

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/tidwall/btree"
)

// vertexRecord and edgeRecord are immutable once committed: every change is
// made on a clone staged in a transaction and swapped in on commit.
type vertexRecord struct {
	id    string
	props map[string]any
}

type edgeRecord struct {
	id    string
	out   string
	in    string
	label string
	props map[string]any
}

func (r *vertexRecord) clone() *vertexRecord {
	return &vertexRecord{id: r.id, props: cloneProps(r.props)}
}

func (r *edgeRecord) clone() *edgeRecord {
	return &edgeRecord{id: r.id, out: r.out, in: r.in, label: r.label, props: cloneProps(r.props)}
}

// Store is an in-memory property graph database. Reads go straight to the
// committed state, writes are staged in a Tx and applied atomically on commit.
type Store struct {
	name string

	mu       sync.RWMutex
	vertices *btree.BTreeG[*vertexRecord]
	edges    *btree.BTreeG[*edgeRecord]
	// adjacency: vertex id -> edge ids
	outEdges map[string]map[string]struct{}
	inEdges  map[string]map[string]struct{}

	seq atomic.Uint64
}

// NewStore creates an empty store. The name only shows up in String.
func NewStore(name string) *Store {
	return &Store{
		name: name,
		vertices: btree.NewBTreeG(func(a, b *vertexRecord) bool {
			return compareIDs(a.id, b.id) < 0
		}),
		edges: btree.NewBTreeG(func(a, b *edgeRecord) bool {
			return compareIDs(a.id, b.id) < 0
		}),
		outEdges: make(map[string]map[string]struct{}),
		inEdges:  make(map[string]map[string]struct{}),
	}
}

// String is the human readable identity of the store.
func (s *Store) String() string {
	return fmt.Sprintf("ImpermanentGraphDatabase [%s]", s.name)
}

// Name returns the name given to NewStore.
func (s *Store) Name() string {
	return s.name
}

// Begin starts a new transaction against the store.
func (s *Store) Begin() *Tx {
	return newTx(s)
}

// VertexCount returns the number of committed vertices.
func (s *Store) VertexCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vertices.Len()
}

// EdgeCount returns the number of committed edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edges.Len()
}

func (s *Store) vertex(id string) (*vertexRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vertices.Get(&vertexRecord{id: id})
}

func (s *Store) edge(id string) (*edgeRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edges.Get(&edgeRecord{id: id})
}

func (s *Store) vertexIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, s.vertices.Len())
	s.vertices.Scan(func(r *vertexRecord) bool {
		ids = append(ids, r.id)
		return true
	})
	return ids
}

func (s *Store) edgeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, s.edges.Len())
	s.edges.Scan(func(r *edgeRecord) bool {
		ids = append(ids, r.id)
		return true
	})
	return ids
}

// incident returns the committed edge ids touching vertex id in the given direction.
func (s *Store) incident(id string, dir Direction) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	if dir == DirectionOut || dir == DirectionBoth {
		for eid := range s.outEdges[id] {
			ids = append(ids, eid)
		}
	}
	if dir == DirectionIn || dir == DirectionBoth {
		for eid := range s.inEdges[id] {
			ids = append(ids, eid)
		}
	}
	return ids
}

// nextID hands out ids for elements created without one. The sequence is
// shared by vertices and edges and skips ids already taken.
func (s *Store) nextID(taken func(string) bool) string {
	for {
		id := strconv.FormatUint(s.seq.Add(1)-1, 10)
		if !taken(id) {
			return id
		}
	}
}

func (s *Store) reserveID(id string) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return
	}
	for {
		cur := s.seq.Load()
		if n < cur || s.seq.CompareAndSwap(cur, n+1) {
			return
		}
	}
}

// apply validates and publishes the staged changes of tx. Nothing is
// modified when validation fails.
func (s *Store) apply(tx *Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vertexExists := func(id string) bool {
		if r, staged := tx.vertices[id]; staged {
			return r != nil
		}
		_, ok := s.vertices.Get(&vertexRecord{id: id})
		return ok
	}
	for _, e := range tx.edges {
		if e == nil {
			continue
		}
		if !vertexExists(e.out) {
			return fmt.Errorf("%w: edge %s references out vertex %s", ErrVertexNotFound, e.id, e.out)
		}
		if !vertexExists(e.in) {
			return fmt.Errorf("%w: edge %s references in vertex %s", ErrVertexNotFound, e.id, e.in)
		}
	}

	for id, r := range tx.vertices {
		if r != nil {
			s.vertices.Set(r)
			s.reserveID(id)
		}
	}
	for id, r := range tx.edges {
		if r == nil {
			s.removeEdgeLocked(id)
			continue
		}
		s.edges.Set(r)
		s.reserveID(id)
		addIndex(s.outEdges, r.out, id)
		addIndex(s.inEdges, r.in, id)
	}
	for id, r := range tx.vertices {
		if r != nil {
			continue
		}
		// edges committed by other transactions may still point at the vertex
		for _, eid := range s.incidentLocked(id) {
			s.removeEdgeLocked(eid)
		}
		s.vertices.Delete(&vertexRecord{id: id})
		delete(s.outEdges, id)
		delete(s.inEdges, id)
	}
	return nil
}

func (s *Store) incidentLocked(id string) []string {
	var ids []string
	for eid := range s.outEdges[id] {
		ids = append(ids, eid)
	}
	for eid := range s.inEdges[id] {
		ids = append(ids, eid)
	}
	return ids
}

func (s *Store) removeEdgeLocked(id string) {
	old, ok := s.edges.Delete(&edgeRecord{id: id})
	if !ok {
		return
	}
	removeIndex(s.outEdges, old.out, id)
	removeIndex(s.inEdges, old.in, id)
}

func addIndex(idx map[string]map[string]struct{}, vertexID, edgeID string) {
	set, ok := idx[vertexID]
	if !ok {
		set = make(map[string]struct{})
		idx[vertexID] = set
	}
	set[edgeID] = struct{}{}
}

func removeIndex(idx map[string]map[string]struct{}, vertexID, edgeID string) {
	set, ok := idx[vertexID]
	if !ok {
		return
	}
	delete(set, edgeID)
	if len(set) == 0 {
		delete(idx, vertexID)
	}
}
