package store

import (
	"fmt"
	"sync"
)

// Errors returned by Store, per §4.1's failure modes. Mutation is the
// caller that maps these onto the closed error taxonomy of §7; Store
// itself only reports existence, never does schema-deep validation.
var (
	ErrNodeNotFound = fmt.Errorf("store: node not found")
	ErrEdgeNotFound = fmt.Errorf("store: edge not found")
	ErrClosed       = fmt.Errorf("store: closed")
)

// Store owns the node table, the edge table, and the ID allocators, per
// §4.1. It is mutated only during a transaction's commit flush (§4.8,
// §5): readers take the RWMutex for a snapshot read, the single writer
// holds it for the duration of a flush. Grounded on the teacher's
// GraphStorage (pkg/storage/storage_types.go), stripped of everything
// that belongs to Index (adjacency, property indexes) or Journal (WAL
// handles) in this kernel's layering.
type Store struct {
	mu sync.RWMutex

	nodes map[EntityId]*Node
	edges map[EntityId]*Edge

	nextNodeCounter uint64
	nextEdgeCounter uint64

	closed bool
}

func New() *Store {
	return &Store{
		nodes:           make(map[EntityId]*Node),
		edges:           make(map[EntityId]*Edge),
		nextNodeCounter: 1,
		nextEdgeCounter: 1,
	}
}

// AllocateNodeId reserves the next NodeId without writing a row. Used by
// Mutation so a SPAWN can hand back an id before the owning transaction
// commits (§4.8: IDs are server-allocated, so a buffered SPAWN can never
// collide).
func (s *Store) AllocateNodeId() EntityId {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := NodeId(s.nextNodeCounter)
	s.nextNodeCounter++
	return id
}

// AllocateEdgeId reserves the next EdgeId without writing a row.
func (s *Store) AllocateEdgeId() EntityId {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := EdgeId(s.nextEdgeCounter)
	s.nextEdgeCounter++
	return id
}

// PutNode installs a fully-formed node row. Only called from a
// transaction's commit flush, under the single write lock (§5).
func (s *Store) PutNode(n *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.ID] = n
}

// PutEdge installs a fully-formed edge row. Only called from a
// transaction's commit flush.
func (s *Store) PutEdge(e *Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[e.ID] = e
}

func (s *Store) GetNode(id EntityId) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return n, nil
}

func (s *Store) GetEdge(id EntityId) (*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.edges[id]
	if !ok {
		return nil, ErrEdgeNotFound
	}
	return e, nil
}

func (s *Store) DeleteNode(id EntityId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	delete(s.nodes, id)
	return nil
}

func (s *Store) DeleteEdge(id EntityId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[id]; !ok {
		return ErrEdgeNotFound
	}
	delete(s.edges, id)
	return nil
}

// SetAttribute writes a single attribute value on a node or edge, bumping
// its version counter (§3.1).
func (s *Store) SetAttribute(id EntityId, attr AttrId, v Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id.IsEdge() {
		e, ok := s.edges[id]
		if !ok {
			return ErrEdgeNotFound
		}
		e.Attributes[attr] = v
		e.Version++
		return nil
	}
	n, ok := s.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	n.Attributes[attr] = v
	n.Version++
	return nil
}

// AllNodes returns a snapshot slice of every node currently in the store.
// Used by full-scan pattern plan steps and by global uniqueness
// constraints (§4.7).
func (s *Store) AllNodes() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	return out
}

func (s *Store) AllEdges() []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	return out
}

// AdvanceCounters fast-forwards the node/edge id allocators past every id
// already installed via PutNode/PutEdge, so a fresh Store replayed from a
// journal never reuses an id that appears in the recovered rows. Only
// ever called once, before the recovered Store is opened to writers.
func (s *Store) AdvanceCounters(maxNodeCounter, maxEdgeCounter uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if maxNodeCounter+1 > s.nextNodeCounter {
		s.nextNodeCounter = maxNodeCounter + 1
	}
	if maxEdgeCounter+1 > s.nextEdgeCounter {
		s.nextEdgeCounter = maxEdgeCounter + 1
	}
}

// NodeCount and EdgeCount back the Statistics the optimizer uses for
// cardinality estimation (§4.4.1).
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// ReadView is a consistent read handle against committed Store state, per
// §4.1's snapshot() operation. In this kernel's read-committed isolation
// (§4.8) it is a thin wrapper: readers always observe the latest
// committed rows, serialized against the single writer by Store's RWMutex,
// rather than a copy-on-write point-in-time snapshot (full MVCC is an
// explicit non-goal, §1).
type ReadView struct {
	s *Store
}

func (s *Store) Snapshot() *ReadView { return &ReadView{s: s} }

func (rv *ReadView) GetNode(id EntityId) (*Node, error) { return rv.s.GetNode(id) }
func (rv *ReadView) GetEdge(id EntityId) (*Edge, error) { return rv.s.GetEdge(id) }
func (rv *ReadView) AllNodes() []*Node                  { return rv.s.AllNodes() }
func (rv *ReadView) AllEdges() []*Edge                  { return rv.s.AllEdges() }
