package index

import (
	"sync"

	"github.com/mewdb/mew/pkg/store"
)

// EdgeByTarget is the reverse adjacency index: for every entity (node or
// edge) it tracks which edges name that entity at some target position.
// It backs the EdgeScanByTarget plan operator (§4.4.2), KILL's
// cascade-delete ("an edge vanishes if any of its targets vanishes",
// §3.2), and higher-order traversal (an edge is a legal target of another
// edge, so this single index doubles as the "what references this edge"
// lookup with no separate structure needed). Grounded on the adjacency
// bookkeeping in the teacher's GraphStorage (pkg/storage/storage.go),
// generalized from node-to-node adjacency to EntityId-to-EdgeId.
type EdgeByTarget struct {
	mu    sync.RWMutex
	index map[store.EntityId]Set
}

func NewEdgeByTarget() *EdgeByTarget {
	return &EdgeByTarget{index: make(map[store.EntityId]Set)}
}

// Insert records that edge references target at some position.
func (idx *EdgeByTarget) Insert(target store.EntityId, edge store.EntityId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	b, ok := idx.index[target]
	if !ok {
		b = make(Set)
		idx.index[target] = b
	}
	b.Add(edge)
}

// Remove drops the (target, edge) pair, e.g. when edge is deleted or
// retargeted.
func (idx *EdgeByTarget) Remove(target store.EntityId, edge store.EntityId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if b, ok := idx.index[target]; ok {
		b.Remove(edge)
		if len(b) == 0 {
			delete(idx.index, target)
		}
	}
}

// ReferencingEdges returns every edge that names target at any position.
func (idx *EdgeByTarget) ReferencingEdges(target store.EntityId) []store.EntityId {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.index[target].Slice()
}

// HasReferencingEdges reports whether anything currently targets id,
// used by Mutation's referential-integrity check before a plain delete
// that is not a cascading KILL (§7 ReferentialError).
func (idx *EdgeByTarget) HasReferencingEdges(target store.EntityId) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.index[target]) > 0
}

// HigherOrder reports whether target (itself an edge) is referenced by at
// least one other edge — i.e. whether it participates in the higher-order
// hierarchy as a child. It is plain sugar over ReferencingEdges restricted
// to the edge id space, kept as a named entry point because the pattern
// compiler's meta-depth planning (§4.4.1) treats "edge-targeting-edge"
// reachability as a distinct cost category from node adjacency.
func (idx *EdgeByTarget) HigherOrder(target store.EntityId) []store.EntityId {
	if !target.IsEdge() {
		return nil
	}
	return idx.ReferencingEdges(target)
}
