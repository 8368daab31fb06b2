package kernel

import (
	"github.com/mewdb/mew/pkg/index"
	"github.com/mewdb/mew/pkg/store"
)

// ReadView is a consistent read-only handle against committed Store and
// Index state, satisfying pattern.DataSource directly with no buffer
// overlay and no writer-slot acquisition. It exists for exactly the
// stopgap pkg/session flagged twice: Hub.Publish re-evaluating a
// subscription and a bare MATCH run outside an explicit transaction
// should not have to pay for (or serialize behind) Manager.Begin's
// single-writer lock when all they need is a snapshot read.
//
// Store and Index are themselves safe for concurrent read access while a
// writer is active (§5: "single-writer, multi-reader") — ReadView is a
// thin adapter over that guarantee, not a new locking scheme.
type ReadView struct {
	store *store.Store
	idx   *index.Index
}

func newReadView(s *store.Store, idx *index.Index) *ReadView {
	return &ReadView{store: s, idx: idx}
}

func (rv *ReadView) GetNode(id store.EntityId) (*store.Node, bool) {
	n, err := rv.store.GetNode(id)
	if err != nil {
		return nil, false
	}
	return n, true
}

func (rv *ReadView) GetEdge(id store.EntityId) (*store.Edge, bool) {
	e, err := rv.store.GetEdge(id)
	if err != nil {
		return nil, false
	}
	return e, true
}

func (rv *ReadView) NodesByType(t store.TypeId) []store.EntityId {
	return rv.idx.ByType().Lookup(t)
}

func (rv *ReadView) EdgesByType(t store.EdgeTypeId) []store.EntityId {
	return rv.idx.EdgeByType().Lookup(t)
}

// AttrLookup merges the unique and non-unique buckets for attr, matching
// pkg/txn's DataSource implementation's untyped contract (§4.2).
func (rv *ReadView) AttrLookup(attr store.AttrId, v store.Value) []store.EntityId {
	seen := make(map[store.EntityId]bool)
	var out []store.EntityId
	add := func(id store.EntityId) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if u, ok := rv.idx.UniqueIndex(attr); ok {
		if id, ok2 := u.Lookup(v); ok2 {
			add(id)
		}
	}
	if b, ok := rv.idx.NodeAttrIndex(attr); ok {
		for _, id := range b.Lookup(v) {
			add(id)
		}
	}
	if b, ok := rv.idx.EdgeAttrIndex(attr); ok {
		for _, id := range b.Lookup(v) {
			add(id)
		}
	}
	return out
}

func (rv *ReadView) AttrRange(attr store.AttrId, lo, hi store.Value) []store.EntityId {
	seen := make(map[store.EntityId]bool)
	var out []store.EntityId
	add := func(id store.EntityId) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if b, ok := rv.idx.NodeAttrIndex(attr); ok {
		for _, id := range b.RangeLookup(lo, hi) {
			add(id)
		}
	}
	if b, ok := rv.idx.EdgeAttrIndex(attr); ok {
		for _, id := range b.RangeLookup(lo, hi) {
			add(id)
		}
	}
	return out
}

func (rv *ReadView) EdgesByTarget(target store.EntityId) []store.EntityId {
	return rv.idx.EdgeByTarget().ReferencingEdges(target)
}

func (rv *ReadView) AllNodeIds() []store.EntityId {
	nodes := rv.store.AllNodes()
	out := make([]store.EntityId, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func (rv *ReadView) AllEdgeIds() []store.EntityId {
	edges := rv.store.AllEdges()
	out := make([]store.EntityId, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.ID)
	}
	return out
}

func (rv *ReadView) TypeCount(t store.TypeId) int         { return len(rv.NodesByType(t)) }
func (rv *ReadView) EdgeTypeCount(t store.EdgeTypeId) int { return len(rv.EdgesByType(t)) }
