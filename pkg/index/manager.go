package index

import (
	"sync"

	"github.com/mewdb/mew/pkg/store"
)

// AttrSpec tells the Index manager how one attribute should be indexed,
// mirroring the `indexed`/`unique` flags an AttributeDef carries in the
// Registry (§3.1, §4.3). Registry owns the schema; Index only needs to
// know, per AttrId, which structure to maintain.
type AttrSpec struct {
	Indexed bool
	Unique  bool
}

// Index is the kernel's secondary-structure manager, tying together the
// per-type and per-attribute buckets and the reverse target index into
// the single component the commit flush and the pattern compiler talk to
// (§4.2). It holds no authoritative data — Store does — so a full rebuild
// from Store's tables is always possible (used by Journal recovery, §4.8).
type Index struct {
	mu sync.RWMutex

	nodesByType *ByType
	edgesByType *EdgeByType

	nodeAttrs map[store.AttrId]*ByAttr
	edgeAttrs map[store.AttrId]*ByAttr
	unique    map[store.AttrId]*UniqueAttr

	targets *EdgeByTarget
}

func New() *Index {
	return &Index{
		nodesByType: NewByType(),
		edgesByType: NewEdgeByType(),
		nodeAttrs:   make(map[store.AttrId]*ByAttr),
		edgeAttrs:   make(map[store.AttrId]*ByAttr),
		unique:      make(map[store.AttrId]*UniqueAttr),
		targets:     NewEdgeByTarget(),
	}
}

// ConfigureAttr registers how attr should be indexed. Called once per
// AttributeDef when the Registry is loaded or updated; idempotent.
func (ix *Index) ConfigureAttr(attr store.AttrId, onEdges bool, spec AttrSpec) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if spec.Unique {
		if _, ok := ix.unique[attr]; !ok {
			ix.unique[attr] = NewUniqueAttr(attr)
		}
		return
	}
	if !spec.Indexed {
		return
	}
	m := ix.nodeAttrs
	if onEdges {
		m = ix.edgeAttrs
	}
	if _, ok := m[attr]; !ok {
		m[attr] = NewByAttr(attr)
	}
}

func (ix *Index) UniqueIndex(attr store.AttrId) (*UniqueAttr, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	u, ok := ix.unique[attr]
	return u, ok
}

// NodeAttrIndex and EdgeAttrIndex expose the raw non-unique per-attribute
// bucket maps, used by pkg/txn's DataSource implementation to merge
// committed index state with a transaction's buffered overlay before
// applying a type/edge-type filter (the index itself is untyped, per
// pattern.DataSource.AttrLookup's doc comment).
func (ix *Index) NodeAttrIndex(attr store.AttrId) (*ByAttr, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	b, ok := ix.nodeAttrs[attr]
	return b, ok
}

func (ix *Index) EdgeAttrIndex(attr store.AttrId) (*ByAttr, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	b, ok := ix.edgeAttrs[attr]
	return b, ok
}

func (ix *Index) ByType() *ByType         { return ix.nodesByType }
func (ix *Index) EdgeByType() *EdgeByType { return ix.edgesByType }
func (ix *Index) EdgeByTarget() *EdgeByTarget { return ix.targets }

// IndexNode installs a node's bucket/attribute/unique entries. Called from
// the commit flush after Store.PutNode (§4.8).
func (ix *Index) IndexNode(n *store.Node) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ix.nodesByType.Insert(n.Type, n.ID)
	for attr, v := range n.Attributes {
		if b, ok := ix.nodeAttrs[attr]; ok {
			b.Insert(v, n.ID)
		}
		if u, ok := ix.unique[attr]; ok {
			if err := u.Insert(v, n.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeindexNode removes every trace of a deleted node.
func (ix *Index) DeindexNode(n *store.Node) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ix.nodesByType.Remove(n.Type, n.ID)
	for attr, v := range n.Attributes {
		if b, ok := ix.nodeAttrs[attr]; ok {
			b.Remove(v, n.ID)
		}
		if u, ok := ix.unique[attr]; ok {
			u.Remove(v)
		}
	}
}

// IndexEdge installs an edge's bucket/attribute/unique/target entries.
func (ix *Index) IndexEdge(e *store.Edge) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ix.edgesByType.Insert(e.Type, e.ID)
	for _, t := range e.Targets {
		ix.targets.Insert(t, e.ID)
	}
	for attr, v := range e.Attributes {
		if b, ok := ix.edgeAttrs[attr]; ok {
			b.Insert(v, e.ID)
		}
		if u, ok := ix.unique[attr]; ok {
			if err := u.Insert(v, e.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeindexEdge removes every trace of a deleted edge.
func (ix *Index) DeindexEdge(e *store.Edge) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ix.edgesByType.Remove(e.Type, e.ID)
	for _, t := range e.Targets {
		ix.targets.Remove(t, e.ID)
	}
	for attr, v := range e.Attributes {
		if b, ok := ix.edgeAttrs[attr]; ok {
			b.Remove(v, e.ID)
		}
		if u, ok := ix.unique[attr]; ok {
			u.Remove(v)
		}
	}
}

// RebuildFromStore discards all secondary structures and repopulates them
// from Store's authoritative tables, used by Journal recovery after
// replay (§4.8) since Index itself is never journaled.
func (ix *Index) RebuildFromStore(s *store.Store) error {
	ix.mu.Lock()
	ix.nodesByType = NewByType()
	ix.edgesByType = NewEdgeByType()
	ix.targets = NewEdgeByTarget()
	for attr := range ix.nodeAttrs {
		ix.nodeAttrs[attr] = NewByAttr(attr)
	}
	for attr := range ix.edgeAttrs {
		ix.edgeAttrs[attr] = NewByAttr(attr)
	}
	for attr := range ix.unique {
		ix.unique[attr] = NewUniqueAttr(attr)
	}
	ix.mu.Unlock()

	for _, n := range s.AllNodes() {
		if err := ix.IndexNode(n); err != nil {
			return err
		}
	}
	for _, e := range s.AllEdges() {
		if err := ix.IndexEdge(e); err != nil {
			return err
		}
	}
	return nil
}
