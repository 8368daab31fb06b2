package txn

import "github.com/mewdb/mew/pkg/store"

// buffer is the transaction-local overlay every primitive writes into
// instead of Store/Index directly (§4.8 "reads see buffer first, then
// the BEGIN snapshot"). Grounded on the teacher's Transaction buffering
// fields (`pkg/storage/transaction_types.go`: createdNodes/updatedNodes/
// createdEdges/deletedNodes/deletedEdges), generalized from a
// property-update map to attribute-level overlay plus the edge-target
// nullification LINK/KILL's cascade needs.
type buffer struct {
	spawnedNodes map[store.EntityId]*store.Node
	spawnedEdges map[store.EntityId]*store.Edge

	killedNodes map[store.EntityId]bool
	killedEdges map[store.EntityId]bool

	// setNode/setEdge overlay attribute writes onto a row that already
	// exists in Store (i.e. was not spawned this transaction).
	setNode map[store.EntityId]map[store.AttrId]store.Value
	setEdge map[store.EntityId]map[store.AttrId]store.Value

	// nullify overlays a cleared target position onto a committed edge
	// (§4.4.2 KillNullify); keyed by edge id, then target position.
	nullify map[store.EntityId]map[int]bool
}

func newBuffer() *buffer {
	return &buffer{
		spawnedNodes: make(map[store.EntityId]*store.Node),
		spawnedEdges: make(map[store.EntityId]*store.Edge),
		killedNodes:  make(map[store.EntityId]bool),
		killedEdges:  make(map[store.EntityId]bool),
		setNode:      make(map[store.EntityId]map[store.AttrId]store.Value),
		setEdge:      make(map[store.EntityId]map[store.AttrId]store.Value),
		nullify:      make(map[store.EntityId]map[int]bool),
	}
}

// clone deep-copies the buffer, used to push a savepoint.
func (b *buffer) clone() *buffer {
	c := newBuffer()
	for id, n := range b.spawnedNodes {
		c.spawnedNodes[id] = n.Clone()
	}
	for id, e := range b.spawnedEdges {
		c.spawnedEdges[id] = e.Clone()
	}
	for id := range b.killedNodes {
		c.killedNodes[id] = true
	}
	for id := range b.killedEdges {
		c.killedEdges[id] = true
	}
	for id, m := range b.setNode {
		cm := make(map[store.AttrId]store.Value, len(m))
		for a, v := range m {
			cm[a] = v
		}
		c.setNode[id] = cm
	}
	for id, m := range b.setEdge {
		cm := make(map[store.AttrId]store.Value, len(m))
		for a, v := range m {
			cm[a] = v
		}
		c.setEdge[id] = cm
	}
	for id, m := range b.nullify {
		cm := make(map[int]bool, len(m))
		for p, v := range m {
			cm[p] = v
		}
		c.nullify[id] = cm
	}
	return c
}

func (b *buffer) isKilled(id store.EntityId) bool {
	if id.IsEdge() {
		return b.killedEdges[id]
	}
	return b.killedNodes[id]
}

func (b *buffer) overlayAttr(id store.EntityId, attr store.AttrId) (store.Value, bool) {
	m := b.setNode
	if id.IsEdge() {
		m = b.setEdge
	}
	ov, ok := m[id]
	if !ok {
		return store.Value{}, false
	}
	v, ok := ov[attr]
	return v, ok
}
