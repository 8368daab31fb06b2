package txn

import (
	"github.com/mewdb/mew/pkg/mutation"
	"github.com/mewdb/mew/pkg/store"
)

func (t *Transaction) AllocateNodeId() store.EntityId { return t.mgr.store.AllocateNodeId() }
func (t *Transaction) AllocateEdgeId() store.EntityId { return t.mgr.store.AllocateEdgeId() }

func (t *Transaction) BufferSpawnNode(n *store.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.spawnedNodes[n.ID] = n
}

func (t *Transaction) BufferSpawnEdge(e *store.Edge) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.spawnedEdges[e.ID] = e
}

func (t *Transaction) BufferKillNode(id store.EntityId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.buf.spawnedNodes, id)
	delete(t.buf.setNode, id)
	t.buf.killedNodes[id] = true
}

func (t *Transaction) BufferKillEdge(id store.EntityId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.buf.spawnedEdges, id)
	delete(t.buf.setEdge, id)
	delete(t.buf.nullify, id)
	t.buf.killedEdges[id] = true
}

func (t *Transaction) BufferSet(id store.EntityId, attr store.AttrId, v store.Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id.IsEdge() {
		if n, ok := t.buf.spawnedEdges[id]; ok {
			n.Attributes[attr] = v
			return
		}
		if t.buf.setEdge[id] == nil {
			t.buf.setEdge[id] = make(map[store.AttrId]store.Value)
		}
		t.buf.setEdge[id][attr] = v
		return
	}
	if n, ok := t.buf.spawnedNodes[id]; ok {
		n.Attributes[attr] = v
		return
	}
	if t.buf.setNode[id] == nil {
		t.buf.setNode[id] = make(map[store.AttrId]store.Value)
	}
	t.buf.setNode[id][attr] = v
}

func (t *Transaction) BufferNullifyTarget(edgeId store.EntityId, position int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.buf.spawnedEdges[edgeId]; ok {
		if position >= 0 && position < len(e.Targets) {
			e.Targets[position] = 0
		}
		return
	}
	if t.buf.nullify[edgeId] == nil {
		t.buf.nullify[edgeId] = make(map[int]bool)
	}
	t.buf.nullify[edgeId][position] = true
}

// CheckUnique reports whether v is free for id on attr, checking both the
// committed UniqueAttr index and this transaction's own buffered writes —
// two SPAWNs in the same transaction racing for the same unique value
// must conflict before either commits (§4.5 "unique" modifier).
func (t *Transaction) CheckUnique(attr store.AttrId, v store.Value, id store.EntityId) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if u, ok := t.mgr.idx.UniqueIndex(attr); ok {
		holder, held := u.Lookup(v)
		stillHeld := held && !t.buf.isKilled(holder)
		if stillHeld && !u.Check(v, id) {
			return false
		}
	}
	for other, n := range t.buf.spawnedNodes {
		if other == id {
			continue
		}
		if cur, ok := n.Attributes[attr]; ok && cur.Equal(v) {
			return false
		}
	}
	for other, e := range t.buf.spawnedEdges {
		if other == id {
			continue
		}
		if cur, ok := e.Attributes[attr]; ok && cur.Equal(v) {
			return false
		}
	}
	for other, ov := range t.buf.setNode {
		if other == id {
			continue
		}
		if cur, ok := ov[attr]; ok && cur.Equal(v) {
			return false
		}
	}
	for other, ov := range t.buf.setEdge {
		if other == id {
			continue
		}
		if cur, ok := ov[attr]; ok && cur.Equal(v) {
			return false
		}
	}
	return true
}

func (t *Transaction) Emit(p mutation.Primitive) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.primitives = append(t.primitives, p)
}
