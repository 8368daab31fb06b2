package txn

import "github.com/mewdb/mew/pkg/store"

// GetNode returns a buffer-overlaid view of id: killed is absent,
// spawned-this-transaction returns the buffered row directly, and an
// existing row gets any buffered SET values applied onto a clone before
// it is handed back, so a caller never sees a mutated Store row in place
// (§4.8's buffer-first read rule).
func (t *Transaction) GetNode(id store.EntityId) (*store.Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getNodeLocked(id)
}

func (t *Transaction) getNodeLocked(id store.EntityId) (*store.Node, bool) {
	if t.buf.killedNodes[id] {
		return nil, false
	}
	if n, ok := t.buf.spawnedNodes[id]; ok {
		return n, true
	}
	n, err := t.mgr.store.GetNode(id)
	if err != nil {
		return nil, false
	}
	if ov, ok := t.buf.setNode[id]; ok && len(ov) > 0 {
		n = n.Clone()
		for a, v := range ov {
			n.Attributes[a] = v
		}
	}
	return n, true
}

func (t *Transaction) GetEdge(id store.EntityId) (*store.Edge, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getEdgeLocked(id)
}

func (t *Transaction) getEdgeLocked(id store.EntityId) (*store.Edge, bool) {
	if t.buf.killedEdges[id] {
		return nil, false
	}
	if e, ok := t.buf.spawnedEdges[id]; ok {
		return e, true
	}
	e, err := t.mgr.store.GetEdge(id)
	if err != nil {
		return nil, false
	}
	overlaid := false
	if ov, ok := t.buf.setEdge[id]; ok && len(ov) > 0 {
		e = e.Clone()
		overlaid = true
		for a, v := range ov {
			e.Attributes[a] = v
		}
	}
	if nulls, ok := t.buf.nullify[id]; ok && len(nulls) > 0 {
		if !overlaid {
			e = e.Clone()
		}
		for pos := range nulls {
			if pos >= 0 && pos < len(e.Targets) {
				e.Targets[pos] = 0
			}
		}
	}
	return e, true
}

// NodesByType merges the committed ByType bucket with buffered spawns of
// that type, minus anything killed this transaction.
func (t *Transaction) NodesByType(typeId store.TypeId) []store.EntityId {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]store.EntityId, 0)
	for _, id := range t.mgr.idx.ByType().Lookup(typeId) {
		if !t.buf.killedNodes[id] {
			out = append(out, id)
		}
	}
	for id, n := range t.buf.spawnedNodes {
		if n.Type == typeId {
			out = append(out, id)
		}
	}
	return out
}

func (t *Transaction) EdgesByType(typeId store.EdgeTypeId) []store.EntityId {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]store.EntityId, 0)
	for _, id := range t.mgr.idx.EdgeByType().Lookup(typeId) {
		if !t.buf.killedEdges[id] {
			out = append(out, id)
		}
	}
	for id, e := range t.buf.spawnedEdges {
		if e.Type == typeId {
			out = append(out, id)
		}
	}
	return out
}

// AttrLookup merges the committed index's bucket for v (both the node
// and edge attribute buckets, since the attribute id space is shared
// across entity kinds) with buffered spawns/overlays, per
// pattern.DataSource.AttrLookup's untyped contract.
func (t *Transaction) AttrLookup(attr store.AttrId, v store.Value) []store.EntityId {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[store.EntityId]bool)
	var out []store.EntityId
	add := func(id store.EntityId) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	considerCommitted := func(id store.EntityId) {
		if t.buf.isKilled(id) {
			return
		}
		if ov, ok := t.buf.overlayAttr(id, attr); ok {
			if ov.Equal(v) {
				add(id)
			}
			return
		}
		add(id)
	}

	if u, ok := t.mgr.idx.UniqueIndex(attr); ok {
		if id, ok2 := u.Lookup(v); ok2 {
			considerCommitted(id)
		}
	}
	if b, ok := t.mgr.idx.NodeAttrIndex(attr); ok {
		for _, id := range b.Lookup(v) {
			considerCommitted(id)
		}
	}
	if b, ok := t.mgr.idx.EdgeAttrIndex(attr); ok {
		for _, id := range b.Lookup(v) {
			considerCommitted(id)
		}
	}

	for id, n := range t.buf.spawnedNodes {
		if cur, ok := n.Attributes[attr]; ok && cur.Equal(v) {
			add(id)
		}
	}
	for id, e := range t.buf.spawnedEdges {
		if cur, ok := e.Attributes[attr]; ok && cur.Equal(v) {
			add(id)
		}
	}
	return out
}

// AttrRange is AttrLookup's range-scan counterpart, used by IndexedAttrScan
// plan steps compiled from a comparison condition rather than equality.
func (t *Transaction) AttrRange(attr store.AttrId, lo, hi store.Value) []store.EntityId {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[store.EntityId]bool)
	var out []store.EntityId
	add := func(id store.EntityId) {
		if !t.buf.isKilled(id) && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	if b, ok := t.mgr.idx.NodeAttrIndex(attr); ok {
		for _, id := range b.RangeLookup(lo, hi) {
			add(id)
		}
	}
	if b, ok := t.mgr.idx.EdgeAttrIndex(attr); ok {
		for _, id := range b.RangeLookup(lo, hi) {
			add(id)
		}
	}
	for id, n := range t.buf.spawnedNodes {
		if cur, ok := n.Attributes[attr]; ok && inRange(cur, lo, hi) {
			add(id)
		}
	}
	for id, e := range t.buf.spawnedEdges {
		if cur, ok := e.Attributes[attr]; ok && inRange(cur, lo, hi) {
			add(id)
		}
	}
	return out
}

func inRange(v, lo, hi store.Value) bool {
	loCmp, err := store.Compare(v, lo)
	if err != nil {
		return false
	}
	hiCmp, err := store.Compare(v, hi)
	if err != nil {
		return false
	}
	return loCmp >= 0 && hiCmp <= 0
}

// EdgesByTarget merges the committed reverse-target index with buffered
// spawned edges naming target, minus anything killed.
func (t *Transaction) EdgesByTarget(target store.EntityId) []store.EntityId {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]store.EntityId, 0)
	for _, id := range t.mgr.idx.EdgeByTarget().ReferencingEdges(target) {
		if t.buf.killedEdges[id] {
			continue
		}
		if nulls, ok := t.buf.nullify[id]; ok {
			if e, err := t.mgr.store.GetEdge(id); err == nil && targetNullifiedAt(e, target, nulls) {
				continue
			}
		}
		out = append(out, id)
	}
	for id, e := range t.buf.spawnedEdges {
		for _, tg := range e.Targets {
			if tg == target {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

func targetNullifiedAt(e *store.Edge, target store.EntityId, nulls map[int]bool) bool {
	for i, tg := range e.Targets {
		if tg == target && !nulls[i] {
			return false
		}
	}
	return true
}

func (t *Transaction) AllNodeIds() []store.EntityId {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []store.EntityId
	for _, n := range t.mgr.store.AllNodes() {
		if !t.buf.killedNodes[n.ID] {
			out = append(out, n.ID)
		}
	}
	for id := range t.buf.spawnedNodes {
		out = append(out, id)
	}
	return out
}

func (t *Transaction) AllEdgeIds() []store.EntityId {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []store.EntityId
	for _, e := range t.mgr.store.AllEdges() {
		if !t.buf.killedEdges[e.ID] {
			out = append(out, e.ID)
		}
	}
	for id := range t.buf.spawnedEdges {
		out = append(out, id)
	}
	return out
}

func (t *Transaction) TypeCount(typeId store.TypeId) int {
	return len(t.NodesByType(typeId))
}

func (t *Transaction) EdgeTypeCount(typeId store.EdgeTypeId) int {
	return len(t.EdgesByType(typeId))
}
