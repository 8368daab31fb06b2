package index

import (
	"sync"

	"github.com/mewdb/mew/pkg/store"
)

// ByType buckets node ids by TypeId, backing the TypeScan plan operator
// (§4.4.2) so "every node of type T" never needs a full table scan.
// Grounded on the teacher's PropertyIndex (pkg/storage/index.go), reduced
// to a plain set bucket since a type membership index carries no value
// payload.
type ByType struct {
	mu      sync.RWMutex
	buckets map[store.TypeId]Set
}

func NewByType() *ByType {
	return &ByType{buckets: make(map[store.TypeId]Set)}
}

func (idx *ByType) Insert(t store.TypeId, id store.EntityId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	b, ok := idx.buckets[t]
	if !ok {
		b = make(Set)
		idx.buckets[t] = b
	}
	b.Add(id)
}

func (idx *ByType) Remove(t store.TypeId, id store.EntityId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if b, ok := idx.buckets[t]; ok {
		b.Remove(id)
		if len(b) == 0 {
			delete(idx.buckets, t)
		}
	}
}

func (idx *ByType) Lookup(t store.TypeId) []store.EntityId {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.buckets[t].Slice()
}

func (idx *ByType) Count(t store.TypeId) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.buckets[t])
}

// EdgeByType is ByType's counterpart over the edge space, backing the
// EdgeScanByType plan operator (§4.4.2).
type EdgeByType struct {
	mu      sync.RWMutex
	buckets map[store.EdgeTypeId]Set
}

func NewEdgeByType() *EdgeByType {
	return &EdgeByType{buckets: make(map[store.EdgeTypeId]Set)}
}

func (idx *EdgeByType) Insert(t store.EdgeTypeId, id store.EntityId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	b, ok := idx.buckets[t]
	if !ok {
		b = make(Set)
		idx.buckets[t] = b
	}
	b.Add(id)
}

func (idx *EdgeByType) Remove(t store.EdgeTypeId, id store.EntityId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if b, ok := idx.buckets[t]; ok {
		b.Remove(id)
		if len(b) == 0 {
			delete(idx.buckets, t)
		}
	}
}

func (idx *EdgeByType) Lookup(t store.EdgeTypeId) []store.EntityId {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.buckets[t].Slice()
}

func (idx *EdgeByType) Count(t store.EdgeTypeId) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.buckets[t])
}
