package index

import (
	"fmt"
	"sync"

	"github.com/mewdb/mew/pkg/store"
)

// ErrDuplicateValue is returned by UniqueAttr.Insert when the value is
// already claimed by a different entity, the signal Constraint's
// immediate-phase uniqueness check (§4.7) turns into a UniquenessError.
var ErrDuplicateValue = fmt.Errorf("index: duplicate value")

// UniqueAttr is a 1:1 secondary index over one AttrId, backing both fast
// equality lookup and the immediate enforcement of a `unique: true`
// AttributeDef. Grounded on the teacher's uniqueness constraint
// (pkg/constraints/uniqueness.go), which scans linearly; this kernel
// keeps a live index instead so the check is O(1) per mutation rather
// than O(n) per commit.
type UniqueAttr struct {
	mu    sync.RWMutex
	attr  store.AttrId
	index map[string]store.EntityId
}

func NewUniqueAttr(attr store.AttrId) *UniqueAttr {
	return &UniqueAttr{attr: attr, index: make(map[string]store.EntityId)}
}

// Insert claims v for id. Returns ErrDuplicateValue if v is already
// claimed by a different entity; re-claiming by the same entity (an
// idempotent SET) is not an error.
func (idx *UniqueAttr) Insert(v store.Value, id store.EntityId) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	k := valueKey(v)
	if existing, ok := idx.index[k]; ok && existing != id {
		return ErrDuplicateValue
	}
	idx.index[k] = id
	return nil
}

func (idx *UniqueAttr) Remove(v store.Value) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.index, valueKey(v))
}

func (idx *UniqueAttr) Lookup(v store.Value) (store.EntityId, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	id, ok := idx.index[valueKey(v)]
	return id, ok
}

// Check reports whether v is available for id — true if unclaimed or
// already claimed by id itself — without mutating the index. Used by
// Constraint to validate a buffered mutation before it is flushed.
func (idx *UniqueAttr) Check(v store.Value, id store.EntityId) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	existing, ok := idx.index[valueKey(v)]
	return !ok || existing == id
}
