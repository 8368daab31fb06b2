package index

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/mewdb/mew/pkg/store"
)

// valueKey converts a Value to a lexically-ordered string bucket key, so a
// single map can serve both equality and RangeLookup. Ported near-verbatim
// from the teacher's PropertyIndex.valueToKey (pkg/storage/index.go),
// including its sign-bias trick for Int/Timestamp so two's-complement
// negative values still sort correctly as strings.
func valueKey(v store.Value) string {
	switch v.Type {
	case store.TypeString:
		s, _ := v.AsString()
		return s
	case store.TypeInt, store.TypeTimestamp, store.TypeDuration:
		iv, _ := v.AsInt()
		biased := uint64(iv) + (1 << 63)
		return fmt.Sprintf("%020d", biased)
	case store.TypeFloat:
		fv, _ := v.AsFloat()
		return fmt.Sprintf("%020.6f", fv)
	case store.TypeBool:
		b, _ := v.AsBool()
		if b {
			return "1"
		}
		return "0"
	case store.TypeEntityRef:
		r, _ := v.AsRef()
		return r.String()
	default:
		return ""
	}
}

// ByAttr is a non-unique secondary index over one AttrId: a value may map
// to many entities. Backs the IndexedAttrScan plan operator (§4.4.2) for
// attributes marked `indexed` but not `unique` in the AttributeDef.
// Grounded on the teacher's PropertyIndex (pkg/storage/index.go),
// generalized to key on AttrId instead of a property name string and to
// index both nodes and edges under a single EntityId space.
type ByAttr struct {
	mu    sync.RWMutex
	attr  store.AttrId
	index map[string]Set
}

func NewByAttr(attr store.AttrId) *ByAttr {
	return &ByAttr{attr: attr, index: make(map[string]Set)}
}

func (idx *ByAttr) Insert(v store.Value, id store.EntityId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	k := valueKey(v)
	b, ok := idx.index[k]
	if !ok {
		b = make(Set)
		idx.index[k] = b
	}
	b.Add(id)
}

func (idx *ByAttr) Remove(v store.Value, id store.EntityId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	k := valueKey(v)
	if b, ok := idx.index[k]; ok {
		b.Remove(id)
		if len(b) == 0 {
			delete(idx.index, k)
		}
	}
}

func (idx *ByAttr) Lookup(v store.Value) []store.EntityId {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.index[valueKey(v)].Slice()
}

// RangeLookup returns every entity whose indexed value's key falls within
// [start, end] inclusive, in key order. Used for ordered range predicates
// over Int/Float/Timestamp/Duration/String attributes.
func (idx *ByAttr) RangeLookup(start, end store.Value) []store.EntityId {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	lo, hi := valueKey(start), valueKey(end)
	keys := make([]string, 0, len(idx.index))
	for k := range idx.index {
		if k >= lo && k <= hi {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var out []store.EntityId
	for _, k := range keys {
		out = append(out, idx.index[k].Slice()...)
	}
	return out
}

func (idx *ByAttr) Count(v store.Value) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.index[valueKey(v)])
}
