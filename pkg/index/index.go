// Package index maintains the secondary structures the pattern matcher's
// plan operators scan against: per-type buckets, per-attribute value
// indexes (unique and non-unique), and the reverse target index that
// makes an edge's higher-order neighborhood ("what references this
// entity") and cascade-on-delete cheap. None of these are authoritative;
// Store is. Index is rebuilt from Store on recovery and kept in lockstep
// with it by the transaction commit flush (§4.2, §4.8).
package index

import "github.com/mewdb/mew/pkg/store"

// Set is an unordered membership set of entity ids, the common shape
// every bucket in this package reduces to.
type Set map[store.EntityId]struct{}

func (s Set) Add(id store.EntityId)    { s[id] = struct{}{} }
func (s Set) Remove(id store.EntityId) { delete(s, id) }
func (s Set) Has(id store.EntityId) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the set's members as a slice, in no particular order.
func (s Set) Slice() []store.EntityId {
	out := make([]store.EntityId, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}
