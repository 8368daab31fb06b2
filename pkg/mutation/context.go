package mutation

import (
	"github.com/mewdb/mew/pkg/pattern"
	"github.com/mewdb/mew/pkg/store"
)

// Context is everything a primitive needs from the owning transaction:
// reads that see the buffer-then-snapshot overlay (§4.8), ID allocation,
// buffer writes, and unique-attribute checking. pkg/txn's Transaction
// implements this; Mutation never touches Store or Index directly.
type Context interface {
	pattern.DataSource

	AllocateNodeId() store.EntityId
	AllocateEdgeId() store.EntityId

	BufferSpawnNode(n *store.Node)
	BufferSpawnEdge(e *store.Edge)
	BufferKillNode(id store.EntityId)
	BufferKillEdge(id store.EntityId)
	BufferSet(id store.EntityId, attr store.AttrId, v store.Value)

	// BufferNullifyTarget clears an edge's target at position to the
	// zero EntityId, used by KillNullify cascade policy (§4.4.2) when the
	// signature position is optional. The edge survives with a null slot.
	BufferNullifyTarget(edgeId store.EntityId, position int)

	// CheckUnique reports whether v is available for id on attr, across
	// both the committed UniqueAttr index and this transaction's own
	// buffered writes (so two SPAWNs in the same transaction claiming the
	// same unique value still conflict before commit).
	CheckUnique(attr store.AttrId, v store.Value, id store.EntityId) bool

	// Emit appends a Primitive to the transaction's pending journal
	// record list (§4.9), in application order.
	Emit(p Primitive)

	Now() int64 // ms since epoch, backs now() attribute defaults (§4.5)
}
