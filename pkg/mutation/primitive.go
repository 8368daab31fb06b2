// Package mutation implements the five primitive operations of §4.5:
// SPAWN, KILL, LINK, UNLINK, SET. Every primitive runs against a
// transaction's buffer (never Store directly, §4.5 "none touch Store
// directly") via the Context interface, so this package has no
// dependency on pkg/txn — pkg/txn depends on this package instead.
//
// Grounded on the teacher's buffering pattern in
// `pkg/storage/transaction_ops.go` (`CreateNode`/`CreateEdge`/`UpdateNode`
// writing into a Transaction's pending maps rather than GraphStorage
// directly), generalized so KILL/UNLINK cascade through the HigherOrder
// index and LINK validates against a Registry edge signature instead of
// a fixed binary relationship shape.
package mutation

import "github.com/mewdb/mew/pkg/store"

// PrimitiveKind tags one journal-able effect of a Mutation operation
// (§4.9 "one record per primitive mutation"). Rule-produced mutations are
// logged identically to user mutations — both flow through these same
// primitives.
type PrimitiveKind uint8

const (
	PrimSpawnNode PrimitiveKind = iota
	PrimSpawnEdge
	PrimKillNode
	PrimKillEdge
	PrimSet
)

// Primitive is one journaled effect: enough to replay the mutation
// without re-running validation (recovery does not re-check constraints,
// §9.6).
type Primitive struct {
	Kind PrimitiveKind

	NodeID     store.EntityId // PrimSpawnNode, PrimKillNode, PrimSet (when target is a node)
	NodeType   store.TypeId
	EdgeID     store.EntityId // PrimSpawnEdge, PrimKillEdge, PrimSet (when target is an edge)
	EdgeType   store.EdgeTypeId
	Targets    []store.EntityId
	Attributes map[store.AttrId]store.Value // PrimSpawnNode / PrimSpawnEdge initial attrs

	Attr  store.AttrId // PrimSet
	Value store.Value  // PrimSet
}
