// Package store owns the in-memory hypergraph arena: nodes, edges, and the
// single opaque ID space that lets an edge target either a node or another
// edge (the "higher-order" property).
package store

import "fmt"

// EntityId is the union of NodeId and EdgeId over one opaque ID space, as
// required by §3.1 so an edge target can reference either. The top bit
// tags which space the counter belongs to; the remaining 63 bits are a
// per-space monotonic counter allocated by Store.
type EntityId uint64

const edgeTagBit EntityId = 1 << 63

// NodeId constructs a node-tagged EntityId from a raw counter value.
func NodeId(counter uint64) EntityId { return EntityId(counter) }

// EdgeId constructs an edge-tagged EntityId from a raw counter value.
func EdgeId(counter uint64) EntityId { return EntityId(counter) | edgeTagBit }

// IsNode reports whether this id was allocated from the node space.
func (id EntityId) IsNode() bool { return id&edgeTagBit == 0 }

// IsEdge reports whether this id was allocated from the edge space.
func (id EntityId) IsEdge() bool { return id&edgeTagBit != 0 }

// Counter returns the raw per-space allocation counter, stripped of the tag.
func (id EntityId) Counter() uint64 { return uint64(id &^ edgeTagBit) }

func (id EntityId) String() string {
	if id.IsEdge() {
		return fmt.Sprintf("e%d", id.Counter())
	}
	return fmt.Sprintf("n%d", id.Counter())
}

// TypeId names a NodeTypeDef in the Registry.
type TypeId uint32

// EdgeTypeId names an EdgeTypeDef in the Registry.
type EdgeTypeId uint32

// AttrId names an AttributeDef in the Registry.
type AttrId uint32

// ConstraintId names a ConstraintDef in the Registry.
type ConstraintId uint32

// RuleId names a RuleDef in the Registry.
type RuleId uint32
