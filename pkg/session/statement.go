package session

import (
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// Statement is a compiled operation handed to Run. The compiler named in
// §6.1 produces these; this package never parses or name-resolves
// anything itself.
type Statement interface {
	isStatement()
}

// MatchStatement runs a compiled pattern read-only and returns every
// binding found.
type MatchStatement struct {
	Pattern *registry.PatternDef
}

// SpawnStatement creates a new node of TypeId with the given attributes.
type SpawnStatement struct {
	TypeId store.TypeId
	Attrs  map[store.AttrId]store.Value
}

// KillStatement deletes the node or edge named by ID — dispatch between
// the two is by ID's tag bit, not by a separate field.
type KillStatement struct {
	ID store.EntityId
}

// LinkStatement creates a new hyperedge of EdgeType over Targets.
type LinkStatement struct {
	EdgeType store.EdgeTypeId
	Targets  []store.EntityId
	Attrs    map[store.AttrId]store.Value
}

// UnlinkStatement nullifies every target position of the edge named by
// ID without deleting the edge row itself.
type UnlinkStatement struct {
	ID store.EntityId
}

// SetStatement assigns Attr on the node or edge named by ID.
type SetStatement struct {
	ID    store.EntityId
	Attr  store.AttrId
	Value store.Value
}

func (MatchStatement) isStatement()  {}
func (SpawnStatement) isStatement()  {}
func (KillStatement) isStatement()   {}
func (LinkStatement) isStatement()   {}
func (UnlinkStatement) isStatement() {}
func (SetStatement) isStatement()    {}
