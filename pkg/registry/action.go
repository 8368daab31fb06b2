package registry

import "github.com/mewdb/mew/pkg/store"

// ActionKind is the closed tag of a production Action (§3.2, §4.6): one
// of the five Mutation primitives, parameterized by pattern/earlier
// -action-bound variables rather than literal IDs.
type ActionKind uint8

const (
	ActionSpawn ActionKind = iota
	ActionKill
	ActionLink
	ActionUnlink
	ActionSet
)

// AttrInit is one attribute initializer inside a SPAWN/LINK action.
// Inline initializers cannot forward-reference each other within the
// same SPAWN (§4.6) — the rule engine evaluates them against the
// binding in effect before the action runs, not against sibling
// initializers.
type AttrInit struct {
	Attr  store.AttrId
	Value *Expr
}

// ActionTarget names an action's subject or an edge's target position:
// either a pattern variable already bound, or the result variable of an
// earlier action in the same production (§4.6 "variables bound by
// earlier SPAWN actions become available to subsequent actions").
type ActionTarget struct {
	Var string
}

// Action is one step of a RuleDef's production list.
type Action struct {
	Kind ActionKind

	// ActionSpawn: binds the new NodeId to ResultVar.
	SpawnType store.TypeId
	ResultVar string

	// ActionKill / ActionUnlink: the entity to remove.
	// ActionSet: the entity being written (paired with SetAttr/SetValue).
	Target ActionTarget

	// ActionLink: binds the new EdgeId to ResultVar.
	LinkType    store.EdgeTypeId
	LinkTargets []ActionTarget

	// ActionSpawn / ActionLink: attribute initializers.
	Attrs []AttrInit

	// ActionSet: the entity and attribute being written.
	SetAttr  store.AttrId
	SetValue *Expr
}
