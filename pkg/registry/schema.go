package registry

import "github.com/mewdb/mew/pkg/store"

// KillPolicy is an edge type's `on_kill_*` cascade policy (§3.3, §4.5
// KILL): what happens to an edge when one of its targets is deleted.
type KillPolicy uint8

const (
	KillCascade  KillPolicy = iota // delete the edge too
	KillNullify                    // drop the target if its position is optional
	KillRestrict                   // refuse the deletion (ReferentialError)
)

// AttributeDef is a compiled attribute definition (§3.2, §4.3):
// scalar type, and the `required`/`unique`/`indexed` modifiers plus an
// optional default-value expression (covers static defaults and dynamic
// ones like `now()`, per §4.5 SPAWN "apply defaults (including dynamic
// now() defaults)").
type AttributeDef struct {
	ID       store.AttrId
	Name     string
	Type     TypeExpr
	Required bool
	Unique   bool
	Indexed  bool
	Default  *Expr
}

// NodeTypeDef is a compiled node type (§3.2, §3.4, §4.3): its own
// attributes, its declared parents in the (DAG-shaped, acyclic, §3.3)
// inheritance graph, and whether it is abstract (cannot be instantiated)
// or sealed (cannot be inherited, reserved for Layer 0 types).
type NodeTypeDef struct {
	ID         store.TypeId
	Name       string
	Parents    []store.TypeId
	Attributes []store.AttrId // this type's own attributes, unmerged
	Abstract   bool
	Sealed     bool
}

// EdgeTypeDef is a compiled edge type (§3.2, §4.3): its signature (one
// type expression per target position), symmetry/reflexivity/cardinality
// modifiers, its own attributes, and its kill cascade policy.
type EdgeTypeDef struct {
	ID               store.EdgeTypeId
	Name             string
	Signature        []TypeExpr
	Symmetric        bool
	ReflexiveAllowed bool
	MinCardinality   int // 0 means unbounded
	MaxCardinality   int // 0 means unbounded
	OnKill           KillPolicy
	Attributes       []store.AttrId
	Sealed           bool
}

// Arity is the number of target positions this edge type declares.
func (e *EdgeTypeDef) Arity() int { return len(e.Signature) }

// ConstraintDef is a compiled declarative invariant (§3.2, §4.7): a
// pattern plus a Boolean condition, hard (aborts the transaction) or
// soft (warns and continues), immediate (per-mutation) or deferred
// (once at commit after rule fixpoint). Severity/violation reporting
// is grounded on the teacher's Severity/Violation shape
// (`pkg/constraints/types.go`), reduced to the hard/soft split §4.7
// actually specifies.
type ConstraintDef struct {
	ID        store.ConstraintId
	Name      string
	Pattern   PatternId
	Condition *Expr
	Hard      bool
	Deferred  bool
	Message   string // custom message attached to ConstraintError
}

// RuleDef is a compiled declarative rule (§3.2, §4.6): pattern →
// production, with a priority (higher fires first) and auto/manual
// trigger mode.
type RuleDef struct {
	ID         store.RuleId
	Name       string
	Pattern    PatternId
	Production []Action
	Priority   int
	Manual     bool // auto rules (false) participate in fixpoint automatically
}

// Violation reports one constraint failure, grounded on the teacher's
// Violation (`pkg/constraints/types.go`), trimmed to what ConstraintError
// (§7) needs to carry: which constraint, which binding, and the message.
type Violation struct {
	Constraint string
	Message    string
	Binding    map[string]store.EntityId
	Hard       bool
}
