package registry

import (
	"fmt"
	"sync"

	"github.com/mewdb/mew/pkg/store"
)

// Registry is the runtime, fast-lookup form of a compiled ontology
// (§4.3). It is built once by the external ontology compiler (or, for
// tests and fixtures, by the Builder in this package) and then treated
// as read-only for the lifetime of a transaction — schema changes rebind
// a new Registry atomically under the schema lock (§5, §9.4: "the
// Registry is re-bound atomically on schema changes, not mutated in
// place during transactions").
//
// Grounded on the teacher's constraint/validator dependency-injection
// shape (`pkg/constraints/types.go` GraphReader, `pkg/constraints/validator.go`
// Validator holding a constraint list); the reverse dispatch maps are new,
// needed for §4.7's per-mutation constraint/rule triggering.
type Registry struct {
	mu sync.RWMutex

	typeByName     map[string]store.TypeId
	edgeTypeByName map[string]store.EdgeTypeId
	attrByName     map[string]store.AttrId

	types      map[store.TypeId]*NodeTypeDef
	edgeTypes  map[store.EdgeTypeId]*EdgeTypeDef
	attrs      map[store.AttrId]*AttributeDef
	constraints map[store.ConstraintId]*ConstraintDef
	rules      map[store.RuleId]*RuleDef
	patterns   map[PatternId]*PatternDef

	// subtypeSet[T] is the precomputed transitive closure of T's
	// descendant types, which satisfy a pattern naming T (§3.4). T itself
	// is not stored; Satisfies checks T == T directly.
	subtypeSet map[store.TypeId]map[store.TypeId]struct{}
	// mergedAttrs[T] is T's own attributes plus every ancestor's,
	// deduplicated (§4.3 "TypeId → resolved attribute list (with
	// inherited ones merged)").
	mergedAttrs map[store.TypeId][]store.AttrId

	// Reverse dispatch maps (§4.3, §4.7): looked up on every mutation so
	// only constraints/rules that could possibly be affected are
	// evaluated.
	constraintsByType     map[store.TypeId][]store.ConstraintId
	constraintsByEdgeType map[store.EdgeTypeId][]store.ConstraintId
	constraintsByAttr     map[attrKey][]store.ConstraintId
	rulesByType           map[store.TypeId][]store.RuleId
	rulesByEdgeType       map[store.EdgeTypeId][]store.RuleId
	rulesByAttr           map[attrKey][]store.RuleId
}

type attrKey struct {
	Type store.TypeId
	Attr store.AttrId
}

func New() *Registry {
	return &Registry{
		typeByName:            make(map[string]store.TypeId),
		edgeTypeByName:        make(map[string]store.EdgeTypeId),
		attrByName:            make(map[string]store.AttrId),
		types:                 make(map[store.TypeId]*NodeTypeDef),
		edgeTypes:             make(map[store.EdgeTypeId]*EdgeTypeDef),
		attrs:                 make(map[store.AttrId]*AttributeDef),
		constraints:           make(map[store.ConstraintId]*ConstraintDef),
		rules:                 make(map[store.RuleId]*RuleDef),
		patterns:              make(map[PatternId]*PatternDef),
		subtypeSet:            make(map[store.TypeId]map[store.TypeId]struct{}),
		mergedAttrs:           make(map[store.TypeId][]store.AttrId),
		constraintsByType:     make(map[store.TypeId][]store.ConstraintId),
		constraintsByEdgeType: make(map[store.EdgeTypeId][]store.ConstraintId),
		constraintsByAttr:     make(map[attrKey][]store.ConstraintId),
		rulesByType:           make(map[store.TypeId][]store.RuleId),
		rulesByEdgeType:       make(map[store.EdgeTypeId][]store.RuleId),
		rulesByAttr:           make(map[attrKey][]store.RuleId),
	}
}

var (
	ErrUnknownType      = fmt.Errorf("registry: unknown node type")
	ErrUnknownEdgeType  = fmt.Errorf("registry: unknown edge type")
	ErrUnknownAttr      = fmt.Errorf("registry: unknown attribute")
	ErrUnknownPattern   = fmt.Errorf("registry: unknown pattern")
	ErrAbstractType     = fmt.Errorf("registry: type is abstract")
	ErrCyclicInheritance = fmt.Errorf("registry: cyclic node type inheritance")
)

// --- forward lookups ---

func (r *Registry) TypeByName(name string) (store.TypeId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.typeByName[name]
	return id, ok
}

func (r *Registry) EdgeTypeByName(name string) (store.EdgeTypeId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.edgeTypeByName[name]
	return id, ok
}

func (r *Registry) AttrByName(name string) (store.AttrId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.attrByName[name]
	return id, ok
}

func (r *Registry) NodeType(id store.TypeId) (*NodeTypeDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[id]
	if !ok {
		return nil, ErrUnknownType
	}
	return d, nil
}

func (r *Registry) EdgeType(id store.EdgeTypeId) (*EdgeTypeDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.edgeTypes[id]
	if !ok {
		return nil, ErrUnknownEdgeType
	}
	return d, nil
}

func (r *Registry) Attribute(id store.AttrId) (*AttributeDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.attrs[id]
	if !ok {
		return nil, ErrUnknownAttr
	}
	return d, nil
}

func (r *Registry) Constraint(id store.ConstraintId) (*ConstraintDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.constraints[id]
	return d, ok
}

func (r *Registry) Rule(id store.RuleId) (*RuleDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.rules[id]
	return d, ok
}

func (r *Registry) Pattern(id PatternId) (*PatternDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.patterns[id]
	if !ok {
		return nil, ErrUnknownPattern
	}
	return d, nil
}

// AllConstraints and AllRules back deferred-phase evaluation and the
// rule engine's initial seed pass.
func (r *Registry) AllConstraints() []*ConstraintDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ConstraintDef, 0, len(r.constraints))
	for _, c := range r.constraints {
		out = append(out, c)
	}
	return out
}

func (r *Registry) AllRules() []*RuleDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*RuleDef, 0, len(r.rules))
	for _, rl := range r.rules {
		out = append(out, rl)
	}
	return out
}

// AllNodeTypeIds and AllEdgeTypeIds list every declared type id, for
// callers that enumerate the ontology (cmd/mew-inspect's type browser)
// rather than looking one up by name.
func (r *Registry) AllNodeTypeIds() []store.TypeId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]store.TypeId, 0, len(r.types))
	for id := range r.types {
		out = append(out, id)
	}
	return out
}

func (r *Registry) AllEdgeTypeIds() []store.EdgeTypeId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]store.EdgeTypeId, 0, len(r.edgeTypes))
	for id := range r.edgeTypes {
		out = append(out, id)
	}
	return out
}

// --- subtyping ---

// Satisfies reports whether a node of type candidate satisfies a pattern
// naming ancestor (§3.4): true if candidate == ancestor or candidate is in
// ancestor's precomputed subtype closure.
func (r *Registry) Satisfies(candidate, ancestor store.TypeId) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if candidate == ancestor {
		return true
	}
	set, ok := r.subtypeSet[ancestor]
	if !ok {
		return false
	}
	_, ok = set[candidate]
	return ok
}

// ResolvedAttributes returns T's own attributes merged with every
// ancestor's, deduplicated (§4.3).
func (r *Registry) ResolvedAttributes(t store.TypeId) []store.AttrId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]store.AttrId(nil), r.mergedAttrs[t]...)
}

// --- reverse dispatch (§4.7, §4.6) ---

func (r *Registry) ConstraintsForType(t store.TypeId) []store.ConstraintId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]store.ConstraintId(nil), r.constraintsByType[t]...)
}

func (r *Registry) ConstraintsForEdgeType(t store.EdgeTypeId) []store.ConstraintId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]store.ConstraintId(nil), r.constraintsByEdgeType[t]...)
}

func (r *Registry) ConstraintsForAttr(t store.TypeId, a store.AttrId) []store.ConstraintId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]store.ConstraintId(nil), r.constraintsByAttr[attrKey{t, a}]...)
}

func (r *Registry) RulesForType(t store.TypeId) []store.RuleId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]store.RuleId(nil), r.rulesByType[t]...)
}

func (r *Registry) RulesForEdgeType(t store.EdgeTypeId) []store.RuleId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]store.RuleId(nil), r.rulesByEdgeType[t]...)
}

func (r *Registry) RulesForAttr(t store.TypeId, a store.AttrId) []store.RuleId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]store.RuleId(nil), r.rulesByAttr[attrKey{t, a}]...)
}
