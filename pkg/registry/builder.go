package registry

import (
	"fmt"

	"github.com/mewdb/mew/pkg/store"
)

// Builder assembles a Registry from Layer 0 definitions. It stands in for
// the external ontology compiler named in §6.1: in production that
// compiler desugars a Layer 0 graph into these same definitions and hands
// the result to Finish; in tests and fixtures (and `load_ontology`'s YAML
// path, §6.2/§9 ambient stack), callers populate a Builder directly.
type Builder struct {
	reg *Registry
	err error
}

func NewBuilder() *Builder {
	return &Builder{reg: New()}
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// AddNodeType registers a NodeTypeDef. Parents must already be registered
// (ontologies are built bottom-up); this keeps cycle detection a simple
// "parent not yet known" check rather than a full graph walk.
func (b *Builder) AddNodeType(name string, parents []store.TypeId, attrs []store.AttrId, abstract, sealed bool) store.TypeId {
	id := store.TypeId(len(b.reg.types) + 1)
	for _, p := range parents {
		if _, ok := b.reg.types[p]; !ok {
			b.fail(fmt.Errorf("%w: node type %q declares unknown parent %d", ErrCyclicInheritance, name, p))
		}
	}
	b.reg.types[id] = &NodeTypeDef{
		ID: id, Name: name, Parents: append([]store.TypeId(nil), parents...),
		Attributes: append([]store.AttrId(nil), attrs...), Abstract: abstract, Sealed: sealed,
	}
	b.reg.typeByName[name] = id
	return id
}

func (b *Builder) AddAttribute(name string, typ TypeExpr, required, unique, indexed bool, def *Expr) store.AttrId {
	id := store.AttrId(len(b.reg.attrs) + 1)
	b.reg.attrs[id] = &AttributeDef{
		ID: id, Name: name, Type: typ, Required: required, Unique: unique, Indexed: indexed, Default: def,
	}
	b.reg.attrByName[name] = id
	return id
}

func (b *Builder) AddEdgeType(name string, sig []TypeExpr, symmetric, reflexive bool, minCard, maxCard int, onKill KillPolicy, attrs []store.AttrId) store.EdgeTypeId {
	id := store.EdgeTypeId(len(b.reg.edgeTypes) + 1)
	b.reg.edgeTypes[id] = &EdgeTypeDef{
		ID: id, Name: name, Signature: append([]TypeExpr(nil), sig...),
		Symmetric: symmetric, ReflexiveAllowed: reflexive,
		MinCardinality: minCard, MaxCardinality: maxCard, OnKill: onKill,
		Attributes: append([]store.AttrId(nil), attrs...),
	}
	b.reg.edgeTypeByName[name] = id
	return id
}

func (b *Builder) AddPattern(p *PatternDef) PatternId {
	id := PatternId(len(b.reg.patterns) + 1)
	p.ID = id
	b.reg.patterns[id] = p
	return id
}

// AddConstraint registers a ConstraintDef and wires its reverse dispatch
// entries (§4.3, §4.7): every node type, edge type, and (type, attr) pair
// named by the pattern's variable declarations and edge elements.
func (b *Builder) AddConstraint(name string, pattern PatternId, cond *Expr, hard, deferred bool, message string) store.ConstraintId {
	id := store.ConstraintId(len(b.reg.constraints) + 1)
	b.reg.constraints[id] = &ConstraintDef{
		ID: id, Name: name, Pattern: pattern, Condition: cond, Hard: hard, Deferred: deferred, Message: message,
	}
	b.wireConstraintDispatch(id, pattern)
	return id
}

// AddRule registers a RuleDef and wires its reverse dispatch entries the
// same way constraints are wired.
func (b *Builder) AddRule(name string, pattern PatternId, production []Action, priority int, manual bool) store.RuleId {
	id := store.RuleId(len(b.reg.rules) + 1)
	b.reg.rules[id] = &RuleDef{
		ID: id, Name: name, Pattern: pattern, Production: production, Priority: priority, Manual: manual,
	}
	b.wireRuleDispatch(id, pattern)
	return id
}

func (b *Builder) wireConstraintDispatch(id store.ConstraintId, pattern PatternId) {
	p, ok := b.reg.patterns[pattern]
	if !ok {
		b.fail(fmt.Errorf("%w: pattern %d", ErrUnknownPattern, pattern))
		return
	}
	for _, nv := range p.NodeVars {
		for _, t := range typeExprTypes(nv.Type) {
			if s := b.reg.constraintsByType[t]; len(s) == 0 || s[len(s)-1] != id {
				b.reg.constraintsByType[t] = append(s, id)
			}
		}
	}
	for _, el := range p.EdgeElems {
		if s := b.reg.constraintsByEdgeType[el.EdgeType]; !el.AnyType && (len(s) == 0 || s[len(s)-1] != id) {
			b.reg.constraintsByEdgeType[el.EdgeType] = append(s, id)
		}
	}
}

func (b *Builder) wireRuleDispatch(id store.RuleId, pattern PatternId) {
	p, ok := b.reg.patterns[pattern]
	if !ok {
		b.fail(fmt.Errorf("%w: pattern %d", ErrUnknownPattern, pattern))
		return
	}
	for _, nv := range p.NodeVars {
		for _, t := range typeExprTypes(nv.Type) {
			if s := b.reg.rulesByType[t]; len(s) == 0 || s[len(s)-1] != id {
				b.reg.rulesByType[t] = append(s, id)
			}
		}
	}
	for _, el := range p.EdgeElems {
		if s := b.reg.rulesByEdgeType[el.EdgeType]; !el.AnyType && (len(s) == 0 || s[len(s)-1] != id) {
			b.reg.rulesByEdgeType[el.EdgeType] = append(s, id)
		}
	}
}

// RegisterConstraintAttr (and RegisterRuleAttr, for rules) wires an extra (type, attr) reverse-dispatch entry
// for a constraint/rule whose condition accesses an attribute directly
// (the ontology compiler calls this once per attribute access it finds
// while desugaring a pattern's condition expression).
func (b *Builder) RegisterConstraintAttr(id store.ConstraintId, t store.TypeId, a store.AttrId) {
	k := attrKey{t, a}
	b.reg.constraintsByAttr[k] = append(b.reg.constraintsByAttr[k], id)
}

func (b *Builder) RegisterRuleAttr(id store.RuleId, t store.TypeId, a store.AttrId) {
	k := attrKey{t, a}
	b.reg.rulesByAttr[k] = append(b.reg.rulesByAttr[k], id)
}

func typeExprTypes(te TypeExpr) []store.TypeId {
	switch te.Kind {
	case TypeExprNamed:
		return []store.TypeId{te.Named}
	case TypeExprOptional:
		if te.Inner != nil {
			return typeExprTypes(*te.Inner)
		}
	case TypeExprUnion:
		var out []store.TypeId
		for _, m := range te.Members {
			out = append(out, typeExprTypes(m)...)
		}
		return out
	}
	return nil
}

// Finish computes derived structures (subtype closures, merged attribute
// lists) and returns the assembled Registry, or the first error recorded
// during construction.
func (b *Builder) Finish() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.computeSubtypes(); err != nil {
		return nil, err
	}
	b.computeMergedAttrs()
	return b.reg, nil
}

// computeSubtypes computes, for every NodeTypeDef T, the set of
// descendant types that satisfy a pattern naming T (§3.4), and rejects
// cyclic inheritance (§3.3).
func (b *Builder) computeSubtypes() error {
	r := b.reg
	// ancestors[T] = direct parents ∪ ancestors[parent] for each parent,
	// computed with cycle detection via a recursion-stack set.
	ancestors := make(map[store.TypeId]map[store.TypeId]struct{})
	var visiting map[store.TypeId]bool
	var resolve func(t store.TypeId) (map[store.TypeId]struct{}, error)
	visiting = make(map[store.TypeId]bool)
	resolve = func(t store.TypeId) (map[store.TypeId]struct{}, error) {
		if a, ok := ancestors[t]; ok {
			return a, nil
		}
		if visiting[t] {
			return nil, fmt.Errorf("%w: type %d", ErrCyclicInheritance, t)
		}
		visiting[t] = true
		def := r.types[t]
		set := make(map[store.TypeId]struct{})
		for _, p := range def.Parents {
			set[p] = struct{}{}
			pa, err := resolve(p)
			if err != nil {
				return nil, err
			}
			for a := range pa {
				set[a] = struct{}{}
			}
		}
		visiting[t] = false
		ancestors[t] = set
		return set, nil
	}
	for t := range r.types {
		if _, err := resolve(t); err != nil {
			return err
		}
	}
	// subtypeSet[T] is the inverse: every type whose ancestor set contains T.
	r.subtypeSet = make(map[store.TypeId]map[store.TypeId]struct{})
	for t := range r.types {
		r.subtypeSet[t] = make(map[store.TypeId]struct{})
	}
	for t, anc := range ancestors {
		for a := range anc {
			if r.subtypeSet[a] == nil {
				r.subtypeSet[a] = make(map[store.TypeId]struct{})
			}
			r.subtypeSet[a][t] = struct{}{}
		}
	}
	return nil
}

func (b *Builder) computeMergedAttrs() {
	r := b.reg
	var resolve func(t store.TypeId) []store.AttrId
	memo := make(map[store.TypeId][]store.AttrId)
	resolve = func(t store.TypeId) []store.AttrId {
		if m, ok := memo[t]; ok {
			return m
		}
		def := r.types[t]
		dedup := make(map[store.AttrId]struct{})
		var out []store.AttrId
		add := func(a store.AttrId) {
			if _, ok := dedup[a]; !ok {
				dedup[a] = struct{}{}
				out = append(out, a)
			}
		}
		for _, a := range def.Attributes {
			add(a)
		}
		for _, p := range def.Parents {
			for _, a := range resolve(p) {
				add(a)
			}
		}
		memo[t] = out
		return out
	}
	for t := range r.types {
		r.mergedAttrs[t] = resolve(t)
	}
}
