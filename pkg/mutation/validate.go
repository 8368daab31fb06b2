package mutation

import (
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// checkScalarType reports whether v satisfies te (§3.3 "type-completeness"
// for attribute values and edge targets bound to scalar positions).
func checkScalarType(te registry.TypeExpr, v store.Value) bool {
	switch te.Kind {
	case registry.TypeExprOptional:
		if v.IsNull() {
			return true
		}
		if te.Inner == nil {
			return false
		}
		return checkScalarType(*te.Inner, v)
	case registry.TypeExprScalar:
		return v.Type == te.Scalar
	case registry.TypeExprUnion:
		for _, m := range te.Members {
			if checkScalarType(m, v) {
				return true
			}
		}
		return false
	case registry.TypeExprAny:
		return true
	default:
		return false
	}
}

// checkEntityType reports whether a node-position target of type te is
// satisfied by candidate's resolved type (§3.3 "subtype allowed for node
// positions").
func checkEntityType(te registry.TypeExpr, candidate store.TypeId, reg *registry.Registry) bool {
	switch te.Kind {
	case registry.TypeExprNamed:
		return reg.Satisfies(candidate, te.Named)
	case registry.TypeExprOptional:
		if te.Inner == nil {
			return false
		}
		return checkEntityType(*te.Inner, candidate, reg)
	case registry.TypeExprUnion:
		for _, m := range te.Members {
			if checkEntityType(m, candidate, reg) {
				return true
			}
		}
		return false
	case registry.TypeExprAny:
		return true
	default:
		return false
	}
}

// checkEdgeRefType reports whether an edge-ref position of type te is
// satisfied by an edge of type candidate (§3.3 "exact match for
// edge-ref positions unless signature is 'any edge'").
func checkEdgeRefType(te registry.TypeExpr, candidate store.EdgeTypeId) bool {
	switch te.Kind {
	case registry.TypeExprEdgeRef:
		return te.AnyEdge || te.EdgeType == candidate
	case registry.TypeExprOptional:
		if te.Inner == nil {
			return false
		}
		return checkEdgeRefType(*te.Inner, candidate)
	case registry.TypeExprUnion:
		for _, m := range te.Members {
			if checkEdgeRefType(m, candidate) {
				return true
			}
		}
		return false
	case registry.TypeExprAny:
		return true
	default:
		return false
	}
}

// checkTargetType dispatches to the node or edge-ref checker depending on
// what target actually is, resolving its current type via ctx.
func checkTargetType(te registry.TypeExpr, target store.EntityId, ctx Context, reg *registry.Registry) bool {
	if te.Kind == registry.TypeExprAny {
		return true
	}
	if target.IsEdge() {
		e, ok := ctx.GetEdge(target)
		if !ok {
			return false
		}
		return checkEdgeRefType(te, e.Type)
	}
	n, ok := ctx.GetNode(target)
	if !ok {
		return false
	}
	return checkEntityType(te, n.Type, reg)
}

// validateAttrs type-checks a supplied attribute map against T's resolved
// AttributeDefs, returning ErrAttrUnknown / ErrAttrTypeMismatch as
// appropriate. Required-attribute absence is not checked here — it is a
// deferred, commit-time check (§4.5's table lists RequiredMissing "at
// commit"; see pkg/constraint).
func validateAttrs(attrIds []store.AttrId, attrs map[store.AttrId]store.Value, reg *registry.Registry) error {
	allowed := make(map[store.AttrId]bool, len(attrIds))
	for _, a := range attrIds {
		allowed[a] = true
	}
	for a, v := range attrs {
		if !allowed[a] {
			return ErrAttrUnknown
		}
		def, err := reg.Attribute(a)
		if err != nil {
			return ErrAttrUnknown
		}
		if !checkScalarType(def.Type, v) {
			return ErrAttrTypeMismatch
		}
	}
	return nil
}
