package mutation

import (
	"github.com/mewdb/mew/pkg/pattern"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// Link validates arity and per-position signature, canonicalizes a
// symmetric edge's target order (§4.4.2, §9.6: "route all operations to
// the canonical representative"), rejects an unintended self-loop, and
// buffers the new edge (§4.5 LINK).
func Link(ctx Context, reg *registry.Registry, edgeType store.EdgeTypeId, targets []store.EntityId, attrs map[store.AttrId]store.Value) (store.EntityId, error) {
	def, err := reg.EdgeType(edgeType)
	if err != nil {
		return 0, ErrTypeUnknown
	}
	if len(targets) != def.Arity() {
		return 0, ErrSignatureMismatch
	}
	for i, t := range targets {
		if !checkTargetType(def.Signature[i], t, ctx, reg) {
			return 0, ErrSignatureMismatch
		}
	}
	if !def.ReflexiveAllowed && allSameTarget(targets) && len(targets) > 1 {
		return 0, ErrSelfLoopForbidden
	}

	canonical := targets
	if def.Symmetric {
		canonical = canonicalize(targets)
		if dup := findDuplicateSymmetric(ctx, edgeType, canonical); dup != 0 {
			return 0, ErrDuplicateSymmetric
		}
	}

	if err := validateAttrs(def.Attributes, attrs, reg); err != nil {
		return 0, err
	}
	merged := make(map[store.AttrId]store.Value, len(attrs))
	for k, v := range attrs {
		merged[k] = v
	}
	ev := &pattern.Evaluator{Source: ctx, Registry: reg, Clock: clockAdapter{ctx}}
	for _, a := range def.Attributes {
		adef, err := reg.Attribute(a)
		if err != nil {
			continue
		}
		if _, ok := merged[a]; !ok && adef.Default != nil {
			v, err := ev.Eval(adef.Default, pattern.Binding{})
			if err != nil {
				return 0, err
			}
			merged[a] = v
		}
	}

	id := ctx.AllocateEdgeId()
	for a, v := range merged {
		if adef, err := reg.Attribute(a); err == nil && adef.Unique && !v.IsNull() {
			if !ctx.CheckUnique(a, v, id) {
				return 0, ErrUniqueViolation
			}
		}
	}

	e := &store.Edge{ID: id, Type: edgeType, Targets: canonical, Attributes: merged, Version: 1}
	ctx.BufferSpawnEdge(e)
	ctx.Emit(Primitive{Kind: PrimSpawnEdge, EdgeID: id, EdgeType: edgeType, Targets: canonical, Attributes: merged})
	return id, nil
}

func allSameTarget(targets []store.EntityId) bool {
	for _, t := range targets[1:] {
		if t != targets[0] {
			return false
		}
	}
	return true
}

// canonicalize orders a symmetric edge's targets by ID so "at most one
// representative exists" (§4.4.2).
func canonicalize(targets []store.EntityId) []store.EntityId {
	out := append([]store.EntityId(nil), targets...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func findDuplicateSymmetric(ctx Context, edgeType store.EdgeTypeId, canonical []store.EntityId) store.EntityId {
	if len(canonical) == 0 {
		return 0
	}
	for _, eid := range ctx.EdgesByTarget(canonical[0]) {
		e, ok := ctx.GetEdge(eid)
		if !ok || e.Type != edgeType || len(e.Targets) != len(canonical) {
			continue
		}
		match := true
		for i, t := range e.Targets {
			if t != canonical[i] {
				match = false
				break
			}
		}
		if match {
			return eid
		}
	}
	return 0
}
