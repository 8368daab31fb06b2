package constraint

import (
	"github.com/mewdb/mew/pkg/pattern"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// CheckImmediateNode evaluates every non-deferred constraint reverse-dispatched
// to typeId (by type and, per attr, by attribute) immediately after a SPAWN
// or SET touches a node (§4.7 "immediate: checked right after the
// mutation that could affect it").
func CheckImmediateNode(ds pattern.DataSource, reg *registry.Registry, clock pattern.Clock, typeId store.TypeId, touchedAttrs []store.AttrId) ([]registry.Violation, error) {
	ids := map[store.ConstraintId]bool{}
	for _, id := range reg.ConstraintsForType(typeId) {
		ids[id] = true
	}
	for _, a := range touchedAttrs {
		for _, id := range reg.ConstraintsForAttr(typeId, a) {
			ids[id] = true
		}
	}
	return runImmediate(ds, reg, clock, ids)
}

// CheckImmediateEdge evaluates every non-deferred constraint reverse-dispatched
// to edgeType, run right after a LINK.
func CheckImmediateEdge(ds pattern.DataSource, reg *registry.Registry, clock pattern.Clock, edgeType store.EdgeTypeId) ([]registry.Violation, error) {
	ids := map[store.ConstraintId]bool{}
	for _, id := range reg.ConstraintsForEdgeType(edgeType) {
		ids[id] = true
	}
	return runImmediate(ds, reg, clock, ids)
}

func runImmediate(ds pattern.DataSource, reg *registry.Registry, clock pattern.Clock, ids map[store.ConstraintId]bool) ([]registry.Violation, error) {
	var out []registry.Violation
	for id := range ids {
		def, ok := reg.Constraint(id)
		if !ok || def.Deferred {
			continue
		}
		vs, err := Evaluate(ds, reg, def, clock)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

// FirstHard returns the first hard violation in vs, or nil. Per §4.7 a
// hard violation aborts the transaction on sight; soft ones accumulate
// and are reported without blocking.
func FirstHard(vs []registry.Violation) *registry.Violation {
	for i := range vs {
		if vs[i].Hard {
			return &vs[i]
		}
	}
	return nil
}
