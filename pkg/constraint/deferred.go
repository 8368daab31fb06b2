package constraint

import (
	"github.com/mewdb/mew/pkg/pattern"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// Touched is the set of entities a transaction's buffer spawned or
// modified, the commit-time input to required-attribute checking: only
// rows actually written this transaction need re-checking, not the
// whole graph (§4.7 "deferred: evaluated once, after the rule fixpoint
// settles, against the post-fixpoint state").
type Touched struct {
	Nodes []*store.Node
	Edges []*store.Edge
}

// CheckDeferred runs every Deferred ConstraintDef plus the required-attribute
// check over everything in touched, against the post-fixpoint DataSource.
func CheckDeferred(ds pattern.DataSource, reg *registry.Registry, clock pattern.Clock, touched Touched) ([]registry.Violation, error) {
	var out []registry.Violation

	for _, n := range touched.Nodes {
		out = append(out, CheckRequiredNode(reg, n)...)
	}
	for _, e := range touched.Edges {
		out = append(out, CheckRequiredEdge(reg, e)...)
	}

	for _, def := range reg.AllConstraints() {
		if !def.Deferred {
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
