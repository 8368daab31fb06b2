// Package constraint evaluates the declarative ConstraintDefs compiled
// into a Registry (§4.7), reusing pkg/pattern's Compile/Execute/Evaluator
// rather than re-implementing pattern matching.
//
// Grounded on the teacher's `pkg/constraints` package: the
// `Constraint`/`Validator`/`GraphReader` dependency-injection idiom
// (`pkg/constraints/types.go`, `validator.go`) carries over, but the
// teacher's constraints are one Go type per built-in rule
// (`CardinalityConstraint`, `PropertyConstraint`, `UniquenessConstraint`).
// Since §3.2 constraints are declarative (pattern + condition) rather
// than a fixed Go-type catalogue, this package has a single evaluator
// function operating over any ConstraintDef instead of a per-rule type
// hierarchy.
package constraint

import (
	"github.com/mewdb/mew/pkg/pattern"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// Evaluate runs one ConstraintDef's pattern and condition against ds,
// returning one Violation per binding for which the condition is false
// (§4.7: a null condition result counts as a violation too — an unknown
// invariant is not a satisfied one).
func Evaluate(ds pattern.DataSource, reg *registry.Registry, def *registry.ConstraintDef, clock pattern.Clock) ([]registry.Violation, error) {
	pd, err := reg.Pattern(def.Pattern)
	if err != nil {
		return nil, err
	}
	plan, err := pattern.Compile(pd, reg, ds)
	if err != nil {
		return nil, err
	}
	bindings, err := pattern.Execute(plan, ds, reg)
	if err != nil {
		return nil, err
	}

	ev := &pattern.Evaluator{Source: ds, Registry: reg, Clock: clock, ForbidWallTime: true}
	var violations []registry.Violation
	for _, b := range bindings {
		ok, err := evalCondition(ev, def.Condition, b)
		if err != nil {
			return nil, err
		}
		if ok {
			continue
		}
		violations = append(violations, registry.Violation{
			Constraint: def.Name,
			Message:    def.Message,
			Binding:    map[string]store.EntityId(b.Clone()),
			Hard:       def.Hard,
		})
	}
	return violations, nil
}

func evalCondition(ev *pattern.Evaluator, cond *registry.Expr, b pattern.Binding) (bool, error) {
	if cond == nil {
		return true, nil
	}
	v, err := ev.Eval(cond, b)
	if err != nil {
		return false, err
	}
	if v.IsNull() {
		return false, nil
	}
	ok, valid := v.AsBool()
	return valid && ok, nil
}
