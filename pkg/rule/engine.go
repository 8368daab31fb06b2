// Package rule runs the declarative pattern→production fixpoint of §4.6:
// after a transaction's user mutations are buffered, find every
// (rule, binding) pair whose pattern matches the transaction-visible
// state, fire productions in (priority desc, declaration order), and
// repeat — since each firing may expose new matches — until no new
// (rule, binding) pair appears or a safety limit trips.
//
// Grounded on the teacher's `pkg/query/optimizer.go` sequential-pass
// idiom (repeated passes until no further change), generalized from a
// one-shot query optimization loop into a real semi-naive fixpoint with
// a cross-round seen-set, since rule firing (unlike query planning) can
// genuinely diverge without one.
package rule

import (
	"fmt"
	"sort"
	"time"

	"github.com/mewdb/mew/pkg/mutation"
	"github.com/mewdb/mew/pkg/pattern"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// Engine drives one transaction's rule fixpoint.
type Engine struct {
	Reg    *registry.Registry
	Limits Limits
}

func NewEngine(reg *registry.Registry, limits Limits) *Engine {
	return &Engine{Reg: reg, Limits: limits}
}

type firing struct {
	rule    *registry.RuleDef
	binding pattern.Binding
}

// Run drives the fixpoint against ctx, seeding the initial round with
// every auto rule plus any manually triggered RuleIds (§4.6 "manual
// rules fire only when explicitly triggered ... then participate in the
// fixpoint like autos"). It returns the number of actions applied.
func (e *Engine) Run(ctx mutation.Context, clock pattern.Clock, triggered []store.RuleId) (int, error) {
	ev := &pattern.Evaluator{Source: ctx, Registry: e.Reg, Clock: clock}
	seen := make(map[string]bool)
	actionsApplied := 0
	start := time.Now()

	candidates := e.candidateRules(triggered)
	for depth := 1; ; depth++ {
		if depth > e.Limits.MaxChainDepth {
			return actionsApplied, ErrMaxChainDepth
		}
		if e.Limits.Budget > 0 && time.Since(start) > e.Limits.Budget {
			return actionsApplied, ErrBudget
		}

		firings, err := e.findFirings(ctx, candidates, seen)
		if err != nil {
			return actionsApplied, err
		}
		if len(firings) == 0 {
			return actionsApplied, nil
		}

		for _, f := range firings {
			n := len(f.rule.Production)
			if e.Limits.MaxActions > 0 && actionsApplied+n > e.Limits.MaxActions {
				return actionsApplied, ErrMaxActions
			}
			if err := applyProduction(ctx, e.Reg, ev, f.rule, f.binding); err != nil {
				return actionsApplied, err
			}
			actionsApplied += n
		}
	}
}

// candidateRules is every auto rule plus the manually triggered set,
// deduplicated; a manual rule only fires once triggered, after which it
// is re-evaluated each round exactly like an auto rule for the rest of
// this transaction's fixpoint.
func (e *Engine) candidateRules(triggered []store.RuleId) []*registry.RuleDef {
	byID := make(map[store.RuleId]*registry.RuleDef)
	for _, def := range e.Reg.AllRules() {
		if !def.Manual {
			byID[def.ID] = def
		}
	}
	for _, id := range triggered {
		if def, ok := e.Reg.Rule(id); ok {
			byID[id] = def
		}
	}
	out := make([]*registry.RuleDef, 0, len(byID))
	for _, def := range byID {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID // declaration order stand-in
	})
	return out
}

// findFirings compiles and executes every candidate rule's pattern
// against the current state, returning bindings not already in seen, in
// firing order. Per §8 "fixpoint order ... priority, then declaration
// order, then binding lexicographic order by pattern variable names".
func (e *Engine) findFirings(ctx mutation.Context, candidates []*registry.RuleDef, seen map[string]bool) ([]firing, error) {
	var out []firing
	for _, def := range candidates {
		pd, err := e.Reg.Pattern(def.Pattern)
		if err != nil {
			return nil, err
		}
		plan, err := pattern.Compile(pd, e.Reg, ctx)
		if err != nil {
			return nil, err
		}
		bindings, err := pattern.Execute(plan, ctx, e.Reg)
		if err != nil {
			return nil, err
		}
		sort.Slice(bindings, func(i, j int) bool {
			return bindingKey(bindings[i]) < bindingKey(bindings[j])
		})
		for _, b := range bindings {
			key := fmt.Sprintf("%d|%s", def.ID, bindingKey(b))
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, firing{rule: def, binding: b})
		}
	}
	return out, nil
}

// bindingKey renders a binding deterministically regardless of the
// pattern's declared variable order, for the cross-round seen-set.
func bindingKey(b pattern.Binding) string {
	names := make([]string, 0, len(b))
	for k := range b {
		names = append(names, k)
	}
	sort.Strings(names)
	return b.Key(names)
}
