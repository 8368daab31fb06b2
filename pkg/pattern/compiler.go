package pattern

import (
	"fmt"

	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

var (
	ErrDuplicateVar   = fmt.Errorf("pattern: variable declared more than once")
	ErrUndeclaredVar  = fmt.Errorf("pattern: variable not declared by any node element")
	ErrArityMismatch  = fmt.Errorf("pattern: edge element arity does not match signature")
	ErrUnknownVarInCond = fmt.Errorf("pattern: condition references an unbound variable")
)

// Compile validates p against reg and produces a join-ordered Plan
// (§4.4.1). Grounded on the teacher's `Optimizer.Optimize` sequential
// rule-application idiom (`pkg/query/optimizer.go`): a fixed validation
// pass, then index/cardinality-driven step selection, then condition
// pushdown, run once rather than iteratively re-optimized.
func Compile(p *registry.PatternDef, reg *registry.Registry, src DataSource) (*Plan, error) {
	if err := validate(p, reg); err != nil {
		return nil, err
	}

	order := chooseJoinOrder(p, src)

	plan := &Plan{VarOrder: declaredVarOrder(p)}
	bound := make(map[string]bool)

	for _, item := range order {
		switch v := item.(type) {
		case registry.NodeVarDecl:
			appendNodeScan(plan, v, bound, src)
		case registry.EdgePatternElement:
			appendEdgeStep(plan, v, bound, src)
		}
	}

	conjuncts := splitConjuncts(p.Condition)
	var residual []*registry.Expr
	for _, c := range conjuncts {
		if varsOf(c, map[string]bool{}) == nil || allBound(c, bound) {
			plan.Steps = append(plan.Steps, Filter{Cond: c})
		} else {
			residual = append(residual, c)
		}
	}
	for _, c := range residual {
		plan.Steps = append(plan.Steps, Filter{Cond: c})
	}

	plan.Steps = append(plan.Steps, Project{Vars: plan.VarOrder})
	return plan, nil
}

func declaredVarOrder(p *registry.PatternDef) []string {
	var out []string
	for _, nv := range p.NodeVars {
		out = append(out, nv.Name)
	}
	for _, el := range p.EdgeElems {
		if el.BindVar != "" {
			out = append(out, el.BindVar)
		}
	}
	return out
}

func validate(p *registry.PatternDef, reg *registry.Registry) error {
	declared := make(map[string]bool)
	for _, nv := range p.NodeVars {
		if declared[nv.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateVar, nv.Name)
		}
		declared[nv.Name] = true
		if nv.Type.Kind == registry.TypeExprNamed {
			if _, err := reg.NodeType(nv.Type.Named); err != nil {
				return err
			}
		}
	}
	for _, el := range p.EdgeElems {
		if !el.AnyType {
			def, err := reg.EdgeType(el.EdgeType)
			if err != nil {
				return err
			}
			if len(el.Targets) != def.Arity() {
				return fmt.Errorf("%w: edge %q wants %d targets, got %d",
					ErrArityMismatch, def.Name, def.Arity(), len(el.Targets))
			}
		}
		for _, t := range el.Targets {
			if !t.Anonymous && !declared[t.Var] {
				declared[t.Var] = true // concurrently declared by this edge element
			}
		}
		if el.BindVar != "" {
			declared[el.BindVar] = true
		}
	}
	if p.Condition != nil {
		used := map[string]bool{}
		varsOf(p.Condition, used)
		for v := range used {
			if !declared[v] {
				return fmt.Errorf("%w: %q", ErrUnknownVarInCond, v)
			}
		}
	}
	return nil
}

// planItem is either a registry.NodeVarDecl or a registry.EdgePatternElement.
type planItem interface{}

// chooseJoinOrder applies §4.4.1's heuristic: start from the most
// selective element (smallest estimated cardinality), then prefer
// elements sharing a variable with already-bound ones.
func chooseJoinOrder(p *registry.PatternDef, src DataSource) []planItem {
	remainingNodes := append([]registry.NodeVarDecl(nil), p.NodeVars...)
	remainingEdges := append([]registry.EdgePatternElement(nil), p.EdgeElems...)
	bound := map[string]bool{}
	var order []planItem

	for len(remainingNodes) > 0 || len(remainingEdges) > 0 {
		// Prefer an edge element that joins against already-bound vars.
		if idx := pickJoiningEdge(remainingEdges, bound); idx >= 0 {
			el := remainingEdges[idx]
			order = append(order, el)
			markBound(el, bound)
			remainingEdges = append(remainingEdges[:idx], remainingEdges[idx+1:]...)
			continue
		}
		// Otherwise start from the most selective remaining node var
		// (smallest TypeCount).
		if len(remainingNodes) > 0 {
			idx := pickMostSelectiveNode(remainingNodes, src)
			nv := remainingNodes[idx]
			order = append(order, nv)
			bound[nv.Name] = true
			remainingNodes = append(remainingNodes[:idx], remainingNodes[idx+1:]...)
			continue
		}
		// No remaining node vars but an edge element still pending with
		// nothing bound yet (e.g. all-anonymous edge) — emit it anyway.
		if len(remainingEdges) > 0 {
			el := remainingEdges[0]
			order = append(order, el)
			markBound(el, bound)
			remainingEdges = remainingEdges[1:]
		}
	}
	return order
}

func pickJoiningEdge(edges []registry.EdgePatternElement, bound map[string]bool) int {
	for i, el := range edges {
		for _, t := range el.Targets {
			if !t.Anonymous && bound[t.Var] {
				return i
			}
		}
	}
	return -1
}

func pickMostSelectiveNode(nodes []registry.NodeVarDecl, src DataSource) int {
	best, bestCount := 0, -1
	for i, nv := range nodes {
		c := estimateCardinality(nv.Type, src)
		if bestCount < 0 || c < bestCount {
			best, bestCount = i, c
		}
	}
	return best
}

func estimateCardinality(te registry.TypeExpr, src DataSource) int {
	if te.Kind == registry.TypeExprNamed && src != nil {
		return src.TypeCount(te.Named)
	}
	return 1 << 30 // Any/Union/unestimated: treat as unselective
}

func markBound(el registry.EdgePatternElement, bound map[string]bool) {
	for _, t := range el.Targets {
		if !t.Anonymous {
			bound[t.Var] = true
		}
	}
	if el.BindVar != "" {
		bound[el.BindVar] = true
	}
}

func appendNodeScan(plan *Plan, nv registry.NodeVarDecl, bound map[string]bool, src DataSource) {
	if nv.Type.Kind == registry.TypeExprNamed {
		plan.Steps = append(plan.Steps, TypeScan{Var: nv.Name, Type: nv.Type.Named})
	} else {
		// Any/Union: a full scan filtered by type membership at match time.
		plan.Steps = append(plan.Steps, TypeScan{Var: nv.Name, Type: store.TypeId(0)})
	}
	bound[nv.Name] = true
}

func appendEdgeStep(plan *Plan, el registry.EdgePatternElement, bound map[string]bool, src DataSource) {
	if el.Transitive != registry.TransitiveNone {
		from, to := "", ""
		if len(el.Targets) >= 1 && !el.Targets[0].Anonymous {
			from = el.Targets[0].Var
		}
		if len(el.Targets) >= 2 && !el.Targets[1].Anonymous {
			to = el.Targets[1].Var
		}
		depth := el.MaxDepth
		if depth == 0 {
			depth = DefaultMaxTransitiveDepth
		}
		plan.Steps = append(plan.Steps, TransitiveExpand{
			FromVar: from, ToVar: to, Type: el.EdgeType,
			ZeroOrMore: el.Transitive == registry.TransitiveZeroOrMore,
			MaxDepth:   depth,
		})
		markBound(el, bound)
		return
	}

	for i, t := range el.Targets {
		if !t.Anonymous && bound[t.Var] {
			plan.Steps = append(plan.Steps, EdgeScanByTarget{
				EdgeVar: el.BindVar, Elem: el, Position: i, BoundVar: t.Var,
			})
			markBound(el, bound)
			return
		}
	}
	plan.Steps = append(plan.Steps, EdgeScanByType{EdgeVar: el.BindVar, Type: el.EdgeType, Elem: el})
	markBound(el, bound)
}

// DefaultMaxTransitiveDepth bounds TransitiveExpand when a pattern does
// not specify its own cap (§4.4.2, §5 "per-pattern depth cap... bounds
// traversal cost").
const DefaultMaxTransitiveDepth = 64

func splitConjuncts(e *registry.Expr) []*registry.Expr {
	if e == nil {
		return nil
	}
	if e.Kind == registry.ExprBinaryOp && e.BinOp == registry.OpAnd {
		return append(splitConjuncts(e.Left), splitConjuncts(e.Right)...)
	}
	return []*registry.Expr{e}
}

func allBound(e *registry.Expr, bound map[string]bool) bool {
	used := map[string]bool{}
	varsOf(e, used)
	for v := range used {
		if !bound[v] {
			return false
		}
	}
	return true
}

func varsOf(e *registry.Expr, out map[string]bool) map[string]bool {
	if e == nil {
		return out
	}
	switch e.Kind {
	case registry.ExprVarRef, registry.ExprAttrAccess:
		out[e.Var] = true
	case registry.ExprBinaryOp:
		varsOf(e.Left, out)
		varsOf(e.Right, out)
	case registry.ExprUnaryOp:
		varsOf(e.Left, out)
	case registry.ExprIf:
		varsOf(e.Cond, out)
		varsOf(e.Then, out)
		varsOf(e.Else, out)
	case registry.ExprCase:
		for _, a := range e.Arms {
			varsOf(a.When, out)
			varsOf(a.Then, out)
		}
		varsOf(e.Else, out)
	case registry.ExprCoalesce:
		for _, a := range e.Args {
			varsOf(a, out)
		}
	case registry.ExprCall:
		for _, a := range e.BuiltinArgs {
			varsOf(a, out)
		}
	case registry.ExprAggregate:
		varsOf(e.AggTarget, out)
	}
	return out
}
