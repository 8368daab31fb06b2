package pattern

import (
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// Execute runs a compiled Plan against src, threading a growing set of
// Bindings through each step in order (§4.4.1, §4.4.2). Grounded on the
// teacher's `pkg/query/executor.go` step-execution loop, generalized from
// its fixed MATCH/WHERE/RETURN clause sequence to this kernel's closed
// Op set and to evaluating EXISTS/NOT EXISTS sub-patterns recursively via
// Evaluator.
func Execute(plan *Plan, src DataSource, reg *registry.Registry) ([]Binding, error) {
	bindings := []Binding{{}}
	ev := &Evaluator{Source: src, Registry: reg}

	for _, step := range plan.Steps {
		var next []Binding
		switch s := step.(type) {
		case TypeScan:
			next = execTypeScan(s, bindings, src, reg)
		case IndexedAttrScan:
			next = execIndexedAttrScan(s, bindings, src)
		case EdgeScanByType:
			next = execEdgeScanByType(s, bindings, src, reg)
		case EdgeScanByTarget:
			next = execEdgeScanByTarget(s, bindings, src, reg)
		case TransitiveExpand:
			next = execTransitiveExpand(s, bindings, src, reg)
		case Filter:
			next = execFilter(s, bindings, ev)
		case Project:
			next = execProject(s, bindings)
		}
		bindings = next
		if len(bindings) == 0 {
			break
		}
	}
	return bindings, nil
}

func execTypeScan(s TypeScan, in []Binding, src DataSource, reg *registry.Registry) []Binding {
	var ids []store.EntityId
	if s.Type == 0 {
		ids = src.AllNodeIds()
	} else {
		ids = allOfTypeOrSubtype(s.Type, src, reg)
	}
	var out []Binding
	for _, b := range in {
		for _, id := range ids {
			nb := b.Clone()
			nb[s.Var] = id
			out = append(out, nb)
		}
	}
	return out
}

func allOfTypeOrSubtype(t store.TypeId, src DataSource, reg *registry.Registry) []store.EntityId {
	direct := src.NodesByType(t)
	if reg == nil {
		return direct
	}
	seen := make(map[store.EntityId]bool, len(direct))
	out := direct[:0:0]
	add := func(ids []store.EntityId) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	add(direct)
	// Subtypes (§3.4): add the bucket of every other node type that
	// satisfies t.
	for _, sub := range reg.AllNodeTypeIds() {
		if sub != t && reg.Satisfies(sub, t) {
			add(src.NodesByType(sub))
		}
	}
	return out
}

func execIndexedAttrScan(s IndexedAttrScan, in []Binding, src DataSource) []Binding {
	var ids []store.EntityId
	if s.Range {
		ids = src.AttrRange(s.Attr, s.Low, s.High)
	} else {
		ids = src.AttrLookup(s.Attr, s.Value)
	}
	var out []Binding
	for _, b := range in {
		for _, id := range ids {
			nb := b.Clone()
			nb[s.Var] = id
			out = append(out, nb)
		}
	}
	return out
}

func execEdgeScanByType(s EdgeScanByType, in []Binding, src DataSource, reg *registry.Registry) []Binding {
	var out []Binding
	for _, b := range in {
		for _, eid := range src.EdgesByType(s.Type) {
			e, ok := src.GetEdge(eid)
			if !ok {
				continue
			}
			if nb, ok := joinEdge(b, s.Elem, e, s.EdgeVar, reg); ok {
				out = append(out, nb)
			}
		}
	}
	return out
}

func execEdgeScanByTarget(s EdgeScanByTarget, in []Binding, src DataSource, reg *registry.Registry) []Binding {
	var out []Binding
	for _, b := range in {
		target, ok := b[s.BoundVar]
		if !ok {
			continue
		}
		for _, eid := range src.EdgesByTarget(target) {
			e, ok := src.GetEdge(eid)
			if !ok {
				continue
			}
			if !s.Elem.AnyType && e.Type != s.Elem.EdgeType {
				continue
			}
			if nb, ok := joinEdge(b, s.Elem, e, s.EdgeVar, reg); ok {
				out = append(out, nb)
			}
		}
	}
	return out
}

// joinEdge checks e's targets against el's target variables, unifying
// with an existing binding b. Edge types declared `symmetric` (§4.4.2)
// additionally try the reversed target order when storage order doesn't
// unify, so a query's variable/position assignment doesn't have to match
// however the edge happened to be canonicalized at LINK time.
func joinEdge(b Binding, el registry.EdgePatternElement, e *store.Edge, edgeVar string, reg *registry.Registry) (Binding, bool) {
	if len(e.Targets) != len(el.Targets) {
		return nil, false
	}
	if nb, ok := tryJoin(b, el, e.Targets, edgeVar, e.ID); ok {
		return nb, true
	}
	if reg != nil && len(e.Targets) == 2 {
		if def, err := reg.EdgeType(e.Type); err == nil && def.Symmetric {
			reversed := []store.EntityId{e.Targets[1], e.Targets[0]}
			if nb, ok := tryJoin(b, el, reversed, edgeVar, e.ID); ok {
				return nb, true
			}
		}
	}
	return nil, false
}

func tryJoin(b Binding, el registry.EdgePatternElement, targets []store.EntityId, edgeVar string, edgeID store.EntityId) (Binding, bool) {
	nb := b.Clone()
	for i, t := range el.Targets {
		if t.Anonymous {
			continue
		}
		if existing, ok := nb[t.Var]; ok {
			if existing != targets[i] {
				return nil, false
			}
		} else {
			nb[t.Var] = targets[i]
		}
	}
	if edgeVar != "" {
		nb[edgeVar] = edgeID
	}
	return nb, true
}

func execTransitiveExpand(s TransitiveExpand, in []Binding, src DataSource, reg *registry.Registry) []Binding {
	var out []Binding
	symmetric := false
	if reg != nil {
		if def, err := reg.EdgeType(s.Type); err == nil {
			symmetric = def.Symmetric
		}
	}
	for _, b := range in {
		from, ok := b[s.FromVar]
		if !ok {
			continue
		}
		reached := bfsReach(from, s.Type, s.MaxDepth, src, symmetric)
		if s.ZeroOrMore {
			reached[from] = true
		}
		// one-or-more: reached only contains `from` here if a genuine
		// cycle hopped back onto it, which is exactly what we want.
		for id := range reached {
			nb := b.Clone()
			if s.ToVar != "" {
				nb[s.ToVar] = id
			}
			out = append(out, nb)
		}
	}
	return out
}

// bfsReach follows edges of edgeType up to maxDepth hops from start.
// Ordinary edges only hop from a target's position to the position that
// immediately follows it (§4.4.2's directed order); edge types declared
// `symmetric` may hop between any two of an edge's targets. A node is
// only reported reachable once a real hop lands on it, so a cycle that
// loops back to start is distinguished from start simply never having
// been visited (§8.3, §8.4 item 4) — start is seeded as the BFS frontier
// but is not itself marked reached unless some edge actually returns to
// it. queued guards re-expansion of a node already on the frontier once,
// independently of whether it has been reported reached yet.
func bfsReach(start store.EntityId, edgeType store.EdgeTypeId, maxDepth int, src DataSource, symmetric bool) map[store.EntityId]bool {
	reached := map[store.EntityId]bool{}
	queued := map[store.EntityId]bool{start: true}
	frontier := []store.EntityId{start}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []store.EntityId
		for _, cur := range frontier {
			for _, eid := range src.EdgesByTarget(cur) {
				e, ok := src.GetEdge(eid)
				if !ok || e.Type != edgeType {
					continue
				}
				for i, t := range e.Targets {
					if t != cur {
						continue
					}
					for _, other := range hopTargets(e.Targets, i, symmetric) {
						reached[other] = true
						if !queued[other] {
							queued[other] = true
							next = append(next, other)
						}
					}
				}
			}
		}
		frontier = next
	}
	return reached
}

// hopTargets lists the targets reachable in one step from position from
// within an edge's target list. Symmetric edge types may hop to any
// other position; ordinary edges only flow from a position to the one
// immediately after it, so a directed binary edge like causes(x,y) only
// ever hops x -> y, never y -> x.
func hopTargets(targets []store.EntityId, from int, symmetric bool) []store.EntityId {
	if symmetric {
		out := make([]store.EntityId, 0, len(targets)-1)
		for j, other := range targets {
			if j != from {
				out = append(out, other)
			}
		}
		return out
	}
	if from+1 < len(targets) {
		return []store.EntityId{targets[from+1]}
	}
	return nil
}

func execFilter(s Filter, in []Binding, ev *Evaluator) []Binding {
	var out []Binding
	for _, b := range in {
		v, err := ev.Eval(s.Cond, b)
		if err != nil {
			continue
		}
		if truth, ok := v.AsBool(); ok && truth {
			out = append(out, b)
		}
	}
	return out
}

func execProject(s Project, in []Binding) []Binding {
	if !s.Distinct {
		var out []Binding
		for _, b := range in {
			out = append(out, projectVars(b, s.Vars))
		}
		return out
	}
	seen := map[string]bool{}
	var out []Binding
	for _, b := range in {
		pb := projectVars(b, s.Vars)
		k := pb.Key(s.Vars)
		if !seen[k] {
			seen[k] = true
			out = append(out, pb)
		}
	}
	return out
}

func projectVars(b Binding, vars []string) Binding {
	pb := make(Binding, len(vars))
	for _, v := range vars {
		if id, ok := b[v]; ok {
			pb[v] = id
		}
	}
	return pb
}
