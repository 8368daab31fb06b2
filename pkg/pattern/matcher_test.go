package pattern

import (
	"testing"

	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// fakeSource is a minimal DataSource over plain maps, enough to exercise
// the matcher without pulling in pkg/txn or pkg/index.
type fakeSource struct {
	nodes    map[store.EntityId]*store.Node
	edges    map[store.EntityId]*store.Edge
	byTarget map[store.EntityId][]store.EntityId
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		nodes:    map[store.EntityId]*store.Node{},
		edges:    map[store.EntityId]*store.Edge{},
		byTarget: map[store.EntityId][]store.EntityId{},
	}
}

func (f *fakeSource) addNode(id store.EntityId, typ store.TypeId) {
	f.nodes[id] = &store.Node{ID: id, Type: typ, Attributes: map[store.AttrId]store.Value{}}
}

func (f *fakeSource) addEdge(id store.EntityId, typ store.EdgeTypeId, targets ...store.EntityId) {
	f.edges[id] = &store.Edge{ID: id, Type: typ, Targets: targets, Attributes: map[store.AttrId]store.Value{}}
	for _, t := range targets {
		f.byTarget[t] = append(f.byTarget[t], id)
	}
}

func (f *fakeSource) GetNode(id store.EntityId) (*store.Node, bool) { n, ok := f.nodes[id]; return n, ok }
func (f *fakeSource) GetEdge(id store.EntityId) (*store.Edge, bool) { e, ok := f.edges[id]; return e, ok }

func (f *fakeSource) NodesByType(t store.TypeId) []store.EntityId {
	var out []store.EntityId
	for id, n := range f.nodes {
		if n.Type == t {
			out = append(out, id)
		}
	}
	return out
}

func (f *fakeSource) EdgesByType(t store.EdgeTypeId) []store.EntityId {
	var out []store.EntityId
	for id, e := range f.edges {
		if e.Type == t {
			out = append(out, id)
		}
	}
	return out
}

func (f *fakeSource) AttrLookup(attr store.AttrId, v store.Value) []store.EntityId     { return nil }
func (f *fakeSource) AttrRange(attr store.AttrId, lo, hi store.Value) []store.EntityId { return nil }
func (f *fakeSource) EdgesByTarget(target store.EntityId) []store.EntityId {
	return f.byTarget[target]
}

func (f *fakeSource) AllNodeIds() []store.EntityId {
	out := make([]store.EntityId, 0, len(f.nodes))
	for id := range f.nodes {
		out = append(out, id)
	}
	return out
}

func (f *fakeSource) AllEdgeIds() []store.EntityId {
	out := make([]store.EntityId, 0, len(f.edges))
	for id := range f.edges {
		out = append(out, id)
	}
	return out
}

func (f *fakeSource) TypeCount(t store.TypeId) int         { return len(f.NodesByType(t)) }
func (f *fakeSource) EdgeTypeCount(t store.EdgeTypeId) int { return len(f.EdgesByType(t)) }

// TestBFSReachDetectsGenuineCycle is scenario 4 (§8.4): depends_on(A,B),
// depends_on(B,A) forms a 2-cycle, so depends_on+(A,A) must bind true —
// a genuine hop chain returns to A. Before the fix, seeding visited with
// {start: true} made this indistinguishable from "never visited" and the
// self-match was always dropped.
func TestBFSReachDetectsGenuineCycle(t *testing.T) {
	src := newFakeSource()
	a, b := store.NodeId(1), store.NodeId(2)
	src.addNode(a, 1)
	src.addNode(b, 1)
	src.addEdge(store.EdgeId(1), 10, a, b)
	src.addEdge(store.EdgeId(2), 10, b, a)

	reached := bfsReach(a, 10, 5, src, false)
	if !reached[a] {
		t.Errorf("bfsReach(A) over a 2-cycle did not reach back to A: %v", reached)
	}
	if !reached[b] {
		t.Errorf("bfsReach(A) did not reach B: %v", reached)
	}
}

// TestBFSReachAcyclicChainDoesNotSelfMatch is the other half of §8.3's
// boundary claim: a strictly acyclic chain must never report the start
// node reachable from itself, regardless of depth cap.
func TestBFSReachAcyclicChainDoesNotSelfMatch(t *testing.T) {
	src := newFakeSource()
	a, b, c := store.NodeId(1), store.NodeId(2), store.NodeId(3)
	src.addNode(a, 1)
	src.addNode(b, 1)
	src.addNode(c, 1)
	src.addEdge(store.EdgeId(1), 10, a, b)
	src.addEdge(store.EdgeId(2), 10, b, c)

	reached := bfsReach(a, 10, 10, src, false)
	if reached[a] {
		t.Error("bfsReach(A) over an acyclic chain falsely reported A reachable from itself")
	}
	if !reached[b] || !reached[c] {
		t.Errorf("bfsReach(A) should reach B and C: %v", reached)
	}
}

// TestBFSReachDirectedEdgesDoNotHopBackward checks §4.4.2: an ordinary
// (non-symmetric) edge type only flows from its first target position to
// its second, so two edges that both point INTO the same node must not
// make their sources mutually reachable.
func TestBFSReachDirectedEdgesDoNotHopBackward(t *testing.T) {
	src := newFakeSource()
	a, b, c := store.NodeId(1), store.NodeId(2), store.NodeId(3)
	src.addNode(a, 1)
	src.addNode(b, 1)
	src.addNode(c, 1)
	src.addEdge(store.EdgeId(1), 20, a, b) // causes(A, B)
	src.addEdge(store.EdgeId(2), 20, c, b) // causes(C, B)

	reached := bfsReach(a, 20, 5, src, false)
	if reached[c] {
		t.Errorf("directed causes+ wrongly treated causes(A,B)/causes(C,B) as reaching C from A: %v", reached)
	}
	if !reached[b] {
		t.Errorf("causes+(A, _) should reach B: %v", reached)
	}
}

// TestBFSReachSymmetricEdgesHopEitherWay is the flip side: a `symmetric`
// edge type collapses target order, so two symmetric edges sharing a
// target must make their other endpoints mutually reachable.
func TestBFSReachSymmetricEdgesHopEitherWay(t *testing.T) {
	src := newFakeSource()
	a, b, c := store.NodeId(1), store.NodeId(2), store.NodeId(3)
	src.addNode(a, 1)
	src.addNode(b, 1)
	src.addNode(c, 1)
	src.addEdge(store.EdgeId(1), 30, a, b) // related_to(A, B), symmetric
	src.addEdge(store.EdgeId(2), 30, c, b) // related_to(C, B)

	reached := bfsReach(a, 30, 5, src, true)
	if !reached[c] {
		t.Errorf("symmetric related_to+ should reach C via the shared target B: %v", reached)
	}
}

// buildEdgeTypeRegistry returns a Registry with one node type and two
// binary edge types over it: a directed one and a symmetric one.
func buildEdgeTypeRegistry(t *testing.T) (*registry.Registry, store.TypeId, store.EdgeTypeId, store.EdgeTypeId) {
	t.Helper()
	b := registry.NewBuilder()
	nt := b.AddNodeType("Thing", nil, nil, false, false)
	sig := []registry.TypeExpr{registry.Named(nt), registry.Named(nt)}
	directed := b.AddEdgeType("causes", sig, false, false, 0, 0, registry.KillCascade, nil)
	symmetric := b.AddEdgeType("related_to", sig, true, false, 0, 0, registry.KillCascade, nil)
	reg, err := b.Finish()
	if err != nil {
		t.Fatalf("Builder.Finish: %v", err)
	}
	return reg, nt, directed, symmetric
}

// TestJoinEdgeSymmetricRetriesReversedOrder is the §8.2 round-trip
// requirement: a symmetric edge stored as (Q, P) must still join a
// pattern element that already bound its first target variable to P.
func TestJoinEdgeSymmetricRetriesReversedOrder(t *testing.T) {
	reg, nt, _, symmetric := buildEdgeTypeRegistry(t)
	_ = nt
	p, q := store.NodeId(1), store.NodeId(2)
	e := &store.Edge{ID: store.EdgeId(1), Type: symmetric, Targets: []store.EntityId{q, p}, Attributes: map[store.AttrId]store.Value{}}

	el := registry.EdgePatternElement{
		EdgeType: symmetric,
		Targets:  []registry.EdgeTarget{{Var: "x"}, {Var: "y"}},
	}
	b := Binding{"x": p}

	nb, ok := joinEdge(b, el, e, "", reg)
	if !ok {
		t.Fatal("joinEdge did not retry the reversed target order for a symmetric edge type")
	}
	if nb["y"] != q {
		t.Errorf("nb[y] = %v, want %v", nb["y"], q)
	}
}

// TestJoinEdgeDirectedDoesNotRetryReversedOrder ensures the reversed-order
// retry is scoped to symmetric edge types: an ordinary directed edge
// stored "backwards" relative to the pattern must fail the join outright.
func TestJoinEdgeDirectedDoesNotRetryReversedOrder(t *testing.T) {
	reg, _, directed, _ := buildEdgeTypeRegistry(t)
	p, q := store.NodeId(1), store.NodeId(2)
	e := &store.Edge{ID: store.EdgeId(1), Type: directed, Targets: []store.EntityId{q, p}, Attributes: map[store.AttrId]store.Value{}}

	el := registry.EdgePatternElement{
		EdgeType: directed,
		Targets:  []registry.EdgeTarget{{Var: "x"}, {Var: "y"}},
	}
	b := Binding{"x": p}

	if _, ok := joinEdge(b, el, e, "", reg); ok {
		t.Error("joinEdge reversed a directed (non-symmetric) edge's target order")
	}
}

// TestExecuteTransitiveExpandUsesRegistrySymmetry is an Execute-level
// check that TransitiveExpand actually consults the registry's Symmetric
// flag end to end, not just bfsReach in isolation.
func TestExecuteTransitiveExpandUsesRegistrySymmetry(t *testing.T) {
	reg, nt, directed, symmetric := buildEdgeTypeRegistry(t)
	src := newFakeSource()
	a, b, c := store.NodeId(1), store.NodeId(2), store.NodeId(3)
	src.addNode(a, nt)
	src.addNode(b, nt)
	src.addNode(c, nt)
	src.addEdge(store.EdgeId(1), directed, a, b)
	src.addEdge(store.EdgeId(2), directed, c, b)

	plan := &Plan{Steps: []Op{
		TypeScan{Var: "start", Type: nt},
		TransitiveExpand{FromVar: "start", ToVar: "reached", Type: directed, MaxDepth: 5},
		Filter{Cond: registry.Binary(registry.OpEq, registry.VarRef("start"), registry.Literal(store.Ref(a)))},
		Project{Vars: []string{"start", "reached"}},
	}}
	bindings, err := Execute(plan, src, reg)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, bd := range bindings {
		if bd["reached"] == c {
			t.Errorf("directed causes+ reached C from A through compiled plan: %v", bindings)
		}
	}

	plan2 := &Plan{Steps: []Op{
		TypeScan{Var: "start", Type: nt},
		TransitiveExpand{FromVar: "start", ToVar: "reached", Type: symmetric, MaxDepth: 5},
		Filter{Cond: registry.Binary(registry.OpEq, registry.VarRef("start"), registry.Literal(store.Ref(a)))},
		Project{Vars: []string{"start", "reached"}},
	}}
	// Re-wire the same two edges onto the symmetric type for this half
	// of the check.
	src2 := newFakeSource()
	src2.addNode(a, nt)
	src2.addNode(b, nt)
	src2.addNode(c, nt)
	src2.addEdge(store.EdgeId(1), symmetric, a, b)
	src2.addEdge(store.EdgeId(2), symmetric, c, b)
	bindings2, err := Execute(plan2, src2, reg)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	found := false
	for _, bd := range bindings2 {
		if bd["reached"] == c {
			found = true
		}
	}
	if !found {
		t.Errorf("symmetric related_to+ should reach C from A through the shared target B: %v", bindings2)
	}
}
