package constraint

import (
	"testing"

	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// fakeDataSource is a minimal pattern.DataSource over plain maps, enough
// to drive Evaluate without pkg/txn or pkg/index.
type fakeDataSource struct {
	nodes map[store.EntityId]*store.Node
	edges map[store.EntityId]*store.Edge
}

func newFakeDataSource() *fakeDataSource {
	return &fakeDataSource{nodes: map[store.EntityId]*store.Node{}, edges: map[store.EntityId]*store.Edge{}}
}

func (f *fakeDataSource) GetNode(id store.EntityId) (*store.Node, bool) { n, ok := f.nodes[id]; return n, ok }
func (f *fakeDataSource) GetEdge(id store.EntityId) (*store.Edge, bool) { e, ok := f.edges[id]; return e, ok }

func (f *fakeDataSource) NodesByType(t store.TypeId) []store.EntityId {
	var out []store.EntityId
	for id, n := range f.nodes {
		if n.Type == t {
			out = append(out, id)
		}
	}
	return out
}

func (f *fakeDataSource) EdgesByType(t store.EdgeTypeId) []store.EntityId {
	var out []store.EntityId
	for id, e := range f.edges {
		if e.Type == t {
			out = append(out, id)
		}
	}
	return out
}

func (f *fakeDataSource) AttrLookup(attr store.AttrId, v store.Value) []store.EntityId     { return nil }
func (f *fakeDataSource) AttrRange(attr store.AttrId, lo, hi store.Value) []store.EntityId { return nil }
func (f *fakeDataSource) EdgesByTarget(target store.EntityId) []store.EntityId {
	var out []store.EntityId
	for id, e := range f.edges {
		for _, t := range e.Targets {
			if t == target {
				out = append(out, id)
			}
		}
	}
	return out
}

func (f *fakeDataSource) AllNodeIds() []store.EntityId {
	out := make([]store.EntityId, 0, len(f.nodes))
	for id := range f.nodes {
		out = append(out, id)
	}
	return out
}

func (f *fakeDataSource) AllEdgeIds() []store.EntityId {
	out := make([]store.EntityId, 0, len(f.edges))
	for id := range f.edges {
		out = append(out, id)
	}
	return out
}

func (f *fakeDataSource) TypeCount(t store.TypeId) int         { return len(f.NodesByType(t)) }
func (f *fakeDataSource) EdgeTypeCount(t store.EdgeTypeId) int { return len(f.EdgesByType(t)) }

type fakeClock struct{ t int64 }

func (c fakeClock) WallTimeMs() int64  { return c.t }
func (c fakeClock) LogicalTime() int64 { return c.t }

// TestCheckRequiredNodeHardRejection is §8.4 scenario 2: a node missing a
// required attribute must surface a hard RequiredMissing violation.
func TestCheckRequiredNodeHardRejection(t *testing.T) {
	b := registry.NewBuilder()
	emailAttr := b.AddAttribute("email", registry.Scalar(store.TypeString), true, false, false, nil)
	person := b.AddNodeType("Person", nil, []store.AttrId{emailAttr}, false, false)
	reg, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	n := &store.Node{ID: store.NodeId(1), Type: person, Attributes: map[store.AttrId]store.Value{}}
	vs := CheckRequiredNode(reg, n)
	if len(vs) != 1 {
		t.Fatalf("CheckRequiredNode = %v, want one violation", vs)
	}
	if !vs[0].Hard {
		t.Error("a missing required attribute must be a hard violation")
	}

	n2 := &store.Node{ID: store.NodeId(2), Type: person, Attributes: map[store.AttrId]store.Value{emailAttr: store.String("a@b.com")}}
	if vs := CheckRequiredNode(reg, n2); len(vs) != 0 {
		t.Errorf("CheckRequiredNode on a fully-populated node = %v, want none", vs)
	}
}

func TestCheckRequiredEdge(t *testing.T) {
	b := registry.NewBuilder()
	weightAttr := b.AddAttribute("weight", registry.Scalar(store.TypeInt), true, false, false, nil)
	person := b.AddNodeType("Person", nil, nil, false, false)
	sig := []registry.TypeExpr{registry.Named(person), registry.Named(person)}
	knows := b.AddEdgeType("knows", sig, false, false, 0, 0, registry.KillCascade, []store.AttrId{weightAttr})
	reg, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	e := &store.Edge{ID: store.EdgeId(1), Type: knows, Attributes: map[store.AttrId]store.Value{}}
	if vs := CheckRequiredEdge(reg, e); len(vs) != 1 {
		t.Fatalf("CheckRequiredEdge = %v, want one violation", vs)
	}
}

// TestEvaluateFlagsFalseCondition builds a one-node-var pattern with a
// condition that's false for an underage person, asserting Evaluate
// reports exactly the offending binding.
func TestEvaluateFlagsFalseCondition(t *testing.T) {
	b := registry.NewBuilder()
	ageAttr := b.AddAttribute("age", registry.Scalar(store.TypeInt), true, false, false, nil)
	person := b.AddNodeType("Person", nil, []store.AttrId{ageAttr}, false, false)
	pid := b.AddPattern(&registry.PatternDef{
		NodeVars: []registry.NodeVarDecl{{Name: "p", Type: registry.Named(person)}},
	})
	cond := registry.Binary(registry.OpGte, registry.AttrAccess("p", ageAttr), registry.Literal(store.Int(18)))
	cid := b.AddConstraint("adult_only", pid, cond, true, false, "must be an adult")
	reg, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	def, ok := reg.Constraint(cid)
	if !ok {
		t.Fatal("constraint not found")
	}

	ds := newFakeDataSource()
	ds.nodes[store.NodeId(1)] = &store.Node{ID: store.NodeId(1), Type: person, Attributes: map[store.AttrId]store.Value{ageAttr: store.Int(16)}}
	ds.nodes[store.NodeId(2)] = &store.Node{ID: store.NodeId(2), Type: person, Attributes: map[store.AttrId]store.Value{ageAttr: store.Int(30)}}

	vs, err := Evaluate(ds, reg, def, fakeClock{t: 0})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(vs) != 1 {
		t.Fatalf("Evaluate = %v, want exactly one violation", vs)
	}
	if vs[0].Binding["p"] != store.NodeId(1) {
		t.Errorf("violation binding = %v, want p=1", vs[0].Binding)
	}
}

func TestFirstHardPicksHardOverSoft(t *testing.T) {
	vs := []registry.Violation{{Constraint: "soft", Hard: false}, {Constraint: "hard", Hard: true}}
	h := FirstHard(vs)
	if h == nil || h.Constraint != "hard" {
		t.Errorf("FirstHard = %v, want the hard violation", h)
	}
	if FirstHard([]registry.Violation{{Constraint: "soft", Hard: false}}) != nil {
		t.Error("FirstHard over only-soft violations should return nil")
	}
}

func TestCheckDeferredCombinesRequiredAndPatternConstraints(t *testing.T) {
	b := registry.NewBuilder()
	emailAttr := b.AddAttribute("email", registry.Scalar(store.TypeString), true, false, false, nil)
	person := b.AddNodeType("Person", nil, []store.AttrId{emailAttr}, false, false)
	pid := b.AddPattern(&registry.PatternDef{
		NodeVars: []registry.NodeVarDecl{{Name: "p", Type: registry.Named(person)}},
	})
	b.AddConstraint("always_false", pid, registry.Literal(store.Bool(false)), false, true, "deferred soft check")
	reg, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	n := &store.Node{ID: store.NodeId(1), Type: person, Attributes: map[store.AttrId]store.Value{}}
	ds := newFakeDataSource()
	ds.nodes[n.ID] = n

	vs, err := CheckDeferred(ds, reg, fakeClock{}, Touched{Nodes: []*store.Node{n}})
	if err != nil {
		t.Fatalf("CheckDeferred: %v", err)
	}
	// One RequiredMissing (email) plus one per matching binding of the
	// always-false deferred pattern constraint.
	if len(vs) < 2 {
		t.Fatalf("CheckDeferred = %v, want at least 2 violations (required + deferred pattern)", vs)
	}
}
