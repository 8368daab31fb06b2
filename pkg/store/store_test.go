package store

import "testing"

func TestStoreCreateGetNode(t *testing.T) {
	s := New()
	id := s.AllocateNodeId()
	n := &Node{ID: id, Type: TypeId(1), Attributes: map[AttrId]Value{1: String("alice")}}
	s.PutNode(n)

	got, err := s.GetNode(id)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if got.Type != TypeId(1) {
		t.Errorf("Type = %v, want 1", got.Type)
	}
	v, ok := got.GetAttribute(1)
	if !ok {
		t.Fatal("attribute 1 missing")
	}
	if s, _ := v.AsString(); s != "alice" {
		t.Errorf("attr 1 = %q, want alice", s)
	}
}

func TestStoreCreateGetEdge(t *testing.T) {
	s := New()
	a := s.AllocateNodeId()
	b := s.AllocateNodeId()
	eid := s.AllocateEdgeId()
	e := &Edge{ID: eid, Type: EdgeTypeId(1), Targets: []EntityId{a, b}, Attributes: map[AttrId]Value{}}
	s.PutEdge(e)

	got, err := s.GetEdge(eid)
	if err != nil {
		t.Fatalf("GetEdge: %v", err)
	}
	if !got.HasTarget(a) || !got.HasTarget(b) {
		t.Errorf("edge targets = %v, want to include %v and %v", got.Targets, a, b)
	}
}

func TestStoreGetMissing(t *testing.T) {
	s := New()
	if _, err := s.GetNode(NodeId(99)); err != ErrNodeNotFound {
		t.Errorf("GetNode on missing id = %v, want ErrNodeNotFound", err)
	}
	if _, err := s.GetEdge(EdgeId(99)); err != ErrEdgeNotFound {
		t.Errorf("GetEdge on missing id = %v, want ErrEdgeNotFound", err)
	}
}

func TestStoreDeleteNode(t *testing.T) {
	s := New()
	id := s.AllocateNodeId()
	s.PutNode(&Node{ID: id, Attributes: map[AttrId]Value{}})

	if err := s.DeleteNode(id); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if _, err := s.GetNode(id); err != ErrNodeNotFound {
		t.Errorf("GetNode after delete = %v, want ErrNodeNotFound", err)
	}
	if err := s.DeleteNode(id); err != ErrNodeNotFound {
		t.Errorf("second DeleteNode = %v, want ErrNodeNotFound", err)
	}
}

func TestStoreSetAttributeBumpsVersion(t *testing.T) {
	s := New()
	id := s.AllocateNodeId()
	s.PutNode(&Node{ID: id, Attributes: map[AttrId]Value{}})

	if err := s.SetAttribute(id, 5, Int(42)); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	n, _ := s.GetNode(id)
	if n.Version != 1 {
		t.Errorf("Version = %d, want 1", n.Version)
	}
	v, ok := n.GetAttribute(5)
	if !ok {
		t.Fatal("attribute 5 missing after SetAttribute")
	}
	if iv, _ := v.AsInt(); iv != 42 {
		t.Errorf("attr 5 = %d, want 42", iv)
	}
}

func TestStoreSnapshotReadsCommittedRows(t *testing.T) {
	s := New()
	id := s.AllocateNodeId()
	s.PutNode(&Node{ID: id, Type: TypeId(7), Attributes: map[AttrId]Value{}})

	rv := s.Snapshot()
	n, err := rv.GetNode(id)
	if err != nil {
		t.Fatalf("Snapshot GetNode: %v", err)
	}
	if n.Type != TypeId(7) {
		t.Errorf("Type = %v, want 7", n.Type)
	}
	if len(rv.AllNodes()) != 1 {
		t.Errorf("AllNodes() len = %d, want 1", len(rv.AllNodes()))
	}
}

func TestStoreAdvanceCounters(t *testing.T) {
	s := New()
	s.AdvanceCounters(10, 20)
	if id := s.AllocateNodeId(); id.Counter() != 11 {
		t.Errorf("next node counter = %d, want 11", id.Counter())
	}
	if id := s.AllocateEdgeId(); id.Counter() != 21 {
		t.Errorf("next edge counter = %d, want 21", id.Counter())
	}
}

func TestEntityIdTagging(t *testing.T) {
	n := NodeId(5)
	e := EdgeId(5)
	if !n.IsNode() || n.IsEdge() {
		t.Errorf("NodeId(5) tagging wrong: IsNode=%v IsEdge=%v", n.IsNode(), n.IsEdge())
	}
	if !e.IsEdge() || e.IsNode() {
		t.Errorf("EdgeId(5) tagging wrong: IsNode=%v IsEdge=%v", e.IsNode(), e.IsEdge())
	}
	if n == e {
		t.Error("NodeId(5) and EdgeId(5) collide in the shared EntityId space")
	}
}

func TestValueEncodeDecodeRoundTrip(t *testing.T) {
	vals := []Value{
		Null(), Bool(true), Bool(false), Int(-7), Float(3.5),
		String("hello"), Timestamp(1000), DurationMs(500), Ref(EdgeId(3)),
	}
	for _, v := range vals {
		buf := v.Encode()
		got, n, err := DecodeValue(buf)
		if err != nil {
			t.Fatalf("DecodeValue(%v): %v", v, err)
		}
		if n != len(buf) {
			t.Errorf("DecodeValue(%v) consumed %d bytes, want %d", v, n, len(buf))
		}
		// Equal never reports two Nulls equal, so a Null round-trip is
		// checked by its type tag.
		if got.Type != v.Type || (!v.IsNull() && !got.Equal(v)) {
			t.Errorf("round-trip %v != %v", got, v)
		}
	}
}
