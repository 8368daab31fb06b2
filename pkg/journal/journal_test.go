package journal

import (
	"path/filepath"
	"testing"

	"github.com/mewdb/mew/pkg/index"
	"github.com/mewdb/mew/pkg/mutation"
	"github.com/mewdb/mew/pkg/store"
)

func TestJournalAppendAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	if err := j.BeginRecord(1); err != nil {
		t.Fatalf("BeginRecord: %v", err)
	}
	if err := j.AppendPrimitive(1, mutation.Primitive{Kind: mutation.PrimSpawnNode, NodeID: store.NodeId(1), NodeType: store.TypeId(1), Attributes: map[store.AttrId]store.Value{}}); err != nil {
		t.Fatalf("AppendPrimitive: %v", err)
	}
	if err := j.CommitRecord(1); err != nil {
		t.Fatalf("CommitRecord: %v", err)
	}

	recs, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("ReadAll = %d records, want 3", len(recs))
	}
	if recs[0].Kind != RecBegin || recs[1].Kind != RecPrimitive || recs[2].Kind != RecCommit {
		t.Errorf("record kinds = %v,%v,%v, want Begin,Primitive,Commit", recs[0].Kind, recs[1].Kind, recs[2].Kind)
	}
	if recs[0].LSN == 0 || recs[1].LSN <= recs[0].LSN || recs[2].LSN <= recs[1].LSN {
		t.Errorf("LSNs not monotonically assigned: %v, %v, %v", recs[0].LSN, recs[1].LSN, recs[2].LSN)
	}
}

func TestJournalCurrentLSNSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	j.BeginRecord(1)
	j.CommitRecord(1)
	want := j.CurrentLSN()
	j.Close()

	j2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j2.Close()
	if j2.CurrentLSN() != want {
		t.Errorf("CurrentLSN after reopen = %d, want %d", j2.CurrentLSN(), want)
	}
}

func TestRecoverDiscardsUncommittedTransaction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Txn 1 commits fully.
	j.BeginRecord(1)
	j.AppendPrimitive(1, mutation.Primitive{Kind: mutation.PrimSpawnNode, NodeID: store.NodeId(1), NodeType: store.TypeId(1), Attributes: map[store.AttrId]store.Value{}})
	j.CommitRecord(1)

	// Txn 2 begins and writes a primitive but never commits (simulated crash).
	j.BeginRecord(2)
	j.AppendPrimitive(2, mutation.Primitive{Kind: mutation.PrimSpawnNode, NodeID: store.NodeId(2), NodeType: store.TypeId(1), Attributes: map[store.AttrId]store.Value{}})
	j.Close()

	s := store.New()
	idx := index.New()
	if err := Recover(j, s, idx); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	if _, err := s.GetNode(store.NodeId(1)); err != nil {
		t.Errorf("committed txn 1's node should exist after recovery: %v", err)
	}
	if _, err := s.GetNode(store.NodeId(2)); err == nil {
		t.Error("uncommitted txn 2's node must be discarded by recovery")
	}
}

func TestRecoverRebuildsIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	j.BeginRecord(1)
	j.AppendPrimitive(1, mutation.Primitive{Kind: mutation.PrimSpawnNode, NodeID: store.NodeId(1), NodeType: store.TypeId(5), Attributes: map[store.AttrId]store.Value{}})
	j.CommitRecord(1)
	j.Close()

	s := store.New()
	idx := index.New()
	if err := Recover(j, s, idx); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	ids := idx.ByType().Lookup(store.TypeId(5))
	if len(ids) != 1 || ids[0] != store.NodeId(1) {
		t.Errorf("ByType(5) after recovery = %v, want [node 1]", ids)
	}
}

func TestRecoverAdvancesCounterPastHighestRecoveredId(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	j.BeginRecord(1)
	j.AppendPrimitive(1, mutation.Primitive{Kind: mutation.PrimSpawnNode, NodeID: store.NodeId(7), NodeType: store.TypeId(1), Attributes: map[store.AttrId]store.Value{}})
	j.CommitRecord(1)
	j.Close()

	s := store.New()
	idx := index.New()
	if err := Recover(j, s, idx); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	next := s.AllocateNodeId()
	if next.Counter() <= store.NodeId(7).Counter() {
		t.Errorf("next allocated node counter = %d, want greater than 7", next.Counter())
	}
}
