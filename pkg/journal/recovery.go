package journal

import (
	"github.com/mewdb/mew/pkg/index"
	"github.com/mewdb/mew/pkg/mutation"
	"github.com/mewdb/mew/pkg/store"
)

// RecordReader is satisfied by both WAL and CompressedWAL, letting
// Recover work against either on-disk format.
type RecordReader interface {
	ReadAll() ([]Record, error)
}

// Recover replays a journal into a fresh Store and Index (§9.6 "recovery
// does not re-check constraints" — committed primitives are trusted and
// simply reapplied). A transaction whose BeginRecord was written but
// whose CommitRecord never landed (the process crashed mid-commit) is
// discarded in full, matching §4.9's per-transaction durability
// boundary. Index is rebuilt once at the end via RebuildFromStore rather
// than incrementally, since recovery already pays a full scan of the log.
func Recover(r RecordReader, s *store.Store, idx *index.Index) error {
	records, err := r.ReadAll()
	if err != nil {
		return err
	}

	pending := make(map[uint64][]Record)
	var maxNodeCounter, maxEdgeCounter uint64

	for _, rec := range records {
		switch rec.Kind {
		case RecBegin:
			pending[rec.TxnID] = nil
		case RecPrimitive:
			pending[rec.TxnID] = append(pending[rec.TxnID], rec)
		case RecCommit:
			for _, p := range pending[rec.TxnID] {
				applyPrimitive(s, p.Primitive, &maxNodeCounter, &maxEdgeCounter)
			}
			delete(pending, rec.TxnID)
		}
	}
	// Anything left in pending began but never committed — discarded.

	s.AdvanceCounters(maxNodeCounter, maxEdgeCounter)
	return idx.RebuildFromStore(s)
}

func applyPrimitive(s *store.Store, p mutation.Primitive, maxNode, maxEdge *uint64) {
	switch p.Kind {
	case mutation.PrimSpawnNode:
		s.PutNode(&store.Node{ID: p.NodeID, Type: p.NodeType, Attributes: p.Attributes})
		trackCounter(maxNode, p.NodeID)
	case mutation.PrimSpawnEdge:
		s.PutEdge(&store.Edge{ID: p.EdgeID, Type: p.EdgeType, Targets: p.Targets, Attributes: p.Attributes})
		trackCounter(maxEdge, p.EdgeID)
	case mutation.PrimKillNode:
		_ = s.DeleteNode(p.NodeID)
	case mutation.PrimKillEdge:
		_ = s.DeleteEdge(p.EdgeID)
	case mutation.PrimSet:
		if p.EdgeID != 0 {
			_ = s.SetAttribute(p.EdgeID, p.Attr, p.Value)
		} else {
			_ = s.SetAttribute(p.NodeID, p.Attr, p.Value)
		}
	}
}

func trackCounter(max *uint64, id store.EntityId) {
	if c := id.Counter(); c > *max {
		*max = c
	}
}
