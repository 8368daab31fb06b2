package txn

import (
	"fmt"

	"github.com/mewdb/mew/pkg/constraint"
	"github.com/mewdb/mew/pkg/rule"
	"github.com/mewdb/mew/pkg/store"
)

// Commit drives ACTIVE through the rest of §4.8's pipeline: rule
// fixpoint, deferred constraint checking, journaling, and the flush into
// Store/Index. Any failure along the way discards the buffer exactly as
// Rollback would and releases the write-active slot. ruleLimits and
// triggered let the caller (pkg/session, eventually) pass per-statement
// manually-triggered rules and the configured safety limits through.
func (t *Transaction) Commit(ruleLimits rule.Limits, triggered []store.RuleId) error {
	if t.state == StateCommitted || t.state == StateRolledBack {
		return ErrAlreadyEnded
	}
	if t.state != StateActive {
		return ErrNotActive
	}

	t.state = StateRuleFixpoint
	eng := rule.NewEngine(t.reg, ruleLimits)
	if _, err := eng.Run(t, evalClock{t}, triggered); err != nil {
		t.abort()
		return err
	}

	t.state = StateDeferredCheck
	violations, err := constraint.CheckDeferred(t, t.reg, evalClock{t}, t.touched())
	if err != nil {
		t.abort()
		return err
	}
	if hard := constraint.FirstHard(violations); hard != nil {
		t.abort()
		return fmt.Errorf("%w: %s: %s", ErrConstraintHard, hard.Constraint, hard.Message)
	}

	t.state = StateJournaling
	if t.mgr.journal != nil {
		if err := t.mgr.journal.BeginRecord(t.id); err != nil {
			t.abort()
			return err
		}
		for _, p := range t.primitives {
			if err := t.mgr.journal.AppendPrimitive(t.id, p); err != nil {
				t.abort()
				return err
			}
		}
		if err := t.mgr.journal.CommitRecord(t.id); err != nil {
			t.abort()
			return err
		}
	}

	t.state = StateFlushing
	t.flush()
	t.state = StateCommitted
	t.mgr.writeMu.Unlock()
	return nil
}

// Rollback discards the buffer without touching Store/Index (§4.8
// "Transaction discards buffer") and releases the write-active slot.
// Idempotent once already ended, matching the teacher's
// `Transaction.Rollback`.
func (t *Transaction) Rollback() error {
	if t.state == StateCommitted || t.state == StateRolledBack {
		return nil
	}
	t.abort()
	return nil
}

func (t *Transaction) abort() {
	t.mu.Lock()
	t.buf = newBuffer()
	t.primitives = nil
	t.mu.Unlock()
	t.state = StateRolledBack
	t.mgr.writeMu.Unlock()
}

// touched collects every node/edge this transaction spawned or wrote an
// attribute on, the input to the commit-time required-attribute check
// and deferred constraint pass (§4.7).
func (t *Transaction) touched() constraint.Touched {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out constraint.Touched
	seenN := make(map[store.EntityId]bool)
	seenE := make(map[store.EntityId]bool)

	for id, n := range t.buf.spawnedNodes {
		out.Nodes = append(out.Nodes, n)
		seenN[id] = true
	}
	for id, e := range t.buf.spawnedEdges {
		out.Edges = append(out.Edges, e)
		seenE[id] = true
	}
	for id := range t.buf.setNode {
		if seenN[id] {
			continue
		}
		if n, ok := t.getNodeLocked(id); ok {
			out.Nodes = append(out.Nodes, n)
			seenN[id] = true
		}
	}
	for id := range t.buf.setEdge {
		if seenE[id] {
			continue
		}
		if e, ok := t.getEdgeLocked(id); ok {
			out.Edges = append(out.Edges, e)
			seenE[id] = true
		}
	}
	return out
}

// flush applies the buffer into Store and Index under the Manager's
// single-writer guarantee (§4.8's final "Transaction flushes buffered
// writes into Store and Index"). Kills first, then edge nullification,
// then attribute overwrites, then new rows — buffer bookkeeping already
// keeps these sets disjoint per id (BufferKillNode/Edge purge any
// pending set/nullify entry for the id it removes).
func (t *Transaction) flush() {
	for id := range t.buf.killedNodes {
		if n, err := t.mgr.store.GetNode(id); err == nil {
			t.mgr.idx.DeindexNode(n)
			_ = t.mgr.store.DeleteNode(id)
		}
	}
	for id := range t.buf.killedEdges {
		if e, err := t.mgr.store.GetEdge(id); err == nil {
			t.mgr.idx.DeindexEdge(e)
			_ = t.mgr.store.DeleteEdge(id)
		}
	}
	for id, nulls := range t.buf.nullify {
		e, err := t.mgr.store.GetEdge(id)
		if err != nil {
			continue
		}
		old := e.Clone()
		for pos := range nulls {
			if pos >= 0 && pos < len(e.Targets) {
				e.Targets[pos] = 0
			}
		}
		e.Version++
		t.mgr.idx.DeindexEdge(old)
		t.mgr.store.PutEdge(e)
		_ = t.mgr.idx.IndexEdge(e)
	}
	for id, overlay := range t.buf.setNode {
		n, err := t.mgr.store.GetNode(id)
		if err != nil {
			continue
		}
		old := n.Clone()
		for a, v := range overlay {
			n.Attributes[a] = v
		}
		n.Version++
		t.mgr.idx.DeindexNode(old)
		t.mgr.store.PutNode(n)
		_ = t.mgr.idx.IndexNode(n)
	}
	for id, overlay := range t.buf.setEdge {
		e, err := t.mgr.store.GetEdge(id)
		if err != nil {
			continue
		}
		old := e.Clone()
		for a, v := range overlay {
			e.Attributes[a] = v
		}
		e.Version++
		t.mgr.idx.DeindexEdge(old)
		t.mgr.store.PutEdge(e)
		_ = t.mgr.idx.IndexEdge(e)
	}
	for _, n := range t.buf.spawnedNodes {
		t.mgr.store.PutNode(n)
		_ = t.mgr.idx.IndexNode(n)
	}
	for _, e := range t.buf.spawnedEdges {
		t.mgr.store.PutEdge(e)
		_ = t.mgr.idx.IndexEdge(e)
	}
}
