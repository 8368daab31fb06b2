// Package txn drives one transaction through the commit pipeline of
// §4.8: buffered user mutations, rule fixpoint, deferred constraint
// checking, journaling, and the flush into Store/Index. Transaction
// implements both pattern.DataSource (so Pattern can read the
// buffer-then-snapshot overlay) and mutation.Context (so Mutation's
// primitives write into the buffer instead of Store directly), closing
// the dependency-injection loop those two packages were built around.
//
// Grounded on the teacher's `pkg/storage/transaction_types.go` Transaction
// struct and `BeginTransaction`/`allocateTransactionID`, generalized from
// "allow concurrent transactions" to the single-writer, multi-reader
// scheduling model of §5: Begin blocks until any prior writer has
// committed or rolled back, which is what keeps rule fixpoints
// deterministic without a serializable concurrency controller.
package txn

import (
	"sync"
	"sync/atomic"

	"github.com/mewdb/mew/pkg/index"
	"github.com/mewdb/mew/pkg/mutation"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/rule"
	"github.com/mewdb/mew/pkg/store"
)

// Journal is the narrow contract Manager needs from the write-ahead log,
// kept separate so pkg/txn never imports pkg/journal (pkg/journal will
// depend on pkg/txn's Primitive stream instead, via this interface, the
// same inversion pkg/mutation uses for Context).
type Journal interface {
	BeginRecord(txnID uint64) error
	AppendPrimitive(txnID uint64, p mutation.Primitive) error
	CommitRecord(txnID uint64) error
}

// Manager owns the kernel's shared state a Transaction reads and
// eventually flushes into: Store, Index, the current Registry, and the
// single write-active slot.
type Manager struct {
	store   *store.Store
	idx     *index.Index
	journal Journal

	regPtr atomic.Pointer[registry.Registry]

	writeMu   sync.Mutex
	idMu      sync.Mutex
	nextTxnID uint64
}

func NewManager(s *store.Store, idx *index.Index, reg *registry.Registry, j Journal) *Manager {
	m := &Manager{store: s, idx: idx, journal: j, nextTxnID: 1}
	m.regPtr.Store(reg)
	return m
}

// Registry returns the currently bound Registry. Schema changes call
// SetRegistry to rebind atomically (§9.4); in-flight transactions keep
// the Registry pointer they captured at Begin.
func (m *Manager) Registry() *registry.Registry { return m.regPtr.Load() }

func (m *Manager) SetRegistry(reg *registry.Registry) { m.regPtr.Store(reg) }

// Begin acquires the single write-active slot, blocking until any prior
// writer has finished, and returns a fresh ACTIVE Transaction (§5, §4.8
// "IDLE → BEGIN → ACTIVE").
func (m *Manager) Begin() *Transaction {
	m.writeMu.Lock()

	m.idMu.Lock()
	id := m.nextTxnID
	m.nextTxnID++
	m.idMu.Unlock()

	return &Transaction{
		mgr:   m,
		id:    id,
		state: StateActive,
		reg:   m.Registry(),
		buf:   newBuffer(),
	}
}

// WriterAvailable reports whether the single-writer slot could be
// acquired without blocking, for health checks that need to ask "is the
// writer stuck" without actually holding a transaction open. It never
// blocks: a busy writer (including one legitimately mid-transaction)
// simply reports unavailable.
func (m *Manager) WriterAvailable() bool {
	if !m.writeMu.TryLock() {
		return false
	}
	m.writeMu.Unlock()
	return true
}
