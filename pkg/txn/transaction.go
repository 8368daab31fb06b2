package txn

import (
	"sync"

	"github.com/mewdb/mew/pkg/mutation"
	"github.com/mewdb/mew/pkg/registry"
)

// Transaction is one BEGIN...COMMIT/ROLLBACK session. It holds the
// Manager's write-active slot for its entire lifetime (§5): no other
// writer runs concurrently, so the fields below need no lock beyond what
// protects them against the owning goroutine calling into Pattern/Rule
// reentrantly.
type Transaction struct {
	mgr *Manager
	reg *registry.Registry

	id    uint64
	state State

	mu  sync.Mutex
	buf *buffer

	savepoints     []*buffer
	savepointNames []string

	primitives []mutation.Primitive
}

func (t *Transaction) ID() uint64      { return t.id }
func (t *Transaction) State() State    { return t.state }
func (t *Transaction) Registry() *registry.Registry { return t.reg }

// Now returns the transaction's wall-clock reading in ms since epoch,
// used for now()-valued attribute defaults (§4.5) and rule condition
// evaluation. Stdlib time only — it is read once per call, not cached,
// so a long-running transaction's now() reflects the call site.
func (t *Transaction) Now() int64 { return nowMs() }
