package txn

import "time"

func nowMs() int64 { return time.Now().UnixMilli() }

// evalClock adapts Transaction.Now into pattern.Clock for the Evaluator,
// distinguishing wall_time() from logical_time() (§4.4.3): logical_time
// is the transaction's own id, a monotonically increasing per-transaction
// counter, stable for the whole transaction unlike wall_time().
type evalClock struct{ t *Transaction }

func (c evalClock) WallTimeMs() int64  { return c.t.Now() }
func (c evalClock) LogicalTime() int64 { return int64(c.t.id) }
