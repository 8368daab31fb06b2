// Package journal is the append-only write-ahead log of §4.9: one record
// per transaction boundary (begin/commit) plus one record per primitive
// mutation inside it, durable before the transaction's effects are
// visible, and replayable on restart to reconstruct Store and Index
// without re-running validation.
//
// Grounded on the teacher's `pkg/wal` package: `wal.go`'s Entry framing
// and fsync-on-append discipline, `compressed_wal.go`'s snappy-compressed
// variant, and `interfaces.go`'s narrow Appender/Reader/Manager split —
// generalized from the teacher's single-operation-per-entry model (one
// node or edge per Entry) to transaction-framed records, since §4.9
// requires grouping a transaction's primitives under a begin/commit pair
// so recovery can discard a transaction that crashed mid-commit.
package journal

import "github.com/mewdb/mew/pkg/mutation"

// RecordKind tags a journal record's place in a transaction's frame.
type RecordKind uint8

const (
	RecBegin RecordKind = iota
	RecPrimitive
	RecCommit
)

// Record is one journal entry. TxnID ties a run of records to the
// transaction that produced them; Primitive is populated only for
// RecPrimitive records.
type Record struct {
	LSN       uint64
	Kind      RecordKind
	TxnID     uint64
	Primitive mutation.Primitive
	Checksum  uint32
	Timestamp int64
}
