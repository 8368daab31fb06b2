package journal

import (
	"time"

	"github.com/mewdb/mew/pkg/mutation"
)

// Journal implements pkg/txn's narrow Journal interface over a WAL. Kept
// as a thin adapter rather than folding directly into WAL so
// CompressedJournal (snappy-backed, see journal_compressed.go) satisfies
// the same interface without touching pkg/txn.
type Journal struct {
	wal *WAL
}

// Open opens (or creates) the journal log file at path.
func Open(path string) (*Journal, error) {
	w, err := OpenWAL(path)
	if err != nil {
		return nil, err
	}
	return &Journal{wal: w}, nil
}

func (j *Journal) BeginRecord(txnID uint64) error {
	_, err := j.wal.Append(Record{Kind: RecBegin, TxnID: txnID, Timestamp: time.Now().UnixMilli()})
	return err
}

func (j *Journal) AppendPrimitive(txnID uint64, p mutation.Primitive) error {
	_, err := j.wal.Append(Record{Kind: RecPrimitive, TxnID: txnID, Primitive: p, Timestamp: time.Now().UnixMilli()})
	return err
}

func (j *Journal) CommitRecord(txnID uint64) error {
	_, err := j.wal.Append(Record{Kind: RecCommit, TxnID: txnID, Timestamp: time.Now().UnixMilli()})
	return err
}

// ReadAll returns every well-formed record in the log, for Recover.
func (j *Journal) ReadAll() ([]Record, error) { return j.wal.ReadAll() }

func (j *Journal) Close() error { return j.wal.Close() }

func (j *Journal) Truncate() error { return j.wal.Truncate() }

func (j *Journal) CurrentLSN() uint64 { return j.wal.GetCurrentLSN() }
