package journal

import (
	"time"

	"github.com/mewdb/mew/pkg/mutation"
)

// CompressedJournal is Journal's snappy-backed counterpart, selected by
// config (journal.mode: compressed) when log volume matters more than
// the CPU cost of compressing every record.
type CompressedJournal struct {
	wal *CompressedWAL
}

func OpenCompressed(path string) (*CompressedJournal, error) {
	w, err := OpenCompressedWAL(path)
	if err != nil {
		return nil, err
	}
	return &CompressedJournal{wal: w}, nil
}

func (j *CompressedJournal) BeginRecord(txnID uint64) error {
	_, err := j.wal.Append(Record{Kind: RecBegin, TxnID: txnID, Timestamp: time.Now().UnixMilli()})
	return err
}

func (j *CompressedJournal) AppendPrimitive(txnID uint64, p mutation.Primitive) error {
	_, err := j.wal.Append(Record{Kind: RecPrimitive, TxnID: txnID, Primitive: p, Timestamp: time.Now().UnixMilli()})
	return err
}

func (j *CompressedJournal) CommitRecord(txnID uint64) error {
	_, err := j.wal.Append(Record{Kind: RecCommit, TxnID: txnID, Timestamp: time.Now().UnixMilli()})
	return err
}

// ReadAll returns every well-formed record in the log, for Recover.
func (j *CompressedJournal) ReadAll() ([]Record, error) { return j.wal.ReadAll() }

func (j *CompressedJournal) Close() error      { return j.wal.Close() }
func (j *CompressedJournal) Truncate() error   { return j.wal.Truncate() }
func (j *CompressedJournal) CurrentLSN() uint64 { return j.wal.GetCurrentLSN() }
