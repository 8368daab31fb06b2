package journal

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// WAL is the on-disk append-only log backing a journal.Journal. Format per
// record: [LSN:8][BodyLen:4][Body:N][Checksum:4][Timestamp:8], same
// framing as the teacher's wal.go with Body standing in for its
// OpType+Data pair since a journal Record already carries its own kind.
type WAL struct {
	file       *os.File
	writer     *bufio.Writer
	currentLSN uint64
	path       string
	mu         sync.Mutex
}

// OpenWAL opens or creates the log file at path, recovering the current
// LSN from any existing records.
func OpenWAL(path string) (*WAL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("journal: create wal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("journal: open wal: %w", err)
	}
	w := &WAL{file: f, writer: bufio.NewWriter(f), path: path}
	if err := w.recoverLSN(); err != nil {
		return nil, fmt.Errorf("journal: recover lsn: %w", err)
	}
	return w, nil
}

// Append writes rec, assigning it the next LSN, and fsyncs before
// returning — a record is not considered durable until this call returns
// nil (§4.9 "durable before the transaction's effects are visible").
func (w *WAL) Append(rec Record) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentLSN == ^uint64(0) {
		return 0, fmt.Errorf("journal: LSN space exhausted, rotate the log")
	}
	w.currentLSN++
	rec.LSN = w.currentLSN
	body := encodeRecord(rec)
	rec.Checksum = crc32.ChecksumIEEE(body)

	if err := writeFrame(w.writer, rec.LSN, body, rec.Checksum, rec.Timestamp); err != nil {
		w.currentLSN--
		return 0, err
	}
	if err := w.writer.Flush(); err != nil {
		return 0, fmt.Errorf("journal: flush: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return 0, fmt.Errorf("journal: sync: %w", err)
	}
	return rec.LSN, nil
}

func writeFrame(w *bufio.Writer, lsn uint64, body []byte, checksum uint32, ts int64) error {
	if err := binary.Write(w, binary.LittleEndian, lsn); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(body))); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, checksum); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, ts)
}

func readFrame(r *bufio.Reader) (Record, error) {
	var lsn uint64
	if err := binary.Read(r, binary.LittleEndian, &lsn); err != nil {
		return Record{}, err
	}
	var bodyLen uint32
	if err := binary.Read(r, binary.LittleEndian, &bodyLen); err != nil {
		return Record{}, err
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return Record{}, err
	}
	var checksum uint32
	if err := binary.Read(r, binary.LittleEndian, &checksum); err != nil {
		return Record{}, err
	}
	var ts int64
	if err := binary.Read(r, binary.LittleEndian, &ts); err != nil {
		return Record{}, err
	}
	if crc32.ChecksumIEEE(body) != checksum {
		return Record{}, fmt.Errorf("journal: checksum mismatch at LSN %d, torn write", lsn)
	}
	rec, err := decodeRecord(body)
	if err != nil {
		return Record{}, err
	}
	rec.LSN = lsn
	rec.Checksum = checksum
	rec.Timestamp = ts
	return rec, nil
}

// ReadAll reads every well-formed record from the start of the log,
// stopping at the first corrupt or torn frame rather than failing the
// whole read — §9.6's recovery semantics treat a torn tail as "everything
// before it is durable, everything from it on never finished".
func (w *WAL) ReadAll() ([]Record, error) {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	r := bufio.NewReader(w.file)
	var records []Record
	for {
		rec, err := readFrame(r)
		if err != nil {
			break
		}
		records = append(records, rec)
	}
	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return nil, err
	}
	return records, nil
}

func (w *WAL) recoverLSN() error {
	records, err := w.ReadAll()
	if err != nil {
		return err
	}
	if len(records) > 0 {
		w.currentLSN = records[len(records)-1].LSN
	}
	return nil
}

// Truncate discards every record, used after a snapshot makes the log
// redundant (§4.9's implied compaction point — nothing before a snapshot
// is ever replayed again).
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Close(); err != nil {
		return err
	}
	if err := os.Truncate(w.path, 0); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	w.file = f
	w.writer = bufio.NewWriter(f)
	w.currentLSN = 0
	return nil
}

func (w *WAL) GetCurrentLSN() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentLSN
}

func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.writer.Flush(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	return w.file.Close()
}
