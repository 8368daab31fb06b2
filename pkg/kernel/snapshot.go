package kernel

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mewdb/mew/pkg/journal"
	"github.com/mewdb/mew/pkg/store"
)

// encodeSnapshot dumps every committed node and edge as a flat,
// self-delimiting byte stream: a node/edge discriminator byte, the
// entity's numeric fields, and its attribute map via store.Value.Encode
// — the same length-prefixed encoding pkg/journal already uses for
// primitives in its record format (§6.3), reused here rather than
// inventing a second wire format for snapshots.
func encodeSnapshot(s *store.Store) []byte {
	var buf bytes.Buffer
	for _, n := range s.AllNodes() {
		buf.WriteByte(0)
		writeUint64(&buf, uint64(n.ID))
		writeUint32(&buf, uint32(n.Type))
		writeAttrs(&buf, n.Attributes)
	}
	for _, e := range s.AllEdges() {
		buf.WriteByte(1)
		writeUint64(&buf, uint64(e.ID))
		writeUint32(&buf, uint32(e.Type))
		writeUint32(&buf, uint32(len(e.Targets)))
		for _, t := range e.Targets {
			writeUint64(&buf, uint64(t))
		}
		writeAttrs(&buf, e.Attributes)
	}
	return buf.Bytes()
}

func writeAttrs(buf *bytes.Buffer, attrs map[store.AttrId]store.Value) {
	writeUint32(buf, uint32(len(attrs)))
	for attr, v := range attrs {
		writeUint32(buf, uint32(attr))
		enc := v.Encode()
		writeUint32(buf, uint32(len(enc)))
		buf.Write(enc)
	}
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// decodeSnapshot reverses encodeSnapshot, populating a fresh Store. Used
// by Restore; recovery from the journal alone (Open) never calls this.
func decodeSnapshot(data []byte, s *store.Store) error {
	off := 0
	need := func(n int) error {
		if off+n > len(data) {
			return fmt.Errorf("kernel: truncated snapshot")
		}
		return nil
	}
	readUint64 := func() (uint64, error) {
		if err := need(8); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint64(data[off:])
		off += 8
		return v, nil
	}
	readUint32 := func() (uint32, error) {
		if err := need(4); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint32(data[off:])
		off += 4
		return v, nil
	}
	readAttrs := func() (map[store.AttrId]store.Value, error) {
		count, err := readUint32()
		if err != nil {
			return nil, err
		}
		attrs := make(map[store.AttrId]store.Value, count)
		for i := uint32(0); i < count; i++ {
			attrID, err := readUint32()
			if err != nil {
				return nil, err
			}
			vlen, err := readUint32()
			if err != nil {
				return nil, err
			}
			if err := need(int(vlen)); err != nil {
				return nil, err
			}
			v, _, err := store.DecodeValue(data[off : off+int(vlen)])
			if err != nil {
				return nil, err
			}
			off += int(vlen)
			attrs[store.AttrId(attrID)] = v
		}
		return attrs, nil
	}

	for off < len(data) {
		if err := need(1); err != nil {
			return err
		}
		kind := data[off]
		off++
		switch kind {
		case 0:
			id, err := readUint64()
			if err != nil {
				return err
			}
			typ, err := readUint32()
			if err != nil {
				return err
			}
			attrs, err := readAttrs()
			if err != nil {
				return err
			}
			s.PutNode(&store.Node{ID: store.EntityId(id), Type: store.TypeId(typ), Attributes: attrs})
		case 1:
			id, err := readUint64()
			if err != nil {
				return err
			}
			typ, err := readUint32()
			if err != nil {
				return err
			}
			numTargets, err := readUint32()
			if err != nil {
				return err
			}
			targets := make([]store.EntityId, numTargets)
			for i := range targets {
				t, err := readUint64()
				if err != nil {
					return err
				}
				targets[i] = store.EntityId(t)
			}
			attrs, err := readAttrs()
			if err != nil {
				return err
			}
			s.PutEdge(&store.Edge{ID: store.EntityId(id), Type: store.EdgeTypeId(typ), Targets: targets, Attributes: attrs})
		default:
			return fmt.Errorf("kernel: unknown snapshot entity kind %d", kind)
		}
	}
	return nil
}

// Snapshot archives current Store state into dst under name (§6.4). The
// Registry/ontology is not included — it is rebuilt by LoadOntology on
// restore, same division of responsibility recovery already draws
// between the journal (entity state) and an external ontology source.
func (k *Kernel) Snapshot(ctx context.Context, dst journal.SnapshotStore, name string) error {
	data := encodeSnapshot(k.store)
	if err := dst.Save(name, bytes.NewReader(data)); err != nil {
		return classify("kernel.Snapshot", err)
	}
	return nil
}

// Restore loads the archived snapshot named name directly into the
// kernel's existing Store, then rebuilds Index from it. Callers are
// expected to call this only right after Open, before any session has
// begun a transaction against this Kernel — Restore populates the same
// Store the bound Manager already holds rather than swapping it out,
// since Manager keeps its own reference taken at NewManager time.
func (k *Kernel) Restore(ctx context.Context, src journal.SnapshotStore, name string) error {
	rc, err := src.Load(name)
	if err != nil {
		return classify("kernel.Restore", err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return classify("kernel.Restore", err)
	}

	if err := decodeSnapshot(buf.Bytes(), k.store); err != nil {
		return classify("kernel.Restore", &KernelError{Kind: RecoveryError, Cause: err})
	}
	return k.idx.RebuildFromStore(k.store)
}
