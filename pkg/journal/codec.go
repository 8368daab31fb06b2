package journal

import (
	"encoding/binary"
	"fmt"

	"github.com/mewdb/mew/pkg/mutation"
	"github.com/mewdb/mew/pkg/store"
)

// encodeRecord serializes a Record's body (everything but LSN/Checksum,
// which the WAL frames around it). Primitive fields are only present for
// RecPrimitive; begin/commit records carry just the TxnID.
func encodeRecord(r Record) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(r.Kind))
	buf = appendUint64(buf, r.TxnID)
	if r.Kind == RecPrimitive {
		buf = appendPrimitive(buf, r.Primitive)
	}
	return buf
}

func decodeRecord(buf []byte) (Record, error) {
	if len(buf) < 9 {
		return Record{}, fmt.Errorf("journal: truncated record header")
	}
	r := Record{Kind: RecordKind(buf[0])}
	r.TxnID = binary.LittleEndian.Uint64(buf[1:9])
	rest := buf[9:]
	if r.Kind == RecPrimitive {
		p, _, err := decodePrimitive(rest)
		if err != nil {
			return Record{}, err
		}
		r.Primitive = p
	}
	return r, nil
}

func appendPrimitive(buf []byte, p mutation.Primitive) []byte {
	buf = append(buf, byte(p.Kind))
	buf = appendUint64(buf, uint64(p.NodeID))
	buf = appendUint32(buf, uint32(p.NodeType))
	buf = appendUint64(buf, uint64(p.EdgeID))
	buf = appendUint32(buf, uint32(p.EdgeType))

	buf = appendUint32(buf, uint32(len(p.Targets)))
	for _, t := range p.Targets {
		buf = appendUint64(buf, uint64(t))
	}

	buf = appendUint32(buf, uint32(len(p.Attributes)))
	for attr, v := range p.Attributes {
		buf = appendUint32(buf, uint32(attr))
		enc := v.Encode()
		buf = appendUint32(buf, uint32(len(enc)))
		buf = append(buf, enc...)
	}

	buf = appendUint32(buf, uint32(p.Attr))
	enc := p.Value.Encode()
	buf = appendUint32(buf, uint32(len(enc)))
	buf = append(buf, enc...)
	return buf
}

func decodePrimitive(buf []byte) (mutation.Primitive, int, error) {
	off := 0
	need := func(n int) error {
		if off+n > len(buf) {
			return fmt.Errorf("journal: truncated primitive")
		}
		return nil
	}

	if err := need(1); err != nil {
		return mutation.Primitive{}, 0, err
	}
	p := mutation.Primitive{Kind: mutation.PrimitiveKind(buf[off])}
	off++

	if err := need(8); err != nil {
		return mutation.Primitive{}, 0, err
	}
	p.NodeID = store.EntityId(binary.LittleEndian.Uint64(buf[off:]))
	off += 8

	if err := need(4); err != nil {
		return mutation.Primitive{}, 0, err
	}
	p.NodeType = store.TypeId(binary.LittleEndian.Uint32(buf[off:]))
	off += 4

	if err := need(8); err != nil {
		return mutation.Primitive{}, 0, err
	}
	p.EdgeID = store.EntityId(binary.LittleEndian.Uint64(buf[off:]))
	off += 8

	if err := need(4); err != nil {
		return mutation.Primitive{}, 0, err
	}
	p.EdgeType = store.EdgeTypeId(binary.LittleEndian.Uint32(buf[off:]))
	off += 4

	if err := need(4); err != nil {
		return mutation.Primitive{}, 0, err
	}
	numTargets := int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	if numTargets > 0 {
		p.Targets = make([]store.EntityId, numTargets)
		for i := 0; i < numTargets; i++ {
			if err := need(8); err != nil {
				return mutation.Primitive{}, 0, err
			}
			p.Targets[i] = store.EntityId(binary.LittleEndian.Uint64(buf[off:]))
			off += 8
		}
	}

	if err := need(4); err != nil {
		return mutation.Primitive{}, 0, err
	}
	numAttrs := int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	if numAttrs > 0 {
		p.Attributes = make(map[store.AttrId]store.Value, numAttrs)
		for i := 0; i < numAttrs; i++ {
			if err := need(4); err != nil {
				return mutation.Primitive{}, 0, err
			}
			attr := store.AttrId(binary.LittleEndian.Uint32(buf[off:]))
			off += 4
			if err := need(4); err != nil {
				return mutation.Primitive{}, 0, err
			}
			vlen := int(binary.LittleEndian.Uint32(buf[off:]))
			off += 4
			if err := need(vlen); err != nil {
				return mutation.Primitive{}, 0, err
			}
			v, _, err := store.DecodeValue(buf[off : off+vlen])
			if err != nil {
				return mutation.Primitive{}, 0, err
			}
			off += vlen
			p.Attributes[attr] = v
		}
	}

	if err := need(4); err != nil {
		return mutation.Primitive{}, 0, err
	}
	p.Attr = store.AttrId(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	if err := need(4); err != nil {
		return mutation.Primitive{}, 0, err
	}
	vlen := int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	if err := need(vlen); err != nil {
		return mutation.Primitive{}, 0, err
	}
	v, _, err := store.DecodeValue(buf[off : off+vlen])
	if err != nil {
		return mutation.Primitive{}, 0, err
	}
	off += vlen
	p.Value = v

	return p, off, nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
