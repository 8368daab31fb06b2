package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ValueType is the tag of a Value, per §3.1's closed scalar set plus the
// EntityRef variant needed for attribute values and edge targets that hold
// a reference to another entity.
type ValueType uint8

const (
	TypeNull ValueType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeTimestamp // ms since epoch, stored in Int
	TypeDuration  // ms, stored in Int
	TypeEntityRef
)

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "Null"
	case TypeBool:
		return "Bool"
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeString:
		return "String"
	case TypeTimestamp:
		return "Timestamp"
	case TypeDuration:
		return "Duration"
	case TypeEntityRef:
		return "EntityRef"
	default:
		return "Unknown"
	}
}

// Value is a tagged scalar, matching the closed set in §3.1. Only the field
// matching Type is meaningful; the zero Value is Null.
type Value struct {
	Type ValueType
	i    int64
	f    float64
	s    string
	ref  EntityId
}

func Null() Value { return Value{Type: TypeNull} }

func Bool(b bool) Value {
	var i int64
	if b {
		i = 1
	}
	return Value{Type: TypeBool, i: i}
}

func Int(v int64) Value         { return Value{Type: TypeInt, i: v} }
func Float(v float64) Value     { return Value{Type: TypeFloat, f: v} }
func String(v string) Value     { return Value{Type: TypeString, s: v} }
func Timestamp(ms int64) Value  { return Value{Type: TypeTimestamp, i: ms} }
func DurationMs(ms int64) Value { return Value{Type: TypeDuration, i: ms} }
func Ref(id EntityId) Value     { return Value{Type: TypeEntityRef, ref: id} }

func (v Value) IsNull() bool { return v.Type == TypeNull }

func (v Value) AsBool() (bool, bool) {
	if v.Type != TypeBool {
		return false, false
	}
	return v.i != 0, true
}

func (v Value) AsInt() (int64, bool) {
	if v.Type != TypeInt && v.Type != TypeTimestamp && v.Type != TypeDuration {
		return 0, false
	}
	return v.i, true
}

func (v Value) AsFloat() (float64, bool) {
	switch v.Type {
	case TypeFloat:
		return v.f, true
	case TypeInt, TypeTimestamp, TypeDuration:
		return float64(v.i), true
	default:
		return 0, false
	}
}

func (v Value) AsString() (string, bool) {
	if v.Type != TypeString {
		return "", false
	}
	return v.s, true
}

func (v Value) AsRef() (EntityId, bool) {
	if v.Type != TypeEntityRef {
		return 0, false
	}
	return v.ref, true
}

// Equal compares two values for identity equality (same type, same
// underlying payload). Null never equals anything, including Null, when
// used inside three-valued comparisons (callers needing SQL-style "null
// IS null" should special-case it; Equal here is the raw equality used by
// uniqueness/index bucketing, where two nulls are never unique together).
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeNull:
		return false
	case TypeBool, TypeInt, TypeTimestamp, TypeDuration:
		return v.i == o.i
	case TypeFloat:
		return v.f == o.f
	case TypeString:
		return v.s == o.s
	case TypeEntityRef:
		return v.ref == o.ref
	default:
		return false
	}
}

// String renders the value for display, logging, and as the index bucket
// key. Ported from the teacher's Value.String() dispatch in
// pkg/storage/types.go, trimmed to the scalar set this kernel needs.
func (v Value) String() string {
	switch v.Type {
	case TypeNull:
		return "null"
	case TypeBool:
		b, _ := v.AsBool()
		return fmt.Sprintf("%t", b)
	case TypeInt, TypeTimestamp, TypeDuration:
		return fmt.Sprintf("%d", v.i)
	case TypeFloat:
		return fmt.Sprintf("%g", v.f)
	case TypeString:
		return v.s
	case TypeEntityRef:
		return v.ref.String()
	default:
		return "<invalid>"
	}
}

// Encode serializes the value for journal records, using the teacher's
// length-prefixed little-endian framing (pkg/storage/types.go).
func (v Value) Encode() []byte {
	switch v.Type {
	case TypeNull:
		return []byte{byte(TypeNull)}
	case TypeBool:
		b, _ := v.AsBool()
		x := byte(0)
		if b {
			x = 1
		}
		return []byte{byte(TypeBool), x}
	case TypeInt, TypeTimestamp, TypeDuration:
		buf := make([]byte, 9)
		buf[0] = byte(v.Type)
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.i))
		return buf
	case TypeFloat:
		buf := make([]byte, 9)
		buf[0] = byte(TypeFloat)
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(v.f))
		return buf
	case TypeString:
		buf := make([]byte, 5+len(v.s))
		buf[0] = byte(TypeString)
		binary.LittleEndian.PutUint32(buf[1:5], uint32(len(v.s)))
		copy(buf[5:], v.s)
		return buf
	case TypeEntityRef:
		buf := make([]byte, 9)
		buf[0] = byte(TypeEntityRef)
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.ref))
		return buf
	default:
		return []byte{byte(TypeNull)}
	}
}

// DecodeValue reads a value previously written by Encode, returning the
// number of bytes consumed.
func DecodeValue(buf []byte) (Value, int, error) {
	if len(buf) < 1 {
		return Value{}, 0, fmt.Errorf("value: empty buffer")
	}
	t := ValueType(buf[0])
	switch t {
	case TypeNull:
		return Null(), 1, nil
	case TypeBool:
		if len(buf) < 2 {
			return Value{}, 0, fmt.Errorf("value: truncated bool")
		}
		return Bool(buf[1] != 0), 2, nil
	case TypeInt, TypeTimestamp, TypeDuration:
		if len(buf) < 9 {
			return Value{}, 0, fmt.Errorf("value: truncated int")
		}
		iv := int64(binary.LittleEndian.Uint64(buf[1:9]))
		switch t {
		case TypeTimestamp:
			return Timestamp(iv), 9, nil
		case TypeDuration:
			return DurationMs(iv), 9, nil
		default:
			return Int(iv), 9, nil
		}
	case TypeFloat:
		if len(buf) < 9 {
			return Value{}, 0, fmt.Errorf("value: truncated float")
		}
		bits := binary.LittleEndian.Uint64(buf[1:9])
		return Float(math.Float64frombits(bits)), 9, nil
	case TypeString:
		if len(buf) < 5 {
			return Value{}, 0, fmt.Errorf("value: truncated string header")
		}
		n := binary.LittleEndian.Uint32(buf[1:5])
		if len(buf) < 5+int(n) {
			return Value{}, 0, fmt.Errorf("value: truncated string body")
		}
		return String(string(buf[5 : 5+n])), 5 + int(n), nil
	case TypeEntityRef:
		if len(buf) < 9 {
			return Value{}, 0, fmt.Errorf("value: truncated ref")
		}
		return Ref(EntityId(binary.LittleEndian.Uint64(buf[1:9]))), 9, nil
	default:
		return Value{}, 0, fmt.Errorf("value: unknown tag %d", t)
	}
}

// Compare orders two values of the same comparable type for range/ordered
// index scans. Returns -1/0/1, or an error if the types are incomparable.
func Compare(a, b Value) (int, error) {
	if a.Type != b.Type {
		return 0, fmt.Errorf("cannot compare %s to %s", a.Type, b.Type)
	}
	switch a.Type {
	case TypeInt, TypeTimestamp, TypeDuration:
		av, _ := a.AsInt()
		bv, _ := b.AsInt()
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case TypeFloat:
		av, _ := a.AsFloat()
		bv, _ := b.AsFloat()
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case TypeString:
		av, _ := a.AsString()
		bv, _ := b.AsString()
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("type %s has no ordering", a.Type)
	}
}
