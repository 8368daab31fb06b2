package main

import (
	"testing"

	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

func TestCoerceValueScalars(t *testing.T) {
	cases := []struct {
		name string
		t    registry.TypeExpr
		in   any
		want store.ValueType
	}{
		{"bool", registry.Scalar(store.TypeBool), true, store.TypeBool},
		{"int", registry.Scalar(store.TypeInt), float64(42), store.TypeInt},
		{"float", registry.Scalar(store.TypeFloat), float64(3.5), store.TypeFloat},
		{"string", registry.Scalar(store.TypeString), "Ada", store.TypeString},
		{"null", registry.Scalar(store.TypeString), nil, store.TypeNull},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := coerceValue(c.t, c.in)
			if err != nil {
				t.Fatalf("coerceValue: %v", err)
			}
			if v.Type != c.want {
				t.Fatalf("expected type %v, got %v", c.want, v.Type)
			}
		})
	}
}

func TestCoerceValueRejectsWrongKind(t *testing.T) {
	if _, err := coerceValue(registry.Scalar(store.TypeInt), "not a number"); err == nil {
		t.Fatal("expected an error coercing a string into an int attribute")
	}
}

func TestCoerceValueNamedTypeAcceptsEntityRef(t *testing.T) {
	v, err := coerceValue(registry.Named(store.TypeId(1)), float64(7))
	if err != nil {
		t.Fatalf("coerceValue: %v", err)
	}
	if v.Type != store.TypeEntityRef {
		t.Fatalf("expected an EntityRef, got %v", v.Type)
	}
	ref, _ := v.AsRef()
	if ref != store.EntityId(7) {
		t.Fatalf("expected entity id 7, got %d", ref)
	}
}

func TestEncodeValueNonNilForNonNull(t *testing.T) {
	cases := []store.Value{
		store.Bool(true),
		store.Int(5),
		store.Float(1.25),
		store.String("hello"),
		store.Null(),
	}
	for _, v := range cases {
		if got := encodeValue(v); got == nil && v.Type != store.TypeNull {
			t.Fatalf("encodeValue(%v) unexpectedly nil", v)
		}
	}
}

func TestSplitSessionPath(t *testing.T) {
	id, action, ok := splitSessionPath("/sessions/abc-123/commit")
	if !ok {
		t.Fatal("expected a match")
	}
	if id != "abc-123" || action != "commit" {
		t.Fatalf("expected (abc-123, commit), got (%s, %s)", id, action)
	}

	if _, _, ok := splitSessionPath("/sessions/onlyid"); ok {
		t.Fatal("expected no match without an action segment")
	}
	if _, _, ok := splitSessionPath("/other"); ok {
		t.Fatal("expected no match for an unrelated path")
	}
}
