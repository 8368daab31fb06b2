package main

import (
	"fmt"

	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// decodeAttrs converts a JSON object's already-unmarshaled form (string
// keys, any values) into a store.Value map, resolving each key against
// reg's attribute names and coercing the JSON scalar into the type the
// attribute declares. A front end further up the stack (DSL compiler,
// editor) would normally hand Run an already-typed Statement; this is
// the thin boundary that lets curl/HTTP clients do the same without
// knowing AttrId numbers.
func decodeAttrs(reg *registry.Registry, raw map[string]any) (map[store.AttrId]store.Value, error) {
	out := make(map[store.AttrId]store.Value, len(raw))
	for name, v := range raw {
		attrID, ok := reg.AttrByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown attribute %q", name)
		}
		def, err := reg.Attribute(attrID)
		if err != nil {
			return nil, err
		}
		val, err := coerceValue(def.Type, v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[attrID] = val
	}
	return out, nil
}

func coerceValue(t registry.TypeExpr, v any) (store.Value, error) {
	if v == nil {
		return store.Null(), nil
	}
	scalar := t.Scalar
	if t.Kind != registry.TypeExprScalar {
		// Any non-scalar kind (Named/EdgeRef entity reference, Optional,
		// Union, Any): only a JSON number, read as an entity id, is
		// accepted over the wire.
		switch n := v.(type) {
		case float64:
			return store.Ref(store.EntityId(uint64(n))), nil
		default:
			return store.Value{}, fmt.Errorf("expected an entity id, got %T", v)
		}
	}
	switch scalar {
	case store.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return store.Value{}, fmt.Errorf("expected bool, got %T", v)
		}
		return store.Bool(b), nil
	case store.TypeInt:
		n, ok := v.(float64)
		if !ok {
			return store.Value{}, fmt.Errorf("expected int, got %T", v)
		}
		return store.Int(int64(n)), nil
	case store.TypeFloat:
		n, ok := v.(float64)
		if !ok {
			return store.Value{}, fmt.Errorf("expected float, got %T", v)
		}
		return store.Float(n), nil
	case store.TypeString:
		s, ok := v.(string)
		if !ok {
			return store.Value{}, fmt.Errorf("expected string, got %T", v)
		}
		return store.String(s), nil
	case store.TypeTimestamp:
		n, ok := v.(float64)
		if !ok {
			return store.Value{}, fmt.Errorf("expected epoch millis, got %T", v)
		}
		return store.Timestamp(int64(n)), nil
	case store.TypeDuration:
		n, ok := v.(float64)
		if !ok {
			return store.Value{}, fmt.Errorf("expected millis, got %T", v)
		}
		return store.DurationMs(int64(n)), nil
	default:
		return store.Value{}, fmt.Errorf("unsupported attribute scalar type %v", scalar)
	}
}

// encodeValue renders a store.Value back to a JSON-marshalable form for
// responses.
func encodeValue(v store.Value) any {
	switch v.Type {
	case store.TypeNull:
		return nil
	case store.TypeBool:
		b, _ := v.AsBool()
		return b
	case store.TypeInt:
		n, _ := v.AsInt()
		return n
	case store.TypeFloat:
		f, _ := v.AsFloat()
		return f
	case store.TypeString:
		s, _ := v.AsString()
		return s
	case store.TypeTimestamp:
		n, _ := v.AsInt()
		return n
	case store.TypeDuration:
		n, _ := v.AsInt()
		return n
	case store.TypeEntityRef:
		ref, _ := v.AsRef()
		return uint64(ref)
	default:
		return nil
	}
}

func encodeAttrs(attrs map[store.AttrId]store.Value) map[string]any {
	out := make(map[string]any, len(attrs))
	for id, v := range attrs {
		out[fmt.Sprintf("%d", id)] = encodeValue(v)
	}
	return out
}
