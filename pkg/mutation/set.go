package mutation

import (
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// Set assigns attr on id to v. Re-SET of the value already held is a
// no-op (§4.8, idempotent re-application under rule fixpoint retry) and
// skips both the unique-index check and the journal emission.
func Set(ctx Context, reg *registry.Registry, id store.EntityId, attr store.AttrId, v store.Value) error {
	def, err := reg.Attribute(attr)
	if err != nil {
		return ErrAttrUnknown
	}
	if !checkScalarType(def.Type, v) {
		return ErrAttrTypeMismatch
	}

	current, ok := currentValue(ctx, id, attr)
	if !ok {
		return ErrEntityNotFound
	}
	if current.Equal(v) || (current.IsNull() && v.IsNull()) {
		return nil
	}

	if def.Unique && !v.IsNull() {
		if !ctx.CheckUnique(attr, v, id) {
			return ErrUniqueViolation
		}
	}

	ctx.BufferSet(id, attr, v)
	p := Primitive{Kind: PrimSet, Attr: attr, Value: v}
	if id.IsEdge() {
		p.EdgeID = id
	} else {
		p.NodeID = id
	}
	ctx.Emit(p)
	return nil
}

func currentValue(ctx Context, id store.EntityId, attr store.AttrId) (store.Value, bool) {
	if id.IsEdge() {
		e, ok := ctx.GetEdge(id)
		if !ok {
			return store.Value{}, false
		}
		return e.Attributes[attr], true
	}
	n, ok := ctx.GetNode(id)
	if !ok {
		return store.Value{}, false
	}
	return n.Attributes[attr], true
}
