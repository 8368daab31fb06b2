package mutation

import (
	"github.com/mewdb/mew/pkg/pattern"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// clockAdapter lets Mutation's default-expression evaluation use a
// Context's Now() as the Evaluator's Clock, without Context itself
// needing to satisfy pattern.Clock.
type clockAdapter struct{ ctx Context }

func (c clockAdapter) WallTimeMs() int64  { return c.ctx.Now() }
func (c clockAdapter) LogicalTime() int64 { return c.ctx.Now() }

// Spawn allocates a new NodeId, applies AttributeDef defaults (including
// dynamic `now()` defaults, §4.5), type-checks supplied attributes, and
// buffers the row. Required-attribute enforcement is deferred to commit
// (pkg/constraint).
func Spawn(ctx Context, reg *registry.Registry, typeId store.TypeId, attrs map[store.AttrId]store.Value) (store.EntityId, error) {
	def, err := reg.NodeType(typeId)
	if err != nil {
		return 0, ErrTypeUnknown
	}
	if def.Abstract {
		return 0, ErrTypeAbstract
	}

	attrIds := reg.ResolvedAttributes(typeId)
	merged := make(map[store.AttrId]store.Value, len(attrIds))
	ev := &pattern.Evaluator{Source: ctx, Registry: reg, Clock: clockAdapter{ctx}}
	for _, a := range attrIds {
		adef, err := reg.Attribute(a)
		if err != nil {
			continue
		}
		if v, ok := attrs[a]; ok {
			merged[a] = v
			continue
		}
		if adef.Default != nil {
			v, err := ev.Eval(adef.Default, pattern.Binding{})
			if err != nil {
				return 0, err
			}
			merged[a] = v
		}
	}
	if err := validateAttrs(attrIds, attrs, reg); err != nil {
		return 0, err
	}

	id := ctx.AllocateNodeId()
	for a, v := range merged {
		if adef, err := reg.Attribute(a); err == nil && adef.Unique && !v.IsNull() {
			if !ctx.CheckUnique(a, v, id) {
				return 0, ErrUniqueViolation
			}
		}
	}

	n := &store.Node{ID: id, Type: typeId, Attributes: merged, Version: 1}
	ctx.BufferSpawnNode(n)
	ctx.Emit(Primitive{Kind: PrimSpawnNode, NodeID: id, NodeType: typeId, Attributes: merged})
	return id, nil
}
