package mutation

import (
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// KillNode removes a node and, per each referring edge type's on_kill
// policy, cascades into the edges that reference it (§4.4.2, §4.5). A
// restrict policy with at least one referring edge aborts the whole
// operation before anything is buffered.
func KillNode(ctx Context, reg *registry.Registry, id store.EntityId) error {
	if _, ok := ctx.GetNode(id); !ok {
		return ErrEntityNotFound
	}
	if err := checkRestrict(ctx, reg, id); err != nil {
		return err
	}
	if err := cascade(ctx, reg, id); err != nil {
		return err
	}
	ctx.BufferKillNode(id)
	ctx.Emit(Primitive{Kind: PrimKillNode, NodeID: id})
	return nil
}

// KillEdge removes an edge and cascades into any higher-order edges that
// reference it, the same way KillNode cascades from a node.
func KillEdge(ctx Context, reg *registry.Registry, id store.EntityId) error {
	if _, ok := ctx.GetEdge(id); !ok {
		return ErrEntityNotFound
	}
	if err := checkRestrict(ctx, reg, id); err != nil {
		return err
	}
	if err := cascade(ctx, reg, id); err != nil {
		return err
	}
	ctx.BufferKillEdge(id)
	ctx.Emit(Primitive{Kind: PrimKillEdge, EdgeID: id})
	return nil
}

// checkRestrict aborts before any buffering if a referring edge's type
// carries KillRestrict and the target is still bound (§4.5 ReferentialRestrict).
func checkRestrict(ctx Context, reg *registry.Registry, target store.EntityId) error {
	for _, eid := range ctx.EdgesByTarget(target) {
		e, ok := ctx.GetEdge(eid)
		if !ok {
			continue
		}
		def, err := reg.EdgeType(e.Type)
		if err != nil {
			continue
		}
		if def.OnKill == registry.KillRestrict {
			return ErrReferentialRestrict
		}
	}
	return nil
}

// cascade walks every edge referencing target and applies that edge
// type's on_kill policy: cascade recursively kills the edge (and
// whatever references it in turn), nullify clears the target position
// if it is optional in the edge's signature, and restrict was already
// rejected in checkRestrict.
func cascade(ctx Context, reg *registry.Registry, target store.EntityId) error {
	for _, eid := range ctx.EdgesByTarget(target) {
		e, ok := ctx.GetEdge(eid)
		if !ok {
			continue
		}
		def, err := reg.EdgeType(e.Type)
		if err != nil {
			continue
		}
		switch def.OnKill {
		case registry.KillCascade:
			if err := cascade(ctx, reg, eid); err != nil {
				return err
			}
			ctx.BufferKillEdge(eid)
			ctx.Emit(Primitive{Kind: PrimKillEdge, EdgeID: eid})
		case registry.KillNullify:
			if !signatureAllowsNull(def, target, e) {
				return ErrReferentialRestrict
			}
			for i, t := range e.Targets {
				if t == target {
					ctx.BufferNullifyTarget(eid, i)
				}
			}
		}
	}
	return nil
}

// signatureAllowsNull reports whether target's position in e's
// signature is declared Optional, permitting nullify instead of
// cascading the edge's own removal.
func signatureAllowsNull(def *registry.EdgeTypeDef, target store.EntityId, e *store.Edge) bool {
	for i, t := range e.Targets {
		if t != target {
			continue
		}
		if i >= len(def.Signature) {
			return false
		}
		if def.Signature[i].Kind == registry.TypeExprOptional {
			return true
		}
	}
	return false
}
