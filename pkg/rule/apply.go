package rule

import (
	"github.com/mewdb/mew/pkg/mutation"
	"github.com/mewdb/mew/pkg/pattern"
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// applyProduction runs one rule's production list against a matched
// binding, extending it with each action's ResultVar so later actions in
// the same production can reference earlier ones (§4.6 "variables bound
// by earlier SPAWN actions become available to subsequent actions").
func applyProduction(ctx mutation.Context, reg *registry.Registry, ev *pattern.Evaluator, def *registry.RuleDef, binding pattern.Binding) error {
	b := binding.Clone()
	for _, act := range def.Production {
		if err := applyAction(ctx, reg, ev, b, act); err != nil {
			return err
		}
	}
	return nil
}

func applyAction(ctx mutation.Context, reg *registry.Registry, ev *pattern.Evaluator, b pattern.Binding, act registry.Action) error {
	switch act.Kind {
	case registry.ActionSpawn:
		attrs, err := evalAttrInits(ev, b, act.Attrs)
		if err != nil {
			return err
		}
		id, err := mutation.Spawn(ctx, reg, act.SpawnType, attrs)
		if err != nil {
			return err
		}
		if act.ResultVar != "" {
			b[act.ResultVar] = id
		}
		return nil

	case registry.ActionKill:
		id, ok := resolveTarget(b, act.Target)
		if !ok {
			return ErrUnboundTarget
		}
		if id.IsEdge() {
			return mutation.KillEdge(ctx, reg, id)
		}
		return mutation.KillNode(ctx, reg, id)

	case registry.ActionLink:
		targets := make([]store.EntityId, len(act.LinkTargets))
		for i, t := range act.LinkTargets {
			id, ok := resolveTarget(b, t)
			if !ok {
				return ErrUnboundTarget
			}
			targets[i] = id
		}
		attrs, err := evalAttrInits(ev, b, act.Attrs)
		if err != nil {
			return err
		}
		id, err := mutation.Link(ctx, reg, act.LinkType, targets, attrs)
		if err != nil {
			return err
		}
		if act.ResultVar != "" {
			b[act.ResultVar] = id
		}
		return nil

	case registry.ActionUnlink:
		id, ok := resolveTarget(b, act.Target)
		if !ok {
			return ErrUnboundTarget
		}
		return mutation.Unlink(ctx, reg, id)

	case registry.ActionSet:
		id, ok := resolveTarget(b, act.Target)
		if !ok {
			return ErrUnboundTarget
		}
		v, err := ev.Eval(act.SetValue, b)
		if err != nil {
			return err
		}
		return mutation.Set(ctx, reg, id, act.SetAttr, v)
	}
	return nil
}

func resolveTarget(b pattern.Binding, t registry.ActionTarget) (store.EntityId, bool) {
	id, ok := b[t.Var]
	return id, ok
}

// evalAttrInits evaluates each initializer's Expr against b; earlier
// initializers are not visible to later ones within the same action
// (§4.6 "inline initializers cannot forward-reference each other").
func evalAttrInits(ev *pattern.Evaluator, b pattern.Binding, inits []registry.AttrInit) (map[store.AttrId]store.Value, error) {
	out := make(map[store.AttrId]store.Value, len(inits))
	for _, a := range inits {
		v, err := ev.Eval(a.Value, b)
		if err != nil {
			return nil, err
		}
		out[a.Attr] = v
	}
	return out, nil
}
