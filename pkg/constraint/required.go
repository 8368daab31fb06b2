package constraint

import (
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// CheckRequiredNode reports a RequiredMissing-shaped Violation for every
// attribute the node's resolved type marks required but which is absent
// or null, deferred to commit per §4.5's SPAWN failure-mode table.
func CheckRequiredNode(reg *registry.Registry, n *store.Node) []registry.Violation {
	var out []registry.Violation
	for _, a := range reg.ResolvedAttributes(n.Type) {
		adef, err := reg.Attribute(a)
		if err != nil || !adef.Required {
			continue
		}
		v, ok := n.Attributes[a]
		if !ok || v.IsNull() {
			out = append(out, registry.Violation{
				Constraint: "required:" + adef.Name,
				Message:    "required attribute " + adef.Name + " is missing",
				Binding:    map[string]store.EntityId{"self": n.ID},
				Hard:       true,
			})
		}
	}
	return out
}

// CheckRequiredEdge is CheckRequiredNode's edge-attribute counterpart.
func CheckRequiredEdge(reg *registry.Registry, e *store.Edge) []registry.Violation {
	var out []registry.Violation
	def, err := reg.EdgeType(e.Type)
	if err != nil {
		return out
	}
	for _, a := range def.Attributes {
		adef, err := reg.Attribute(a)
		if err != nil || !adef.Required {
			continue
		}
		v, ok := e.Attributes[a]
		if !ok || v.IsNull() {
			out = append(out, registry.Violation{
				Constraint: "required:" + adef.Name,
				Message:    "required attribute " + adef.Name + " is missing",
				Binding:    map[string]store.EntityId{"self": e.ID},
				Hard:       true,
			})
		}
	}
	return out
}
