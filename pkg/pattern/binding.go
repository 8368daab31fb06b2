package pattern

import "github.com/mewdb/mew/pkg/store"

// Binding is a match: a map from every declared pattern variable (node
// or bound edge) to the entity it resolved to (§4.4.2). Edge variables
// map to EdgeIds, node variables to NodeIds — both are just EntityId.
type Binding map[string]store.EntityId

// Clone returns an independent copy, used whenever a binding is extended
// along a new plan step without mutating the parent binding other
// branches still need.
func (b Binding) Clone() Binding {
	c := make(Binding, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

// Key renders a binding as a stable string, used by the rule engine's
// (rule, binding) seen-set (§4.6) and by Distinct projection.
func (b Binding) Key(order []string) string {
	buf := make([]byte, 0, 16*len(order))
	for _, v := range order {
		id, ok := b[v]
		buf = append(buf, v...)
		buf = append(buf, '=')
		if ok {
			buf = append(buf, id.String()...)
		} else {
			buf = append(buf, "<unbound>"...)
		}
		buf = append(buf, ';')
	}
	return string(buf)
}
