package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// Layer0Bundle is a YAML-friendly stand-in for the compiled Layer 0
// ontology graph named in §6.1/§6.2 load_ontology: a real ontology
// compiler would hand the kernel a populated *registry.Registry
// directly; this lets tests and examples author the same shape as a
// fixture file instead, matching the teacher's `pkg/validation`-style
// config-file idiom.
//
// Types are declared bottom-up and referenced by name: a node type's
// Parents and an attribute's TypeRef both name an already-declared
// entry earlier in the same bundle.
type Layer0Bundle struct {
	Attributes []AttrSpec `yaml:"attributes"`
	NodeTypes  []NodeSpec `yaml:"node_types"`
	EdgeTypes  []EdgeSpec `yaml:"edge_types"`
}

type AttrSpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // bool|int|float|string|timestamp|duration, or a node type name, or "any"
	Optional bool   `yaml:"optional"`
	Required bool   `yaml:"required"`
	Unique   bool   `yaml:"unique"`
	Indexed  bool   `yaml:"indexed"`
}

type NodeSpec struct {
	Name       string   `yaml:"name"`
	Parents    []string `yaml:"parents"`
	Attributes []string `yaml:"attributes"`
	Abstract   bool     `yaml:"abstract"`
	Sealed     bool     `yaml:"sealed"`
}

type EdgeSpec struct {
	Name       string   `yaml:"name"`
	Signature  []string `yaml:"signature"` // node type names, in target-position order
	Symmetric  bool     `yaml:"symmetric"`
	Reflexive  bool     `yaml:"reflexive"`
	MinCard    int      `yaml:"min_cardinality"`
	MaxCard    int      `yaml:"max_cardinality"`
	OnKill     string   `yaml:"on_kill"` // cascade|nullify|restrict, default cascade
	Attributes []string `yaml:"attributes"`
}

// LoadLayer0Bundle reads and parses a YAML ontology fixture.
func LoadLayer0Bundle(path string) (Layer0Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layer0Bundle{}, err
	}
	var b Layer0Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Layer0Bundle{}, err
	}
	return b, nil
}

// Build compiles the bundle into a Registry via registry.Builder,
// resolving every name reference against what has already been declared
// earlier in the bundle.
func (b Layer0Bundle) Build() (*registry.Registry, error) {
	builder := registry.NewBuilder()

	attrByName := make(map[string]store.AttrId)
	typeByName := make(map[string]store.TypeId)

	for _, a := range b.Attributes {
		typ, err := resolveScalarOrNamed(a.Type, typeByName)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		if a.Optional {
			typ = registry.Optional(typ)
		}
		attrByName[a.Name] = builder.AddAttribute(a.Name, typ, a.Required, a.Unique, a.Indexed, nil)
	}

	for _, n := range b.NodeTypes {
		parents := make([]store.TypeId, 0, len(n.Parents))
		for _, p := range n.Parents {
			id, ok := typeByName[p]
			if !ok {
				return nil, fmt.Errorf("node type %q: unknown parent %q", n.Name, p)
			}
			parents = append(parents, id)
		}
		attrs := make([]store.AttrId, 0, len(n.Attributes))
		for _, a := range n.Attributes {
			id, ok := attrByName[a]
			if !ok {
				return nil, fmt.Errorf("node type %q: unknown attribute %q", n.Name, a)
			}
			attrs = append(attrs, id)
		}
		id := builder.AddNodeType(n.Name, parents, attrs, n.Abstract, n.Sealed)
		typeByName[n.Name] = id
	}

	for _, e := range b.EdgeTypes {
		sig := make([]registry.TypeExpr, 0, len(e.Signature))
		for _, s := range e.Signature {
			typ, err := resolveScalarOrNamed(s, typeByName)
			if err != nil {
				return nil, fmt.Errorf("edge type %q: %w", e.Name, err)
			}
			sig = append(sig, typ)
		}
		attrs := make([]store.AttrId, 0, len(e.Attributes))
		for _, a := range e.Attributes {
			id, ok := attrByName[a]
			if !ok {
				return nil, fmt.Errorf("edge type %q: unknown attribute %q", e.Name, a)
			}
			attrs = append(attrs, id)
		}
		policy, err := parseKillPolicy(e.OnKill)
		if err != nil {
			return nil, fmt.Errorf("edge type %q: %w", e.Name, err)
		}
		minCard, maxCard := e.MinCard, e.MaxCard
		if maxCard == 0 {
			maxCard = len(sig)
		}
		builder.AddEdgeType(e.Name, sig, e.Symmetric, e.Reflexive, minCard, maxCard, policy, attrs)
	}

	return builder.Finish()
}

func resolveScalarOrNamed(name string, typeByName map[string]store.TypeId) (registry.TypeExpr, error) {
	switch name {
	case "bool":
		return registry.Scalar(store.TypeBool), nil
	case "int":
		return registry.Scalar(store.TypeInt), nil
	case "float":
		return registry.Scalar(store.TypeFloat), nil
	case "string":
		return registry.Scalar(store.TypeString), nil
	case "timestamp":
		return registry.Scalar(store.TypeTimestamp), nil
	case "duration":
		return registry.Scalar(store.TypeDuration), nil
	case "any":
		return registry.Any(), nil
	case "edge":
		return registry.AnyEdgeRef(), nil
	}
	if id, ok := typeByName[name]; ok {
		return registry.Named(id), nil
	}
	return registry.TypeExpr{}, fmt.Errorf("unknown type reference %q", name)
}

func parseKillPolicy(s string) (registry.KillPolicy, error) {
	switch s {
	case "", "cascade":
		return registry.KillCascade, nil
	case "nullify":
		return registry.KillNullify, nil
	case "restrict":
		return registry.KillRestrict, nil
	default:
		return 0, fmt.Errorf("unknown on_kill policy %q", s)
	}
}
