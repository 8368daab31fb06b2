package registry

import "github.com/mewdb/mew/pkg/store"

// PatternId names a compiled PatternDef in the Registry.
type PatternId uint32

// TransitiveKind marks whether an edge pattern element requests transitive
// closure (§4.4.2): `+` one-or-more, `*` zero-or-more, or none for a
// single hop.
type TransitiveKind uint8

const (
	TransitiveNone TransitiveKind = iota
	TransitiveOneOrMore
	TransitiveZeroOrMore
)

// NodeVarDecl declares one pattern node variable and the type expression
// it must satisfy (§4.4).
type NodeVarDecl struct {
	Name string
	Type TypeExpr
}

// EdgeTarget is one position of an edge pattern element: either a named
// variable (already or concurrently declared) or the anonymous `_`
// wildcard, which binds existentially and is not visible outside the
// element (§4.4.2).
type EdgeTarget struct {
	Var       string
	Anonymous bool
}

// EdgePatternElement is one edge pattern in a PatternDef: an edge type (or
// wildcard for "any edge type"), its ordered target list, an optional
// binding variable for the edge itself, and an optional transitive
// modifier with depth cap (§4.4, §4.4.2).
type EdgePatternElement struct {
	EdgeType    store.EdgeTypeId
	AnyType     bool
	Targets     []EdgeTarget
	BindVar     string // "" if the edge itself is not bound to a variable
	Transitive  TransitiveKind
	MaxDepth    int // 0 means "use the pattern/engine default cap"
}

// PatternDef is a compiled pattern: node variable declarations, edge
// pattern elements, and a condition expression (§4.4). It is the shared
// language of queries, constraint patterns, rule triggers, and EXISTS/NOT
// EXISTS sub-patterns.
type PatternDef struct {
	ID          PatternId
	Name        string
	NodeVars    []NodeVarDecl
	EdgeElems   []EdgePatternElement
	Condition   *Expr // nil means "no WHERE condition" (§8.3)
}
