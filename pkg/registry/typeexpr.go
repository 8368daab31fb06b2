// Package registry holds the compiled, fast-lookup form of an ontology:
// type definitions, edge signatures, attribute definitions, constraints,
// and rules (§4.3, §3.2's Layer 0 schema entities). It is built by an
// external ontology compiler — never by end-user mutation — and is
// read-only during ordinary transactions; schema changes take the
// separate schema-lock path named in §5.
package registry

import "github.com/mewdb/mew/pkg/store"

// TypeExprKind is the closed tag of a TypeExpr (§3.2, §9.2: "a closed
// set, implement as variants, not an open polymorphic interface").
type TypeExprKind uint8

const (
	TypeExprNamed TypeExprKind = iota
	TypeExprOptional
	TypeExprUnion
	TypeExprEdgeRef
	TypeExprScalar
	TypeExprAny
)

// TypeExpr is a type expression as it appears in an AttributeDef's scalar
// type, an edge signature position, or a pattern's node-variable
// declaration. Only the fields matching Kind are meaningful.
type TypeExpr struct {
	Kind TypeExprKind

	// TypeExprNamed: names a NodeTypeDef (matches it or any subtype).
	Named store.TypeId

	// TypeExprOptional: wraps Inner, allowing the position/attribute to be
	// absent/null.
	Inner *TypeExpr

	// TypeExprUnion: matches if any member matches.
	Members []TypeExpr

	// TypeExprEdgeRef: EdgeType == 0 with AnyEdge true means `edge<any>`;
	// otherwise names a specific EdgeTypeDef (`edge<E>`).
	EdgeType store.EdgeTypeId
	AnyEdge  bool

	// TypeExprScalar: one of the store.ValueType scalar kinds (excluding
	// EntityRef, which is expressed via TypeExprEdgeRef or TypeExprNamed
	// at a node position).
	Scalar store.ValueType
}

func Named(t store.TypeId) TypeExpr   { return TypeExpr{Kind: TypeExprNamed, Named: t} }
func Any() TypeExpr                   { return TypeExpr{Kind: TypeExprAny} }
func Scalar(v store.ValueType) TypeExpr { return TypeExpr{Kind: TypeExprScalar, Scalar: v} }
func EdgeRef(t store.EdgeTypeId) TypeExpr {
	return TypeExpr{Kind: TypeExprEdgeRef, EdgeType: t}
}
func AnyEdgeRef() TypeExpr { return TypeExpr{Kind: TypeExprEdgeRef, AnyEdge: true} }
func Optional(inner TypeExpr) TypeExpr {
	return TypeExpr{Kind: TypeExprOptional, Inner: &inner}
}
func Union(members ...TypeExpr) TypeExpr {
	return TypeExpr{Kind: TypeExprUnion, Members: members}
}
