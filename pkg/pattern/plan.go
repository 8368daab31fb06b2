package pattern

import (
	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// Op is the closed set of plan operators named in §4.4.1. Implemented as
// variants of one interface rather than an open polymorphic hierarchy,
// per §9.2 — every concrete step type lives in this file, and Plan.Steps
// is exhaustively type-switched by the matcher.
type Op interface {
	op()
}

// TypeScan binds Var to every node of type Type (or any subtype, per
// §3.4 — the matcher adds every node type that Registry.Satisfies
// reports as satisfying Type).
type TypeScan struct {
	Var  string
	Type store.TypeId
}

// IndexedAttrScan binds Var to every entity whose indexed attribute Attr
// equals Value (or falls in [Low, High] when Range is true). The matcher
// does not filter the result by Type.
type IndexedAttrScan struct {
	Var        string
	Type       store.TypeId
	Attr       store.AttrId
	Value      store.Value
	Range      bool
	Low, High  store.Value
}

// EdgeScanByType binds EdgeVar (if non-empty) and every target variable
// of every edge of type Type, joining against already-bound variables
// that appear at one of its positions.
type EdgeScanByType struct {
	EdgeVar  string
	Type     store.EdgeTypeId
	Elem     registry.EdgePatternElement
}

// EdgeScanByTarget starts from an already-bound variable at position
// Position of Elem and looks up edges via EdgeByTarget instead of
// EdgeByType — chosen by the optimizer when that bound variable is more
// selective than a type scan (§4.4.1 "prefer elements that share a
// variable with already-bound ones").
type EdgeScanByTarget struct {
	EdgeVar  string
	Elem     registry.EdgePatternElement
	Position int
	BoundVar string
}

// TransitiveExpand implements `edge+`/`edge*` (§4.4.2): from FromVar,
// follow Type edges repeatedly up to MaxDepth hops, binding ToVar to every
// node/edge reached, with a visited set preventing infinite cycles.
// ZeroOrMore additionally yields FromVar == ToVar at depth 0.
type TransitiveExpand struct {
	FromVar, ToVar string
	Type           store.EdgeTypeId
	ZeroOrMore     bool
	MaxDepth       int
}

// Filter evaluates Cond against each binding so far and drops any binding
// for which it is not true (§4.4.3's three-valued logic: null counts as
// false here).
type Filter struct {
	Cond *registry.Expr
}

// Project restricts each binding to Vars, optionally de-duplicating
// (§4.4.2 "Result multiplicity").
type Project struct {
	Vars     []string
	Distinct bool
}

func (TypeScan) op()         {}
func (IndexedAttrScan) op()  {}
func (EdgeScanByType) op()   {}
func (EdgeScanByTarget) op() {}
func (TransitiveExpand) op() {}
func (Filter) op()           {}
func (Project) op()          {}

// Plan is a compiled, ordered sequence of operators. The source
// PatternDef's condition is split into Filter steps inside Steps;
// Compile leaves Residual nil and the matcher does not read it.
type Plan struct {
	Steps     []Op
	VarOrder  []string // declaration order, for Binding.Key and Distinct
	Residual  *registry.Expr
}
