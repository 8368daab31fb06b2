package registry

import "github.com/mewdb/mew/pkg/store"

// ExprKind is the closed tag of an Expr node (§3.2, §9.2). Grounded on the
// teacher's query AST shape (`pkg/query/ast.go` `Expression`/`WhereClause`),
// generalized from the teacher's property-graph WHERE expression into the
// closed Literal/VarRef/AttrAccess/BinaryOp/UnaryOp/Exists/If/Case/
// Coalesce/Aggregate variant set §3.2 names.
type ExprKind uint8

const (
	ExprLiteral ExprKind = iota
	ExprVarRef
	ExprAttrAccess
	ExprBinaryOp
	ExprUnaryOp
	ExprExists
	ExprIf
	ExprCase
	ExprCoalesce
	ExprAggregate
	ExprCall
)

// BinaryOp enumerates §4.4.3's comparison, arithmetic, and boolean
// binary operators.
type BinaryOp uint8

const (
	OpEq BinaryOp = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpConcat
)

// UnaryOp enumerates the unary operators: boolean negation and numeric
// negation.
type UnaryOp uint8

const (
	OpNot UnaryOp = iota
	OpNeg
)

// AggregateFn enumerates §4.4.3's aggregate functions over inner pattern
// bindings.
type AggregateFn uint8

const (
	AggCount AggregateFn = iota
	AggSum
	AggAvg
	AggMin
	AggMax
	AggCollect
)

// BuiltinFn enumerates §4.4.3's scalar built-ins.
type BuiltinFn uint8

const (
	FnLength BuiltinFn = iota
	FnAbs
	FnLower
	FnUpper
	FnToMilliseconds
	FnWallTime
	FnLogicalTime
)

// CaseArm is one WHEN/THEN pair of a CASE expression.
type CaseArm struct {
	When *Expr
	Then *Expr
}

// Expr is a node of the expression tree (§3.2, §4.4.3). Only the fields
// matching Kind are meaningful. The evaluator (`pkg/pattern`) is a pure
// recursive function over this tree and a variable binding — no
// heterogeneous object hierarchy, per §9.2.
type Expr struct {
	Kind ExprKind

	// ExprLiteral
	Literal store.Value

	// ExprVarRef
	Var string

	// ExprAttrAccess: Var.Attr
	Attr store.AttrId

	// ExprBinaryOp / ExprUnaryOp
	BinOp BinaryOp
	UnOp  UnaryOp
	Left  *Expr
	Right *Expr

	// ExprExists: Pattern is a *PatternDef (opaque here to avoid a cycle;
	// pkg/pattern resolves it by PatternId against the Registry).
	ExistsPattern PatternId
	Negated       bool // when used to express NOT EXISTS directly

	// ExprIf
	Cond *Expr
	Then *Expr
	Else *Expr

	// ExprCase: arms evaluated in order, Else is the fallback.
	Arms []CaseArm

	// ExprCoalesce: first non-null wins.
	Args []*Expr

	// ExprAggregate: aggregate Fn over AggPattern's bindings of AggTarget.
	AggFn      AggregateFn
	AggPattern PatternId
	AggTarget  *Expr

	// ExprCall: a built-in scalar function applied to BuiltinArgs.
	Builtin     BuiltinFn
	BuiltinArgs []*Expr
}

func Literal(v store.Value) *Expr { return &Expr{Kind: ExprLiteral, Literal: v} }
func VarRef(name string) *Expr    { return &Expr{Kind: ExprVarRef, Var: name} }
func AttrAccess(varName string, attr store.AttrId) *Expr {
	return &Expr{Kind: ExprAttrAccess, Var: varName, Attr: attr}
}
func Binary(op BinaryOp, l, r *Expr) *Expr {
	return &Expr{Kind: ExprBinaryOp, BinOp: op, Left: l, Right: r}
}
func Unary(op UnaryOp, e *Expr) *Expr {
	return &Expr{Kind: ExprUnaryOp, UnOp: op, Left: e}
}
func Exists(p PatternId, negated bool) *Expr {
	return &Expr{Kind: ExprExists, ExistsPattern: p, Negated: negated}
}
func If(cond, then, els *Expr) *Expr {
	return &Expr{Kind: ExprIf, Cond: cond, Then: then, Else: els}
}
func Case(els *Expr, arms ...CaseArm) *Expr {
	return &Expr{Kind: ExprCase, Arms: arms, Else: els}
}
func Coalesce(args ...*Expr) *Expr {
	return &Expr{Kind: ExprCoalesce, Args: args}
}
func Aggregate(fn AggregateFn, pattern PatternId, target *Expr) *Expr {
	return &Expr{Kind: ExprAggregate, AggFn: fn, AggPattern: pattern, AggTarget: target}
}
func Call(fn BuiltinFn, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Builtin: fn, BuiltinArgs: args}
}
