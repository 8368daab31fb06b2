package pattern

import (
	"fmt"
	"strings"

	"github.com/mewdb/mew/pkg/registry"
	"github.com/mewdb/mew/pkg/store"
)

// Clock supplies the two time sources §4.4.3 allows inside expressions:
// wall_time() (non-deterministic, forbidden in constraint conditions) and
// logical_time() (a deterministic monotonic tick, permitted everywhere).
type Clock interface {
	WallTimeMs() int64
	LogicalTime() int64
}

// ErrWallTimeForbidden is returned when wall_time() appears in a
// constraint condition (§4.4.3: "constraints must be deterministic
// functions of graph state").
var ErrWallTimeForbidden = fmt.Errorf("pattern: wall_time() is forbidden in constraint conditions")

// Evaluator is a pure recursive evaluator over the Expr tree (§4.4.3,
// §9.2: "the evaluator is a pure function over variable bindings").
// Grounded on the teacher's `pkg/query/ast_eval.go`/`functions*.go`
// expression-dispatch style, generalized to the closed Expr variant set
// of §3.2 and to three-valued null propagation.
type Evaluator struct {
	Source        DataSource
	Registry      *registry.Registry
	Clock         Clock
	ForbidWallTime bool // set true when evaluating a ConstraintDef's condition
}

// Eval evaluates e against binding b, propagating Null per §4.4.3's
// three-valued logic (comparison with null yields null; and/or follow
// SQL truth tables).
func (ev *Evaluator) Eval(e *registry.Expr, b Binding) (store.Value, error) {
	if e == nil {
		return store.Bool(true), nil // no WHERE condition (§8.3)
	}
	switch e.Kind {
	case registry.ExprLiteral:
		return e.Literal, nil
	case registry.ExprVarRef:
		id, ok := b[e.Var]
		if !ok {
			return store.Null(), nil
		}
		return store.Ref(id), nil
	case registry.ExprAttrAccess:
		return ev.evalAttrAccess(e, b)
	case registry.ExprBinaryOp:
		return ev.evalBinary(e, b)
	case registry.ExprUnaryOp:
		return ev.evalUnary(e, b)
	case registry.ExprExists:
		return ev.evalExists(e, b)
	case registry.ExprIf:
		return ev.evalIf(e, b)
	case registry.ExprCase:
		return ev.evalCase(e, b)
	case registry.ExprCoalesce:
		return ev.evalCoalesce(e, b)
	case registry.ExprAggregate:
		return ev.evalAggregate(e, b)
	case registry.ExprCall:
		return ev.evalCall(e, b)
	default:
		return store.Null(), fmt.Errorf("pattern: unknown expr kind %d", e.Kind)
	}
}

func (ev *Evaluator) evalAttrAccess(e *registry.Expr, b Binding) (store.Value, error) {
	id, ok := b[e.Var]
	if !ok {
		return store.Null(), nil
	}
	if id.IsEdge() {
		edge, ok := ev.Source.GetEdge(id)
		if !ok {
			return store.Null(), nil
		}
		v, ok := edge.GetAttribute(e.Attr)
		if !ok {
			return store.Null(), nil
		}
		return v, nil
	}
	node, ok := ev.Source.GetNode(id)
	if !ok {
		return store.Null(), nil
	}
	v, ok := node.GetAttribute(e.Attr)
	if !ok {
		return store.Null(), nil
	}
	return v, nil
}

func (ev *Evaluator) evalUnary(e *registry.Expr, b Binding) (store.Value, error) {
	v, err := ev.Eval(e.Left, b)
	if err != nil {
		return store.Null(), err
	}
	switch e.UnOp {
	case registry.OpNot:
		if v.IsNull() {
			return store.Null(), nil
		}
		bv, _ := v.AsBool()
		return store.Bool(!bv), nil
	case registry.OpNeg:
		if v.IsNull() {
			return store.Null(), nil
		}
		if iv, ok := v.AsInt(); ok {
			return store.Int(-iv), nil
		}
		if fv, ok := v.AsFloat(); ok {
			return store.Float(-fv), nil
		}
	}
	return store.Null(), fmt.Errorf("pattern: invalid unary operand")
}

func (ev *Evaluator) evalBinary(e *registry.Expr, b Binding) (store.Value, error) {
	// and/or go to evalBoolOp, which evaluates the right side only when
	// the left side does not already decide the result (false and X,
	// true or X); null follows SQL three-valued truth tables.
	l, err := ev.Eval(e.Left, b)
	if err != nil {
		return store.Null(), err
	}
	if e.BinOp == registry.OpAnd || e.BinOp == registry.OpOr {
		return ev.evalBoolOp(e, l, b)
	}
	r, err := ev.Eval(e.Right, b)
	if err != nil {
		return store.Null(), err
	}
	switch e.BinOp {
	case registry.OpEq, registry.OpNeq, registry.OpLt, registry.OpLte, registry.OpGt, registry.OpGte:
		return ev.evalCompare(e.BinOp, l, r)
	case registry.OpAdd, registry.OpSub, registry.OpMul, registry.OpDiv, registry.OpMod:
		return ev.evalArith(e.BinOp, l, r)
	case registry.OpConcat:
		if l.IsNull() || r.IsNull() {
			return store.Null(), nil
		}
		ls, _ := l.AsString()
		rs, _ := r.AsString()
		return store.String(ls + rs), nil
	}
	return store.Null(), fmt.Errorf("pattern: unknown binary op %d", e.BinOp)
}

func (ev *Evaluator) evalBoolOp(e *registry.Expr, l store.Value, b Binding) (store.Value, error) {
	lb, lNull := boolOrNull(l)
	if e.BinOp == registry.OpAnd && !lNull && !lb {
		return store.Bool(false), nil // false and X == false
	}
	if e.BinOp == registry.OpOr && !lNull && lb {
		return store.Bool(true), nil // true or X == true
	}
	r, err := ev.Eval(e.Right, b)
	if err != nil {
		return store.Null(), err
	}
	rb, rNull := boolOrNull(r)
	switch e.BinOp {
	case registry.OpAnd:
		if !rNull && !rb {
			return store.Bool(false), nil
		}
		if lNull || rNull {
			return store.Null(), nil
		}
		return store.Bool(lb && rb), nil
	default: // OpOr
		if !rNull && rb {
			return store.Bool(true), nil
		}
		if lNull || rNull {
			return store.Null(), nil
		}
		return store.Bool(lb || rb), nil
	}
}

func boolOrNull(v store.Value) (b bool, isNull bool) {
	if v.IsNull() {
		return false, true
	}
	bv, _ := v.AsBool()
	return bv, false
}

func (ev *Evaluator) evalCompare(op registry.BinaryOp, l, r store.Value) (store.Value, error) {
	if l.IsNull() || r.IsNull() {
		return store.Null(), nil // comparison with null yields null
	}
	if op == registry.OpEq {
		return store.Bool(l.Equal(r)), nil
	}
	if op == registry.OpNeq {
		return store.Bool(!l.Equal(r)), nil
	}
	c, err := store.Compare(l, r)
	if err != nil {
		return store.Null(), nil
	}
	switch op {
	case registry.OpLt:
		return store.Bool(c < 0), nil
	case registry.OpLte:
		return store.Bool(c <= 0), nil
	case registry.OpGt:
		return store.Bool(c > 0), nil
	case registry.OpGte:
		return store.Bool(c >= 0), nil
	}
	return store.Null(), nil
}

func (ev *Evaluator) evalArith(op registry.BinaryOp, l, r store.Value) (store.Value, error) {
	if l.IsNull() || r.IsNull() {
		return store.Null(), nil
	}
	// Timestamp +/- Duration yields Timestamp; Timestamp - Timestamp
	// yields Duration (§4.4.3).
	if l.Type == store.TypeTimestamp && r.Type == store.TypeDuration && op == registry.OpAdd {
		lv, _ := l.AsInt()
		rv, _ := r.AsInt()
		return store.Timestamp(lv + rv), nil
	}
	if l.Type == store.TypeTimestamp && r.Type == store.TypeDuration && op == registry.OpSub {
		lv, _ := l.AsInt()
		rv, _ := r.AsInt()
		return store.Timestamp(lv - rv), nil
	}
	if l.Type == store.TypeTimestamp && r.Type == store.TypeTimestamp && op == registry.OpSub {
		lv, _ := l.AsInt()
		rv, _ := r.AsInt()
		return store.DurationMs(lv - rv), nil
	}
	if l.Type == store.TypeFloat || r.Type == store.TypeFloat {
		lv, _ := l.AsFloat()
		rv, _ := r.AsFloat()
		switch op {
		case registry.OpAdd:
			return store.Float(lv + rv), nil
		case registry.OpSub:
			return store.Float(lv - rv), nil
		case registry.OpMul:
			return store.Float(lv * rv), nil
		case registry.OpDiv:
			if rv == 0 {
				return store.Null(), fmt.Errorf("pattern: division by zero")
			}
			return store.Float(lv / rv), nil
		}
		return store.Null(), fmt.Errorf("pattern: modulo not defined for Float")
	}
	lv, _ := l.AsInt()
	rv, _ := r.AsInt()
	switch op {
	case registry.OpAdd:
		return store.Int(lv + rv), nil
	case registry.OpSub:
		return store.Int(lv - rv), nil
	case registry.OpMul:
		return store.Int(lv * rv), nil
	case registry.OpDiv:
		if rv == 0 {
			return store.Null(), fmt.Errorf("pattern: division by zero")
		}
		return store.Int(lv / rv), nil
	case registry.OpMod:
		if rv == 0 {
			return store.Null(), fmt.Errorf("pattern: modulo by zero")
		}
		return store.Int(lv % rv), nil
	}
	return store.Null(), fmt.Errorf("pattern: unknown arithmetic op %d", op)
}

func (ev *Evaluator) evalExists(e *registry.Expr, b Binding) (store.Value, error) {
	p, err := ev.Registry.Pattern(e.ExistsPattern)
	if err != nil {
		return store.Null(), err
	}
	plan, err := Compile(p, ev.Registry, ev.Source)
	if err != nil {
		return store.Null(), err
	}
	bindings, err := Execute(plan, ev.Source, ev.Registry)
	if err != nil {
		return store.Null(), err
	}
	found := len(bindings) > 0
	if e.Negated {
		found = !found
	}
	return store.Bool(found), nil
}

func (ev *Evaluator) evalIf(e *registry.Expr, b Binding) (store.Value, error) {
	c, err := ev.Eval(e.Cond, b)
	if err != nil {
		return store.Null(), err
	}
	truth, isNull := boolOrNull(c)
	if isNull || !truth {
		return ev.Eval(e.Else, b)
	}
	return ev.Eval(e.Then, b)
}

func (ev *Evaluator) evalCase(e *registry.Expr, b Binding) (store.Value, error) {
	for _, arm := range e.Arms {
		c, err := ev.Eval(arm.When, b)
		if err != nil {
			return store.Null(), err
		}
		if truth, isNull := boolOrNull(c); !isNull && truth {
			return ev.Eval(arm.Then, b)
		}
	}
	if e.Else != nil {
		return ev.Eval(e.Else, b)
	}
	return store.Null(), nil
}

func (ev *Evaluator) evalCoalesce(e *registry.Expr, b Binding) (store.Value, error) {
	for _, a := range e.Args {
		v, err := ev.Eval(a, b)
		if err != nil {
			return store.Null(), err
		}
		if !v.IsNull() {
			return v, nil
		}
	}
	return store.Null(), nil
}

func (ev *Evaluator) evalAggregate(e *registry.Expr, b Binding) (store.Value, error) {
	p, err := ev.Registry.Pattern(e.AggPattern)
	if err != nil {
		return store.Null(), err
	}
	plan, err := Compile(p, ev.Registry, ev.Source)
	if err != nil {
		return store.Null(), err
	}
	inner, err := Execute(plan, ev.Source, ev.Registry)
	if err != nil {
		return store.Null(), err
	}
	switch e.AggFn {
	case registry.AggCount:
		return store.Int(int64(len(inner))), nil
	}
	var vals []store.Value
	for _, ib := range inner {
		v, err := ev.Eval(e.AggTarget, ib)
		if err != nil {
			return store.Null(), err
		}
		if !v.IsNull() {
			vals = append(vals, v)
		}
	}
	switch e.AggFn {
	case registry.AggSum, registry.AggAvg:
		var sum float64
		for _, v := range vals {
			fv, _ := v.AsFloat()
			sum += fv
		}
		if e.AggFn == registry.AggSum {
			return store.Float(sum), nil
		}
		if len(vals) == 0 {
			return store.Null(), nil
		}
		return store.Float(sum / float64(len(vals))), nil
	case registry.AggMin, registry.AggMax:
		if len(vals) == 0 {
			return store.Null(), nil
		}
		best := vals[0]
		for _, v := range vals[1:] {
			c, err := store.Compare(v, best)
			if err != nil {
				continue
			}
			if (e.AggFn == registry.AggMin && c < 0) || (e.AggFn == registry.AggMax && c > 0) {
				best = v
			}
		}
		return best, nil
	case registry.AggCollect:
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = v.String()
		}
		return store.String(strings.Join(parts, ",")), nil
	}
	return store.Null(), fmt.Errorf("pattern: unknown aggregate %d", e.AggFn)
}

func (ev *Evaluator) evalCall(e *registry.Expr, b Binding) (store.Value, error) {
	switch e.Builtin {
	case registry.FnWallTime:
		if ev.ForbidWallTime {
			return store.Null(), ErrWallTimeForbidden
		}
		if ev.Clock == nil {
			return store.Null(), fmt.Errorf("pattern: no clock configured")
		}
		return store.Timestamp(ev.Clock.WallTimeMs()), nil
	case registry.FnLogicalTime:
		if ev.Clock == nil {
			return store.Null(), fmt.Errorf("pattern: no clock configured")
		}
		return store.Int(ev.Clock.LogicalTime()), nil
	}
	if len(e.BuiltinArgs) != 1 {
		return store.Null(), fmt.Errorf("pattern: builtin %d wants one argument", e.Builtin)
	}
	v, err := ev.Eval(e.BuiltinArgs[0], b)
	if err != nil {
		return store.Null(), err
	}
	if v.IsNull() {
		return store.Null(), nil
	}
	switch e.Builtin {
	case registry.FnLength:
		s, _ := v.AsString()
		return store.Int(int64(len(s))), nil
	case registry.FnAbs:
		if iv, ok := v.AsInt(); ok {
			if iv < 0 {
				iv = -iv
			}
			return store.Int(iv), nil
		}
		fv, _ := v.AsFloat()
		if fv < 0 {
			fv = -fv
		}
		return store.Float(fv), nil
	case registry.FnLower:
		s, _ := v.AsString()
		return store.String(strings.ToLower(s)), nil
	case registry.FnUpper:
		s, _ := v.AsString()
		return store.String(strings.ToUpper(s)), nil
	case registry.FnToMilliseconds:
		iv, _ := v.AsInt()
		return store.Int(iv), nil
	}
	return store.Null(), fmt.Errorf("pattern: unknown builtin %d", e.Builtin)
}
