package binform

/*
expr_eval.go implements total evaluation of Expr values against a
Scope. Evaluation never fails on a well-typechecked expression except
for the explicitly dynamic cases spec.md §4.C calls out: cast
overflow, checked-arithmetic overflow, division/modulo by zero, and
out-of-range shift amounts. The evaluator dispatches arithmetic on
the runtime BaseType tag of its operands (spec.md §9: "the expression
evaluator dispatches on the runtime tag of operands rather than on a
compile-time type parameter"): operands of every width are widened to
uint64, combined by golang.org/x/exp/constraints-bounded generic
helpers, and range-checked against the width's maximum.
*/

import "golang.org/x/exp/constraints"

// EvalError reports a dynamic (runtime) expression evaluation failure.
type EvalError struct {
	Op  string
	Msg string
}

func (e *EvalError) Error() string { return mkerrf(e.Op, ": ", e.Msg).Error() }

func evalErr(op, msg string) error { return &EvalError{Op: op, Msg: msg} }

// Eval evaluates e against scope, returning the resulting Value.
func Eval(e Expr, scope *Scope) (Value, error) {
	switch e.Kind {
	case ExprLitInt:
		return litIntValue(e), nil
	case ExprLitBool:
		return NewBool(e.litBool), nil
	case ExprVar:
		v, ok := scope.Lookup(e.varName)
		if !ok {
			return Value{}, evalErr("Var", "unbound variable "+e.varName.String())
		}
		return v, nil
	case ExprAsU8, ExprAsU16, ExprAsU32, ExprAsU64:
		return evalCast(e, scope)
	case ExprAsChar:
		return evalCastChar(e, scope)
	case ExprAdd, ExprSub, ExprMul, ExprDiv, ExprMod,
		ExprBitAnd, ExprBitOr, ExprBitXor, ExprShl, ExprShr:
		return evalArith(e, scope)
	case ExprBitNot:
		return evalBitNot(e, scope)
	case ExprEq, ExprNe, ExprLt, ExprLe, ExprGt, ExprGe:
		return evalCompare(e, scope)
	case ExprTuple:
		return evalTuple(e, scope)
	case ExprRecord:
		return evalRecord(e, scope)
	case ExprProjTuple:
		return evalProjTuple(e, scope)
	case ExprProjField:
		return evalProjField(e, scope)
	case ExprVariant:
		return evalVariant(e, scope)
	case ExprSeqLit:
		return evalSeqLit(e, scope)
	case ExprSeqLength:
		return evalSeqLength(e, scope)
	case ExprFlatMap:
		return evalFlatMap(e, scope)
	case ExprForEach:
		return evalForEach(e, scope)
	case ExprMatch:
		return evalMatch(e, scope)
	default:
		return Value{}, evalErr("Eval", "unhandled expression kind")
	}
}

func litIntValue(e Expr) Value {
	switch e.litBase {
	case BaseU8:
		return NewU8(uint8(e.litInt))
	case BaseU16:
		return NewU16(uint16(e.litInt))
	case BaseU32:
		return NewU32(uint32(e.litInt))
	default:
		return NewU64(e.litInt)
	}
}

func widthMax(b BaseType) uint64 {
	switch b {
	case BaseU8:
		return 0xFF
	case BaseU16:
		return 0xFFFF
	case BaseU32:
		return 0xFFFFFFFF
	default:
		return ^uint64(0)
	}
}

func widthBits(b BaseType) uint64 {
	switch b {
	case BaseU8:
		return 8
	case BaseU16:
		return 16
	case BaseU32:
		return 32
	default:
		return 64
	}
}

func evalCast(e Expr, scope *Scope) (Value, error) {
	src, err := Eval(e.args[0], scope)
	if err != nil {
		return Value{}, err
	}
	if src.Kind() != ValueBase || !src.Base_IsNumeric() {
		return Value{}, evalErr("Cast", "source is not numeric")
	}
	target := castTargetBase(e.Kind)
	if src.Uint() > widthMax(target) {
		return Value{}, evalErr("Cast", "value does not fit in target width")
	}
	return numericValue(target, src.Uint()), nil
}

// Base_IsNumeric exposes BaseType.IsNumeric from a Value receiver
// without widening the public Value API surface beyond what the
// evaluator needs.
func (v Value) Base_IsNumeric() bool {
	b, ok := v.Base()
	return ok && b.IsNumeric()
}

func castTargetBase(k ExprKind) BaseType {
	switch k {
	case ExprAsU8:
		return BaseU8
	case ExprAsU16:
		return BaseU16
	case ExprAsU32:
		return BaseU32
	default:
		return BaseU64
	}
}

func numericValue(b BaseType, v uint64) Value {
	switch b {
	case BaseU8:
		return NewU8(uint8(v))
	case BaseU16:
		return NewU16(uint16(v))
	case BaseU32:
		return NewU32(uint32(v))
	default:
		return NewU64(v)
	}
}

func evalCastChar(e Expr, scope *Scope) (Value, error) {
	src, err := Eval(e.args[0], scope)
	if err != nil {
		return Value{}, err
	}
	if src.Kind() != ValueBase || !src.Base_IsNumeric() {
		return Value{}, evalErr("AsChar", "source is not numeric")
	}
	if src.Uint() > 0x10FFFF {
		return Value{}, evalErr("AsChar", "value out of Unicode scalar range")
	}
	return NewChar(rune(src.Uint())), nil
}

func checkedAdd[T constraints.Unsigned](a, b T) (T, bool) {
	sum := a + b
	return sum, sum >= a
}

func checkedSub[T constraints.Unsigned](a, b T) (T, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

func checkedMul[T constraints.Unsigned](a, b T) (T, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	return p, p/a == b
}

func evalArith(e Expr, scope *Scope) (Value, error) {
	a, err := Eval(e.args[0], scope)
	if err != nil {
		return Value{}, err
	}
	b, err := Eval(e.args[1], scope)
	if err != nil {
		return Value{}, err
	}
	ab, aok := a.Base()
	bb, bok := b.Base()
	if !aok || !bok || !ab.IsNumeric() || ab != bb {
		return Value{}, evalErr("Arith", "operands must be same-width unsigned integers")
	}
	x, y := a.Uint(), b.Uint()
	max := widthMax(ab)

	switch e.Kind {
	case ExprAdd:
		if e.wrapping {
			return numericValue(ab, (x+y)&max), nil
		}
		r, ok := checkedAdd(x, y)
		if !ok || r > max {
			return Value{}, evalErr("Add", "overflow")
		}
		return numericValue(ab, r), nil
	case ExprSub:
		if e.wrapping {
			return numericValue(ab, (x-y)&max), nil
		}
		r, ok := checkedSub(x, y)
		if !ok {
			return Value{}, evalErr("Sub", "overflow")
		}
		return numericValue(ab, r), nil
	case ExprMul:
		if e.wrapping {
			return numericValue(ab, (x*y)&max), nil
		}
		r, ok := checkedMul(x, y)
		if !ok || r > max {
			return Value{}, evalErr("Mul", "overflow")
		}
		return numericValue(ab, r), nil
	case ExprDiv:
		if y == 0 {
			return Value{}, evalErr("Div", "division by zero")
		}
		return numericValue(ab, x/y), nil
	case ExprMod:
		if y == 0 {
			return Value{}, evalErr("Mod", "modulo by zero")
		}
		return numericValue(ab, x%y), nil
	case ExprBitAnd:
		return numericValue(ab, x&y), nil
	case ExprBitOr:
		return numericValue(ab, x|y), nil
	case ExprBitXor:
		return numericValue(ab, x^y), nil
	case ExprShl:
		if y >= widthBits(ab) {
			return Value{}, evalErr("Shl", "shift amount out of range")
		}
		return numericValue(ab, (x<<y)&max), nil
	case ExprShr:
		if y >= widthBits(ab) {
			return Value{}, evalErr("Shr", "shift amount out of range")
		}
		return numericValue(ab, x>>y), nil
	default:
		return Value{}, evalErr("Arith", "unhandled operator")
	}
}

func evalBitNot(e Expr, scope *Scope) (Value, error) {
	a, err := Eval(e.args[0], scope)
	if err != nil {
		return Value{}, err
	}
	ab, ok := a.Base()
	if !ok || !ab.IsNumeric() {
		return Value{}, evalErr("BitNot", "operand must be an unsigned integer")
	}
	return numericValue(ab, (^a.Uint())&widthMax(ab)), nil
}

func evalCompare(e Expr, scope *Scope) (Value, error) {
	a, err := Eval(e.args[0], scope)
	if err != nil {
		return Value{}, err
	}
	b, err := Eval(e.args[1], scope)
	if err != nil {
		return Value{}, err
	}
	ab, aok := a.Base()
	bb, bok := b.Base()
	if !aok || !bok || ab != bb {
		return Value{}, evalErr("Compare", "operands must be matching ground numerics")
	}
	var x, y uint64
	if ab == BaseChar {
		x, y = uint64(a.Char()), uint64(b.Char())
	} else {
		x, y = a.Uint(), b.Uint()
	}
	var result bool
	switch e.Kind {
	case ExprEq:
		result = x == y
	case ExprNe:
		result = x != y
	case ExprLt:
		result = x < y
	case ExprLe:
		result = x <= y
	case ExprGt:
		result = x > y
	case ExprGe:
		result = x >= y
	}
	return NewBool(result), nil
}

func evalTuple(e Expr, scope *Scope) (Value, error) {
	elems := make([]Value, len(e.args))
	for i, sub := range e.args {
		v, err := Eval(sub, scope)
		if err != nil {
			return Value{}, err
		}
		elems[i] = v
	}
	return NewTuple(elems...), nil
}

func evalRecord(e Expr, scope *Scope) (Value, error) {
	fields := make([]RecordField, 0, len(e.fields))
	depth := scope.Mark()
	defer scope.PopTo(depth)
	for _, f := range e.fields {
		v, err := Eval(f.Expr, scope)
		if err != nil {
			return Value{}, err
		}
		scope.Push(f.Label, v)
		if !f.Label.IsDoubleHidden() {
			fields = append(fields, RecordField{Label: f.Label, Value: v})
		}
	}
	return NewRecord(fields...), nil
}

func evalProjTuple(e Expr, scope *Scope) (Value, error) {
	v, err := Eval(e.args[0], scope)
	if err != nil {
		return Value{}, err
	}
	elems := v.Tuple()
	if e.index < 0 || e.index >= len(elems) {
		return Value{}, evalErr("ProjTuple", "index out of range")
	}
	return elems[e.index], nil
}

func evalProjField(e Expr, scope *Scope) (Value, error) {
	v, err := Eval(e.args[0], scope)
	if err != nil {
		return Value{}, err
	}
	f, ok := v.Field(e.label)
	if !ok {
		return Value{}, evalErr("ProjField", "no such field "+e.label.String())
	}
	return f, nil
}

func evalVariant(e Expr, scope *Scope) (Value, error) {
	v, err := Eval(e.args[0], scope)
	if err != nil {
		return Value{}, err
	}
	return NewVariant(e.label, v), nil
}

func evalSeqLit(e Expr, scope *Scope) (Value, error) {
	elems := make([]Value, len(e.args))
	for i, sub := range e.args {
		v, err := Eval(sub, scope)
		if err != nil {
			return Value{}, err
		}
		elems[i] = v
	}
	return NewSeq(StrictSeq(elems)), nil
}

func evalSeqLength(e Expr, scope *Scope) (Value, error) {
	v, err := Eval(e.args[0], scope)
	if err != nil {
		return Value{}, err
	}
	return NewU64(uint64(v.Seq().Len())), nil
}

func evalFlatMap(e Expr, scope *Scope) (Value, error) {
	v, err := Eval(e.args[0], scope)
	if err != nil {
		return Value{}, err
	}
	seq := v.Seq()
	var out []Value
	depth := scope.Mark()
	defer scope.PopTo(depth)
	for i := 0; i < seq.Len(); i++ {
		scope.PopTo(depth)
		scope.Push(e.lambdaParam, seq.At(i))
		r, err := Eval(*e.lambdaBody, scope)
		if err != nil {
			return Value{}, err
		}
		out = append(out, r.Seq().Strict()...)
	}
	return NewSeq(StrictSeq(out)), nil
}

func evalForEach(e Expr, scope *Scope) (Value, error) {
	v, err := Eval(e.args[0], scope)
	if err != nil {
		return Value{}, err
	}
	seq := v.Seq()
	out := make([]Value, seq.Len())
	depth := scope.Mark()
	defer scope.PopTo(depth)
	for i := 0; i < seq.Len(); i++ {
		scope.PopTo(depth)
		scope.Push(e.lambdaParam, seq.At(i))
		r, err := Eval(*e.lambdaBody, scope)
		if err != nil {
			return Value{}, err
		}
		out[i] = r
	}
	return NewSeq(StrictSeq(out)), nil
}

func evalMatch(e Expr, scope *Scope) (Value, error) {
	scrutinee, err := Eval(e.args[0], scope)
	if err != nil {
		return Value{}, err
	}
	depth := scope.Mark()
	defer scope.PopTo(depth)
	for _, arm := range e.arms {
		scope.PopTo(depth)
		if arm.Pattern.Match(scrutinee, scope) {
			return Eval(arm.Body, scope)
		}
	}
	return Value{}, evalErr("Match", "no pattern matched the scrutinee")
}
