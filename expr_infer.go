package binform

/*
expr_infer.go implements bottom-up type inference for Expr, used by
typecheck.go wherever a Format embeds an expression (Compute, Where,
Map, RepeatCount, Slice lengths, …). Polymorphic leaves — the empty
sequence literal — carry Any and are refined by unification against
sibling or expected types (spec.md §4.C).
*/

func InferExprType(e Expr, env *TypeEnv) (ValueType, error) {
	switch e.Kind {
	case ExprLitInt:
		return BaseT(e.litBase), nil
	case ExprLitBool:
		return BaseT(BaseBool), nil
	case ExprVar:
		t, ok := env.Lookup(e.varName)
		if !ok {
			return ValueType{}, evalErr("InferExprType", "unbound variable "+e.varName.String())
		}
		return t, nil
	case ExprAsU8:
		return BaseT(BaseU8), inferArgsOnly(e, env)
	case ExprAsU16:
		return BaseT(BaseU16), inferArgsOnly(e, env)
	case ExprAsU32:
		return BaseT(BaseU32), inferArgsOnly(e, env)
	case ExprAsU64:
		return BaseT(BaseU64), inferArgsOnly(e, env)
	case ExprAsChar:
		return BaseT(BaseChar), inferArgsOnly(e, env)
	case ExprAdd, ExprSub, ExprMul, ExprDiv, ExprMod,
		ExprBitAnd, ExprBitOr, ExprBitXor, ExprShl, ExprShr:
		return inferSameWidth(e, env)
	case ExprBitNot:
		return InferExprType(e.args[0], env)
	case ExprEq, ExprNe, ExprLt, ExprLe, ExprGt, ExprGe:
		if err := inferArgsOnly(e, env); err != nil {
			return ValueType{}, err
		}
		return BaseT(BaseBool), nil
	case ExprTuple:
		elems := make([]ValueType, len(e.args))
		for i, a := range e.args {
			t, err := InferExprType(a, env)
			if err != nil {
				return ValueType{}, err
			}
			elems[i] = t
		}
		return TupleType(elems...), nil
	case ExprRecord:
		return inferRecordExpr(e, env)
	case ExprProjTuple:
		t, err := InferExprType(e.args[0], env)
		if err != nil {
			return ValueType{}, err
		}
		elems := t.Tuple()
		if e.index < 0 || e.index >= len(elems) {
			return ValueType{}, evalErr("InferExprType", "tuple projection index out of range")
		}
		return elems[e.index], nil
	case ExprProjField:
		t, err := InferExprType(e.args[0], env)
		if err != nil {
			return ValueType{}, err
		}
		for _, f := range t.Record() {
			if f.Label == e.label {
				return f.Type, nil
			}
		}
		return ValueType{}, evalErr("InferExprType", "no such field "+e.label.String())
	case ExprVariant:
		t, err := InferExprType(e.args[0], env)
		if err != nil {
			return ValueType{}, err
		}
		return UnionType(UnionFieldType{Label: e.label, Type: t}), nil
	case ExprSeqLit:
		if len(e.args) == 0 {
			return SeqType(AnyType()), nil
		}
		elemT, err := InferExprType(e.args[0], env)
		if err != nil {
			return ValueType{}, err
		}
		for _, a := range e.args[1:] {
			t, err := InferExprType(a, env)
			if err != nil {
				return ValueType{}, err
			}
			elemT, err = Unify(elemT, t)
			if err != nil {
				return ValueType{}, err
			}
		}
		return SeqType(elemT), nil
	case ExprSeqLength:
		if err := inferArgsOnly(e, env); err != nil {
			return ValueType{}, err
		}
		return BaseT(BaseU64), nil
	case ExprFlatMap:
		return inferFlatMap(e, env)
	case ExprForEach:
		return inferForEach(e, env)
	case ExprMatch:
		return inferMatchExpr(e, env)
	default:
		return ValueType{}, evalErr("InferExprType", "unhandled expression kind")
	}
}

func inferArgsOnly(e Expr, env *TypeEnv) error {
	for _, a := range e.args {
		if _, err := InferExprType(a, env); err != nil {
			return err
		}
	}
	return nil
}

func inferSameWidth(e Expr, env *TypeEnv) (ValueType, error) {
	a, err := InferExprType(e.args[0], env)
	if err != nil {
		return ValueType{}, err
	}
	b, err := InferExprType(e.args[1], env)
	if err != nil {
		return ValueType{}, err
	}
	return Unify(a, b)
}

func inferRecordExpr(e Expr, env *TypeEnv) (ValueType, error) {
	depth := env.Mark()
	defer env.PopTo(depth)
	var out []RecordFieldType
	for _, f := range e.fields {
		t, err := InferExprType(f.Expr, env)
		if err != nil {
			return ValueType{}, err
		}
		env.Push(f.Label, t)
		if !f.Label.IsDoubleHidden() {
			out = append(out, RecordFieldType{Label: f.Label, Type: t})
		}
	}
	return RecordType(out...), nil
}

func inferFlatMap(e Expr, env *TypeEnv) (ValueType, error) {
	seqT, err := InferExprType(e.args[0], env)
	if err != nil {
		return ValueType{}, err
	}
	depth := env.Mark()
	defer env.PopTo(depth)
	env.Push(e.lambdaParam, *seqT.Elem())
	bodyT, err := InferExprType(*e.lambdaBody, env)
	if err != nil {
		return ValueType{}, err
	}
	if bodyT.Kind != TypeSeq {
		return ValueType{}, evalErr("InferExprType", "FlatMap body must produce a sequence")
	}
	return bodyT, nil
}

func inferForEach(e Expr, env *TypeEnv) (ValueType, error) {
	seqT, err := InferExprType(e.args[0], env)
	if err != nil {
		return ValueType{}, err
	}
	depth := env.Mark()
	defer env.PopTo(depth)
	env.Push(e.lambdaParam, *seqT.Elem())
	bodyT, err := InferExprType(*e.lambdaBody, env)
	if err != nil {
		return ValueType{}, err
	}
	return SeqType(bodyT), nil
}

func inferMatchExpr(e Expr, env *TypeEnv) (ValueType, error) {
	result := EmptyType()
	for _, arm := range e.arms {
		depth := env.Mark()
		bindPatternTypes(arm.Pattern, AnyType(), env)
		t, err := InferExprType(arm.Body, env)
		env.PopTo(depth)
		if err != nil {
			return ValueType{}, err
		}
		result, err = Unify(result, t)
		if err != nil {
			return ValueType{}, err
		}
	}
	return result, nil
}

// bindPatternTypes extends env with a binding for every name a
// Pattern would bind at runtime, typed from the matching part of
// scrutineeType, or Any where that part is not known statically.
func bindPatternTypes(p Pattern, scrutineeType ValueType, env *TypeEnv) {
	switch p.Kind {
	case PatBind:
		env.Push(p.bindName, scrutineeType)
	case PatTuple:
		elems := scrutineeType.Tuple()
		for i, sub := range p.elems {
			t := AnyType()
			if i < len(elems) {
				t = elems[i]
			}
			bindPatternTypes(sub, t, env)
		}
	case PatSeq:
		elemT := AnyType()
		if scrutineeType.Kind == TypeSeq {
			elemT = *scrutineeType.Elem()
		}
		for _, sub := range p.elems {
			bindPatternTypes(sub, elemT, env)
		}
	case PatVariant:
		inner := AnyType()
		if scrutineeType.Kind == TypeUnion {
			if t, ok := scrutineeType.unionField(p.variant); ok {
				inner = t
			}
		}
		bindPatternTypes(*p.inner, inner, env)
	}
}
