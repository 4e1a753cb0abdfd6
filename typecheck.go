package binform

/*
typecheck.go implements FormatModule.inferFormatType, the bottom-up
walk over the format algebra described in spec.md §4.E. Leaves map
to their obvious types; Tuple/Record lift positionally/by-name,
dropping "__"-prefixed elements and eliding (while still scoping)
"_"-prefixed ones; Union/UnionNondet/Match/MatchVariant unify
branches; Repeat* and ForEach produce Seq(inner); Peek/PeekNot/Where/
Align/SkipRemainder/Bits preserve or erase exactly as documented;
Map yields the lambda body's type under the bound parameter; ItemVar
returns the referenced declaration's solved type.
*/

// unitType is the Tuple() (empty tuple) used for the handful of
// zero-width, value-less Format constructors (EndOfInput, Align,
// SkipRemainder, PeekNot).
func unitType() ValueType { return TupleType() }

func (m *FormatModule) inferFormatType(f Format, env *TypeEnv) (ValueType, error) {
	switch f.Kind {
	case FmtByte:
		return BaseT(BaseU8), nil
	case FmtEndOfInput, FmtAlign, FmtSkipRemainder, FmtPeekNot:
		return unitType(), nil
	case FmtFail:
		return EmptyType(), nil
	case FmtPos:
		return BaseT(BaseU64), nil
	case FmtCompute:
		return InferExprType(f.expr, env)

	case FmtItemVar:
		if f.ref == nil || f.ref.module != m {
			return ValueType{}, errorUnknownItemVar
		}
		return m.decls[f.ref.index].Type, nil

	case FmtTuple:
		elems := make([]ValueType, len(f.children))
		for i, c := range f.children {
			t, err := m.inferFormatType(c, env)
			if err != nil {
				return ValueType{}, err
			}
			elems[i] = t
		}
		return TupleType(elems...), nil

	case FmtRecord:
		return m.inferRecord(f, env)

	case FmtUnion, FmtUnionNondet:
		result := EmptyType()
		for _, c := range f.children {
			t, err := m.inferFormatType(c, env)
			if err != nil {
				return ValueType{}, err
			}
			result, err = Unify(result, t)
			if err != nil {
				return ValueType{}, err
			}
		}
		return result, nil

	case FmtVariant:
		t, err := m.inferFormatType(*f.child, env)
		if err != nil {
			return ValueType{}, err
		}
		return UnionType(UnionFieldType{Label: f.label, Type: t}), nil

	case FmtRepeat, FmtRepeat1, FmtRepeatBetween:
		t, err := m.inferFormatType(*f.child, env)
		if err != nil {
			return ValueType{}, err
		}
		return SeqType(t), nil

	case FmtRepeatCount:
		if _, err := InferExprType(f.expr, env); err != nil {
			return ValueType{}, err
		}
		t, err := m.inferFormatType(*f.child, env)
		if err != nil {
			return ValueType{}, err
		}
		return SeqType(t), nil

	case FmtRepeatUntilLast, FmtRepeatUntilSeq:
		t, err := m.inferFormatType(*f.child, env)
		if err != nil {
			return ValueType{}, err
		}
		depth := env.Mark()
		if f.Kind == FmtRepeatUntilLast {
			env.Push(f.bindName, t)
		} else {
			env.Push(f.bindName, SeqType(t))
		}
		_, err = InferExprType(*f.pred, env)
		env.PopTo(depth)
		if err != nil {
			return ValueType{}, err
		}
		return SeqType(t), nil

	case FmtForEach:
		seqT, err := InferExprType(f.expr, env)
		if err != nil {
			return ValueType{}, err
		}
		if seqT.Kind != TypeSeq && seqT.Kind != TypeAny {
			return ValueType{}, evalErr("ForEach", "source expression must be a sequence")
		}
		elemT := AnyType()
		if seqT.Kind == TypeSeq {
			elemT = *seqT.Elem()
		}
		depth := env.Mark()
		env.Push(f.bindName, elemT)
		t, err := m.inferFormatType(*f.child, env)
		env.PopTo(depth)
		if err != nil {
			return ValueType{}, err
		}
		return SeqType(t), nil

	case FmtSlice, FmtSliceUpTo:
		if _, err := InferExprType(f.expr, env); err != nil {
			return ValueType{}, err
		}
		return m.inferFormatType(*f.child, env)

	case FmtWithRelativeOffset:
		if f.exprOpt != nil {
			if _, err := InferExprType(*f.exprOpt, env); err != nil {
				return ValueType{}, err
			}
		}
		if _, err := InferExprType(f.expr2, env); err != nil {
			return ValueType{}, err
		}
		return m.inferFormatType(*f.child, env)

	case FmtPeek:
		return m.inferFormatType(*f.child, env)

	case FmtBits:
		return m.inferFormatType(*f.child, env)

	case FmtWhere:
		t, err := m.inferFormatType(*f.child, env)
		if err != nil {
			return ValueType{}, err
		}
		depth := env.Mark()
		env.Push(f.bindName, t)
		predT, err := InferExprType(*f.pred, env)
		env.PopTo(depth)
		if err != nil {
			return ValueType{}, err
		}
		if b, ok := predT.Base(); !ok || b != BaseBool {
			return ValueType{}, evalErr("Where", "predicate must be Bool")
		}
		return t, nil

	case FmtValidate:
		t, err := m.inferFormatType(*f.child, env)
		if err != nil {
			return ValueType{}, err
		}
		if _, err := InferExprType(*f.pred, env); err != nil {
			return ValueType{}, err
		}
		return t, nil

	case FmtMatch:
		return m.inferMatch(f, env)

	case FmtMatchVariant:
		return m.inferMatchVariant(f, env)

	case FmtMap:
		t, err := m.inferFormatType(*f.child, env)
		if err != nil {
			return ValueType{}, err
		}
		depth := env.Mark()
		env.Push(f.bindName, t)
		out, err := InferExprType(*f.lambdaOut, env)
		env.PopTo(depth)
		return out, err

	case FmtDecodeBytes:
		bt, err := InferExprType(f.expr, env)
		if err != nil {
			return ValueType{}, err
		}
		if bt.Kind == TypeSeq {
			if b, ok := bt.Elem().Base(); !ok || b != BaseU8 {
				return ValueType{}, evalErr("DecodeBytes", "byte expression must be Seq(U8)")
			}
		}
		return m.inferFormatType(*f.child, newTypeEnv(nil))

	case FmtLetView:
		return m.inferFormatType(*f.child, env)

	case FmtWithView:
		if f.viewFmt.Kind == ViewReadArray {
			return SeqType(BaseT(f.viewFmt.ArrayKind)), nil
		}
		return SeqType(BaseT(BaseU8)), nil

	case FmtHint:
		return m.inferFormatType(*f.child, env)

	default:
		return ValueType{}, evalErr("inferFormatType", "unhandled format kind")
	}
}

func (m *FormatModule) inferRecord(f Format, env *TypeEnv) (ValueType, error) {
	depth := env.Mark()
	defer env.PopTo(depth)
	var out []RecordFieldType
	for _, field := range f.fields {
		t, err := m.inferFormatType(field.Format, env)
		if err != nil {
			return ValueType{}, err
		}
		env.Push(field.Label, t)
		if !field.Label.IsDoubleHidden() {
			out = append(out, RecordFieldType{Label: field.Label, Type: t})
		}
	}
	return RecordType(out...), nil
}

func (m *FormatModule) inferMatch(f Format, env *TypeEnv) (ValueType, error) {
	scrutineeT, err := InferExprType(f.expr, env)
	if err != nil {
		return ValueType{}, err
	}
	result := EmptyType()
	for _, arm := range f.matchArms {
		depth := env.Mark()
		bindPatternTypes(arm.Pattern, scrutineeT, env)
		t, err := m.inferFormatType(arm.Format, env)
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

func (m *FormatModule) inferMatchVariant(f Format, env *TypeEnv) (ValueType, error) {
	scrutineeT, err := InferExprType(f.expr, env)
	if err != nil {
		return ValueType{}, err
	}
	result := EmptyType()
	for _, arm := range f.matchVariantArms {
		depth := env.Mark()
		payloadT := AnyType()
		if scrutineeT.Kind == TypeUnion {
			if t, ok := scrutineeT.unionField(arm.Label); ok {
				payloadT = t
			}
		}
		bindPatternTypes(arm.Pattern, payloadT, env)
		t, err := m.inferFormatType(arm.Format, env)
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
