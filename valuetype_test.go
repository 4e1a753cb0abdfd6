package binform

import "testing"

func TestUnifyAnyAndEmpty(t *testing.T) {
	u8 := BaseT(BaseU8)
	if got, err := Unify(AnyType(), u8); err != nil || !got.Equal(u8) {
		t.Errorf("TestUnifyAnyAndEmpty: Unify(Any, U8) want U8, got %v err %v", got, err)
	}
	if got, err := Unify(EmptyType(), u8); err != nil || !got.Equal(u8) {
		t.Errorf("TestUnifyAnyAndEmpty: Unify(Empty, U8) want U8, got %v err %v", got, err)
	}
}

func TestUnifyBaseMismatch(t *testing.T) {
	if _, err := Unify(BaseT(BaseU8), BaseT(BaseU16)); err == nil {
		t.Error("TestUnifyBaseMismatch: expected error unifying U8 and U16")
	}
}

func TestUnifyTuple(t *testing.T) {
	a := TupleType(BaseT(BaseU8), AnyType())
	b := TupleType(AnyType(), BaseT(BaseU16))
	got, err := Unify(a, b)
	if err != nil {
		t.Fatalf("TestUnifyTuple: unexpected error: %v", err)
	}
	elems := got.Tuple()
	if len(elems) != 2 {
		t.Fatalf("TestUnifyTuple: want arity 2, got %d", len(elems))
	}
	if b8, ok := elems[0].Base(); !ok || b8 != BaseU8 {
		t.Errorf("TestUnifyTuple: elem 0 want U8, got %v", elems[0])
	}
	if b16, ok := elems[1].Base(); !ok || b16 != BaseU16 {
		t.Errorf("TestUnifyTuple: elem 1 want U16, got %v", elems[1])
	}
}

func TestUnifyTupleArityMismatch(t *testing.T) {
	a := TupleType(BaseT(BaseU8))
	b := TupleType(BaseT(BaseU8), BaseT(BaseU8))
	if _, err := Unify(a, b); err == nil {
		t.Error("TestUnifyTupleArityMismatch: expected error on mismatched tuple arity")
	}
}

func TestUnifyRecordLabelMismatch(t *testing.T) {
	x, y := Intern("x"), Intern("y")
	a := RecordType(RecordFieldType{Label: x, Type: BaseT(BaseU8)})
	b := RecordType(RecordFieldType{Label: y, Type: BaseT(BaseU8)})
	if _, err := Unify(a, b); err == nil {
		t.Error("TestUnifyRecordLabelMismatch: expected error on mismatched record labels")
	}
}

func TestUnifyUnionMerge(t *testing.T) {
	x, y := Intern("x"), Intern("y")
	a := UnionType(UnionFieldType{Label: x, Type: BaseT(BaseU8)})
	b := UnionType(UnionFieldType{Label: y, Type: BaseT(BaseU16)})
	got, err := Unify(a, b)
	if err != nil {
		t.Fatalf("TestUnifyUnionMerge: unexpected error: %v", err)
	}
	if len(got.Union()) != 2 {
		t.Errorf("TestUnifyUnionMerge: want 2 union arms, got %d", len(got.Union()))
	}
}

func TestUnifySeqAndOption(t *testing.T) {
	a := SeqType(AnyType())
	b := SeqType(BaseT(BaseU8))
	got, err := Unify(a, b)
	if err != nil {
		t.Fatalf("TestUnifySeqAndOption: unexpected error: %v", err)
	}
	if base, ok := got.Elem().Base(); !ok || base != BaseU8 {
		t.Errorf("TestUnifySeqAndOption: want elem U8, got %v", got.Elem())
	}

	oa := OptionType(AnyType())
	ob := OptionType(BaseT(BaseBool))
	got2, err := Unify(oa, ob)
	if err != nil {
		t.Fatalf("TestUnifySeqAndOption: unexpected error on option unify: %v", err)
	}
	if base, ok := got2.Elem().Base(); !ok || base != BaseBool {
		t.Errorf("TestUnifySeqAndOption: want elem Bool, got %v", got2.Elem())
	}
}

func TestValueTypeEqual(t *testing.T) {
	a := TupleType(BaseT(BaseU8), BaseT(BaseU16))
	b := TupleType(BaseT(BaseU8), BaseT(BaseU16))
	c := TupleType(BaseT(BaseU8), BaseT(BaseU32))
	if !a.Equal(b) {
		t.Error("TestValueTypeEqual: expected a.Equal(b)")
	}
	if a.Equal(c) {
		t.Error("TestValueTypeEqual: expected a not to equal c")
	}
}
