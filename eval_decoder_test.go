package binform

import "testing"

func TestRepeatBetween(t *testing.T) {
	m := NewFormatModule()
	f := TupleF(RepeatBetweenF(LitU64(1), LitU64(3), IsBytes('A')), EndOfInputF())
	prog := compileRoot(t, m, f)

	v, n, err := prog.Run([]byte{'A', 'A'})
	if err != nil {
		t.Fatalf("TestRepeatBetween: unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("TestRepeatBetween: want consumed 2, got %d", n)
	}
	seq := v.Tuple()[0].Seq()
	if seq.Len() != 2 {
		t.Errorf("TestRepeatBetween: want 2 repetitions, got %d", seq.Len())
	}
}

func TestRepeatBetweenBelowMinimumFails(t *testing.T) {
	m := NewFormatModule()
	f := RepeatBetweenF(LitU64(2), LitU64(3), IsBytes('A'))
	prog := compileRoot(t, m, f)
	if _, _, err := prog.Run([]byte{'A'}); err == nil {
		t.Error("TestRepeatBetweenBelowMinimumFails: expected error when fewer than lo repetitions are available")
	}
}

func TestRepeatUntilLast(t *testing.T) {
	m := NewFormatModule()
	x := Intern("x")
	f := RepeatUntilLastF(x, Eq(Var(x), LitU8(0)), ByteIn(0, 255))
	prog := compileRoot(t, m, f)

	v, n, err := prog.Run([]byte{1, 2, 0, 9})
	if err != nil {
		t.Fatalf("TestRepeatUntilLast: unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("TestRepeatUntilLast: want consumed 3, got %d", n)
	}
	seq := v.Seq()
	want := []uint64{1, 2, 0}
	if seq.Len() != len(want) {
		t.Fatalf("TestRepeatUntilLast: want len %d, got %d", len(want), seq.Len())
	}
	for i, w := range want {
		if seq.At(i).Uint() != w {
			t.Errorf("TestRepeatUntilLast[%d]: want %d, got %d", i, w, seq.At(i).Uint())
		}
	}
}

func TestRepeatUntilSeq(t *testing.T) {
	m := NewFormatModule()
	xs := Intern("xs")
	f := RepeatUntilSeqF(xs, Eq(SeqLength(Var(xs)), LitU64(2)), ByteIn(0, 255))
	prog := compileRoot(t, m, f)

	v, n, err := prog.Run([]byte{5, 6, 7})
	if err != nil {
		t.Fatalf("TestRepeatUntilSeq: unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("TestRepeatUntilSeq: want consumed 2, got %d", n)
	}
	if v.Seq().Len() != 2 {
		t.Errorf("TestRepeatUntilSeq: want 2 elements, got %d", v.Seq().Len())
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	m := NewFormatModule()
	f := TupleF(PeekF(IsBytes('A')), IsBytes('A'))
	prog := compileRoot(t, m, f)

	_, n, err := prog.Run([]byte{'A'})
	if err != nil {
		t.Fatalf("TestPeekDoesNotConsume: unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("TestPeekDoesNotConsume: want total consumed 1 (peek then real read), got %d", n)
	}
}

func TestPeekNot(t *testing.T) {
	m := NewFormatModule()
	f := TupleF(PeekNotF(IsBytes('A')), IsBytes('B'))
	prog := compileRoot(t, m, f)

	if _, _, err := prog.Run([]byte{'B'}); err != nil {
		t.Errorf("TestPeekNot: expected PeekNot('A') to succeed when next byte is 'B': %v", err)
	}
	if _, _, err := prog.Run([]byte{'A'}); err == nil {
		t.Error("TestPeekNot: expected PeekNot('A') to fail when next byte is 'A'")
	}
}

// TestBitsModeEntersAndExitsCleanly exercises EnterBits/ExitBits
// around a child that never touches a bit-level read.
func TestBitsModeEntersAndExitsCleanly(t *testing.T) {
	m := NewFormatModule()
	f := BitsF(PosF())
	prog := compileRoot(t, m, f)

	v, n, err := prog.Run([]byte{0x01})
	if err != nil {
		t.Fatalf("TestBitsModeEntersAndExitsCleanly: unexpected error: %v", err)
	}
	if v.Uint() != 0 {
		t.Errorf("TestBitsModeEntersAndExitsCleanly: want position 0, got %d", v.Uint())
	}
	if n != 0 {
		t.Errorf("TestBitsModeEntersAndExitsCleanly: want no bytes consumed, got %d", n)
	}
}

// TestBitsModeReadsSingleBit exercises Byte(bs) inside Bits(f): each
// Byte consumes one LSB-first bit rather than a whole byte.
func TestBitsModeReadsSingleBit(t *testing.T) {
	m := NewFormatModule()
	f := BitsF(ByteIn(0, 255))
	prog := compileRoot(t, m, f)

	v, n, err := prog.Run([]byte{0x01})
	if err != nil {
		t.Fatalf("TestBitsModeReadsSingleBit: unexpected error: %v", err)
	}
	if v.Uint() != 1 {
		t.Errorf("TestBitsModeReadsSingleBit: want bit value 1, got %d", v.Uint())
	}
	if n != 1 {
		t.Errorf("TestBitsModeReadsSingleBit: want 1 byte consumed after rounding up on exit, got %d", n)
	}
}

// TestBitsModeReadsMultipleBits walks all eight LSB-first bits of a
// single byte via repeated Byte(bs) reads inside one Bits(f) scope.
func TestBitsModeReadsMultipleBits(t *testing.T) {
	m := NewFormatModule()
	fields := make([]Format, 8)
	for i := range fields {
		fields[i] = ByteIn(0, 1)
	}
	f := BitsF(TupleF(fields...))
	prog := compileRoot(t, m, f)

	v, n, err := prog.Run([]byte{0x01})
	if err != nil {
		t.Fatalf("TestBitsModeReadsMultipleBits: unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("TestBitsModeReadsMultipleBits: want 1 byte consumed, got %d", n)
	}
	elems := v.Tuple()
	want := []uint64{1, 0, 0, 0, 0, 0, 0, 0}
	for i, w := range want {
		if got := elems[i].Uint(); got != w {
			t.Errorf("TestBitsModeReadsMultipleBits: bit %d: want %d, got %d", i, w, got)
		}
	}
}

func TestWithRelativeOffset(t *testing.T) {
	m := NewFormatModule()
	f := TupleF(WithRelativeOffsetF(nil, LitU64(2), ByteIn(0, 255)), ByteIn(0, 255))
	prog := compileRoot(t, m, f)

	v, n, err := prog.Run([]byte{0xAA, 0xBB, 0xCC})
	if err != nil {
		t.Fatalf("TestWithRelativeOffset: unexpected error: %v", err)
	}
	elems := v.Tuple()
	if elems[0].Uint() != 0xCC {
		t.Errorf("TestWithRelativeOffset: want byte at offset 2 (0xCC), got 0x%X", elems[0].Uint())
	}
	if elems[1].Uint() != 0xAA {
		t.Errorf("TestWithRelativeOffset: want cursor restored to read 0xAA next, got 0x%X", elems[1].Uint())
	}
	if n != 1 {
		t.Errorf("TestWithRelativeOffset: want outer cursor advanced only past the untouched read, got %d", n)
	}
}

func TestForEachDoublesEachByte(t *testing.T) {
	m := NewFormatModule()
	xs := Intern("xs")
	x := Intern("x")
	f := MapF(
		RepeatCountF(LitU64(3), ByteIn(0, 255)),
		xs,
		ForEach(Var(xs), x, WrappingAdd(Var(x), Var(x))),
	)
	prog := compileRoot(t, m, f)

	v, _, err := prog.Run([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("TestForEachDoublesEachByte: unexpected error: %v", err)
	}
	seq := v.Seq()
	want := []uint64{2, 4, 6}
	for i, w := range want {
		if seq.At(i).Uint() != w {
			t.Errorf("TestForEachDoublesEachByte[%d]: want %d, got %d", i, w, seq.At(i).Uint())
		}
	}
}

func TestDecodeBytesNestedParse(t *testing.T) {
	m := NewFormatModule()
	lenLabel := Intern("len")
	rawLabel := Intern("raw")
	payload := Intern("payload")
	inner := TupleF(ByteIn(0, 255), ByteIn(0, 255))
	f := RecordF(
		RecordFormatField{Label: lenLabel, Format: ByteIn(0, 255)},
		RecordFormatField{Label: rawLabel, Format: RepeatCountF(AsU64(Var(lenLabel)), ByteIn(0, 255))},
		RecordFormatField{Label: payload, Format: DecodeBytesF(Var(rawLabel), inner)},
	)
	prog := compileRoot(t, m, f)

	v, n, err := prog.Run([]byte{2, 10, 20})
	if err != nil {
		t.Fatalf("TestDecodeBytesNestedParse: unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("TestDecodeBytesNestedParse: want consumed 3, got %d", n)
	}
	pv, ok := v.Field(payload)
	if !ok {
		t.Fatal("TestDecodeBytesNestedParse: missing payload field")
	}
	elems := pv.Tuple()
	if elems[0].Uint() != 10 || elems[1].Uint() != 20 {
		t.Errorf("TestDecodeBytesNestedParse: want (10, 20), got (%d, %d)", elems[0].Uint(), elems[1].Uint())
	}
}

func TestUnionNondetTrialAndBacktrack(t *testing.T) {
	m := NewFormatModule()
	aLabel, bLabel := Intern("a"), Intern("b")
	f := UnionNondetF(
		VariantF(aLabel, TupleF(IsBytes('A'), IsBytes('A'))),
		VariantF(bLabel, IsBytes('A')),
	)
	prog := compileRoot(t, m, f)

	v, n, err := prog.Run([]byte{'A'})
	if err != nil {
		t.Fatalf("TestUnionNondetTrialAndBacktrack: unexpected error: %v", err)
	}
	if v.Kind() != ValueVariant || v.Variant().Label != bLabel {
		t.Errorf("TestUnionNondetTrialAndBacktrack: want variant b after backtracking, got %+v", v)
	}
	if n != 1 {
		t.Errorf("TestUnionNondetTrialAndBacktrack: want cursor at 1 after backtrack, got %d", n)
	}
}

func TestLetViewAndWithView(t *testing.T) {
	m := NewFormatModule()
	viewName := Intern("buf")
	f := LetViewF(viewName, TupleF(
		SkipRemainderF(),
		WithViewF(viewName, ReadOffsetLen(LitU64(1), LitU64(2))),
	))
	prog := compileRoot(t, m, f)

	v, _, err := prog.Run([]byte{0xFF, 0xAA, 0xBB})
	if err != nil {
		t.Fatalf("TestLetViewAndWithView: unexpected error: %v", err)
	}
	seq := v.Tuple()[1].Seq()
	if seq.Len() != 2 || seq.At(0).Uint() != 0xAA || seq.At(1).Uint() != 0xBB {
		t.Errorf("TestLetViewAndWithView: want [0xAA, 0xBB], got %+v", seq.Strict())
	}
}

// TestItemVarArgsBindParameters exercises DefineFormatArgs/ItemVar
// argument passing: the caller's argument expression is evaluated
// against its own scope and bound to the callee's declared parameter
// name for the duration of the call.
func TestItemVarArgsBindParameters(t *testing.T) {
	m := NewFormatModule()
	x := Intern("x")
	ref, err := m.DefineFormatArgs("fromParam", []Label{x}, ComputeF(Var(x)))
	if err != nil {
		t.Fatalf("TestItemVarArgsBindParameters: DefineFormatArgs failed: %v", err)
	}

	f := TupleF(
		ItemVar(ref, []Expr{LitU64(7)}, nil),
		ItemVar(ref, []Expr{LitU64(42)}, nil),
	)
	prog := compileRoot(t, m, f)

	v, n, err := prog.Run(nil)
	if err != nil {
		t.Fatalf("TestItemVarArgsBindParameters: unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("TestItemVarArgsBindParameters: want 0 bytes consumed, got %d", n)
	}
	elems := v.Tuple()
	if elems[0].Uint() != 7 {
		t.Errorf("TestItemVarArgsBindParameters: want first call to see x=7, got %d", elems[0].Uint())
	}
	if elems[1].Uint() != 42 {
		t.Errorf("TestItemVarArgsBindParameters: want second call to see x=42, got %d", elems[1].Uint())
	}
}

// TestItemVarViewsRenamed exercises DefineFormatViews/ItemVar view
// passing: a caller-bound view is renamed to the callee's declared
// view-parameter name before the callee body runs.
func TestItemVarViewsRenamed(t *testing.T) {
	m := NewFormatModule()
	outer := Intern("outer")
	inner := Intern("inner")

	ref, err := m.DefineFormatViews("readInner", nil, []Label{inner}, WithViewF(inner, ReadOffsetLen(LitU64(1), LitU64(2))))
	if err != nil {
		t.Fatalf("TestItemVarViewsRenamed: DefineFormatViews failed: %v", err)
	}

	f := LetViewF(outer, TupleF(
		SkipRemainderF(),
		ItemVar(ref, nil, []ViewArg{{Param: inner, View: outer}}),
	))
	prog := compileRoot(t, m, f)

	v, _, err := prog.Run([]byte{0xFF, 0xAA, 0xBB})
	if err != nil {
		t.Fatalf("TestItemVarViewsRenamed: unexpected error: %v", err)
	}
	seq := v.Tuple()[1].Seq()
	if seq.Len() != 2 || seq.At(0).Uint() != 0xAA || seq.At(1).Uint() != 0xBB {
		t.Errorf("TestItemVarViewsRenamed: want [0xAA, 0xBB], got %+v", seq.Strict())
	}
}

func TestWhereRejectsFalsifiedPredicate(t *testing.T) {
	m := NewFormatModule()
	x := Intern("x")
	f := WhereF(ByteIn(0, 255), x, Lt(Var(x), LitU8(10)))
	prog := compileRoot(t, m, f)

	if _, _, err := prog.Run([]byte{5}); err != nil {
		t.Errorf("TestWhereRejectsFalsifiedPredicate: expected 5 < 10 to pass: %v", err)
	}
	if _, _, err := prog.Run([]byte{50}); err == nil {
		t.Error("TestWhereRejectsFalsifiedPredicate: expected 50 < 10 to fail")
	}
}

// TestFalsifiedWhereCarriesDistinctTraceID asserts that two separate
// Where fail-sites in the same module stamp distinct, nonzero trace
// ids, so a FalsifiedWhere error can be traced back to the compiled
// fail-edge that produced it.
func TestFalsifiedWhereCarriesDistinctTraceID(t *testing.T) {
	m := NewFormatModule()
	x, y := Intern("x"), Intern("y")
	f := TupleF(
		WhereF(ByteIn(0, 255), x, Lt(Var(x), LitU8(10))),
		WhereF(ByteIn(0, 255), y, Lt(Var(y), LitU8(10))),
	)
	prog := compileRoot(t, m, f)

	_, _, err1 := prog.Run([]byte{50, 5})
	de1, ok := err1.(*DecodeError)
	if !ok {
		t.Fatalf("TestFalsifiedWhereCarriesDistinctTraceID: want *DecodeError, got %T (%v)", err1, err1)
	}
	if de1.TraceID == 0 {
		t.Error("TestFalsifiedWhereCarriesDistinctTraceID: want nonzero trace id for the first Where")
	}

	_, _, err2 := prog.Run([]byte{5, 50})
	de2, ok := err2.(*DecodeError)
	if !ok {
		t.Fatalf("TestFalsifiedWhereCarriesDistinctTraceID: want *DecodeError, got %T (%v)", err2, err2)
	}
	if de2.TraceID == 0 {
		t.Error("TestFalsifiedWhereCarriesDistinctTraceID: want nonzero trace id for the second Where")
	}
	if de1.TraceID == de2.TraceID {
		t.Error("TestFalsifiedWhereCarriesDistinctTraceID: want distinct trace ids for distinct Where sites")
	}
}
