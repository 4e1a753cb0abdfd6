package binform

import "testing"

func TestValueBaseAccessors(t *testing.T) {
	if v := NewU8(200); v.Uint() != 200 {
		t.Errorf("TestValueBaseAccessors: want 200, got %d", v.Uint())
	}
	if v := NewBool(true); !v.Bool() {
		t.Error("TestValueBaseAccessors: want true")
	}
	if v := NewChar('x'); v.Char() != 'x' {
		t.Errorf("TestValueBaseAccessors: want 'x', got %q", v.Char())
	}
}

func TestValueRecordField(t *testing.T) {
	name := Intern("name")
	v := NewRecord(RecordField{Label: name, Value: NewU8(7)})
	f, ok := v.Field(name)
	if !ok {
		t.Fatal("TestValueRecordField: missing field")
	}
	if f.Uint() != 7 {
		t.Errorf("TestValueRecordField: want 7, got %d", f.Uint())
	}
	if _, ok := v.Field(Intern("missing")); ok {
		t.Error("TestValueRecordField: expected missing field to be absent")
	}
}

func TestValueSeqDup(t *testing.T) {
	s := DupSeq(3, NewU8(9))
	if s.Len() != 3 {
		t.Errorf("TestValueSeqDup: want len 3, got %d", s.Len())
	}
	for i := 0; i < 3; i++ {
		if s.At(i).Uint() != 9 {
			t.Errorf("TestValueSeqDup[%d]: want 9, got %d", i, s.At(i).Uint())
		}
	}
	strict := s.Strict()
	if len(strict) != 3 {
		t.Errorf("TestValueSeqDup: Strict() want len 3, got %d", len(strict))
	}
}

func TestValueSeqStrict(t *testing.T) {
	s := StrictSeq([]Value{NewU8(1), NewU8(2)})
	if s.IsDup() {
		t.Error("TestValueSeqStrict: expected non-dup sequence")
	}
	if s.At(1).Uint() != 2 {
		t.Errorf("TestValueSeqStrict: want 2, got %d", s.At(1).Uint())
	}
}

func TestValueOption(t *testing.T) {
	some := NewSome(NewU8(5))
	inner, ok := some.Option()
	if !ok || inner.Uint() != 5 {
		t.Errorf("TestValueOption: want Some(5), got ok=%v inner=%v", ok, inner)
	}
	none := NewNone()
	if _, ok := none.Option(); ok {
		t.Error("TestValueOption: expected None to report absent")
	}
}

func TestValueClone(t *testing.T) {
	orig := NewTuple(NewU8(1), NewRecord(RecordField{Label: Intern("a"), Value: NewU8(2)}))
	clone := orig.Clone()
	origTuple := orig.Tuple()
	cloneTuple := clone.Tuple()
	if len(origTuple) != len(cloneTuple) {
		t.Fatalf("TestValueClone: tuple length mismatch")
	}
	if cloneTuple[0].Uint() != 1 {
		t.Errorf("TestValueClone: want 1, got %d", cloneTuple[0].Uint())
	}
	f, ok := cloneTuple[1].Field(Intern("a"))
	if !ok || f.Uint() != 2 {
		t.Errorf("TestValueClone: nested record field lost, got ok=%v f=%v", ok, f)
	}
}

func TestValuePanicsOnWrongAccessor(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("TestValuePanicsOnWrongAccessor: expected panic calling Bool() on a Tuple value")
		}
	}()
	NewTuple().Bool()
}
