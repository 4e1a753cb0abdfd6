package binform

import "testing"

func TestRunWithLocSpans(t *testing.T) {
	m := NewFormatModule()
	rec := TupleF(ByteIn(0, 255), ByteIn(0, 255))
	prog := compileRoot(t, m, rec)

	pv, n, err := prog.RunWithLoc([]byte{9, 10})
	if err != nil {
		t.Fatalf("TestRunWithLocSpans: unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("TestRunWithLocSpans: want consumed 2, got %d", n)
	}
	if pv.Span.Start != 0 || pv.Span.End != 2 {
		t.Errorf("TestRunWithLocSpans: want outer span [0,2), got %+v", pv.Span)
	}
	if len(pv.Tuple) != 2 {
		t.Fatalf("TestRunWithLocSpans: want 2 tuple elements, got %d", len(pv.Tuple))
	}
	if pv.Tuple[0].Value.Uint() != 9 || pv.Tuple[1].Value.Uint() != 10 {
		t.Errorf("TestRunWithLocSpans: unexpected tuple payload: %+v", pv.Tuple)
	}
}

func TestRunAndValidate(t *testing.T) {
	m := NewFormatModule()
	f := ValidateF(ByteIn(0, 255), "always-fails", LitBool(false))
	prog := compileRoot(t, m, f)

	v, failures, err := prog.RunAndValidate([]byte{1})
	if err != nil {
		t.Fatalf("TestRunAndValidate: unexpected parse error: %v", err)
	}
	if v.Uint() != 1 {
		t.Errorf("TestRunAndValidate: want parsed value 1, got %d", v.Uint())
	}
	if len(failures) != 1 || failures[0].Name != "always-fails" {
		t.Errorf("TestRunAndValidate: want 1 failure named always-fails, got %+v", failures)
	}
}

func TestRunOnMalformedInputReportsOffset(t *testing.T) {
	m := NewFormatModule()
	prog := compileRoot(t, m, TupleF(IsBytes('A', 'B'), EndOfInputF()))

	_, n, err := prog.Run([]byte{'A', 'X'})
	if err == nil {
		t.Fatal("TestRunOnMalformedInputReportsOffset: expected error on mismatched byte")
	}
	if n != 2 {
		t.Errorf("TestRunOnMalformedInputReportsOffset: want cursor advanced past the rejected byte to offset 2, got %d", n)
	}
}
