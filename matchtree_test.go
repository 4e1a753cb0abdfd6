package binform

import "testing"

func TestBuildMatchTreeDisambiguatesFirstByte(t *testing.T) {
	m := NewFormatModule()
	branches := []Format{IsBytes('A'), IsBytes('B')}

	tree, err := BuildMatchTree(m, branches, emptyNext, DefaultMatchTreeBudget)
	if err != nil {
		t.Fatalf("TestBuildMatchTreeDisambiguatesFirstByte: %v", err)
	}

	c := NewBufferOffset([]byte{'A'})
	branch, ok := tree.Decide(c)
	if !ok || branch != 0 {
		t.Errorf("TestBuildMatchTreeDisambiguatesFirstByte: want branch 0 for 'A', got %d ok=%v", branch, ok)
	}

	c2 := NewBufferOffset([]byte{'B'})
	branch2, ok2 := tree.Decide(c2)
	if !ok2 || branch2 != 1 {
		t.Errorf("TestBuildMatchTreeDisambiguatesFirstByte: want branch 1 for 'B', got %d ok=%v", branch2, ok2)
	}
}

func TestBuildMatchTreeRecursesOnSharedPrefix(t *testing.T) {
	m := NewFormatModule()
	branches := []Format{
		TupleF(IsBytes('X'), IsBytes('A')),
		TupleF(IsBytes('X'), IsBytes('B')),
	}

	tree, err := BuildMatchTree(m, branches, emptyNext, DefaultMatchTreeBudget)
	if err != nil {
		t.Fatalf("TestBuildMatchTreeRecursesOnSharedPrefix: %v", err)
	}

	c := NewBufferOffset([]byte{'X', 'B'})
	branch, ok := tree.Decide(c)
	if !ok || branch != 1 {
		t.Errorf("TestBuildMatchTreeRecursesOnSharedPrefix: want branch 1, got %d ok=%v", branch, ok)
	}
}

func TestBuildMatchTreeFailsOnAmbiguousAccept(t *testing.T) {
	m := NewFormatModule()
	branches := []Format{EndOfInputF(), EndOfInputF()}

	if _, err := BuildMatchTree(m, branches, emptyNext, DefaultMatchTreeBudget); err == nil {
		t.Error("TestBuildMatchTreeFailsOnAmbiguousAccept: expected error when two branches both accept with no further bytes")
	}
}

func TestBuildMatchTreeUnbuildableWithinBudget(t *testing.T) {
	m := NewFormatModule()
	branches := []Format{
		TupleF(IsBytes('X'), IsBytes('X'), IsBytes('A')),
		TupleF(IsBytes('X'), IsBytes('X'), IsBytes('B')),
	}

	if _, err := BuildMatchTree(m, branches, emptyNext, 1); err == nil {
		t.Error("TestBuildMatchTreeUnbuildableWithinBudget: expected failure when disambiguation needs more bytes than budget allows")
	}
}

func TestMatchTreeDecideReportsFailureOnExhaustedInput(t *testing.T) {
	m := NewFormatModule()
	branches := []Format{IsBytes('A'), IsBytes('B')}

	tree, err := BuildMatchTree(m, branches, emptyNext, DefaultMatchTreeBudget)
	if err != nil {
		t.Fatalf("TestMatchTreeDecideReportsFailureOnExhaustedInput: %v", err)
	}

	c := NewBufferOffset(nil)
	if _, ok := tree.Decide(c); ok {
		t.Error("TestMatchTreeDecideReportsFailureOnExhaustedInput: expected failure on empty input with no accept")
	}
}
