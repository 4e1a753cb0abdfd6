package binform

import "testing"

func TestStepOfEmptyAccepts(t *testing.T) {
	sb := &stepBuilder{module: NewFormatModule(), visiting: map[int]bool{}}
	step, err := sb.stepOf(emptyNext)
	if err != nil {
		t.Fatalf("TestStepOfEmptyAccepts: unexpected error: %v", err)
	}
	if !step.accept {
		t.Error("TestStepOfEmptyAccepts: expected accept=true for the empty continuation")
	}
	if len(step.branches) != 0 {
		t.Errorf("TestStepOfEmptyAccepts: expected no branches, got %d", len(step.branches))
	}
}

func TestStepOfByteClaimsItsSet(t *testing.T) {
	sb := &stepBuilder{module: NewFormatModule(), visiting: map[int]bool{}}
	n := catNext(ByteIn('A', 'Z'), emptyNext)
	step, err := sb.stepOf(n)
	if err != nil {
		t.Fatalf("TestStepOfByteClaimsItsSet: unexpected error: %v", err)
	}
	if step.accept {
		t.Error("TestStepOfByteClaimsItsSet: a mandatory byte read should not accept on zero bytes")
	}
	if len(step.branches) != 1 {
		t.Fatalf("TestStepOfByteClaimsItsSet: want 1 branch, got %d", len(step.branches))
	}
	if !step.branches[0].bytes.Contains('M') || step.branches[0].bytes.Contains('0') {
		t.Error("TestStepOfByteClaimsItsSet: branch byte set doesn't match the declared range")
	}
}

func TestStepOfUnionMergesDisjointBranches(t *testing.T) {
	sb := &stepBuilder{module: NewFormatModule(), visiting: map[int]bool{}}
	n := catNext(UnionF(IsBytes('A'), IsBytes('B')), emptyNext)
	step, err := sb.stepOf(n)
	if err != nil {
		t.Fatalf("TestStepOfUnionMergesDisjointBranches: unexpected error: %v", err)
	}
	total := 0
	for _, br := range step.branches {
		total += br.bytes.Len()
	}
	if total != 2 {
		t.Errorf("TestStepOfUnionMergesDisjointBranches: want 2 total claimed bytes, got %d", total)
	}
}

func TestStepOfFailIsDeadEnd(t *testing.T) {
	sb := &stepBuilder{module: NewFormatModule(), visiting: map[int]bool{}}
	n := catNext(FailF("unreachable"), emptyNext)
	step, err := sb.stepOf(n)
	if err != nil {
		t.Fatalf("TestStepOfFailIsDeadEnd: unexpected error: %v", err)
	}
	if step.accept || len(step.branches) != 0 {
		t.Error("TestStepOfFailIsDeadEnd: expected a dead Step: no accept, no branches")
	}
}

func TestStepOfSequenceChainsThroughTuple(t *testing.T) {
	sb := &stepBuilder{module: NewFormatModule(), visiting: map[int]bool{}}
	n := catNext(TupleF(IsBytes('X'), IsBytes('Y')), emptyNext)
	step, err := sb.stepOf(n)
	if err != nil {
		t.Fatalf("TestStepOfSequenceChainsThroughTuple: unexpected error: %v", err)
	}
	if len(step.branches) != 1 || !step.branches[0].bytes.Contains('X') {
		t.Errorf("TestStepOfSequenceChainsThroughTuple: want single branch on 'X', got %+v", step.branches)
	}
}

func TestMergeBranchIntoSplitsOverlap(t *testing.T) {
	existing := []stepBranch{{bytes: ByteRange(0, 10), next: emptyNext}}
	incoming := stepBranch{bytes: ByteRange(5, 15), next: emptyNext}
	merged := mergeBranchInto(existing, incoming)

	var total int
	for _, br := range merged {
		total += br.bytes.Len()
	}
	if total != 16 {
		t.Errorf("TestMergeBranchIntoSplitsOverlap: want union size 16, got %d", total)
	}
}
