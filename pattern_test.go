package binform

import "testing"

func TestPatternWildcardAndBind(t *testing.T) {
	scope := NewScope()
	if !PWildcard().Match(NewU8(5), scope) {
		t.Error("TestPatternWildcardAndBind: wildcard should always match")
	}
	x := Intern("x")
	if !PBind(x).Match(NewU8(9), scope) {
		t.Fatal("TestPatternWildcardAndBind: bind should always match")
	}
	v, ok := scope.Lookup(x)
	if !ok || v.Uint() != 9 {
		t.Errorf("TestPatternWildcardAndBind: want bound 9, got %v %v", v, ok)
	}
}

func TestPatternLiteral(t *testing.T) {
	scope := NewScope()
	if !PLiteral(NewU8(3)).Match(NewU8(3), scope) {
		t.Error("TestPatternLiteral: expected literal 3 to match 3")
	}
	if PLiteral(NewU8(3)).Match(NewU8(4), scope) {
		t.Error("TestPatternLiteral: expected literal 3 not to match 4")
	}
}

func TestPatternTuple(t *testing.T) {
	scope := NewScope()
	x := Intern("x")
	p := PTuple(PLiteral(NewU8(1)), PBind(x))
	v := NewTuple(NewU8(1), NewU8(2))
	if !p.Match(v, scope) {
		t.Fatal("TestPatternTuple: expected match")
	}
	got, ok := scope.Lookup(x)
	if !ok || got.Uint() != 2 {
		t.Errorf("TestPatternTuple: want x=2, got %v %v", got, ok)
	}

	if p.Match(NewTuple(NewU8(9), NewU8(2)), scope) {
		t.Error("TestPatternTuple: expected mismatch on first element")
	}
	if p.Match(NewTuple(NewU8(1)), scope) {
		t.Error("TestPatternTuple: expected mismatch on arity")
	}
}

func TestPatternSeq(t *testing.T) {
	scope := NewScope()
	p := PSeq(PLiteral(NewU8(1)), PLiteral(NewU8(2)))
	seq := NewSeq(StrictSeq([]Value{NewU8(1), NewU8(2)}))
	if !p.Match(seq, scope) {
		t.Error("TestPatternSeq: expected match")
	}
	short := NewSeq(StrictSeq([]Value{NewU8(1)}))
	if p.Match(short, scope) {
		t.Error("TestPatternSeq: expected length mismatch to fail")
	}
}

func TestPatternVariant(t *testing.T) {
	scope := NewScope()
	ok1 := Intern("ok")
	err1 := Intern("err")
	p := PVariant(ok1, PBind(Intern("v")))

	if !p.Match(NewVariant(ok1, NewU8(1)), scope) {
		t.Error("TestPatternVariant: expected matching label to succeed")
	}
	if p.Match(NewVariant(err1, NewU8(1)), scope) {
		t.Error("TestPatternVariant: expected mismatched label to fail")
	}
}

func TestPatternMatchFailureLeavesPartialBinding(t *testing.T) {
	scope := NewScope()
	x := Intern("x")
	p := PTuple(PBind(x), PLiteral(NewU8(99)))
	p.Match(NewTuple(NewU8(1), NewU8(2)), scope)
	if _, ok := scope.Lookup(x); !ok {
		t.Error("TestPatternMatchFailureLeavesPartialBinding: expected partial bind from first element to remain, caller pops via Mark/PopTo")
	}
}
