package binform

import "testing"

func TestScopePushLookup(t *testing.T) {
	s := NewScope()
	x := Intern("x")
	s.Push(x, NewU8(1))
	v, ok := s.Lookup(x)
	if !ok || v.Uint() != 1 {
		t.Errorf("TestScopePushLookup: want (1, true), got (%v, %v)", v, ok)
	}
}

func TestScopeShadowing(t *testing.T) {
	s := NewScope()
	x := Intern("x")
	s.Push(x, NewU8(1))
	s.Push(x, NewU8(2))
	v, _ := s.Lookup(x)
	if v.Uint() != 2 {
		t.Errorf("TestScopeShadowing: want innermost binding 2, got %d", v.Uint())
	}
}

func TestScopeMarkPopTo(t *testing.T) {
	s := NewScope()
	x, y := Intern("x"), Intern("y")
	s.Push(x, NewU8(1))
	depth := s.Mark()
	s.Push(y, NewU8(2))
	s.PopTo(depth)
	if _, ok := s.Lookup(y); ok {
		t.Error("TestScopeMarkPopTo: expected y to be unbound after PopTo")
	}
	if v, ok := s.Lookup(x); !ok || v.Uint() != 1 {
		t.Error("TestScopeMarkPopTo: expected x to remain bound")
	}
}

func TestScopeLookupUnbound(t *testing.T) {
	s := NewScope()
	if _, ok := s.Lookup(Intern("missing")); ok {
		t.Error("TestScopeLookupUnbound: expected missing name to be unbound")
	}
}

func TestScopeCacheDecoder(t *testing.T) {
	s := NewScope()
	name := Intern("n")
	s.Push(name, NewU8(0))
	d := &Decoder{Kind: DecEndOfInput}
	s.CacheDecoder(name, d)
	got, ok := s.CachedDecoder(name)
	if !ok || got != d {
		t.Errorf("TestScopeCacheDecoder: want cached decoder to round-trip, got %v %v", got, ok)
	}
}

func TestScopeCloneIsIndependent(t *testing.T) {
	s := NewScope()
	x := Intern("x")
	s.Push(x, NewU8(1))
	clone := s.Clone()
	clone.Push(Intern("y"), NewU8(2))
	if _, ok := s.Lookup(Intern("y")); ok {
		t.Error("TestScopeCloneIsIndependent: push on clone leaked into original")
	}
}
