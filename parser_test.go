package binform

import "testing"

func TestParserViewStack(t *testing.T) {
	p := NewParser([]byte{1, 2, 3})
	name := Intern("v")
	depth := p.MarkViews()
	p.PushView(name, NewView(p.Buffer(), 1))
	if _, ok := p.LookupView(name); !ok {
		t.Fatal("TestParserViewStack: expected view to be found")
	}
	p.PopViewsTo(depth)
	if _, ok := p.LookupView(name); ok {
		t.Error("TestParserViewStack: expected view to be gone after PopViewsTo")
	}
}

func TestParserViewShadowing(t *testing.T) {
	p := NewParser([]byte{1, 2, 3})
	name := Intern("v")
	p.PushView(name, NewView(p.Buffer(), 0))
	p.PushView(name, NewView(p.Buffer(), 2))
	v, ok := p.LookupView(name)
	if !ok {
		t.Fatal("TestParserViewShadowing: expected lookup to succeed")
	}
	b, err := v.ReadBytes(0, 1)
	if err != nil || b[0] != 3 {
		t.Errorf("TestParserViewShadowing: expected innermost view anchored at 2, got %v err %v", b, err)
	}
}

func TestSubParserIsIndependent(t *testing.T) {
	outer := NewParser([]byte{1, 2, 3})
	outer.Cursor.ReadByte()
	sub := SubParser([]byte{9, 9})
	if sub.Cursor.Offset() != 0 {
		t.Errorf("TestSubParserIsIndependent: want sub-parser offset 0, got %d", sub.Cursor.Offset())
	}
	if outer.Cursor.Offset() != 1 {
		t.Errorf("TestSubParserIsIndependent: outer parser offset should be unaffected, got %d", outer.Cursor.Offset())
	}
}
