package binform

import "testing"

func TestCursorReadByte(t *testing.T) {
	c := NewBufferOffset([]byte{1, 2, 3})
	for idx, want := range []byte{1, 2, 3} {
		b, err := c.ReadByte()
		if err != nil {
			t.Fatalf("TestCursorReadByte[%d]: unexpected error: %v", idx, err)
		}
		if b != want {
			t.Errorf("TestCursorReadByte[%d]: want %d, got %d", idx, want, b)
		}
	}
	if _, err := c.ReadByte(); err == nil {
		t.Error("TestCursorReadByte: expected error reading past end")
	}
}

func TestCursorSlice(t *testing.T) {
	c := NewBufferOffset([]byte{1, 2, 3, 4, 5})
	if err := c.OpenSlice(2); err != nil {
		t.Fatalf("TestCursorSlice: OpenSlice failed: %v", err)
	}
	if _, err := c.ReadByte(); err != nil {
		t.Fatalf("TestCursorSlice: unexpected error: %v", err)
	}
	if _, err := c.ReadByte(); err != nil {
		t.Fatalf("TestCursorSlice: unexpected error: %v", err)
	}
	if err := c.CloseSlice(true); err != nil {
		t.Fatalf("TestCursorSlice: CloseSlice strict failed: %v", err)
	}
	if c.Offset() != 2 {
		t.Errorf("TestCursorSlice: want offset 2, got %d", c.Offset())
	}
}

func TestCursorSliceOverrun(t *testing.T) {
	c := NewBufferOffset([]byte{1, 2, 3})
	if err := c.OpenSlice(10); err == nil {
		t.Error("TestCursorSliceOverrun: expected error opening slice past buffer end")
	}
}

func TestCursorSliceTrailing(t *testing.T) {
	c := NewBufferOffset([]byte{1, 2, 3, 4})
	if err := c.OpenSlice(3); err != nil {
		t.Fatalf("TestCursorSliceTrailing: OpenSlice failed: %v", err)
	}
	if _, err := c.ReadByte(); err != nil {
		t.Fatalf("TestCursorSliceTrailing: unexpected error: %v", err)
	}
	if err := c.CloseSlice(true); err == nil {
		t.Error("TestCursorSliceTrailing: expected trailing-byte error under strict close")
	}
}

func TestCursorPeek(t *testing.T) {
	c := NewBufferOffset([]byte{1, 2, 3})
	c.OpenPeek()
	c.ReadByte()
	c.ReadByte()
	c.ClosePeek(true)
	if c.Offset() != 0 {
		t.Errorf("TestCursorPeek: want offset restored to 0, got %d", c.Offset())
	}
}

func TestCursorPeekNot(t *testing.T) {
	c := NewBufferOffset([]byte{1, 2, 3})
	c.OpenPeekNot()
	c.ReadByte()
	c.ClosePeekNot()
	if c.Offset() != 0 {
		t.Errorf("TestCursorPeekNot: want offset restored to 0, got %d", c.Offset())
	}
}

func TestCursorAlt(t *testing.T) {
	c := NewBufferOffset([]byte{1, 2, 3})
	c.OpenAlt()
	c.ReadByte()
	c.RestoreAlt()
	if c.Offset() != 0 {
		t.Errorf("TestCursorAlt: want offset restored to 0 after RestoreAlt, got %d", c.Offset())
	}
	c.ReadByte()
	c.CloseAlt()
	if c.Offset() != 1 {
		t.Errorf("TestCursorAlt: want offset 1 after CloseAlt, got %d", c.Offset())
	}
}

func TestCursorBits(t *testing.T) {
	c := NewBufferOffset([]byte{0x01})
	if err := c.EnterBits(); err != nil {
		t.Fatalf("TestCursorBits: EnterBits failed: %v", err)
	}
	for idx, want := range []uint8{1, 0, 0, 0, 0, 0, 0, 0} {
		bit, err := c.ReadBit()
		if err != nil {
			t.Fatalf("TestCursorBits[%d]: unexpected error: %v", idx, err)
		}
		if bit != want {
			t.Errorf("TestCursorBits[%d]: want %d, got %d", idx, want, bit)
		}
	}
	if err := c.ExitBits(); err != nil {
		t.Fatalf("TestCursorBits: ExitBits failed: %v", err)
	}
	if c.Offset() != 1 {
		t.Errorf("TestCursorBits: want offset 1 after exiting bits-mode, got %d", c.Offset())
	}
}

func TestCursorNestedBitsRejected(t *testing.T) {
	c := NewBufferOffset([]byte{0x00})
	if err := c.EnterBits(); err != nil {
		t.Fatalf("TestCursorNestedBitsRejected: unexpected error: %v", err)
	}
	if err := c.EnterBits(); err == nil {
		t.Error("TestCursorNestedBitsRejected: expected error on nested EnterBits")
	}
}

func TestCursorAlign(t *testing.T) {
	c := NewBufferOffset(make([]byte, 16))
	c.ReadByte()
	c.Align(4)
	if c.Offset() != 4 {
		t.Errorf("TestCursorAlign: want offset 4, got %d", c.Offset())
	}
	c.Align(4)
	if c.Offset() != 4 {
		t.Errorf("TestCursorAlign: Align on already-aligned offset should be a no-op, got %d", c.Offset())
	}
}

func TestCursorSkipRemainder(t *testing.T) {
	c := NewBufferOffset([]byte{1, 2, 3, 4})
	c.OpenSlice(3)
	c.SkipRemainder()
	if c.Offset() != 3 {
		t.Errorf("TestCursorSkipRemainder: want offset 3, got %d", c.Offset())
	}
}
