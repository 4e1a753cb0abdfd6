package binform

import "testing"

func TestViewReadBytesRelativeToStart(t *testing.T) {
	buf := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0xFF}
	v := NewView(buf, 2)

	got, err := v.ReadBytes(0, 2)
	if err != nil {
		t.Fatalf("TestViewReadBytesRelativeToStart: %v", err)
	}
	if got[0] != 0xBE || got[1] != 0xEF {
		t.Errorf("TestViewReadBytesRelativeToStart: want [0xBE 0xEF], got %X", got)
	}
}

func TestViewReadBytesOutOfRange(t *testing.T) {
	v := NewView([]byte{1, 2, 3}, 1)
	if _, err := v.ReadBytes(0, 10); err == nil {
		t.Error("TestViewReadBytesOutOfRange: expected overrun error")
	}
	if _, err := v.ReadBytes(-5, 1); err == nil {
		t.Error("TestViewReadBytesOutOfRange: expected error for negative absolute start")
	}
}

func TestViewReadArrayWidths(t *testing.T) {
	buf := []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x03}
	v := NewView(buf, 0)

	u16s, err := v.ReadArray(0, 2, BaseU16)
	if err != nil {
		t.Fatalf("TestViewReadArrayWidths: u16: %v", err)
	}
	if u16s[0].Uint() != 1 || u16s[1].Uint() != 2 {
		t.Errorf("TestViewReadArrayWidths: want [1 2], got [%d %d]", u16s[0].Uint(), u16s[1].Uint())
	}

	u32s, err := v.ReadArray(4, 1, BaseU32)
	if err != nil {
		t.Fatalf("TestViewReadArrayWidths: u32: %v", err)
	}
	if u32s[0].Uint() != 3 {
		t.Errorf("TestViewReadArrayWidths: want 3, got %d", u32s[0].Uint())
	}
}

func TestViewReadArrayUnsupportedKind(t *testing.T) {
	v := NewView([]byte{1, 2, 3, 4}, 0)
	if _, err := v.ReadArray(0, 1, BaseBool); err == nil {
		t.Error("TestViewReadArrayUnsupportedKind: expected error for non-integer element kind")
	}
}
