package binform

import (
	"strings"
	"testing"
)

func TestCollectHintsRecordAndOmit(t *testing.T) {
	lenLabel, rawLabel := Intern("len"), Intern("raw")
	f := RecordF(
		RecordFormatField{Label: lenLabel, Format: HintF(HintOmitF(), ByteIn(0, 255))},
		RecordFormatField{Label: rawLabel, Format: HintF(HintHexF(), ByteIn(0, 255))},
	)
	hm := CollectHints(f)

	if hm[lenLabel.String()].Kind != HintOmit {
		t.Errorf("TestCollectHintsRecordAndOmit: want Omit on %q, got %+v", lenLabel.String(), hm[lenLabel.String()])
	}
	if hm[rawLabel.String()].Kind != HintHex {
		t.Errorf("TestCollectHintsRecordAndOmit: want Hex on %q, got %+v", rawLabel.String(), hm[rawLabel.String()])
	}
}

func TestCollectHintsTupleIndices(t *testing.T) {
	f := TupleF(HintF(HintASCIIF(), ByteIn(0, 255)), ByteIn(0, 255))
	hm := CollectHints(f)
	if hm["0"].Kind != HintASCII {
		t.Errorf("TestCollectHintsTupleIndices: want ASCII at path \"0\", got %+v", hm["0"])
	}
	if _, ok := hm["1"]; ok {
		t.Error("TestCollectHintsTupleIndices: unhinted element should not appear in the map")
	}
}

func TestPrintTreeOmitsHintedField(t *testing.T) {
	secret, shown := Intern("secret"), Intern("shown")
	v := NewRecord(
		RecordField{Label: secret, Value: NewU8(9)},
		RecordField{Label: shown, Value: NewU8(5)},
	)
	ty := RecordType(
		RecordFieldType{Label: secret, Type: BaseT(BaseU8)},
		RecordFieldType{Label: shown, Type: BaseT(BaseU8)},
	)
	hm := HintMap{secret.String(): HintOmitF()}

	var sb strings.Builder
	if err := PrintTree(&sb, v, ty, hm); err != nil {
		t.Fatalf("TestPrintTreeOmitsHintedField: %v", err)
	}
	out := sb.String()
	if strings.Contains(out, secret.String()) {
		t.Errorf("TestPrintTreeOmitsHintedField: omitted field leaked into output: %q", out)
	}
	if !strings.Contains(out, shown.String()) {
		t.Errorf("TestPrintTreeOmitsHintedField: expected shown field in output: %q", out)
	}
}

func TestPrintTreeByteSeqHexWrapping(t *testing.T) {
	elems := make([]Value, 20)
	for i := range elems {
		elems[i] = NewU8(byte(i))
	}
	v := NewSeq(StrictSeq(elems))
	ty := SeqType(BaseT(BaseU8))

	var sb strings.Builder
	if err := PrintTree(&sb, v, ty, nil); err != nil {
		t.Fatalf("TestPrintTreeByteSeqHexWrapping: %v", err)
	}
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("TestPrintTreeByteSeqHexWrapping: want 2 wrapped lines for 20 bytes at width 16, got %d: %q", len(lines), sb.String())
	}
}

func TestPrintTreeHexHint(t *testing.T) {
	v := NewU8(255)
	ty := BaseT(BaseU8)
	hm := HintMap{"": HintHexF()}

	var sb strings.Builder
	if err := PrintTree(&sb, v, ty, hm); err != nil {
		t.Fatalf("TestPrintTreeHexHint: %v", err)
	}
	if !strings.Contains(sb.String(), "0xff") {
		t.Errorf("TestPrintTreeHexHint: want hex rendering, got %q", sb.String())
	}
}

func TestPrintFlatRecordAndVariant(t *testing.T) {
	nameLabel := Intern("name")
	v := NewVariant(nameLabel, NewU8(7))
	ty := UnionType(UnionFieldType{Label: nameLabel, Type: BaseT(BaseU8)})

	var sb strings.Builder
	if err := PrintFlat(&sb, v, ty, nil); err != nil {
		t.Fatalf("TestPrintFlatRecordAndVariant: %v", err)
	}
	want := nameLabel.String() + "(7)"
	if sb.String() != want {
		t.Errorf("TestPrintFlatRecordAndVariant: want %q, got %q", want, sb.String())
	}
}

func TestPrintFlatCompactByteSeq(t *testing.T) {
	v := NewSeq(StrictSeq([]Value{NewU8(0xAB), NewU8(0xCD)}))
	ty := SeqType(BaseT(BaseU8))
	hm := HintMap{"": HintCompactF()}

	var sb strings.Builder
	if err := PrintFlat(&sb, v, ty, hm); err != nil {
		t.Fatalf("TestPrintFlatCompactByteSeq: %v", err)
	}
	if sb.String() != "0xabcd" {
		t.Errorf("TestPrintFlatCompactByteSeq: want \"0xabcd\", got %q", sb.String())
	}
}

func TestPrintFlatLabelHintRenamesField(t *testing.T) {
	label := Intern("raw_count")
	v := NewRecord(RecordField{Label: label, Value: NewU8(3)})
	ty := RecordType(RecordFieldType{Label: label, Type: BaseT(BaseU8)})
	hm := HintMap{label.String(): HintLabelF("count")}

	var sb strings.Builder
	if err := PrintFlat(&sb, v, ty, hm); err != nil {
		t.Fatalf("TestPrintFlatLabelHintRenamesField: %v", err)
	}
	if sb.String() != "{count=3}" {
		t.Errorf("TestPrintFlatLabelHintRenamesField: want \"{count=3}\", got %q", sb.String())
	}
}

func TestPrintFlatOption(t *testing.T) {
	ty := OptionType(BaseT(BaseU8))

	var none strings.Builder
	if err := PrintFlat(&none, NewNone(), ty, nil); err != nil {
		t.Fatalf("TestPrintFlatOption: none: %v", err)
	}
	if none.String() != "None" {
		t.Errorf("TestPrintFlatOption: want \"None\", got %q", none.String())
	}

	var some strings.Builder
	if err := PrintFlat(&some, NewSome(NewU8(4)), ty, nil); err != nil {
		t.Fatalf("TestPrintFlatOption: some: %v", err)
	}
	if some.String() != "Some(4)" {
		t.Errorf("TestPrintFlatOption: want \"Some(4)\", got %q", some.String())
	}
}
