package binform

/*
printer.go implements the tree and flat printers spec.md §4.K
describes: presentation-only walks that pair a ValueType shape with
its Value payload, consulting a caller-supplied StyleHint map to
decide per-field formatting. Modeled on the teacher's dumpPacket/
dumpLevel/dumpHexLines recursion in pdu.go: an io.Writer sink, a
depth-keyed indent, and hex-line wrapping for raw byte runs, except
driven by (Value, ValueType) instead of a decoded TLV tree.
*/

import (
	"io"
)

// HintMap associates a StyleHint with a position in a Value tree,
// keyed by the dotted path CollectHints produces (record field
// labels and tuple/seq indices joined by "."). An empty or nil
// HintMap means "use default formatting everywhere".
type HintMap map[string]StyleHint

// CollectHints walks f's Format tree, recording every Hint(h, _)
// annotation under the dotted path of the node it wraps. Call this
// once per compiled Format (before Hint erasure in compileFormat
// strips the annotation from the Decoder tree) and pass the result to
// PrintTree/PrintFlat alongside the parsed Value.
func CollectHints(f Format) HintMap {
	hm := HintMap{}
	collectHints(f, "", hm)
	return hm
}

func collectHints(f Format, path string, hm HintMap) {
	if f.Kind == FmtHint {
		hm[path] = f.hint
		collectHints(*f.child, path, hm)
		return
	}
	switch f.Kind {
	case FmtTuple, FmtUnion, FmtUnionNondet:
		for i, c := range f.children {
			collectHints(c, joinPath(path, itoa(i)), hm)
		}
	case FmtRecord:
		for _, rf := range f.fields {
			collectHints(rf.Format, joinPath(path, rf.Label.String()), hm)
		}
	case FmtVariant, FmtWhere, FmtValidate, FmtMap, FmtRepeat, FmtRepeat1,
		FmtRepeatCount, FmtRepeatBetween, FmtRepeatUntilLast, FmtRepeatUntilSeq,
		FmtForEach, FmtSlice, FmtSliceUpTo, FmtPeek, FmtPeekNot, FmtBits,
		FmtWithRelativeOffset, FmtLetView:
		if f.child != nil {
			collectHints(*f.child, path, hm)
		}
	}
}

func joinPath(path, seg string) string {
	if path == "" {
		return seg
	}
	return path + "." + seg
}

func hintAt(hm HintMap, path string) StyleHint {
	if hm == nil {
		return StyleHint{}
	}
	return hm[path]
}

// PrintTree writes an indented, multi-line rendering of v (shaped by
// t) to w, one field per line, mirroring the teacher's dumpPacket
// nesting style. hints may be nil.
func PrintTree(w io.Writer, v Value, t ValueType, hints HintMap) error {
	return printTreeAt(w, v, t, hints, "", 0)
}

func printTreeAt(w io.Writer, v Value, t ValueType, hm HintMap, path string, depth int) error {
	hint := hintAt(hm, path)
	if hint.Kind == HintOmit {
		return nil
	}
	indent := strrpt("  ", depth)

	switch v.Kind() {
	case ValueBase:
		line := newStrBuilder()
		line.WriteString(indent)
		line.WriteString(formatBase(v, hint))
		line.WriteByte('\n')
		_, err := io.WriteString(w, line.String())
		return err

	case ValueTuple:
		if _, err := io.WriteString(w, indent+"(\n"); err != nil {
			return err
		}
		elemTypes := t.Tuple()
		for i, e := range v.Tuple() {
			var et ValueType
			if i < len(elemTypes) {
				et = elemTypes[i]
			}
			if err := printTreeAt(w, e, et, hm, joinPath(path, itoa(i)), depth+1); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, indent+")\n")
		return err

	case ValueRecord:
		if _, err := io.WriteString(w, indent+"{\n"); err != nil {
			return err
		}
		for _, f := range v.Record() {
			fieldPath := joinPath(path, f.Label.String())
			if hintAt(hm, fieldPath).Kind == HintOmit {
				continue
			}
			label := f.Label.String()
			if hintAt(hm, fieldPath).Kind == HintLabel {
				label = hintAt(hm, fieldPath).Name
			}
			if _, err := io.WriteString(w, strrpt("  ", depth+1)+label+":\n"); err != nil {
				return err
			}
			ft, _ := recordFieldType(t, f.Label)
			if err := printTreeAt(w, f.Value, ft, hm, fieldPath, depth+2); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, indent+"}\n")
		return err

	case ValueVariant:
		variant := v.Variant()
		if _, err := io.WriteString(w, indent+variant.Label.String()+":\n"); err != nil {
			return err
		}
		ut, _ := unionFieldType(t, variant.Label)
		return printTreeAt(w, variant.Value, ut, hm, joinPath(path, variant.Label.String()), depth+1)

	case ValueSeq:
		seq := v.Seq()
		if hint.Kind == HintCompact || isByteSeqType(t) {
			return printByteSeqHex(w, seq, indent)
		}
		if _, err := io.WriteString(w, indent+"[\n"); err != nil {
			return err
		}
		elemType := ValueType{}
		if t.Elem() != nil {
			elemType = *t.Elem()
		}
		for i := 0; i < seq.Len(); i++ {
			if err := printTreeAt(w, seq.At(i), elemType, hm, joinPath(path, itoa(i)), depth+1); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, indent+"]\n")
		return err

	case ValueOption:
		inner, ok := v.Option()
		if !ok {
			_, err := io.WriteString(w, indent+"None\n")
			return err
		}
		elemType := ValueType{}
		if t.Elem() != nil {
			elemType = *t.Elem()
		}
		return printTreeAt(w, inner, elemType, hm, path, depth)

	default:
		return nil
	}
}

func recordFieldType(t ValueType, label Label) (ValueType, bool) {
	for _, f := range t.Record() {
		if f.Label == label {
			return f.Type, true
		}
	}
	return ValueType{}, false
}

func unionFieldType(t ValueType, label Label) (ValueType, bool) {
	for _, f := range t.Union() {
		if f.Label == label {
			return f.Type, true
		}
	}
	return ValueType{}, false
}

func isByteSeqType(t ValueType) bool {
	if t.Kind != TypeSeq || t.Elem() == nil {
		return false
	}
	b, ok := t.Elem().Base()
	return ok && b == BaseU8
}

func formatBase(v Value, hint StyleHint) string {
	base, _ := v.Base()
	switch base {
	case BaseBool:
		return bool2str(v.Bool())
	case BaseChar:
		return string(v.Char())
	default:
		n := v.Uint()
		switch hint.Kind {
		case HintHex:
			return "0x" + hexU64(n)
		case HintASCII:
			if n < 128 {
				return string(rune(n))
			}
			return "0x" + hexU64(n)
		default:
			return itoa(int(n))
		}
	}
}

func hexU64(n uint64) string {
	const digits = "0123456789abcdef"
	if n == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = digits[n&0xF]
		n >>= 4
	}
	return string(buf[i:])
}

// printByteSeqHex renders a Seq(U8) as 16-byte hex lines, mirroring
// the teacher's dumpHexLines.
func printByteSeqHex(w io.Writer, seq SeqKind, indent string) error {
	const width = 16
	n := seq.Len()
	for i := 0; i < n; i += width {
		end := minInt(i+width, n)
		line := newStrBuilder()
		line.WriteString(indent)
		line.WriteString("  ")
		for j := i; j < end; j++ {
			if j > i {
				line.WriteByte(' ')
			}
			b, _ := v8(seq.At(j))
			line.WriteString(hexByte(b))
		}
		line.WriteByte('\n')
		if _, err := io.WriteString(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}

func v8(v Value) (byte, bool) {
	base, ok := v.Base()
	if !ok || base != BaseU8 {
		return 0, false
	}
	return byte(v.Uint()), true
}

// PrintFlat writes a single-line, machine-diffable rendering of v,
// omitting structural indentation, for use in compact logs and golden
// test output.
func PrintFlat(w io.Writer, v Value, t ValueType, hints HintMap) error {
	s, err := flatString(v, t, hints, "")
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

func flatString(v Value, t ValueType, hm HintMap, path string) (string, error) {
	hint := hintAt(hm, path)
	if hint.Kind == HintOmit {
		return "", nil
	}

	switch v.Kind() {
	case ValueBase:
		return formatBase(v, hint), nil

	case ValueTuple:
		elemTypes := t.Tuple()
		b := newStrBuilder()
		b.WriteByte('(')
		for i, e := range v.Tuple() {
			if i > 0 {
				b.WriteString(", ")
			}
			var et ValueType
			if i < len(elemTypes) {
				et = elemTypes[i]
			}
			s, err := flatString(e, et, hm, joinPath(path, itoa(i)))
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		b.WriteByte(')')
		return b.String(), nil

	case ValueRecord:
		b := newStrBuilder()
		b.WriteByte('{')
		first := true
		for _, f := range v.Record() {
			fieldPath := joinPath(path, f.Label.String())
			if hintAt(hm, fieldPath).Kind == HintOmit {
				continue
			}
			if !first {
				b.WriteString(", ")
			}
			first = false
			label := f.Label.String()
			if hintAt(hm, fieldPath).Kind == HintLabel {
				label = hintAt(hm, fieldPath).Name
			}
			ft, _ := recordFieldType(t, f.Label)
			s, err := flatString(f.Value, ft, hm, fieldPath)
			if err != nil {
				return "", err
			}
			b.WriteString(label)
			b.WriteByte('=')
			b.WriteString(s)
		}
		b.WriteByte('}')
		return b.String(), nil

	case ValueVariant:
		variant := v.Variant()
		ut, _ := unionFieldType(t, variant.Label)
		s, err := flatString(variant.Value, ut, hm, joinPath(path, variant.Label.String()))
		if err != nil {
			return "", err
		}
		return variant.Label.String() + "(" + s + ")", nil

	case ValueSeq:
		seq := v.Seq()
		if hint.Kind == HintCompact || isByteSeqType(t) {
			b := newStrBuilder()
			b.WriteString("0x")
			for i := 0; i < seq.Len(); i++ {
				by, _ := v8(seq.At(i))
				b.WriteString(hexByte(by))
			}
			return b.String(), nil
		}
		elemType := ValueType{}
		if t.Elem() != nil {
			elemType = *t.Elem()
		}
		b := newStrBuilder()
		b.WriteByte('[')
		for i := 0; i < seq.Len(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			s, err := flatString(seq.At(i), elemType, hm, joinPath(path, itoa(i)))
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		b.WriteByte(']')
		return b.String(), nil

	case ValueOption:
		inner, ok := v.Option()
		if !ok {
			return "None", nil
		}
		elemType := ValueType{}
		if t.Elem() != nil {
			elemType = *t.Elem()
		}
		s, err := flatString(inner, elemType, hm, path)
		if err != nil {
			return "", err
		}
		return "Some(" + s + ")", nil

	default:
		return "", nil
	}
}
