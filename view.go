package binform

/*
view.go implements View, the read-only (buffer, start-offset) handle
bound by LetView and consulted by WithView for random-access reads
independent of the moving cursor (spec.md §4.D "Views").
*/

import "encoding/binary"

// View is an immutable random-access handle into the buffer being
// parsed, anchored at the cursor offset active when it was captured.
type View struct {
	buffer      []byte
	startOffset int
}

// NewView captures a View at the given absolute start offset.
func NewView(buffer []byte, startOffset int) View {
	return View{buffer: buffer, startOffset: startOffset}
}

// ReadBytes reads length bytes starting at offset o relative to the
// view's start, without touching the moving cursor.
func (v View) ReadBytes(o, length int) ([]byte, error) {
	start := v.startOffset + o
	end := start + length
	if start < 0 || end > len(v.buffer) || length < 0 {
		return nil, newOverrunError(end-len(v.buffer), start)
	}
	return v.buffer[start:end], nil
}

// ReadArray reads n big-endian elements of the given width starting
// at offset o relative to the view's start, returning them as Values
// of the matching BaseType.
func (v View) ReadArray(o, n int, kind BaseType) ([]Value, error) {
	width := 1
	switch kind {
	case BaseU8:
		width = 1
	case BaseU16:
		width = 2
	case BaseU32:
		width = 4
	case BaseU64:
		width = 8
	default:
		return nil, mkerr("binform: ReadArray: unsupported element kind")
	}
	raw, err := v.ReadBytes(o, n*width)
	if err != nil {
		return nil, err
	}
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		chunk := raw[i*width : (i+1)*width]
		switch kind {
		case BaseU8:
			out[i] = NewU8(chunk[0])
		case BaseU16:
			out[i] = NewU16(binary.BigEndian.Uint16(chunk))
		case BaseU32:
			out[i] = NewU32(binary.BigEndian.Uint32(chunk))
		case BaseU64:
			out[i] = NewU64(binary.BigEndian.Uint64(chunk))
		}
	}
	return out, nil
}
