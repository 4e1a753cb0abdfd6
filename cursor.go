package binform

/*
cursor.go implements BufferOffset, the mutable byte/bit cursor at the
heart of the parse engine (spec.md §5). BufferOffset is exclusively
owned by the active parse and mutated only through methods that
enforce the lens discipline: slices may not overrun an enclosing
endpoint, PeekNot must be paired, and bits-mode must not nest.
*/

type lensKind uint8

const (
	lensSlice lensKind = iota
	lensPeek
	lensPeekNot
	lensAlts
)

type lens struct {
	kind       lensKind
	checkpoint int // byte offset to restore to (Peek, PeekNot, Alts)
	end        int // exclusive end offset (Slice)
}

/*
BufferOffset is a cursor into an immutable byte buffer, plus the
stacked lenses (§5's "Slice{endpoint}", "Peek{checkpoint}",
"PeekNot{checkpoint}", "Alts{checkpoint}") that bound and checkpoint
it, and the bits-mode state used while inside a Bits(F) region.
*/
type BufferOffset struct {
	buf    []byte
	offset int
	lenses []lens

	inBits bool
	bitPos uint8 // 0..7, LSB-first within the current byte
}

// NewBufferOffset returns a cursor positioned at the start of buf.
func NewBufferOffset(buf []byte) *BufferOffset {
	return &BufferOffset{buf: buf}
}

// Offset returns the current absolute byte offset.
func (c *BufferOffset) Offset() int { return c.offset }

// Len returns the total buffer length.
func (c *BufferOffset) Len() int { return len(c.buf) }

// localEnd returns the innermost Slice endpoint, or len(buf) if none.
func (c *BufferOffset) localEnd() int {
	for i := len(c.lenses) - 1; i >= 0; i-- {
		if c.lenses[i].kind == lensSlice {
			return c.lenses[i].end
		}
	}
	return len(c.buf)
}

// HasMoreData reports whether bytes remain before the local end.
func (c *BufferOffset) HasMoreData() bool { return c.offset < c.localEnd() }

// PeekByte returns the byte at the current offset without advancing.
func (c *BufferOffset) PeekByte() (byte, bool) {
	if c.offset >= c.localEnd() {
		return 0, false
	}
	return c.buf[c.offset], true
}

// PeekByteAt returns the byte at an arbitrary absolute offset,
// bounded by the buffer (not the local slice), for match-tree
// lookahead that may need to look past the current slice boundary
// only when no slice is open.
func (c *BufferOffset) PeekByteAt(off int) (byte, bool) {
	if off < 0 || off >= len(c.buf) {
		return 0, false
	}
	return c.buf[off], true
}

// InBits reports whether the cursor is currently inside a bits-mode
// region entered via EnterBits.
func (c *BufferOffset) InBits() bool { return c.inBits }

// ReadByte consumes and returns the byte at the current offset.
func (c *BufferOffset) ReadByte() (byte, error) {
	if c.inBits {
		return 0, mkerr("binform: ReadByte called while in bits-mode")
	}
	if c.offset >= c.localEnd() {
		return 0, newOverbyteError(c.offset)
	}
	b := c.buf[c.offset]
	c.offset++
	return b, nil
}

// ReadBit consumes and returns a single bit (0 or 1), LSB-first
// within the current byte. Requires bits-mode to be active.
func (c *BufferOffset) ReadBit() (uint8, error) {
	if !c.inBits {
		return 0, mkerr("binform: ReadBit called outside bits-mode")
	}
	if c.offset >= c.localEnd() {
		return 0, newOverbyteError(c.offset)
	}
	bit := (c.buf[c.offset] >> c.bitPos) & 1
	c.bitPos++
	if c.bitPos == 8 {
		c.bitPos = 0
		c.offset++
	}
	return bit, nil
}

// EnterBits switches the cursor into bits-mode; nesting is rejected.
func (c *BufferOffset) EnterBits() error {
	if c.inBits {
		return errorNestedBits
	}
	c.inBits = true
	c.bitPos = 0
	return nil
}

// ExitBits leaves bits-mode, rounding up to the next whole byte.
func (c *BufferOffset) ExitBits() error {
	if !c.inBits {
		return mkerr("binform: ExitBits called while not in bits-mode")
	}
	if c.bitPos != 0 {
		c.offset++
		c.bitPos = 0
	}
	c.inBits = false
	return nil
}

// Align advances the cursor to the next multiple of n bytes from the
// absolute buffer origin.
func (c *BufferOffset) Align(n int) {
	if n <= 1 {
		return
	}
	rem := c.offset % n
	if rem != 0 {
		c.offset += n - rem
	}
}

// SkipRemainder advances the cursor to the local end.
func (c *BufferOffset) SkipRemainder() { c.offset = c.localEnd() }

// SeekAbsolute moves the cursor to an arbitrary absolute offset, for
// WithRelativeOffset / view-based random access. It is not bounded by
// the local slice: spec.md §9 treats a target before or after the
// current cursor as allowed, pure random access via view semantics.
func (c *BufferOffset) SeekAbsolute(off int) { c.offset = off }

// OpenSlice pushes a Slice lens covering the next length bytes,
// rejecting a slice whose endpoint exceeds the nearest outer
// endpoint.
func (c *BufferOffset) OpenSlice(length int) error {
	end := c.offset + length
	if end > c.localEnd() {
		return newOverrunError(end-c.localEnd(), c.offset)
	}
	c.lenses = append(c.lenses, lens{kind: lensSlice, end: end})
	return nil
}

// CloseSlice pops the innermost Slice lens. When strict is true, the
// child format must have consumed every byte of the slice; either
// way the cursor is left exactly at the slice's declared end.
func (c *BufferOffset) CloseSlice(strict bool) error {
	n := len(c.lenses)
	if n == 0 || c.lenses[n-1].kind != lensSlice {
		return mkerr("binform: CloseSlice without matching OpenSlice")
	}
	end := c.lenses[n-1].end
	c.lenses = c.lenses[:n-1]
	if c.offset > end {
		return newOverrunError(c.offset-end, end)
	}
	if strict && c.offset < end {
		var trailing byte
		if c.offset < len(c.buf) {
			trailing = c.buf[c.offset]
		}
		return newTrailingError(trailing, c.offset)
	}
	c.offset = end
	return nil
}

// OpenPeek pushes a Peek checkpoint at the current offset.
func (c *BufferOffset) OpenPeek() {
	c.lenses = append(c.lenses, lens{kind: lensPeek, checkpoint: c.offset})
}

// ClosePeek pops the innermost Peek lens. On success the cursor is
// restored to the checkpoint; on failure the lens is still popped
// but the cursor is left at the point of failure, so the error
// propagates outward with a deterministic (if inner) position.
func (c *BufferOffset) ClosePeek(ok bool) {
	n := len(c.lenses)
	if n == 0 || c.lenses[n-1].kind != lensPeek {
		panic("binform: ClosePeek without matching OpenPeek")
	}
	checkpoint := c.lenses[n-1].checkpoint
	c.lenses = c.lenses[:n-1]
	if ok {
		c.offset = checkpoint
	}
}

// OpenPeekNot pushes a PeekNot checkpoint.
func (c *BufferOffset) OpenPeekNot() {
	c.lenses = append(c.lenses, lens{kind: lensPeekNot, checkpoint: c.offset})
}

// ClosePeekNot pops the innermost PeekNot lens, always restoring the
// cursor to the checkpoint regardless of the trial's outcome.
func (c *BufferOffset) ClosePeekNot() {
	n := len(c.lenses)
	if n == 0 || c.lenses[n-1].kind != lensPeekNot {
		panic("binform: ClosePeekNot without matching OpenPeekNot")
	}
	checkpoint := c.lenses[n-1].checkpoint
	c.lenses = c.lenses[:n-1]
	c.offset = checkpoint
}

// OpenAlt pushes an alternation checkpoint, used by UnionNondet
// between trial branches.
func (c *BufferOffset) OpenAlt() {
	c.lenses = append(c.lenses, lens{kind: lensAlts, checkpoint: c.offset})
}

// RestoreAlt restores the cursor to the innermost Alts checkpoint
// without popping it, so the next branch can try from the same
// starting point.
func (c *BufferOffset) RestoreAlt() {
	n := len(c.lenses)
	if n == 0 || c.lenses[n-1].kind != lensAlts {
		panic("binform: RestoreAlt without matching OpenAlt")
	}
	c.offset = c.lenses[n-1].checkpoint
}

// CloseAlt pops the innermost Alts lens, keeping the current offset
// (called once a branch has succeeded).
func (c *BufferOffset) CloseAlt() {
	n := len(c.lenses)
	if n == 0 || c.lenses[n-1].kind != lensAlts {
		panic("binform: CloseAlt without matching OpenAlt")
	}
	c.lenses = c.lenses[:n-1]
}
