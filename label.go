package binform

/*
label.go implements Label, the interned-string identifier used for
record field names, union/variant tags, and named format arguments.
Labels are immutable once interned; comparing two Labels is an
integer comparison, which keeps match-tree merges and decoder
compilation memoization (both label-keyed, both hot) off the string
comparison path.
*/

import "sync"

// Label is an interned identifier. The zero Label is not a valid
// interned string; always obtain one through Intern.
type Label uint32

var labelTable = struct {
	sync.RWMutex
	byString map[string]Label
	byLabel  []string
}{
	byString: map[string]Label{"": 0},
	byLabel:  []string{""},
}

// Intern returns the Label for s, assigning a fresh id on first use.
func Intern(s string) Label {
	labelTable.RLock()
	if id, ok := labelTable.byString[s]; ok {
		labelTable.RUnlock()
		return id
	}
	labelTable.RUnlock()

	labelTable.Lock()
	defer labelTable.Unlock()
	if id, ok := labelTable.byString[s]; ok {
		return id
	}
	id := Label(len(labelTable.byLabel))
	labelTable.byLabel = append(labelTable.byLabel, s)
	labelTable.byString[s] = id
	return id
}

// String returns the interned string for l.
func (l Label) String() string {
	labelTable.RLock()
	defer labelTable.RUnlock()
	if int(l) >= len(labelTable.byLabel) {
		return "<bad-label>"
	}
	return labelTable.byLabel[l]
}

// HasPrefix reports whether l's interned string starts with pfx.
func (l Label) HasPrefix(pfx string) bool {
	return hasPfx(l.String(), pfx)
}

// IsHidden reports whether l names a field elided from exposed
// records: either the wildcard "__*" form (parsed, never surfaced)
// or the single-underscore "_*" form (parsed, bound in scope for
// subsequent field expressions, elided from the result).
func (l Label) IsHidden() bool { return l.HasPrefix("_") }

// IsDoubleHidden reports whether l uses the "__" form: parsed and
// bound into scope like any other field, but never surfaced.
func (l Label) IsDoubleHidden() bool { return l.HasPrefix("__") }
