package binform

/*
parser.go implements Parser, the thin coordinator pairing a
BufferOffset cursor with the named-view bindings introduced by
LetView. Decoder evaluation (eval_decoder.go) drives a Parser
directly; Parser itself holds no format/program state.
*/

type viewEntry struct {
	name Label
	view View
}

// pendingValidation captures a Validate site's (name, predicate,
// scope-at-that-point) triple during a successful Run, deferred until
// Program.Validate is explicitly invoked (spec.md §9 Validate
// combinator: "behaves exactly like F during parsing"; checking is
// opt-in and never affects the parse itself).
type pendingValidation struct {
	name  string
	pred  *Expr
	scope *Scope
}

// Parser is the top-level handle the decoder evaluator advances
// while interpreting a compiled Program against one input buffer.
type Parser struct {
	Cursor      *BufferOffset
	views       []viewEntry
	validations []pendingValidation

	// stepBudget caps the number of evalDecoder calls a single Run may
	// perform (0 means unlimited), set via RunOption WithStepBudget.
	stepBudget int
	steps      int
}

// NewParser returns a Parser positioned at the start of buf.
func NewParser(buf []byte) *Parser {
	return &Parser{Cursor: NewBufferOffset(buf)}
}

// Buffer returns the full underlying byte buffer.
func (p *Parser) Buffer() []byte { return p.Cursor.buf }

// MarkViews returns the current view-stack depth, for PopViewsTo.
func (p *Parser) MarkViews() int { return len(p.views) }

// PushView binds name to view, shadowing any outer view of the same name.
func (p *Parser) PushView(name Label, v View) {
	p.views = append(p.views, viewEntry{name: name, view: v})
}

// PopViewsTo truncates the view stack back to depth.
func (p *Parser) PopViewsTo(depth int) { p.views = p.views[:depth] }

// LookupView searches innermost-first for a view bound to name.
func (p *Parser) LookupView(name Label) (View, bool) {
	for i := len(p.views) - 1; i >= 0; i-- {
		if p.views[i].name == name {
			return p.views[i].view, true
		}
	}
	return View{}, false
}

// SubParser opens an independent Parser over buf, used by
// DecodeBytes to parse a computed byte buffer without affecting the
// outer cursor.
func SubParser(buf []byte) *Parser { return NewParser(buf) }
