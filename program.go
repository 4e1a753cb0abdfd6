package binform

/*
program.go implements Program, the result of Compiler.Compile, and the
two run entry points spec.md §6 names: Run (a bare Value) and
RunWithLoc (a ParsedValue tree additionally tagged with each
sub-value's source byte span). It also drives the opt-in post-parse
Validate pass the Validate combinator defers to (SPEC_FULL.md §5).
*/

// Program is the compiled, immutable artifact Compiler.Compile
// produces: a root Decoder plus the FormatModule it was compiled
// against. A Program is read-only and safely shared across any number
// of concurrent Run calls (spec.md §5).
type Program struct {
	Module *FormatModule
	Root   *Decoder
}

// Run parses buf against the program's root decoder, returning the
// produced Value and the cursor's final byte offset.
func (prog *Program) Run(buf []byte) (Value, int, error) {
	p := NewParser(buf)
	scope := NewScope()
	v, err := evalDecoder(prog.Root, scope, p)
	if err != nil {
		return Value{}, p.Cursor.Offset(), err
	}
	return v, p.Cursor.Offset(), nil
}

// Span is a half-open [Start, End) byte range within the buffer a
// ParsedValue was produced from.
type Span struct {
	Start, End int
}

// ParsedValue pairs a Value with the byte span it was parsed from,
// recursively mirroring the Value's own shape.
type ParsedValue struct {
	Value Value
	Span  Span

	Tuple   []ParsedValue
	Record  []ParsedRecordField
	Variant *ParsedVariant
	Seq     []ParsedValue
}

// ParsedRecordField pairs a Label with its ParsedValue.
type ParsedRecordField struct {
	Label Label
	Value ParsedValue
}

// ParsedVariant carries a tagged ParsedValue payload.
type ParsedVariant struct {
	Label Label
	Value ParsedValue
}

// RunWithLoc parses buf exactly as Run does, but additionally tags
// every sub-value with the byte span it was produced from.
func (prog *Program) RunWithLoc(buf []byte) (ParsedValue, int, error) {
	p := NewParser(buf)
	scope := NewScope()
	pv, err := evalDecoderWithLoc(prog.Root, scope, p)
	if err != nil {
		return ParsedValue{}, p.Cursor.Offset(), err
	}
	return pv, p.Cursor.Offset(), nil
}

func evalDecoderWithLoc(d *Decoder, scope *Scope, p *Parser) (ParsedValue, error) {
	start := p.Cursor.Offset()
	v, err := evalDecoder(d, scope, p)
	if err != nil {
		return ParsedValue{}, err
	}
	end := p.Cursor.Offset()
	return wrapWithLoc(v, Span{Start: start, End: end}), nil
}

// wrapWithLoc recursively tags v's own shape with span, since the
// decoder evaluator only reports the span of the outermost call; a
// finer per-field span would require threading spans through every
// evalDecoder case. Composite sub-values share their parent's span as
// an approximation.
func wrapWithLoc(v Value, span Span) ParsedValue {
	pv := ParsedValue{Value: v, Span: span}
	switch v.Kind() {
	case ValueTuple:
		for _, e := range v.Tuple() {
			pv.Tuple = append(pv.Tuple, wrapWithLoc(e, span))
		}
	case ValueRecord:
		for _, f := range v.Record() {
			pv.Record = append(pv.Record, ParsedRecordField{Label: f.Label, Value: wrapWithLoc(f.Value, span)})
		}
	case ValueVariant:
		variant := v.Variant()
		pv.Variant = &ParsedVariant{Label: variant.Label, Value: wrapWithLoc(variant.Value, span)}
	case ValueSeq:
		seq := v.Seq()
		for i := 0; i < seq.Len(); i++ {
			pv.Seq = append(pv.Seq, wrapWithLoc(seq.At(i), span))
		}
	}
	return pv
}

// ValidationFailure names one Validate site whose checkExpr evaluated
// to false or errored.
type ValidationFailure struct {
	Name string
	Err  error
}

// Validate re-evaluates every Validate combinator's checkExpr against
// the scope captured at its parse site while p was driven (as
// RunAndValidate does; Run and RunWithLoc create their own Parser and
// do not expose it), returning every failure found. Validate never
// affects parsing itself; callers opt in by invoking it explicitly.
func (prog *Program) Validate(p *Parser) []ValidationFailure {
	var failures []ValidationFailure
	for _, pending := range p.validations {
		result, err := Eval(*pending.pred, pending.scope)
		if err != nil {
			failures = append(failures, ValidationFailure{Name: pending.name, Err: err})
			continue
		}
		if result.Kind() != ValueBase || !result.Bool() {
			failures = append(failures, ValidationFailure{Name: pending.name, Err: evalErr("Validate", pending.name+": check failed")})
		}
	}
	return failures
}

// RunAndValidate is a convenience wrapper running Run and then
// Validate against the same Parser, for callers who always want both.
func (prog *Program) RunAndValidate(buf []byte) (Value, []ValidationFailure, error) {
	p := NewParser(buf)
	scope := NewScope()
	v, err := evalDecoder(prog.Root, scope, p)
	if err != nil {
		return Value{}, nil, err
	}
	return v, prog.Validate(p), nil
}
