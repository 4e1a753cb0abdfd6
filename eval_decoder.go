package binform

/*
eval_decoder.go implements the Decoder interpreter (spec.md §4.I):
evalDecoder(decoder, scope, parser) returns a Value, mirroring each
compiled constructor's Format-level contract (§4.D) translated into
operations on the parse engine (cursor.go, view.go, parser.go).
*/

func evalDecoder(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	debugDecode("eval", "kind", d.Kind, "offset", p.Cursor.Offset())
	if p.stepBudget > 0 {
		p.steps++
		if p.steps > p.stepBudget {
			return Value{}, newStepBudgetExceededError(p.Cursor.Offset())
		}
	}

	switch d.Kind {
	case DecCall, DecCallRec:
		return evalCall(d, scope, p)

	case DecFailWith:
		return Value{}, newFailError(d.msg, p.Cursor.Offset(), d.traceID)

	case DecEndOfInput:
		if p.Cursor.HasMoreData() {
			b, _ := p.Cursor.PeekByte()
			return Value{}, newTrailingError(b, p.Cursor.Offset())
		}
		return NewTuple(), nil

	case DecByte:
		off := p.Cursor.Offset()
		var b byte
		var err error
		if p.Cursor.InBits() {
			var bit uint8
			bit, err = p.Cursor.ReadBit()
			b = bit
		} else {
			b, err = p.Cursor.ReadByte()
		}
		if err != nil {
			return Value{}, err
		}
		if !d.bytes.Contains(b) {
			return Value{}, newUnexpectedError(b, firstByteOf(d.bytes), off)
		}
		return NewU8(b), nil

	case DecAlign:
		p.Cursor.Align(d.n)
		return NewTuple(), nil

	case DecSkipRemainder:
		p.Cursor.SkipRemainder()
		return NewTuple(), nil

	case DecPos:
		return NewU64(uint64(p.Cursor.Offset())), nil

	case DecCompute:
		return Eval(d.expr, scope)

	case DecVariant:
		v, err := evalDecoder(d.child, scope, p)
		if err != nil {
			return Value{}, err
		}
		return NewVariant(d.label, v), nil

	case DecBranch:
		return evalBranch(d, scope, p)

	case DecParallel:
		return evalParallel(d, scope, p)

	case DecTuple:
		elems := make([]Value, len(d.children))
		for i, c := range d.children {
			v, err := evalDecoder(c, scope, p)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return NewTuple(elems...), nil

	case DecRecord:
		return evalRecord(d, scope, p)

	case DecWhile:
		return evalWhile(d, scope, p)

	case DecUntil:
		return evalUntil(d, scope, p)

	case DecCount:
		return evalCount(d, scope, p)

	case DecBetween:
		return evalBetween(d, scope, p)

	case DecSlice:
		return evalSlice(d, scope, p)

	case DecPeek:
		p.Cursor.OpenPeek()
		v, err := evalDecoder(d.child, scope, p)
		p.Cursor.ClosePeek(err == nil)
		return v, err

	case DecPeekNot:
		p.Cursor.OpenPeekNot()
		_, err := evalDecoder(d.child, scope, p)
		off := p.Cursor.Offset()
		p.Cursor.ClosePeekNot()
		if err == nil {
			return Value{}, newNegatedSuccessError(off)
		}
		return NewTuple(), nil

	case DecBits:
		if err := p.Cursor.EnterBits(); err != nil {
			return Value{}, err
		}
		v, err := evalDecoder(d.child, scope, p)
		if exitErr := p.Cursor.ExitBits(); exitErr != nil && err == nil {
			err = exitErr
		}
		return v, err

	case DecWithRelativeOffset:
		return evalWithRelativeOffset(d, scope, p)

	case DecMap:
		v, err := evalDecoder(d.child, scope, p)
		if err != nil {
			return Value{}, err
		}
		depth := scope.Mark()
		scope.Push(d.bindName, v)
		out, err := Eval(*d.lambdaOut, scope)
		scope.PopTo(depth)
		return out, err

	case DecWhere:
		v, err := evalDecoder(d.child, scope, p)
		if err != nil {
			return Value{}, err
		}
		depth := scope.Mark()
		scope.Push(d.bindName, v)
		ok, err := Eval(*d.pred, scope)
		scope.PopTo(depth)
		if err != nil {
			return Value{}, err
		}
		if !ok.Bool() {
			return Value{}, newFalsifiedWhereError(p.Cursor.Offset(), d.traceID)
		}
		return v, nil

	case DecValidate:
		v, err := evalDecoder(d.child, scope, p)
		if err != nil {
			return Value{}, err
		}
		p.validations = append(p.validations, pendingValidation{
			name: d.checkName, pred: d.validator, scope: scope.Clone(),
		})
		return v, nil

	case DecMatch:
		return evalMatchDecoder(d, scope, p)

	case DecLetView:
		start := p.Cursor.Offset()
		depth := p.MarkViews()
		p.PushView(d.label, NewView(p.Buffer(), start))
		v, err := evalDecoder(d.child, scope, p)
		if err != nil {
			p.PopViewsTo(depth)
			return Value{}, err
		}
		return v, nil

	case DecReadFromView:
		return evalReadFromView(d, scope, p)

	case DecDecodeBytes:
		return evalDecodeBytes(d, scope, p)

	case DecForEach:
		return evalForEach(d, scope, p)

	default:
		return Value{}, evalErr("evalDecoder", "unhandled decoder kind")
	}
}

// evalCall evaluates a DecCall/DecCallRec node: d.args are evaluated
// against the caller's scope and bound to the callee's declared
// parameter names in a fresh Scope (formats called with arguments
// don't see the caller's ambient bindings, only their own params),
// and d.viewArgs renames caller-side views into the callee's declared
// view-parameter names for the duration of the call.
func evalCall(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	callScope := scope
	if len(d.params) > 0 {
		callScope = NewScope()
		for i, param := range d.params {
			var arg Value
			if i < len(d.args) {
				v, err := Eval(d.args[i], scope)
				if err != nil {
					return Value{}, err
				}
				arg = v
			}
			callScope.Push(param, arg)
		}
	}

	viewDepth := p.MarkViews()
	for _, va := range d.viewArgs {
		if v, ok := p.LookupView(va.View); ok {
			p.PushView(va.Param, v)
		}
	}
	v, err := evalDecoder(d.child, callScope, p)
	p.PopViewsTo(viewDepth)
	return v, err
}

func firstByteOf(bs ByteSet) byte {
	for i := 0; i < 256; i++ {
		if bs.Contains(byte(i)) {
			return byte(i)
		}
	}
	return 0
}

func evalBranch(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	branch, ok := d.tree.Decide(p.Cursor)
	if !ok {
		return Value{}, newNoValidBranchError(p.Cursor.Offset())
	}
	return evalDecoder(d.children[branch], scope, p)
}

func evalParallel(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	p.Cursor.OpenAlt()
	var lastErr error
	for i, c := range d.children {
		if i > 0 {
			p.Cursor.RestoreAlt()
		}
		depth := scope.Mark()
		v, err := evalDecoder(c, scope, p)
		if err == nil {
			p.Cursor.CloseAlt()
			return v, nil
		}
		lastErr = err
		scope.PopTo(depth)
	}
	p.Cursor.RestoreAlt()
	p.Cursor.CloseAlt()
	if lastErr == nil {
		lastErr = newNoValidBranchError(p.Cursor.Offset())
	}
	return Value{}, lastErr
}

func evalRecord(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	depth := scope.Mark()
	defer scope.PopTo(depth)

	var fields []RecordField
	for _, f := range d.fields {
		v, err := evalDecoder(f.Decoder, scope, p)
		if err != nil {
			return Value{}, err
		}
		scope.Push(f.Label, v)
		if !f.Label.IsDoubleHidden() {
			fields = append(fields, RecordField{Label: f.Label, Value: v})
		}
	}
	return NewRecord(fields...), nil
}

func evalWhile(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	var elems []Value
	for {
		branch, ok := d.tree.Decide(p.Cursor)
		if !ok {
			return Value{}, newNoValidBranchError(p.Cursor.Offset())
		}
		if branch == 1 {
			break
		}
		v, err := evalDecoder(d.child, scope, p)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
	if len(elems) < d.lo {
		return Value{}, newInsufficientRepeatsError(p.Cursor.Offset())
	}
	return NewSeq(StrictSeq(elems)), nil
}

func evalUntil(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	var elems []Value
	for {
		v, err := evalDecoder(d.child, scope, p)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)

		depth := scope.Mark()
		if d.lo == 1 {
			scope.Push(d.bindName, NewSeq(StrictSeq(elems)))
		} else {
			scope.Push(d.bindName, v)
		}
		stop, err := Eval(*d.pred, scope)
		scope.PopTo(depth)
		if err != nil {
			return Value{}, err
		}
		if stop.Bool() {
			break
		}
	}
	return NewSeq(StrictSeq(elems)), nil
}

func evalCount(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	nv, err := Eval(d.expr, scope)
	if err != nil {
		return Value{}, err
	}
	n := int(nv.Uint())
	elems := make([]Value, n)
	for i := 0; i < n; i++ {
		v, err := evalDecoder(d.child, scope, p)
		if err != nil {
			return Value{}, err
		}
		elems[i] = v
	}
	return NewSeq(StrictSeq(elems)), nil
}

func evalBetween(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	lov, err := Eval(d.expr, scope)
	if err != nil {
		return Value{}, err
	}
	hiv, err := Eval(*d.expr2, scope)
	if err != nil {
		return Value{}, err
	}
	lo, hi := int(lov.Uint()), int(hiv.Uint())

	var elems []Value
	for len(elems) < hi {
		branch, ok := d.tree.Decide(p.Cursor)
		if !ok {
			return Value{}, newNoValidBranchError(p.Cursor.Offset())
		}
		if branch == 1 {
			break
		}
		v, err := evalDecoder(d.child, scope, p)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
	if len(elems) < lo {
		return Value{}, newInsufficientRepeatsError(p.Cursor.Offset())
	}
	return NewSeq(StrictSeq(elems)), nil
}

func evalSlice(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	lenv, err := Eval(d.expr, scope)
	if err != nil {
		return Value{}, err
	}
	length := int(lenv.Uint())
	strict := d.lo == 1
	if err := p.Cursor.OpenSlice(length); err != nil {
		return Value{}, err
	}
	v, err := evalDecoder(d.child, scope, p)
	if err != nil {
		return Value{}, err
	}
	if err := p.Cursor.CloseSlice(strict); err != nil {
		return Value{}, err
	}
	return v, nil
}

func evalWithRelativeOffset(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	offv, err := Eval(d.expr, scope)
	if err != nil {
		return Value{}, err
	}
	base := 0
	if d.expr2 != nil {
		basev, err := Eval(*d.expr2, scope)
		if err != nil {
			return Value{}, err
		}
		base = int(basev.Uint())
	}
	saved := p.Cursor.Offset()
	p.Cursor.SeekAbsolute(base + int(offv.Uint()))
	v, err := evalDecoder(d.child, scope, p)
	p.Cursor.SeekAbsolute(saved)
	return v, err
}

func evalMatchDecoder(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	scrutinee, err := Eval(d.expr, scope)
	if err != nil {
		return Value{}, err
	}
	for _, arm := range d.matchArms {
		depth := scope.Mark()
		if arm.Pattern.Match(scrutinee, scope) {
			v, err := evalDecoder(arm.Decoder, scope, p)
			if err != nil {
				scope.PopTo(depth)
				return Value{}, err
			}
			return v, nil
		}
		scope.PopTo(depth)
	}
	return Value{}, newFailError("no match arm satisfied the scrutinee", p.Cursor.Offset(), d.traceID)
}

func evalReadFromView(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	v, ok := p.LookupView(d.label)
	if !ok {
		return Value{}, errorUnknownView
	}
	offv, err := Eval(d.viewFmt.Offset, scope)
	if err != nil {
		return Value{}, err
	}
	lenv, err := Eval(d.viewFmt.Len, scope)
	if err != nil {
		return Value{}, err
	}
	off, length := int(offv.Uint()), int(lenv.Uint())

	if d.viewFmt.Kind == ViewReadArray {
		elems, err := v.ReadArray(off, length, d.viewFmt.ArrayKind)
		if err != nil {
			return Value{}, err
		}
		return NewSeq(StrictSeq(elems)), nil
	}
	raw, err := v.ReadBytes(off, length)
	if err != nil {
		return Value{}, err
	}
	elems := make([]Value, len(raw))
	for i, b := range raw {
		elems[i] = NewU8(b)
	}
	return NewSeq(StrictSeq(elems)), nil
}

func evalDecodeBytes(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	bv, err := Eval(d.expr, scope)
	if err != nil {
		return Value{}, err
	}
	var buf []byte
	seq := bv.Seq()
	for i := 0; i < seq.Len(); i++ {
		buf = append(buf, byte(seq.At(i).Uint()))
	}
	sub := NewParser(buf)
	return evalDecoder(d.child, NewScope(), sub)
}

func evalForEach(d *Decoder, scope *Scope, p *Parser) (Value, error) {
	srcv, err := Eval(d.expr, scope)
	if err != nil {
		return Value{}, err
	}
	src := srcv.Seq()
	elems := make([]Value, src.Len())
	for i := 0; i < src.Len(); i++ {
		depth := scope.Mark()
		scope.Push(d.bindName, src.At(i))
		v, err := evalDecoder(d.child, scope, p)
		scope.PopTo(depth)
		if err != nil {
			return Value{}, err
		}
		elems[i] = v
	}
	return NewSeq(StrictSeq(elems)), nil
}
