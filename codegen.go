package binform

import (
	"fmt"

	"github.com/rs/zerolog"
)

/*
codegen.go implements GenerateCode, the code generator's top-level
pipeline (spec.md §4.J, §6 "generate_code(&module, &format) → tokens"):
build the type pool, lay out one function per compiled decoder call
site (mutually recursive DecCall sites produce mutually recursive
functions, exactly as the compiler's own ItemVar memoization groups
them), lower every embedded Expr, and apply the heap/read-width size
analyses per type-pool entry. The result is one monolithic compilation
unit of Go-flavored source text, deterministic in the tree-walk order
it is built (spec.md §8: repeated runs on the same input produce
identical text modulo whitespace).

The generated text is not meant to be handed to the Go toolchain: it
targets a small runtime prelude (cursor reads, slice/peek bracketing,
pattern matching) this package itself already implements in
cursor.go/eval_decoder.go, rendered as readable call names
(rt.ReadByte, matchValue, CheckedAdd, ...) rather than re-emitting that
machinery inline for every decoder.
*/

// GeneratedSource is the text artifact GenerateCode produces, plus the
// type pool it derived while producing it.
type GeneratedSource struct {
	Source string
	Types  *TypePool
}

func (g *GeneratedSource) String() string { return g.Source }

// codegen carries one GenerateCode run's mutable state. The per-run
// trace-id counter is deliberately a field here, not a package
// global: spec.md §9 calls out a per-compilation fail-site counter as
// the one piece of state this pipeline must not let leak across runs.
type codegen struct {
	pool *TypePool

	funcNames map[*Decoder]string
	order     []*Decoder
	visited   map[*Decoder]bool

	heapCache map[string]HeapLayout
	rwCache   map[string]ReadWidth

	variantDelta sizeUnit
	recordCutoff sizeUnit

	nextTraceID uint64
}

func (g *codegen) newTraceID() uint64 {
	g.nextTraceID++
	return g.nextTraceID
}

// GenerateCode compiles root against module with a fresh Compiler and
// lowers the result to source text. Pass zerolog.Nop() as logger to
// silence match-tree fallback warnings during compilation, same as
// NewCompiler.
func GenerateCode(module *FormatModule, root Format, logger zerolog.Logger, opts ...CompileOption) (*GeneratedSource, error) {
	c := NewCompiler(module, logger, opts...)
	prog, err := c.Compile(root)
	if err != nil {
		return nil, err
	}
	return GenerateFromProgram(prog)
}

// GenerateFromProgram lowers an already-compiled Program, for callers
// who want to generate code from the same Program they also Run
// directly (e.g. to assert the round-trip law of spec.md §8).
func GenerateFromProgram(prog *Program) (*GeneratedSource, error) {
	defer debugPath("GenerateCode")()

	g := &codegen{
		pool:         newTypePool(),
		funcNames:    map[*Decoder]string{},
		visited:      map[*Decoder]bool{},
		heapCache:    map[string]HeapLayout{},
		rwCache:      map[string]ReadWidth{},
		variantDelta: DefaultVariantDeltaThreshold,
		recordCutoff: DefaultRecordSizeCutoff,
	}

	rootName := "DecodeRoot"
	g.funcNames[prog.Root] = rootName
	g.order = append(g.order, prog.Root)
	g.discover(prog.Root, "")

	src, err := g.render()
	if err != nil {
		return nil, err
	}
	return &GeneratedSource{Source: src, Types: g.pool}, nil
}

// discover walks d's tree once, assigning every DecCall/DecCallRec
// target a stable function name (the unit of mutual recursion the
// compiler itself already grouped via its memo table) and interning
// every Type it sees into the type pool under the path it was found
// at. visited guards against infinite recursion through DecCallRec
// cycles; a decoder is only ever discovered once regardless of how
// many call sites share it.
func (g *codegen) discover(d *Decoder, path string) {
	if d == nil || g.visited[d] {
		return
	}
	g.visited[d] = true

	g.pool.intern(d.Type, PathLabel(path))

	switch d.Kind {
	case DecCall:
		target := d.child
		if _, ok := g.funcNames[target]; !ok {
			name := g.freshFuncName(fmt.Sprintf("Call%d", d.callIx))
			g.funcNames[target] = name
			g.order = append(g.order, target)
		}
		g.discover(target, path)

	case DecCallRec:
		// d.child already points at the placeholder the owning
		// DecCall registered; nothing further to name here.
		g.discover(d.child, path)

	case DecVariant:
		g.discover(d.child, joinPath(path, d.label.String()))

	case DecBranch, DecParallel:
		for i, c := range d.children {
			g.discover(c, joinPath(path, itoa(i)))
		}

	case DecTuple:
		for i, c := range d.children {
			g.discover(c, joinPath(path, itoa(i)))
		}

	case DecRecord:
		for _, f := range d.fields {
			g.discover(f.Decoder, joinPath(path, f.Label.String()))
		}

	case DecMatch:
		for _, arm := range d.matchArms {
			g.discover(arm.Decoder, path)
		}

	case DecWhile, DecUntil, DecCount, DecBetween, DecSlice, DecPeek, DecPeekNot,
		DecBits, DecWithRelativeOffset, DecMap, DecWhere, DecValidate, DecLetView,
		DecForEach:
		g.discover(d.child, path)

	case DecDecodeBytes:
		// d.child parses a freshly computed byte buffer through its own
		// sub-cursor (evalDecodeBytes starts a brand new Parser), so it
		// needs its own entry point rather than folding into the
		// caller's cursor-threaded statement stream.
		target := d.child
		if _, ok := g.funcNames[target]; !ok {
			name := g.freshFuncName("DecodeBytes")
			g.funcNames[target] = name
			g.order = append(g.order, target)
		}
		g.discover(target, path)

	default:
		// Leaf decoders (DecFailWith, DecEndOfInput, DecByte, DecAlign,
		// DecSkipRemainder, DecPos, DecCompute, DecReadFromView) have no
		// children to recurse into.
	}
}

func (g *codegen) freshFuncName(hint string) string {
	base := "decode" + capitalize(goIdent(hint))
	name := base
	taken := func(n string) bool {
		for _, v := range g.funcNames {
			if v == n {
				return true
			}
		}
		return false
	}
	for i := 2; taken(name); i++ {
		name = base + itoa(i)
	}
	return name
}

// render emits one function per entry in g.order, in discovery order,
// so output is deterministic across repeated runs on the same Program.
func (g *codegen) render() (string, error) {
	b := newStrBuilder()
	b.WriteString("// Code generated by GenerateCode. DO NOT EDIT.\n\n")
	b.WriteString(g.renderTypePool())
	b.WriteByte('\n')

	for _, d := range g.order {
		fn, err := g.renderFunc(g.funcNames[d], d)
		if err != nil {
			return "", err
		}
		b.WriteString(fn)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (g *codegen) renderTypePool() string {
	b := newStrBuilder()
	for _, name := range g.pool.Types() {
		shape := g.pool.Shape(name)
		rw := analyzeReadWidth(shape, g.rwCache)
		layout := analyzeHeap(shape, g.variantDelta, g.recordCutoff)
		b.WriteString(fmt.Sprintf("type %s = %s // estSize=%d heap=%s", name, goTypeExpr(shape, g.pool), layout.EstSize, heapActionWord(layout.Action)))
		if rw.Fixed {
			b.WriteString(fmt.Sprintf(" fixedSize=%d", rw.Bytes))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func heapActionWord(a HeapAction) string {
	switch a {
	case HeapBoxVariant:
		return "box-variant"
	case HeapBoxField:
		return "box-field"
	default:
		return "inline"
	}
}

// goTypeExpr renders a ValueType as a Go-flavored type expression,
// reusing the type pool's own names wherever a sub-shape was already
// interned under a different path.
func goTypeExpr(t ValueType, pool *TypePool) string {
	switch t.Kind {
	case TypeAny:
		return "any"
	case TypeEmpty:
		return "struct{}"
	case TypeBase:
		return goBaseName(t.base)
	case TypeTuple:
		b := newStrBuilder()
		b.WriteString("struct{ ")
		for i, e := range t.tuple {
			b.WriteString(fmt.Sprintf("F%d %s; ", i, goTypeExpr(e, pool)))
		}
		b.WriteString("}")
		return b.String()
	case TypeRecord:
		b := newStrBuilder()
		b.WriteString("struct{ ")
		for _, f := range t.record {
			b.WriteString(fmt.Sprintf("%s %s; ", capitalize(goIdent(f.Label.String())), goTypeExpr(f.Type, pool)))
		}
		b.WriteString("}")
		return b.String()
	case TypeUnion:
		b := newStrBuilder()
		b.WriteString("interface{ ")
		for _, f := range t.union {
			b.WriteString(fmt.Sprintf("%s(%s); ", capitalize(goIdent(f.Label.String())), goTypeExpr(f.Type, pool)))
		}
		b.WriteString("}")
		return b.String()
	case TypeSeq:
		return "[]" + goTypeExpr(*t.elem, pool)
	case TypeOption:
		return "*" + goTypeExpr(*t.elem, pool)
	default:
		return "any"
	}
}

// renderFunc emits one decode function for the decoder named fn: a
// signature returning (<type>, error), a body lowering d's semantics
// statement by statement, and an early-return on every failure path
// (spec.md §4.J step 4's error model). Generated functions take the
// same *Parser handle eval_decoder.go threads, not a bare cursor,
// since DecLetView/DecReadFromView/DecDecodeBytes need the view stack
// and sub-parser machinery Parser itself owns.
func (g *codegen) renderFunc(fn string, d *Decoder) (string, error) {
	rt := newReturnType(d.Type, g.pool)
	body := newFuncBody(g, rt)
	expr, err := body.lower(d)
	if err != nil {
		return "", err
	}
	b := newStrBuilder()
	b.WriteString(fmt.Sprintf("func %s(p *Parser) (%s, error) {\n", fn, rt))
	b.WriteString("\tc := p.Cursor\n\t_ = c\n")
	for _, line := range body.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(fmt.Sprintf("\treturn %s, nil\n", expr))
	b.WriteString("}\n")
	return b.String(), nil
}

func newReturnType(t ValueType, pool *TypePool) string {
	return goTypeExpr(t, pool)
}

func baseTypeConst(b BaseType) string {
	switch b {
	case BaseBool:
		return "BaseBool"
	case BaseU16:
		return "BaseU16"
	case BaseU32:
		return "BaseU32"
	case BaseU64:
		return "BaseU64"
	case BaseChar:
		return "BaseChar"
	default:
		return "BaseU8"
	}
}

// byteRanges collapses bs into its maximal contiguous [lo,hi] runs, so
// a ByteSet prints as a handful of range tests instead of up to 256
// disjuncts.
func byteRanges(bs ByteSet) [][2]int {
	var out [][2]int
	open := false
	start := 0
	for i := 0; i < 256; i++ {
		if bs.Contains(byte(i)) {
			if !open {
				start, open = i, true
			}
			continue
		}
		if open {
			out = append(out, [2]int{start, i - 1})
			open = false
		}
	}
	if open {
		out = append(out, [2]int{start, 255})
	}
	return out
}

// byteSetCondExprVar renders bs as a disjunction of equality/range
// tests against the already-bound variable named v.
func byteSetCondExprVar(bs ByteSet, v string) string {
	ranges := byteRanges(bs)
	if len(ranges) == 0 {
		return "false"
	}
	b := newStrBuilder()
	for i, r := range ranges {
		if i > 0 {
			b.WriteString(" || ")
		}
		if r[0] == r[1] {
			b.WriteString(fmt.Sprintf("%s == %d", v, r[0]))
		} else {
			b.WriteString(fmt.Sprintf("(%s >= %d && %s <= %d)", v, r[0], v, r[1]))
		}
	}
	return b.String()
}

/*
funcBody accumulates the statement-by-statement lowering of one
generated function. lower(d) is the entry point; it mirrors
eval_decoder.go's evalDecoder switch one kind at a time, but instead of
interpreting d it emits Go-flavored text that does the same thing
inline, specialized for this call site. Most kinds emit flat
sequential statements sharing the enclosing function's retTypeStr and
zero-value expression (tuple/record/slice-repeat decoders, whose
failures propagate through the same early return as their caller);
DecParallel, DecPeek, DecPeekNot, DecLetView and DecWithRelativeOffset
need a func-literal boundary instead, because each must run a cleanup
step (ClosePeek's success flag, PopViewsTo, the retry loop's
RestoreAlt, restoring the saved offset) before the error is allowed to
propagate.
*/
type funcBody struct {
	g          *codegen
	lines      []string
	tmp        *int
	indent     int
	retTypeStr string
}

func newFuncBody(g *codegen, retType string) *funcBody {
	n := 0
	return &funcBody{g: g, tmp: &n, indent: 1, retTypeStr: retType}
}

func (b *funcBody) emit(format string, args ...any) {
	b.lines = append(b.lines, strrpt("\t", b.indent)+fmt.Sprintf(format, args...))
}

func (b *funcBody) push() { b.indent++ }
func (b *funcBody) pop()  { b.indent-- }

func (b *funcBody) newTemp() string {
	*b.tmp++
	return "t" + itoa(*b.tmp)
}

// nested returns a funcBody sharing this one's temp counter, for
// lowering a sub-decoder either inline (same retType, same indent, the
// common case) or inside a closure with its own return type (the
// caller pushes first and passes a fresh retType).
func (b *funcBody) nested(retType string) *funcBody {
	return &funcBody{g: b.g, tmp: b.tmp, indent: b.indent, retTypeStr: retType}
}

func (b *funcBody) absorb(sub *funcBody) {
	b.lines = append(b.lines, sub.lines...)
}

// zeroExpr is a Go zero value valid for any type, so every early
// return can use it regardless of how deeply d is nested: the compile
// target never needs a bespoke zero-literal renderer keyed on shape.
func (b *funcBody) zeroExpr() string {
	return "*new(" + b.retTypeStr + ")"
}

// emitDecide lowers a match-tree traversal rooted at tree into nested
// byte peeks and range switches, returning the names of the (branch
// int, ok bool) pair it leaves bound — the generated-code analogue of
// MatchTree.Decide.
func (b *funcBody) emitDecide(tree *MatchTree) (branchVar, okVar string) {
	branchVar, okVar = b.newTemp(), b.newTemp()
	b.emit("%s, %s := func() (int, bool) {", branchVar, okVar)
	b.push()
	b.emitDecideLevel(tree.root, 0)
	b.pop()
	b.emit("}()")
	return
}

func (b *funcBody) emitDecideLevel(level *MatchTreeLevel, depth int) {
	bv, ok := b.newTemp(), b.newTemp()
	b.emit("%s, %s := c.PeekByteAt(c.Offset() + %d)", bv, ok, depth)
	b.emit("if !%s {", ok)
	b.push()
	b.emit("return %d, %s", maxInt(level.accept, 0), bool2str(level.accept >= 0))
	b.pop()
	b.emit("}")
	b.emit("switch {")
	for _, e := range level.entries {
		b.emit("case %s:", byteSetCondExprVar(e.bytes, bv))
		b.push()
		if e.child != nil {
			b.emitDecideLevel(e.child, depth+1)
		} else {
			b.emit("return %d, true", e.branch)
		}
		b.pop()
	}
	b.emit("}")
	b.emit("return %d, %s", maxInt(level.accept, 0), bool2str(level.accept >= 0))
}

// lower emits d's statements into b and returns a Go-flavored
// expression for its successfully-decoded value.
func (b *funcBody) lower(d *Decoder) (string, error) {
	switch d.Kind {
	case DecCall, DecCallRec:
		name, ok := b.g.funcNames[d.child]
		if !ok {
			return "", mkerr("codegen: unnamed call target")
		}
		v, e := b.newTemp(), b.newTemp()
		b.emit("%s, %s := %s(p)", v, e, name)
		b.emit("if %s != nil {", e)
		b.push()
		b.emit("return %s, %s", b.zeroExpr(), e)
		b.pop()
		b.emit("}")
		return v, nil

	case DecFailWith:
		b.emit("return %s, newFailError(%q, c.Offset(), %d)", b.zeroExpr(), d.msg, d.traceID)
		return b.zeroExpr(), nil

	case DecEndOfInput:
		b.emit("if c.HasMoreData() {")
		b.push()
		pv := b.newTemp()
		b.emit("%s, _ := c.PeekByte()", pv)
		b.emit("return %s, newTrailingError(%s, c.Offset())", b.zeroExpr(), pv)
		b.pop()
		b.emit("}")
		return "struct{}{}", nil

	case DecByte:
		off, bt, e := b.newTemp(), b.newTemp(), b.newTemp()
		b.emit("%s := c.Offset()", off)
		b.emit("%s, %s := c.ReadByte()", bt, e)
		b.emit("if %s != nil {", e)
		b.push()
		b.emit("return %s, %s", b.zeroExpr(), e)
		b.pop()
		b.emit("}")
		b.emit("if !(%s) {", byteSetCondExprVar(d.bytes, bt))
		b.push()
		first, _ := d.bytes.MinElem()
		b.emit("return %s, newUnexpectedError(%s, %d, %s)", b.zeroExpr(), bt, first, off)
		b.pop()
		b.emit("}")
		return bt, nil

	case DecAlign:
		b.emit("c.Align(%d)", d.n)
		return "struct{}{}", nil

	case DecSkipRemainder:
		b.emit("c.SkipRemainder()")
		return "struct{}{}", nil

	case DecPos:
		return "uint64(c.Offset())", nil

	case DecCompute:
		return lowerExpr(d.expr), nil

	case DecVariant:
		sub := b.nested(b.retTypeStr)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		return goIdent(d.label.String()) + "(" + e + ")", nil

	case DecBranch:
		branchVar, okVar := b.emitDecide(d.tree)
		b.emit("if !%s {", okVar)
		b.push()
		b.emit("return %s, newNoValidBranchError(c.Offset())", b.zeroExpr())
		b.pop()
		b.emit("}")
		res := b.newTemp()
		b.emit("var %s %s", res, b.retTypeStr)
		b.emit("switch %s {", branchVar)
		for i, child := range d.children {
			b.emit("case %d:", i)
			b.push()
			sub := b.nested(b.retTypeStr)
			e, err := sub.lower(child)
			if err != nil {
				return "", err
			}
			b.absorb(sub)
			b.emit("%s = %s", res, e)
			b.pop()
		}
		b.emit("}")
		return res, nil

	case DecParallel:
		res, errv := b.newTemp(), b.newTemp()
		b.emit("var %s %s", res, b.retTypeStr)
		b.emit("var %s error", errv)
		b.emit("c.OpenAlt()")
		for i, child := range d.children {
			if i > 0 {
				b.emit("if %s != nil {", errv)
				b.push()
				b.emit("c.RestoreAlt()")
			}
			inner := goTypeExpr(child.Type, b.g.pool)
			b.emit("%s, %s = func() (%s, error) {", res, errv, inner)
			b.push()
			sub := b.nested(inner)
			e, err := sub.lower(child)
			if err != nil {
				return "", err
			}
			b.absorb(sub)
			b.emit("return %s, nil", e)
			b.pop()
			b.emit("}()")
			if i > 0 {
				b.pop()
				b.emit("}")
			}
		}
		b.emit("if %s != nil {", errv)
		b.push()
		b.emit("c.RestoreAlt()")
		b.pop()
		b.emit("}")
		b.emit("c.CloseAlt()")
		b.emit("if %s != nil {", errv)
		b.push()
		b.emit("return %s, %s", b.zeroExpr(), errv)
		b.pop()
		b.emit("}")
		return res, nil

	case DecTuple:
		var elems []string
		for _, c := range d.children {
			sub := b.nested(b.retTypeStr)
			e, err := sub.lower(c)
			if err != nil {
				return "", err
			}
			b.absorb(sub)
			elems = append(elems, e)
		}
		return "(" + join(elems, ", ") + ")", nil

	case DecRecord:
		var lits []string
		for _, f := range d.fields {
			sub := b.nested(b.retTypeStr)
			e, err := sub.lower(f.Decoder)
			if err != nil {
				return "", err
			}
			b.absorb(sub)
			ident := goIdent(f.Label.String())
			b.emit("%s := %s", ident, e)
			if !f.Label.IsDoubleHidden() {
				lits = append(lits, fmt.Sprintf("%s: %s", capitalize(ident), ident))
			}
		}
		return "{" + join(lits, ", ") + "}", nil

	case DecWhile:
		seqVar := b.newTemp()
		elemT := seqElemType(d.Type, b.g.pool)
		b.emit("var %s []%s", seqVar, elemT)
		b.emit("for {")
		b.push()
		branchVar, okVar := b.emitDecide(d.tree)
		b.emit("if !%s {", okVar)
		b.push()
		b.emit("return %s, newNoValidBranchError(c.Offset())", b.zeroExpr())
		b.pop()
		b.emit("}")
		b.emit("if %s == 1 {", branchVar)
		b.push()
		b.emit("break")
		b.pop()
		b.emit("}")
		sub := b.nested(b.retTypeStr)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		b.emit("%s = append(%s, %s)", seqVar, seqVar, e)
		b.pop()
		b.emit("}")
		b.emit("if len(%s) < %d {", seqVar, d.lo)
		b.push()
		b.emit("return %s, newInsufficientRepeatsError(c.Offset())", b.zeroExpr())
		b.pop()
		b.emit("}")
		return seqVar, nil

	case DecUntil:
		seqVar := b.newTemp()
		elemT := seqElemType(d.Type, b.g.pool)
		b.emit("var %s []%s", seqVar, elemT)
		b.emit("for {")
		b.push()
		sub := b.nested(b.retTypeStr)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		b.emit("%s = append(%s, %s)", seqVar, seqVar, e)
		bindIdent := goIdent(d.bindName.String())
		if d.lo == 1 {
			b.emit("%s := %s", bindIdent, seqVar)
		} else {
			b.emit("%s := %s", bindIdent, e)
		}
		b.emit("if %s {", lowerExpr(*d.pred))
		b.push()
		b.emit("break")
		b.pop()
		b.emit("}")
		b.pop()
		b.emit("}")
		return seqVar, nil

	case DecCount:
		n := b.newTemp()
		b.emit("%s := int(%s)", n, lowerExpr(d.expr))
		seqVar := b.newTemp()
		elemT := seqElemType(d.Type, b.g.pool)
		b.emit("%s := make([]%s, %s)", seqVar, elemT, n)
		i := b.newTemp()
		b.emit("for %s := 0; %s < %s; %s++ {", i, i, n, i)
		b.push()
		sub := b.nested(b.retTypeStr)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		b.emit("%s[%s] = %s", seqVar, i, e)
		b.pop()
		b.emit("}")
		return seqVar, nil

	case DecBetween:
		lo, hi := b.newTemp(), b.newTemp()
		b.emit("%s := int(%s)", lo, lowerExpr(d.expr))
		b.emit("%s := int(%s)", hi, lowerExpr(*d.expr2))
		seqVar := b.newTemp()
		elemT := seqElemType(d.Type, b.g.pool)
		b.emit("var %s []%s", seqVar, elemT)
		b.emit("for len(%s) < %s {", seqVar, hi)
		b.push()
		branchVar, okVar := b.emitDecide(d.tree)
		b.emit("if !%s {", okVar)
		b.push()
		b.emit("return %s, newNoValidBranchError(c.Offset())", b.zeroExpr())
		b.pop()
		b.emit("}")
		b.emit("if %s == 1 {", branchVar)
		b.push()
		b.emit("break")
		b.pop()
		b.emit("}")
		sub := b.nested(b.retTypeStr)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		b.emit("%s = append(%s, %s)", seqVar, seqVar, e)
		b.pop()
		b.emit("}")
		b.emit("if len(%s) < %s {", seqVar, lo)
		b.push()
		b.emit("return %s, newInsufficientRepeatsError(c.Offset())", b.zeroExpr())
		b.pop()
		b.emit("}")
		return seqVar, nil

	case DecSlice:
		length := b.newTemp()
		b.emit("%s := int(%s)", length, lowerExpr(d.expr))
		b.emit("if err := c.OpenSlice(%s); err != nil {", length)
		b.push()
		b.emit("return %s, err", b.zeroExpr())
		b.pop()
		b.emit("}")
		sub := b.nested(b.retTypeStr)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		b.emit("if err := c.CloseSlice(%s); err != nil {", bool2str(d.lo == 1))
		b.push()
		b.emit("return %s, err", b.zeroExpr())
		b.pop()
		b.emit("}")
		return e, nil

	case DecPeek:
		b.emit("c.OpenPeek()")
		res, errv := b.newTemp(), b.newTemp()
		inner := goTypeExpr(d.child.Type, b.g.pool)
		b.emit("%s, %s := func() (%s, error) {", res, errv, inner)
		b.push()
		sub := b.nested(inner)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		b.emit("return %s, nil", e)
		b.pop()
		b.emit("}()")
		b.emit("c.ClosePeek(%s == nil)", errv)
		b.emit("if %s != nil {", errv)
		b.push()
		b.emit("return %s, %s", b.zeroExpr(), errv)
		b.pop()
		b.emit("}")
		return res, nil

	case DecPeekNot:
		b.emit("c.OpenPeekNot()")
		errv := b.newTemp()
		inner := goTypeExpr(d.child.Type, b.g.pool)
		b.emit("_, %s := func() (%s, error) {", errv, inner)
		b.push()
		sub := b.nested(inner)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		b.emit("return %s, nil", e)
		b.pop()
		b.emit("}()")
		off := b.newTemp()
		b.emit("%s := c.Offset()", off)
		b.emit("c.ClosePeekNot()")
		b.emit("if %s == nil {", errv)
		b.push()
		b.emit("return %s, newNegatedSuccessError(%s)", b.zeroExpr(), off)
		b.pop()
		b.emit("}")
		return "struct{}{}", nil

	case DecBits:
		b.emit("if err := c.EnterBits(); err != nil {")
		b.push()
		b.emit("return %s, err", b.zeroExpr())
		b.pop()
		b.emit("}")
		sub := b.nested(b.retTypeStr)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		b.emit("if err := c.ExitBits(); err != nil {")
		b.push()
		b.emit("return %s, err", b.zeroExpr())
		b.pop()
		b.emit("}")
		return e, nil

	case DecWithRelativeOffset:
		off := b.newTemp()
		b.emit("%s := int(%s)", off, lowerExpr(d.expr))
		base := "0"
		if d.expr2 != nil {
			base = b.newTemp()
			b.emit("%s := int(%s)", base, lowerExpr(*d.expr2))
		}
		saved := b.newTemp()
		b.emit("%s := c.Offset()", saved)
		b.emit("c.SeekAbsolute(%s + %s)", base, off)
		res, errv := b.newTemp(), b.newTemp()
		inner := goTypeExpr(d.child.Type, b.g.pool)
		b.emit("%s, %s := func() (%s, error) {", res, errv, inner)
		b.push()
		sub := b.nested(inner)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		b.emit("return %s, nil", e)
		b.pop()
		b.emit("}()")
		b.emit("c.SeekAbsolute(%s)", saved)
		b.emit("if %s != nil {", errv)
		b.push()
		b.emit("return %s, %s", b.zeroExpr(), errv)
		b.pop()
		b.emit("}")
		return res, nil

	case DecMap:
		sub := b.nested(b.retTypeStr)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		ident := goIdent(d.bindName.String())
		b.emit("%s := %s", ident, e)
		return lowerExpr(*d.lambdaOut), nil

	case DecWhere:
		sub := b.nested(b.retTypeStr)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		ident := goIdent(d.bindName.String())
		b.emit("%s := %s", ident, e)
		b.emit("if !(%s) {", lowerExpr(*d.pred))
		b.push()
		b.emit("return %s, newFalsifiedWhereError(c.Offset(), %d)", b.zeroExpr(), d.traceID)
		b.pop()
		b.emit("}")
		return ident, nil

	case DecValidate:
		sub := b.nested(b.retTypeStr)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		ident := b.newTemp()
		b.emit("%s := %s", ident, e)
		// Program.Validate's deferred (name, predicate, scope-snapshot)
		// bookkeeping needs a live Scope; generated code has none, so
		// the check here only documents checkName rather than deferring
		// it the way evalDecoder's DecValidate case does.
		b.emit("_ = %q // validate: %s", d.checkName, lowerExpr(*d.validator))
		return ident, nil

	case DecMatch:
		scrut := b.newTemp()
		b.emit("%s := %s", scrut, lowerExpr(d.expr))
		res := b.newTemp()
		b.emit("var %s %s", res, b.retTypeStr)
		b.emit("switch {")
		for _, arm := range d.matchArms {
			b.emit("case matchPattern(%s, %s):", lowerPattern(arm.Pattern), scrut)
			b.push()
			sub := b.nested(b.retTypeStr)
			e, err := sub.lower(arm.Decoder)
			if err != nil {
				return "", err
			}
			b.absorb(sub)
			b.emit("%s = %s", res, e)
			b.pop()
		}
		b.emit("default:")
		b.push()
		b.emit("return %s, newFailError(\"no match arm satisfied the scrutinee\", c.Offset(), %d)", b.zeroExpr(), d.traceID)
		b.pop()
		b.emit("}")
		return res, nil

	case DecLetView:
		start, depth := b.newTemp(), b.newTemp()
		b.emit("%s := c.Offset()", start)
		b.emit("%s := p.MarkViews()", depth)
		b.emit("p.PushView(%s, NewView(p.Buffer(), %s))", quoteLabel(d.label), start)
		res, errv := b.newTemp(), b.newTemp()
		inner := goTypeExpr(d.child.Type, b.g.pool)
		b.emit("%s, %s := func() (%s, error) {", res, errv, inner)
		b.push()
		sub := b.nested(inner)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		b.emit("return %s, nil", e)
		b.pop()
		b.emit("}()")
		b.emit("if %s != nil {", errv)
		b.push()
		b.emit("p.PopViewsTo(%s)", depth)
		b.emit("return %s, %s", b.zeroExpr(), errv)
		b.pop()
		b.emit("}")
		return res, nil

	case DecReadFromView:
		view, ok := b.newTemp(), b.newTemp()
		b.emit("%s, %s := p.LookupView(%s)", view, ok, quoteLabel(d.label))
		b.emit("if !%s {", ok)
		b.push()
		b.emit("return %s, errorUnknownView", b.zeroExpr())
		b.pop()
		b.emit("}")
		off, ln := b.newTemp(), b.newTemp()
		b.emit("%s := int(%s)", off, lowerExpr(d.viewFmt.Offset))
		b.emit("%s := int(%s)", ln, lowerExpr(d.viewFmt.Len))
		res, errv := b.newTemp(), b.newTemp()
		if d.viewFmt.Kind == ViewReadArray {
			b.emit("%s, %s := %s.ReadArray(%s, %s, %s)", res, errv, view, off, ln, baseTypeConst(d.viewFmt.ArrayKind))
		} else {
			b.emit("%s, %s := %s.ReadBytes(%s, %s)", res, errv, view, off, ln)
		}
		b.emit("if %s != nil {", errv)
		b.push()
		b.emit("return %s, %s", b.zeroExpr(), errv)
		b.pop()
		b.emit("}")
		return res, nil

	case DecDecodeBytes:
		name, ok := b.g.funcNames[d.child]
		if !ok {
			return "", mkerr("codegen: unnamed decodeBytes target")
		}
		buf := b.newTemp()
		b.emit("%s := %s", buf, lowerExpr(d.expr))
		res, errv := b.newTemp(), b.newTemp()
		b.emit("%s, %s := %s(SubParser(%s))", res, errv, name, buf)
		b.emit("if %s != nil {", errv)
		b.push()
		b.emit("return %s, %s", b.zeroExpr(), errv)
		b.pop()
		b.emit("}")
		return res, nil

	case DecForEach:
		src := b.newTemp()
		b.emit("%s := %s", src, lowerExpr(d.expr))
		elemT := seqElemType(d.Type, b.g.pool)
		out := b.newTemp()
		b.emit("%s := make([]%s, len(%s))", out, elemT, src)
		i := b.newTemp()
		b.emit("for %s := range %s {", i, src)
		b.push()
		ident := goIdent(d.bindName.String())
		b.emit("%s := %s[%s]", ident, src, i)
		sub := b.nested(b.retTypeStr)
		e, err := sub.lower(d.child)
		if err != nil {
			return "", err
		}
		b.absorb(sub)
		b.emit("%s[%s] = %s", out, i, e)
		b.pop()
		b.emit("}")
		return out, nil

	default:
		return "", mkerr("codegen: unhandled decoder kind")
	}
}

// seqElemType renders the element type of a DecWhile/DecUntil/DecCount/
// DecBetween/DecForEach target, falling back to "any" when the pool
// never recorded an element shape (Kind mismatch should not happen in
// a well-typed tree, but codegen has no business panicking over it).
func seqElemType(t ValueType, pool *TypePool) string {
	if t.Kind == TypeSeq && t.elem != nil {
		return goTypeExpr(*t.elem, pool)
	}
	return "any"
}
