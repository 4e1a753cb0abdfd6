package binform

/*
compiler.go implements Compiler, the bottom-up lowering of a Format
tree (under a FormatModule) into a Decoder tree (spec.md §4.G). The
design mirrors typecheck.go's env-threading walk, since a Decoder's
Type field is simply the node's already-specified ValueType; the two
walks are kept separate because typecheck.go is also used standalone
(FormatModule.InferFormatType) without ever compiling anything.

Compilation memoizes ItemVar call sites on (declaration, continuation
signature) (spec.md §4.G "Memoization"), so a recursive format produces
one shared Decoder per distinct residual continuation rather than one
per call site. Cycles are broken by registering an empty placeholder
Decoder before recursing and backpatching it in place once the target
finishes compiling; every other reference to the same key during the
cycle is a DecCallRec pointing at that same placeholder.
*/

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Compiler lowers Format trees belonging to one FormatModule into
// Decoder trees. A Compiler is single-use per Compile call but its
// memo table may be reused across multiple top-level Compile calls
// against the same module, sharing decoders for formats referenced
// from more than one root.
type Compiler struct {
	module *FormatModule
	logger zerolog.Logger

	memo         map[string]*Decoder
	inflight     map[string]bool
	placeholders map[string]*Decoder

	nextTraceID uint64
	budget      int
	strict      bool
}

// NewCompiler returns a Compiler for module, logging match-tree
// fallback warnings to logger (pass zerolog.Nop() to silence). Any
// CompileOption values apply on top of the defaults (budget 80,
// disambiguation failures fall back to ordered trial).
func NewCompiler(module *FormatModule, logger zerolog.Logger, opts ...CompileOption) *Compiler {
	cfg := compileConfig{budget: DefaultMatchTreeBudget}
	for _, o := range opts {
		o(&cfg)
	}
	return &Compiler{
		module:       module,
		logger:       logger,
		memo:         make(map[string]*Decoder),
		inflight:     make(map[string]bool),
		placeholders: make(map[string]*Decoder),
		budget:       cfg.budget,
		strict:       cfg.strictDisambiguation,
	}
}

// WithLookaheadBudget overrides D, the per-disambiguation lookahead
// byte budget (spec.md §4.F), returning c for chaining.
func (c *Compiler) WithLookaheadBudget(d int) *Compiler {
	if d > 0 {
		c.budget = d
	}
	return c
}

func (c *Compiler) newTraceID() uint64 {
	return atomic.AddUint64(&c.nextTraceID, 1)
}

// Compile lowers root, a top-level Format, into a runnable Program.
// It closes the underlying module: no further declarations may be
// added afterward.
func (c *Compiler) Compile(root Format) (*Program, error) {
	defer debugPath("Compile", "budget", c.budget)()
	c.module.Close()
	dec, err := c.compileFormat(root, emptyNext, newTypeEnv(nil))
	if err != nil {
		return nil, err
	}
	return &Program{Module: c.module, Root: dec}, nil
}

func (c *Compiler) compileFormat(f Format, tail *Next, env *TypeEnv) (*Decoder, error) {
	debugEnter("compileFormat", "kind", f.Kind)
	typ, err := c.module.inferFormatType(f, env)
	if err != nil {
		return nil, err
	}

	switch f.Kind {
	case FmtByte:
		return &Decoder{Kind: DecByte, bytes: f.byteSet, Type: typ}, nil

	case FmtEndOfInput:
		return &Decoder{Kind: DecEndOfInput, Type: typ}, nil

	case FmtAlign:
		return &Decoder{Kind: DecAlign, n: f.n, Type: typ}, nil

	case FmtSkipRemainder:
		return &Decoder{Kind: DecSkipRemainder, Type: typ}, nil

	case FmtFail:
		return &Decoder{Kind: DecFailWith, msg: f.msg, Type: typ, traceID: c.newTraceID()}, nil

	case FmtPos:
		return &Decoder{Kind: DecPos, Type: typ}, nil

	case FmtCompute:
		return &Decoder{Kind: DecCompute, expr: f.expr, Type: typ}, nil

	case FmtItemVar:
		return c.compileItemVar(f, tail, env)

	case FmtTuple:
		children := make([]*Decoder, len(f.children))
		for i, elem := range f.children {
			childTail := sequenceNext(f.children[i+1:], tail)
			d, err := c.compileFormat(elem, childTail, env)
			if err != nil {
				return nil, err
			}
			children[i] = d
		}
		return &Decoder{Kind: DecTuple, children: children, Type: typ}, nil

	case FmtRecord:
		return c.compileRecord(f, tail, env, typ)

	case FmtUnion:
		return c.compileUnion(f, tail, env, typ, false)

	case FmtUnionNondet:
		return c.compileUnion(f, tail, env, typ, true)

	case FmtVariant:
		child, err := c.compileFormat(*f.child, tail, env)
		if err != nil {
			return nil, err
		}
		return &Decoder{Kind: DecVariant, label: f.label, child: child, Type: typ}, nil

	case FmtRepeat:
		return c.compileRepeat(f, tail, env, typ, 0)

	case FmtRepeat1:
		return c.compileRepeat(f, tail, env, typ, 1)

	case FmtRepeatCount:
		child, err := c.compileFormat(*f.child, tail, env)
		if err != nil {
			return nil, err
		}
		return &Decoder{Kind: DecCount, expr: f.expr, child: child, Type: typ}, nil

	case FmtRepeatBetween:
		return c.compileRepeatBetween(f, tail, env, typ)

	case FmtRepeatUntilLast, FmtRepeatUntilSeq:
		return c.compileRepeatUntil(f, tail, env, typ)

	case FmtForEach:
		depth := env.Mark()
		elemT := AnyType()
		if srcT, err := InferExprType(f.expr, env); err == nil && srcT.Kind == TypeSeq {
			elemT = *srcT.Elem()
		}
		env.Push(f.bindName, elemT)
		child, err := c.compileFormat(*f.child, tail, env)
		env.PopTo(depth)
		if err != nil {
			return nil, err
		}
		return &Decoder{Kind: DecForEach, expr: f.expr, bindName: f.bindName, child: child, Type: typ}, nil

	case FmtSlice:
		return c.compileSlice(f, env, typ, true)

	case FmtSliceUpTo:
		return c.compileSlice(f, env, typ, false)

	case FmtWithRelativeOffset:
		child, err := c.compileFormat(*f.child, emptyNext, env)
		if err != nil {
			return nil, err
		}
		return &Decoder{Kind: DecWithRelativeOffset, expr: f.expr2, expr2: f.exprOpt, child: child, Type: typ}, nil

	case FmtPeek:
		child, err := c.compileFormat(*f.child, emptyNext, env)
		if err != nil {
			return nil, err
		}
		return &Decoder{Kind: DecPeek, child: child, Type: typ}, nil

	case FmtPeekNot:
		child, err := c.compileFormat(*f.child, emptyNext, env)
		if err != nil {
			return nil, err
		}
		return &Decoder{Kind: DecPeekNot, child: child, Type: typ}, nil

	case FmtBits:
		child, err := c.compileFormat(*f.child, emptyNext, env)
		if err != nil {
			return nil, err
		}
		return &Decoder{Kind: DecBits, child: child, Type: typ}, nil

	case FmtWhere:
		child, err := c.compileFormat(*f.child, tail, env)
		if err != nil {
			return nil, err
		}
		return &Decoder{Kind: DecWhere, bindName: f.bindName, pred: f.pred, child: child, Type: typ, traceID: c.newTraceID()}, nil

	case FmtValidate:
		child, err := c.compileFormat(*f.child, tail, env)
		if err != nil {
			return nil, err
		}
		return &Decoder{Kind: DecValidate, checkName: f.checkName, validator: f.pred, child: child, Type: typ}, nil

	case FmtMatch:
		return c.compileMatch(f, tail, env, typ)

	case FmtMatchVariant:
		return c.compileMatchVariant(f, tail, env, typ)

	case FmtMap:
		child, err := c.compileFormat(*f.child, tail, env)
		if err != nil {
			return nil, err
		}
		return &Decoder{Kind: DecMap, bindName: f.bindName, lambdaOut: f.lambdaOut, child: child, Type: typ}, nil

	case FmtDecodeBytes:
		child, err := c.compileFormat(*f.child, emptyNext, newTypeEnv(nil))
		if err != nil {
			return nil, err
		}
		return &Decoder{Kind: DecDecodeBytes, expr: f.expr, child: child, Type: typ}, nil

	case FmtLetView:
		child, err := c.compileFormat(*f.child, tail, env)
		if err != nil {
			return nil, err
		}
		return &Decoder{Kind: DecLetView, label: f.label, child: child, Type: typ}, nil

	case FmtWithView:
		return &Decoder{Kind: DecReadFromView, label: f.label, viewFmt: f.viewFmt, Type: typ}, nil

	case FmtHint:
		// Hints are a printer/codegen-only annotation (spec.md §4.K);
		// the evaluator never consults them, so compilation simply
		// erases the wrapper.
		return c.compileFormat(*f.child, tail, env)

	default:
		return nil, evalErr("compileFormat", "unhandled format kind")
	}
}

func (c *Compiler) compileRecord(f Format, tail *Next, env *TypeEnv, typ ValueType) (*Decoder, error) {
	depth := env.Mark()
	defer env.PopTo(depth)

	fields := make([]DecoderRecordField, len(f.fields))
	for i, rf := range f.fields {
		fieldTail := recordTail(f.fields[i+1:], tail)
		d, err := c.compileFormat(rf.Format, fieldTail, env)
		if err != nil {
			return nil, err
		}
		env.Push(rf.Label, d.Type)
		fields[i] = DecoderRecordField{Label: rf.Label, Decoder: d}
	}
	return &Decoder{Kind: DecRecord, fields: fields, Type: typ}, nil
}

func recordTail(rest []RecordFormatField, tail *Next) *Next {
	if len(rest) == 0 {
		return tail
	}
	fmts := make([]Format, len(rest))
	for i, rf := range rest {
		fmts[i] = rf.Format
	}
	return sequenceNext(fmts, tail)
}

func (c *Compiler) compileUnion(f Format, tail *Next, env *TypeEnv, typ ValueType, forceParallel bool) (*Decoder, error) {
	children := make([]*Decoder, len(f.children))
	for i, br := range f.children {
		d, err := c.compileFormat(br, tail, env)
		if err != nil {
			return nil, err
		}
		children[i] = d
	}
	if forceParallel {
		return &Decoder{Kind: DecParallel, children: children, Type: typ}, nil
	}
	tree, err := BuildMatchTree(c.module, f.children, tail, c.budget)
	if err != nil {
		if c.strict {
			return nil, fmt.Errorf("union: match tree unbuildable within budget %d: %w", c.budget, err)
		}
		c.logger.Warn().Err(err).Int("branches", len(f.children)).
			Msg("union: match tree unbuildable, falling back to ordered trial")
		return &Decoder{Kind: DecParallel, children: children, Type: typ}, nil
	}
	return &Decoder{Kind: DecBranch, tree: tree, children: children, Type: typ}, nil
}

func (c *Compiler) compileRepeat(f Format, tail *Next, env *TypeEnv, typ ValueType, minCount int) (*Decoder, error) {
	sb := &stepBuilder{module: c.module, visiting: map[int]bool{}}
	nullStep, err := sb.stepOf(catNext(*f.child, emptyNext))
	if err != nil {
		return nil, err
	}
	if nullStep.accept {
		return nil, errorNullableRepeat
	}

	bodyTail := repeatNext(*f.child, tail)
	tree, err := buildMatchTreeFromNexts(c.module, []*Next{
		catNext(*f.child, bodyTail),
		tail,
	}, c.budget)
	if err != nil {
		return nil, err
	}

	body, err := c.compileFormat(*f.child, bodyTail, env)
	if err != nil {
		return nil, err
	}
	return &Decoder{Kind: DecWhile, tree: tree, child: body, lo: minCount, Type: typ}, nil
}

func (c *Compiler) compileRepeatBetween(f Format, tail *Next, env *TypeEnv, typ ValueType) (*Decoder, error) {
	bodyTail := repeatNext(*f.child, tail)
	tree, err := buildMatchTreeFromNexts(c.module, []*Next{
		catNext(*f.child, bodyTail),
		tail,
	}, c.budget)
	if err != nil {
		return nil, err
	}
	body, err := c.compileFormat(*f.child, bodyTail, env)
	if err != nil {
		return nil, err
	}
	hi := f.expr2
	return &Decoder{Kind: DecBetween, tree: tree, child: body, expr: f.expr, expr2: &hi, Type: typ}, nil
}

func (c *Compiler) compileRepeatUntil(f Format, tail *Next, env *TypeEnv, typ ValueType) (*Decoder, error) {
	depth := env.Mark()
	elemT, err := c.module.inferFormatType(*f.child, env)
	if err != nil {
		return nil, err
	}
	if f.Kind == FmtRepeatUntilLast {
		env.Push(f.bindName, elemT)
	} else {
		env.Push(f.bindName, SeqType(elemT))
	}
	defer env.PopTo(depth)

	body, err := c.compileFormat(*f.child, tail, env)
	if err != nil {
		return nil, err
	}
	untilSeq := f.Kind == FmtRepeatUntilSeq
	lo := 0
	if untilSeq {
		lo = 1
	}
	return &Decoder{Kind: DecUntil, bindName: f.bindName, pred: f.pred, child: body, lo: lo, Type: typ}, nil
}

func (c *Compiler) compileSlice(f Format, env *TypeEnv, typ ValueType, strict bool) (*Decoder, error) {
	child, err := c.compileFormat(*f.child, emptyNext, env)
	if err != nil {
		return nil, err
	}
	lo := 0
	if strict {
		lo = 1
	}
	return &Decoder{Kind: DecSlice, expr: f.expr, child: child, lo: lo, Type: typ}, nil
}

func (c *Compiler) compileMatch(f Format, tail *Next, env *TypeEnv, typ ValueType) (*Decoder, error) {
	scrutineeT, err := InferExprType(f.expr, env)
	if err != nil {
		return nil, err
	}
	arms := make([]DecoderMatchArm, len(f.matchArms))
	for i, arm := range f.matchArms {
		depth := env.Mark()
		bindPatternTypes(arm.Pattern, scrutineeT, env)
		d, err := c.compileFormat(arm.Format, tail, env)
		env.PopTo(depth)
		if err != nil {
			return nil, err
		}
		arms[i] = DecoderMatchArm{Pattern: arm.Pattern, Decoder: d}
	}
	return &Decoder{Kind: DecMatch, expr: f.expr, matchArms: arms, Type: typ, traceID: c.newTraceID()}, nil
}

func (c *Compiler) compileMatchVariant(f Format, tail *Next, env *TypeEnv, typ ValueType) (*Decoder, error) {
	scrutineeT, err := InferExprType(f.expr, env)
	if err != nil {
		return nil, err
	}
	arms := make([]DecoderMatchArm, len(f.matchVariantArms))
	for i, arm := range f.matchVariantArms {
		depth := env.Mark()
		payloadT := AnyType()
		if scrutineeT.Kind == TypeUnion {
			if t, ok := scrutineeT.unionField(arm.Label); ok {
				payloadT = t
			}
		}
		bindPatternTypes(arm.Pattern, payloadT, env)
		d, err := c.compileFormat(arm.Format, tail, env)
		env.PopTo(depth)
		if err != nil {
			return nil, err
		}
		arms[i] = DecoderMatchArm{Pattern: arm.Pattern, Decoder: d}
	}
	return &Decoder{Kind: DecMatch, expr: f.expr, matchArms: arms, Type: typ, traceID: c.newTraceID()}, nil
}

// compileItemVar resolves an ItemVar reference, honoring the
// declaration's dependsOnNext flag (spec.md §4.G step 1) and
// memoizing on (declaration, continuation signature).
//
// The compiled body is shared across every call site with the same
// (declaration, continuation) key, so f.args/f.views cannot be baked
// into it: a caller's argument values and view renamings vary per
// call site even when the callee body is memoized. Instead they ride
// along on the DecCall/DecCallRec node itself (args, params, viewArgs)
// and evalCall binds them into a fresh Scope/view stack per call.
func (c *Compiler) compileItemVar(f Format, tail *Next, env *TypeEnv) (*Decoder, error) {
	decl := c.module.Decl(f.ref)
	childTail := tail
	if !decl.dependsOnNext {
		childTail = emptyNext
	}
	key := fmt.Sprintf("%d|%s", f.ref.index, nextSignature(childTail))

	if cached, ok := c.memo[key]; ok {
		return &Decoder{Kind: DecCall, child: cached, callIx: f.ref.index, Type: cached.Type, args: f.args, params: decl.Params, viewArgs: f.views}, nil
	}
	if c.inflight[key] {
		return &Decoder{Kind: DecCallRec, child: c.placeholders[key], callIx: f.ref.index, args: f.args, params: decl.Params, viewArgs: f.views}, nil
	}

	placeholder := &Decoder{}
	c.inflight[key] = true
	c.placeholders[key] = placeholder

	body, err := c.compileFormat(decl.Fmt, childTail, newTypeEnv(decl.Params))
	delete(c.inflight, key)
	if err != nil {
		delete(c.placeholders, key)
		return nil, err
	}
	*placeholder = *body
	c.memo[key] = placeholder

	return &Decoder{Kind: DecCall, child: placeholder, callIx: f.ref.index, Type: placeholder.Type, args: f.args, params: decl.Params, viewArgs: f.views}, nil
}

// nextSignature produces a bounded-depth structural key for n, used
// only to group continuations for memoization; collisions merely cost
// a redundant recompilation; it is not a correctness requirement.
func nextSignature(n *Next) string { return nextSigDepth(n, 8) }

func nextSigDepth(n *Next, depth int) string {
	if n == nil {
		return "E"
	}
	if depth <= 0 {
		return "~"
	}
	switch n.Kind {
	case NextEmpty:
		return "E"
	case NextCat:
		return "C(" + formatSig(n.head) + "," + nextSigDepth(n.tail, depth-1) + ")"
	case NextSequence:
		s := "S["
		for _, f := range n.seq {
			s += formatSig(f) + ";"
		}
		return s + "]" + nextSigDepth(n.tail, depth-1)
	case NextRepeat:
		return "R(" + formatSig(n.repeatBody) + ")" + nextSigDepth(n.tail, depth-1)
	case NextUnion:
		return "U(" + nextSigDepth(n.a, depth-1) + "|" + nextSigDepth(n.b, depth-1) + ")"
	case NextDelayRef:
		return "D" + itoa(n.ref.index)
	default:
		return "?"
	}
}

func formatSig(f Format) string {
	switch f.Kind {
	case FmtItemVar:
		return "iv" + itoa(f.ref.index)
	default:
		return "k" + itoa(int(f.Kind))
	}
}
