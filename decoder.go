package binform

/*
decoder.go implements Decoder, the compiled instruction set the
compiler (compiler.go) lowers a Format tree into and the evaluator
(eval_decoder.go) interprets. The grammar mirrors spec.md §4.G's
Decoder sum type; as with Format/Expr/ValueType, nodes are a single
tagged struct rather than an interface hierarchy.
*/

type DecoderKind uint8

const (
	DecCall DecoderKind = iota
	DecCallRec

	DecFailWith
	DecEndOfInput
	DecByte
	DecAlign
	DecSkipRemainder
	DecPos
	DecCompute
	DecVariant

	DecBranch   // Union
	DecParallel // UnionNondet

	DecTuple
	DecRecord

	DecWhile  // Repeat
	DecUntil  // RepeatUntilLast / RepeatUntilSeq
	DecCount  // RepeatCount
	DecBetween

	DecSlice
	DecPeek
	DecPeekNot

	DecBits
	DecWithRelativeOffset

	DecMap
	DecWhere
	DecValidate

	DecMatch

	DecLetView
	DecReadFromView

	DecDecodeBytes

	DecForEach
)

// DecoderRecordField pairs a Label with the Decoder compiled for it.
type DecoderRecordField struct {
	Label   Label
	Decoder *Decoder
}

// DecoderMatchArm pairs a Pattern with the Decoder compiled for its body.
type DecoderMatchArm struct {
	Pattern Pattern
	Decoder *Decoder
}

/*
Decoder is the compiled instruction node. Every constructor below is
private: Decoders are produced exclusively by Compiler.compileFormat
and consumed by eval_decoder.go plus the printer/codegen backends.
*/
type Decoder struct {
	Kind DecoderKind
	Type ValueType

	// DecCall, DecCallRec
	callIx   int
	recLvl   int
	recIx    int
	args     []Expr    // caller-supplied argument expressions, evaluated per call
	params   []Label   // callee's declared parameter names, in argument order
	viewArgs []ViewArg // caller-supplied view renamings

	msg   string   // DecFailWith
	bytes ByteSet  // DecByte
	n     int      // DecAlign
	expr  Expr     // DecCompute, DecCount(count), DecBetween(lo), DecSlice(len), DecDecodeBytes(bytes), DecWithRelativeOffset(offset), DecMatch(scrutinee), DecForEach(seq)
	expr2 *Expr    // DecWithRelativeOffset(base, optional), DecBetween(hi)

	label Label // DecVariant, DecLetView, DecReadFromView

	child    *Decoder   // single-child wrappers
	children []*Decoder // DecTuple, DecParallel, DecBranch

	fields []DecoderRecordField // DecRecord

	tree *MatchTree // DecBranch, DecWhile, DecBetween

	lo, hi int // lo: DecWhile minimum count; DecSlice strict flag and DecUntil sequence-predicate flag (1 = set). hi is not read.

	bindName Label // DecWhere(x), DecMap(x), DecUntil(x), DecForEach(x)
	pred     *Expr // DecWhere, DecUntil

	lambdaOut *Expr // DecMap

	checkName string // DecValidate
	validator *Expr  // DecValidate

	matchArms []DecoderMatchArm // DecMatch

	viewFmt ViewFormat // DecReadFromView

	traceID uint64 // stamped by the compiler on DecFailWith, DecWhere and DecMatch
}
