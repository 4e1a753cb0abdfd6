package binform

/*
format.go implements Format, the declarative format algebra (spec.md
§3, §4.D). As with Expr and ValueType, a Format node is a single
tagged struct with boxed/sliced children rather than an interface
hierarchy, keeping traversal logic (typecheck.go, nextset.go,
compiler.go) out of the node definitions themselves.
*/

type FormatKind uint8

const (
	FmtByte FormatKind = iota
	FmtEndOfInput
	FmtAlign
	FmtSkipRemainder
	FmtFail
	FmtPos
	FmtCompute

	FmtItemVar

	FmtTuple
	FmtRecord

	FmtUnion
	FmtUnionNondet
	FmtVariant

	FmtRepeat
	FmtRepeat1
	FmtRepeatCount
	FmtRepeatBetween
	FmtRepeatUntilLast
	FmtRepeatUntilSeq
	FmtForEach

	// Slice confines its child to exactly N bytes and requires the
	// child to consume every one of them. SliceUpTo confines to at
	// most N bytes and skips any remainder (spec.md §9 Open Question:
	// both variants are kept under distinct names rather than
	// collapsed into one constructor with a mode flag).
	FmtSlice
	FmtSliceUpTo

	FmtWithRelativeOffset

	FmtPeek
	FmtPeekNot

	FmtBits

	FmtWhere
	FmtValidate

	FmtMatch
	FmtMatchVariant

	FmtMap
	FmtDecodeBytes

	FmtLetView
	FmtWithView

	FmtHint
)

// RecordFormatField pairs a Label with the Format parsed for it.
// "__"-prefixed labels are parsed and bound but never surfaced;
// single-"_"-prefixed labels are parsed, bound into scope for
// subsequent fields, and elided from the exposed record (spec.md
// §4.D).
type RecordFormatField struct {
	Label  Label
	Format Format
}

// FormatMatchArm pairs a Pattern with the Format parsed when it
// matches the scrutinee.
type FormatMatchArm struct {
	Pattern Pattern
	Format  Format
}

// FormatMatchVariantArm pairs a Pattern with a variant Label and the
// Format parsed for that variant's payload.
type FormatMatchVariantArm struct {
	Pattern Pattern
	Label   Label
	Format  Format
}

// ViewFormatKind tags the two ways a named View may be read from
// (spec.md §4.D Views).
type ViewFormatKind uint8

const (
	ViewReadOffsetLen ViewFormatKind = iota
	ViewReadArray
)

// ViewFormat describes a random-access read against a previously
// bound View.
type ViewFormat struct {
	Kind        ViewFormatKind
	Offset, Len Expr
	ArrayKind   BaseType // ViewReadArray only
}

func ReadOffsetLen(offset, length Expr) ViewFormat {
	return ViewFormat{Kind: ViewReadOffsetLen, Offset: offset, Len: length}
}

func ReadArray(offset, length Expr, kind BaseType) ViewFormat {
	return ViewFormat{Kind: ViewReadArray, Offset: offset, Len: length, ArrayKind: kind}
}

/*
Format is the tagged format-algebra node. FormatModule owns a vector
of named declarations built from Format trees (module.go); a Format
by itself carries no type — type is solved per-declaration by
typecheck.go.
*/
type Format struct {
	Kind FormatKind

	byteSet ByteSet // FmtByte
	n       int     // FmtAlign
	msg     string  // FmtFail
	expr    Expr    // FmtCompute, FmtRepeatCount(count), FmtSlice/FmtSliceUpTo(len), FmtDecodeBytes(bytes)
	expr2   Expr    // FmtRepeatBetween(hi), FmtWithRelativeOffset(offset)
	exprOpt *Expr   // FmtWithRelativeOffset(base, optional)

	ref    *FormatRef // FmtItemVar
	args   []Expr     // FmtItemVar
	views  []ViewArg  // FmtItemVar

	children []Format // FmtTuple, FmtUnion, FmtUnionNondet
	fields   []RecordFormatField // FmtRecord

	label Label    // FmtVariant, FmtLetView, FmtWithView(view name)
	child *Format  // most single-child wrappers

	bindName Label    // FmtWhere(x), FmtMap(x), FmtForEach(x), FmtRepeatUntilLast/Seq(x)
	pred     *Expr    // FmtWhere, FmtRepeatUntilLast, FmtRepeatUntilSeq
	checkName string   // FmtValidate
	lambdaOut *Expr    // FmtMap

	matchArms        []FormatMatchArm        // FmtMatch
	matchVariantArms []FormatMatchVariantArm // FmtMatchVariant

	viewFmt ViewFormat // FmtWithView

	hint StyleHint // FmtHint
}

// ViewArg binds a caller-chosen view name to the parameter name the
// callee's declaration expects.
type ViewArg struct {
	Param Label
	View  Label
}

// Leaf / ground constructors.

func IsByte(bs ByteSet) Format        { return Format{Kind: FmtByte, byteSet: bs} }
func IsBytes(bytes ...byte) Format {
	elems := make([]Format, len(bytes))
	for i, b := range bytes {
		elems[i] = IsByte(NewByteSet(b))
	}
	return TupleF(elems...)
}
func ByteIn(lo, hi byte) Format       { return IsByte(ByteRange(lo, hi)) }
func EndOfInputF() Format             { return Format{Kind: FmtEndOfInput} }
func AlignF(n int) Format             { return Format{Kind: FmtAlign, n: n} }
func SkipRemainderF() Format          { return Format{Kind: FmtSkipRemainder} }
func FailF(msg string) Format         { return Format{Kind: FmtFail, msg: msg} }
func PosF() Format                    { return Format{Kind: FmtPos} }
func ComputeF(e Expr) Format          { return Format{Kind: FmtCompute, expr: e} }

// ItemVar invokes a previously declared format by reference.
func ItemVar(ref *FormatRef, args []Expr, views []ViewArg) Format {
	return Format{Kind: FmtItemVar, ref: ref, args: args, views: views}
}

func TupleF(elems ...Format) Format { return Format{Kind: FmtTuple, children: elems} }

func RecordF(fields ...RecordFormatField) Format {
	return Format{Kind: FmtRecord, fields: fields}
}

func UnionF(branches ...Format) Format { return Format{Kind: FmtUnion, children: branches} }

func AltsF(branches ...Format) Format { return UnionF(branches...) } // alias, teacher-style helper name

func UnionNondetF(branches ...Format) Format {
	return Format{Kind: FmtUnionNondet, children: branches}
}

func VariantF(label Label, f Format) Format {
	return Format{Kind: FmtVariant, label: label, child: &f}
}

func RepeatF(f Format) Format  { return Format{Kind: FmtRepeat, child: &f} }
func Repeat1F(f Format) Format { return Format{Kind: FmtRepeat1, child: &f} }

func RepeatCountF(n Expr, f Format) Format {
	return Format{Kind: FmtRepeatCount, expr: n, child: &f}
}

func RepeatBetweenF(lo, hi Expr, f Format) Format {
	return Format{Kind: FmtRepeatBetween, expr: lo, expr2: hi, child: &f}
}

func RepeatUntilLastF(x Label, pred Expr, f Format) Format {
	return Format{Kind: FmtRepeatUntilLast, bindName: x, pred: &pred, child: &f}
}

func RepeatUntilSeqF(x Label, pred Expr, f Format) Format {
	return Format{Kind: FmtRepeatUntilSeq, bindName: x, pred: &pred, child: &f}
}

func ForEachF(seq Expr, x Label, f Format) Format {
	return Format{Kind: FmtForEach, expr: seq, bindName: x, child: &f}
}

// SliceF confines f to exactly length bytes, requiring it to consume
// all of them.
func SliceF(length Expr, f Format) Format {
	return Format{Kind: FmtSlice, expr: length, child: &f}
}

// SliceUpToF confines f to at most length bytes, skipping any
// unconsumed remainder once f returns.
func SliceUpToF(length Expr, f Format) Format {
	return Format{Kind: FmtSliceUpTo, expr: length, child: &f}
}

// WithRelativeOffsetF parses f at base+offset (base defaults to the
// buffer origin when nil) without advancing the outer cursor.
func WithRelativeOffsetF(base *Expr, offset Expr, f Format) Format {
	return Format{Kind: FmtWithRelativeOffset, exprOpt: base, expr2: offset, child: &f}
}

func PeekF(f Format) Format    { return Format{Kind: FmtPeek, child: &f} }
func PeekNotF(f Format) Format { return Format{Kind: FmtPeekNot, child: &f} }

func BitsF(f Format) Format { return Format{Kind: FmtBits, child: &f} }

func WhereF(f Format, x Label, pred Expr) Format {
	return Format{Kind: FmtWhere, child: &f, bindName: x, pred: &pred}
}

// WhereLambdaF is a teacher-style convenience alias for WhereF.
func WhereLambdaF(f Format, x Label, pred Expr) Format { return WhereF(f, x, pred) }

// ValidateF behaves exactly like f while parsing; name/checkExpr are
// recorded for an opt-in post-parse validation pass (program.go's
// Program.Validate), per the Open Question resolution in SPEC_FULL.md §5.
func ValidateF(f Format, name string, checkExpr Expr) Format {
	return Format{Kind: FmtValidate, child: &f, checkName: name, pred: &checkExpr}
}

func MatchF(scrutinee Expr, arms ...FormatMatchArm) Format {
	return Format{Kind: FmtMatch, expr: scrutinee, matchArms: arms}
}

func MatchVariantF(scrutinee Expr, arms ...FormatMatchVariantArm) Format {
	return Format{Kind: FmtMatchVariant, expr: scrutinee, matchVariantArms: arms}
}

func MapF(f Format, x Label, out Expr) Format {
	return Format{Kind: FmtMap, child: &f, bindName: x, lambdaOut: &out}
}

// ChainF is a teacher-style alias for MapF used when the transform is
// a simple pass-through pipeline stage.
func ChainF(f Format, x Label, out Expr) Format { return MapF(f, x, out) }

func DecodeBytesF(bytesExpr Expr, f Format) Format {
	return Format{Kind: FmtDecodeBytes, expr: bytesExpr, child: &f}
}

func LetViewF(name Label, f Format) Format {
	return Format{Kind: FmtLetView, label: name, child: &f}
}

func WithViewF(viewName Label, vf ViewFormat) Format {
	return Format{Kind: FmtWithView, label: viewName, viewFmt: vf}
}

func HintF(h StyleHint, f Format) Format {
	return Format{Kind: FmtHint, hint: h, child: &f}
}

// RecordLensF projects a single named field back out of a record
// Format, a convenience combinator mirroring the teacher's
// record_lens helper.
func RecordLensF(f Format, label Label) Format {
	x := Intern("__lens")
	return MapF(f, x, ProjField(Var(x), label))
}
