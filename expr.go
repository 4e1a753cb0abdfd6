package binform

/*
expr.go implements Expr, the pure total expression language used for
dependent sizes, Where conditions, and Map transforms. Nodes are a
single tagged struct (spec.md §9's "tagged unions with boxed
children" guidance, realized as a flat struct plus a slice of boxed
children rather than an interface hierarchy, so traversal stays in
expr_eval.go/expr_infer.go rather than on the node type itself).
*/

type ExprKind uint8

const (
	ExprLitInt ExprKind = iota
	ExprLitBool
	ExprVar

	ExprAsU8
	ExprAsU16
	ExprAsU32
	ExprAsU64
	ExprAsChar

	ExprAdd
	ExprSub
	ExprMul
	ExprDiv
	ExprMod
	ExprBitAnd
	ExprBitOr
	ExprBitXor
	ExprBitNot
	ExprShl
	ExprShr

	ExprEq
	ExprNe
	ExprLt
	ExprLe
	ExprGt
	ExprGe

	ExprTuple
	ExprRecord
	ExprProjTuple
	ExprProjField
	ExprVariant
	ExprSeqLit
	ExprSeqLength
	ExprFlatMap
	ExprForEach

	ExprMatch
)

// RecordExprField pairs a Label with its bound Expr in a record
// construction expression.
type RecordExprField struct {
	Label Label
	Expr  Expr
}

// MatchArm pairs a Pattern with the Expr evaluated when it matches.
// Arms are tried in order; the first to unify wins (spec.md §4.C).
type MatchArm struct {
	Pattern Pattern
	Body    Expr
}

/*
Expr is the expression AST node. Exactly the fields relevant to Kind
are populated; see the New* constructors for the supported shapes.
*/
type Expr struct {
	Kind ExprKind

	litInt   uint64
	litBase  BaseType
	litBool  bool
	varName  Label

	args []Expr // operands for casts/arithmetic/comparison/tuple/seq

	fields   []RecordExprField // ExprRecord
	index    int               // ExprProjTuple
	label    Label             // ExprProjField, ExprVariant
	wrapping bool              // arithmetic ops: wrapping vs checked

	lambdaParam Label // ExprFlatMap, ExprForEach
	lambdaBody  *Expr // ExprFlatMap, ExprForEach

	arms []MatchArm // ExprMatch
}

// LitU8/U16/U32/U64 build a typed unsigned integer literal.
func LitU8(v uint8) Expr   { return Expr{Kind: ExprLitInt, litInt: uint64(v), litBase: BaseU8} }
func LitU16(v uint16) Expr { return Expr{Kind: ExprLitInt, litInt: uint64(v), litBase: BaseU16} }
func LitU32(v uint32) Expr { return Expr{Kind: ExprLitInt, litInt: uint64(v), litBase: BaseU32} }
func LitU64(v uint64) Expr { return Expr{Kind: ExprLitInt, litInt: v, litBase: BaseU64} }

// LitBool builds a boolean literal.
func LitBool(b bool) Expr { return Expr{Kind: ExprLitBool, litBool: b} }

// Var references a name bound earlier in scope.
func Var(name Label) Expr { return Expr{Kind: ExprVar, varName: name} }

func cast(kind ExprKind, e Expr) Expr { return Expr{Kind: kind, args: []Expr{e}} }

func AsU8(e Expr) Expr   { return cast(ExprAsU8, e) }
func AsU16(e Expr) Expr  { return cast(ExprAsU16, e) }
func AsU32(e Expr) Expr  { return cast(ExprAsU32, e) }
func AsU64(e Expr) Expr  { return cast(ExprAsU64, e) }
func AsChar(e Expr) Expr { return cast(ExprAsChar, e) }

func binop(kind ExprKind, a, b Expr, wrapping bool) Expr {
	return Expr{Kind: kind, args: []Expr{a, b}, wrapping: wrapping}
}

func Add(a, b Expr) Expr { return binop(ExprAdd, a, b, false) }
func Sub(a, b Expr) Expr { return binop(ExprSub, a, b, false) }
func Mul(a, b Expr) Expr { return binop(ExprMul, a, b, false) }
func Div(a, b Expr) Expr { return binop(ExprDiv, a, b, false) }
func Mod(a, b Expr) Expr { return binop(ExprMod, a, b, false) }

func WrappingAdd(a, b Expr) Expr { return binop(ExprAdd, a, b, true) }
func WrappingSub(a, b Expr) Expr { return binop(ExprSub, a, b, true) }
func WrappingMul(a, b Expr) Expr { return binop(ExprMul, a, b, true) }

func BitAnd(a, b Expr) Expr { return binop(ExprBitAnd, a, b, false) }
func BitOr(a, b Expr) Expr  { return binop(ExprBitOr, a, b, false) }
func BitXor(a, b Expr) Expr { return binop(ExprBitXor, a, b, false) }
func BitNot(a Expr) Expr    { return Expr{Kind: ExprBitNot, args: []Expr{a}} }
func Shl(a, b Expr) Expr    { return binop(ExprShl, a, b, false) }
func Shr(a, b Expr) Expr    { return binop(ExprShr, a, b, false) }

func Eq(a, b Expr) Expr { return binop(ExprEq, a, b, false) }
func Ne(a, b Expr) Expr { return binop(ExprNe, a, b, false) }
func Lt(a, b Expr) Expr { return binop(ExprLt, a, b, false) }
func Le(a, b Expr) Expr { return binop(ExprLe, a, b, false) }
func Gt(a, b Expr) Expr { return binop(ExprGt, a, b, false) }
func Ge(a, b Expr) Expr { return binop(ExprGe, a, b, false) }

// TupleExpr builds a tuple construction expression.
func TupleExpr(elems ...Expr) Expr { return Expr{Kind: ExprTuple, args: elems} }

// RecordExpr builds a record construction expression; field order is
// significant and carried through to the resulting Value.
func RecordExpr(fields ...RecordExprField) Expr { return Expr{Kind: ExprRecord, fields: fields} }

// ProjTuple projects element i out of a tuple-valued expression.
func ProjTuple(e Expr, i int) Expr { return Expr{Kind: ExprProjTuple, args: []Expr{e}, index: i} }

// ProjField projects a named field out of a record-valued expression.
func ProjField(e Expr, label Label) Expr {
	return Expr{Kind: ExprProjField, args: []Expr{e}, label: label}
}

// VariantExpr tags e with label, producing a Union/Choice value.
func VariantExpr(label Label, e Expr) Expr {
	return Expr{Kind: ExprVariant, args: []Expr{e}, label: label}
}

// SeqLit builds a sequence literal from elems.
func SeqLit(elems ...Expr) Expr { return Expr{Kind: ExprSeqLit, args: elems} }

// SeqLength yields the length of a sequence-valued expression as U64.
func SeqLength(e Expr) Expr { return Expr{Kind: ExprSeqLength, args: []Expr{e}} }

// FlatMap applies a lambda x.body over each element of a
// sequence-of-sequences expression, concatenating the results.
func FlatMap(seq Expr, param Label, body Expr) Expr {
	return Expr{Kind: ExprFlatMap, args: []Expr{seq}, lambdaParam: param, lambdaBody: &body}
}

// ForEach applies a lambda x.body over each element of seq,
// producing a sequence of the results.
func ForEach(seq Expr, param Label, body Expr) Expr {
	return Expr{Kind: ExprForEach, args: []Expr{seq}, lambdaParam: param, lambdaBody: &body}
}

// MatchExpr builds a pattern-match expression over scrutinee.
func MatchExpr(scrutinee Expr, arms ...MatchArm) Expr {
	return Expr{Kind: ExprMatch, args: []Expr{scrutinee}, arms: arms}
}
