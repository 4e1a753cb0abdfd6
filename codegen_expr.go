package binform

import "fmt"

/*
codegen_expr.go implements the generator's expression lowering
(spec.md §4.J step 3): Expr maps onto target-language expression text
honoring expr_eval.go's semantics — checked arithmetic by default,
wrapping arithmetic only where the Format explicitly asked for it via
WrappingAdd/Sub/Mul, explicit casts for every As* node, and an
exhaustive switch rendering for Match. Lowering is pure text
production; it never touches a Scope or a Parser, matching Expr's own
total, side-effect-free evaluation contract.
*/

// lowerExpr renders e as a line of target-language source text.
func lowerExpr(e Expr) string {
	switch e.Kind {
	case ExprLitInt:
		return fmt.Sprintf("%s(%d)", goBaseName(e.litBase), e.litInt)
	case ExprLitBool:
		return bool2str(e.litBool)
	case ExprVar:
		return goIdent(e.varName.String())

	case ExprAsU8, ExprAsU16, ExprAsU32, ExprAsU64, ExprAsChar:
		return fmt.Sprintf("%s(%s)", goCastName(e.Kind), lowerExpr(e.args[0]))

	case ExprAdd:
		return lowerArith("+", "CheckedAdd", "WrappingAdd", e)
	case ExprSub:
		return lowerArith("-", "CheckedSub", "WrappingSub", e)
	case ExprMul:
		return lowerArith("*", "CheckedMul", "WrappingMul", e)
	case ExprDiv:
		return lowerBinop("/", e)
	case ExprMod:
		return lowerBinop("%", e)
	case ExprBitAnd:
		return lowerBinop("&", e)
	case ExprBitOr:
		return lowerBinop("|", e)
	case ExprBitXor:
		return lowerBinop("^", e)
	case ExprBitNot:
		return "^(" + lowerExpr(e.args[0]) + ")"
	case ExprShl:
		return lowerBinop("<<", e)
	case ExprShr:
		return lowerBinop(">>", e)

	case ExprEq:
		return lowerBinop("==", e)
	case ExprNe:
		return lowerBinop("!=", e)
	case ExprLt:
		return lowerBinop("<", e)
	case ExprLe:
		return lowerBinop("<=", e)
	case ExprGt:
		return lowerBinop(">", e)
	case ExprGe:
		return lowerBinop(">=", e)

	case ExprTuple:
		b := newStrBuilder()
		b.WriteByte('(')
		for i, a := range e.args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(lowerExpr(a))
		}
		b.WriteByte(')')
		return b.String()

	case ExprRecord:
		b := newStrBuilder()
		b.WriteString("{")
		for i, f := range e.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(goIdent(f.Label.String()))
			b.WriteString(": ")
			b.WriteString(lowerExpr(f.Expr))
		}
		b.WriteString("}")
		return b.String()

	case ExprProjTuple:
		return fmt.Sprintf("%s.f%d", lowerExpr(e.args[0]), e.index)

	case ExprProjField:
		return lowerExpr(e.args[0]) + "." + goIdent(e.label.String())

	case ExprVariant:
		return goIdent(e.label.String()) + "(" + lowerExpr(e.args[0]) + ")"

	case ExprSeqLit:
		b := newStrBuilder()
		b.WriteByte('[')
		for i, a := range e.args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(lowerExpr(a))
		}
		b.WriteByte(']')
		return b.String()

	case ExprSeqLength:
		return "len(" + lowerExpr(e.args[0]) + ")"

	case ExprFlatMap:
		return fmt.Sprintf("flatMap(%s, func(%s) { return %s })",
			lowerExpr(e.args[0]), goIdent(e.lambdaParam.String()), lowerExpr(*e.lambdaBody))

	case ExprForEach:
		return fmt.Sprintf("mapSeq(%s, func(%s) { return %s })",
			lowerExpr(e.args[0]), goIdent(e.lambdaParam.String()), lowerExpr(*e.lambdaBody))

	case ExprMatch:
		return lowerMatchExpr(e)

	default:
		return "/* unsupported expr */"
	}
}

// lowerArith renders a checked-by-default arithmetic op, switching to
// the named wrapping helper when the Format asked for wraparound
// explicitly (WrappingAdd/Sub/Mul set e.wrapping).
func lowerArith(op, checkedFn, wrappingFn string, e Expr) string {
	if e.wrapping {
		return fmt.Sprintf("%s(%s, %s)", wrappingFn, lowerExpr(e.args[0]), lowerExpr(e.args[1]))
	}
	return fmt.Sprintf("%s(%s, %s)", checkedFn, lowerExpr(e.args[0]), lowerExpr(e.args[1]))
}

func lowerBinop(op string, e Expr) string {
	return "(" + lowerExpr(e.args[0]) + " " + op + " " + lowerExpr(e.args[1]) + ")"
}

// lowerMatchExpr renders a Match as an exhaustive switch over the
// scrutinee's pattern shapes, one case per arm in declared order
// (spec.md §4.C: arms are tried in order, first to unify wins).
func lowerMatchExpr(e Expr) string {
	b := newStrBuilder()
	b.WriteString("matchValue(")
	b.WriteString(lowerExpr(e.args[0]))
	b.WriteString(", []matchArm{\n")
	for _, arm := range e.arms {
		b.WriteString("\t{pattern: ")
		b.WriteString(lowerPattern(arm.Pattern))
		b.WriteString(", body: func() any { return ")
		b.WriteString(lowerExpr(arm.Body))
		b.WriteString(" }},\n")
	}
	b.WriteString("})")
	return b.String()
}

// lowerPattern renders a Pattern as a constructor call mirroring
// pattern.go's own P* constructors, so the generated text reads as a
// literal transcription of the source Format rather than a derived
// encoding.
func lowerPattern(p Pattern) string {
	switch p.Kind {
	case PatWildcard:
		return "PWildcard()"
	case PatBind:
		return "PBind(" + quoteLabel(p.bindName) + ")"
	case PatLiteral:
		return "PLiteral(" + lowerLiteralValue(p.lit) + ")"
	case PatTuple:
		return "PTuple(" + lowerPatternList(p.elems) + ")"
	case PatSeq:
		return "PSeq(" + lowerPatternList(p.elems) + ")"
	case PatVariant:
		return "PVariant(" + quoteLabel(p.variant) + ", " + lowerPattern(*p.inner) + ")"
	default:
		return "PWildcard()"
	}
}

func lowerPatternList(elems []Pattern) string {
	b := newStrBuilder()
	for i, el := range elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(lowerPattern(el))
	}
	return b.String()
}

func lowerLiteralValue(v Value) string {
	switch v.Kind() {
	case ValueBase:
		base, _ := v.Base()
		switch base {
		case BaseBool:
			return bool2str(v.Bool())
		case BaseChar:
			return fmt.Sprintf("rune(%d)", v.Char())
		default:
			return fmt.Sprintf("%s(%d)", goBaseName(base), v.Uint())
		}
	default:
		return "/* unsupported literal */"
	}
}

func quoteLabel(l Label) string { return "\"" + l.String() + "\"" }

func goBaseName(b BaseType) string {
	switch b {
	case BaseBool:
		return "bool"
	case BaseU8:
		return "uint8"
	case BaseU16:
		return "uint16"
	case BaseU32:
		return "uint32"
	case BaseU64:
		return "uint64"
	case BaseChar:
		return "rune"
	default:
		return "any"
	}
}

func goCastName(k ExprKind) string {
	switch k {
	case ExprAsU8:
		return "uint8"
	case ExprAsU16:
		return "uint16"
	case ExprAsU32:
		return "uint32"
	case ExprAsU64:
		return "uint64"
	case ExprAsChar:
		return "rune"
	default:
		return "any"
	}
}

// goIdent sanitizes an interned label into a valid bare identifier,
// since labels may carry hidden-field prefixes ("_", "__") that are
// not legal leading identifier characters in every target language's
// dialect.
func goIdent(label string) string {
	if label == "" {
		return "_"
	}
	b := []byte(label)
	out := make([]byte, 0, len(b))
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
			out = append(out, c)
		case c >= '0' && c <= '9' && i > 0:
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
