package binform

/*
pattern.go implements Pattern, used both by Expr's Match construct
and by Format's Match/MatchVariant constructors. Every pattern binds
fresh scope variables as it matches; matching is total over a
well-typed scrutinee (spec.md §3 "Pattern matching").
*/

type PatternKind uint8

const (
	PatWildcard PatternKind = iota
	PatBind
	PatLiteral
	PatTuple
	PatSeq
	PatVariant
)

/*
Pattern is a tagged tree mirroring spec.md's pattern grammar:
wildcard, literal, tuple, sequence, and variant, plus a plain
variable-bind leaf used pervasively to name a scrutinee for reuse in
an arm's body.
*/
type Pattern struct {
	Kind PatternKind

	bindName Label          // PatBind
	lit      Value          // PatLiteral
	elems    []Pattern      // PatTuple, PatSeq
	variant  Label          // PatVariant
	inner    *Pattern       // PatVariant
}

func PWildcard() Pattern { return Pattern{Kind: PatWildcard} }

func PBind(name Label) Pattern { return Pattern{Kind: PatBind, bindName: name} }

func PLiteral(v Value) Pattern { return Pattern{Kind: PatLiteral, lit: v} }

func PTuple(elems ...Pattern) Pattern { return Pattern{Kind: PatTuple, elems: elems} }

func PSeq(elems ...Pattern) Pattern { return Pattern{Kind: PatSeq, elems: elems} }

func PVariant(label Label, inner Pattern) Pattern {
	return Pattern{Kind: PatVariant, variant: label, inner: &inner}
}

// Match attempts to unify p against v, pushing any bindings onto
// scope. It returns whether the match succeeded; on failure, any
// bindings pushed by sub-patterns matched before the mismatch remain
// on scope (the caller owns backing out via PopTo to the pre-match
// Mark).
func (p Pattern) Match(v Value, scope *Scope) bool {
	switch p.Kind {
	case PatWildcard:
		return true
	case PatBind:
		scope.Push(p.bindName, v)
		return true
	case PatLiteral:
		return valuesEqual(p.lit, v)
	case PatTuple:
		if v.Kind() != ValueTuple {
			return false
		}
		elems := v.Tuple()
		if len(elems) != len(p.elems) {
			return false
		}
		for i, sub := range p.elems {
			if !sub.Match(elems[i], scope) {
				return false
			}
		}
		return true
	case PatSeq:
		if v.Kind() != ValueSeq {
			return false
		}
		seq := v.Seq()
		if seq.Len() != len(p.elems) {
			return false
		}
		for i, sub := range p.elems {
			if !sub.Match(seq.At(i), scope) {
				return false
			}
		}
		return true
	case PatVariant:
		if v.Kind() != ValueVariant {
			return false
		}
		variant := v.Variant()
		if variant.Label != p.variant {
			return false
		}
		return p.inner.Match(variant.Value, scope)
	default:
		return false
	}
}

func valuesEqual(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case ValueBase:
		ab, aok := a.Base()
		bb, _ := b.Base()
		if !aok || ab != bb {
			return false
		}
		switch ab {
		case BaseBool:
			return a.Bool() == b.Bool()
		case BaseChar:
			return a.Char() == b.Char()
		default:
			return a.Uint() == b.Uint()
		}
	case ValueTuple:
		at, bt := a.Tuple(), b.Tuple()
		if len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !valuesEqual(at[i], bt[i]) {
				return false
			}
		}
		return true
	case ValueRecord:
		ar, br := a.Record(), b.Record()
		if len(ar) != len(br) {
			return false
		}
		for i := range ar {
			if ar[i].Label != br[i].Label || !valuesEqual(ar[i].Value, br[i].Value) {
				return false
			}
		}
		return true
	case ValueVariant:
		av, bv := a.Variant(), b.Variant()
		return av.Label == bv.Label && valuesEqual(av.Value, bv.Value)
	case ValueSeq:
		as, bs := a.Seq(), b.Seq()
		if as.Len() != bs.Len() {
			return false
		}
		for i := 0; i < as.Len(); i++ {
			if !valuesEqual(as.At(i), bs.At(i)) {
				return false
			}
		}
		return true
	case ValueOption:
		av, aok := a.Option()
		bv, bok := b.Option()
		if aok != bok {
			return false
		}
		return !aok || valuesEqual(av, bv)
	default:
		return false
	}
}
