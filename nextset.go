package binform

/*
nextset.go implements Next, the zero-suspension representation of
"what must still be parsed" that the match-tree builder (matchtree.go)
differentiates one byte at a time (spec.md §4.F). Next nodes are
built bottom-up from shared leaves and referenced by plain pointers;
Go's GC makes the hash-consing/refcounting spec.md §9 calls for an
implementation detail rather than a correctness requirement, so this
module skips explicit interning and relies on structural sharing of
the pointers callers already hold.
*/

type NextKind uint8

const (
	NextEmpty NextKind = iota
	NextCat
	NextSequence
	NextRepeat
	NextUnion
	NextDelayRef
)

// Next is the tagged continuation node.
type Next struct {
	Kind NextKind

	head Format // NextCat
	tail *Next  // NextCat, NextSequence, NextRepeat

	seq []Format // NextSequence

	repeatBody Format // NextRepeat

	a, b *Next // NextUnion

	ref *FormatRef // NextDelayRef
}

var emptyNext = &Next{Kind: NextEmpty}

func catNext(head Format, tail *Next) *Next {
	if tail == nil {
		tail = emptyNext
	}
	return &Next{Kind: NextCat, head: head, tail: tail}
}

func sequenceNext(seq []Format, tail *Next) *Next {
	if len(seq) == 0 {
		return tail
	}
	return &Next{Kind: NextSequence, seq: seq, tail: tail}
}

func repeatNext(body Format, tail *Next) *Next {
	return &Next{Kind: NextRepeat, repeatBody: body, tail: tail}
}

func unionNext(a, b *Next) *Next {
	if a.Kind == NextEmpty && b.Kind == NextEmpty {
		return emptyNext
	}
	return &Next{Kind: NextUnion, a: a, b: b}
}

// stepBranch is one outgoing edge of a Step: bytes claims the set of
// byte values that continue to next.
type stepBranch struct {
	bytes ByteSet
	next  *Next
}

// Step is MatchTreeStep: a single-byte unfolding of a Next, carrying
// whether the Next can also terminate with zero further bytes.
type Step struct {
	accept   bool
	branches []stepBranch
}

type stepBuilder struct {
	module   *FormatModule
	visiting map[int]bool // ItemVar indices currently being expanded, zero-width cycle guard
}

// stepOf computes the Step for n, mechanically unfolding exactly the
// rules spec.md §4.F step 1 describes.
func (sb *stepBuilder) stepOf(n *Next) (Step, error) {
	switch n.Kind {
	case NextEmpty:
		return Step{accept: true}, nil

	case NextCat:
		return sb.stepOfCat(n.head, n.tail)

	case NextSequence:
		if len(n.seq) == 0 {
			return sb.stepOf(n.tail)
		}
		return sb.stepOfCat(n.seq[0], sequenceNext(n.seq[1:], n.tail))

	case NextRepeat:
		more := catNext(n.repeatBody, repeatNext(n.repeatBody, n.tail))
		moreStep, err := sb.stepOf(more)
		if err != nil {
			return Step{}, err
		}
		doneStep, err := sb.stepOf(n.tail)
		if err != nil {
			return Step{}, err
		}
		return mergeSteps(moreStep, doneStep), nil

	case NextUnion:
		sa, err := sb.stepOf(n.a)
		if err != nil {
			return Step{}, err
		}
		sbb, err := sb.stepOf(n.b)
		if err != nil {
			return Step{}, err
		}
		return mergeSteps(sa, sbb), nil

	case NextDelayRef:
		decl := sb.module.Decl(n.ref)
		return sb.stepOf(catNext(decl.Fmt, emptyNext))

	default:
		return Step{}, evalErr("stepOf", "unhandled Next kind")
	}
}

// stepOfCat computes the Step for "head, then tail", applying the
// format-specific derivative rule for head (spec.md §4.F step 1).
func (sb *stepBuilder) stepOfCat(head Format, tail *Next) (Step, error) {
	switch head.Kind {
	case FmtByte:
		return Step{branches: []stepBranch{{bytes: head.byteSet, next: tail}}}, nil

	case FmtFail:
		return Step{}, nil // dead end: never accepts, claims no bytes

	case FmtEndOfInput, FmtAlign, FmtSkipRemainder, FmtPos, FmtCompute, FmtPeekNot:
		// Zero-width and, for lookahead purposes, always-nullable:
		// the byte that continues matching is wholly determined by
		// whatever follows.
		return sb.stepOf(tail)

	case FmtVariant, FmtHint, FmtValidate:
		return sb.stepOfCat(*head.child, tail)

	case FmtMap:
		return sb.stepOfCat(*head.child, tail)

	case FmtWhere:
		// Where's predicate is a dynamic, not lookahead-visible,
		// condition; for disambiguation purposes it is transparent.
		return sb.stepOfCat(*head.child, tail)

	case FmtPeek:
		// Peek does not advance the cursor, so for the purpose of
		// deciding *this* byte it behaves like its child, but the
		// continuation after a successful Peek is simply tail (the
		// child's consumption is virtual).
		childStep, err := sb.stepOfCat(*head.child, emptyNext)
		if err != nil {
			return Step{}, err
		}
		tailStep, err := sb.stepOf(tail)
		if err != nil {
			return Step{}, err
		}
		if childStep.accept {
			return tailStep, nil
		}
		rebased := make([]stepBranch, len(childStep.branches))
		for i, br := range childStep.branches {
			rebased[i] = stepBranch{bytes: br.bytes, next: tail}
		}
		return Step{accept: false, branches: rebased}, nil

	case FmtTuple:
		return sb.stepOf(sequenceNext(head.children, tail))

	case FmtRecord:
		fmts := make([]Format, len(head.fields))
		for i, f := range head.fields {
			fmts[i] = f.Format
		}
		return sb.stepOf(sequenceNext(fmts, tail))

	case FmtUnion, FmtUnionNondet:
		acc := Step{}
		for i, c := range head.children {
			s, err := sb.stepOfCat(c, tail)
			if err != nil {
				return Step{}, err
			}
			if i == 0 {
				acc = s
			} else {
				acc = mergeSteps(acc, s)
			}
		}
		return acc, nil

	case FmtRepeat:
		return sb.stepOf(repeatNext(*head.child, tail))

	case FmtRepeat1:
		return sb.stepOfCat(*head.child, repeatNext(*head.child, tail))

	case FmtRepeatCount, FmtRepeatBetween, FmtRepeatUntilLast, FmtRepeatUntilSeq, FmtForEach:
		// Count/predicate/source-driven repetition is not
		// lookahead-predictable from the format shape alone; treat
		// conservatively as "may consume nothing, then tail", which
		// is sound for disambiguation (callers that need precision
		// here fall back to UnionNondet, exactly as an unbuildable
		// match tree does).
		return sb.stepOf(tail)

	case FmtSlice, FmtSliceUpTo:
		return sb.stepOfCat(*head.child, tail)

	case FmtWithRelativeOffset:
		// Confined to an unrelated offset; transparent to the
		// outer cursor's lookahead.
		return sb.stepOf(tail)

	case FmtBits:
		// Bit-level predicates are outside the byte-oriented match
		// tree; treat as opaque, like dynamic repetition above.
		return sb.stepOf(tail)

	case FmtMatch, FmtMatchVariant:
		return sb.stepOf(tail)

	case FmtDecodeBytes:
		return sb.stepOf(tail)

	case FmtLetView, FmtWithView:
		return sb.stepOf(tail)

	case FmtItemVar:
		idx := head.ref.index
		if sb.visiting[idx] {
			// Zero-width left recursion: a genuinely ill-formed
			// format for lookahead purposes. Treat as a dead end
			// rather than looping; compilation still succeeds via
			// the UnionNondet fallback.
			return Step{}, nil
		}
		sb.visiting[idx] = true
		defer delete(sb.visiting, idx)
		decl := sb.module.Decl(head.ref)
		return sb.stepOfCat(decl.Fmt, tail)

	default:
		return Step{}, evalErr("stepOfCat", "unhandled format kind")
	}
}

// mergeSteps combines two Steps, splitting any overlapping byte
// ranges so the result's branches remain pairwise disjoint, exactly
// as MatchTreeStep.branches is documented to maintain.
func mergeSteps(a, b Step) Step {
	out := Step{accept: a.accept || b.accept}
	out.branches = append(out.branches, a.branches...)
	for _, br := range b.branches {
		out.branches = mergeBranchInto(out.branches, br)
	}
	return out
}

func mergeBranchInto(existing []stepBranch, incoming stepBranch) []stepBranch {
	remaining := incoming.bytes
	var result []stepBranch
	for _, e := range existing {
		overlap := e.bytes.Intersection(remaining)
		if overlap.IsEmpty() {
			result = append(result, e)
			continue
		}
		onlyExisting := e.bytes.Difference(overlap)
		if !onlyExisting.IsEmpty() {
			result = append(result, stepBranch{bytes: onlyExisting, next: e.next})
		}
		result = append(result, stepBranch{bytes: overlap, next: unionNext(e.next, incoming.next)})
		remaining = remaining.Difference(overlap)
	}
	if !remaining.IsEmpty() {
		result = append(result, stepBranch{bytes: remaining, next: incoming.next})
	}
	return result
}
