package binform

/*
matchtree.go implements MatchTree, the bounded-lookahead decision
tree the compiler (compiler.go) builds for Union and for the repeat
combinators' continue-or-stop choice whenever the alternatives are
unambiguous within the D-byte budget (spec.md §4.F). UnionNondet
never gets a tree; it always compiles to ordered trial.
Construction follows the four-step algorithm spec.md lays out:

 1. unfold a MatchTreeStep per branch via stepOfCat,
 2. merge the per-branch steps into a MatchTreeLevel keyed by
    disjoint byte ranges, recording which original branches survive
    each range,
 3. recurse on any range whose surviving branch set still has more
    than one member, up to the D-byte budget,
 4. fail construction (signalling the caller to fall back to ordered
    trial) if a range never narrows to one branch, or if two branches
    both claim "accept" at the same node.
*/

// MatchTreeLevel is one node of the tree: a set of disjoint byte
// ranges, each either resolved to a single branch, pointing at a
// child level, or (at accept) resolved to a branch with zero further
// bytes required.
type MatchTreeLevel struct {
	accept   int // branch index that accepts with no further bytes, or -1
	entries  []matchTreeEntry
}

type matchTreeEntry struct {
	bytes  ByteSet
	branch int         // >=0 when resolved to exactly one branch
	child  *MatchTreeLevel // non-nil when still ambiguous and recursion continued
}

// MatchTree is the root of a compiled decision tree over a fixed set
// of candidate branches.
type MatchTree struct {
	root       *MatchTreeLevel
	numBranches int
}

// DefaultMatchTreeBudget is D from spec.md §4.F: the maximum number of
// bytes of lookahead the builder will spend disambiguating branches
// before giving up.
const DefaultMatchTreeBudget = 80

// candidate tracks one still-alive branch during level construction.
type mtCandidate struct {
	branch int
	next   *Next
}

// mtRange is one disjoint byte range produced while merging candidate
// steps, together with every candidate still alive on it.
type mtRange struct {
	bytes ByteSet
	cands []mtCandidate
}

// BuildMatchTree attempts to build a MatchTree distinguishing the
// given branches, each parsed against the same continuation tail.
// It returns an error (always one produced by errorMatchTreeUnbuildableAt
// or errorAmbiguousAccept) when no tree within budget bytes can
// disambiguate every branch; callers are expected to fall back to
// ordered non-deterministic trial in that case.
func BuildMatchTree(module *FormatModule, branches []Format, tail *Next, budget int) (*MatchTree, error) {
	nexts := make([]*Next, len(branches))
	for i, b := range branches {
		nexts[i] = catNext(b, tail)
	}
	return buildMatchTreeFromNexts(module, nexts, budget)
}

// buildMatchTreeFromNexts builds a tree directly over pre-built Next
// continuations, used by Repeat/RepeatBetween where a branch's
// continuation (one more iteration vs. done) is not a plain
// Cat(branch, tail) but already threads the repeat-loop shape.
func buildMatchTreeFromNexts(module *FormatModule, nexts []*Next, budget int) (*MatchTree, error) {
	defer debugPath("buildMatchTree", "branches", len(nexts), "budget", budget)()
	if budget <= 0 {
		budget = DefaultMatchTreeBudget
	}
	cands := make([]mtCandidate, len(nexts))
	for i, n := range nexts {
		cands[i] = mtCandidate{branch: i, next: n}
	}
	sb := &stepBuilder{module: module, visiting: map[int]bool{}}
	root, err := buildLevel(sb, cands, budget)
	if err != nil {
		return nil, err
	}
	return &MatchTree{root: root, numBranches: len(nexts)}, nil
}

func buildLevel(sb *stepBuilder, cands []mtCandidate, budget int) (*MatchTreeLevel, error) {
	if len(cands) == 1 {
		return &MatchTreeLevel{accept: -1, entries: []matchTreeEntry{{bytes: fullByteSet(), branch: cands[0].branch}}}, nil
	}
	if budget <= 0 {
		return nil, errorMatchTreeUnbuildableAt(0)
	}

	level := &MatchTreeLevel{accept: -1}

	// Step 1+2: unfold each candidate's step and merge into disjoint
	// ranges, each tagged with the set of (branch, next) pairs alive
	// on that range.
	var ranges []mtRange
	acceptBranches := []int{}

	for _, c := range cands {
		step, err := sb.stepOf(c.next)
		if err != nil {
			return nil, err
		}
		if step.accept {
			acceptBranches = append(acceptBranches, c.branch)
		}
		for _, br := range step.branches {
			ranges = mergeRangeSet(ranges, br.bytes, mtCandidate{branch: c.branch, next: br.next})
		}
	}

	if len(acceptBranches) > 1 {
		return nil, errorAmbiguousAccept(acceptBranches[0], acceptBranches[1])
	}
	if len(acceptBranches) == 1 {
		level.accept = acceptBranches[0]
	}

	for _, r := range ranges {
		switch {
		case len(r.cands) == 1:
			level.entries = append(level.entries, matchTreeEntry{bytes: r.bytes, branch: r.cands[0].branch})
		default:
			// step 3: still ambiguous on this range, recurse one more
			// byte deeper against the remaining budget.
			debugMatchTree("ambiguous-range", "candidates", len(r.cands), "budget", budget)
			child, err := buildLevel(sb, r.cands, budget-1)
			if err != nil {
				return nil, err
			}
			level.entries = append(level.entries, matchTreeEntry{bytes: r.bytes, branch: -1, child: child})
		}
	}

	if len(ranges) == 0 && level.accept < 0 {
		// Every candidate is a dead end (e.g. Fail on every branch).
		return nil, errorMatchTreeUnbuildableAt(0)
	}

	return level, nil
}

func mergeRangeSet(ranges []mtRange, bytes ByteSet, c mtCandidate) []mtRange {
	remaining := bytes
	var out []mtRange
	for _, r := range ranges {
		overlap := r.bytes.Intersection(remaining)
		if overlap.IsEmpty() {
			out = append(out, r)
			continue
		}
		onlyExisting := r.bytes.Difference(overlap)
		if !onlyExisting.IsEmpty() {
			out = append(out, mtRange{bytes: onlyExisting, cands: r.cands})
		}
		merged := append(append([]mtCandidate{}, r.cands...), c)
		out = append(out, mtRange{bytes: overlap, cands: merged})
		remaining = remaining.Difference(overlap)
	}
	if !remaining.IsEmpty() {
		out = append(out, mtRange{bytes: remaining, cands: []mtCandidate{c}})
	}
	return out
}

func fullByteSet() (bs ByteSet) {
	bs[0], bs[1], bs[2], bs[3] = ^uint64(0), ^uint64(0), ^uint64(0), ^uint64(0)
	return bs
}

// Decide inspects zero or more bytes ahead of c's offset via PeekByteAt
// lookahead (it never advances the cursor itself; the caller advances once the
// winning branch is known) and returns the index of the branch to
// run, or -1 with ok=false if the input is exhausted at a node with
// no accept resolution (a genuine parse failure).
func (t *MatchTree) Decide(c *BufferOffset) (branch int, ok bool) {
	level := t.root
	offset := c.Offset()
	for {
		b, has := c.PeekByteAt(offset)
		if !has {
			if level.accept >= 0 {
				return level.accept, true
			}
			return -1, false
		}
		matched := false
		for _, e := range level.entries {
			if !e.bytes.Contains(b) {
				continue
			}
			matched = true
			if e.child == nil {
				return e.branch, true
			}
			level = e.child
			offset++
			break
		}
		if !matched {
			if level.accept >= 0 {
				return level.accept, true
			}
			return -1, false
		}
	}
}
