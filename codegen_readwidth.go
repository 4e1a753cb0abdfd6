package binform

/*
codegen_readwidth.go implements the generator's read-width analysis
(spec.md §4.J step 6): a type earns a FixedSize companion when every
leaf reachable from it is a fixed-width numeric/primitive, letting the
generated program pre-validate buffer bounds before it starts decoding
rather than discover an overrun mid-field.
*/

// ReadWidth reports whether a ValueType has a fixed compile-time byte
// size and, if so, what it is.
type ReadWidth struct {
	Fixed bool
	Bytes int
}

func baseWidth(b BaseType) int {
	switch b {
	case BaseBool, BaseU8:
		return 1
	case BaseU16:
		return 2
	case BaseU32:
		return 4
	case BaseU64:
		return 8
	case BaseChar:
		return 4
	default:
		return 0
	}
}

// analyzeReadWidth computes t's ReadWidth, memoizing per distinct
// shape in cache so the pass is linear in the number of distinct
// shapes rather than the decoder tree's size.
func analyzeReadWidth(t ValueType, cache map[string]ReadWidth) ReadWidth {
	key := shapeKey(t)
	if rw, ok := cache[key]; ok {
		return rw
	}
	rw := computeReadWidth(t, cache)
	cache[key] = rw
	return rw
}

func computeReadWidth(t ValueType, cache map[string]ReadWidth) ReadWidth {
	switch t.Kind {
	case TypeBase:
		return ReadWidth{Fixed: true, Bytes: baseWidth(t.base)}

	case TypeTuple:
		total := 0
		for _, e := range t.tuple {
			rw := analyzeReadWidth(e, cache)
			if !rw.Fixed {
				return ReadWidth{}
			}
			total += rw.Bytes
		}
		return ReadWidth{Fixed: true, Bytes: total}

	case TypeRecord:
		total := 0
		for _, f := range t.record {
			rw := analyzeReadWidth(f.Type, cache)
			if !rw.Fixed {
				return ReadWidth{}
			}
			total += rw.Bytes
		}
		return ReadWidth{Fixed: true, Bytes: total}

	case TypeUnion:
		if len(t.union) == 0 {
			return ReadWidth{}
		}
		width := -1
		for _, f := range t.union {
			rw := analyzeReadWidth(f.Type, cache)
			if !rw.Fixed {
				return ReadWidth{}
			}
			if width == -1 {
				width = rw.Bytes
			} else if rw.Bytes != width {
				// Variants of differing width need a runtime
				// discriminant to know how far to read; only a
				// uniform-width union is itself fixed-size.
				return ReadWidth{}
			}
		}
		return ReadWidth{Fixed: true, Bytes: width}

	default:
		// Seq and Option carry a data-dependent length; Any/Empty
		// carry no determinable payload. None of these is ever
		// fixed-size.
		return ReadWidth{}
	}
}
