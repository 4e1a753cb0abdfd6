package binform

import "golang.org/x/exp/constraints"

/*
codegen_heap.go implements the generator's heap strategy (spec.md
§4.J step 5): a speculative dry-run size analysis decides, per type,
whether a Union's variants should be boxed to keep the tagged union's
own size within a delta of its smallest variant, or whether a
Record's total estimated size calls for boxing its largest fields to
stay under an absolute cutoff. Neither analysis touches a real
allocator; both are pure arithmetic over ValueType shapes, run once
per type-pool entry.
*/

// HeapAction tags the outcome of the heap analysis for one type.
type HeapAction uint8

const (
	HeapInline HeapAction = iota
	HeapBoxVariant
	HeapBoxField
)

// DefaultVariantDeltaThreshold bounds how much larger a Union's
// largest variant may be than its smallest before the generator boxes
// the oversized variants' payloads instead of inlining every variant
// at the width of the largest.
const DefaultVariantDeltaThreshold = 64

// DefaultRecordSizeCutoff bounds a Record's total estimated inline
// size before the generator starts boxing its largest fields to keep
// the record itself small.
const DefaultRecordSizeCutoff = 256

// HeapLayout is the result of one type's heap analysis.
type HeapLayout struct {
	Action      HeapAction
	BoxedFields []int // record field indices chosen for HeapBoxField
	EstSize     int
}

// sizeUnit is the unit the heap analysis estimates in; kept generic
// so the same arithmetic serves both the byte-size and delta-bound
// computations without a narrowing cast at every call site.
type sizeUnit = uint32

// clampDelta returns b-a, floored at 0, for any unsigned size type;
// the analysis only ever asks "how much bigger", never "how much
// smaller".
func clampDelta[T constraints.Unsigned](a, b T) T {
	if b <= a {
		return 0
	}
	return b - a
}

// estimateSize gives a rough, architecture-independent estimate of a
// ValueType's in-memory footprint. It steers the heap analysis only;
// it is not a promise about the generated runtime's actual layout.
func estimateSize(t ValueType) sizeUnit {
	switch t.Kind {
	case TypeBase:
		w := baseWidth(t.base)
		if w < 1 {
			return 1
		}
		return sizeUnit(w)
	case TypeTuple:
		var total sizeUnit
		for _, e := range t.tuple {
			total += estimateSize(e)
		}
		return total
	case TypeRecord:
		var total sizeUnit
		for _, f := range t.record {
			total += estimateSize(f.Type)
		}
		return total
	case TypeUnion:
		var max sizeUnit
		for _, f := range t.union {
			if s := estimateSize(f.Type); s > max {
				max = s
			}
		}
		return max + 8 // discriminant word
	case TypeSeq:
		return 24 // slice header: pointer, len, cap
	case TypeOption:
		return 8 + estimateSize(*t.elem)
	default:
		return 8
	}
}

// analyzeHeap runs the heap analysis against t, choosing variant
// boxing, field boxing, or inlining per the thresholds given.
func analyzeHeap(t ValueType, variantDelta, recordCutoff sizeUnit) HeapLayout {
	switch t.Kind {
	case TypeUnion:
		return analyzeUnionHeap(t, variantDelta)
	case TypeRecord:
		return analyzeRecordHeap(t, recordCutoff)
	default:
		return HeapLayout{Action: HeapInline, EstSize: int(estimateSize(t))}
	}
}

func analyzeUnionHeap(t ValueType, variantDelta sizeUnit) HeapLayout {
	var min, max sizeUnit
	first := true
	for _, f := range t.union {
		s := estimateSize(f.Type)
		if first || s < min {
			min = s
		}
		if s > max {
			max = s
		}
		first = false
	}
	if clampDelta(min, max) > variantDelta {
		return HeapLayout{Action: HeapBoxVariant, EstSize: int(max)}
	}
	return HeapLayout{Action: HeapInline, EstSize: int(max)}
}

func analyzeRecordHeap(t ValueType, recordCutoff sizeUnit) HeapLayout {
	total := estimateSize(t)
	if total <= recordCutoff {
		return HeapLayout{Action: HeapInline, EstSize: int(total)}
	}

	type scored struct {
		idx  int
		size sizeUnit
	}
	fields := make([]scored, len(t.record))
	for i, f := range t.record {
		fields[i] = scored{idx: i, size: estimateSize(f.Type)}
	}
	// Largest-first bubble sort: record counts rarely exceed a few
	// dozen fields, and determinism matters more than asymptotics
	// here.
	for swapped := true; swapped; {
		swapped = false
		for i := 1; i < len(fields); i++ {
			if fields[i].size > fields[i-1].size {
				fields[i], fields[i-1] = fields[i-1], fields[i]
				swapped = true
			}
		}
	}

	var boxed []int
	remaining := total
	for _, f := range fields {
		if remaining <= recordCutoff {
			break
		}
		boxed = append(boxed, f.idx)
		remaining -= clampDelta[sizeUnit](8, f.size) // a boxed field costs one pointer word
	}
	return HeapLayout{Action: HeapBoxField, BoxedFields: boxed, EstSize: int(remaining)}
}
