package binform

/*
valuetype.go implements ValueType, the semantic type assigned to
every declared Format by type inference (typecheck.go), and its
unification rules (spec.md §3, §4.E).
*/

type ValueTypeKind uint8

const (
	TypeAny ValueTypeKind = iota
	TypeEmpty
	TypeBase
	TypeTuple
	TypeRecord
	TypeUnion
	TypeSeq
	TypeOption
)

// RecordFieldType pairs a Label with its ValueType; Record field
// order is semantically significant because records are parsed
// positionally.
type RecordFieldType struct {
	Label Label
	Type  ValueType
}

// UnionFieldType pairs a Label with its ValueType; Union is
// unordered, keyed by label.
type UnionFieldType struct {
	Label Label
	Type  ValueType
}

/*
ValueType is the tagged sum of spec.md §3: Any, Empty, a ground Base,
fixed-arity Tuple, ordered-field Record, label-keyed Union, homogeneous
Seq, and 0-or-1 Option.
*/
type ValueType struct {
	Kind ValueTypeKind

	base    BaseType
	tuple   []ValueType
	record  []RecordFieldType
	union   []UnionFieldType
	elem    *ValueType
}

func AnyType() ValueType   { return ValueType{Kind: TypeAny} }
func EmptyType() ValueType { return ValueType{Kind: TypeEmpty} }
func BaseT(b BaseType) ValueType { return ValueType{Kind: TypeBase, base: b} }

func TupleType(elems ...ValueType) ValueType { return ValueType{Kind: TypeTuple, tuple: elems} }

func RecordType(fields ...RecordFieldType) ValueType {
	return ValueType{Kind: TypeRecord, record: fields}
}

func UnionType(fields ...UnionFieldType) ValueType {
	return ValueType{Kind: TypeUnion, union: fields}
}

func SeqType(elem ValueType) ValueType { return ValueType{Kind: TypeSeq, elem: &elem} }

func OptionType(elem ValueType) ValueType { return ValueType{Kind: TypeOption, elem: &elem} }

// Base returns the ground type and a validity flag.
func (t ValueType) Base() (BaseType, bool) {
	if t.Kind != TypeBase {
		return 0, false
	}
	return t.base, true
}

// Tuple returns the element types; empty/nil for non-tuples.
func (t ValueType) Tuple() []ValueType { return t.tuple }

// Record returns the ordered field types; empty/nil for non-records.
func (t ValueType) Record() []RecordFieldType { return t.record }

// Union returns the keyed variant types; empty/nil for non-unions.
func (t ValueType) Union() []UnionFieldType { return t.union }

// Elem returns the element/wrapped type for Seq/Option, or nil.
func (t ValueType) Elem() *ValueType { return t.elem }

func (t ValueType) unionField(label Label) (ValueType, bool) {
	for _, f := range t.union {
		if f.Label == label {
			return f.Type, true
		}
	}
	return ValueType{}, false
}

// Unify computes the unification of a and b (commutative, partial),
// per the rules of spec.md §4.E. It returns an error wrapping
// errorUnsatisfiableUnify (or a more specific arity/label mismatch
// sentinel) when the two types cannot be reconciled.
func Unify(a, b ValueType) (ValueType, error) {
	if a.Kind == TypeAny {
		return b, nil
	}
	if b.Kind == TypeAny {
		return a, nil
	}
	if a.Kind == TypeEmpty {
		return b, nil
	}
	if b.Kind == TypeEmpty {
		return a, nil
	}
	if a.Kind != b.Kind {
		return ValueType{}, errorUnsatisfiableUnify
	}

	switch a.Kind {
	case TypeBase:
		if a.base != b.base {
			return ValueType{}, errorUnsatisfiableUnify
		}
		return a, nil

	case TypeTuple:
		if len(a.tuple) != len(b.tuple) {
			return ValueType{}, errorTupleArityMismatch
		}
		out := make([]ValueType, len(a.tuple))
		for i := range a.tuple {
			u, err := Unify(a.tuple[i], b.tuple[i])
			if err != nil {
				return ValueType{}, err
			}
			out[i] = u
		}
		return TupleType(out...), nil

	case TypeRecord:
		if len(a.record) != len(b.record) {
			return ValueType{}, errorRecordLabelMismatch
		}
		out := make([]RecordFieldType, len(a.record))
		for i := range a.record {
			if a.record[i].Label != b.record[i].Label {
				return ValueType{}, errorRecordLabelMismatch
			}
			u, err := Unify(a.record[i].Type, b.record[i].Type)
			if err != nil {
				return ValueType{}, err
			}
			out[i] = RecordFieldType{Label: a.record[i].Label, Type: u}
		}
		return RecordType(out...), nil

	case TypeUnion:
		seen := map[Label]bool{}
		var out []UnionFieldType
		for _, f := range a.union {
			seen[f.Label] = true
			if g, ok := b.unionField(f.Label); ok {
				u, err := Unify(f.Type, g)
				if err != nil {
					return ValueType{}, err
				}
				out = append(out, UnionFieldType{Label: f.Label, Type: u})
			} else {
				out = append(out, f)
			}
		}
		for _, g := range b.union {
			if !seen[g.Label] {
				out = append(out, g)
			}
		}
		return UnionType(out...), nil

	case TypeSeq:
		u, err := Unify(*a.elem, *b.elem)
		if err != nil {
			return ValueType{}, err
		}
		return SeqType(u), nil

	case TypeOption:
		u, err := Unify(*a.elem, *b.elem)
		if err != nil {
			return ValueType{}, err
		}
		return OptionType(u), nil

	default:
		return ValueType{}, errorUnsatisfiableUnify
	}
}

// Equal reports structural equality (not unifiability) of two types.
func (t ValueType) Equal(other ValueType) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case TypeAny, TypeEmpty:
		return true
	case TypeBase:
		return t.base == other.base
	case TypeTuple:
		if len(t.tuple) != len(other.tuple) {
			return false
		}
		for i := range t.tuple {
			if !t.tuple[i].Equal(other.tuple[i]) {
				return false
			}
		}
		return true
	case TypeRecord:
		if len(t.record) != len(other.record) {
			return false
		}
		for i := range t.record {
			if t.record[i].Label != other.record[i].Label || !t.record[i].Type.Equal(other.record[i].Type) {
				return false
			}
		}
		return true
	case TypeUnion:
		if len(t.union) != len(other.union) {
			return false
		}
		for _, f := range t.union {
			g, ok := other.unionField(f.Label)
			if !ok || !f.Type.Equal(g) {
				return false
			}
		}
		return true
	case TypeSeq, TypeOption:
		return t.elem.Equal(*other.elem)
	default:
		return false
	}
}
