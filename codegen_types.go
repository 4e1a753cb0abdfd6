package binform

/*
codegen_types.go implements the code generator's type pool (spec.md
§4.J step 1): one nominal type is minted per distinct ValueType shape
reachable from a compiled Decoder tree, named from the path at which
it was first required (record field labels, tuple/seq indices, union
variant tags — the same dotted-path convention printer.go's
CollectHints uses), with lexical collisions resolved by suffixing.
Two decoders producing structurally identical shapes, regardless of
where in the tree they sit, share one generated type.
*/

// TypeName is a generated nominal type identifier.
type TypeName string

// PathLabel names the position in a Decoder tree at which a ValueType
// was first required.
type PathLabel string

// TypePool collects the nominal types one GenerateCode run decided it
// needs.
type TypePool struct {
	order   []TypeName
	byShape map[string]TypeName
	shapes  map[TypeName]ValueType
	names   map[TypeName]bool
}

func newTypePool() *TypePool {
	return &TypePool{
		byShape: map[string]TypeName{},
		shapes:  map[TypeName]ValueType{},
		names:   map[TypeName]bool{},
	}
}

// intern returns the nominal name for t, minting one derived from
// path on first sight and reusing it for every later structurally
// equal shape.
func (p *TypePool) intern(t ValueType, path PathLabel) TypeName {
	key := shapeKey(t)
	if name, ok := p.byShape[key]; ok {
		return name
	}
	name := p.freshName(path, t)
	p.byShape[key] = name
	p.shapes[name] = t
	p.names[name] = true
	p.order = append(p.order, name)
	return name
}

func (p *TypePool) freshName(path PathLabel, t ValueType) TypeName {
	base := pathToIdent(path, t)
	name := TypeName(base)
	for i := 2; p.names[name]; i++ {
		name = TypeName(base + itoa(i))
	}
	return name
}

// Types returns the pool's entries in first-required order.
func (p *TypePool) Types() []TypeName { return append([]TypeName(nil), p.order...) }

// Shape returns the ValueType a generated name stands for.
func (p *TypePool) Shape(name TypeName) ValueType { return p.shapes[name] }

func pathToIdent(path PathLabel, t ValueType) string {
	if path == "" {
		return "Root" + kindWord(t.Kind)
	}
	segs := splitPath(string(path))
	b := newStrBuilder()
	for _, s := range segs {
		b.WriteString(capitalize(goIdent(s)))
	}
	ident := b.String()
	if ident == "" {
		ident = "Anon" + kindWord(t.Kind)
	}
	return ident
}

func kindWord(k ValueTypeKind) string {
	switch k {
	case TypeBase:
		return "Base"
	case TypeTuple:
		return "Tuple"
	case TypeRecord:
		return "Record"
	case TypeUnion:
		return "Union"
	case TypeSeq:
		return "Seq"
	case TypeOption:
		return "Option"
	default:
		return "Any"
	}
}

func splitPath(path string) []string {
	var out []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			out = append(out, path[start:i])
			start = i + 1
		}
	}
	out = append(out, path[start:])
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// shapeKey produces a structural fingerprint of t, used purely to
// dedupe type-pool entries; it is not exposed outside this file.
func shapeKey(t ValueType) string {
	switch t.Kind {
	case TypeAny:
		return "any"
	case TypeEmpty:
		return "empty"
	case TypeBase:
		return "base:" + itoa(int(t.base))
	case TypeTuple:
		b := newStrBuilder()
		b.WriteString("tuple(")
		for i, e := range t.tuple {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(shapeKey(e))
		}
		b.WriteByte(')')
		return b.String()
	case TypeRecord:
		b := newStrBuilder()
		b.WriteString("record(")
		for i, f := range t.record {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Label.String())
			b.WriteByte(':')
			b.WriteString(shapeKey(f.Type))
		}
		b.WriteByte(')')
		return b.String()
	case TypeUnion:
		b := newStrBuilder()
		b.WriteString("union(")
		for i, f := range t.union {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Label.String())
			b.WriteByte(':')
			b.WriteString(shapeKey(f.Type))
		}
		b.WriteByte(')')
		return b.String()
	case TypeSeq:
		return "seq(" + shapeKey(*t.elem) + ")"
	case TypeOption:
		return "option(" + shapeKey(*t.elem) + ")"
	default:
		return "?"
	}
}
