package binform

/*
module.go implements FormatModule, the owner of a monotonically
extended vector of named format declarations (spec.md §3
"FormatModule", §6 "Format construction API"). FormatModule is
mutated only during construction; every define_format* method solves
and caches the declared Format's ValueType immediately, so by the
time a top-level Format is handed to Compiler.Compile every
declaration in the module already carries a solved type.
*/

import "fmt"

// FormatDecl is one named entry in a FormatModule.
type FormatDecl struct {
	Name   Label
	Params []Label
	Views  []Label
	Fmt    Format
	Type   ValueType

	resolved bool
	// dependsOnNext marks whether compiling a call to this
	// declaration must propagate the caller's residual
	// continuation into match-tree construction, or whether Empty
	// may be substituted because the declaration's own trailing
	// shape never needs to look past its own end to disambiguate.
	// This module takes the conservative default (always true).
	dependsOnNext bool
}

// FormatRef is an opaque handle to a FormatModule declaration,
// returned by the define_format* family and consumed by ItemVar.
type FormatRef struct {
	module *FormatModule
	index  int
}

// Name returns the declared name this ref points to.
func (r *FormatRef) Name() Label { return r.module.decls[r.index].Name }

/*
FormatModule owns the declaration vector. The zero value is not
usable; construct with NewFormatModule.
*/
type FormatModule struct {
	decls  []FormatDecl
	byName map[Label]int
	closed bool
}

// NewFormatModule returns an empty, mutable FormatModule.
func NewFormatModule() *FormatModule {
	return &FormatModule{byName: make(map[Label]int)}
}

func (m *FormatModule) mustBeOpen() {
	if m.closed {
		panic("binform: FormatModule mutated after Close")
	}
}

// Close freezes the module; no further declarations may be added.
// Compiler.Compile calls this implicitly.
func (m *FormatModule) Close() { m.closed = true }

// Decl returns the declaration a FormatRef points to.
func (m *FormatModule) Decl(ref *FormatRef) *FormatDecl { return &m.decls[ref.index] }

// DeclByName looks up a declaration by its interned name.
func (m *FormatModule) DeclByName(name Label) (*FormatRef, bool) {
	i, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return &FormatRef{module: m, index: i}, true
}

// DefineFormat declares name := f with no parameters or views,
// solving and caching its ValueType immediately.
func (m *FormatModule) DefineFormat(name string, f Format) (*FormatRef, error) {
	return m.DefineFormatViews(name, nil, nil, f)
}

// DefineFormatArgs declares a parameterized format.
func (m *FormatModule) DefineFormatArgs(name string, params []Label, f Format) (*FormatRef, error) {
	return m.DefineFormatViews(name, params, nil, f)
}

// DefineFormatViews declares a format taking both arguments and
// named views.
func (m *FormatModule) DefineFormatViews(name string, params, views []Label, f Format) (*FormatRef, error) {
	m.mustBeOpen()
	label := Intern(name)
	if _, exists := m.byName[label]; exists {
		return nil, fmt.Errorf("binform: format %q already declared", name)
	}

	idx := len(m.decls)
	m.decls = append(m.decls, FormatDecl{
		Name: label, Params: params, Views: views, Fmt: f,
		dependsOnNext: true,
	})
	m.byName[label] = idx

	t, err := m.inferFormatType(f, newTypeEnv(params))
	if err != nil {
		m.decls = m.decls[:idx]
		delete(m.byName, label)
		return nil, err
	}
	m.decls[idx].Type = t
	m.decls[idx].resolved = true

	return &FormatRef{module: m, index: idx}, nil
}

/*
DeclareBatch inserts len(names) placeholder declarations (Type =
Any, unresolved) and returns their refs, so format trees that
reference each other (direct or mutual recursion) can be built
before any of them has a solved type. Call DefineBatch once every
tree is ready.
*/
func (m *FormatModule) DeclareBatch(names ...string) []*FormatRef {
	m.mustBeOpen()
	refs := make([]*FormatRef, len(names))
	for i, name := range names {
		label := Intern(name)
		idx := len(m.decls)
		m.decls = append(m.decls, FormatDecl{Name: label, Type: AnyType(), dependsOnNext: true})
		m.byName[label] = idx
		refs[i] = &FormatRef{module: m, index: idx}
	}
	return refs
}

/*
DefineBatch assigns format trees to a batch of placeholders declared
by DeclareBatch, then runs a fixed-point iteration over the whole
batch: each member's type is re-inferred (using the other members'
current, possibly still-Any, types) and unified with its previous
guess, until two consecutive passes agree for every member. If a
member's new type fails to unify with its previous guess, or a
small iteration budget is exhausted, errorUnresolvedRecursion is
returned; the error does not name the batch.
*/
func (m *FormatModule) DefineBatch(refs []*FormatRef, formats []Format) error {
	m.mustBeOpen()
	if len(refs) != len(formats) {
		return fmt.Errorf("binform: DefineBatch: %d refs but %d formats", len(refs), len(formats))
	}
	for i, ref := range refs {
		m.decls[ref.index].Fmt = formats[i]
	}

	const maxIters = 64
	for iter := 0; iter < maxIters; iter++ {
		changed := false
		for _, ref := range refs {
			decl := &m.decls[ref.index]
			t, err := m.inferFormatType(decl.Fmt, newTypeEnv(decl.Params))
			if err != nil {
				return err
			}
			merged, err := Unify(decl.Type, t)
			if err != nil {
				return errorUnresolvedRecursion
			}
			if !merged.Equal(decl.Type) {
				changed = true
			}
			decl.Type = merged
		}
		if !changed {
			for _, ref := range refs {
				m.decls[ref.index].resolved = true
			}
			return nil
		}
	}
	return errorUnresolvedRecursion
}

// InferFormatType walks f and returns its solved ValueType under the
// module's current declarations (spec.md §4.E). Exported for callers
// that want to typecheck a Format without declaring it.
func (m *FormatModule) InferFormatType(f Format) (ValueType, error) {
	return m.inferFormatType(f, newTypeEnv(nil))
}
