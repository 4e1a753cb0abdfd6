package binform

/*
typeenv.go implements TypeEnv, the compile-time analogue of Scope:
a stack of (name, ValueType) bindings consulted while inferring the
type of an Expr or a Format (expr_infer.go, typecheck.go).
*/

type typeEnvEntry struct {
	name Label
	typ  ValueType
}

type TypeEnv struct {
	entries []typeEnvEntry
}

func newTypeEnv(params []Label) *TypeEnv {
	env := &TypeEnv{}
	for _, p := range params {
		env.Push(p, AnyType())
	}
	return env
}

func (e *TypeEnv) Push(name Label, t ValueType) int {
	e.entries = append(e.entries, typeEnvEntry{name: name, typ: t})
	return len(e.entries)
}

func (e *TypeEnv) Mark() int { return len(e.entries) }

func (e *TypeEnv) PopTo(depth int) { e.entries = e.entries[:depth] }

func (e *TypeEnv) Lookup(name Label) (ValueType, bool) {
	for i := len(e.entries) - 1; i >= 0; i-- {
		if e.entries[i].name == name {
			return e.entries[i].typ, true
		}
	}
	return ValueType{}, false
}
