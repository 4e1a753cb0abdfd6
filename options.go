package binform

/*
options.go carries encoding-knob configuration the same way the
teacher's opts.go/er.go pair does: a variadic functional-options slice
applied to a private config struct, rather than a long positional
parameter list. Two configurable surfaces exist (SPEC_FULL.md §2
Configuration): CompileOption for NewCompiler and RunOption for
Program.RunWithOptions.
*/

// compileConfig holds the knobs a CompileOption mutates.
type compileConfig struct {
	budget               int
	strictDisambiguation bool
}

// CompileOption configures a Compiler's lookahead budget and
// disambiguation-failure policy. Pass to NewCompiler.
type CompileOption func(*compileConfig)

// WithLookaheadDepth overrides D, the per-Union lookahead byte budget
// (spec.md §4.F); non-positive values are ignored and the default of
// DefaultMatchTreeBudget applies.
func WithLookaheadDepth(d int) CompileOption {
	return func(cfg *compileConfig) {
		if d > 0 {
			cfg.budget = d
		}
	}
}

// WithStrictDisambiguation makes Compile fail outright when a Union's
// branches cannot be disambiguated within the lookahead budget,
// instead of the default fallback (logged as a warning) to ordered
// non-deterministic trial (DecParallel).
func WithStrictDisambiguation() CompileOption {
	return func(cfg *compileConfig) { cfg.strictDisambiguation = true }
}

// runConfig holds the knobs a RunOption mutates.
type runConfig struct {
	trackSpans bool
	stepBudget int
}

// RunOption configures one Program.RunWithOptions call.
type RunOption func(*runConfig)

// WithSpanTracking requests that Run additionally compute byte-span
// annotations, equivalent to calling RunWithLoc directly. Provided so
// callers building a Run call from a caller-supplied []RunOption don't
// need a separate branch to pick between the two entry points.
func WithSpanTracking() RunOption {
	return func(cfg *runConfig) { cfg.trackSpans = true }
}

// WithStepBudget caps the number of decoder evaluation steps a single
// Run may perform before failing with ErrStepBudget, guarding against
// runaway recursion in pathological or adversarial input. Zero (the
// default) means unlimited.
func WithStepBudget(n int) RunOption {
	return func(cfg *runConfig) {
		if n > 0 {
			cfg.stepBudget = n
		}
	}
}

// RunWithOptions is the configurable entry point spec.md §6's
// Run/RunWithLoc split is specialized from: callers who only know at
// the call site whether they want spans (WithSpanTracking) or a step
// cap (WithStepBudget) can use this instead of choosing between Run
// and RunWithLoc ahead of time. The returned ParsedValue has a zero
// Span on every node unless WithSpanTracking was given.
func (prog *Program) RunWithOptions(buf []byte, opts ...RunOption) (ParsedValue, int, error) {
	var cfg runConfig
	for _, o := range opts {
		o(&cfg)
	}

	p := NewParser(buf)
	p.stepBudget = cfg.stepBudget
	scope := NewScope()

	if cfg.trackSpans {
		pv, err := evalDecoderWithLoc(prog.Root, scope, p)
		if err != nil {
			return ParsedValue{}, p.Cursor.Offset(), err
		}
		return pv, p.Cursor.Offset(), nil
	}

	v, err := evalDecoder(prog.Root, scope, p)
	if err != nil {
		return ParsedValue{}, p.Cursor.Offset(), err
	}
	return ParsedValue{Value: v}, p.Cursor.Offset(), nil
}
