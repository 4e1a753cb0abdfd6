//go:build binform_debug

package binform

import (
	"os"

	"github.com/rs/zerolog"
)

/*
trace_on.go backs the teacher's debugEnter/debugExit discipline with
github.com/rs/zerolog instead of hand-rolled formatting (SPEC_FULL.md
§2 Logging/tracing): build with -tags binform_debug to get Debug-level
entry/exit events for compilation, match-tree construction, and
decoding, written to stderr.
*/

var debugLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()

func fmtKV(e *zerolog.Event, args ...any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	return e
}

// debugEnter logs entry into a traced function. args is an
// alternating key/value list, e.g. debugEnter("compileFormat", "kind", f.Kind).
func debugEnter(args ...any) {
	if len(args) == 0 {
		return
	}
	op, _ := args[0].(string)
	fmtKV(debugLogger.Debug(), args[1:]...).Msg(op + ": enter")
}

// debugExit logs exit from a traced function, same argument shape as debugEnter.
func debugExit(args ...any) {
	if len(args) == 0 {
		return
	}
	op, _ := args[0].(string)
	fmtKV(debugLogger.Debug(), args[1:]...).Msg(op + ": exit")
}

// debugMatchTree logs a match-tree construction milestone.
func debugMatchTree(args ...any) {
	if len(args) == 0 {
		return
	}
	op, _ := args[0].(string)
	fmtKV(debugLogger.Debug(), args[1:]...).Msg("matchtree: " + op)
}

// debugDecode logs a decoder-evaluation milestone.
func debugDecode(args ...any) {
	if len(args) == 0 {
		return
	}
	op, _ := args[0].(string)
	fmtKV(debugLogger.Debug(), args[1:]...).Msg("decode: " + op)
}

// debugPath logs entry immediately and returns a closure that logs
// exit, for defer-style bracketing of a single call:
//
//	defer debugPath("compileFormat", "kind", f.Kind)()
func debugPath(args ...any) func(...any) {
	debugEnter(args...)
	op, _ := args[0].(string)
	return func(exitArgs ...any) {
		debugExit(append([]any{op}, exitArgs...)...)
	}
}
