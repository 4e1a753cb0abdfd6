//go:build !binform_debug

package binform

/*
trace_off.go is the default build: every trace call compiles to a
zero-cost no-op so call sites never need to branch on the
binform_debug tag (mirrors the teacher's trc_off.go).
*/

func debugEnter(_ ...any)              {}
func debugExit(_ ...any)               {}
func debugMatchTree(_ ...any)          {}
func debugDecode(_ ...any)             {}
func debugPath(_ ...any) func(...any)  { return func(_ ...any) {} }
