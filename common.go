package binform

/*
common.go contains small stdlib aliases and helpers used throughout
this package, mirroring the single-file alias convention the teacher
codebase this was patterned on follows for strings/strconv plumbing.
*/

import (
	"errors"
	"strconv"
	"strings"
)

var (
	mkerr   func(string) error           = errors.New
	itoa    func(int) string             = strconv.Itoa
	atoi    func(string) (int, error)    = strconv.Atoi
	lc      func(string) string          = strings.ToLower
	hasPfx  func(string, string) bool    = strings.HasPrefix
	hasSfx  func(string, string) bool    = strings.HasSuffix
	trimPfx func(string, string) string  = strings.TrimPrefix
	join    func([]string, string) string = strings.Join
	strrpt  func(string, int) string     = strings.Repeat
)

func bool2str(b bool) (s string) {
	if s = `false`; b {
		s = `true`
	}
	return
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func newStrBuilder() strings.Builder { return strings.Builder{} }
