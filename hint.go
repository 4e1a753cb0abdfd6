package binform

/*
hint.go implements StyleHint, a presentation-only annotation consumed
by the tree/flat printers (printer.go). Hints never affect parse or
typecheck semantics; Hint(StyleHint, F) is pure pass-through over F.
*/

type StyleHintKind uint8

const (
	HintNone StyleHintKind = iota
	HintHex
	HintDecimal
	HintASCII
	HintOmit
	HintCompact
	HintLabel
)

// StyleHint carries a presentation kind and, for HintLabel, a
// caller-supplied display name.
type StyleHint struct {
	Kind StyleHintKind
	Name string
}

func HintHexF() StyleHint           { return StyleHint{Kind: HintHex} }
func HintDecimalF() StyleHint       { return StyleHint{Kind: HintDecimal} }
func HintASCIIF() StyleHint         { return StyleHint{Kind: HintASCII} }
func HintOmitF() StyleHint          { return StyleHint{Kind: HintOmit} }
func HintCompactF() StyleHint       { return StyleHint{Kind: HintCompact} }
func HintLabelF(name string) StyleHint { return StyleHint{Kind: HintLabel, Name: name} }
