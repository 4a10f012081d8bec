package cif

import "fmt"

// Grammar selects the syntactic rule set used for tokenizing and parsing.
//
// The zero value is GrammarAuto, which tries Grammar20, Grammar11 and
// Grammar10 in that order and keeps the first that parses the whole input.
type Grammar uint8

const (
	GrammarAuto Grammar = iota
	Grammar10           // CIF 1.0: [ and ] may start bare values, long lines tolerated by many writers
	Grammar11           // CIF 1.1: [ and ] reserved as leading value characters
	Grammar20           // CIF 2.0: list/table composites, triple-quoted strings
	GrammarSTAR2        // STAR2: composites with comma separators, delimiter doubling
)

// String returns the grammar name as written in file headers and tooling.
func (g Grammar) String() string {
	switch g {
	case GrammarAuto:
		return "auto"
	case Grammar10:
		return "1.0"
	case Grammar11:
		return "1.1"
	case Grammar20:
		return "2.0"
	case GrammarSTAR2:
		return "STAR2"
	default:
		return "unknown"
	}
}

// ParseGrammarName converts a grammar name ("1.0", "1.1", "2.0", "STAR2",
// "auto") to a Grammar. Matching is case-insensitive.
func ParseGrammarName(name string) (Grammar, error) {
	switch lower(name) {
	case "auto", "":
		return GrammarAuto, nil
	case "1.0":
		return Grammar10, nil
	case "1.1":
		return Grammar11, nil
	case "2.0":
		return Grammar20, nil
	case "star2":
		return GrammarSTAR2, nil
	}
	return GrammarAuto, fmt.Errorf("cif: unknown grammar %q", name)
}

// autoGrammars is the fixed detection order for GrammarAuto.
var autoGrammars = [...]Grammar{Grammar20, Grammar11, Grammar10}

// composites reports whether list and table values are part of the grammar.
func (g Grammar) composites() bool {
	return g == Grammar20 || g == GrammarSTAR2
}

// tripleQuotes reports whether '''...''' and """...""" delimiters exist.
func (g Grammar) tripleQuotes() bool {
	return g == Grammar20 || g == GrammarSTAR2
}

// doubledDelimiters reports whether a doubled quote inside a quoted value
// stands for one literal quote character.
func (g Grammar) doubledDelimiters() bool {
	return g == GrammarSTAR2
}

// leadingBracketReserved reports whether [ and ] may not start a bare value.
// CIF 1.0 predates the reservation.
func (g Grammar) leadingBracketReserved() bool {
	return g != Grammar10
}
