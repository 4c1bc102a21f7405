// Package serialize is the textual front end and back end for programs:
// a hand-rolled recoverable scanner and recursive-descent parser matching
// the grammar of spec.md §4.3.2, and a deterministic printer that builds
// the same position-bundle shape the parser does. Grounded on the
// teacher's internal/parser/{scanner,parser}.go (hand-rolled, recoverable,
// synchronize-on-error) and internal/ir's printer, adapted to this IR's
// instruction grammar rather than kanso's surface language.
package serialize

import "ssair/internal/source"

// Kind identifies a lexical token kind (spec.md §4.3.1).
type Kind int

const (
	EOF Kind = iota
	Newline
	Ident
	Int
	HexAddr
	Str

	Hash    // '#'
	Percent // '%'
	Colon
	LBrace
	RBrace
	At
	Comma
	Equals
	LParen
	RParen
	Less
	Greater
	FatArrow // '=>'

	Illegal
)

// Token is one scanned lexeme.
type Token struct {
	Kind Kind
	Text string
	Rng  source.Range
}

var singleChar = map[byte]Kind{
	'#': Hash, '%': Percent, ':': Colon, '{': LBrace, '}': RBrace,
	'@': At, ',': Comma, '=': Equals, '(': LParen, ')': RParen,
	'<': Less, '>': Greater,
}
