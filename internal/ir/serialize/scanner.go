package serialize

import (
	"strings"

	"ssair/internal/issue"
	"ssair/internal/source"
)

// Scanner turns one file's contents into a token stream, recovering from
// malformed tokens by emitting a diagnostic and a best-effort token rather
// than aborting (spec.md §4.3.1).
type Scanner struct {
	file    *source.File
	src     string
	pos     int // byte offset into src
	start   source.Pos
	tracker *issue.Tracker
}

// NewScanner creates a scanner over f, reporting malformed tokens into tracker.
func NewScanner(f *source.File, tracker *issue.Tracker) *Scanner {
	return &Scanner{file: f, src: f.Text(), start: f.Start(), tracker: tracker}
}

func (s *Scanner) atEOF() bool { return s.pos >= len(s.src) }

func (s *Scanner) peek() byte {
	if s.atEOF() {
		return 0
	}
	return s.src[s.pos]
}

func (s *Scanner) peekAt(off int) byte {
	if s.pos+off >= len(s.src) {
		return 0
	}
	return s.src[s.pos+off]
}

func (s *Scanner) posAt(offset int) source.Pos { return s.start + source.Pos(offset) }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Next returns the next token, or an EOF token once the source is exhausted.
func (s *Scanner) Next() Token {
	s.skipInsignificantWhitespace()
	if s.atEOF() {
		p := s.posAt(s.pos)
		return Token{Kind: EOF, Rng: source.Range{Start: p, End: p}}
	}

	start := s.pos
	c := s.peek()

	switch {
	case c == '\n':
		s.pos++
		return s.tok(Newline, "\n", start)
	case isIdentStart(c):
		return s.scanIdent(start)
	case c == '"':
		return s.scanString(start)
	case c == '0' && s.peekAt(1) == 'x':
		return s.scanHexAddr(start)
	case isDigit(c) || ((c == '+' || c == '-') && isDigit(s.peekAt(1))):
		return s.scanNumber(start)
	case c == '=' && s.peekAt(1) == '>':
		s.pos += 2
		return s.tok(FatArrow, "=>", start)
	default:
		if kind, ok := singleChar[c]; ok {
			s.pos++
			return s.tok(kind, string(c), start)
		}
		s.pos++
		s.report(issue.KindUnexpectedByte, start, s.pos, "unexpected byte %q", c)
		return s.tok(Illegal, string(c), start)
	}
}

// skipInsignificantWhitespace skips spaces, tabs, and carriage returns —
// everything but newline, which is itself a token (spec.md §4.3.1).
func (s *Scanner) skipInsignificantWhitespace() {
	for !s.atEOF() {
		c := s.peek()
		if c == ' ' || c == '\t' || c == '\r' {
			s.pos++
			continue
		}
		break
	}
}

func (s *Scanner) tok(kind Kind, text string, start int) Token {
	return Token{Kind: kind, Text: text, Rng: source.Range{Start: s.posAt(start), End: s.posAt(s.pos - 1)}}
}

func (s *Scanner) report(kind issue.Kind, startOff, endOff int, format string, args ...any) {
	if s.tracker == nil {
		return
	}
	r := source.Range{Start: s.posAt(startOff), End: s.posAt(maxInt(endOff-1, startOff))}
	s.tracker.Add(kind, issue.Error, issue.OriginScanner, []source.Range{r}, format, args...)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (s *Scanner) scanIdent(start int) Token {
	for !s.atEOF() && isIdentCont(s.peek()) {
		s.pos++
	}
	return s.tok(Ident, s.src[start:s.pos], start)
}

func (s *Scanner) scanNumber(start int) Token {
	if s.peek() == '+' || s.peek() == '-' {
		s.pos++
	}
	digitsStart := s.pos
	for !s.atEOF() && isDigit(s.peek()) {
		s.pos++
	}
	if s.pos == digitsStart {
		s.report(issue.KindNumberCannotBeRepresented, start, s.pos, "malformed number literal")
		return s.tok(Illegal, s.src[start:s.pos], start)
	}
	return s.tok(Int, s.src[start:s.pos], start)
}

func (s *Scanner) scanHexAddr(start int) Token {
	s.pos += 2 // "0x"
	digitsStart := s.pos
	for !s.atEOF() && isHexDigit(s.peek()) {
		s.pos++
	}
	if s.pos == digitsStart {
		s.report(issue.KindAddressCannotBeRepresented, start, s.pos, "hex address has no digits")
	}
	return s.tok(HexAddr, s.src[start:s.pos], start)
}

func (s *Scanner) scanString(start int) Token {
	s.pos++ // opening quote
	var b strings.Builder
	for {
		if s.atEOF() {
			s.report(issue.KindEOFInUnterminatedString, start, s.pos, "unterminated string literal")
			return s.tok(Str, b.String(), start)
		}
		c := s.peek()
		if c == '"' {
			s.pos++
			return s.tok(Str, b.String(), start)
		}
		if c == '\\' {
			s.pos++
			if s.atEOF() {
				s.report(issue.KindEOFInUnterminatedEscape, start, s.pos, "unterminated escape sequence")
				return s.tok(Str, b.String(), start)
			}
			esc := s.peek()
			switch esc {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			default:
				b.WriteByte(esc)
			}
			s.pos++
			continue
		}
		b.WriteByte(c)
		s.pos++
	}
}
