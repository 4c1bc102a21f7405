package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssair/internal/issue"
	"ssair/internal/source"
)

func scanAll(t *testing.T, text string) ([]Token, *issue.Tracker) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.AddFile("t.ir", text)
	tracker := issue.NewTracker()
	sc := NewScanner(f, tracker)
	var toks []Token
	for {
		tok := sc.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			break
		}
	}
	return toks, tracker
}

func TestScannerBasicTokens(t *testing.T) {
	toks, tr := scanAll(t, "@1 foo(%0:i32) => (b) {\n")
	require.False(t, tr.HasErrors())
	kinds := make([]Kind, 0, len(toks))
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	assert.Contains(t, kinds, At)
	assert.Contains(t, kinds, Ident)
	assert.Contains(t, kinds, LParen)
	assert.Contains(t, kinds, Percent)
	assert.Contains(t, kinds, Colon)
	assert.Contains(t, kinds, RParen)
	assert.Contains(t, kinds, FatArrow)
	assert.Contains(t, kinds, LBrace)
	assert.Contains(t, kinds, Newline)
}

func TestScannerNumbersAndHexAddr(t *testing.T) {
	toks, tr := scanAll(t, "-5 0x1a2B")
	require.False(t, tr.HasErrors())
	assert.Equal(t, Int, toks[0].Kind)
	assert.Equal(t, "-5", toks[0].Text)
	assert.Equal(t, HexAddr, toks[1].Kind)
	assert.Equal(t, "0x1a2B", toks[1].Text)
}

func TestScannerString(t *testing.T) {
	toks, tr := scanAll(t, `"hi\"there"`)
	require.False(t, tr.HasErrors())
	assert.Equal(t, Str, toks[0].Kind)
	assert.Equal(t, `hi"there`, toks[0].Text)
}

func TestScannerMalformedHexAddrReportsDiagnostic(t *testing.T) {
	_, tr := scanAll(t, "0x")
	assert.True(t, tr.HasErrors())
	assert.Equal(t, issue.KindAddressCannotBeRepresented, tr.Issues()[0].Kind)
}

func TestScannerUnterminatedStringReportsDiagnostic(t *testing.T) {
	_, tr := scanAll(t, `"abc`)
	assert.True(t, tr.HasErrors())
	assert.Equal(t, issue.KindEOFInUnterminatedString, tr.Issues()[0].Kind)
}

func TestScannerIllegalByteRecovers(t *testing.T) {
	toks, tr := scanAll(t, "@1 $ @2")
	assert.True(t, tr.HasErrors())
	atCount := 0
	for _, tk := range toks {
		if tk.Kind == At {
			atCount++
		}
	}
	assert.Equal(t, 2, atCount, "scanner keeps producing tokens after an illegal byte")
}
