package lsp

import (
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssair/internal/issue"
	"ssair/internal/source"
)

func TestToDiagnosticsConvertsRangesToZeroBasedPositions(t *testing.T) {
	fset := source.NewFileSet()
	f := fset.AddFile("in.ir", "@0 main() {\nbad\n}\n")

	tracker := issue.NewTracker()
	line2Start := f.Start() + source.Pos(len("@0 main() {\n"))
	tracker.Add(issue.KindUnexpectedToken, issue.Error, issue.OriginParser,
		[]source.Range{{Start: line2Start, End: line2Start + 2}},
		"unexpected token %q", "bad")

	diagnostics := toDiagnostics(fset, tracker)

	require.Len(t, diagnostics, 1)
	d := diagnostics[0]
	assert.Equal(t, uint32(1), d.Range.Start.Line)
	assert.Equal(t, uint32(0), d.Range.Start.Character)
	require.NotNil(t, d.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	require.NotNil(t, d.Source)
	assert.Equal(t, "parser", *d.Source)
}

func TestToDiagnosticsSkipsIssuesWithNoRanges(t *testing.T) {
	fset := source.NewFileSet()
	fset.AddFile("in.ir", "@0 main() {}\n")

	tracker := issue.NewTracker()
	tracker.Add(issue.KindUnexpectedToken, issue.Warning, issue.OriginScanner, nil, "no range here")

	diagnostics := toDiagnostics(fset, tracker)
	assert.Empty(t, diagnostics)
}

func TestSeverityOfMapsWarningAndError(t *testing.T) {
	assert.Equal(t, protocol.DiagnosticSeverityWarning, severityOf(issue.Warning))
	assert.Equal(t, protocol.DiagnosticSeverityError, severityOf(issue.Error))
	assert.Equal(t, protocol.DiagnosticSeverityError, severityOf(issue.Fatal))
}

func TestUriToPathStripsFileScheme(t *testing.T) {
	path, err := uriToPath("file:///tmp/foo.ir")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/foo.ir", path)
}
