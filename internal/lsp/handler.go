// Package lsp publishes live checker diagnostics over LSP as IR text is
// edited. Grounded on kanso/internal/lsp/handler.go: a mutex-guarded map
// from document URI to in-memory content, re-parsed and re-checked on
// every open/change notification, publishing diagnostics back to the
// client.
package lsp

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ssair/internal/ir"
	"ssair/internal/ir/check"
	"ssair/internal/ir/serialize"
	"ssair/internal/issue"
	"ssair/internal/source"
)

// Handler implements the LSP server handlers for the textual IR format.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
}

// NewHandler creates an empty Handler.
func NewHandler() *Handler {
	return &Handler{content: make(map[string]string)}
}

// Initialize responds to the client's initialize request, advertising only
// what this server actually does: full-document sync and diagnostics on
// open/change. There is no completion or semantic-token support - the IR
// text format has no identifiers worth completing and no syntax highlighting
// legend of its own.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

// Initialized is a no-op acknowledgement of the client's initialized notice.
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

// Shutdown is a no-op; there is no background state to flush.
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	return nil
}

// TextDocumentDidOpen re-checks the opened document and publishes its
// diagnostics.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.checkAndPublish(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

// TextDocumentDidChange re-checks the document from disk, the way
// kanso/internal/lsp/handler.go's updateAST does on every change
// notification rather than trusting the notification's own payload shape.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(string(params.TextDocument.URI))
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return h.checkAndPublish(ctx, params.TextDocument.URI, string(contents))
}

// TextDocumentDidClose drops the document's cached content.
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.mu.Lock()
	delete(h.content, params.TextDocument.URI)
	h.mu.Unlock()
	return nil
}

func (h *Handler) checkAndPublish(ctx *glsp.Context, uri protocol.DocumentUri, text string) error {
	h.mu.Lock()
	h.content[uri] = text
	h.mu.Unlock()

	path, err := uriToPath(string(uri))
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", uri, err)
	}

	fset := source.NewFileSet()
	f := fset.AddFile(path, text)
	tracker := issue.NewTracker()
	prog := ir.NewProgram()
	pos := serialize.Parse(f, tracker, prog, 0)
	if !tracker.HasErrors() {
		check.NewExt(tracker, pos).Check(prog)
	}

	diagnostics := toDiagnostics(fset, tracker)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
	return nil
}

// toDiagnostics converts every tracked issue that has a source range into an
// LSP diagnostic, underlining its first range and naming its stage as the
// diagnostic source; an issue with no range is skipped.
func toDiagnostics(fset *source.FileSet, tracker *issue.Tracker) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, iss := range tracker.Issues() {
		if len(iss.Ranges) == 0 {
			continue
		}
		rng := iss.Ranges[0]
		start := fset.PositionFor(rng.Start)
		end := fset.PositionFor(rng.End)

		sev := severityOf(iss.Severity)
		src := string(iss.Origin)
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{
					Line:      uint32(maxInt(start.Line-1, 0)),
					Character: uint32(maxInt(start.Column-1, 0)),
				},
				End: protocol.Position{
					Line:      uint32(maxInt(end.Line-1, 0)),
					Character: uint32(maxInt(end.Column, 1)),
				},
			},
			Severity: &sev,
			Source:   ptrString(src),
			Message:  iss.Message,
		})
	}
	return diagnostics
}

func severityOf(s issue.Severity) protocol.DiagnosticSeverity {
	switch s {
	case issue.Warning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityError
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// uriToPath converts a file:// URI to a platform-local path, matching
// kanso/internal/lsp/handler.go's uriToPath.
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func ptrBool(b bool) *bool { return &b }

func ptrString(s string) *string { return &s }

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
