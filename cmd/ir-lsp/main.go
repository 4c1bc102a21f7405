// Package main implements ir-lsp, the editor-facing live-diagnostics server
// for the textual IR format (SPEC_FULL.md §5 "ir-lsp"), grounded on
// kanso/cmd/kanso-lsp/main.go's handler-wiring and stdio-server idiom.
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"ssair/internal/lsp"
)

const lsName = "ir-lsp"

var handler protocol.Handler

func main() {
	commonlog.Configure(1, nil)

	h := lsp.NewHandler()

	handler = protocol.Handler{
		Initialize:            h.Initialize,
		Initialized:           h.Initialized,
		Shutdown:              h.Shutdown,
		TextDocumentDidOpen:   h.TextDocumentDidOpen,
		TextDocumentDidChange: h.TextDocumentDidChange,
		TextDocumentDidClose:  h.TextDocumentDidClose,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting ir-lsp server...")

	if err := s.RunStdio(); err != nil {
		log.Println("Error starting ir-lsp server:", err)
		os.Exit(1)
	}
}
