// Package main implements ir-tool, the parse+check CLI of spec.md §6.1:
//
//	ir-tool parse <path>
//
// reads IR text, parses it, runs the base checker over the result, and
// prints every diagnostic to stderr. Exit codes distinguish the failing
// class so scripts can tell a malformed file from one that merely violates
// an invariant.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"ssair/internal/ir"
	"ssair/internal/ir/check"
	"ssair/internal/ir/serialize"
	"ssair/internal/issue"
	"ssair/internal/source"
)

const (
	exitOK = iota
	exitUsage
	exitReadFailed
	exitParseFailed
	exitCheckFailed
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 2 || args[0] != "parse" {
		fmt.Println("Usage: ir-tool parse <path>")
		return exitUsage
	}
	path := args[1]

	contents, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		return exitReadFailed
	}

	fset := source.NewFileSet()
	f := fset.AddFile(path, string(contents))

	tracker := issue.NewTracker()
	prog := ir.NewProgram()
	pos := serialize.Parse(f, tracker, prog, 0)

	if tracker.HasErrors() {
		issue.Render(fset, tracker, issue.FormatTerminal, os.Stderr)
		color.Red("✗ %s failed to parse", path)
		return exitParseFailed
	}

	check.New(tracker, pos).Check(prog)
	if tracker.HasErrors() {
		issue.Render(fset, tracker, issue.FormatTerminal, os.Stderr)
		color.Red("✗ %s failed the checker", path)
		return exitCheckFailed
	}

	if tracker.HasWarnings() {
		issue.Render(fset, tracker, issue.FormatTerminal, os.Stderr)
	}
	color.Green("✓ %s is well-formed", path)
	return exitOK
}
