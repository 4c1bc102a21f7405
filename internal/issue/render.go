package issue

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"ssair/internal/source"
)

// Format selects plain-text or ANSI-colored rendering (spec.md §6.3).
type Format int

const (
	FormatPlain Format = iota
	FormatTerminal
)

// Render writes every issue in t to out in the given format, one issue per
// block: a header line "severity: message [kind]" followed by a rendering
// of each range — caret-underline for single-line ranges, leading/trailing
// angle markers for multi-line ones — in the manner of
// kanso/internal/errors/reporter.go's Rust-like diagnostics.
func Render(fset *source.FileSet, t *Tracker, format Format, out io.Writer) {
	for _, iss := range t.Issues() {
		renderOne(fset, iss, format, out)
	}
}

func renderOne(fset *source.FileSet, iss Issue, format Format, out io.Writer) {
	label := severityLabel(iss.Severity, format)
	fmt.Fprintf(out, "%s: %s [%d]\n", label, iss.Message, iss.Kind)
	for _, r := range iss.Ranges {
		renderRange(fset, r, format, out)
	}
	fmt.Fprintln(out)
}

func severityLabel(sev Severity, format Format) string {
	text := strings.ToUpper(sev.String()[:1]) + sev.String()[1:]
	if format != FormatTerminal {
		return text
	}
	switch sev {
	case Warning:
		return color.New(color.FgYellow, color.Bold).Sprint(text)
	default:
		return color.New(color.FgRed, color.Bold).Sprint(text)
	}
}

func renderRange(fset *source.FileSet, r source.Range, format Format, out io.Writer) {
	if !r.IsValid() {
		fmt.Fprintln(out, "  --> <unknown location>")
		return
	}
	f := fset.FileAt(r.Start)
	if f == nil {
		fmt.Fprintln(out, "  --> <unknown location>")
		return
	}
	startPos := f.PositionFor(r.Start)
	lines := f.LineNumbersOfRange(r)

	fmt.Fprintf(out, "  --> %s\n", startPos.String())

	if lines.Start == lines.End {
		renderSingleLine(f, lines.Start, startPos.Column, r, format, out)
		return
	}
	renderMultiLine(f, lines, format, out)
}

func renderSingleLine(f *source.File, line, column int, r source.Range, format Format, out io.Writer) {
	text := f.LineWithNumber(line)
	fmt.Fprintf(out, "  %4d | %s\n", line, text)

	length := int(r.End-r.Start) + 1
	if length < 1 {
		length = 1
	}
	marker := strings.Repeat(" ", column-1) + strings.Repeat("^", length)
	if format == FormatTerminal {
		marker = color.New(color.FgRed, color.Bold).Sprint(marker)
	}
	fmt.Fprintf(out, "       | %s\n", marker)
}

func renderMultiLine(f *source.File, lines source.LineRange, format Format, out io.Writer) {
	marker := ">"
	if format == FormatTerminal {
		marker = color.New(color.FgRed, color.Bold).Sprint(">")
	}
	for ln := lines.Start; ln <= lines.End; ln++ {
		text := f.LineWithNumber(ln)
		fmt.Fprintf(out, "  %4d %s| %s\n", ln, marker, text)
	}
}
