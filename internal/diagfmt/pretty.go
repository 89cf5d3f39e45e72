package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"keel/internal/diag"
	"keel/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	posColor  = color.New(color.Bold)
)

// Pretty formats diagnostics for humans, one per line:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a ^~~~ underline when Context is set and
// by notes when ShowNotes is set. Callers are expected to bag.Sort() first.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeOne(w, d, fs, opts)
	}
}

func writeOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	pos := fs.Position(d.Primary)
	loc := fmt.Sprintf("%s:%d:%d", pos.Path, pos.Line, pos.Col)
	sev := d.Severity.String()
	if opts.Color {
		loc = posColor.Sprint(loc)
		sev = severityColor(d.Severity).Sprint(sev)
	}
	fmt.Fprintf(w, "%s: %s %s: %s\n", loc, sev, d.Code, d.Message)

	if opts.Context {
		writeContext(w, d.Primary, fs, opts)
	}
	if opts.ShowNotes {
		for _, n := range d.Notes {
			npos := fs.Position(n.Span)
			fmt.Fprintf(w, "  note: %s:%d:%d: %s\n", npos.Path, npos.Line, npos.Col, n.Msg)
		}
	}
}

func writeContext(w io.Writer, sp source.Span, fs *source.FileSet, opts PrettyOpts) {
	pos := fs.Position(sp)
	line := fs.LineContent(sp.File, pos.Line)
	if line == nil {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)

	// underline sized by display width, not byte count
	prefix := line
	if int(pos.Col-1) <= len(line) {
		prefix = line[:pos.Col-1]
	}
	pad := runewidth.StringWidth(string(prefix))
	span := int(sp.Len())
	if span < 1 {
		span = 1
	}
	end := int(pos.Col-1) + span
	if end > len(line) {
		end = len(line)
	}
	width := runewidth.StringWidth(string(line[min(int(pos.Col-1), len(line)):end]))
	if width < 1 {
		width = 1
	}
	underline := "^" + strings.Repeat("~", width-1)
	if opts.Color {
		underline = errColor.Sprint(underline)
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", pad), underline)
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevWarning:
		return warnColor
	case diag.SevInfo:
		return infoColor
	default:
		return errColor
	}
}
