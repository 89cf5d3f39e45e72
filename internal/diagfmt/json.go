package diagfmt

import (
	"encoding/json"
	"io"

	"keel/internal/diag"
	"keel/internal/source"
)

type jsonNote struct {
	Line uint32 `json:"line,omitempty"`
	Col  uint32 `json:"col,omitempty"`
	Msg  string `json:"msg"`
}

type jsonDiag struct {
	Severity string     `json:"severity"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
	Path     string     `json:"path"`
	Line     uint32     `json:"line,omitempty"`
	Col      uint32     `json:"col,omitempty"`
	Notes    []jsonNote `json:"notes,omitempty"`
}

// JSON writes diagnostics as a JSON array for editor and CI tooling.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	items := bag.Items()
	if opts.Max > 0 && len(items) > opts.Max {
		items = items[:opts.Max]
	}
	out := make([]jsonDiag, 0, len(items))
	for _, d := range items {
		pos := fs.Position(d.Primary)
		jd := jsonDiag{
			Severity: d.Severity.String(),
			Code:     d.Code.String(),
			Message:  d.Message,
			Path:     pos.Path,
		}
		if opts.IncludePositions {
			jd.Line = pos.Line
			jd.Col = pos.Col
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				npos := fs.Position(n.Span)
				jn := jsonNote{Msg: n.Msg}
				if opts.IncludePositions {
					jn.Line = npos.Line
					jn.Col = npos.Col
				}
				jd.Notes = append(jd.Notes, jn)
			}
		}
		out = append(out, jd)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
