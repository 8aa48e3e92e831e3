package reader

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/joseph-ayodele/doccollate/internal/extract"
)

// block is one top-level element of a Word body.
type block struct {
	level int // heading level, 0 for body text
	text  string
	rows  [][]string
}

// extractDOCX converts with pandoc when configured, then falls back to the
// built-in parser, which keeps headings as markdown "#" lines and tables as
// pipe rows.
func (r *Reader) extractDOCX(ctx context.Context, path string) (extract.TextExtractionResult, error) {
	var warnings []string
	if r.cfg.Pandoc != "" {
		out, errb, err := r.runner.Run(ctx, r.cfg.Pandoc, path, "-t", "gfm")
		if err == nil && strings.TrimSpace(string(out)) != "" {
			return extract.TextExtractionResult{Text: string(out), Pages: 1, Method: "pandoc"}, nil
		}
		warnings = append(warnings, "pandoc: "+strings.TrimSpace(string(errb)))
	}

	blocks, err := docxBlocks(path)
	if err != nil {
		return extract.TextExtractionResult{Method: "docx", Warnings: warnings}, err
	}
	return extract.TextExtractionResult{Text: renderBlocks(blocks), Pages: 1, Method: "docx", Warnings: warnings}, nil
}

func docxBlocks(path string) ([]block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	doc, err := docx.Parse(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var blocks []block
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			if text := paragraphText(it); text != "" {
				blocks = append(blocks, block{level: headingLevel(it), text: text})
			}
		case *docx.Table:
			var rows [][]string
			for _, row := range it.TableRows {
				var cells []string
				for _, cell := range row.TableCells {
					var parts []string
					for _, p := range cell.Paragraphs {
						if t := paragraphText(p); t != "" {
							parts = append(parts, t)
						}
					}
					cells = append(cells, strings.Join(parts, " "))
				}
				rows = append(rows, cells)
			}
			if len(rows) > 0 {
				blocks = append(blocks, block{rows: rows})
			}
		}
	}
	return blocks, nil
}

// renderBlocks writes headings as markdown headings, tables as markdown
// tables with the first row as header, and paragraphs separated by blank
// lines.
func renderBlocks(blocks []block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch {
		case len(b.rows) > 0:
			parts = append(parts, renderTable(b.rows))
		case b.level > 0:
			parts = append(parts, strings.Repeat("#", b.level)+" "+b.text)
		default:
			parts = append(parts, b.text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func renderTable(rows [][]string) string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	line := func(cells []string) string {
		padded := make([]string, width)
		for i := range padded {
			if i < len(cells) {
				padded[i] = strings.ReplaceAll(strings.TrimSpace(cells[i]), "|", "/")
			}
		}
		return "| " + strings.Join(padded, " | ") + " |"
	}
	sep := make([]string, width)
	for i := range sep {
		sep[i] = "---"
	}

	lines := []string{line(rows[0]), line(sep)}
	for _, r := range rows[1:] {
		lines = append(lines, line(r))
	}
	return strings.Join(lines, "\n")
}

func headingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	return styleHeadingLevel(para.Properties.Style.Val)
}

// styleHeadingLevel reads "Heading1", "heading 2" or "Title" style ids.
func styleHeadingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	if !strings.HasPrefix(s, "heading") {
		return 0
	}
	n := strings.TrimPrefix(s, "heading")
	if len(n) == 1 && n[0] >= '1' && n[0] <= '6' {
		return int(n[0] - '0')
	}
	return 0
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
