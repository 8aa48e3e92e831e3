package reader

import (
	"context"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/doccollate/internal/extract"
)

// extractPDF reads the embedded text layer and falls back to pdftotext when
// the library fails or finds no text.
func (r *Reader) extractPDF(ctx context.Context, path string) (extract.TextExtractionResult, error) {
	text, pages, libErr := pdfLibText(path)
	if libErr == nil && strings.TrimSpace(text) != "" {
		return extract.TextExtractionResult{Text: text, Pages: pages, Method: "pdf-text"}, nil
	}

	var warnings []string
	if libErr != nil {
		warnings = append(warnings, "pdf text layer: "+libErr.Error())
	} else {
		warnings = append(warnings, "pdf text layer is empty")
	}

	out, errb, err := r.pdfToText(ctx, path)
	if err != nil {
		warnings = append(warnings, "pdftotext: "+strings.TrimSpace(string(errb)))
		if libErr != nil {
			return extract.TextExtractionResult{Method: "pdftotext", Warnings: warnings}, fmt.Errorf("pdftotext: %w", err)
		}
		return extract.TextExtractionResult{Pages: pages, Method: "pdf-text", Warnings: warnings}, nil
	}
	text = string(out)
	// pdftotext separates pages with a form feed
	pages = 1 + strings.Count(strings.TrimRight(text, "\f"), "\f")
	return extract.TextExtractionResult{Text: text, Pages: pages, Method: "pdftotext", Warnings: warnings}, nil
}

func (r *Reader) pdfToText(ctx context.Context, path string) ([]byte, []byte, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	return r.runner.Run(ctx, r.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
}

func pdfLibText(path string) (text string, pages int, err error) {
	defer func() {
		// the library panics on some malformed files
		if p := recover(); p != nil {
			err = fmt.Errorf("parse pdf: %v", p)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	var buf strings.Builder
	pages = reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\f")
		}
		buf.WriteString(t)
	}
	return buf.String(), pages, nil
}
