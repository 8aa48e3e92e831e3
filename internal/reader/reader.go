// Package reader turns input documents into plain text.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/doccollate/constants"
	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/extract"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	// Pandoc converts .docx to markdown when set; the built-in parser is
	// used when it is empty or fails.
	Pandoc string
	// MaxChars cuts the text to this many runes; 0 = no limit.
	MaxChars int
}

// Reader implements extract.TextExtractor for pdf, docx, markdown and text.
type Reader struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Reader{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner replaces the command runner.
func (r *Reader) WithRunner(runner Runner) *Reader {
	r.runner = runner
	return r
}

var _ extract.TextExtractor = (*Reader)(nil)

// Extract picks a strategy based on file extension.
func (r *Reader) Extract(ctx context.Context, path string) (extract.TextExtractionResult, error) {
	start := time.Now()
	logger := common.LoggerFrom(ctx, r.logger).With("path", path)
	format := constants.MapExtToFormat(filepath.Ext(path))
	logger.Debug("reader.extract.start", "format", format)

	var (
		res extract.TextExtractionResult
		err error
	)
	switch format {
	case constants.PDF:
		res, err = r.extractPDF(ctx, path)
	case constants.DOCX:
		res, err = r.extractDOCX(ctx, path)
	case constants.MARKDOWN, constants.TEXT:
		res, err = readPlain(path)
	default:
		logger.Error("reader.extract.unsupported", "ext", filepath.Ext(path))
		return extract.TextExtractionResult{}, readError(path, fmt.Errorf("unsupported extension %q", filepath.Ext(path)))
	}
	res.SourceType = format
	res.Duration = time.Since(start)
	if err != nil {
		logger.Error("reader.extract.failed", "error", err)
		return res, readError(path, err)
	}

	res.Text = Normalize(res.Text)
	if r.cfg.MaxChars > 0 && utf8.RuneCountInString(res.Text) > r.cfg.MaxChars {
		res.Text = string([]rune(res.Text)[:r.cfg.MaxChars])
		res.Warnings = append(res.Warnings, fmt.Sprintf("text truncated to %d characters", r.cfg.MaxChars))
	}
	if res.Text == "" {
		res.Warnings = append(res.Warnings, "no text extracted")
	}
	logger.Info("reader.extract.ok",
		"method", res.Method,
		"pages", res.Pages,
		"chars", utf8.RuneCountInString(res.Text),
		"elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}

func readPlain(path string) (extract.TextExtractionResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return extract.TextExtractionResult{}, err
	}
	res := extract.TextExtractionResult{Text: string(b), Pages: 1, Method: "plain"}
	if !utf8.Valid(b) {
		res.Text = strings.ToValidUTF8(res.Text, "\uFFFD")
		res.Warnings = append(res.Warnings, "invalid UTF-8 replaced")
	}
	return res, nil
}

func readError(path string, err error) error {
	return common.NewAppError(common.CodeDocumentRead, "read "+filepath.Base(path), err)
}
