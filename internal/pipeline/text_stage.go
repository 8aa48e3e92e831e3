package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/extract"
	"github.com/joseph-ayodele/doccollate/internal/store"
)

// TextStage reads a document and advances its run to TEXT_OK.
type TextStage struct {
	TextExtractor extract.TextExtractor
	Runs          store.RunRepository // optional
	Logger        *slog.Logger
}

func NewTextStage(tx extract.TextExtractor, runs store.RunRepository, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStage{TextExtractor: tx, Runs: runs, Logger: logger}
}

// Run extracts the text of path. An empty document is an error; the
// remaining stages have nothing to retrieve from.
func (s *TextStage) Run(ctx context.Context, runID uuid.UUID, path string) (extract.TextExtractionResult, error) {
	logger := common.LoggerFrom(ctx, s.Logger)
	res, err := s.TextExtractor.Extract(ctx, path)
	if err != nil {
		return res, err
	}
	for _, w := range res.Warnings {
		logger.Warn("pipeline.text.warning", "path", path, "warning", w)
	}
	if strings.TrimSpace(res.Text) == "" {
		return res, common.NewAppError(common.CodeDocumentRead, "no text in "+path, common.ErrRetrievalEmpty)
	}

	if s.Runs != nil && runID != uuid.Nil {
		if err := s.Runs.MarkTextOK(ctx, runID, res.SourceType); err != nil {
			return res, err
		}
	}
	logger.Info("pipeline.text.ok",
		"path", path,
		"source_type", res.SourceType,
		"method", res.Method,
		"pages", res.Pages,
		"elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}
