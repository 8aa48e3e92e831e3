package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/doccollate/internal/segment"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF" | "DOCX" | "MARKDOWN" | "TEXT"
	Method     string // "pdf-text" | "pdftotext" | "docx" | "plain"
	Duration   time.Duration
	Warnings   []string
}

// Document is the segmented form of one input, shared by the stage-2
// extractors. It is built once per document and read-only afterwards.
type Document struct {
	Text          string
	Sections      []segment.Section
	SectionChunks []segment.Chunk
	FullChunks    []segment.Chunk
}

func NewDocument(text string) Document {
	sections := segment.Segment(text)
	return Document{
		Text:          text,
		Sections:      sections,
		SectionChunks: segment.SectionChunks(sections, segment.SectionMaxChars),
		FullChunks:    segment.SplitIntoChunks(text, segment.DefaultMaxChars, segment.DefaultOverlap),
	}
}
