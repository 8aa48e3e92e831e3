// Package evidence assembles ranked document excerpts for a field or module.
package evidence

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/fields"
	"github.com/joseph-ayodele/doccollate/internal/rank"
	"github.com/joseph-ayodele/doccollate/internal/segment"
)

// Separator joins evidence parts.
const Separator = "\n\n---\n\n"

// Config tunes evidence assembly. Zero values take the defaults below.
type Config struct {
	// MinKeep is the fewest title-matched chunks worth ranking alone.
	MinKeep int
	// MinContextChars is the length below which the document excerpt is appended.
	MinContextChars int
	MaxExcerptChars int
	ModuleTopK      int
	// MinModuleEvidence drops module evidence shorter than this many runes.
	MinModuleEvidence int
}

func (c *Config) setDefaults() {
	if c.MinKeep <= 0 {
		c.MinKeep = 6
	}
	if c.MinContextChars <= 0 {
		c.MinContextChars = 400
	}
	if c.MaxExcerptChars <= 0 {
		c.MaxExcerptChars = 4000
	}
	if c.ModuleTopK <= 0 {
		c.ModuleTopK = 2
	}
	if c.MinModuleEvidence <= 0 {
		c.MinModuleEvidence = 80
	}
}

// Assembler builds the evidence text handed to the completion service.
type Assembler struct {
	catalog *fields.Catalog
	ranker  rank.Ranker
	cfg     Config
	logger  *slog.Logger
}

func NewAssembler(catalog *fields.Catalog, ranker rank.Ranker, cfg Config, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.setDefaults()
	return &Assembler{catalog: catalog, ranker: ranker, cfg: cfg, logger: logger}
}

// Retrieve ranks the candidate chunks for field. Section chunks are preferred
// over full-text chunks; title keyword filtering applies only when it keeps at
// least MinKeep chunks.
func (a *Assembler) Retrieve(field string, sectionChunks, fullChunks []segment.Chunk) ([]rank.Scored, error) {
	spec := a.catalog.Spec(field)

	base := sectionChunks
	if len(base) == 0 {
		base = fullChunks
	}
	candidates := filterByTitle(base, spec.TitleKeywords, a.cfg.MinKeep)
	if len(candidates) == 0 {
		candidates = fullChunks
	}
	if len(candidates) == 0 {
		return nil, common.NewAppError(common.CodeRetrieval, fmt.Sprintf("no chunks for %s", field), common.ErrRetrievalEmpty)
	}
	return a.ranker.Rank(candidates, spec.Query, spec.TopK), nil
}

// ForField returns the formatted evidence for field, or "" when the document
// produced no chunks.
func (a *Assembler) ForField(field string, sectionChunks, fullChunks []segment.Chunk) string {
	scored, err := a.Retrieve(field, sectionChunks, fullChunks)
	if err != nil {
		a.logger.Debug("evidence.field.empty", "field", field)
		return ""
	}
	parts := make([]string, 0, len(scored))
	for _, s := range scored {
		parts = append(parts, formatChunk(s.Chunk))
	}
	out := strings.TrimSpace(strings.Join(parts, Separator))
	a.logger.Debug("evidence.field.ok", "field", field, "chunks", len(scored), "chars", utf8.RuneCountInString(out))
	return out
}

// WithExcerpt appends the head of the document when context is too short to
// stand on its own. The result is empty only if both inputs are.
func (a *Assembler) WithExcerpt(context, fullText string) string {
	if utf8.RuneCountInString(context) >= a.cfg.MinContextChars {
		return context
	}
	excerpt := strings.TrimSpace(headRunes(fullText, a.cfg.MaxExcerptChars))
	if excerpt == "" {
		return context
	}
	if strings.TrimSpace(context) == "" {
		return excerpt
	}
	return strings.TrimSpace(context + Separator + excerpt)
}

func formatChunk(c segment.Chunk) string {
	header := ""
	if c.SectionID != "" || c.SectionTitle != "" {
		header = strings.TrimSpace("[" + c.SectionID + " " + c.SectionTitle + "]")
	}
	return strings.TrimSpace(header + "\n" + c.Text)
}

func filterByTitle(chunks []segment.Chunk, keywords []string, minKeep int) []segment.Chunk {
	if len(keywords) == 0 {
		return chunks
	}
	var kept []segment.Chunk
	for _, c := range chunks {
		if containsAny(c.SectionTitle, keywords) {
			kept = append(kept, c)
		}
	}
	if len(kept) < minKeep {
		return chunks
	}
	return kept
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func headRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
