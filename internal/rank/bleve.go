package rank

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/joseph-ayodele/doccollate/internal/segment"
)

// Bleve ranks with an in-memory bleve index built per call. Text is indexed
// in its tokenized form so CJK unigrams match the same way as in BM25.
// Index or search failures degrade to TermCount.
type Bleve struct {
	logger   *slog.Logger
	fallback Ranker
}

func NewBleve(logger *slog.Logger) *Bleve {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bleve{logger: logger, fallback: TermCount{}}
}

type bleveDoc struct {
	Text string `json:"text"`
}

func (r *Bleve) Rank(chunks []segment.Chunk, query string, topK int) []Scored {
	if len(chunks) == 0 {
		return nil
	}
	qTokens := Tokenize(query)
	if len(qTokens) == 0 {
		return zeroScores(chunks, topK)
	}
	scores, err := r.search(chunks, strings.Join(qTokens, " "))
	if err != nil {
		r.logger.Warn("rank.bleve.fallback", "err", err, "chunks", len(chunks))
		return r.fallback.Rank(chunks, query, topK)
	}
	return order(chunks, scores, topK)
}

func (r *Bleve) search(chunks []segment.Chunk, query string) ([]float64, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	defer index.Close()

	batch := index.NewBatch()
	for i, c := range chunks {
		doc := bleveDoc{Text: strings.Join(Tokenize(c.Text), " ")}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			return nil, fmt.Errorf("index chunk %d: %w", i, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("apply batch: %w", err)
	}

	match := bleve.NewMatchQuery(query)
	match.SetField("text")
	req := bleve.NewSearchRequest(match)
	req.Size = len(chunks)
	res, err := index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	scores := make([]float64, len(chunks))
	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(chunks) {
			continue
		}
		scores[i] = hit.Score
	}
	return scores, nil
}
