// Package rank orders chunks by relevance to a query.
package rank

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/segment"
)

// Scored pairs a chunk with its relevance score.
type Scored struct {
	Chunk segment.Chunk
	Score float64
}

// Ranker scores chunks against a query. Implementations are deterministic
// and never fail: an empty corpus yields nil, a query without tokens yields
// the chunks in original order with zero scores. topK <= 0 means all.
type Ranker interface {
	Rank(chunks []segment.Chunk, query string, topK int) []Scored
}

const (
	KindBM25      = "bm25"
	KindTermCount = "termcount"
	KindBleve     = "bleve"
)

// New returns the ranking strategy named by kind.
func New(kind string, logger *slog.Logger) (Ranker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch kind {
	case KindBM25, "":
		return NewBM25(), nil
	case KindTermCount:
		return TermCount{}, nil
	case KindBleve:
		return NewBleve(logger), nil
	default:
		return nil, common.NewConfigError("unknown ranker %q", kind)
	}
}

// MustNew is New for kinds known at compile time.
func MustNew(kind string) Ranker {
	r, err := New(kind, nil)
	if err != nil {
		panic(fmt.Sprintf("rank: %v", err))
	}
	return r
}

// order sorts by descending score keeping original order on ties, then cuts
// to topK.
func order(chunks []segment.Chunk, scores []float64, topK int) []Scored {
	out := make([]Scored, len(chunks))
	for i, c := range chunks {
		out[i] = Scored{Chunk: c, Score: scores[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

func zeroScores(chunks []segment.Chunk, topK int) []Scored {
	return order(chunks, make([]float64, len(chunks)), topK)
}
