package rank

import (
	"maps"
	"math"
	"slices"

	"github.com/joseph-ayodele/doccollate/internal/segment"
)

// BM25 is Okapi BM25 over the chunk corpus given to each Rank call.
// Negative IDFs are floored to Epsilon times the average IDF.
type BM25 struct {
	K1      float64
	B       float64
	Epsilon float64
}

func NewBM25() BM25 {
	return BM25{K1: 1.5, B: 0.75, Epsilon: 0.25}
}

func (m BM25) Rank(chunks []segment.Chunk, query string, topK int) []Scored {
	if len(chunks) == 0 {
		return nil
	}
	qTokens := Tokenize(query)
	if len(qTokens) == 0 {
		return zeroScores(chunks, topK)
	}
	return order(chunks, m.scores(chunks, qTokens), topK)
}

func (m BM25) scores(chunks []segment.Chunk, qTokens []string) []float64 {
	n := len(chunks)
	freqs := make([]map[string]int, n)
	lengths := make([]int, n)
	df := map[string]int{}
	total := 0
	for i, c := range chunks {
		tokens := Tokenize(c.Text)
		lengths[i] = len(tokens)
		total += len(tokens)
		f := make(map[string]int, len(tokens))
		for _, t := range tokens {
			f[t]++
		}
		for t := range f {
			df[t]++
		}
		freqs[i] = f
	}

	scores := make([]float64, n)
	if total == 0 {
		return scores
	}
	avgdl := float64(total) / float64(n)
	idf := m.idf(df, n)

	for i := range chunks {
		dl := float64(lengths[i])
		for _, q := range qTokens {
			w, ok := idf[q]
			if !ok {
				continue
			}
			tf := float64(freqs[i][q])
			scores[i] += w * (tf * (m.K1 + 1)) / (tf + m.K1*(1-m.B+m.B*dl/avgdl))
		}
	}
	return scores
}

func (m BM25) idf(df map[string]int, n int) map[string]float64 {
	idf := make(map[string]float64, len(df))
	var sum float64
	var negative []string
	// sorted so the floating-point sum is reproducible
	for _, t := range slices.Sorted(maps.Keys(df)) {
		f := df[t]
		v := math.Log(float64(n-f)+0.5) - math.Log(float64(f)+0.5)
		idf[t] = v
		sum += v
		if v < 0 {
			negative = append(negative, t)
		}
	}
	if len(idf) == 0 {
		return idf
	}
	eps := m.Epsilon * sum / float64(len(idf))
	for _, t := range negative {
		idf[t] = eps
	}
	return idf
}
