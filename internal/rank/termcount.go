package rank

import "github.com/joseph-ayodele/doccollate/internal/segment"

// TermCount scores a chunk by the summed occurrences of each query token.
type TermCount struct{}

func (TermCount) Rank(chunks []segment.Chunk, query string, topK int) []Scored {
	if len(chunks) == 0 {
		return nil
	}
	qTokens := Tokenize(query)
	if len(qTokens) == 0 {
		return zeroScores(chunks, topK)
	}
	scores := make([]float64, len(chunks))
	for i, c := range chunks {
		counts := map[string]int{}
		for _, t := range Tokenize(c.Text) {
			counts[t]++
		}
		for _, q := range qTokens {
			scores[i] += float64(counts[q])
		}
	}
	return order(chunks, scores, topK)
}
