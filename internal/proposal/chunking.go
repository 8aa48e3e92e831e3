package proposal

import (
	"fmt"

	"github.com/joseph-ayodele/doccollate/internal/common"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 120
)

// Chunk is a fixed-width window of the source text. Start and End are rune
// offsets, End exclusive.
type Chunk struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ChunkText cuts text into windows of size runes, each starting overlap runes
// before the end of the previous one. Ids are chunk_0001, chunk_0002, ...
func ChunkText(text string, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, common.NewAppError("INVALID_INPUT", "chunk size must be positive", common.ErrInvalidInput)
	}
	if overlap < 0 || overlap >= size {
		return nil, common.NewAppError("INVALID_INPUT", fmt.Sprintf("overlap %d out of range for size %d", overlap, size), common.ErrInvalidInput)
	}

	runes := []rune(text)
	var chunks []Chunk
	for start := 0; start < len(runes); {
		end := min(len(runes), start+size)
		chunks = append(chunks, Chunk{
			ID:    fmt.Sprintf("chunk_%04d", len(chunks)+1),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		if end == len(runes) {
			break
		}
		start = end - overlap
	}
	return chunks, nil
}
