package segment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraphs(n, size int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strings.Repeat(string(rune('a'+i%26)), size)
	}
	return out
}

func TestSplitIntoChunksPacksParagraphs(t *testing.T) {
	text := "第一段\n\n第二段\n   \n第三段"
	chunks := SplitIntoChunks(text, DefaultMaxChars, DefaultOverlap)
	require.Len(t, chunks, 1)
	assert.Equal(t, "第一段\n\n第二段\n\n第三段", chunks[0].Text)
	assert.Empty(t, chunks[0].SectionID)
}

func TestSplitIntoChunksOverlap(t *testing.T) {
	ps := paragraphs(3, 50)
	chunks := SplitIntoChunks(strings.Join(ps, "\n\n"), 110, 10)
	require.Len(t, chunks, 2)

	assert.Equal(t, ps[0]+"\n\n"+ps[1], chunks[0].Text)
	assert.Equal(t, strings.Repeat("b", 10)+"\n\n"+ps[2], chunks[1].Text)
}

func TestSplitIntoChunksLongParagraphFlushedWhole(t *testing.T) {
	long := strings.Repeat("长", 700)
	chunks := SplitIntoChunks(long, DefaultMaxChars, DefaultOverlap)
	require.Len(t, chunks, 1)
	assert.Equal(t, long, chunks[0].Text)
}

func TestSplitIntoChunksCoverage(t *testing.T) {
	ps := paragraphs(40, 70)
	chunks := SplitIntoChunks(strings.Join(ps, "\n\n"), DefaultMaxChars, DefaultOverlap)
	require.NotEmpty(t, chunks)

	var all strings.Builder
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), DefaultMaxChars)
		all.WriteString(c.Text)
		all.WriteString("\n")
	}
	for _, p := range ps {
		assert.Contains(t, all.String(), p)
	}
}

func TestSplitIntoChunksEmpty(t *testing.T) {
	assert.Empty(t, SplitIntoChunks("  \n\n ", DefaultMaxChars, DefaultOverlap))
}

func TestSectionChunks(t *testing.T) {
	short := Section{ID: "1", Title: "简介", Content: "很短"}
	long := Section{ID: "2", Title: "功能", Content: strings.Join(paragraphs(20, 100), "\n\n")}

	chunks := SectionChunks([]Section{short, long}, SectionMaxChars)
	require.Greater(t, len(chunks), 2)

	assert.Equal(t, Chunk{Text: "很短", SectionID: "1", SectionTitle: "简介"}, chunks[0])
	for _, c := range chunks[1:] {
		assert.Equal(t, "2", c.SectionID)
		assert.Equal(t, "功能", c.SectionTitle)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), SectionMaxChars)
	}
}
