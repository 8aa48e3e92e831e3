package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Chunk is the unit of retrieval. SectionID and SectionTitle are empty for
// ungrouped text.
type Chunk struct {
	Text         string
	SectionID    string
	SectionTitle string
}

const (
	DefaultMaxChars       = 600
	DefaultOverlap        = 80
	SectionMaxChars       = 900
	SectionOverlap        = 120
	paragraphSep          = "\n\n"
	paragraphSepRuneCount = 2
)

var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// SplitIntoChunks packs paragraphs into chunks of at most maxChars runes.
// When a paragraph does not fit, the buffer is flushed and the next chunk
// starts with the last overlap runes of the flushed one. A single paragraph
// longer than maxChars is emitted whole.
func SplitIntoChunks(text string, maxChars, overlap int) []Chunk {
	var chunks []Chunk
	var buf string
	bufLen := 0
	for _, p := range paragraphRe.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pLen := utf8.RuneCountInString(p)
		if bufLen+pLen+paragraphSepRuneCount <= maxChars {
			if buf != "" {
				buf += paragraphSep + p
				bufLen += paragraphSepRuneCount + pLen
			} else {
				buf, bufLen = p, pLen
			}
			continue
		}
		if buf != "" {
			chunks = append(chunks, Chunk{Text: buf})
		}
		if tail := lastRunes(buf, overlap); tail != "" {
			buf = tail + paragraphSep + p
		} else {
			buf = p
		}
		bufLen = utf8.RuneCountInString(buf)
	}
	if buf != "" {
		chunks = append(chunks, Chunk{Text: buf})
	}
	return chunks
}

// SectionChunks turns sections into chunks: one per section when it fits in
// maxChars, otherwise overlapping sub-chunks that inherit the section id and
// title.
func SectionChunks(sections []Section, maxChars int) []Chunk {
	var chunks []Chunk
	for _, s := range sections {
		content := strings.TrimSpace(s.Content)
		if content == "" {
			continue
		}
		if utf8.RuneCountInString(content) <= maxChars {
			chunks = append(chunks, Chunk{Text: content, SectionID: s.ID, SectionTitle: s.Title})
			continue
		}
		for _, sub := range SplitIntoChunks(content, maxChars, SectionOverlap) {
			sub.SectionID = s.ID
			sub.SectionTitle = s.Title
			chunks = append(chunks, sub)
		}
	}
	return chunks
}

func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
