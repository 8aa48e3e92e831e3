// Package segment splits a document's plain text into addressable sections
// and retrieval chunks.
package segment

import (
	"regexp"
	"strconv"
	"strings"
)

// Section is a titled contiguous span of the document.
type Section struct {
	ID      string
	Title   string
	Content string
}

var (
	headingMarkRe = regexp.MustCompile(`^#+\s*`)
	dottedRe      = regexp.MustCompile(`^\d+(\.\d+)+\s+`)
	numberedRe    = regexp.MustCompile(`^\d+(\.\d+)*\s+`)
	chapterRe     = regexp.MustCompile(`^第([一二三四五六七八九十]+)章\s+(.+)$`)
)

var cnDigits = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9, '十': 10,
}

// ChineseNumeral converts 一..九十九 style numerals. ok is false for forms it
// does not recognize.
func ChineseNumeral(s string) (n int, ok bool) {
	r := []rune(s)
	switch {
	case len(r) == 1:
		n, ok = cnDigits[r[0]]
		return n, ok
	case len(r) == 2 && r[0] == '十':
		return 10 + cnDigits[r[1]], true
	case len(r) == 2 && r[1] == '十':
		return cnDigits[r[0]] * 10, true
	case len(r) == 3 && r[1] == '十':
		return cnDigits[r[0]]*10 + cnDigits[r[2]], true
	}
	return 0, false
}

type builder struct {
	order    []string
	sections map[string]*Section
	content  map[string]*strings.Builder
	current  string
}

func (b *builder) open(id, title string) {
	b.current = id
	if _, ok := b.sections[id]; ok {
		return
	}
	b.order = append(b.order, id)
	b.sections[id] = &Section{ID: id, Title: title}
	b.content[id] = &strings.Builder{}
}

func (b *builder) append(line string) {
	if b.current == "" {
		return
	}
	sb := b.content[b.current]
	sb.WriteString(line)
	sb.WriteByte('\n')
}

// Segment walks text line by line and groups it under headings. Blank lines
// belong to the open section, text before the first heading is discarded and
// sections whose trimmed content is empty are dropped. A repeated heading id
// reopens the earlier section; output follows first-seen order.
func Segment(text string) []Section {
	b := &builder{
		sections: map[string]*Section{},
		content:  map[string]*strings.Builder{},
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			b.append(line)
			continue
		}
		id, title, ok := parseHeading(trimmed)
		if ok {
			b.open(id, title)
			continue
		}
		b.append(line)
	}

	out := make([]Section, 0, len(b.order))
	for _, id := range b.order {
		content := strings.TrimSpace(b.content[id].String())
		if content == "" {
			continue
		}
		s := *b.sections[id]
		s.Content = content
		out = append(out, s)
	}
	return out
}

func parseHeading(line string) (id, title string, ok bool) {
	marked := strings.HasPrefix(line, "#")
	heading := headingMarkRe.ReplaceAllString(line, "")
	chapter := chapterRe.FindStringSubmatch(heading)
	if !marked && !dottedRe.MatchString(heading) && chapter == nil {
		return "", "", false
	}

	if numberedRe.MatchString(heading) {
		parts := strings.Fields(heading)
		return parts[0], strings.Join(parts[1:], " "), true
	}
	if chapter != nil {
		id = chapter[1]
		if n, ok := ChineseNumeral(chapter[1]); ok && n > 0 {
			id = strconv.Itoa(n)
		}
		return id, strings.TrimSpace(chapter[2]), true
	}
	if heading == "" {
		return "", "", false
	}
	return "title:" + heading, heading, true
}
