package proposal

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxFeatures        = 6
	maxEvidenceChars   = 2500
	pendingEstimate    = "待评估"
	featureBullet      = "• "
	fullWidthColon     = "："
	featureSplitSingle = `[；;]\s*`
)

var (
	featurePrefixRe = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)]|\(?\d+\)?|（\d+）)\s*`)
	featureSplitRe  = regexp.MustCompile(featureSplitSingle)
	spaceRunRe      = regexp.MustCompile(`\s+`)
)

// FormatFeatures rewrites the product features placeholder as at most six
// "• title：desc" lines. Input is split on lines, or on ；/; when it is a
// single line; bullets and numbering are stripped and duplicates dropped.
func FormatFeatures(text string) string {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return ""
	}

	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	if len(parts) <= 1 {
		var split []string
		for _, p := range featureSplitRe.Split(raw, -1) {
			if p = strings.TrimSpace(p); p != "" {
				split = append(split, p)
			}
		}
		if len(split) > 0 {
			parts = split
		}
	}

	seen := map[string]bool{}
	var cleaned []string
	for _, p := range parts {
		p = strings.TrimSpace(featurePrefixRe.ReplaceAllString(p, ""))
		if p == "" {
			continue
		}
		p = strings.ReplaceAll(p, ":", fullWidthColon)
		p = strings.TrimSpace(spaceRunRe.ReplaceAllString(p, " "))
		if seen[p] {
			continue
		}
		seen[p] = true
		cleaned = append(cleaned, p)
	}
	if len(cleaned) > maxFeatures {
		cleaned = cleaned[:maxFeatures]
	}

	lines := make([]string, 0, len(cleaned))
	for _, line := range cleaned {
		title, desc, found := strings.Cut(line, fullWidthColon)
		title, desc = strings.TrimSpace(title), strings.TrimSpace(desc)
		switch {
		case found && title != "" && desc != "":
			lines = append(lines, featureBullet+title+fullWidthColon+desc)
		case found && title != "":
			lines = append(lines, featureBullet+title+fullWidthColon)
		default:
			lines = append(lines, featureBullet+line)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatCurrency keeps the digits of value and renders them as ¥ with comma
// grouping, e.g. "约5万元 50000" becomes "¥550,000". No digits yields "".
func FormatCurrency(value string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := strings.TrimLeft(digits.String(), "0")
	if digits.Len() == 0 {
		return ""
	}
	if s == "" {
		s = "0"
	}

	var b strings.Builder
	b.WriteString("¥")
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// normalizeMoney formats every non-empty cell of column key.
func normalizeMoney(rows []Row, key string) []Row {
	for _, r := range rows {
		if v := strings.TrimSpace(r[key]); v != "" {
			r[key] = FormatCurrency(v)
		}
	}
	return rows
}

// formatEvidence lists chunks as "- id: text" lines until maxChars is used up.
func formatEvidence(chunks []Chunk, maxChars int) string {
	var lines []string
	used := 0
	for _, c := range chunks {
		line := "- " + c.ID + ": " + c.Text
		used += utf8.RuneCountInString(line)
		if used > maxChars {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
