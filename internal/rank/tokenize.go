package rank

import (
	"regexp"
	"strings"
)

var tokenRe = regexp.MustCompile(`[\x{4e00}-\x{9fff}]|[A-Za-z0-9]+`)

// Tokenize splits text into CJK ideograph unigrams and lowercased ASCII
// alphanumeric runs. Everything else is dropped.
func Tokenize(text string) []string {
	raw := tokenRe.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		out = append(out, strings.ToLower(t))
	}
	return out
}
