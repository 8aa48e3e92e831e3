package constants

import "strings"

// AllowedExtensions holds the extensions picked up by batch and watch modes.
var AllowedExtensions = map[string]struct{}{
	"pdf":      {},
	"docx":     {},
	"md":       {},
	"markdown": {},
	"txt":      {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether a file with extension ext should be processed.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// Source types reported by the document reader.
const (
	PDF      = "PDF"
	DOCX     = "DOCX"
	MARKDOWN = "MARKDOWN"
	TEXT     = "TEXT"
)

// MapExtToFormat maps a file extension to its source type, or "" when the
// extension is not supported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "md", "markdown":
		return MARKDOWN
	case "txt":
		return TEXT
	}
	return ""
}
