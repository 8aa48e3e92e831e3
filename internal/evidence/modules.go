package evidence

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/doccollate/internal/segment"
)

var (
	moduleTitleWords = []string{"模块", "子系统", "平台", "中心", "后台", "工作台", "服务", "系统", "应用", "调度", "管理"}
	moduleTextHints  = []string{"功能模块", "模块包括", "系统包括", "系统由", "主要模块", "功能组成"}

	leadingNumberRe  = regexp.MustCompile(`^\d+(\.\d+)*\s*`)
	leadingChapterRe = regexp.MustCompile(`^第[一二三四五六七八九十]+章\s*`)
	spaceRunRe       = regexp.MustCompile(`\s+`)
)

// ModuleEvidence is the ranked text gathered for one candidate module.
type ModuleEvidence struct {
	ModuleTitle string `json:"module_title"`
	Evidence    string `json:"evidence"`
}

// CleanModuleTitle strips numbering and chapter prefixes and turns colons
// into spaces.
func CleanModuleTitle(title string) string {
	s := leadingNumberRe.ReplaceAllString(title, "")
	s = leadingChapterRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("：", " ", ":", " ").Replace(s)
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
}

// IsModuleCandidate reports whether a section looks like it describes a
// functional module.
func IsModuleCandidate(title, text string) bool {
	return containsAny(strings.TrimSpace(title), moduleTitleWords) ||
		containsAny(strings.TrimSpace(text), moduleTextHints)
}

// ModuleTitles lists the distinct cleaned titles of module-like chunks in
// document order.
func ModuleTitles(chunks []segment.Chunk) []string {
	var titles []string
	seen := map[string]bool{}
	for _, c := range chunks {
		title := CleanModuleTitle(c.SectionTitle)
		if title == "" || seen[title] || !IsModuleCandidate(title, c.Text) {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}
	return titles
}

// Modules retrieves evidence for every candidate module title across the
// section chunks. Titles whose evidence is too thin are skipped.
func (a *Assembler) Modules(sectionChunks []segment.Chunk) []ModuleEvidence {
	if len(sectionChunks) == 0 {
		return nil
	}
	var out []ModuleEvidence
	for _, title := range ModuleTitles(sectionChunks) {
		scored := a.ranker.Rank(sectionChunks, ModuleQuery(title), a.cfg.ModuleTopK)
		parts := make([]string, 0, len(scored))
		for _, s := range scored {
			parts = append(parts, strings.TrimSpace(s.Chunk.SectionTitle+"\n"+s.Chunk.Text))
		}
		text := strings.Join(parts, Separator)
		if utf8.RuneCountInString(text) < a.cfg.MinModuleEvidence {
			a.logger.Debug("evidence.module.thin", "module", title)
			continue
		}
		out = append(out, ModuleEvidence{ModuleTitle: title, Evidence: text})
	}
	a.logger.Debug("evidence.modules.ok", "modules", len(out))
	return out
}

func ModuleQuery(title string) string {
	return title + " 功能 模块 作用 描述"
}
