package extract

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/joseph-ayodele/doccollate/internal/entity"
)

type textRule struct {
	field    string
	patterns []*regexp.Regexp
}

var textRules = []textRule{
	{"app__short_name", []*regexp.Regexp{
		regexp.MustCompile(`软件简称[:：]\s*(.+)`),
		regexp.MustCompile(`系统简称[:：]\s*(.+)`),
	}},
	{"app__product_type", []*regexp.Regexp{
		regexp.MustCompile(`所属类别[:：]\s*(.+)`),
		regexp.MustCompile(`软件类别[:：]\s*(.+)`),
	}},
	{"product__app_domain", []*regexp.Regexp{regexp.MustCompile(`应用领域[:：]\s*(.+)`)}},
	{"product__func_list", []*regexp.Regexp{regexp.MustCompile(`功能模块[:：]\s*(.+)`)}},
}

// envRow maps an environment table row, matched by keyword in its first
// cell, to the fields its second cell fills. Rows are tried in order.
type envRow struct {
	keywords []string
	fields   []string
}

var envRows = []envRow{
	{[]string{"开发硬件环境"}, []string{"env__hw_dev_platform", "tech__hardware_dev"}},
	{[]string{"开发该软件的操作系统", "开发操作系统"}, []string{"tech__os_dev"}},
	{[]string{"编程语言"}, []string{"env__language", "tech__language"}},
	{[]string{"开发环境", "开发工具"}, []string{"env__sw_dev_platform", "tech__dev_tools"}},
	{[]string{"运行硬件环境"}, []string{"tech__hardware_run", "env__server_config", "env__client_config"}},
	{[]string{"运行平台", "运行操作系统"}, []string{"env__server_os", "env__client_os", "tech__os_run"}},
	{[]string{"运行支撑", "支持软件"}, []string{"env__server_soft", "env__client_soft", "tech__run_support"}},
}

// RuleExtractor pulls the fields a manual states verbatim: labelled lines and
// rows of markdown environment tables. Its output seeds the completion pass.
type RuleExtractor struct {
	md     goldmark.Markdown
	logger *slog.Logger
}

func NewRuleExtractor(logger *slog.Logger) *RuleExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleExtractor{
		md:     goldmark.New(goldmark.WithExtensions(extension.Table)),
		logger: logger,
	}
}

// Extract applies the line rules, then the table rows. A table row overrides a
// line rule for the same field, and a later row overrides an earlier one.
func (r *RuleExtractor) Extract(doc string) entity.FieldData {
	out := entity.FieldData{}
	for _, rule := range textRules {
		for _, re := range rule.patterns {
			if m := re.FindStringSubmatch(doc); m != nil {
				if v := strings.TrimSpace(m[1]); v != "" {
					out.SetText(rule.field, v)
				}
				break
			}
		}
	}

	tables := r.Tables(doc)
	for _, rows := range tables {
		for _, row := range rows {
			if len(row) < 2 {
				continue
			}
			for _, er := range envRows {
				if !containsAnyWord(row[0], er.keywords) {
					continue
				}
				for _, f := range er.fields {
					out.SetText(f, row[1])
				}
				break
			}
		}
	}
	r.logger.Debug("rules.extract.ok", "fields", len(out), "tables", len(tables))
	return out
}

// Tables returns the body rows of every markdown table in doc. Empty cells
// are dropped from each row.
func (r *RuleExtractor) Tables(doc string) [][][]string {
	src := []byte(doc)
	root := r.md.Parser().Parse(text.NewReader(src))

	var tables [][][]string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		table, ok := n.(*east.Table)
		if !ok {
			return ast.WalkContinue, nil
		}
		var rows [][]string
		for row := table.FirstChild(); row != nil; row = row.NextSibling() {
			if _, isRow := row.(*east.TableRow); !isRow {
				continue
			}
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				if s := cellText(cell, src); s != "" {
					cells = append(cells, s)
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
		tables = append(tables, rows)
		return ast.WalkSkipChildren, nil
	})
	return tables
}

func cellText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			continue
		}
		buf.WriteString(cellText(c, src))
	}
	return strings.TrimSpace(buf.String())
}

func containsAnyWord(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
