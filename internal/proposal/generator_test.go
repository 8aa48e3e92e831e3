package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/llm"
	"github.com/joseph-ayodele/doccollate/internal/rank"
)

const specText = `# 考勤管理系统说明书

## 1 编写目的
本文档用于说明考勤管理系统的建设背景与目标，解决企业考勤效率低的问题。

## 2 系统架构
系统采用前后端分离架构，后端服务部署在私有云，数据库使用 PostgreSQL。

## 3 项目计划
项目分为需求、设计、开发、测试、验收五个阶段，按里程碑交付。

## 4 预算
预算包括人力成本、服务器采购与云资源费用。`

// generatorCompleter answers the generation call with proposal and any
// other call with text.
type generatorCompleter struct {
	proposal any
	err      error
	text     string
	requests []llm.Request
}

func (g *generatorCompleter) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return llm.Response{}, g.err
	}
	switch req.Purpose {
	case "proposal":
		b, _ := json.Marshal(g.proposal)
		return llm.Response{Content: "```json\n" + string(b) + "\n```"}, nil
	case "autofix":
		return llm.Response{Content: `{"resources":[{"cost":"¥5,000"},{"cost":"¥6,000"}],"costs":[{"amount":"100"},{"amount":"200"},{"amount":"300"},{"amount":"400"},{"amount":"500"},{"amount":"600"}]}`}, nil
	}
	return llm.Response{Content: g.text}, nil
}

var generatorNow = func() time.Time { return time.Date(2025, 3, 19, 9, 0, 0, 0, time.UTC) }

func newTestGenerator(t *testing.T, c llm.Completer, strict bool) *Generator {
	t.Helper()
	g, err := NewGenerator(c, rank.NewBM25(), GeneratorConfig{Strict: strict, Now: generatorNow}, nil)
	require.NoError(t, err)
	return g
}

func TestGenerateValidProposal(t *testing.T) {
	c := &generatorCompleter{proposal: filledProposal(t)}
	g := newTestGenerator(t, c, false)

	res, err := g.Generate(context.Background(), specText, NewInputs("某科技有限公司", "考勤管理系统", "Attendance Management System"))
	require.NoError(t, err)

	assert.False(t, res.Fixed)
	require.Len(t, c.requests, 1)
	req := c.requests[0]
	assert.Equal(t, generatorSystemPrompt, req.System)
	assert.InDelta(t, 0.2, req.Temperature, 1e-6)
	assert.True(t, req.JSON)
	assert.Contains(t, req.User, "FIELD: {{ purpose }}")
	assert.Contains(t, req.User, "- chunk_0001: ")
	assert.Contains(t, req.User, `"start_date":"2024/10/04"`)
	assert.Contains(t, req.User, `"end_date":"2025/03/05"`)

	assert.Equal(t, "2024/10/04", res.Inputs.Schedule.StartDate)
	assert.Equal(t, "2025/03/05", res.Inputs.Schedule.EndDate)
	assert.Equal(t, "内容", res.Document.Placeholder("purpose"))
	assert.Equal(t, "Attendance Management System Project Proposal", res.Placeholders["{{ document_title }}"])
	assert.Equal(t, "内容", res.Placeholders["{{ conclusion }}"])
	assert.Len(t, res.Evidence, len(RetrievalSpecs))
}

func TestGenerateAutoFixes(t *testing.T) {
	raw := filledProposal(t)
	tables := raw["tables"].(map[string]any)
	delete(tables, "costs")
	for _, r := range tables["resources"].([]any) {
		r.(map[string]any)["cost"] = ""
	}
	raw["placeholders"].(map[string]any)[FeaturesPlaceholder] = "能力A：说明；能力B：说明"

	c := &generatorCompleter{proposal: raw}
	res, err := newTestGenerator(t, c, false).Generate(context.Background(), specText, NewInputs("公司", "项目", ""))
	require.NoError(t, err)

	assert.True(t, res.Fixed)
	assert.Len(t, c.requests, 3, "generation plus one fill per money table")
	require.Len(t, res.Document.Tables.Costs, 6)
	assert.Equal(t, "¥600", res.Document.Tables.Costs[5]["amount"])
	assert.Equal(t, "¥5,000", res.Document.Tables.Resources[0]["cost"])
	assert.Equal(t, "• 能力A：说明\n• 能力B：说明", res.Document.Placeholders[FeaturesPlaceholder])
}

func TestGenerateStrictFailsOnFirstValidation(t *testing.T) {
	raw := filledProposal(t)
	delete(raw, "tables")

	_, err := newTestGenerator(t, &generatorCompleter{proposal: raw}, true).
		Generate(context.Background(), specText, NewInputs("公司", "项目", ""))

	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrSchemaViolation))
	violations, ok := Violations(err)
	require.True(t, ok)
	assert.Contains(t, strings.Join(violations, "\n"), "tables")

	var ve *ViolationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "initial", ve.Stage)
}

func TestGenerateServiceError(t *testing.T) {
	c := &generatorCompleter{err: llm.StatusError(503, []byte("unavailable"))}
	_, err := newTestGenerator(t, c, false).Generate(context.Background(), specText, NewInputs("公司", "项目", ""))

	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrServiceCall))
}

func TestGenerateRejectsEmptyInput(t *testing.T) {
	g := newTestGenerator(t, &generatorCompleter{}, false)

	_, err := g.Generate(context.Background(), "", NewInputs("公司", "项目", ""))
	assert.True(t, errors.Is(err, common.ErrRetrievalEmpty))

	_, err = g.Generate(context.Background(), specText, nil)
	assert.True(t, common.IsInvalidInput(err))
}

func TestGenerateKeepsGivenSchedule(t *testing.T) {
	in := NewInputs("公司", "项目", "")
	in.Schedule = Schedule{StartDate: "2025-01-01", EndDate: "2025-06-30"}

	res, err := newTestGenerator(t, &generatorCompleter{proposal: filledProposal(t)}, false).
		Generate(context.Background(), specText, in)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", res.Inputs.Schedule.StartDate)
}

func TestEnglishName(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  string
	}{
		{"plain", "Attendance System", nil, "Attendance System"},
		{"quoted", `"Attendance System"`, nil, "Attendance System"},
		{"still chinese", "考勤 System", nil, ""},
		{"failure", "", errors.New("down"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &generatorCompleter{text: tt.reply, err: tt.err}
			g := newTestGenerator(t, c, false)
			assert.Equal(t, tt.want, g.EnglishName(context.Background(), "考勤系统"))
		})
	}

	in := newTestGenerator(t, &generatorCompleter{text: "考勤"}, false).InputsFor(context.Background(), "公司", "考勤系统")
	assert.Equal(t, "考勤系统 Project Proposal", in.Cover.DocumentTitle)
}
