package extract

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doccollate/internal/entity"
	"github.com/joseph-ayodele/doccollate/internal/evidence"
	"github.com/joseph-ayodele/doccollate/internal/fields"
	"github.com/joseph-ayodele/doccollate/internal/llm"
	"github.com/joseph-ayodele/doccollate/internal/rank"
)

const manualDoc = `# 1 项目概述
本系统面向中小企业的人事部门，提供员工档案、考勤与薪资的一体化管理能力，帮助企业降低管理成本。

# 2 运行环境
服务器操作系统为 Ubuntu 22.04，数据库采用 PostgreSQL 13，内存不低于 8GB。

### 3.3.1 用户管理
支持用户增删改查，管理员可以批量导入用户信息并为用户分配角色，所有操作均记录审计日志以便追溯。

### 3.3.2 考勤管理
支持按部门配置考勤规则，自动汇总每日打卡记录并生成月度考勤报表，异常考勤会推送提醒给主管审批。

### 3.3.3 薪资核算模块
根据考勤结果与薪资方案自动核算员工工资，支持个税计算与银行代发文件导出，核算结果可由财务复核。
`

// fakeCompleter answers by request purpose and records every call.
type fakeCompleter struct {
	mu      sync.Mutex
	calls   []llm.Request
	fields  map[string]llm.Response
	errs    map[string]error
	modules llm.Response
	summary string
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	switch req.Purpose {
	case "summary":
		return llm.Response{Content: f.summary}, nil
	case "modules":
		return f.modules, nil
	}
	for name, err := range f.errs {
		if strings.Contains(req.System, "字段名为 "+name+"。") {
			return llm.Response{}, err
		}
	}
	for name, resp := range f.fields {
		if strings.Contains(req.System, "字段名为 "+name+"。") {
			return resp, nil
		}
	}
	return llm.Response{Content: "{}"}, nil
}

func (f *fakeCompleter) purposes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Purpose)
	}
	return out
}

func newInvoker(t *testing.T, c llm.Completer) (*Invoker, *fields.Catalog) {
	t.Helper()
	cat, err := fields.Default()
	require.NoError(t, err)
	a := evidence.NewAssembler(cat, rank.NewBM25(), evidence.Config{}, nil)
	return NewInvoker(c, a, InvokerConfig{}, nil), cat
}

func TestExtractFields(t *testing.T) {
	fc := &fakeCompleter{
		fields: map[string]llm.Response{
			"env__database": {Object: map[string]any{"env__database": "PostgreSQL 13"}},
			"env__memory":   {Content: "```json\n{\"env__memory\": \"8GB\", \"note\": \"from section 2\"}\n```"},
			"env__os":       {Content: `{"a": 1, "b": 2}`},
		},
		errs: map[string]error{
			"env__language": llm.NewFatalError(errors.New("401 unauthorized")),
		},
	}
	inv, cat := newInvoker(t, fc)
	specs := []fields.Spec{
		cat.Spec("env__database"),
		cat.Spec("env__memory"),
		cat.Spec("env__os"),
		cat.Spec("env__language"),
	}

	got := inv.ExtractFields(context.Background(), specs, "人事管理系统摘要", NewDocument(manualDoc))

	assert.Equal(t, entity.TextField("PostgreSQL 13"), got["env__database"])
	assert.Equal(t, entity.TextField("8GB"), got["env__memory"])
	assert.NotContains(t, got, "env__os", "schema failure is omitted")
	assert.NotContains(t, got, "env__language", "service error is omitted")
	assert.Len(t, fc.calls, 4)
	for _, c := range fc.calls {
		assert.True(t, c.JSON)
		assert.Contains(t, c.User, "说明书摘要：\n人事管理系统摘要")
	}
}

func TestExtractFieldsListValue(t *testing.T) {
	fc := &fakeCompleter{
		fields: map[string]llm.Response{
			"env__database": {Object: map[string]any{"env__database": []any{
				map[string]any{"name": "PostgreSQL", "desc": "主库"},
				"Redis",
			}}},
		},
	}
	inv, cat := newInvoker(t, fc)
	got := inv.ExtractFields(context.Background(), []fields.Spec{cat.Spec("env__database")}, "", NewDocument(manualDoc))

	require.Contains(t, got, "env__database")
	v := got["env__database"]
	assert.Equal(t, entity.KindList, v.Kind)
	assert.Equal(t, []entity.ModuleRecord{{Name: "PostgreSQL", Desc: "主库"}, {Name: "Redis"}}, v.Modules)
}

func TestExtractFieldsNoEvidence(t *testing.T) {
	fc := &fakeCompleter{}
	inv, cat := newInvoker(t, fc)

	got := inv.ExtractFields(context.Background(), []fields.Spec{cat.Spec("env__database")}, "", NewDocument(""))
	assert.Empty(t, got)
	assert.Empty(t, fc.calls)
}

func TestExtractFieldsStopsOnCancel(t *testing.T) {
	fc := &fakeCompleter{}
	inv, cat := newInvoker(t, fc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := inv.ExtractFields(ctx, cat.PromptSpecs(nil), "摘要", NewDocument(manualDoc))
	assert.Empty(t, got)
	assert.Empty(t, fc.calls)
}

func TestSummarize(t *testing.T) {
	fc := &fakeCompleter{summary: "  软件用途: 人事管理  "}
	inv, _ := newInvoker(t, fc)

	assert.Equal(t, "软件用途: 人事管理", inv.Summarize(context.Background(), manualDoc))
	assert.Empty(t, inv.Summarize(context.Background(), "   "))
	assert.Equal(t, []string{"summary"}, fc.purposes())
	assert.False(t, fc.calls[0].JSON)
}

func TestSummarizeFailureYieldsEmpty(t *testing.T) {
	c := llm.CompleterFunc(func(context.Context, llm.Request) (llm.Response, error) {
		return llm.Response{}, llm.NewTransientError(errors.New("503"))
	})
	inv, _ := newInvoker(t, c)
	assert.Empty(t, inv.Summarize(context.Background(), manualDoc))
}

func TestExtractModulesBatched(t *testing.T) {
	fc := &fakeCompleter{modules: llm.Response{Object: map[string]any{"items": []any{
		map[string]any{"一级功能": "3.3.1 用户管理", "功能描述": "1、维护用户：与角色"},
		map[string]any{"一级功能": "考勤管理", "功能描述": "可以汇总打卡记录并生成考勤报表。"},
		map[string]any{"一级功能": "", "功能描述": "无标题"},
	}}}}
	inv, _ := newInvoker(t, fc)
	doc := NewDocument(manualDoc)

	got := inv.ExtractModules(context.Background(), doc.SectionChunks, "")

	assert.Equal(t, []entity.ModuleRecord{
		{Name: "用户管理", Desc: "可以维护用户，与角色。"},
		{Name: "考勤管理", Desc: "可以汇总打卡记录并生成考勤报表。"},
	}, got)
	require.Len(t, fc.calls, 1)
	assert.Equal(t, modulesFromEvidencePrompt, fc.calls[0].System)
	assert.Contains(t, fc.calls[0].User, `"module_title":"用户管理"`)
}

func TestExtractModulesSummaryFallback(t *testing.T) {
	fc := &fakeCompleter{modules: llm.Response{Content: `{"items":[{"一级功能":"报表中心","功能描述":"导出报表"}]}`}}
	inv, _ := newInvoker(t, fc)
	doc := NewDocument("# 1 概述\n一个很小的工具。")

	got := inv.ExtractModules(context.Background(), doc.SectionChunks, "软件用途: 报表")

	assert.Equal(t, []entity.ModuleRecord{{Name: "报表中心", Desc: "可以导出报表。"}}, got)
	require.Len(t, fc.calls, 1)
	assert.Equal(t, modulesFromSummaryPrompt, fc.calls[0].System)
}

func TestExtractModulesEmpty(t *testing.T) {
	fc := &fakeCompleter{}
	inv, _ := newInvoker(t, fc)

	assert.Nil(t, inv.ExtractModules(context.Background(), nil, "摘要"))
	doc := NewDocument("# 1 概述\n一个很小的工具。")
	assert.Nil(t, inv.ExtractModules(context.Background(), doc.SectionChunks, ""))
	assert.Empty(t, fc.calls)
}

func TestExtractModulesSchemaFailure(t *testing.T) {
	fc := &fakeCompleter{modules: llm.Response{Object: map[string]any{"modules": []any{}}}}
	inv, _ := newInvoker(t, fc)
	doc := NewDocument(manualDoc)

	assert.Nil(t, inv.ExtractModules(context.Background(), doc.SectionChunks, "摘要"))
}

func TestNormalizeModuleDesc(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"可以管理用户。", "可以管理用户。"},
		{"管理 用户", "可以管理用户。"},
		{"2.管理“用户”", "可以管理用户。"},
		{"统计：报表", "可以统计，报表。"},
		{"", "可以。"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeModuleDesc(tt.in))
		})
	}
}
