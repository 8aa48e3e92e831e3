package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doccollate/constants"
	"github.com/joseph-ayodele/doccollate/internal/async"
	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/evidence"
	"github.com/joseph-ayodele/doccollate/internal/extract"
	"github.com/joseph-ayodele/doccollate/internal/fields"
	"github.com/joseph-ayodele/doccollate/internal/llm"
	"github.com/joseph-ayodele/doccollate/internal/normalize"
	"github.com/joseph-ayodele/doccollate/internal/rank"
	"github.com/joseph-ayodele/doccollate/internal/store"
)

const manual = "# 考勤管理系统用户手册\n\n软件简称：考勤通\n\n## 1 概述\n\n本系统用于企业员工考勤管理。\n\n" +
	"| 类别 | 内容 |\n| --- | --- |\n| 编程语言 | Go |\n"

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(context.Context, string) (extract.TextExtractionResult, error) {
	return extract.TextExtractionResult{Text: s.text, Pages: 1, SourceType: constants.MARKDOWN, Method: "plain"}, s.err
}

// scriptedCompleter answers summaries and fails every field request.
type scriptedCompleter struct {
	mu    sync.Mutex
	calls []llm.Request
}

func (c *scriptedCompleter) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
	if req.Purpose == "summary" {
		return llm.Response{Content: "用途: 考勤管理"}, nil
	}
	return llm.Response{}, llm.StatusError(503, []byte("unavailable"))
}

func (c *scriptedCompleter) asked(field string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.calls {
		if strings.Contains(r.System, "字段名为 "+field+"。") {
			return true
		}
	}
	return false
}

func newProcessor(t *testing.T, tx extract.TextExtractor, c llm.Completer, runs store.RunRepository) *Processor {
	t.Helper()
	catalog, err := fields.Default()
	require.NoError(t, err)
	resolver, err := fields.NewResolver(catalog)
	require.NoError(t, err)

	asm := evidence.NewAssembler(catalog, rank.NewBM25(), evidence.Config{}, nil)
	inv := extract.NewInvoker(c, asm, extract.InvokerConfig{}, nil)
	now := func() time.Time { return time.Date(2025, 3, 19, 10, 0, 0, 0, time.UTC) }
	forms := NewFormStage(resolver, inv, nil, 42, normalize.Options{Now: now}, nil)
	return NewProcessor(nil, NewTextStage(tx, runs, nil), forms, nil, runs)
}

func openRuns(t *testing.T) store.RunRepository {
	t.Helper()
	db, err := store.Open(context.Background(), store.Config{DSN: filepath.Join(t.TempDir(), "runs.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return store.NewRunRepository(db, nil)
}

func TestProcessFileTestForms(t *testing.T) {
	c := &scriptedCompleter{}
	runs := openRuns(t)
	p := newProcessor(t, stubExtractor{text: manual}, c, runs)
	p.Meta = Metadata{AppVersion: "V2.1"}
	p.OutDir = t.TempDir()

	out, err := p.ProcessFile(context.Background(), "/in/考勤管理系统.md", fields.TargetTestForms, "abc")
	require.NoError(t, err)

	d := out.Fields
	assert.Equal(t, "考勤通", d.Text("app__short_name"))
	assert.Equal(t, "Go", d.Text("env__language"))
	assert.Equal(t, "考勤管理系统", d.Text("app__name"))
	assert.Equal(t, "V2.1", d.Text("app__version"))
	assert.Equal(t, constants.DefaultCategory, d.Text("app__category_assess"))
	assert.False(t, c.asked("env__language"), "rule-seeded fields are not prompted")

	run, err := runs.Get(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusOK, run.Status)
	assert.Equal(t, constants.MARKDOWN, run.SourceType)
	assert.Equal(t, len(d), run.FieldCount)

	b, err := os.ReadFile(out.OutputPath)
	require.NoError(t, err)
	var written map[string]any
	require.NoError(t, json.Unmarshal(b, &written))
	assert.Equal(t, "考勤通", written["app__short_name"])
	assert.Equal(t, "考勤管理系统.test_forms.json", filepath.Base(out.OutputPath))
}

func TestProcessFileSameSeedSameOutput(t *testing.T) {
	a, err := newProcessor(t, stubExtractor{text: manual}, &scriptedCompleter{}, nil).
		ProcessFile(context.Background(), "/in/a.md", fields.TargetCopyright, "")
	require.NoError(t, err)
	b, err := newProcessor(t, stubExtractor{text: manual}, &scriptedCompleter{}, nil).
		ProcessFile(context.Background(), "/in/a.md", fields.TargetCopyright, "")
	require.NoError(t, err)
	assert.Equal(t, a.Fields, b.Fields)
}

func TestProcessFileApplicantType(t *testing.T) {
	p := newProcessor(t, stubExtractor{text: manual}, &scriptedCompleter{}, nil)
	p.Meta = Metadata{AppName: "智慧考勤平台", ApplicantType: "Agent"}

	out, err := p.ProcessFile(context.Background(), "/in/a.md", fields.TargetCopyright, "")
	require.NoError(t, err)
	assert.Equal(t, "agent", out.Fields.Text("applicant__type"))
	assert.Equal(t, "智慧考勤平台", out.Fields.Text("app__name"))
	assert.Equal(t, "未标注版本", out.Fields.Text("app__version"))
}

func TestProcessFileReadFailureClosesRun(t *testing.T) {
	runs := openRuns(t)
	readErr := common.NewAppError(common.CodeDocumentRead, "read a.pdf", errors.New("broken xref"))
	p := newProcessor(t, stubExtractor{err: readErr}, &scriptedCompleter{}, runs)

	out, err := p.ProcessFile(context.Background(), "/in/a.pdf", fields.TargetCopyright, "")
	require.ErrorIs(t, err, readErr)

	run, err := runs.Get(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Contains(t, *run.ErrorMessage, "broken xref")
}

func TestProcessFileEmptyText(t *testing.T) {
	p := newProcessor(t, stubExtractor{text: "  \n"}, &scriptedCompleter{}, nil)
	_, err := p.ProcessFile(context.Background(), "/in/a.md", fields.TargetTestForms, "")
	assert.ErrorIs(t, err, common.ErrRetrievalEmpty)
}

func TestProcessFileTargets(t *testing.T) {
	p := newProcessor(t, stubExtractor{text: manual}, &scriptedCompleter{}, nil)

	_, err := p.ProcessFile(context.Background(), "/in/a.md", "invoice", "")
	assert.True(t, common.IsConfiguration(err))

	_, err = p.ProcessFile(context.Background(), "/in/a.md", fields.TargetProposal, "")
	assert.True(t, common.IsConfiguration(err), "no generator configured")
}

func TestProcessorThroughQueue(t *testing.T) {
	runs := openRuns(t)
	p := newProcessor(t, stubExtractor{text: manual}, &scriptedCompleter{}, runs)

	var mu sync.Mutex
	var errs []error
	q := async.NewDocumentQueue(p, nil, async.WithWorkers(2), async.WithResultHook(func(_ async.Job, err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}))
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		require.NoError(t, q.Enqueue(context.Background(), async.Job{Path: "/in/" + name, Target: fields.TargetCopyright}))
	}
	q.Shutdown(context.Background())

	require.Len(t, errs, 3)
	for _, err := range errs {
		assert.NoError(t, err)
	}
	list, err := runs.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, r := range list {
		assert.Equal(t, constants.RunStatusOK, r.Status)
	}
}
