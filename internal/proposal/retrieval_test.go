package proposal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doccollate/internal/rank"
)

func ids(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.ID
	}
	return out
}

func specFor(t *testing.T, field string) RetrievalSpec {
	t.Helper()
	for _, s := range RetrievalSpecs {
		if s.Field == field {
			return s
		}
	}
	t.Fatalf("no spec for %s", field)
	return RetrievalSpec{}
}

var sampleChunks = []Chunk{
	{ID: "chunk_0001", Text: "项目背景：企业考勤效率低，需要统一管理。"},
	{ID: "chunk_0002", Text: "系统架构采用微服务，部署在私有云上，提供接口网关。"},
	{ID: "chunk_0003", Text: "项目预算包括人力成本与服务器采购费用。"},
}

func TestRetrieveFiltersByKeyword(t *testing.T) {
	r := NewRetriever(rank.NewBM25(), 0, nil)
	got := r.Retrieve(sampleChunks, specFor(t, TableCosts))
	assert.Equal(t, []string{"chunk_0003"}, ids(got))
}

func TestRetrieveFallsBackToAllChunks(t *testing.T) {
	r := NewRetriever(rank.NewBM25(), 0, nil)
	got := r.Retrieve(sampleChunks, specFor(t, TableTerms))
	assert.ElementsMatch(t, []string{"chunk_0001", "chunk_0002", "chunk_0003"}, ids(got))
}

func TestRetrieveTopKFromDefault(t *testing.T) {
	r := NewRetriever(rank.NewBM25(), 2, nil)
	got := r.Retrieve(sampleChunks, RetrievalSpec{Field: "x", Query: "项目"})
	assert.Len(t, got, 2)
}

func TestRetrieveMultiQueryMergesUnique(t *testing.T) {
	var chunks []Chunk
	for i := 1; i <= 30; i++ {
		chunks = append(chunks, Chunk{
			ID:   fmt.Sprintf("chunk_%04d", i),
			Text: fmt.Sprintf("第%d节 架构 组件 服务 部署 接口 技术栈 数据库 中间件", i),
		})
	}
	r := NewRetriever(rank.NewBM25(), 0, nil)
	got := r.Retrieve(chunks, specFor(t, "{{ architecture }}"))

	assert.LessOrEqual(t, len(got), multiQueryTotal)
	assert.GreaterOrEqual(t, len(got), multiQueryTopK)
	seen := map[string]bool{}
	for _, c := range got {
		assert.False(t, seen[c.ID], "duplicate %s", c.ID)
		seen[c.ID] = true
	}
}

func TestRetrieveAllKeepsSpecOrder(t *testing.T) {
	r := NewRetriever(nil, 0, nil)
	got := r.RetrieveAll(sampleChunks)
	require.Len(t, got, len(RetrievalSpecs))
	for i, fe := range got {
		assert.Equal(t, RetrievalSpecs[i].Field, fe.Field)
		assert.NotEmpty(t, fe.Chunks, fe.Field)
	}
	assert.Equal(t, []string{"chunk_0003"}, ids(got.For(TableCosts)))
	assert.Nil(t, got.For("missing"))

	assert.Empty(t, r.RetrieveAll(nil).For(TableCosts))
}

func TestRetrieveWithTermCountRanker(t *testing.T) {
	r := NewRetriever(rank.TermCount{}, 0, nil)
	got := r.Retrieve(sampleChunks, specFor(t, "{{ architecture }}"))
	require.NotEmpty(t, got)
	assert.Equal(t, "chunk_0002", got[0].ID)
}
