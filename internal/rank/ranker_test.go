package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/segment"
)

func corpus() []segment.Chunk {
	return []segment.Chunk{
		{Text: "系统采用 Java 语言开发，数据库为 MySQL", SectionID: "1"},
		{Text: "用户管理模块支持用户的新增与删除", SectionID: "2"},
		{Text: "运行环境：Ubuntu 22.04，内存 8GB", SectionID: "3"},
		{Text: "本章介绍项目背景", SectionID: "4"},
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"java", "语", "言", "8gb", "v2"}, Tokenize("Java 语言, 8GB! v2"))
	assert.Empty(t, Tokenize("  ，。!? "))
}

func TestNew(t *testing.T) {
	for _, kind := range []string{KindBM25, KindTermCount, KindBleve} {
		r, err := New(kind, nil)
		require.NoError(t, err)
		assert.NotNil(t, r)
	}
	_, err := New("vector", nil)
	require.Error(t, err)
	assert.True(t, common.IsConfiguration(err))
}

func TestRankersFindRelevantChunk(t *testing.T) {
	for _, kind := range []string{KindBM25, KindTermCount, KindBleve} {
		t.Run(kind, func(t *testing.T) {
			r := MustNew(kind)
			got := r.Rank(corpus(), "编程语言 Java", 2)
			require.Len(t, got, 2)
			assert.Equal(t, "1", got[0].Chunk.SectionID)
			assert.Greater(t, got[0].Score, 0.0)
			assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
		})
	}
}

func TestRankersEmptyInputs(t *testing.T) {
	for _, kind := range []string{KindBM25, KindTermCount, KindBleve} {
		t.Run(kind, func(t *testing.T) {
			r := MustNew(kind)
			assert.Empty(t, r.Rank(nil, "java", 3))

			got := r.Rank(corpus(), "，。", 0)
			require.Len(t, got, 4)
			for i, s := range got {
				assert.Equal(t, corpus()[i], s.Chunk)
				assert.Zero(t, s.Score)
			}
		})
	}
}

func TestRankDeterministic(t *testing.T) {
	for _, kind := range []string{KindBM25, KindTermCount, KindBleve} {
		t.Run(kind, func(t *testing.T) {
			r := MustNew(kind)
			first := r.Rank(corpus(), "用户 管理 数据库", 0)
			for range 5 {
				assert.Equal(t, first, r.Rank(corpus(), "用户 管理 数据库", 0))
			}
		})
	}
}

func TestRankTiesKeepOriginalOrder(t *testing.T) {
	chunks := []segment.Chunk{{Text: "甲"}, {Text: "乙"}, {Text: "丙"}}
	got := TermCount{}.Rank(chunks, "丁", 0)
	require.Len(t, got, 3)
	assert.Equal(t, "甲", got[0].Chunk.Text)
	assert.Equal(t, "乙", got[1].Chunk.Text)
	assert.Equal(t, "丙", got[2].Chunk.Text)
}

func TestBM25NegativeIDFFloored(t *testing.T) {
	chunks := []segment.Chunk{
		{Text: "java java"}, {Text: "java go"}, {Text: "java"},
		{Text: "python rust"}, {Text: "c sharp"},
	}
	got := NewBM25().Rank(chunks, "java", 0)
	require.Len(t, got, 5)
	for _, s := range got[:3] {
		assert.Greater(t, s.Score, 0.0)
	}
	assert.Zero(t, got[3].Score)
	assert.Equal(t, "java java", got[0].Chunk.Text)
}
