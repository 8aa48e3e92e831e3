package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentNumberedHeading(t *testing.T) {
	sections := Segment("### 3.3.1 用户管理\n支持用户增删改查\n")
	require.Len(t, sections, 1)
	assert.Equal(t, Section{ID: "3.3.1", Title: "用户管理", Content: "支持用户增删改查"}, sections[0])
}

func TestSegmentHeadingKinds(t *testing.T) {
	doc := strings.Join([]string{
		"前言文字不属于任何章节",
		"第十二章 系统部署",
		"部署在云服务器上",
		"2.1 运行环境",
		"Ubuntu 22.04",
		"",
		"PostgreSQL 13",
		"# 概述",
		"这是概述",
		"## 空章节",
		"",
	}, "\n")

	sections := Segment(doc)
	require.Len(t, sections, 3)

	assert.Equal(t, "12", sections[0].ID)
	assert.Equal(t, "系统部署", sections[0].Title)

	assert.Equal(t, "2.1", sections[1].ID)
	assert.Equal(t, "运行环境", sections[1].Title)
	assert.Equal(t, "Ubuntu 22.04\n\nPostgreSQL 13", sections[1].Content)

	assert.Equal(t, "title:概述", sections[2].ID)
	assert.Equal(t, "概述", sections[2].Title)
}

func TestSegmentRepeatedHeadingAccumulates(t *testing.T) {
	doc := "# 1 功能\n第一段\n# 2 性能\n很快\n# 1 功能\n第二段\n"
	sections := Segment(doc)
	require.Len(t, sections, 2)
	assert.Equal(t, "1", sections[0].ID)
	assert.Equal(t, "第一段\n第二段", sections[0].Content)
	assert.Equal(t, "2", sections[1].ID)
}

func TestSegmentPlainNumberIsNotHeading(t *testing.T) {
	sections := Segment("# 1.2 内存\n2 GB 以上\n")
	require.Len(t, sections, 1)
	assert.Equal(t, "2 GB 以上", sections[0].Content)
}

func TestSegmentIdempotentOnContent(t *testing.T) {
	doc := "# 1 简介\n本系统用于项目管理。\n\n支持多人协作。\n# 2 架构\n采用B/S架构。\n"
	sections := Segment(doc)
	require.NotEmpty(t, sections)

	for _, s := range sections {
		again := Segment(s.Content)
		assert.Empty(t, again, "content of %s must not contain headings", s.ID)

		wrapped := Segment("# " + s.ID + " " + s.Title + "\n" + s.Content)
		require.Len(t, wrapped, 1)
		assert.Equal(t, s, wrapped[0])
	}
}

func TestChineseNumeral(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"一", 1, true},
		{"十", 10, true},
		{"十一", 11, true},
		{"二十", 20, true},
		{"二十一", 21, true},
		{"九十九", 99, true},
		{"一二三四", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ChineseNumeral(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
