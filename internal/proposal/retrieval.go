package proposal

import (
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/doccollate/internal/rank"
	"github.com/joseph-ayodele/doccollate/internal/segment"
)

// RetrievalSpec says how evidence for one placeholder or table is found:
// chunks mentioning any FilterKeywords are ranked against Query and the best
// TopK kept. Queries, when set, are ranked one after another and merged.
type RetrievalSpec struct {
	Field          string
	FilterKeywords []string
	Query          string
	TopK           int
	Queries        []string
}

const (
	multiQueryTopK  = 6
	multiQueryTotal = 12
)

// RetrievalSpecs lists every placeholder then every table, in prompt order.
var RetrievalSpecs = []RetrievalSpec{
	{
		Field:          "{{ purpose }}",
		FilterKeywords: []string{"目的", "编写目的", "背景", "概述", "简介", "目标", "本文档", "用于", "面向", "解决"},
		Query:          "编写目的 背景 目标 本文档 用于 解决什么问题",
		TopK:           6,
	},
	{
		Field:          "{{ scope }}",
		FilterKeywords: []string{"范围", "适用范围", "适用对象", "本项目", "功能范围", "边界", "不包括", "约束", "限制"},
		Query:          "范围 边界 包含 不包含 适用对象 交付内容",
		TopK:           8,
	},
	{
		Field:          "{{ references }}",
		FilterKeywords: []string{"参考", "引用", "依据", "标准", "规范", "链接", "文档", "附录"},
		Query:          "参考 规范 标准 引用 链接 文档",
		TopK:           4,
	},
	{
		Field:          "{{ project_source }}",
		FilterKeywords: []string{"项目来源", "来源", "背景", "需求来源", "客户", "业务", "痛点", "现状"},
		Query:          "项目来源 背景 需求 痛点 现状",
		TopK:           8,
	},
	{
		Field:          "{{ project_scope_objectives }}",
		FilterKeywords: []string{"目标", "目的", "范围", "交付", "里程碑", "功能", "实现", "支持", "提升"},
		Query:          "项目目标 交付 里程碑 范围 功能 提升",
		TopK:           10,
	},
	{
		Field:          "{{ potential_customers }}",
		FilterKeywords: []string{"适用", "用户", "客户", "场景", "行业", "角色", "使用者"},
		Query:          "目标用户 适用对象 客户 场景 行业 角色",
		TopK:           6,
	},
	{
		Field:          "{{ product_features }}",
		FilterKeywords: []string{"建设", "内容", "范围", "核心", "能力", "目标", "交付", "价值", "收益", "提升", "改造", "优化"},
		Query:          "建设内容 核心能力 建设范围 目标 交付 价值 收益 提升 优化",
		TopK:           10,
		Queries: []string{
			"建设 内容 范围 目标 交付",
			"核心 能力 平台 服务 集成 数据",
			"价值 收益 效率 提升 风险 合规",
		},
	},
	{
		Field:          "{{ product_goals }}",
		FilterKeywords: []string{"目标", "规划", "路线图", "未来", "迭代", "二期", "三期", "优化", "扩展", "多租户", "性能", "安全"},
		Query:          "发展目标 规划 迭代 路线图 未来 优化 扩展",
		TopK:           6,
	},
	{
		Field:          "{{ architecture }}",
		FilterKeywords: []string{"架构", "架构图", "体系", "模块", "组件", "服务", "前端", "后端", "数据", "部署", "接口", "网关", "鉴权"},
		Query:          "体系架构 模块 组件 服务 数据流 部署 鉴权",
		TopK:           10,
		Queries: []string{
			"架构 体系 组件 服务 部署 接口",
			"技术栈 前端 后端 数据库 中间件 环境",
		},
	},
	{
		Field:          "{{ technical_feasibility }}",
		FilterKeywords: []string{"可行性", "技术方案", "实现", "兼容", "性能", "安全", "风险", "约束", "部署", "数据", "权限", "日志"},
		Query:          "技术可行性 实现 风险 约束 部署 性能 安全 兼容",
		TopK:           8,
	},
	{
		Field:          "{{ market_feasibility }}",
		FilterKeywords: []string{"场景", "业务", "价值", "痛点", "效率", "合规", "审计", "成本", "客户", "用户"},
		Query:          "业务场景 价值 痛点 效率 合规 审计 成本",
		TopK:           6,
	},
	{
		Field:          "{{ ip_analysis }}",
		FilterKeywords: []string{"知识产权", "版权", "软著", "开源", "许可证", "依赖", "第三方"},
		Query:          "开源 许可证 依赖 第三方 软著 知识产权",
		TopK:           4,
	},
	{
		Field:          "{{ conclusion }}",
		FilterKeywords: []string{"总结", "结论", "建议", "立项", "可行性", "风险", "收益"},
		Query:          "结论 建议 立项 可行性 风险 收益",
		TopK:           6,
	},
	{
		Field:          TableTerms,
		FilterKeywords: []string{"术语", "缩写", "acronym", "定义", "名词解释"},
		Query:          "术语 缩写 定义 表",
		TopK:           6,
	},
	{
		Field:          TableResources,
		FilterKeywords: []string{"资源", "环境", "部署", "服务器", "数据库", "网络", "账号", "权限", "存储", "配置"},
		Query:          "部署环境 服务器 配置 数据库 存储 访问 网络 资源",
		TopK:           6,
	},
	{
		Field:          TableCosts,
		FilterKeywords: []string{"成本", "费用", "预算", "人力", "服务器", "采购"},
		Query:          "预算 成本 费用 人力 服务器",
		TopK:           4,
	},
	{
		Field:          TableMilestones,
		FilterKeywords: []string{"计划", "进度", "里程碑", "周期", "阶段", "交付", "验收", "测试", "部署"},
		Query:          "项目计划 里程碑 阶段 交付 验收 测试 部署",
		TopK:           6,
	},
}

// FieldEvidence is the ranked chunks retrieved for one field.
type FieldEvidence struct {
	Field  string
	Chunks []Chunk
}

// EvidenceSet is evidence for every field in RetrievalSpecs order.
type EvidenceSet []FieldEvidence

// For returns the chunks retrieved for field, or nil.
func (s EvidenceSet) For(field string) []Chunk {
	for _, fe := range s {
		if fe.Field == field {
			return fe.Chunks
		}
	}
	return nil
}

// Retriever ranks proposal chunks per field with a pluggable strategy.
type Retriever struct {
	ranker rank.Ranker
	// DefaultTopK applies to specs without their own TopK.
	DefaultTopK int
	logger      *slog.Logger
}

func NewRetriever(ranker rank.Ranker, defaultTopK int, logger *slog.Logger) *Retriever {
	if ranker == nil {
		ranker = rank.NewBM25()
	}
	if defaultTopK <= 0 {
		defaultTopK = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{ranker: ranker, DefaultTopK: defaultTopK, logger: logger}
}

// RetrieveAll returns evidence for every spec in RetrievalSpecs.
func (r *Retriever) RetrieveAll(chunks []Chunk) EvidenceSet {
	out := make(EvidenceSet, 0, len(RetrievalSpecs))
	for _, spec := range RetrievalSpecs {
		out = append(out, FieldEvidence{Field: spec.Field, Chunks: r.Retrieve(chunks, spec)})
	}
	return out
}

// Retrieve returns the evidence for one spec. A keyword filter matching no
// chunk falls back to all chunks.
func (r *Retriever) Retrieve(chunks []Chunk, spec RetrievalSpec) []Chunk {
	if len(chunks) == 0 {
		return nil
	}
	candidates := filterChunks(chunks, spec.FilterKeywords)
	if len(candidates) == 0 {
		candidates = chunks
	}

	var got []Chunk
	if len(spec.Queries) > 0 {
		got = r.multiQuery(candidates, spec.Queries)
	} else {
		topK := spec.TopK
		if topK <= 0 {
			topK = r.DefaultTopK
		}
		got = r.rank(candidates, spec.Query, topK)
	}
	r.logger.Debug("proposal.retrieve.ok", "field", spec.Field, "candidates", len(candidates), "kept", len(got))
	return got
}

// multiQuery ranks each query in turn and merges the results by chunk id,
// stopping once multiQueryTotal chunks are collected.
func (r *Retriever) multiQuery(chunks []Chunk, queries []string) []Chunk {
	var merged []Chunk
	seen := map[string]bool{}
	for _, q := range queries {
		for _, c := range r.rank(chunks, q, multiQueryTopK) {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			merged = append(merged, c)
			if len(merged) >= multiQueryTotal {
				return merged
			}
		}
	}
	return merged
}

// rank adapts proposal chunks to the segment chunks rankers score; the id
// travels in SectionID.
func (r *Retriever) rank(chunks []Chunk, query string, topK int) []Chunk {
	byID := make(map[string]Chunk, len(chunks))
	segs := make([]segment.Chunk, len(chunks))
	for i, c := range chunks {
		byID[c.ID] = c
		segs[i] = segment.Chunk{Text: c.Text, SectionID: c.ID}
	}
	scored := r.ranker.Rank(segs, query, topK)
	out := make([]Chunk, 0, len(scored))
	for _, s := range scored {
		out = append(out, byID[s.Chunk.SectionID])
	}
	return out
}

func filterChunks(chunks []Chunk, keywords []string) []Chunk {
	var cleaned []string
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	if len(cleaned) == 0 {
		return chunks
	}
	var out []Chunk
	for _, c := range chunks {
		for _, kw := range cleaned {
			if strings.Contains(c.Text, kw) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
