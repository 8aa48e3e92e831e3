package proposal

import (
	"encoding/json"
	"fmt"
	"strings"
)

const generatorSystemPrompt = "You are a careful JSON generator."

const generationRules = `你是一个严谨的文档生成器。只输出严格 JSON，且必须符合给定 schema。
全局规则：
- 不依赖章节号；只依据证据 chunks
- 不编造具体产品/技术名；缺失可用“待确认”保守表述
- 风格：正式、决策向、可执行；避免营销语
- 字段输出独立成段，便于直接填入 Word
字段硬规则：
- {{ product_features }}: 用于立项建议书的“建设内容/核心能力概述”，3-6条；必须使用统一排版便于扫读：
  1) 每条独占一行
  2) 每条以 "• " 开头
  3) 统一格式："• 能力/建设项：覆盖范围/业务价值（1-2句）"
  4) 使用全角冒号 "：" 分隔标题与描述
  5) 避免细粒度功能清单、页面/按钮级描述与模板化“可以...”
- 表格 terms/resources/costs 至少满足最少行数，可输出更多；milestones 固定 5 行
里程碑时间硬规则：
- tables.milestones[*].start_date / end_date 必须输出准确日期字符串，推荐格式 YYYY-MM-DD
- 不要输出 tables.milestones[*].time 字段（将由程序用 start/end 统一拼接展示）
- milestones 日期必须落在 manual_inputs.schedule.start_date 与 end_date 范围内，并均匀规划 5 段
- 金额字段强规则（禁止“待评估”）：
  - tables.resources[*].cost：必须给出人民币估算，格式统一为 "¥50,000"
  - tables.costs[*].amount：必须给出人民币估算，格式统一为 "¥50,000"
- 若表格不足最少行数：请新增合理条目补齐（不要用“待评估/空字符串”填充金额字段）`

// skeleton is an empty proposal with every table at its minimum length.
func skeleton() map[string]any {
	placeholders := make(map[string]string, len(PlaceholderFields))
	for _, p := range PlaceholderFields {
		placeholders[p] = ""
	}
	tables := make(map[string][]Row, len(TableSpecs))
	for _, ts := range TableSpecs {
		tables[ts.Name] = padRows(nil, ts.Keys, ts.MinRows)
	}
	return map[string]any{
		"placeholders": placeholders,
		"tables":       tables,
		"evidence":     []EvidenceRef{{Field: FeaturesPlaceholder, Chunks: []string{"chunk_0001"}}},
	}
}

// buildPrompt assembles the single generation request from the manual
// inputs, the per-field evidence and the schema skeleton.
func buildPrompt(inputs *Inputs, ev EvidenceSet) (string, error) {
	manual, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("marshal manual inputs: %w", err)
	}
	schema, err := json.Marshal(skeleton())
	if err != nil {
		return "", fmt.Errorf("marshal skeleton: %w", err)
	}

	var evidence strings.Builder
	for _, fe := range ev {
		evidence.WriteString("FIELD: " + fe.Field + "\n")
		for _, c := range fe.Chunks {
			evidence.WriteString("- " + c.ID + ": " + c.Text + "\n")
		}
		evidence.WriteString("\n")
	}

	var b strings.Builder
	b.WriteString("任务：根据 manual_inputs 与 field evidence 生成 JSON。\n")
	b.WriteString("manual_inputs:\n")
	b.Write(manual)
	b.WriteString("\n\nfield evidence:\n")
	b.WriteString(evidence.String())
	b.WriteString("\nschema 示例（仅示意结构与字段，不要省略任何字段）：\n")
	b.Write(schema)
	b.WriteString("\n\n规则：\n")
	b.WriteString(generationRules)
	b.WriteString("\n\n只输出 JSON，不要输出任何额外文本。")
	return b.String(), nil
}

// moneyTable describes a table whose money column the fixer completes.
type moneyTable struct {
	name     string
	moneyKey string
	// kept are the descriptive columns the reply must not rewrite.
	kept      []string
	assistant string
	evidence  string
}

var moneyTables = []moneyTable{
	{
		name:      TableResources,
		moneyKey:  "cost",
		kept:      []string{"name", "level", "spec", "source"},
		assistant: "你是一个严谨的成本评估助手。",
		evidence:  "可参考的证据（来自说明书检索，可能包含环境规模、部署方式、资源要求等）：",
	},
	{
		name:      TableCosts,
		moneyKey:  "amount",
		kept:      []string{"item", "note"},
		assistant: "你是一个严谨的预算评估助手。",
		evidence:  "可参考的证据（来自说明书检索，可能包含预算、采购、人力、云资源等）：",
	},
}

// fillPrompt asks for the money column of rows to be completed and the
// table padded to minRows.
func fillPrompt(mt moneyTable, keys []string, rows []Row, minRows int, chunks []Chunk) (string, error) {
	input, err := json.Marshal(map[string][]Row{mt.name: rows})
	if err != nil {
		return "", fmt.Errorf("marshal %s rows: %w", mt.name, err)
	}
	format, err := json.Marshal(map[string][]Row{mt.name: {emptyRow(keys)}})
	if err != nil {
		return "", err
	}

	lines := []string{
		mt.assistant + "请补全 " + mt.name + " 表格，并保证可直接用于立项建议书。",
		"",
		"约束：",
		"- 只输出 JSON，禁止输出任何额外文本",
		"- 输出格式必须为：" + string(format),
		"- 保留输入中已有行的 " + strings.Join(mt.kept, "/") + "（不要改写这些字段）",
		"- 对于 " + mt.moneyKey + " 为空的行：必须给出人民币估算，格式统一为 \"¥50,000\"",
		"- 禁止输出“" + pendingEstimate + "”或区间/周期描述",
		fmt.Sprintf("- 若行数少于 %d：在末尾新增合理条目补齐到 %d 行，并同样给出 %s", minRows, minRows, mt.moneyKey),
		"",
		mt.evidence,
		formatEvidence(chunks, maxEvidenceChars),
		"",
		"输入：",
		string(input),
	}
	return strings.Join(lines, "\n"), nil
}
