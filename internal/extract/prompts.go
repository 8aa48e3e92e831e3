package extract

import "fmt"

const summarySystemPrompt = "你是严谨的说明书摘要助手。请输出摘要与关键信息列表，尽量覆盖软件用途、主要功能、" +
	"开发/运行环境、编程语言、数据库、操作系统、软件类别/应用领域。" +
	"输出为纯文本多行，使用“字段: 内容”的格式，不要编号。"

const moduleRules = "输出为 JSON 对象，包含 items 数组。" +
	"每个元素包含字段：一级功能、功能描述。"

const moduleStyle = "功能描述必须以“可以”开头，仅一句话，25~60个中文字符。" +
	"不要出现编号、引号、冒号，不要出现“本模块/该模块/它”等代词。" +
	"只输出 JSON，不要解释。"

const modulesFromEvidencePrompt = "你是软件测评文档编写助手。请根据每个模块的证据文本，输出“产品测试功能表”所需内容。" +
	moduleRules +
	"一级功能使用给定 module_title（可清理但不要新增模块）。" +
	moduleStyle

const modulesFromSummaryPrompt = "你是软件测评文档编写助手。根据说明书摘要输出“产品测试功能表”所需内容。" +
	moduleRules +
	"一级功能为清晰模块名，" +
	moduleStyle

func fieldSystemPrompt(field, prompt string) string {
	return fmt.Sprintf("你只需输出JSON对象，且只包含一个字段。字段名必须严格等于要求的字段名，字段名为 %s。%s"+
		"先基于证据片段生成；如证据不足，再结合说明书摘要推断补全。"+
		"除非摘要也完全缺失相关信息，否则不要输出“待确认”，可输出简短合理概括。", field, prompt)
}

func fieldUserPrompt(evidence, summary string) string {
	return "证据片段：\n" + evidence + "\n\n说明书摘要：\n" + summary
}

func summaryUserPrompt(snippet string) string {
	return "说明书内容如下：\n" + snippet
}
