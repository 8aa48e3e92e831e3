package constants

import (
	"slices"
	"strings"
)

// CategoryOptions is the closed list of assessment categories ("NN 名称").
var CategoryOptions = []string{
	"01 操作系统",
	"02 工具软件与平台系统",
	"03 中间件",
	"04 信息安全",
	"05 其它基础软件",
	"06 信息通讯(ICT)",
	"07 数字装备",
	"08 医疗设备",
	"09 商用及办公设备",
	"10 数字电视",
	"11 汽车电子",
	"12 计算机及设备",
	"13 消费电子",
	"14 信息家电",
	"15 其他通讯和工业",
	"16 办公和管理",
	"17 企业管理",
	"18 电子政务",
	"19 医疗卫生",
	"20 教育",
	"21 地理信息",
	"22 金融",
	"23 交通物流",
	"24 文化创意",
	"25 商贸旅游",
	"26 通讯网络服务",
	"27 能源和环保",
	"28 建筑物业",
	"29 互联网服务",
	"30 其他计算机应用软件和信息服务",
	"31 IC设计",
}

// DefaultCategory is used when a category cannot be matched unambiguously.
const DefaultCategory = "30 其他计算机应用软件和信息服务"

// IsCategory reports whether s is exactly one of CategoryOptions.
func IsCategory(s string) bool {
	return slices.Contains(CategoryOptions, s)
}

// CanonicalizeCategory maps input onto CategoryOptions. An exact option wins;
// otherwise input must be a substring of exactly one option.
func CanonicalizeCategory(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	if IsCategory(input) {
		return input, true
	}
	match := ""
	for _, opt := range CategoryOptions {
		if !strings.Contains(opt, input) {
			continue
		}
		if match != "" {
			return "", false
		}
		match = opt
	}
	return match, match != ""
}

// ProductType is one entry of the closed product-type list.
type ProductType struct {
	Key    string
	Prefix string
	Name   string
}

// Label is the form value, e.g. "应用软件-信息管理软件".
func (p ProductType) Label() string { return p.Prefix + p.Name }

const (
	prefixSystem  = "系统软件-"
	prefixSupport = "支持软件-"
	prefixApp     = "应用软件-"
)

// ProductTypes is ordered; the first match wins.
var ProductTypes = []ProductType{
	{"Operating System", prefixSystem, "操作系统"},
	{"Chinese Processing System", prefixSystem, "中文处理系统"},
	{"Network System", prefixSystem, "网络系统"},
	{"Embedded Operating System", prefixSystem, "嵌入式操作系统"},
	{"Other(System)", prefixSystem, "其他"},
	{"Programming Language", prefixSupport, "程序设计语言"},
	{"Database System Design", prefixSupport, "数据库系统设计"},
	{"Tools", prefixSupport, "工具软件"},
	{"Network Communication Software", prefixSupport, "网络通信软件"},
	{"Middleware", prefixSupport, "中间件"},
	{"Other(Support)", prefixSupport, "其他"},
	{"Industry Management Software", prefixApp, "行业管理软件"},
	{"Office Software", prefixApp, "办公软件"},
	{"Pattern Recognition Software", prefixApp, "模式识别软件"},
	{"Graphics Software", prefixApp, "图形图象软件"},
	{"Control Software", prefixApp, "控制软件"},
	{"Network Application Software", prefixApp, "网络应用软件"},
	{"Information Management Software", prefixApp, "信息管理软件"},
	{"Database Management Application Software", prefixApp, "数据库管理应用软件"},
	{"Security and Confidentiality Software", prefixApp, "安全与保密软件"},
	{"Embedded Application Software", prefixApp, "嵌入式应用软件"},
	{"Education Software", prefixApp, "教育软件"},
	{"Game Software", prefixApp, "游戏软件"},
}

// DefaultProductType is the fallback label.
const DefaultProductType = prefixApp + "信息管理软件"

// CanonicalizeProductType maps free text onto a ProductTypes label. Text that
// mentions "其他"/"Other" or matches nothing yields DefaultProductType.
func CanonicalizeProductType(input string) string {
	input = strings.TrimSpace(input)
	if input == "" || strings.Contains(input, "Other") || strings.Contains(input, "其他") {
		return DefaultProductType
	}
	for _, p := range ProductTypes {
		if strings.Contains(input, p.Name) || strings.Contains(input, p.Key) {
			return p.Label()
		}
	}
	return DefaultProductType
}
