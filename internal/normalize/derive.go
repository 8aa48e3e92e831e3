package normalize

import (
	"strings"

	"github.com/joseph-ayodele/doccollate/internal/entity"
	"github.com/joseph-ayodele/doccollate/internal/fields"
)

// derivation fills target from the first non-empty source when target is
// required and still empty.
type derivation struct {
	target  string
	sources []string
	format  func(string) string
}

func verbatim(s string) string { return s }

func prefixed(prefix string) func(string) string {
	return func(s string) string { return prefix + s }
}

// derivations run in order; later rules may read what earlier ones wrote.
var derivations = []derivation{
	{"tech__hardware_dev", []string{"env__hw_dev_platform"}, prefixed("开发硬件环境：")},
	{"tech__os_dev", []string{"env__os_version", "env__os"}, verbatim},
	{"tech__os_run", []string{"env__run_platform", "env__os"}, verbatim},
	{"tech__dev_tools", []string{"env__sw_dev_platform"}, prefixed("开发工具与平台：")},
	{"tech__language", []string{"env__language"}, verbatim},
	{"tech__dev_purpose", []string{"product__service_object"}, func(s string) string {
		return "开发目的在于服务" + s + "，解决其业务需求。"
	}},
	{"tech__main_functions", []string{"product__main_functions"}, prefixed("系统主要功能包括：")},
	{"tech__features", []string{"product__tech_specs"}, func(s string) string {
		return "技术特点体现在：" + strings.ReplaceAll(s, "；", "，")
	}},
	{"env__dev_lang", []string{"env__language"}, verbatim},
}

// lateDerivations run after the environment defaults are in place.
var lateDerivations = []derivation{
	{"env__dev_platform", []string{"env__sw_dev_platform"}, verbatim},
	{"env__run_platform", []string{"env__os"}, verbatim},
}

// Derive fills dependent fields and static defaults in place. Existing
// values are never overwritten.
func Derive(d entity.FieldData, required fields.Set) {
	setDefault(d, required, "tech__source_lines", "15000")
	setDefault(d, required, "app__short_name", "无")
	if required.Has("app__classification_code") {
		d.SetText("app__classification_code", "")
	}

	deriveModules(d, required)

	for _, dv := range derivations {
		applyDerivation(d, required, dv)
	}

	setDefault(d, required, "env__os", "Windows, Linux, macOS")
	setDefault(d, required, "env__memory_req", "2048MB")

	for _, dv := range lateDerivations {
		applyDerivation(d, required, dv)
	}
}

func applyDerivation(d entity.FieldData, required fields.Set, dv derivation) {
	if !required.Has(dv.target) || !d.Empty(dv.target) {
		return
	}
	for _, src := range dv.sources {
		if v := strings.TrimSpace(d.Text(src)); v != "" {
			d.SetText(dv.target, dv.format(v))
			return
		}
	}
}

// deriveModules gives every module a description and summarizes the module
// names into product__main_functions.
func deriveModules(d entity.FieldData, required fields.Set) {
	v, ok := d[funcListField]
	if !ok || v.Kind != entity.KindList || len(v.Modules) == 0 {
		return
	}
	if !required.Has(funcListField) && !required.Has("product__main_functions") && !required.Has("tech__main_functions") {
		return
	}

	mods := make([]entity.ModuleRecord, len(v.Modules))
	names := make([]string, 0, len(v.Modules))
	for i, m := range v.Modules {
		if m.Desc == "" && m.Name != "" {
			m.Desc = DefaultModuleDesc(m.Name)
		}
		mods[i] = m
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	d[funcListField] = entity.ListField(mods)

	if required.Has("product__main_functions") && d.Empty("product__main_functions") && len(names) > 0 {
		d.SetText("product__main_functions", strings.Join(names[:min(5, len(names))], "、")+"等功能")
	}
}

// DefaultModuleDesc is 可以<first six runes of title>管理。
func DefaultModuleDesc(title string) string {
	r := []rune(title)
	if len(r) > 6 {
		r = r[:6]
	}
	return "可以" + string(r) + "管理。"
}
