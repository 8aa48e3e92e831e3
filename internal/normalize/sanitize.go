package normalize

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/doccollate/internal/entity"
)

const funcListField = "product__func_list"

var breakReplacer = strings.NewReplacer("<br />", "\n", "<br/>", "\n", "<br>", "\n")

var (
	serverPartRe = regexp.MustCompile(`(?s)(服务器端|服务端|服务器)\s*[:：]?\s*(.+?)(客户端|$)`)
	clientPartRe = regexp.MustCompile(`(?s)(客户端|客户端软件|客户端环境)\s*[:：]?\s*(.+)$`)
	funcSplitRe  = regexp.MustCompile(`[、，,；;\n]+`)
)

var serverClientPairs = [][2]string{
	{"env__server_os", "env__client_os"},
	{"env__server_soft", "env__client_soft"},
	{"env__server_config", "env__client_config"},
	{"env__server_model", "env__client_model"},
}

// Sanitize cleans raw extraction output in place: HTML line breaks become
// newlines, list values other than the module list collapse to text, and
// combined server/client descriptions are split into their pair.
func Sanitize(data entity.FieldData) {
	for k, v := range data {
		switch v.Kind {
		case entity.KindText:
			v.Text = breakReplacer.Replace(v.Text)
		case entity.KindList:
			mods := make([]entity.ModuleRecord, len(v.Modules))
			for i, m := range v.Modules {
				mods[i] = entity.ModuleRecord{Name: breakReplacer.Replace(m.Name), Desc: breakReplacer.Replace(m.Desc)}
			}
			v.Modules = mods
		}
		data[k] = v
	}

	for k, v := range data {
		if v.Kind == entity.KindList && k != funcListField {
			data[k] = entity.TextField(collapseList(v.Modules))
		}
	}
	if v, ok := data[funcListField]; ok && v.Kind == entity.KindText {
		data[funcListField] = entity.ListField(splitFuncList(v.Text))
	}

	for _, pair := range serverClientPairs {
		splitPair(data, pair[0], pair[1])
	}
}

func collapseList(mods []entity.ModuleRecord) string {
	lines := make([]string, 0, len(mods))
	for _, m := range mods {
		s := strings.TrimSpace(m.Name)
		if s == "" {
			s = strings.TrimSpace(m.Desc)
		}
		if s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

// splitFuncList turns a rule-extracted "A、B、C" module line into records.
func splitFuncList(s string) []entity.ModuleRecord {
	var out []entity.ModuleRecord
	for _, name := range funcSplitRe.Split(s, -1) {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, entity.ModuleRecord{Name: name})
		}
	}
	return out
}

func splitPair(data entity.FieldData, serverKey, clientKey string) {
	for _, key := range []string{serverKey, clientKey} {
		v, ok := data[key]
		if !ok || v.Kind != entity.KindText || v.Text == "" {
			continue
		}
		if server, client, ok := SplitServerClient(v.Text); ok {
			data.SetText(serverKey, server)
			data.SetText(clientKey, client)
		}
	}
}

// SplitServerClient splits "服务器端: X 客户端: Y" into X and Y. Both parts
// must be present and non-empty.
func SplitServerClient(s string) (server, client string, ok bool) {
	sm := serverPartRe.FindStringSubmatch(s)
	cm := clientPartRe.FindStringSubmatch(s)
	if sm == nil || cm == nil {
		return "", "", false
	}
	server = trimPairPart(sm[2])
	client = trimPairPart(cm[2])
	if server == "" || client == "" {
		return "", "", false
	}
	return server, client, true
}

func trimPairPart(s string) string {
	return strings.Trim(strings.TrimSpace(s), "；;，, \t\n")
}
