package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags which variant a FieldValue holds.
type Kind int

const (
	KindText Kind = iota + 1
	KindList
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// ModuleRecord is one entry of a module/function list.
type ModuleRecord struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// FieldValue is a tagged union over the three shapes a field can take.
// Only the member matching Kind is meaningful.
type FieldValue struct {
	Kind    Kind
	Text    string
	Modules []ModuleRecord
	Bool    bool
}

func TextField(s string) FieldValue { return FieldValue{Kind: KindText, Text: s} }

func ListField(items []ModuleRecord) FieldValue {
	return FieldValue{Kind: KindList, Modules: items}
}

func BoolField(b bool) FieldValue { return FieldValue{Kind: KindBool, Bool: b} }

// IsEmpty reports whether the value carries no usable content.
// A false BoolField is not empty.
func (v FieldValue) IsEmpty() bool {
	switch v.Kind {
	case KindText:
		return strings.TrimSpace(v.Text) == ""
	case KindList:
		return len(v.Modules) == 0
	case KindBool:
		return false
	default:
		return true
	}
}

// String renders the value as plain text. Lists are newline-joined names.
func (v FieldValue) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindList:
		names := make([]string, 0, len(v.Modules))
		for _, m := range v.Modules {
			if m.Name != "" {
				names = append(names, m.Name)
			}
		}
		return strings.Join(names, "\n")
	default:
		return ""
	}
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Text)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindList:
		if v.Modules == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Modules)
	default:
		return []byte("null"), nil
	}
}

func (v *FieldValue) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := FromRaw(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromRaw converts a decoded JSON value from the completion service into a
// FieldValue. Objects and nulls are rejected; arrays become module lists.
func FromRaw(raw any) (FieldValue, error) {
	switch t := raw.(type) {
	case string:
		return TextField(t), nil
	case bool:
		return BoolField(t), nil
	case float64:
		return TextField(strconv.FormatFloat(t, 'f', -1, 64)), nil
	case json.Number:
		return TextField(t.String()), nil
	case []any:
		items := make([]ModuleRecord, 0, len(t))
		for i, it := range t {
			rec, ok := moduleFromRaw(it)
			if !ok {
				return FieldValue{}, fmt.Errorf("list item %d: unsupported type %T", i, it)
			}
			if rec.Name == "" && rec.Desc == "" {
				continue
			}
			items = append(items, rec)
		}
		return ListField(items), nil
	case nil:
		return FieldValue{}, fmt.Errorf("null value")
	default:
		return FieldValue{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

func moduleFromRaw(raw any) (ModuleRecord, bool) {
	switch t := raw.(type) {
	case string:
		return ModuleRecord{Name: strings.TrimSpace(t)}, true
	case float64:
		return ModuleRecord{Name: strconv.FormatFloat(t, 'f', -1, 64)}, true
	case map[string]any:
		return ModuleRecord{
			Name: firstString(t, "name", "一级功能", "title"),
			Desc: firstString(t, "desc", "功能描述", "description"),
		}, true
	default:
		return ModuleRecord{}, false
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
