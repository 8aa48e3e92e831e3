package entity

import (
	"maps"
	"slices"
)

// FieldData is the form-ready map keyed by stable field names
// ("domain__attribute", e.g. env__memory_req).
type FieldData map[string]FieldValue

// Text returns the string form of a field, or "" when absent.
func (d FieldData) Text(field string) string {
	v, ok := d[field]
	if !ok {
		return ""
	}
	return v.String()
}

// Empty reports whether the field is absent or carries no content.
func (d FieldData) Empty(field string) bool {
	v, ok := d[field]
	return !ok || v.IsEmpty()
}

func (d FieldData) SetText(field, s string)      { d[field] = TextField(s) }
func (d FieldData) SetBool(field string, b bool) { d[field] = BoolField(b) }

// Merge copies every value from other that is missing or empty in d.
func (d FieldData) Merge(other FieldData) {
	for k, v := range other {
		if d.Empty(k) {
			d[k] = v
		}
	}
}

func (d FieldData) Clone() FieldData {
	out := make(FieldData, len(d))
	for k, v := range d {
		if v.Kind == KindList {
			v.Modules = slices.Clone(v.Modules)
		}
		out[k] = v
	}
	return out
}

// Keys returns the field names in sorted order.
func (d FieldData) Keys() []string {
	return slices.Sorted(maps.Keys(d))
}
