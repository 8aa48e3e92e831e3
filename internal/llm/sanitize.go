package llm

import (
	"log/slog"
	"strings"
)

// SanitizeFieldObject is the lenient pass applied when a single-field reply
// fails strict validation. It
//   - renames a lone key or a case/space variant to field
//   - unwraps {field: {field: v}} nesting
//   - drops null and every other key
//
// The returned list names what was changed.
func SanitizeFieldObject(obj map[string]any, field string, logger *slog.Logger) (map[string]any, []string) {
	if logger == nil {
		logger = slog.Default()
	}
	var changed []string
	out := map[string]any{}

	v, ok := obj[field]
	if !ok {
		for k, cand := range obj {
			if strings.EqualFold(strings.TrimSpace(k), field) {
				v, ok = cand, true
				changed = append(changed, k+"->"+field)
				break
			}
		}
	}
	if !ok && len(obj) == 1 {
		for k, cand := range obj {
			v, ok = cand, true
			changed = append(changed, k+"->"+field)
		}
	}
	if !ok {
		return out, changed
	}

	if nested, isMap := v.(map[string]any); isMap {
		if inner, has := nested[field]; has {
			v = inner
			changed = append(changed, field+"(unwrapped)")
		} else if len(nested) == 1 {
			for _, inner := range nested {
				v = inner
			}
			changed = append(changed, field+"(unwrapped)")
		}
	}
	if v == nil {
		changed = append(changed, field+"(null)")
		return out, changed
	}
	if s, isStr := v.(string); isStr {
		v = strings.TrimSpace(s)
	}
	out[field] = v

	for k := range obj {
		if k != field && !containsChange(changed, k) {
			changed = append(changed, k+"(unknown)")
		}
	}
	if len(changed) > 0 {
		logger.Warn("llm.field.sanitize", "field", field, "changed", changed)
	}
	return out, changed
}

func containsChange(changed []string, key string) bool {
	for _, c := range changed {
		if strings.HasPrefix(c, key+"->") {
			return true
		}
	}
	return false
}
