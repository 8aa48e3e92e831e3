package proposal

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toJSONMap round-trips v through JSON the way a completion reply decodes.
func toJSONMap(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

// filledProposal is a valid proposal with every cell set.
func filledProposal(t *testing.T) map[string]any {
	t.Helper()
	doc := Document{Placeholders: map[string]string{}}
	for _, p := range PlaceholderFields {
		doc.Placeholders[p] = "内容"
	}
	for _, ts := range TableSpecs {
		rows := make([]Row, ts.MinRows)
		for i := range rows {
			rows[i] = Row{}
			for _, k := range ts.Keys {
				rows[i][k] = "x"
			}
		}
		doc.Tables.Set(ts.Name, rows)
	}
	for _, r := range doc.Tables.Resources {
		r["cost"] = "¥10,000"
	}
	for _, r := range doc.Tables.Costs {
		r["amount"] = "¥20,000"
	}
	doc.Evidence = []EvidenceRef{{Field: "{{ purpose }}", Chunks: []string{"chunk_0001"}}}
	return toJSONMap(t, doc)
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(nil)
	require.NoError(t, err)
	return v
}

func TestValidatorAcceptsSkeletonAndFilled(t *testing.T) {
	v := newTestValidator(t)
	assert.Empty(t, v.ValidateValue(toJSONMap(t, skeleton())))
	assert.Empty(t, v.ValidateValue(filledProposal(t)))
}

func TestValidatorReportsLeafErrors(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name   string
		mutate func(m map[string]any)
		want   []string
	}{
		{
			name:   "missing table",
			mutate: func(m map[string]any) { delete(m["tables"].(map[string]any), "costs") },
			want:   []string{"/tables", "costs"},
		},
		{
			name: "missing placeholder",
			mutate: func(m map[string]any) {
				delete(m["placeholders"].(map[string]any), "{{ conclusion }}")
			},
			want: []string{"/placeholders", "conclusion"},
		},
		{
			name: "placeholder not a string",
			mutate: func(m map[string]any) {
				m["placeholders"].(map[string]any)["{{ scope }}"] = 3.0
			},
			want: []string{"/placeholders/", "expected string"},
		},
		{
			name: "too many milestones",
			mutate: func(m map[string]any) {
				tables := m["tables"].(map[string]any)
				ms := tables["milestones"].([]any)
				tables["milestones"] = append(ms, ms[0])
			},
			want: []string{"/tables/milestones"},
		},
		{
			name: "too few terms",
			mutate: func(m map[string]any) {
				tables := m["tables"].(map[string]any)
				tables["terms"] = tables["terms"].([]any)[:2]
			},
			want: []string{"/tables/terms"},
		},
		{
			name: "extra row key",
			mutate: func(m map[string]any) {
				row := m["tables"].(map[string]any)["resources"].([]any)[0].(map[string]any)
				row["time"] = "x"
			},
			want: []string{"/tables/resources/0", "time"},
		},
		{
			name:   "unknown top-level key",
			mutate: func(m map[string]any) { m["notes"] = "x" },
			want:   []string{"notes"},
		},
		{
			name: "bad evidence item",
			mutate: func(m map[string]any) {
				m["evidence"] = []any{map[string]any{"field": "x"}}
			},
			want: []string{"/evidence/0", "chunks"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := filledProposal(t)
			tt.mutate(m)
			errs := v.ValidateValue(m)
			require.NotEmpty(t, errs)
			joined := strings.Join(errs, "\n")
			for _, w := range tt.want {
				assert.Contains(t, joined, w)
			}
		})
	}
}

func TestValidatorInvalidJSON(t *testing.T) {
	errs := newTestValidator(t).Validate([]byte("{not json"))
	require.Len(t, errs, 1)
	assert.True(t, strings.HasPrefix(errs[0], "/: invalid JSON"))
}

func TestValidateDocument(t *testing.T) {
	v := newTestValidator(t)
	doc := padDocument(map[string]any{})
	assert.Empty(t, v.ValidateDocument(doc))

	doc.Tables.Milestones = doc.Tables.Milestones[:3]
	assert.NotEmpty(t, v.ValidateDocument(doc))
}
