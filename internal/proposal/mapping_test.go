package proposal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doccollate/internal/common"
)

func TestFormatDateRange(t *testing.T) {
	tests := []struct {
		start, end, want string
	}{
		{"2025-01-01", "2025/01/10", "2025-01-01 ~ 2025-01-10（10天）"},
		{"2025.1.1", "2025-01-01", "2025-01-01 ~ 2025-01-01（1天）"},
		{"2025-01-10", "2025-01-01", "2025-01-10 ~ 2025-01-01"},
		{"2025-1-2", "待定", "2025-01-02 ~ 待定"},
		{"下月", "", "下月"},
		{"", " 2025/2/1 ", "2025-02-01"},
		{"", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDateRange(tt.start, tt.end), tt.start+"|"+tt.end)
	}
}

func TestPlaceholderMap(t *testing.T) {
	in := NewInputs("某公司", "考勤系统", "Attendance System")
	doc := padDocument(map[string]any{
		"placeholders": map[string]any{"{{ scope }}": "范围"},
		"tables": map[string]any{
			"milestones": []any{map[string]any{
				"phase": "需求", "tasks": "调研", "start_date": "2025-01-01", "end_date": "2025-01-31", "deliverables": "需求说明书",
			}},
		},
	})

	m := PlaceholderMap(in, doc)

	assert.Equal(t, "Attendance System Project Proposal", m["{{ document_title }}"])
	assert.Equal(t, "V1.0", m["{{ document_version }}"])
	assert.Equal(t, "V1.0", m["{{ revision_01_version }}"])
	assert.Equal(t, "C", m["{{ revision_01_status }}"])
	assert.Equal(t, "", m["{{ revision_04_version }}"])
	assert.Contains(t, m, "{{ signoff_04_comment }}")
	assert.Equal(t, "范围", m["{{ scope }}"])
	assert.Equal(t, "", m["{{ purpose }}"])
	assert.Equal(t, "2025-01-01 ~ 2025-01-31（31天）", m["{{ milestone_01_time }}"])
	assert.Equal(t, "需求说明书", m["{{ milestone_01_deliverables }}"])
	assert.Equal(t, "", m["{{ milestone_05_time }}"])
	assert.Len(t, m, 9+4*5+4*4+len(PlaceholderFields)+5*6)
}

func TestLoadPreset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`cover:
  company_name: 某科技有限公司
  project_name: 考勤管理系统
  drafted_by: 张三
  draft_date: 2025-03-01
schedule:
  start_date: 2025-01-01
  end_date: 2025-06-30
`), 0o600))

	in, err := LoadPreset(path)
	require.NoError(t, err)
	assert.Equal(t, "考勤管理系统 Project Proposal", in.Cover.DocumentTitle)
	assert.Equal(t, "V1.0", in.Cover.DocumentVersion)
	assert.Equal(t, []Revision{{Version: "V1.0", Status: "C"}}, in.RevisionHistory)
	assert.Len(t, in.SignoffRecords, 4)
	assert.Equal(t, "2025-06-30", in.Schedule.EndDate)
}

func TestLoadPresetRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"missing company": "cover:\n  project_name: 项目\n",
		"bad status":      "cover:\n  company_name: 公司\n  project_name: 项目\nrevision_history:\n  - version: V1.0\n    status: X\n",
		"bad date":        "cover:\n  company_name: 公司\n  project_name: 项目\n  draft_date: soon\n",
		"not yaml":        "cover: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := LoadPreset(path)
			assert.True(t, common.IsInvalidInput(err), err)
		})
	}

	_, err := LoadPreset(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}
