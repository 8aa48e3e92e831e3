package proposal

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/doccollate/internal/normalize"
)

const milestoneRows = 5

// FormatDateRange renders "start ~ end（N天）" with both ends as YYYY-MM-DD
// and N counted inclusively. Unparseable ends are kept as given and the day
// count is dropped.
func FormatDateRange(start, end string) string {
	s, e := strings.TrimSpace(start), strings.TrimSpace(end)
	if s == "" && e == "" {
		return ""
	}
	ds, okS := normalize.ParseDate(s)
	de, okE := normalize.ParseDate(e)
	if okS {
		s = ds.Format("2006-01-02")
	}
	if okE {
		e = de.Format("2006-01-02")
	}
	if okS && okE {
		if days := int(de.Sub(ds).Hours()/24) + 1; days >= 1 {
			return fmt.Sprintf("%s ~ %s（%d天）", s, e, days)
		}
	}
	if s != "" && e != "" {
		return s + " ~ " + e
	}
	if s != "" {
		return s
	}
	return e
}

func placeholderKey(name string) string {
	return "{{ " + name + " }}"
}

// PlaceholderMap flattens the inputs and a generated proposal into the
// "{{ key }}" → text map a document template is filled from.
func PlaceholderMap(in *Inputs, doc *Document) map[string]string {
	m := map[string]string{}
	if in != nil {
		c := in.Cover
		for k, v := range map[string]string{
			"company_name":     c.CompanyName,
			"project_name":     c.ProjectName,
			"project_id":       c.ProjectID,
			"document_title":   c.DocumentTitle,
			"document_version": c.DocumentVersion,
			"drafted_by":       c.DraftedBy,
			"draft_date":       c.DraftDate,
			"approved_by":      c.ApprovedBy,
			"approval_date":    c.ApprovalDate,
		} {
			m[placeholderKey(k)] = v
		}
	}

	for i := 0; i < revisionRows; i++ {
		var r Revision
		if in != nil && i < len(in.RevisionHistory) {
			r = in.RevisionHistory[i]
		}
		p := fmt.Sprintf("revision_%02d_", i+1)
		m[placeholderKey(p+"version")] = r.Version
		m[placeholderKey(p+"date")] = r.Date
		m[placeholderKey(p+"status")] = r.Status
		m[placeholderKey(p+"author")] = r.Author
		m[placeholderKey(p+"summary")] = r.Summary
	}

	for i := 0; i < signoffRows; i++ {
		var s Signoff
		if in != nil && i < len(in.SignoffRecords) {
			s = in.SignoffRecords[i]
		}
		p := fmt.Sprintf("signoff_%02d_", i+1)
		m[placeholderKey(p+"role")] = s.Role
		m[placeholderKey(p+"name")] = s.Name
		m[placeholderKey(p+"date")] = s.Date
		m[placeholderKey(p+"comment")] = s.Comment
	}

	if doc == nil {
		return m
	}
	for k, v := range doc.Placeholders {
		m[k] = v
	}
	for i := 0; i < milestoneRows; i++ {
		row := Row{}
		if i < len(doc.Tables.Milestones) {
			row = doc.Tables.Milestones[i]
		}
		p := fmt.Sprintf("milestone_%02d_", i+1)
		m[placeholderKey(p+"phase")] = row["phase"]
		m[placeholderKey(p+"tasks")] = row["tasks"]
		m[placeholderKey(p+"time")] = FormatDateRange(row["start_date"], row["end_date"])
		m[placeholderKey(p+"start_date")] = row["start_date"]
		m[placeholderKey(p+"end_date")] = row["end_date"]
		m[placeholderKey(p+"deliverables")] = row["deliverables"]
	}
	return m
}
