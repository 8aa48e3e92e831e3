// Package proposal generates, validates and repairs the structured content of
// a project proposal.
package proposal

import (
	"fmt"
	"strings"
)

// PlaceholderFields are the text placeholders a proposal must fill, in
// document order.
var PlaceholderFields = []string{
	"{{ purpose }}",
	"{{ scope }}",
	"{{ references }}",
	"{{ project_source }}",
	"{{ project_scope_objectives }}",
	"{{ potential_customers }}",
	"{{ product_features }}",
	"{{ product_goals }}",
	"{{ architecture }}",
	"{{ technical_feasibility }}",
	"{{ market_feasibility }}",
	"{{ ip_analysis }}",
	"{{ conclusion }}",
}

const FeaturesPlaceholder = "{{ product_features }}"

// TableSpec describes one proposal table: its exact row keys and row count
// bounds. Exact tables must have exactly MinRows rows.
type TableSpec struct {
	Name    string
	Keys    []string
	MinRows int
	Exact   bool
}

const (
	TableTerms      = "terms"
	TableResources  = "resources"
	TableCosts      = "costs"
	TableMilestones = "milestones"
)

// TableSpecs lists the four tables in document order.
var TableSpecs = []TableSpec{
	{Name: TableTerms, Keys: []string{"term", "definition"}, MinRows: 4},
	{Name: TableResources, Keys: []string{"name", "level", "spec", "source", "cost"}, MinRows: 2},
	{Name: TableCosts, Keys: []string{"item", "amount", "note"}, MinRows: 6},
	{Name: TableMilestones, Keys: []string{"phase", "tasks", "start_date", "end_date", "deliverables"}, MinRows: 5, Exact: true},
}

// TableSpecFor returns the spec of the named table.
func TableSpecFor(name string) (TableSpec, bool) {
	for _, ts := range TableSpecs {
		if ts.Name == name {
			return ts, true
		}
	}
	return TableSpec{}, false
}

// Row is one table row keyed by column name.
type Row map[string]string

// Tables holds the four proposal tables.
type Tables struct {
	Terms      []Row `json:"terms"`
	Resources  []Row `json:"resources"`
	Costs      []Row `json:"costs"`
	Milestones []Row `json:"milestones"`
}

// Get returns the rows of the named table.
func (t *Tables) Get(name string) []Row {
	switch name {
	case TableTerms:
		return t.Terms
	case TableResources:
		return t.Resources
	case TableCosts:
		return t.Costs
	case TableMilestones:
		return t.Milestones
	}
	return nil
}

// Set replaces the rows of the named table.
func (t *Tables) Set(name string, rows []Row) {
	switch name {
	case TableTerms:
		t.Terms = rows
	case TableResources:
		t.Resources = rows
	case TableCosts:
		t.Costs = rows
	case TableMilestones:
		t.Milestones = rows
	}
}

// EvidenceRef names the chunks a placeholder was written from.
type EvidenceRef struct {
	Field  string   `json:"field"`
	Chunks []string `json:"chunks"`
}

// Document is a repaired, schema-shaped proposal.
type Document struct {
	Placeholders map[string]string `json:"placeholders"`
	Tables       Tables            `json:"tables"`
	Evidence     []EvidenceRef     `json:"evidence,omitempty"`
}

// Placeholder returns the value of a placeholder given with or without its
// braces.
func (d *Document) Placeholder(name string) string {
	if !strings.HasPrefix(name, "{{") {
		name = "{{ " + name + " }}"
	}
	return d.Placeholders[name]
}

// stringOf renders a decoded JSON scalar as text. nil is "".
func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprint(x)
	default:
		return fmt.Sprint(x)
	}
}

// rowsOf normalizes raw JSON rows to the exact key set. Non-object items are
// dropped.
func rowsOf(raw any, keys []string) []Row {
	items, _ := raw.([]any)
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		row := make(Row, len(keys))
		for _, k := range keys {
			row[k] = stringOf(m[k])
		}
		rows = append(rows, row)
	}
	return rows
}

func emptyRow(keys []string) Row {
	row := make(Row, len(keys))
	for _, k := range keys {
		row[k] = ""
	}
	return row
}

// padRows appends empty rows until rows has n entries.
func padRows(rows []Row, keys []string, n int) []Row {
	for len(rows) < n {
		rows = append(rows, emptyRow(keys))
	}
	return rows
}
