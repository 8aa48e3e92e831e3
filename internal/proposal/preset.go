package proposal

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/doccollate/internal/common"
)

const (
	defaultDocumentVersion = "V1.0"
	revisionRows           = 4
	signoffRows            = 4
)

// Cover is the proposal cover page.
type Cover struct {
	CompanyName     string `json:"company_name" yaml:"company_name"`
	ProjectName     string `json:"project_name" yaml:"project_name"`
	ProjectID       string `json:"project_id" yaml:"project_id"`
	DocumentTitle   string `json:"document_title" yaml:"document_title"`
	DocumentVersion string `json:"document_version" yaml:"document_version"`
	DraftedBy       string `json:"drafted_by" yaml:"drafted_by"`
	DraftDate       string `json:"draft_date" yaml:"draft_date"`
	ApprovedBy      string `json:"approved_by" yaml:"approved_by"`
	ApprovalDate    string `json:"approval_date" yaml:"approval_date"`
}

type Revision struct {
	Version string `json:"version" yaml:"version"`
	Date    string `json:"date" yaml:"date"`
	// Status is A(dded), M(odified), D(eleted) or C(reated).
	Status  string `json:"status" yaml:"status"`
	Author  string `json:"author" yaml:"author"`
	Summary string `json:"summary" yaml:"summary"`
}

type Signoff struct {
	Role    string `json:"role" yaml:"role"`
	Name    string `json:"name" yaml:"name"`
	Date    string `json:"date" yaml:"date"`
	Comment string `json:"comment" yaml:"comment"`
}

// Schedule bounds the milestone dates.
type Schedule struct {
	StartDate string `json:"start_date" yaml:"start_date"`
	EndDate   string `json:"end_date" yaml:"end_date"`
}

// Inputs are the manually supplied parts of a proposal. They are sent to the
// completion service verbatim and mapped onto the cover placeholders.
type Inputs struct {
	Cover           Cover      `json:"cover" yaml:"cover"`
	RevisionHistory []Revision `json:"revision_history" yaml:"revision_history"`
	SignoffRecords  []Signoff  `json:"signoff_records" yaml:"signoff_records"`
	Schedule        Schedule   `json:"schedule" yaml:"schedule"`
}

// NewInputs builds default inputs for a project. The document title uses
// englishName, or projectName when no English name is known.
func NewInputs(companyName, projectName, englishName string) *Inputs {
	in := &Inputs{Cover: Cover{
		CompanyName: strings.TrimSpace(companyName),
		ProjectName: strings.TrimSpace(projectName),
	}}
	in.Cover.DocumentTitle = documentTitle(englishName, in.Cover.ProjectName)
	in.applyDefaults()
	return in
}

// LoadPreset reads inputs from a YAML file and fills the defaults.
func LoadPreset(path string) (*Inputs, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset %s: %w", path, err)
	}
	var in Inputs
	if err := yaml.Unmarshal(b, &in); err != nil {
		return nil, common.NewAppError("INVALID_INPUT", fmt.Sprintf("parse preset %s", path), fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	in.applyDefaults()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &in, nil
}

func (in *Inputs) applyDefaults() {
	if in.Cover.DocumentVersion == "" {
		in.Cover.DocumentVersion = defaultDocumentVersion
	}
	if in.Cover.DocumentTitle == "" && in.Cover.ProjectName != "" {
		in.Cover.DocumentTitle = documentTitle("", in.Cover.ProjectName)
	}
	if len(in.RevisionHistory) == 0 {
		in.RevisionHistory = []Revision{{Version: defaultDocumentVersion, Status: "C"}}
	}
	if len(in.SignoffRecords) == 0 {
		in.SignoffRecords = make([]Signoff, signoffRows)
	}
}

// Validate checks the fields a proposal cannot do without.
func (in *Inputs) Validate() error {
	v := common.NewValidator().
		Field("cover.company_name", in.Cover.CompanyName, common.Required, common.MaxLength(200)).
		Field("cover.project_name", in.Cover.ProjectName, common.Required, common.MaxLength(200)).
		Field("cover.draft_date", in.Cover.DraftDate, common.DateString).
		Field("cover.approval_date", in.Cover.ApprovalDate, common.DateString).
		Field("schedule.start_date", in.Schedule.StartDate, common.DateString).
		Field("schedule.end_date", in.Schedule.EndDate, common.DateString)
	for i, r := range in.RevisionHistory {
		v.Field(fmt.Sprintf("revision_history[%d].status", i), r.Status, common.OneOf("A", "M", "D", "C")).
			Field(fmt.Sprintf("revision_history[%d].date", i), r.Date, common.DateString)
	}
	if len(in.RevisionHistory) > revisionRows {
		v.Field("revision_history", "", func(name string, _ any) *common.ValidationError {
			return &common.ValidationError{Field: name, Value: len(in.RevisionHistory), Message: fmt.Sprintf("must have at most %d rows", revisionRows)}
		})
	}
	return common.ValidateAndReturnError(v)
}

func documentTitle(englishName, projectName string) string {
	name := strings.TrimSpace(englishName)
	if name == "" {
		name = projectName
	}
	return strings.TrimSpace(name + " Project Proposal")
}

// Clone returns a copy that shares nothing with in.
func (in *Inputs) Clone() *Inputs {
	out := *in
	out.RevisionHistory = slices.Clone(in.RevisionHistory)
	out.SignoffRecords = slices.Clone(in.SignoffRecords)
	return &out
}
