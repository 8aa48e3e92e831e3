package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doccollate/constants"
)

// Run is one document processed for one target, for data transfer between
// the pipeline, the store and the report.
type Run struct {
	ID           uuid.UUID           `json:"id"`
	Path         string              `json:"path"`
	Target       string              `json:"target"`
	ContentHash  string              `json:"content_hash,omitempty"`
	SourceType   string              `json:"source_type,omitempty"`
	Status       constants.RunStatus `json:"status"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	FieldCount   int                 `json:"field_count"`
	ResultJSON   json.RawMessage     `json:"result_json,omitempty"`
}

// Elapsed is zero while the run is still open.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
