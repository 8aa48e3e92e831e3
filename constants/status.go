package constants

// RunStatus is the canonical status for rows in extraction_run.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning RunStatus = "RUNNING" // in progress
	RunStatusTextOK  RunStatus = "TEXT_OK" // document text read
	RunStatusOK      RunStatus = "OK"      // fields extracted and normalized
	RunStatusFailed  RunStatus = "FAILED"  // terminal failure
)

// Terminal reports whether no further transition is allowed from s.
func (s RunStatus) Terminal() bool {
	return s == RunStatusOK || s == RunStatusFailed
}
