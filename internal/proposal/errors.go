package proposal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/doccollate/internal/common"
)

// ViolationError carries the schema errors of a proposal that could not be
// accepted. Stage is "initial" in strict mode and "final" after auto-fix.
type ViolationError struct {
	Stage  string
	Errors []string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s: proposal %s validation: %s", common.CodeSchema, e.Stage, strings.Join(e.Errors, "; "))
}

func (e *ViolationError) Unwrap() error {
	return common.ErrSchemaViolation
}

// Violations returns the schema errors carried by err, if any.
func Violations(err error) ([]string, bool) {
	var ve *ViolationError
	if errors.As(err, &ve) {
		return ve.Errors, true
	}
	return nil, false
}
