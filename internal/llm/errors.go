package llm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/joseph-ayodele/doccollate/internal/common"
)

// TransientError is a completion failure that may succeed on retry
// (network errors, 429, 5xx).
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }
func (e *TransientError) Unwrap() error { return e.err }

func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError is a completion failure that will not improve on retry.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }
func (e *FatalError) Unwrap() error { return e.err }

func NewFatalError(err error) error {
	return &FatalError{err: err}
}

func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// StatusError classifies a non-2xx response. Every returned error matches
// common.ErrServiceCall.
func StatusError(status int, body []byte) error {
	err := common.NewAppError(common.CodeServiceCall,
		fmt.Sprintf("status %d: %s", status, truncate(string(body), 300)), common.ErrServiceCall)
	if status == http.StatusTooManyRequests || status >= 500 {
		return NewTransientError(err)
	}
	return NewFatalError(err)
}

// TransportError wraps a failed round trip as transient.
func TransportError(err error) error {
	return NewTransientError(common.NewAppError(common.CodeServiceCall, "transport", fmt.Errorf("%w: %v", common.ErrServiceCall, err)))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
