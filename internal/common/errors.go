package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")

	// ErrRetrievalEmpty means no evidence could be assembled for a field or module.
	ErrRetrievalEmpty = errors.New("retrieval produced no evidence")
	// ErrServiceCall covers transport, status and parse failures of the completion service.
	ErrServiceCall = errors.New("completion service call failed")
	// ErrSchemaViolation is returned when a proposal still fails validation after auto-fix.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrConfiguration is a startup failure: cyclic dependencies, unknown targets, bad env.
	ErrConfiguration = errors.New("configuration error")
)

// Error codes used with NewAppError.
const (
	CodeConfig       = "CONFIG_ERROR"
	CodeRetrieval    = "RETRIEVAL_EMPTY"
	CodeServiceCall  = "SERVICE_CALL"
	CodeSchema       = "SCHEMA_VIOLATION"
	CodeDocumentRead = "DOCUMENT_READ"
	CodeStore        = "STORE_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewConfigError(format string, args ...any) *AppError {
	return NewAppError(CodeConfig, fmt.Sprintf(format, args...), ErrConfiguration)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsConfiguration reports whether err is a configuration failure.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
