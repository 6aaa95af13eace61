package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"priorfit/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of an
// AppError cause and classifying domain errors otherwise
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    codeOf(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code of an AppError or a classified domain error,
// otherwise "UNKNOWN"
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	if code := classify(err); code != "" {
		return code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodePrecondition       = "PRECONDITION_FAILED"
	CodeUnknownFamily      = "UNKNOWN_FAMILY"
	CodeMissingCapability  = "MISSING_CAPABILITY"
	CodeOptimizationFailed = "OPTIMIZATION_FAILED"
)

// classify maps domain sentinels to codes
func classify(err error) string {
	switch {
	case stderrors.Is(err, core.ErrUnknownFamily):
		return CodeUnknownFamily
	case stderrors.Is(err, core.ErrPrecondition):
		return CodePrecondition
	case stderrors.Is(err, core.ErrMissingCapability):
		return CodeMissingCapability
	case stderrors.Is(err, core.ErrOptimizationFailed):
		return CodeOptimizationFailed
	case stderrors.Is(err, core.ErrCalibrationNotFound):
		return CodeNotFound
	}
	return ""
}

func codeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	if code := classify(err); code != "" {
		return code
	}
	return CodeInternalError
}

// HTTPStatus maps an error to the status code handlers should answer with
func HTTPStatus(err error) int {
	switch codeOf(err) {
	case CodePrecondition, CodeUnknownFamily, CodeInvalidInput, CodeValidationError:
		return http.StatusBadRequest
	case CodeMissingCapability, CodeOptimizationFailed:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeDatabaseError,
		Message: message,
		Cause:   cause,
	}
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
