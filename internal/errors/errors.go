package errors

import (
	"fmt"
)

// GladysError is the structured error type for Gladys.
// It provides rich context for error handling, logging, and user presentation.
type GladysError struct {
	// Code is the unique error code (e.g., "ERR_210_STORE_FAILURE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *GladysError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GladysError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with GladysError.
func (e *GladysError) Is(target error) bool {
	if t, ok := target.(*GladysError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *GladysError) WithDetail(key, value string) *GladysError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *GladysError) WithSuggestion(suggestion string) *GladysError {
	e.Suggestion = suggestion
	return e
}

// New creates a new GladysError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *GladysError {
	return &GladysError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a GladysError from an existing error.
// The error's message becomes the GladysError message.
func Wrap(code string, err error) *GladysError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ExtractionError marks a file whose text could not be extracted.
// The scan skips the file and retries it on the next cycle.
func ExtractionError(path string, cause error) *GladysError {
	return New(ErrCodeExtractionFailed, fmt.Sprintf("could not extract text from %s", path), cause).
		WithDetail("path", path)
}

// StoreError marks a record store operation that failed.
// In-memory state is unchanged; the caller may retry.
func StoreError(message string, cause error) *GladysError {
	return New(ErrCodeStoreFailure, message, cause)
}

// EmbeddingError marks an embedding provider failure for one chunk.
func EmbeddingError(message string, cause error) *GladysError {
	return New(ErrCodeEmbeddingFailed, message, cause)
}

// ConsistencyError marks a parallel-array mismatch between the vector
// index and its chunk-identity list.
func ConsistencyError(message string) *GladysError {
	return New(ErrCodeConsistencyViolation, message, nil)
}

// RebuildError marks a rebuild failure that exhausted the recovery cascade.
func RebuildError(message string, cause error) *GladysError {
	return New(ErrCodeRebuildFailed, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *GladysError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// NetworkError creates a network-related error.
// Network errors are typically retryable.
func NetworkError(message string, cause error) *GladysError {
	return New(ErrCodeNetworkTimeout, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *GladysError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *GladysError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a GladysError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if ge, ok := err.(*GladysError); ok {
		return ge.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if ge, ok := err.(*GladysError); ok {
		return ge.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a GladysError.
// Returns empty string if not a GladysError.
func GetCode(err error) string {
	if ge, ok := err.(*GladysError); ok {
		return ge.Code
	}
	return ""
}

// GetCategory extracts the category from a GladysError.
// Returns empty string if not a GladysError.
func GetCategory(err error) Category {
	if ge, ok := err.(*GladysError); ok {
		return ge.Category
	}
	return ""
}
