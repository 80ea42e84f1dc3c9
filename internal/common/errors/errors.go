// Package errors provides standardized error handling for the resolution engine.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Search-store failures. Per-term failures are retryable and degrade to
	// empty results at the search boundary.
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeStoreUnavailable  ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeUnknownCollection ErrorCode = "UNKNOWN_COLLECTION"

	// Resolution pipeline.
	ErrCodeResolutionFailed ErrorCode = "RESOLUTION_FAILED"
	ErrCodeInvalidQuery     ErrorCode = "INVALID_QUERY"

	// Cache.
	ErrCodeCacheReadFailed  ErrorCode = "CACHE_READ_FAILED"
	ErrCodeCacheWriteFailed ErrorCode = "CACHE_WRITE_FAILED"

	// Smart defaults. Never fatal: each sub-contract falls back to its
	// stated default.
	ErrCodeDefaultsLookupFailed ErrorCode = "DEFAULTS_LOOKUP_FAILED"
	ErrCodeCustomerNotFound     ErrorCode = "CUSTOMER_NOT_FOUND"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewSearchQueryError creates a retryable search failure for one
// (collection, term) pair.
func NewSearchQueryError(collection, term string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   fmt.Sprintf("search failed for collection %s", collection),
		Details:   cause.Error(),
		Retryable: true,
		Metadata: map[string]interface{}{
			"collection": collection,
			"term":       term,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable timeout error.
func NewSearchTimeoutError(collection string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   fmt.Sprintf("search timed out for collection %s", collection),
		Retryable: true,
		Metadata:  map[string]interface{}{"collection": collection},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownCollectionError creates a non-retryable error for a collection
// name the store does not recognize.
func NewUnknownCollectionError(collection string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownCollection,
		Message:   fmt.Sprintf("unknown collection %q", collection),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResolutionFailedError wraps an unexpected pipeline failure. The engine
// boundary converts this into the degraded empty context.
func NewResolutionFailedError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResolutionFailed,
		Message:   "context resolution failed",
		Details:   cause.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidQueryError creates a non-retryable validation error.
func NewInvalidQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQuery,
		Message:   "invalid context query",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheError creates a retryable cache failure. Cache failures never
// abort a resolution; they only cost the memoization.
func NewCacheError(op string, cause error) *StandardError {
	code := ErrCodeCacheReadFailed
	if op == "write" {
		code = ErrCodeCacheWriteFailed
	}
	return &StandardError{
		Code:      code,
		Message:   fmt.Sprintf("cache %s failed", op),
		Details:   cause.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDefaultsLookupError creates the swallowed-by-design defaults failure.
func NewDefaultsLookupError(what string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDefaultsLookupFailed,
		Message:   fmt.Sprintf("defaults lookup failed: %s", what),
		Details:   cause.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCustomerNotFoundError is returned when an invoice options bundle is
// requested for an id that resolves to nothing.
func NewCustomerNotFoundError(customerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCustomerNotFound,
		Message:   "customer not found",
		Retryable: false,
		Metadata:  map[string]interface{}{"customerId": customerID},
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable reports whether err carries a retryable StandardError.
func IsRetryable(err error) bool {
	if se, ok := err.(*StandardError); ok {
		return se.Retryable
	}
	return false
}

// CodeOf extracts the error code, or empty for foreign errors.
func CodeOf(err error) ErrorCode {
	if se, ok := err.(*StandardError); ok {
		return se.Code
	}
	return ""
}
