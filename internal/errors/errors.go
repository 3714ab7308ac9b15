package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/vesting-console/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryNetwork represents requests that never reached the contacts API
	CategoryNetwork ErrorCategory = "network"
	// CategoryRequest represents non-2xx responses from the contacts API
	CategoryRequest ErrorCategory = "request"
	// CategoryValidation represents local input errors
	CategoryValidation ErrorCategory = "validation"
	// CategoryNotFound represents not found errors
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryConfig represents startup configuration errors
	CategoryConfig ErrorCategory = "config"
	// CategoryChain represents chain RPC read errors
	CategoryChain ErrorCategory = "chain"
	// CategorySystem represents unexpected errors (5xx)
	CategorySystem ErrorCategory = "system"
	// CategoryRateLimit represents rate limit errors
	CategoryRateLimit ErrorCategory = "rate_limit"
)

// NetworkError reports a request that never produced an HTTP response.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RequestError reports a non-2xx response from the contacts API.
type RequestError struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// ValidationError reports input rejected before any request is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewConfigError creates a configuration error. These are fatal at startup.
func NewConfigError(key, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryConfig,
		StatusCode: http.StatusInternalServerError,
		Code:       "INVALID_CONFIG",
		Message:    fmt.Sprintf("configuration %s: %s", key, reason),
		Details: map[string]interface{}{
			"key": key,
		},
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewChainError creates a chain read error
func NewChainError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryChain,
		StatusCode: http.StatusBadGateway,
		Code:       "CHAIN_ERROR",
		Message:    fmt.Sprintf("chain error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewServiceUnavailableError creates a service unavailable error
func NewServiceUnavailableError(service string) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusServiceUnavailable,
		Code:       "SERVICE_UNAVAILABLE",
		Message:    fmt.Sprintf("service unavailable: %s", service),
		Details: map[string]interface{}{
			"service": service,
		},
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError() *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "rate limit exceeded",
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr
	}

	var netErr *NetworkError
	if stderrors.As(err, &netErr) {
		return &CategorizedError{
			Category:   CategoryNetwork,
			StatusCode: http.StatusBadGateway,
			Code:       "CONTACTS_API_UNREACHABLE",
			Message:    "contacts API could not be reached",
			Cause:      netErr,
			Details: map[string]interface{}{
				"url": netErr.URL,
			},
		}
	}

	var reqErr *RequestError
	if stderrors.As(err, &reqErr) {
		return categorizeRequestError(reqErr)
	}

	var valErr *ValidationError
	if stderrors.As(err, &valErr) {
		details := map[string]interface{}{}
		if valErr.Field != "" {
			details["field"] = valErr.Field
		}
		return &CategorizedError{
			Category:   CategoryValidation,
			StatusCode: http.StatusBadRequest,
			Code:       "INVALID_INPUT",
			Message:    valErr.Error(),
			Details:    details,
		}
	}

	var svcErr *types.ServiceError
	if stderrors.As(err, &svcErr) {
		return &CategorizedError{
			Category:   CategorySystem,
			StatusCode: http.StatusInternalServerError,
			Code:       svcErr.Code,
			Message:    svcErr.Message,
			Details:    svcErr.Details,
		}
	}

	// Default to internal error
	return NewInternalError("unexpected error", err)
}

// categorizeRequestError keeps upstream 4xx statuses and reports upstream 5xx as a bad gateway
func categorizeRequestError(err *RequestError) *CategorizedError {
	details := map[string]interface{}{
		"upstreamStatus": err.Status,
	}

	switch {
	case err.Status == http.StatusNotFound:
		return &CategorizedError{
			Category:   CategoryNotFound,
			StatusCode: http.StatusNotFound,
			Code:       "NOT_FOUND",
			Message:    err.Message,
			Details:    details,
			Cause:      err,
		}
	case err.Status >= 400 && err.Status < 500:
		return &CategorizedError{
			Category:   CategoryRequest,
			StatusCode: err.Status,
			Code:       "CONTACTS_API_REJECTED",
			Message:    err.Message,
			Details:    details,
			Cause:      err,
		}
	default:
		return &CategorizedError{
			Category:   CategoryRequest,
			StatusCode: http.StatusBadGateway,
			Code:       "CONTACTS_API_ERROR",
			Message:    err.Message,
			Details:    details,
			Cause:      err,
		}
	}
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsNetwork reports whether err is a NetworkError
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return stderrors.As(err, &netErr)
}

// IsNotFound reports whether err means the requested record does not exist
func IsNotFound(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryNotFound
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}

// IsSystemError determines if an error is a system error (5xx)
func IsSystemError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	return catErr.StatusCode >= 500
}
