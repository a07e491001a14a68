package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError describes one rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes shared by handlers and the problem type mapping.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidDataset   = "INVALID_DATASET"
	CodeDatasetNotFound  = "DATASET_NOT_FOUND"
	CodeNotFound         = "NOT_FOUND"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodeViewFailed       = "VIEW_FAILED"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
)

// Predefined error types for common scenarios
var (
	ErrNotFound          = New(http.StatusNotFound, CodeNotFound, "The requested resource was not found")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errs},
	)
}

// DatasetNotFound reports an unknown or expired dataset id
func DatasetNotFound(id string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeDatasetNotFound,
		fmt.Sprintf("dataset %s not found", id), map[string]string{"dataset_id": id})
}

// InvalidDataset carries the single user-facing rejection message of an upload
func InvalidDataset(message string) *APIError {
	return New(http.StatusUnprocessableEntity, CodeInvalidDataset, message)
}

// ViewFailed reports a view that could not be computed for the given input.
// It stays local to that view.
func ViewFailed(view string, err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, CodeViewFailed,
		err.Error(), map[string]string{"view": view})
}
