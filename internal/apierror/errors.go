package apierror

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/services/catalog-service-go/internal/export"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

var (
	ErrNotFound       = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

func InvalidParameter(name string, err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_PARAMETER", "Invalid parameter "+name, err.Error())
}

// FromError maps domain errors to API errors. Anything unrecognised is a 500
// and its message is not exposed.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, catalog.ErrNotFound) {
		return ErrNotFound
	}

	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", verr.Fields)
	}

	// stored data the exporter cannot represent
	var perr *export.ProductError
	if errors.As(err, &perr) {
		return NewWithDetails(http.StatusUnprocessableEntity, "EXPORT_FAILED", "Catalog could not be exported", perr.Error())
	}

	return ErrInternalServer
}

// Write renders err as JSON with its status code.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	_ = render.Render(w, r, FromError(err))
}
