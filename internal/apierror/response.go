package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/restock/backend/internal/logger"
	"github.com/JonnyWalker81/restock/backend/internal/models"
	"github.com/JonnyWalker81/restock/backend/internal/service"
)

// ContentTypeProblemJSON is the MIME type for RFC 9457 Problem Details.
const ContentTypeProblemJSON = "application/problem+json"

// RequestIDKey is the gin context key the request id middleware stores under.
const RequestIDKey = "request_id"

// WriteProblem writes a ProblemDetails response to the gin context.
// It sets the correct Content-Type header and, if RetryAfter is set,
// also sets the Retry-After header.
func WriteProblem(c *gin.Context, problem *ProblemDetails) {
	c.Header("Content-Type", ContentTypeProblemJSON)

	if problem.RetryAfter != nil {
		c.Header("Retry-After", strconv.Itoa(*problem.RetryAfter))
	}

	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}

	c.AbortWithStatusJSON(problem.Status, problem)
}

// GetRequestID extracts the request ID from the gin context.
// Returns empty string if not found.
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return c.GetHeader("X-Request-ID")
}

// FromError maps a service error onto a problem response and writes it.
// Errors that match no domain sentinel are logged and answered with a
// generic 500.
func FromError(c *gin.Context, err error) {
	requestID := GetRequestID(c)

	var (
		notFound *service.NotFoundError
		invalid  *service.InvalidInputError
		conflict *service.StorageConflictError
	)
	switch {
	case errors.As(err, &invalid):
		if len(invalid.Fields) == 0 {
			WriteProblem(c, NewBadRequestError(requestID, invalid.Error(), "The request could not be processed"))
			return
		}
		WriteProblem(c, NewValidationError(requestID, FieldErrors(invalid.Fields)))
	case errors.As(err, &notFound):
		WriteProblem(c, NewNotFoundError(requestID, notFound.Resource, notFound.Key.String()))
	case errors.As(err, &conflict):
		WriteProblem(c, NewConflictError(requestID, conflict.Error(), conflict.RetryAfter))
	case errors.Is(err, service.ErrNotFound):
		WriteProblem(c, NewNotFoundError(requestID, "resource", c.Request.URL.Path))
	case errors.Is(err, service.ErrInvalidInput):
		WriteProblem(c, NewBadRequestError(requestID, err.Error(), "The request could not be processed"))
	case errors.Is(err, service.ErrStorageConflict):
		WriteProblem(c, NewConflictError(requestID, err.Error(), 0))
	default:
		logger.Ctx(c.Request.Context()).Error("request failed",
			logger.Err(err),
			logger.String("path", c.Request.URL.Path),
		)
		WriteProblem(c, NewInternalError(requestID))
	}
}

// FieldErrors converts model violations into problem field errors.
func FieldErrors(violations []models.FieldViolation) []FieldError {
	out := make([]FieldError, 0, len(violations))
	for _, v := range violations {
		out = append(out, FieldError{Field: v.Field, Message: v.Message, Code: v.Code})
	}
	return out
}

// NewValidationError creates a 400 Bad Request response for validation failures.
// Multiple field errors can be included to report all validation issues at once.
func NewValidationError(requestID string, errors []FieldError) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeValidation,
		Title:       TitleValidation,
		Status:      http.StatusBadRequest,
		Detail:      "One or more fields failed validation",
		RequestID:   requestID,
		UserMessage: "Please check your input and try again",
		Errors:      errors,
	}
}

// NewNotFoundError creates a 404 Not Found response.
func NewNotFoundError(requestID, resource, key string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeNotFound,
		Title:       TitleNotFound,
		Status:      http.StatusNotFound,
		Detail:      fmt.Sprintf("%s for '%s' was not found", resource, key),
		RequestID:   requestID,
		UserMessage: fmt.Sprintf("The requested %s could not be found", resource),
	}
}

// NewConflictError creates a 409 Conflict response for an analytics write
// that lost to a concurrent one. retryAfter is rounded up to whole seconds;
// zero leaves the hint out.
func NewConflictError(requestID, detail string, retryAfter time.Duration) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeConflict,
		Title:       TitleConflict,
		Status:      http.StatusConflict,
		Detail:      detail,
		RequestID:   requestID,
		UserMessage: "This product is being updated. Please try again.",
		RetryAfter:  retryAfterSeconds(retryAfter),
	}
}

// NewRateLimitError creates a 429 Too Many Requests response.
// retryAfter specifies seconds until the client should retry.
func NewRateLimitError(requestID string, retryAfter int) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeRateLimit,
		Title:       TitleRateLimit,
		Status:      http.StatusTooManyRequests,
		Detail:      fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds", retryAfter),
		RequestID:   requestID,
		UserMessage: "Too many requests. Please wait before trying again.",
		RetryAfter:  &retryAfter,
	}
}

// NewInternalError creates a 500 Internal Server Error response.
// IMPORTANT: This intentionally hides internal error details from the client.
// The actual error should be logged server-side for debugging.
func NewInternalError(requestID string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeInternal,
		Title:       TitleInternal,
		Status:      http.StatusInternalServerError,
		Detail:      "An unexpected error occurred",
		RequestID:   requestID,
		UserMessage: "Something went wrong. Please try again later.",
	}
}

// NewBadRequestError creates a 400 Bad Request response for malformed requests.
func NewBadRequestError(requestID, detail, userMessage string) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeBadRequest,
		Title:       TitleBadRequest,
		Status:      http.StatusBadRequest,
		Detail:      detail,
		RequestID:   requestID,
		UserMessage: userMessage,
	}
}

// NewServiceUnavailableError creates a 503 Service Unavailable response.
// retryAfter specifies seconds until the client should retry.
func NewServiceUnavailableError(requestID string, retryAfter int) *ProblemDetails {
	return &ProblemDetails{
		Type:        TypeUnavailable,
		Title:       TitleUnavailable,
		Status:      http.StatusServiceUnavailable,
		Detail:      "The service is temporarily unavailable",
		RequestID:   requestID,
		UserMessage: "Service is temporarily unavailable. Please try again later.",
		RetryAfter:  &retryAfter,
	}
}
