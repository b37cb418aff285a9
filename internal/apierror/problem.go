// Package apierror renders restock API failures as RFC 9457 problem details
// (application/problem+json) and maps service errors onto them.
package apierror

import (
	"math"
	"time"
)

// ProblemDetails is the body of every non-2xx restock response.
// See https://www.rfc-editor.org/rfc/rfc9457.html
type ProblemDetails struct {
	Type     string `json:"type"`               // urn:restock:error:* identifier, see codes.go
	Title    string `json:"title"`              // Fixed title per Type
	Status   int    `json:"status"`             // Mirrors the HTTP status
	Detail   string `json:"detail,omitempty"`   // e.g. which (user, product) key was missing
	Instance string `json:"instance,omitempty"` // Request path, filled by WriteProblem

	RequestID   string       `json:"request_id,omitempty"`   // Same value as the X-Request-ID response header
	UserMessage string       `json:"user_message,omitempty"` // Copy a shopping-list client can show as is
	RetryAfter  *int         `json:"retry_after,omitempty"`  // Seconds; set on analytics conflicts, 429 and 503
	Errors      []FieldError `json:"errors,omitempty"`       // One entry per rejected purchase or query field
}

// FieldError names one rejected input by its JSON or query parameter name,
// such as "product_name", "purchased_at" or "threshold".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"` // e.g. "required", "duplicate", "invalid_range"
}

func (p *ProblemDetails) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

// retryAfterSeconds rounds d up to whole seconds for the Retry-After header.
// It returns nil when d carries no hint.
func retryAfterSeconds(d time.Duration) *int {
	if d <= 0 {
		return nil
	}
	secs := int(math.Ceil(d.Seconds()))
	return &secs
}
