package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/restock/backend/internal/models"
	"github.com/JonnyWalker81/restock/backend/internal/service"
)

func init() {
	// Set gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

func newTestContext(path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, path, nil)
	return c, w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal response body: %v", err)
	}
	return result
}

func TestProblemDetailsJSON(t *testing.T) {
	retryAfter := 1
	problem := &ProblemDetails{
		Type:        TypeValidation,
		Title:       TitleValidation,
		Status:      http.StatusBadRequest,
		Detail:      "Field validation failed",
		Instance:    "/api/v1/users/u1/purchases",
		RequestID:   "req-abc123",
		UserMessage: "Please fix the errors",
		RetryAfter:  &retryAfter,
		Errors: []FieldError{
			{Field: "product_name", Message: "is required", Code: "required"},
			{Field: "price", Message: "must be at least 0", Code: "gte"},
		},
	}

	data, err := json.Marshal(problem)
	if err != nil {
		t.Fatalf("Failed to marshal ProblemDetails: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	// Check standard RFC 9457 fields
	if result["type"] != TypeValidation {
		t.Errorf("Expected type=%q, got %q", TypeValidation, result["type"])
	}
	if result["status"] != float64(http.StatusBadRequest) {
		t.Errorf("Expected status=%d, got %v", http.StatusBadRequest, result["status"])
	}
	if result["instance"] != "/api/v1/users/u1/purchases" {
		t.Errorf("Expected instance, got %q", result["instance"])
	}

	// Check extension fields
	if result["request_id"] != "req-abc123" {
		t.Errorf("Expected request_id=%q, got %q", "req-abc123", result["request_id"])
	}
	if result["retry_after"] != float64(1) {
		t.Errorf("Expected retry_after=1, got %v", result["retry_after"])
	}

	fieldErrors, ok := result["errors"].([]interface{})
	if !ok || len(fieldErrors) != 2 {
		t.Errorf("Expected 2 errors, got %v", result["errors"])
	}
}

func TestProblemDetailsJSONOmitsEmpty(t *testing.T) {
	problem := &ProblemDetails{
		Type:   TypeInternal,
		Title:  TitleInternal,
		Status: http.StatusInternalServerError,
	}

	data, err := json.Marshal(problem)
	if err != nil {
		t.Fatalf("Failed to marshal ProblemDetails: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	omittedFields := []string{"detail", "instance", "request_id", "user_message", "retry_after", "errors"}
	for _, field := range omittedFields {
		if _, exists := result[field]; exists {
			t.Errorf("Expected field %q to be omitted when empty, but it was present", field)
		}
	}
}

func TestWriteProblemContentType(t *testing.T) {
	c, w := newTestContext("/health")

	WriteProblem(c, NewInternalError("req-123"))

	if ct := w.Header().Get("Content-Type"); ct != ContentTypeProblemJSON {
		t.Errorf("Expected Content-Type=%q, got %q", ContentTypeProblemJSON, ct)
	}
	if w.Header().Get("Retry-After") != "" {
		t.Errorf("Expected no Retry-After header, got %q", w.Header().Get("Retry-After"))
	}
	if !c.IsAborted() {
		t.Error("Expected the context to be aborted")
	}
	if got := decodeProblem(t, w)["instance"]; got != "/health" {
		t.Errorf("Expected instance=/health, got %v", got)
	}
}

func TestWriteProblemRetryAfter(t *testing.T) {
	c, w := newTestContext("/health")

	WriteProblem(c, NewServiceUnavailableError("req-456", 30))

	if got := w.Header().Get("Retry-After"); got != "30" {
		t.Errorf("Expected Retry-After header=%q, got %q", "30", got)
	}
	if got := decodeProblem(t, w)["retry_after"]; got != float64(30) {
		t.Errorf("Expected retry_after in body=30, got %v", got)
	}
}

func TestNewConflictErrorRoundsRetryAfterUp(t *testing.T) {
	tests := []struct {
		retryAfter time.Duration
		want       *int
	}{
		{retryAfter: 0, want: nil},
		{retryAfter: -time.Second, want: nil},
		{retryAfter: 2 * time.Second, want: intPtr(2)},
		{retryAfter: 50 * time.Millisecond, want: intPtr(1)},
		{retryAfter: 1500 * time.Millisecond, want: intPtr(2)},
	}
	for _, tt := range tests {
		problem := NewConflictError("req", "conflict", tt.retryAfter)
		switch {
		case tt.want == nil && problem.RetryAfter != nil:
			t.Errorf("retryAfter=%v: expected no hint, got %d", tt.retryAfter, *problem.RetryAfter)
		case tt.want != nil && (problem.RetryAfter == nil || *problem.RetryAfter != *tt.want):
			t.Errorf("retryAfter=%v: expected %d, got %v", tt.retryAfter, *tt.want, problem.RetryAfter)
		}
	}
}

func TestProblemDetailsError(t *testing.T) {
	p := NewNotFoundError("req", "analytics", "u1/milk")
	if p.Error() != "analytics for 'u1/milk' was not found" {
		t.Errorf("Error() = %q", p.Error())
	}
	p.Detail = ""
	if p.Error() != TitleNotFound {
		t.Errorf("Error() = %q, want title fallback", p.Error())
	}
}

func TestNewInternalErrorHidesDetails(t *testing.T) {
	problem := NewInternalError("req-xyz")

	if problem.Detail != "An unexpected error occurred" {
		t.Errorf("Expected generic detail, got %q", problem.Detail)
	}
	if problem.UserMessage == "" {
		t.Error("Expected user_message to be set")
	}
}

func TestFromError(t *testing.T) {
	key := models.ProductKey{UserID: "u1", ProductName: "milk"}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantFields int
	}{
		{
			name:       "not found",
			err:        &service.NotFoundError{Resource: "product analytics", Key: key},
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name: "invalid input with fields",
			err: &service.InvalidInputError{Message: "invalid purchase", Fields: []models.FieldViolation{
				{Field: "price", Message: "must be at least 0", Code: "gte"},
				{Field: "purchased_at", Message: "in the future", Code: "future"},
			}},
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantFields: 2,
		},
		{
			name:       "invalid stored history",
			err:        &service.InvalidInputError{Message: "purchase history is not ordered"},
			wantStatus: http.StatusBadRequest,
			wantType:   TypeBadRequest,
		},
		{
			name:       "storage conflict",
			err:        fmt.Errorf("recompute: %w", &service.StorageConflictError{Key: key, RetryAfter: 50 * time.Millisecond}),
			wantStatus: http.StatusConflict,
			wantType:   TypeConflict,
		},
		{
			name:       "bare sentinel",
			err:        fmt.Errorf("lookup: %w", service.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "unexpected",
			err:        errors.New("pq: password authentication failed for user restock"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext("/api/v1/users/u1/products/milk")
			c.Set(RequestIDKey, "req-1")

			FromError(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status=%d, got %d", tt.wantStatus, w.Code)
			}
			result := decodeProblem(t, w)
			if result["type"] != tt.wantType {
				t.Errorf("Expected type=%q, got %v", tt.wantType, result["type"])
			}
			if result["request_id"] != "req-1" {
				t.Errorf("Expected request_id=req-1, got %v", result["request_id"])
			}
			if tt.wantFields > 0 {
				fieldErrors, _ := result["errors"].([]interface{})
				if len(fieldErrors) != tt.wantFields {
					t.Errorf("Expected %d field errors, got %v", tt.wantFields, result["errors"])
				}
			}
			if strings.Contains(w.Body.String(), "password") {
				t.Errorf("Response leaked internal error: %s", w.Body.String())
			}
		})
	}
}

func TestFromErrorConflictSetsHeader(t *testing.T) {
	c, w := newTestContext("/api/v1/users/u1/products/milk/recompute")

	FromError(c, &service.StorageConflictError{RetryAfter: 50 * time.Millisecond})

	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Expected Retry-After=1, got %q", got)
	}
}

func intPtr(v int) *int { return &v }
