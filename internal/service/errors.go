package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/JonnyWalker81/restock/backend/internal/models"
)

// Sentinels for errors.Is. Every typed error below unwraps to one of them.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrStorageConflict = errors.New("storage conflict")
)

// NotFoundError reports a missing purchase history or snapshot.
type NotFoundError struct {
	Resource string
	Key      models.ProductKey
}

func (e *NotFoundError) Error() string {
	if e.Key.ProductName == "" {
		return fmt.Sprintf("%s not found for user %s", e.Resource, e.Key.UserID)
	}
	return fmt.Sprintf("%s not found for %s", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidInputError reports malformed caller input or malformed stored history.
type InvalidInputError struct {
	Message string
	Fields  []models.FieldViolation
	Err     error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *InvalidInputError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// invalidField builds an InvalidInputError for a single field.
func invalidField(field, code, message string) *InvalidInputError {
	return &InvalidInputError{
		Message: "invalid " + field,
		Fields:  []models.FieldViolation{{Field: field, Code: code, Message: message}},
	}
}

// StorageConflictError reports a snapshot write that lost to a concurrent
// writer. The caller may retry the recompute.
type StorageConflictError struct {
	Key        models.ProductKey
	RetryAfter time.Duration
	Err        error
}

func (e *StorageConflictError) Error() string {
	return fmt.Sprintf("concurrent update of analytics for %s", e.Key)
}

func (e *StorageConflictError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrStorageConflict, e.Err}
	}
	return []error{ErrStorageConflict}
}
