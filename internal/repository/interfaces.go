package repository

import (
	"context"
	"errors"

	"github.com/JonnyWalker81/restock/backend/internal/models"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks . PurchaseRepository,AnalyticsRepository

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a snapshot upsert lost to a writer that had
	// already stored a snapshot built from more purchases.
	ErrConflict = errors.New("snapshot write conflict")
	// ErrDuplicate is returned when a purchase id is already recorded.
	ErrDuplicate = errors.New("duplicate record")
)

// PurchaseRepository is the event store for purchase history.
type PurchaseRepository interface {
	Create(ctx context.Context, event *models.PurchaseEvent) (*models.PurchaseEvent, error)
	// GetOrderedByKey returns every event of one (user, product) key ordered by
	// purchased_at, then id.
	GetOrderedByKey(ctx context.Context, userID, productName string) ([]models.PurchaseEvent, error)
	// CountOccasions counts the distinct purchase instants of a user across all
	// products. Each instant is one shopping occasion.
	CountOccasions(ctx context.Context, userID string) (int64, error)
	// ListKeys lists every (user, product) key with at least one event. An
	// empty userID lists keys of all users.
	ListKeys(ctx context.Context, userID string) ([]models.ProductKey, error)
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}

// AnalyticsRepository stores one derived snapshot per (user, product) key.
type AnalyticsRepository interface {
	// Upsert inserts or replaces the snapshot for its key in one statement.
	// It returns ErrConflict when the stored row was built from more purchases.
	// On success snapshot.CreatedAt holds the stored first-insert time.
	Upsert(ctx context.Context, snapshot *models.ProductAnalytics) error
	GetByKey(ctx context.Context, userID, productName string) (*models.ProductAnalytics, error)
	GetByUserID(ctx context.Context, userID string) ([]models.ProductAnalytics, error)
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}
