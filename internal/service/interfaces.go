package service

import (
	"context"

	"github.com/JonnyWalker81/restock/backend/internal/models"
)

// AnalyticsService derives and stores per-product analytics snapshots.
type AnalyticsService interface {
	// Recompute rebuilds the snapshot of one (user, product) key from its full
	// purchase history and stores it.
	Recompute(ctx context.Context, userID, productName string) (*models.ProductAnalytics, error)
	// RecomputeAll rebuilds every key of userID, or of all users when userID
	// is empty. One key's failure never stops the others.
	RecomputeAll(ctx context.Context, userID string) (*models.BatchResult, error)
}

// RankOptions narrows a prediction query. Nil fields use the configured
// defaults. A Limit of zero or less returns every match.
type RankOptions struct {
	Threshold *float64
	Limit     *int
}

// PredictionService answers read-only queries over stored snapshots.
type PredictionService interface {
	Rank(ctx context.Context, userID string, opts RankOptions) ([]models.Recommendation, error)
	Summary(ctx context.Context, userID string, opts RankOptions) (*models.ShoppingSummary, error)
	Detail(ctx context.Context, userID, productName string) (*models.ProductDetail, error)
	// Products lists every snapshot of userID whose urgency at the query
	// instant is at least minUrgency, most urgent first.
	Products(ctx context.Context, userID string, minUrgency float64) ([]models.ProductDetail, error)
}

// PurchaseService records purchases and keeps their analytics current.
type PurchaseService interface {
	RecordPurchase(ctx context.Context, userID string, req *models.CreatePurchaseRequest) (*models.PurchaseResult, error)
	ListPurchases(ctx context.Context, userID, productName string) ([]models.PurchaseEvent, error)
	PurgeUser(ctx context.Context, userID string) (*models.PurgeResult, error)
}
