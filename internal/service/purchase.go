package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonnyWalker81/restock/backend/internal/logger"
	"github.com/JonnyWalker81/restock/backend/internal/models"
	"github.com/JonnyWalker81/restock/backend/internal/repository"
)

// PurchaseOptions configures purchase ingestion.
type PurchaseOptions struct {
	// FutureTolerance is how far past the clock a purchase may be dated.
	FutureTolerance time.Duration
	// ConflictRetries bounds recompute retries after a storage conflict.
	ConflictRetries int
	Now             func() time.Time
}

type purchaseService struct {
	purchases repository.PurchaseRepository
	snapshots repository.AnalyticsRepository
	analytics AnalyticsService
	opts      PurchaseOptions
}

// NewPurchaseService creates the purchase ingestion service. Every recorded
// purchase synchronously recomputes its key through analyticsSvc.
func NewPurchaseService(purchases repository.PurchaseRepository, snapshots repository.AnalyticsRepository, analyticsSvc AnalyticsService, opts PurchaseOptions) PurchaseService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ConflictRetries < 0 {
		opts.ConflictRetries = 0
	}
	return &purchaseService{
		purchases: purchases,
		snapshots: snapshots,
		analytics: analyticsSvc,
		opts:      opts,
	}
}

func (s *purchaseService) RecordPurchase(ctx context.Context, userID string, req *models.CreatePurchaseRequest) (*models.PurchaseResult, error) {
	if req == nil {
		return nil, &InvalidInputError{Message: "purchase body is required"}
	}

	now := s.opts.Now()
	event := req.ToEvent(userID, now)

	if err := event.Validate(now, s.opts.FutureTolerance); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return nil, &InvalidInputError{Message: "invalid purchase", Fields: verr.Violations}
		}
		return nil, fmt.Errorf("failed to validate purchase: %w", err)
	}

	if event.ID != "" {
		if err := ValidatePurchaseID(event.ID, now, s.opts.FutureTolerance); err != nil {
			return nil, &InvalidInputError{
				Message: "invalid purchase",
				Fields:  []models.FieldViolation{{Field: "id", Code: "uuidv7", Message: err.Error()}},
				Err:     err,
			}
		}
	} else {
		id, err := NewPurchaseID()
		if err != nil {
			return nil, err
		}
		event.ID = id
	}

	created, err := s.purchases.Create(ctx, &event)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &InvalidInputError{
				Message: "invalid purchase",
				Fields:  []models.FieldViolation{{Field: "id", Code: "duplicate", Message: "purchase already recorded"}},
				Err:     err,
			}
		}
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	ctx = logger.WithProduct(ctx, created.UserID, created.ProductName)
	logger.Ctx(ctx).Info("purchase recorded",
		logger.String("purchase_id", created.ID),
		logger.Time("purchased_at", created.PurchasedAt),
		logger.String("source", string(created.Source)),
	)

	snapshot, err := recomputeWithRetry(ctx, s.analytics, s.opts.ConflictRetries, created.UserID, created.ProductName)
	if err != nil {
		// The purchase is stored; the next recompute of this key will pick it up.
		logger.Ctx(ctx).Error("recompute after purchase failed", logger.Err(err))
		return nil, err
	}

	return &models.PurchaseResult{Purchase: *created, Analytics: snapshot}, nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, userID, productName string) ([]models.PurchaseEvent, error) {
	userID = strings.TrimSpace(userID)
	productName = models.NormalizeProductName(productName)
	if userID == "" {
		return nil, invalidField("user_id", "required", "is required")
	}
	if productName == "" {
		return nil, invalidField("product_name", "required", "is required")
	}

	events, err := s.purchases.GetOrderedByKey(ctx, userID, productName)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	if events == nil {
		events = []models.PurchaseEvent{}
	}
	return events, nil
}

func (s *purchaseService) PurgeUser(ctx context.Context, userID string) (*models.PurgeResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalidField("user_id", "required", "is required")
	}

	purchases, err := s.purchases.DeleteByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to purge purchases: %w", err)
	}
	snapshots, err := s.snapshots.DeleteByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to purge analytics: %w", err)
	}

	logger.Ctx(logger.WithUserID(ctx, userID)).Info("user data purged",
		logger.Int64("purchases_deleted", purchases),
		logger.Int64("snapshots_deleted", snapshots),
	)
	return &models.PurgeResult{PurchasesDeleted: purchases, SnapshotsDeleted: snapshots}, nil
}
