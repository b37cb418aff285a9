package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonnyWalker81/restock/backend/internal/analytics"
	"github.com/JonnyWalker81/restock/backend/internal/logger"
	"github.com/JonnyWalker81/restock/backend/internal/metrics"
	"github.com/JonnyWalker81/restock/backend/internal/models"
	"github.com/JonnyWalker81/restock/backend/internal/repository"
)

// DefaultBatchConcurrency bounds RecomputeAll when no concurrency is configured.
const DefaultBatchConcurrency = 4

// conflictRetryAfter is the back-off hint attached to StorageConflictError.
const conflictRetryAfter = 50 * time.Millisecond

// AnalyticsOptions configures the analytics service.
type AnalyticsOptions struct {
	Seasonal    analytics.SeasonalConfig
	Concurrency int
	// Now is the evaluation clock. Defaults to time.Now.
	Now     func() time.Time
	Metrics *metrics.Recorder
	Logger  logger.Logger
}

type analyticsService struct {
	purchases   repository.PurchaseRepository
	snapshots   repository.AnalyticsRepository
	seasonal    analytics.SeasonalConfig
	concurrency int
	now         func() time.Time
	locks       *keyedMutex
	metrics     *metrics.Recorder
	log         logger.Logger
}

// NewAnalyticsService creates the analytics aggregator.
func NewAnalyticsService(purchases repository.PurchaseRepository, snapshots repository.AnalyticsRepository, opts AnalyticsOptions) AnalyticsService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultBatchConcurrency
	}
	if opts.Seasonal.Mode == "" {
		opts.Seasonal = analytics.DefaultSeasonalConfig()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &analyticsService{
		purchases:   purchases,
		snapshots:   snapshots,
		seasonal:    opts.Seasonal,
		concurrency: opts.Concurrency,
		now:         opts.Now,
		locks:       newKeyedMutex(),
		metrics:     opts.Metrics,
		log:         opts.Logger,
	}
}

func (s *analyticsService) Recompute(ctx context.Context, userID, productName string) (*models.ProductAnalytics, error) {
	start := time.Now()
	snapshot, err := s.recompute(ctx, userID, productName)
	s.metrics.ObserveRecompute(recomputeOutcome(err), time.Since(start))
	return snapshot, err
}

func (s *analyticsService) recompute(ctx context.Context, userID, productName string) (*models.ProductAnalytics, error) {
	userID = strings.TrimSpace(userID)
	productName = models.NormalizeProductName(productName)
	if userID == "" {
		return nil, invalidField("user_id", "required", "is required")
	}
	if productName == "" {
		return nil, invalidField("product_name", "required", "is required")
	}

	ctx = logger.WithProduct(ctx, userID, productName)
	key := models.ProductKey{UserID: userID, ProductName: productName}

	unlock := s.locks.Lock(productLockKey(userID, productName))
	defer unlock()

	events, err := s.purchases.GetOrderedByKey(ctx, userID, productName)
	if err != nil {
		return nil, fmt.Errorf("failed to read purchase history: %w", err)
	}
	if len(events) == 0 {
		return nil, &NotFoundError{Resource: "purchase history", Key: key}
	}

	occasions, err := s.purchases.CountOccasions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count shopping occasions: %w", err)
	}

	snapshot, err := buildSnapshot(key, events, occasions, s.now(), s.seasonal)
	if err != nil {
		return nil, &InvalidInputError{Message: "stored purchase history is malformed", Err: err}
	}

	if err := s.snapshots.Upsert(ctx, snapshot); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.logFor(ctx).Warn("analytics write lost to a newer snapshot",
				logger.Int("total_purchases", snapshot.TotalPurchases))
			return nil, &StorageConflictError{Key: key, RetryAfter: conflictRetryAfter, Err: err}
		}
		return nil, fmt.Errorf("failed to store analytics: %w", err)
	}

	fields := []logger.Field{
		logger.Int("total_purchases", snapshot.TotalPurchases),
		logger.Float64("urgency_score", snapshot.UrgencyScore),
		logger.Float64("repurchase_probability", snapshot.RepurchaseProbability),
		logger.Bool("is_seasonal", snapshot.IsSeasonal),
	}
	if snapshot.AvgIntervalDays != nil {
		fields = append(fields, logger.Float64("avg_interval_days", *snapshot.AvgIntervalDays))
	}
	s.logFor(ctx).Info("analytics recomputed", fields...)

	return snapshot, nil
}

// buildSnapshot runs the calculators over one key's ordered history. It reads
// no clock and no storage.
func buildSnapshot(key models.ProductKey, events []models.PurchaseEvent, occasions int64, now time.Time, seasonal analytics.SeasonalConfig) (*models.ProductAnalytics, error) {
	timestamps := make([]time.Time, len(events))
	for i, e := range events {
		timestamps[i] = e.PurchasedAt
	}

	stats, err := analytics.ComputeIntervals(timestamps)
	if err != nil {
		return nil, err
	}
	score := analytics.ComputeScore(stats, occasions, now)
	season := analytics.EstimateSeasonality(timestamps, seasonal)

	return &models.ProductAnalytics{
		ID:                      models.AnalyticsID(key.UserID, key.ProductName),
		UserID:                  key.UserID,
		ProductName:             key.ProductName,
		TotalPurchases:          stats.TotalPurchases,
		LastPurchaseAt:          stats.LastPurchase,
		AvgIntervalDays:         stats.AvgDays,
		MinIntervalDays:         stats.MinDays,
		MaxIntervalDays:         stats.MaxDays,
		StdDevIntervalDays:      stats.StdDevDays,
		DaysSinceLastPurchase:   score.DaysSinceLast,
		UrgencyScore:            score.Urgency,
		RepurchaseProbability:   score.Probability,
		SeasonalPattern:         models.NewSeasonalPattern(season.Pattern),
		IsSeasonal:              season.IsSeasonal,
		EstimatedNextPurchaseAt: score.EstimatedNext,
		UpdatedAt:               now,
		CreatedAt:               now,
	}, nil
}

func (s *analyticsService) RecomputeAll(ctx context.Context, userID string) (*models.BatchResult, error) {
	start := time.Now()
	userID = strings.TrimSpace(userID)

	keys, err := s.purchases.ListKeys(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product keys: %w", err)
	}

	var processed, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := s.Recompute(gctx, key.UserID, key.ProductName); err != nil {
				failed.Add(1)
				s.metrics.IncBatchKey(metrics.OutcomeError)
				s.log.Warn("batch recompute failed for key",
					append(logger.Product(key.UserID, key.ProductName), logger.Err(err))...)
				return nil
			}
			processed.Add(1)
			s.metrics.IncBatchKey(metrics.OutcomeSuccess)
			return nil
		})
	}

	result := &models.BatchResult{}
	waitErr := g.Wait()
	result.Processed = int(processed.Load())
	result.Failed = int(failed.Load())
	result.Duration = time.Since(start)

	s.log.Info("batch recompute finished",
		logger.String("user_id", userID),
		logger.Int("keys", len(keys)),
		logger.Int("processed", result.Processed),
		logger.Int("failed", result.Failed),
		logger.Duration("duration", result.Duration),
	)

	if waitErr != nil {
		return result, fmt.Errorf("batch recompute interrupted: %w", waitErr)
	}
	return result, nil
}

func (s *analyticsService) logFor(ctx context.Context) logger.Logger {
	return s.log.WithContext(ctx)
}

// recomputeWithRetry retries a recompute that lost a storage race. Only
// StorageConflictError is retried.
func recomputeWithRetry(ctx context.Context, svc AnalyticsService, retries int, userID, productName string) (*models.ProductAnalytics, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		snapshot, err := svc.Recompute(ctx, userID, productName)
		if err == nil {
			return snapshot, nil
		}
		var conflict *StorageConflictError
		if !errors.As(err, &conflict) {
			return nil, err
		}
		lastErr = err

		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(conflict.RetryAfter):
		}
	}
	return nil, lastErr
}

func recomputeOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrStorageConflict):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
