package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/JonnyWalker81/restock/backend/internal/analytics"
	"github.com/JonnyWalker81/restock/backend/internal/metrics"
	"github.com/JonnyWalker81/restock/backend/internal/models"
	"github.com/JonnyWalker81/restock/backend/internal/repository"
)

// probabilityEpsilon absorbs rounding when a percentage is compared against a
// fractional threshold.
const probabilityEpsilon = 1e-9

// PredictionOptions configures the prediction service.
type PredictionOptions struct {
	// DefaultThreshold is the minimum repurchase probability, as a fraction,
	// applied to Rank when the caller gives none.
	DefaultThreshold float64
	DefaultLimit     int
	// SummaryThreshold applies to Summary when the caller gives no threshold.
	// Zero lists every product.
	SummaryThreshold float64
	Now              func() time.Time
	Metrics          *metrics.Recorder
}

type predictionService struct {
	snapshots repository.AnalyticsRepository
	opts      PredictionOptions
}

// NewPredictionService creates the prediction query service.
func NewPredictionService(snapshots repository.AnalyticsRepository, opts PredictionOptions) PredictionService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &predictionService{snapshots: snapshots, opts: opts}
}

func (s *predictionService) Rank(ctx context.Context, userID string, opts RankOptions) ([]models.Recommendation, error) {
	return s.rank(ctx, userID, opts, s.opts.DefaultThreshold)
}

func (s *predictionService) rank(ctx context.Context, userID string, opts RankOptions, defaultThreshold float64) ([]models.Recommendation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalidField("user_id", "required", "is required")
	}

	threshold := defaultThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, invalidField("threshold", "range", "must be between 0 and 1")
	}

	limit := s.opts.DefaultLimit
	if opts.Limit != nil {
		limit = *opts.Limit
	}

	snapshots, err := s.snapshots.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read analytics: %w", err)
	}

	now := s.opts.Now()
	recs := make([]models.Recommendation, 0, len(snapshots))
	for i := range snapshots {
		snap := &snapshots[i]
		if snap.RepurchaseProbability+probabilityEpsilon < threshold*100 {
			continue
		}
		recs = append(recs, recommendationFor(snap, now))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].UrgencyScore != recs[j].UrgencyScore {
			return recs[i].UrgencyScore > recs[j].UrgencyScore
		}
		return recs[i].ProductName < recs[j].ProductName
	})

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	s.opts.Metrics.AddPredictionsServed(len(recs))
	return recs, nil
}

// rescore evaluates urgency and elapsed days at now from a stored snapshot.
func rescore(snap *models.ProductAnalytics, now time.Time) (float64, *float64) {
	urgency := analytics.Urgency(snap.AvgIntervalDays, snap.LastPurchaseAt, now)
	if snap.LastPurchaseAt == nil {
		return urgency, nil
	}
	days := analytics.DaysSince(*snap.LastPurchaseAt, now)
	return urgency, &days
}

func recommendationFor(snap *models.ProductAnalytics, now time.Time) models.Recommendation {
	urgency, daysSince := rescore(snap, now)
	return models.Recommendation{
		ProductName:             snap.ProductName,
		UrgencyScore:            urgency,
		Probability:             snap.RepurchaseProbability,
		Bucket:                  models.BucketForUrgency(urgency),
		Status:                  models.StatusForUrgency(urgency),
		RecommendationText:      models.RecommendationText(snap.ProductName, urgency, snap.AvgIntervalDays, daysSince),
		DaysSinceLast:           daysSince,
		AvgIntervalDays:         snap.AvgIntervalDays,
		LastPurchaseAt:          snap.LastPurchaseAt,
		EstimatedNextPurchaseAt: snap.EstimatedNextPurchaseAt,
	}
}

func (s *predictionService) Summary(ctx context.Context, userID string, opts RankOptions) (*models.ShoppingSummary, error) {
	recs, err := s.rank(ctx, userID, opts, s.opts.SummaryThreshold)
	if err != nil {
		return nil, err
	}

	summary := &models.ShoppingSummary{
		Urgent:   []models.Recommendation{},
		Upcoming: []models.Recommendation{},
		Optional: []models.Recommendation{},
		Total:    len(recs),
	}
	for _, r := range recs {
		switch r.Bucket {
		case models.BucketUrgent:
			summary.Urgent = append(summary.Urgent, r)
		case models.BucketUpcoming:
			summary.Upcoming = append(summary.Upcoming, r)
		default:
			summary.Optional = append(summary.Optional, r)
		}
	}
	summary.Message = fmt.Sprintf("You need to shop soon! %d urgent items, %d upcoming.",
		len(summary.Urgent), len(summary.Upcoming))

	return summary, nil
}

func (s *predictionService) Detail(ctx context.Context, userID, productName string) (*models.ProductDetail, error) {
	userID = strings.TrimSpace(userID)
	productName = models.NormalizeProductName(productName)
	if userID == "" {
		return nil, invalidField("user_id", "required", "is required")
	}
	if productName == "" {
		return nil, invalidField("product_name", "required", "is required")
	}

	snap, err := s.snapshots.GetByKey(ctx, userID, productName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{
				Resource: "analytics",
				Key:      models.ProductKey{UserID: userID, ProductName: productName},
			}
		}
		return nil, fmt.Errorf("failed to read analytics: %w", err)
	}

	detail := detailFor(snap, s.opts.Now())
	return &detail, nil
}

func detailFor(snap *models.ProductAnalytics, now time.Time) models.ProductDetail {
	urgency, daysSince := rescore(snap, now)
	return models.ProductDetail{
		ProductAnalytics:    *snap,
		CurrentUrgencyScore: urgency,
		CurrentDaysSince:    daysSince,
		Status:              models.StatusForUrgency(urgency),
		RecommendationText:  models.RecommendationText(snap.ProductName, urgency, snap.AvgIntervalDays, daysSince),
	}
}

func (s *predictionService) Products(ctx context.Context, userID string, minUrgency float64) ([]models.ProductDetail, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalidField("user_id", "required", "is required")
	}
	if math.IsNaN(minUrgency) || minUrgency < 0 {
		return nil, invalidField("min_urgency", "range", "must be zero or more")
	}

	snapshots, err := s.snapshots.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read analytics: %w", err)
	}

	now := s.opts.Now()
	out := make([]models.ProductDetail, 0, len(snapshots))
	for i := range snapshots {
		detail := detailFor(&snapshots[i], now)
		if detail.CurrentUrgencyScore < minUrgency {
			continue
		}
		out = append(out, detail)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CurrentUrgencyScore != out[j].CurrentUrgencyScore {
			return out[i].CurrentUrgencyScore > out[j].CurrentUrgencyScore
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out, nil
}
