package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// analyticsNamespace seeds the deterministic snapshot IDs.
var analyticsNamespace = uuid.MustParse("6f1c8a52-3d0e-4b7a-9a54-2e8f1d9c7b31")

// AnalyticsID returns the stable row ID for a (user, product) snapshot, so a
// recompute produces the same row every time.
func AnalyticsID(userID, productName string) string {
	return uuid.NewSHA1(analyticsNamespace, []byte(userID+"\x00"+productName)).String()
}

// SeasonalPattern maps a bucket label (Mon..Sun, or d0..dN-1) to its share of purchases.
type SeasonalPattern = datatypes.JSONType[map[string]float64]

// NewSeasonalPattern wraps a weight map for storage.
func NewSeasonalPattern(weights map[string]float64) SeasonalPattern {
	if weights == nil {
		weights = map[string]float64{}
	}
	return datatypes.NewJSONType(weights)
}

// ProductAnalytics is the derived snapshot for one (user, product) key. It is
// overwritten on every recompute and never edited by hand.
type ProductAnalytics struct {
	ID          string `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID      string `json:"user_id" gorm:"not null;uniqueIndex:idx_product_analytics_key,priority:1"`
	ProductName string `json:"product_name" gorm:"not null;uniqueIndex:idx_product_analytics_key,priority:2"`

	TotalPurchases int        `json:"total_purchases" gorm:"not null"`
	LastPurchaseAt *time.Time `json:"last_purchase_at"`

	AvgIntervalDays       *float64 `json:"avg_interval_days"`
	MinIntervalDays       *float64 `json:"min_interval_days"`
	MaxIntervalDays       *float64 `json:"max_interval_days"`
	StdDevIntervalDays    *float64 `json:"stddev_interval_days"`
	DaysSinceLastPurchase *float64 `json:"days_since_last_purchase"`

	// UrgencyScore is evaluated at UpdatedAt. Values above 100 mean overdue.
	UrgencyScore          float64 `json:"urgency_score" gorm:"not null"`
	RepurchaseProbability float64 `json:"repurchase_probability" gorm:"not null"`

	SeasonalPattern         SeasonalPattern `json:"seasonal_pattern"`
	IsSeasonal              bool            `json:"is_seasonal" gorm:"not null"`
	EstimatedNextPurchaseAt *time.Time      `json:"estimated_next_purchase_at"`

	// UpdatedAt is the evaluation instant of the recompute that produced the row.
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;autoUpdateTime:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime:false"`
}

func (ProductAnalytics) TableName() string {
	return "product_analytics"
}

// Key returns the snapshot's (user, product) key.
func (a *ProductAnalytics) Key() ProductKey {
	return ProductKey{UserID: a.UserID, ProductName: a.ProductName}
}

// Pattern returns the seasonal weights, never nil.
func (a *ProductAnalytics) Pattern() map[string]float64 {
	if p := a.SeasonalPattern.Data(); p != nil {
		return p
	}
	return map[string]float64{}
}
