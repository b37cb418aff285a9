package models

import (
	"fmt"
	"math"
	"time"
	"unicode"
	"unicode/utf8"
)

// Bucket groups ranked recommendations for a shopping list.
type Bucket string

const (
	BucketUrgent   Bucket = "urgent"
	BucketUpcoming Bucket = "upcoming"
	BucketOptional Bucket = "optional"
)

// Bucket boundaries on urgency/100.
const (
	UrgentRatio   = 0.9
	UpcomingRatio = 0.7
)

// BucketForUrgency places an urgency score: urgent above 90, upcoming above 70
// up to 90, optional otherwise.
func BucketForUrgency(urgency float64) Bucket {
	ratio := urgency / 100
	switch {
	case ratio > UrgentRatio:
		return BucketUrgent
	case ratio > UpcomingRatio:
		return BucketUpcoming
	default:
		return BucketOptional
	}
}

// UrgencyStatus is the finer five-tier label used for display copy.
type UrgencyStatus string

const (
	StatusOverdue  UrgencyStatus = "overdue"
	StatusUrgent   UrgencyStatus = "urgent"
	StatusSoon     UrgencyStatus = "soon"
	StatusUpcoming UrgencyStatus = "upcoming"
	StatusOptional UrgencyStatus = "optional"
)

func StatusForUrgency(urgency float64) UrgencyStatus {
	switch {
	case urgency >= 100:
		return StatusOverdue
	case urgency >= 85:
		return StatusUrgent
	case urgency >= 70:
		return StatusSoon
	case urgency >= 50:
		return StatusUpcoming
	default:
		return StatusOptional
	}
}

var statusLead = map[UrgencyStatus]string{
	StatusOverdue:  "Time to restock %s.",
	StatusUrgent:   "%s is running low.",
	StatusSoon:     "%s is due soon.",
	StatusUpcoming: "%s is coming up.",
	StatusOptional: "No rush on %s.",
}

// RecommendationText leads with the urgency tier of a product and follows with
// its buying rhythm, or says there is not enough history yet.
func RecommendationText(productName string, urgency float64, avgDays, daysSince *float64) string {
	if avgDays == nil || daysSince == nil {
		return fmt.Sprintf("Not enough data for %s predictions yet.", productName)
	}
	lead := fmt.Sprintf(statusLead[StatusForUrgency(urgency)], productName)
	return fmt.Sprintf("%s You usually buy %s every %.0f days. Last purchase: %.0f days ago.",
		capitalize(lead), productName, math.Round(*avgDays), math.Round(*daysSince))
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Recommendation is one ranked entry of a prediction query.
type Recommendation struct {
	ProductName             string        `json:"product_name"`
	UrgencyScore            float64       `json:"urgency_score"`
	Probability             float64       `json:"probability"`
	Bucket                  Bucket        `json:"bucket"`
	Status                  UrgencyStatus `json:"status"`
	RecommendationText      string        `json:"recommendation_text"`
	DaysSinceLast           *float64      `json:"days_since_last,omitempty"`
	AvgIntervalDays         *float64      `json:"avg_interval_days,omitempty"`
	LastPurchaseAt          *time.Time    `json:"last_purchase_at,omitempty"`
	EstimatedNextPurchaseAt *time.Time    `json:"estimated_next_purchase_at,omitempty"`
}

// ShoppingSummary groups a ranked list by bucket.
type ShoppingSummary struct {
	Urgent   []Recommendation `json:"urgent"`
	Upcoming []Recommendation `json:"upcoming"`
	Optional []Recommendation `json:"optional"`
	Total    int              `json:"total"`
	Message  string           `json:"message"`
}

// ProductDetail is a stored snapshot plus its urgency re-scored at query time.
type ProductDetail struct {
	ProductAnalytics
	CurrentUrgencyScore float64       `json:"current_urgency_score"`
	CurrentDaysSince    *float64      `json:"current_days_since_last_purchase"`
	Status              UrgencyStatus `json:"status"`
	RecommendationText  string        `json:"recommendation_text"`
}

// PurchaseResult is returned after recording a purchase.
type PurchaseResult struct {
	Purchase  PurchaseEvent     `json:"purchase"`
	Analytics *ProductAnalytics `json:"analytics"`
}

// BatchResult reports an idle recompute run.
type BatchResult struct {
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// PurgeResult reports what a user purge removed.
type PurgeResult struct {
	PurchasesDeleted int64 `json:"purchases_deleted"`
	SnapshotsDeleted int64 `json:"snapshots_deleted"`
}
