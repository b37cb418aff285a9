package analytics

import (
	"math"
	"time"
)

// MaxProbability caps repurchase probability. A product can show up in more
// events than the user has shopping occasions when it is bought twice in one
// trip at distinct instants; the cap keeps the figure a percentage.
const MaxProbability = 100.0

// Score is the time-dependent part of a product's analytics.
type Score struct {
	DaysSinceLast *float64
	// Urgency is elapsed time over average interval as a percentage.
	// Values above 100 mean overdue and are deliberately left unclamped.
	Urgency       float64
	Probability   float64
	EstimatedNext *time.Time
}

// DaysSince returns the elapsed days from last to now, clamped at zero.
func DaysSince(last, now time.Time) float64 {
	d := now.Sub(last).Hours() / hoursPerDay
	if d < 0 {
		return 0
	}
	return d
}

// Urgency computes (days since last / average interval) * 100. It is zero when
// the average interval is unknown or not positive.
func Urgency(avgDays *float64, last *time.Time, now time.Time) float64 {
	if avgDays == nil || *avgDays <= 0 || last == nil {
		return 0
	}
	return DaysSince(*last, now) / *avgDays * 100
}

// Probability computes the share of shopping occasions that included the
// product, as a percentage in [0, 100].
func Probability(totalPurchases int, totalOccasions int64) float64 {
	if totalOccasions <= 0 || totalPurchases <= 0 {
		return 0
	}
	return math.Min(MaxProbability, float64(totalPurchases)/float64(totalOccasions)*100)
}

// EstimateNext projects the next purchase as last + average interval.
func EstimateNext(avgDays *float64, last *time.Time) *time.Time {
	if avgDays == nil || last == nil {
		return nil
	}
	next := last.Add(time.Duration(*avgDays * hoursPerDay * float64(time.Hour)))
	return &next
}

// ComputeScore evaluates urgency, probability and the next-purchase estimate
// for the given statistics at instant now. It carries no state between calls.
func ComputeScore(stats IntervalStats, totalOccasions int64, now time.Time) Score {
	score := Score{
		Urgency:       Urgency(stats.AvgDays, stats.LastPurchase, now),
		Probability:   Probability(stats.TotalPurchases, totalOccasions),
		EstimatedNext: EstimateNext(stats.AvgDays, stats.LastPurchase),
	}
	if stats.LastPurchase != nil {
		days := DaysSince(*stats.LastPurchase, now)
		score.DaysSinceLast = &days
	}
	return score
}
