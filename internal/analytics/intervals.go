// Package analytics holds the pure purchase-pattern calculators: interval
// statistics, urgency and repurchase-probability scoring, and seasonal
// pattern estimation.
//
// Nothing in this package reads storage or the wall clock. Every function
// takes the evaluation instant explicitly, so the same inputs always produce
// the same outputs.
package analytics

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const hoursPerDay = 24.0

// ErrUnordered is returned when a timestamp sequence is not ascending.
var ErrUnordered = errors.New("purchase timestamps are not in ascending order")

// IntervalStats summarizes the gaps between consecutive purchases of one product.
// The interval fields are nil when fewer than two distinct purchase instants exist.
type IntervalStats struct {
	TotalPurchases int
	FirstPurchase  *time.Time
	LastPurchase   *time.Time
	// Gaps holds the positive gaps in days, in purchase order.
	Gaps       []float64
	AvgDays    *float64
	MinDays    *float64
	MaxDays    *float64
	StdDevDays *float64
}

// HasIntervals reports whether at least one positive gap was observed.
func (s IntervalStats) HasIntervals() bool {
	return s.AvgDays != nil
}

// ComputeIntervals derives interval statistics from an ascending timestamp sequence.
//
// Zero-length gaps (several purchases at the same instant) belong to one
// shopping trip and are dropped before averaging. The average is the mean of
// the kept gaps, not (last-first)/(n-1), so a single outlier gap is weighted
// exactly once.
func ComputeIntervals(timestamps []time.Time) (IntervalStats, error) {
	stats := IntervalStats{TotalPurchases: len(timestamps)}
	if len(timestamps) == 0 {
		return stats, nil
	}

	first := timestamps[0]
	last := timestamps[len(timestamps)-1]
	stats.FirstPurchase = &first
	stats.LastPurchase = &last

	gaps := make([]float64, 0, len(timestamps)-1)
	for i := 1; i < len(timestamps); i++ {
		d := timestamps[i].Sub(timestamps[i-1])
		if d < 0 {
			return IntervalStats{}, fmt.Errorf("%w: purchase %d at %s precedes purchase %d at %s",
				ErrUnordered, i, timestamps[i].Format(time.RFC3339), i-1, timestamps[i-1].Format(time.RFC3339))
		}
		if d == 0 {
			continue
		}
		gaps = append(gaps, d.Hours()/hoursPerDay)
	}

	if len(gaps) == 0 {
		return stats, nil
	}
	stats.Gaps = gaps

	minGap, maxGap := gaps[0], gaps[0]
	var sum float64
	for _, g := range gaps {
		sum += g
		if g < minGap {
			minGap = g
		}
		if g > maxGap {
			maxGap = g
		}
	}
	mean := sum / float64(len(gaps))

	var sq float64
	for _, g := range gaps {
		sq += (g - mean) * (g - mean)
	}
	stdDev := math.Sqrt(sq / float64(len(gaps)))

	stats.AvgDays = &mean
	stats.MinDays = &minGap
	stats.MaxDays = &maxGap
	stats.StdDevDays = &stdDev

	return stats, nil
}
