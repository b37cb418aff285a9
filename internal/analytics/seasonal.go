package analytics

import (
	"fmt"
	"math"
	"time"
)

// SeasonalMode selects how purchases are bucketed for the seasonal pattern.
type SeasonalMode string

const (
	// SeasonalModeWeekday buckets purchases by day of week.
	SeasonalModeWeekday SeasonalMode = "weekday"
	// SeasonalModePeriod buckets purchases by calendar position within a
	// fixed period of days, for sources whose timestamps carry no reliable
	// weekday signal.
	SeasonalModePeriod SeasonalMode = "period"
)

// Seasonality defaults. These are policy values chosen to keep sparse
// histories from being flagged, not the result of a statistical test.
// Deployments override them through configuration.
const (
	DefaultSeasonalConcentration = 0.5
	DefaultSeasonalMinSamples    = 4
	DefaultSeasonalPeriodDays    = 7
)

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// SeasonalConfig controls the seasonal pattern estimator.
type SeasonalConfig struct {
	Mode SeasonalMode
	// PeriodDays is the bucket count in period mode.
	PeriodDays int
	// Concentration is the weight one bucket must exceed to call a product seasonal.
	Concentration float64
	// MinSamples is the purchase count below which seasonality is always false.
	MinSamples int
	// Location is used to resolve weekdays and calendar days. Nil means UTC.
	Location *time.Location
}

// DefaultSeasonalConfig returns the weekday estimator with the default policy.
func DefaultSeasonalConfig() SeasonalConfig {
	return SeasonalConfig{
		Mode:          SeasonalModeWeekday,
		PeriodDays:    DefaultSeasonalPeriodDays,
		Concentration: DefaultSeasonalConcentration,
		MinSamples:    DefaultSeasonalMinSamples,
		Location:      time.UTC,
	}
}

// Validate checks the estimator settings.
func (c SeasonalConfig) Validate() error {
	switch c.Mode {
	case SeasonalModeWeekday:
	case SeasonalModePeriod:
		if c.PeriodDays < 1 {
			return fmt.Errorf("seasonal period must be at least 1 day, got %d", c.PeriodDays)
		}
	default:
		return fmt.Errorf("unknown seasonal mode %q", c.Mode)
	}
	if c.Concentration < 0 || c.Concentration > 1 || math.IsNaN(c.Concentration) {
		return fmt.Errorf("seasonal concentration must be between 0 and 1, got %v", c.Concentration)
	}
	if c.MinSamples < 1 {
		return fmt.Errorf("seasonal minimum sample size must be at least 1, got %d", c.MinSamples)
	}
	return nil
}

// Seasonality is the estimator output.
type Seasonality struct {
	// Pattern maps bucket label to its share of purchases. Empty buckets are omitted.
	Pattern    map[string]float64
	PeakLabel  string
	PeakWeight float64
	// Consistency is one minus the normalized entropy of the distribution:
	// 1 when every purchase falls in one bucket, 0 when spread evenly.
	Consistency float64
	IsSeasonal  bool
}

// EstimateSeasonality groups purchase timestamps into buckets and flags the
// product as seasonal when one bucket dominates a large enough sample.
func EstimateSeasonality(timestamps []time.Time, cfg SeasonalConfig) Seasonality {
	total := len(timestamps)
	if total == 0 {
		return Seasonality{Pattern: map[string]float64{}}
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	labels := bucketLabels(cfg)
	counts := make([]float64, len(labels))
	for _, ts := range timestamps {
		counts[bucketIndex(ts.In(loc), cfg, len(labels))]++
	}

	result := Seasonality{Pattern: make(map[string]float64)}
	peak := -1
	for i, count := range counts {
		if count == 0 {
			continue
		}
		weight := count / float64(total)
		result.Pattern[labels[i]] = weight
		if peak < 0 || count > counts[peak] {
			peak = i
		}
	}

	result.PeakLabel = labels[peak]
	result.PeakWeight = counts[peak] / float64(total)
	result.Consistency = consistency(counts)
	result.IsSeasonal = total >= cfg.MinSamples && result.PeakWeight > cfg.Concentration

	return result
}

func bucketLabels(cfg SeasonalConfig) []string {
	if cfg.Mode == SeasonalModePeriod && cfg.PeriodDays > 0 {
		labels := make([]string, cfg.PeriodDays)
		for i := range labels {
			labels[i] = fmt.Sprintf("d%d", i)
		}
		return labels
	}
	return weekdayLabels[:]
}

func bucketIndex(ts time.Time, cfg SeasonalConfig, buckets int) int {
	if cfg.Mode == SeasonalModePeriod && cfg.PeriodDays > 0 {
		y, m, d := ts.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
		idx := day % int64(buckets)
		if idx < 0 {
			idx += int64(buckets)
		}
		return int(idx)
	}
	// time.Weekday starts on Sunday; labels start on Monday.
	return (int(ts.Weekday()) + 6) % 7
}

// consistency computes normalized entropy (1 = very consistent, 0 = random).
func consistency(distribution []float64) float64 {
	n := len(distribution)
	if n == 0 {
		return 0
	}

	var total float64
	for _, v := range distribution {
		total += v
	}
	if total == 0 {
		return 0
	}

	var entropy float64
	for _, v := range distribution {
		if v > 0 {
			p := v / total
			entropy -= p * math.Log2(p)
		}
	}

	maxEntropy := math.Log2(float64(n))
	if maxEntropy == 0 {
		return 1
	}
	return 1 - (entropy / maxEntropy)
}
