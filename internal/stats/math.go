package stats

import (
	"fmt"

	"github.com/stillmind-app/stillmind/internal/models"
)

// GradientTier buckets a day's minutes for presentation. The boundaries
// are part of the dashboard contract: a day at or above 35 minutes is a
// perfect day.
type GradientTier string

const (
	TierLow     GradientTier = "low"     // < 10 min
	TierMedium  GradientTier = "medium"  // 10-24 min
	TierHigh    GradientTier = "high"    // 25-34 min
	TierPerfect GradientTier = "perfect" // >= 35 min
)

// GradientTierForValue maps a day's minutes to its gradient tier.
func GradientTierForValue(minutes int) GradientTier {
	switch {
	case minutes >= 35:
		return TierPerfect
	case minutes >= 25:
		return TierHigh
	case minutes >= 10:
		return TierMedium
	default:
		return TierLow
	}
}

// BestDay returns the bucket with the highest value. Ties resolve to the
// first occurrence; an empty chart yields a zero-value sentinel.
func BestDay(buckets []models.DailyBucket) models.DailyBucket {
	if len(buckets) == 0 {
		return models.DailyBucket{Day: "-", Value: 0}
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.Value > best.Value {
			best = b
		}
	}
	return best
}

// TotalMinutes sums the chart's values.
func TotalMinutes(buckets []models.DailyBucket) int {
	total := 0
	for _, b := range buckets {
		total += b.Value
	}
	return total
}

// WeeklyStreak counts the leading buckets with nonzero minutes, stopping
// at the first zero. The input must be in calendar order for the result to
// be meaningful; this is deliberately not a maximal-run calculation.
func WeeklyStreak(buckets []models.DailyBucket) int {
	streak := 0
	for _, b := range buckets {
		if b.Value <= 0 {
			break
		}
		streak++
	}
	return streak
}

// FormatMinutes renders a minute count for display.
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "0 min"
	}
	return fmt.Sprintf("%d min", minutes)
}
