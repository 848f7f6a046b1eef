// Package scoring computes listing health scores and removal recommendations.
// Higher scores are healthier.
package scoring

import "github.com/Veraticus/dead-stock/internal/model"

const (
	// MaxScore is the score of a listing with no deductions.
	MaxScore = 100
	// MinScore is the floor scores are clamped to.
	MinScore = 0

	// DeleteThreshold is the highest score recommended for deletion.
	DeleteThreshold = 40
	// OptimizeThreshold is the highest score recommended for optimization.
	OptimizeThreshold = 60
)

// Metrics are the listing signals the score is computed from.
type Metrics struct {
	DaysListed int
	Sales      int
	WatchCount int
	ViewCount  int
}

// MetricsOf extracts scoring metrics from a listing.
func MetricsOf(l *model.Listing) Metrics {
	return Metrics{
		DaysListed: l.DaysListed,
		Sales:      l.TotalSales,
		WatchCount: l.WatchCount,
		ViewCount:  l.ViewCount,
	}
}

// Score returns the health score of m, clamped to [0,100].
func Score(m Metrics) int {
	score := MaxScore

	switch {
	case m.DaysListed >= 60:
		score -= 30
	case m.DaysListed >= 30:
		score -= 20
	case m.DaysListed >= 14:
		score -= 10
	}

	if m.Sales == 0 {
		score -= 30
	}

	switch {
	case m.WatchCount == 0:
		score -= 20
	case m.WatchCount <= 2:
		score -= 10
	}

	switch {
	case m.ViewCount <= 5:
		score -= 20
	case m.ViewCount <= 10:
		score -= 10
	}

	return clamp(score)
}

// Recommend maps a score to a recommendation. Global winners and listings
// active elsewhere are always sent to review.
func Recommend(score int, globalWinner, activeElsewhere bool) model.Recommendation {
	if globalWinner || activeElsewhere {
		return model.RecommendReview
	}

	switch {
	case score <= DeleteThreshold:
		return model.RecommendDelete
	case score <= OptimizeThreshold:
		return model.RecommendOptimize
	default:
		return model.RecommendMonitor
	}
}

// Apply scores the listing in place.
func Apply(l *model.Listing) {
	l.ZombieScore = Score(MetricsOf(l))
	l.Recommendation = Recommend(l.ZombieScore, l.IsGlobalWinner, l.IsActiveElsewhere)
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
