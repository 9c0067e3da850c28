package quality

import (
	"math"
	"sort"

	"qacurator/types"
)

// Statistics summarizes the scores of one batch.
type Statistics struct {
	TotalItems          int                `json:"total_items"`
	Average             float64            `json:"average_score"`
	Median              float64            `json:"median_score"`
	Min                 float64            `json:"min_score"`
	Max                 float64            `json:"max_score"`
	StdDev              float64            `json:"std_score"`
	AboveThreshold      int                `json:"above_threshold"`
	ThresholdPercentage float64            `json:"threshold_percentage"`
	TierDistribution    map[types.Tier]int `json:"tier_distribution"`
}

// BatchStatistics computes Statistics over metrics. StdDev is the population
// standard deviation.
func BatchStatistics(metrics []types.QualityMetrics) Statistics {
	stats := Statistics{
		TotalItems:       len(metrics),
		TierDistribution: TierDistribution(metrics),
	}
	if len(metrics) == 0 {
		return stats
	}

	scores := FinalScores(metrics)
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, m := range metrics {
		sum += m.FinalScore
		if m.MeetsThreshold {
			stats.AboveThreshold++
		}
	}
	n := float64(len(scores))
	stats.Average = sum / n
	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]
	stats.Median = Median(sorted)

	variance := 0.0
	for _, s := range scores {
		variance += (s - stats.Average) * (s - stats.Average)
	}
	stats.StdDev = math.Sqrt(variance / n)
	stats.ThresholdPercentage = float64(stats.AboveThreshold) / n * 100
	return stats
}

// TierDistribution counts metrics per tier; every tier is present.
func TierDistribution(metrics []types.QualityMetrics) map[types.Tier]int {
	dist := make(map[types.Tier]int, len(types.Tiers))
	for _, t := range types.Tiers {
		dist[t] = 0
	}
	for _, m := range metrics {
		dist[m.Tier]++
	}
	return dist
}

// Median of an already sorted slice.
func Median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
