package quality

import (
	"testing"

	"qacurator/types"

	"github.com/stretchr/testify/assert"
)

func TestBatchStatistics(t *testing.T) {
	var metrics []types.QualityMetrics
	for _, s := range []float64{8.2, 4.9, 6.0} {
		metrics = append(metrics, types.QualityMetrics{FinalScore: s, Tier: types.TierFor(s), MeetsThreshold: s >= 5})
	}

	stats := BatchStatistics(metrics)
	assert.Equal(t, 3, stats.TotalItems)
	assert.InDelta(t, 19.1/3, stats.Average, 1e-9)
	assert.Equal(t, 6.0, stats.Median)
	assert.Equal(t, 4.9, stats.Min)
	assert.Equal(t, 8.2, stats.Max)
	assert.Equal(t, 2, stats.AboveThreshold)
	assert.InDelta(t, 66.6667, stats.ThresholdPercentage, 1e-3)
	assert.InDelta(t, 1.3720, stats.StdDev, 1e-3)
	assert.Equal(t, map[types.Tier]int{
		types.TierExcellent: 0,
		types.TierGood:      1,
		types.TierFair:      1,
		types.TierPoor:      1,
	}, stats.TierDistribution)
}

func TestBatchStatisticsEmpty(t *testing.T) {
	stats := BatchStatistics(nil)
	assert.Zero(t, stats.TotalItems)
	assert.Zero(t, stats.Average)
	assert.Len(t, stats.TierDistribution, 4)
}

func TestMedianEven(t *testing.T) {
	assert.Equal(t, 2.5, Median([]float64{1, 2, 3, 4}))
	assert.Zero(t, Median(nil))
}
