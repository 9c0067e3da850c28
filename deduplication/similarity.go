package deduplication

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// SimilarityMatrix returns the N×N cosine similarity of vecs with a zero
// diagonal. Rows are split across workers; each worker fills the upper
// triangle of its rows and the mirror cell, so every cell is written once
// and the result is exactly symmetric. A zero-norm vector has similarity 0
// with everything.
func SimilarityMatrix(ctx context.Context, vecs [][]float32, workers int) ([][]float64, error) {
	n := len(vecs)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	if n < 2 {
		return matrix, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	norms := make([]float64, n)
	for i, v := range vecs {
		norms[i] = norm(v)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	// Interleave rows so triangle work is balanced across blocks
	blocks := min(workers, n)
	for b := 0; b < blocks; b++ {
		g.Go(func() error {
			for i := b; i < n; i += blocks {
				if err := gctx.Err(); err != nil {
					return err
				}
				for j := i + 1; j < n; j++ {
					s := cosine(vecs[i], vecs[j], norms[i], norms[j])
					matrix[i][j] = s
					matrix[j][i] = s
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matrix, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for k := range a {
		dot += float64(a[k]) * float64(b[k])
	}
	return dot / (na * nb)
}

// SimilarityDistribution describes the positive pairwise similarities of a batch.
type SimilarityDistribution struct {
	Comparisons         int     `json:"total_comparisons"`
	Mean                float64 `json:"mean_similarity"`
	Median              float64 `json:"median_similarity"`
	StdDev              float64 `json:"std_similarity"`
	Min                 float64 `json:"min_similarity"`
	Max                 float64 `json:"max_similarity"`
	AboveThreshold      int     `json:"above_threshold"`
	ThresholdPercentage float64 `json:"threshold_percentage"`
}

// AnalyzeSimilarity summarizes the strict upper triangle of matrix, counting
// only positive similarities. It returns the zero value when there are none.
func AnalyzeSimilarity(matrix [][]float64, threshold float64) SimilarityDistribution {
	var values []float64
	for i := range matrix {
		for j := i + 1; j < len(matrix[i]); j++ {
			if matrix[i][j] > 0 {
				values = append(values, matrix[i][j])
			}
		}
	}
	if len(values) == 0 {
		return SimilarityDistribution{}
	}
	sort.Float64s(values)

	d := SimilarityDistribution{
		Comparisons: len(values),
		Min:         values[0],
		Max:         values[len(values)-1],
	}
	var sum float64
	for _, v := range values {
		sum += v
		if v >= threshold {
			d.AboveThreshold++
		}
	}
	n := float64(len(values))
	d.Mean = sum / n
	if len(values)%2 == 1 {
		d.Median = values[len(values)/2]
	} else {
		d.Median = (values[len(values)/2-1] + values[len(values)/2]) / 2
	}
	var variance float64
	for _, v := range values {
		variance += (v - d.Mean) * (v - d.Mean)
	}
	d.StdDev = math.Sqrt(variance / n)
	d.ThresholdPercentage = float64(d.AboveThreshold) / n * 100
	return d
}
