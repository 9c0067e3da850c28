package deduplication

import (
	"context"
	"fmt"
	"time"

	"qacurator/config"
	"qacurator/logger"
	"qacurator/types"
)

// Deduplicator clusters near-duplicate candidates by title embedding and
// keeps the best-scoring member of each cluster.
type Deduplicator struct {
	embedder  Embedder
	threshold float64
	workers   int
}

// DeduplicatorConfig holds configuration for the deduplicator
type DeduplicatorConfig struct {
	Dedup config.Dedup
	// Cache persists embeddings between runs. Nil disables caching.
	Cache EmbeddingCache
}

// NewDeduplicator wires provider batching and caching in front of the
// clustering logic.
func NewDeduplicator(provider EmbeddingsProvider, cfg DeduplicatorConfig) (*Deduplicator, error) {
	if provider == nil {
		return nil, fmt.Errorf("embeddings provider cannot be nil")
	}
	d := applyConfigDefaults(cfg.Dedup)
	batcher := NewBatchEmbedder(provider, d.EmbeddingBatchSize, d.MaxConcurrentBatches)
	return NewDeduplicatorWithEmbedder(NewCachedEmbedder(batcher, cfg.Cache, d.CacheTTL), d)
}

// NewDeduplicatorWithEmbedder constructs a deduplicator from a preconfigured embedder.
func NewDeduplicatorWithEmbedder(embedder Embedder, cfg config.Dedup) (*Deduplicator, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	cfg = applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Deduplicator{
		embedder:  embedder,
		threshold: cfg.SimilarityThreshold,
		workers:   cfg.Workers,
	}, nil
}

func applyConfigDefaults(cfg config.Dedup) config.Dedup {
	def := config.DefaultDedup()
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.EmbeddingBatchSize == 0 {
		cfg.EmbeddingBatchSize = def.EmbeddingBatchSize
	}
	if cfg.MaxConcurrentBatches == 0 {
		cfg.MaxConcurrentBatches = def.MaxConcurrentBatches
	}
	if cfg.Workers == 0 {
		cfg.Workers = def.Workers
	}
	return cfg
}

// Threshold returns the similarity at which two candidates are linked.
func (d *Deduplicator) Threshold() float64 { return d.threshold }

// DeduplicateBatch partitions candidates into kept and removed indices.
// scores[i] is the quality score of candidates[i]. Cancellation is checked
// between steps; nothing computed before a cancellation is returned.
func (d *Deduplicator) DeduplicateBatch(ctx context.Context, candidates []types.Candidate, scores []float64) (*types.DuplicationResult, error) {
	if len(candidates) != len(scores) {
		return nil, types.NewInputMismatch("candidates vs quality scores", len(candidates), len(scores))
	}
	n := len(candidates)
	started := time.Now()

	texts := EmbeddingTexts(candidates)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matrix := [][]float64{}
	if n == 1 {
		matrix = [][]float64{{0}}
	} else if n > 1 {
		vecs, err := d.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed titles: %w", err)
		}
		if len(vecs) != n {
			return nil, &types.ProviderError{
				Provider: d.embedder.ModelName(),
				Err:      fmt.Errorf("embedding count mismatch: got %d want %d", len(vecs), n),
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matrix, err = SimilarityMatrix(ctx, vecs, d.workers)
		if err != nil {
			return nil, err
		}
	}

	groups := FindDuplicateGroups(matrix, d.threshold)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, g := range groups {
		logger.Debug("Duplicate group", "group", i+1, "size", len(g), "members", g)
	}

	kept, removed := SelectSurvivors(groups, scores, n)
	result := &types.DuplicationResult{
		KeptIndices:      kept,
		RemovedIndices:   removed,
		DuplicateGroups:  groups,
		SimilarityMatrix: matrix,
		TotalRemoved:     len(removed),
	}

	logger.Info("Deduplication complete",
		"input", n,
		"groups", len(groups),
		"removed", result.TotalRemoved,
		"kept", len(kept),
		"threshold", d.threshold,
		"took", time.Since(started).Round(time.Millisecond),
	)
	return result, nil
}

// ApplyDeduplication projects candidates down to result.KeptIndices and
// records each survivor's duplicate group size (1 if it was never grouped).
func ApplyDeduplication(candidates []types.Candidate, result *types.DuplicationResult) ([]types.Candidate, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: nil deduplication result", types.ErrInputMismatch)
	}
	if total := len(result.KeptIndices) + len(result.RemovedIndices); total != len(candidates) {
		return nil, types.NewInputMismatch("candidates vs deduplication result", len(candidates), total)
	}

	groupSize := make(map[int]int)
	for _, g := range result.DuplicateGroups {
		for _, idx := range g {
			groupSize[idx] = len(g)
		}
	}

	out := make([]types.Candidate, 0, len(result.KeptIndices))
	for _, idx := range result.KeptIndices {
		if idx < 0 || idx >= len(candidates) {
			return nil, fmt.Errorf("%w: kept index %d outside batch of %d", types.ErrInputMismatch, idx, len(candidates))
		}
		size, grouped := groupSize[idx]
		if !grouped {
			size = 1
		}
		c := candidates[idx]
		c.Dedup = &types.DedupInfo{WasDuplicate: grouped, GroupSize: size}
		out = append(out, c)
	}

	logger.Debug("Applied deduplication", "remaining", len(out))
	return out, nil
}
