package deduplication

import (
	"context"
	"fmt"

	"qacurator/config"
	"qacurator/types"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Embedder turns an ordered text list into one vector per text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// BatchEmbedder splits texts into provider-sized batches and runs them
// concurrently. The semaphore is shared by every run using this embedder,
// so it bounds outstanding provider calls process-wide.
type BatchEmbedder struct {
	provider  EmbeddingsProvider
	batchSize int
	sem       *semaphore.Weighted
}

func NewBatchEmbedder(provider EmbeddingsProvider, batchSize, maxConcurrent int) *BatchEmbedder {
	if batchSize <= 0 {
		batchSize = config.DefaultEmbeddingBatchSize
	}
	if maxConcurrent <= 0 {
		maxConcurrent = config.DefaultMaxConcurrentBatches
	}
	return &BatchEmbedder{
		provider:  provider,
		batchSize: batchSize,
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

func (b *BatchEmbedder) ModelName() string { return b.provider.ModelName() }

// Embed returns len(texts) vectors of equal length in input order. Any
// provider error, count mismatch or ragged result fails the whole call.
func (b *BatchEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		g.Go(func() error {
			if err := b.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer b.sem.Release(1)

			vecs, err := b.provider.EmbedTexts(gctx, texts[start:end])
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return b.fail(err)
			}
			if len(vecs) != end-start {
				return b.fail(fmt.Errorf("embedding count mismatch: got %d want %d", len(vecs), end-start))
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := checkDimensions(out); err != nil {
		return nil, b.fail(err)
	}
	return out, nil
}

func (b *BatchEmbedder) fail(err error) error {
	return &types.ProviderError{Provider: b.provider.ModelName(), Err: err}
}

// checkDimensions requires every vector to be present and of one length.
func checkDimensions(vecs [][]float32) error {
	if len(vecs) == 0 {
		return nil
	}
	dim := len(vecs[0])
	if dim == 0 {
		return fmt.Errorf("embedding 0 is empty")
	}
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(v), dim)
		}
	}
	return nil
}
