package deduplication

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"qacurator/types"
)

// fakeProvider returns fixed vectors per text and records every call.
type fakeProvider struct {
	vectors map[string][]float32
	// fallback is used for texts missing from vectors
	fallback func(text string) []float32
	err      error
	// drop removes this many vectors from each response
	drop int

	mu       sync.Mutex
	batches  [][]string
	calls    atomic.Int32
	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeProvider) ModelName() string { return "fake-embed" }

func (f *fakeProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	cur := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	f.mu.Lock()
	f.batches = append(f.batches, append([]string(nil), texts...))
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, ok := f.vectors[t]
		if !ok && f.fallback != nil {
			v, ok = f.fallback(t), true
		}
		if !ok {
			return nil, fmt.Errorf("no vector for %q", t)
		}
		out = append(out, v)
	}
	return out[:len(out)-min(f.drop, len(out))], nil
}

// oneHot gives every "tN" text its own orthogonal direction.
func oneHot(dim int) func(string) []float32 {
	return func(text string) []float32 {
		var n int
		_, _ = fmt.Sscanf(text, "t%d", &n)
		v := make([]float32, dim)
		v[n%dim] = 1
		return v
	}
}

type failingCache struct {
	gets, sets atomic.Int32
}

func (f *failingCache) Get(context.Context, string) ([][]float32, bool, error) {
	f.gets.Add(1)
	return nil, false, errors.New("cache unavailable")
}

func (f *failingCache) Set(context.Context, string, [][]float32, time.Duration) error {
	f.sets.Add(1)
	return errors.New("cache unavailable")
}

func candidate(title string) types.Candidate {
	return types.Candidate{Question: &types.Question{Title: title}}
}

func candidates(titles ...string) []types.Candidate {
	out := make([]types.Candidate, len(titles))
	for i, t := range titles {
		out[i] = candidate(t)
	}
	return out
}
