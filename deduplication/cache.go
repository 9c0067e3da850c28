package deduplication

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"qacurator/logger"

	"golang.org/x/sync/singleflight"
)

// EmbeddingCache stores the embeddings of a whole ordered text list under a
// content hash. Entries are immutable once written. A ttl of zero means the
// entry does not expire.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([][]float32, bool, error)
	Set(ctx context.Context, key string, vectors [][]float32, ttl time.Duration) error
}

// CacheKey hashes the model name and the full ordered text list.
func CacheKey(model string, texts []string) string {
	h := sha256.New()
	_, _ = io.WriteString(h, model)
	for _, t := range texts {
		// Length prefix keeps ["a|b"] and ["a","b"] apart
		_, _ = fmt.Fprintf(h, "\x00%d:%s", len(t), t)
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// NoopCache never hits and discards writes.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([][]float32, bool, error) { return nil, false, nil }

func (NoopCache) Set(context.Context, string, [][]float32, time.Duration) error { return nil }

type memoryEntry struct {
	vectors [][]float32
	expires time.Time
}

// MemoryCache is a process-local cache, safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([][]float32, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.vectors, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, vectors [][]float32, ttl time.Duration) error {
	e := memoryEntry{vectors: vectors}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// CachedEmbedder consults an EmbeddingCache before delegating. Concurrent
// requests for the same text list share one provider call and one write.
// Cache failures are logged and never returned.
type CachedEmbedder struct {
	next   Embedder
	cache  EmbeddingCache
	ttl    time.Duration
	flight singleflight.Group
}

func NewCachedEmbedder(next Embedder, cache EmbeddingCache, ttl time.Duration) *CachedEmbedder {
	if cache == nil {
		cache = NoopCache{}
	}
	return &CachedEmbedder{next: next, cache: cache, ttl: ttl}
}

func (c *CachedEmbedder) ModelName() string { return c.next.ModelName() }

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	key := CacheKey(c.next.ModelName(), texts)

	if vecs, ok := c.lookup(ctx, key, len(texts)); ok {
		logger.Debug("Embedding cache hit", "key", key, "texts", len(texts))
		return vecs, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The shared call outlives any single caller; provider calls carry their
	// own timeout. Each caller only waits on its own ctx.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (any, error) {
		vecs, err := c.next.Embed(flightCtx, texts)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(flightCtx, key, vecs, c.ttl); err != nil {
			logger.Warn("Failed to write embedding cache", "key", key, "err", err)
		}
		return vecs, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.Debug("Embedding request coalesced", "key", key)
		}
		return res.Val.([][]float32), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string, want int) ([][]float32, bool) {
	vecs, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("Failed to read embedding cache", "key", key, "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if len(vecs) != want || checkDimensions(vecs) != nil {
		logger.Warn("Ignoring malformed embedding cache entry", "key", key, "entries", len(vecs), "want", want)
		return nil, false
	}
	return vecs, true
}
