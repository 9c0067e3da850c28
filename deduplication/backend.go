package deduplication

import (
	"context"
	"fmt"

	"qacurator/common"
	"qacurator/config"
)

// NewEmbeddingCache opens the backend selected in cfg. The returned close
// function is never nil.
func NewEmbeddingCache(ctx context.Context, cfg config.Cache) (EmbeddingCache, func() error, error) {
	noClose := func() error { return nil }

	switch cfg.Backend {
	case "", config.CacheNone:
		return NoopCache{}, noClose, nil
	case config.CacheMemory:
		return NewMemoryCache(), noClose, nil
	case config.CacheFile:
		c, err := NewFileCache(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return c, noClose, nil
	case config.CacheRedis:
		c, err := NewRedisCache(cfg)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	case config.CacheS3:
		store, err := common.NewS3(ctx, common.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Profile:      cfg.S3Profile,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init S3 client: %w", err)
		}
		return NewS3Cache(store, cfg.S3Prefix), noClose, nil
	}
	return nil, nil, fmt.Errorf("unknown embedding cache backend %q", cfg.Backend)
}
