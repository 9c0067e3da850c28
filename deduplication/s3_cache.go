package deduplication

import (
	"context"
	"time"

	"qacurator/common"
	"qacurator/logger"
)

// objectStore is the subset of *common.S3 the cache uses.
type objectStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
}

// S3Cache stores one object per cache key under prefix. Expiry is recorded
// in the object and enforced on read; stale objects are deleted lazily.
type S3Cache struct {
	store  objectStore
	prefix string
	now    func() time.Time
}

func NewS3Cache(store objectStore, prefix string) *S3Cache {
	return &S3Cache{store: store, prefix: prefix, now: time.Now}
}

func (s *S3Cache) objectKey(key string) string {
	return s.prefix + "embeddings_" + key + ".bin"
}

func (s *S3Cache) Get(ctx context.Context, key string) ([][]float32, bool, error) {
	data, err := s.store.GetObject(ctx, s.objectKey(key))
	if common.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vecs, expires, err := decodeVectors(data)
	if err != nil {
		return nil, false, err
	}
	if expired(s.now(), expires) {
		if err := s.store.DeleteObject(ctx, s.objectKey(key)); err != nil {
			logger.Warn("Failed to delete expired embedding object", "key", s.objectKey(key), "err", err)
		}
		return nil, false, nil
	}
	return vecs, true, nil
}

func (s *S3Cache) Set(ctx context.Context, key string, vectors [][]float32, ttl time.Duration) error {
	data, err := encodeVectors(vectors, expiryFor(s.now(), ttl))
	if err != nil {
		return err
	}
	return s.store.PutObject(ctx, s.objectKey(key), data, "application/octet-stream")
}
