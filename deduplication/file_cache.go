package deduplication

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileCache keeps one file per cache key under dir.
type FileCache struct {
	dir string
	now func() time.Time
}

func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

func (f *FileCache) path(key string) string {
	return filepath.Join(f.dir, "embeddings_"+key+".bin")
}

func (f *FileCache) Get(_ context.Context, key string) ([][]float32, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vecs, expires, err := decodeVectors(data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", f.path(key), err)
	}
	if expired(f.now(), expires) {
		_ = os.Remove(f.path(key))
		return nil, false, nil
	}
	return vecs, true, nil
}

// Set writes through a temp file and rename so readers never see a partial entry.
func (f *FileCache) Set(_ context.Context, key string, vectors [][]float32, ttl time.Duration) error {
	data, err := encodeVectors(vectors, expiryFor(f.now(), ttl))
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, "embeddings_"+key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}
