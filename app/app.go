package app

import (
	"context"
	"errors"
	"fmt"

	"qacurator/api"
	"qacurator/config"
	"qacurator/deduplication"
	"qacurator/logger"
	"qacurator/logger/console"
	"qacurator/pipeline"
	"qacurator/quality"
)

// Options adjust how Services are assembled.
type Options struct {
	// DisableDedup skips provider and cache setup; runs report dedup_skipped.
	DisableDedup bool
	// Provider replaces the provider built from config.
	Provider deduplication.EmbeddingsProvider
}

// Services holds the wired curation components of one process.
type Services struct {
	Config       config.Config
	Scorer       *quality.Scorer
	Deduplicator *deduplication.Deduplicator
	Pipeline     *pipeline.Pipeline

	closers []func() error
}

// InitLogger routes the package logger to the console.
func InitLogger(cfg config.Config, prefix string) {
	logger.Init(console.New(console.Params{Debug: cfg.Debug, Prefix: prefix}))
}

// New builds scorer, deduplicator and pipeline from cfg.
func New(ctx context.Context, cfg config.Config, opts Options) (*Services, error) {
	s := &Services{
		Config: cfg,
		Scorer: quality.NewScorer(cfg.Quality),
	}

	var finder pipeline.DuplicateFinder
	if !opts.DisableDedup {
		provider := opts.Provider
		if provider == nil {
			p, err := deduplication.NewEmbeddingsProvider(cfg.Embeddings)
			if err != nil {
				return nil, fmt.Errorf("failed to init embeddings provider: %w", err)
			}
			provider = p
		}

		cache, closeCache, err := deduplication.NewEmbeddingCache(ctx, cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to init embedding cache: %w", err)
		}
		s.closers = append(s.closers, closeCache)

		dedup, err := deduplication.NewDeduplicator(provider, deduplication.DeduplicatorConfig{
			Dedup: cfg.Dedup,
			Cache: cache,
		})
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Deduplicator = dedup
		finder = dedup

		logger.Info("Deduplication enabled",
			"model", provider.ModelName(),
			"cache", cfg.Cache.Backend,
			"threshold", dedup.Threshold(),
		)
	}

	pl, err := pipeline.New(s.Scorer, finder, cfg.Pipeline)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Pipeline = pl
	return s, nil
}

// APIDeps exposes the services to the HTTP router.
func (s *Services) APIDeps() api.Deps {
	deps := api.Deps{Scorer: s.Scorer, Pipeline: s.Pipeline}
	if s.Deduplicator != nil {
		deps.Deduplicator = s.Deduplicator
	}
	return deps
}

// Close releases cache connections.
func (s *Services) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}
