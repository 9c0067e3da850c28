package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.4, cfg.Quality.Weights.Question)
	assert.Equal(t, 0.5, cfg.Quality.Weights.Answer)
	assert.Equal(t, 0.1, cfg.Quality.Weights.Completion)
	assert.Equal(t, 5.0, cfg.Quality.Threshold)
	assert.Equal(t, 0.95, cfg.Dedup.SimilarityThreshold)
	assert.Equal(t, 32, cfg.Dedup.EmbeddingBatchSize)
	assert.Equal(t, time.Duration(0), cfg.Dedup.CacheTTL)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"negative weight":      func(c *Config) { c.Quality.Weights.Answer = -0.1 },
		"zero weights":         func(c *Config) { c.Quality.Weights = Weights{} },
		"threshold too high":   func(c *Config) { c.Quality.Threshold = 11 },
		"similarity zero":      func(c *Config) { c.Dedup.SimilarityThreshold = 0 },
		"similarity above 1":   func(c *Config) { c.Dedup.SimilarityThreshold = 1.01 },
		"batch size zero":      func(c *Config) { c.Dedup.EmbeddingBatchSize = 0 },
		"negative ttl":         func(c *Config) { c.Dedup.CacheTTL = -time.Second },
		"unknown backend":      func(c *Config) { c.Cache.Backend = "memcached" },
		"s3 without bucket":    func(c *Config) { c.Cache.Backend = CacheS3 },
		"unknown policy":       func(c *Config) { c.Pipeline.DedupFailurePolicy = "retry" },
		"unknown provider":     func(c *Config) { c.Embeddings.Provider = "local" },
		"negative image bonus": func(c *Config) { c.Quality.CompletionBonus.Image = -3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	t.Setenv("QUALITY_THRESHOLD", "6.5")
	t.Setenv("DEDUP_SIMILARITY_THRESHOLD", "0.9")
	t.Setenv("DEDUP_EMBEDDING_BATCH_SIZE", "16")
	t.Setenv("DEDUP_CACHE_TTL_SECONDS", "3600")
	t.Setenv("EMBEDDING_CACHE", "redis")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("COHERE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EMBEDDINGS_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6.5, cfg.Quality.Threshold)
	assert.Equal(t, 0.9, cfg.Dedup.SimilarityThreshold)
	assert.Equal(t, 16, cfg.Dedup.EmbeddingBatchSize)
	assert.Equal(t, time.Hour, cfg.Dedup.CacheTTL)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, ProviderOpenAI, cfg.Embeddings.Provider)
	assert.Equal(t, "sk-test", cfg.Embeddings.APIKey)
}

func TestLoadFailsValidation(t *testing.T) {
	t.Setenv("DEDUP_FAILURE_POLICY", "ignore")
	_, err := Load()
	assert.Error(t, err)
}
