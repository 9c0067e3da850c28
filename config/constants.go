package config

import "time"

// Quality scoring defaults
const (
	// DefaultQuestionWeight is w_q in the final score
	DefaultQuestionWeight = 0.4

	// DefaultAnswerWeight is w_a in the final score
	DefaultAnswerWeight = 0.5

	// DefaultCompletionWeight is w_c in the final score
	DefaultCompletionWeight = 0.1

	// DefaultQualityThreshold is the minimum final score that passes filtering
	DefaultQualityThreshold = 5.0

	// Completion bonus parts, added together
	DefaultBaseBonus  = 1.0
	DefaultCodeBonus  = 2.0
	DefaultImageBonus = 3.0
)

// Deduplication defaults
const (
	// DefaultSimilarityThreshold is the cosine similarity at which two titles are linked
	DefaultSimilarityThreshold = 0.95

	// DefaultEmbeddingBatchSize is the number of titles sent per provider call
	DefaultEmbeddingBatchSize = 32

	// DefaultMaxConcurrentBatches bounds in-flight provider calls per run
	DefaultMaxConcurrentBatches = 4

	// DefaultCacheTTL of zero keeps cache entries until evicted externally
	DefaultCacheTTL time.Duration = 0

	// DefaultEmbedTimeout bounds a single provider call
	DefaultEmbedTimeout = 60 * time.Second
)

// Embedding providers
const (
	ProviderCohere = "cohere"
	ProviderOpenAI = "openai"

	DefaultCohereModel = "embed-english-v3.0"
	DefaultOpenAIModel = "text-embedding-3-small"
)

// Embedding cache backends
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheS3     = "s3"
)

// What the pipeline does when the embedding provider fails
const (
	DedupFailurePolicyFail = "fail"
	DedupFailurePolicySkip = "skip"
)
