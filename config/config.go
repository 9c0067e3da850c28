package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Weights are the per-component multipliers of the final score.
type Weights struct {
	Question   float64 `json:"w_q"`
	Answer     float64 `json:"w_a"`
	Completion float64 `json:"w_c"`
}

// CompletionBonus values are summed per candidate depending on its signals.
type CompletionBonus struct {
	Base  float64 `json:"base"`
	Code  float64 `json:"code"`
	Image float64 `json:"image"`
}

// Quality configures the scorer.
type Quality struct {
	Weights         Weights         `json:"weights"`
	CompletionBonus CompletionBonus `json:"completion_bonus"`
	Threshold       float64         `json:"quality_threshold"`
}

// Dedup configures the semantic deduplicator.
type Dedup struct {
	SimilarityThreshold  float64       `json:"similarity_threshold"`
	EmbeddingBatchSize   int           `json:"embedding_batch_size"`
	MaxConcurrentBatches int           `json:"max_concurrent_batches"`
	CacheTTL             time.Duration `json:"cache_ttl"`
	// Workers used for similarity rows. Zero means GOMAXPROCS.
	Workers int `json:"workers"`
}

// Embeddings selects and configures the embedding provider.
type Embeddings struct {
	Provider string
	Model    string
	APIKey   string
	// BaseURL points the OpenAI client at a compatible server.
	BaseURL string
	Timeout time.Duration
}

// Cache selects where embeddings are persisted between runs.
type Cache struct {
	Backend string

	Dir string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3Profile      string
	S3UsePathStyle bool
}

// Kafka configures the batch worker.
type Kafka struct {
	Brokers     []string
	Topic       string
	ResultTopic string
	GroupID     string
}

// Server configures the HTTP API.
type Server struct {
	Port string
}

// Pipeline configures the curation run.
type Pipeline struct {
	DedupFailurePolicy string
}

// Config is the single validated configuration passed to every component.
type Config struct {
	Quality    Quality
	Dedup      Dedup
	Embeddings Embeddings
	Cache      Cache
	Kafka      Kafka
	Server     Server
	Pipeline   Pipeline
	Debug      bool
}

// Default returns a configuration populated with the documented defaults.
func Default() Config {
	return Config{
		Quality: DefaultQuality(),
		Dedup:   DefaultDedup(),
		Embeddings: Embeddings{
			Provider: ProviderCohere,
			Timeout:  DefaultEmbedTimeout,
		},
		Cache: Cache{
			Backend:        CacheMemory,
			Dir:            ".cache/embeddings",
			RedisAddr:      "localhost:6379",
			RedisKeyPrefix: "qacurator:emb:",
			S3Prefix:       "embeddings/",
		},
		Kafka: Kafka{
			Brokers:     []string{"localhost:9092"},
			Topic:       "curation-requests",
			ResultTopic: "curation-results",
			GroupID:     "qacurator",
		},
		Server:   Server{Port: "8080"},
		Pipeline: Pipeline{DedupFailurePolicy: DedupFailurePolicyFail},
	}
}

func DefaultQuality() Quality {
	return Quality{
		Weights: Weights{
			Question:   DefaultQuestionWeight,
			Answer:     DefaultAnswerWeight,
			Completion: DefaultCompletionWeight,
		},
		CompletionBonus: CompletionBonus{
			Base:  DefaultBaseBonus,
			Code:  DefaultCodeBonus,
			Image: DefaultImageBonus,
		},
		Threshold: DefaultQualityThreshold,
	}
}

func DefaultDedup() Dedup {
	return Dedup{
		SimilarityThreshold:  DefaultSimilarityThreshold,
		EmbeddingBatchSize:   DefaultEmbeddingBatchSize,
		MaxConcurrentBatches: DefaultMaxConcurrentBatches,
		CacheTTL:             DefaultCacheTTL,
		Workers:              runtime.GOMAXPROCS(0),
	}
}

// Load reads .env if present and overlays environment variables on Default.
func Load() (Config, error) {
	// Non-fatal if missing
	_ = godotenv.Load()

	cfg := Default()

	cfg.Quality.Weights.Question = envFloat("QUALITY_WEIGHT_QUESTION", cfg.Quality.Weights.Question)
	cfg.Quality.Weights.Answer = envFloat("QUALITY_WEIGHT_ANSWER", cfg.Quality.Weights.Answer)
	cfg.Quality.Weights.Completion = envFloat("QUALITY_WEIGHT_COMPLETION", cfg.Quality.Weights.Completion)
	cfg.Quality.CompletionBonus.Base = envFloat("QUALITY_BONUS_BASE", cfg.Quality.CompletionBonus.Base)
	cfg.Quality.CompletionBonus.Code = envFloat("QUALITY_BONUS_CODE", cfg.Quality.CompletionBonus.Code)
	cfg.Quality.CompletionBonus.Image = envFloat("QUALITY_BONUS_IMAGE", cfg.Quality.CompletionBonus.Image)
	cfg.Quality.Threshold = envFloat("QUALITY_THRESHOLD", cfg.Quality.Threshold)

	cfg.Dedup.SimilarityThreshold = envFloat("DEDUP_SIMILARITY_THRESHOLD", cfg.Dedup.SimilarityThreshold)
	cfg.Dedup.EmbeddingBatchSize = envInt("DEDUP_EMBEDDING_BATCH_SIZE", cfg.Dedup.EmbeddingBatchSize)
	cfg.Dedup.MaxConcurrentBatches = envInt("DEDUP_MAX_CONCURRENT_BATCHES", cfg.Dedup.MaxConcurrentBatches)
	cfg.Dedup.Workers = envInt("DEDUP_WORKERS", cfg.Dedup.Workers)
	if secs := envInt("DEDUP_CACHE_TTL_SECONDS", -1); secs >= 0 {
		cfg.Dedup.CacheTTL = time.Duration(secs) * time.Second
	}

	// Prefer Cohere if configured, fall back to OpenAI
	switch {
	case os.Getenv("EMBEDDINGS_PROVIDER") != "":
		cfg.Embeddings.Provider = strings.ToLower(os.Getenv("EMBEDDINGS_PROVIDER"))
	case os.Getenv("COHERE_API_KEY") == "" && os.Getenv("OPENAI_API_KEY") != "":
		cfg.Embeddings.Provider = ProviderOpenAI
	}
	switch cfg.Embeddings.Provider {
	case ProviderCohere:
		cfg.Embeddings.APIKey = os.Getenv("COHERE_API_KEY")
	case ProviderOpenAI:
		cfg.Embeddings.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.Embeddings.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	cfg.Embeddings.Model = envString("EMBEDDINGS_MODEL", cfg.Embeddings.Model)
	if secs := envInt("EMBEDDINGS_TIMEOUT_SECONDS", 0); secs > 0 {
		cfg.Embeddings.Timeout = time.Duration(secs) * time.Second
	}

	cfg.Cache.Backend = strings.ToLower(envString("EMBEDDING_CACHE", cfg.Cache.Backend))
	cfg.Cache.Dir = envString("EMBEDDING_CACHE_DIR", cfg.Cache.Dir)
	cfg.Cache.RedisAddr = envString("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = os.Getenv("REDIS_PASS")
	cfg.Cache.RedisDB = envInt("REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.RedisKeyPrefix = envString("REDIS_KEY_PREFIX", cfg.Cache.RedisKeyPrefix)
	cfg.Cache.S3Bucket = strings.TrimSpace(os.Getenv("S3_BUCKET"))
	if p := strings.TrimSpace(os.Getenv("S3_PREFIX")); p != "" {
		cfg.Cache.S3Prefix = strings.Trim(p, "/") + "/"
	}
	cfg.Cache.S3Region = strings.TrimSpace(os.Getenv("S3_REGION"))
	cfg.Cache.S3Profile = strings.TrimSpace(os.Getenv("S3_PROFILE"))
	cfg.Cache.S3UsePathStyle = envBool("S3_USE_PATH_STYLE", false)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}
	cfg.Kafka.Topic = envString("KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.Kafka.ResultTopic = envString("KAFKA_RESULT_TOPIC", cfg.Kafka.ResultTopic)
	cfg.Kafka.GroupID = envString("KAFKA_GROUP_ID", cfg.Kafka.GroupID)

	cfg.Server.Port = envString("PORT", cfg.Server.Port)
	cfg.Pipeline.DedupFailurePolicy = strings.ToLower(envString("DEDUP_FAILURE_POLICY", cfg.Pipeline.DedupFailurePolicy))
	cfg.Debug = envBool("DEBUG", false)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	errs = append(errs, c.Quality.Validate(), c.Dedup.Validate())

	switch c.Embeddings.Provider {
	case ProviderCohere, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown embeddings provider %q", c.Embeddings.Provider))
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheFile:
		if c.Cache.Dir == "" {
			errs = append(errs, errors.New("file cache requires EMBEDDING_CACHE_DIR"))
		}
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("redis cache requires REDIS_ADDR"))
		}
	case CacheS3:
		if c.Cache.S3Bucket == "" {
			errs = append(errs, errors.New("s3 cache requires S3_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown embedding cache backend %q", c.Cache.Backend))
	}

	switch c.Pipeline.DedupFailurePolicy {
	case DedupFailurePolicyFail, DedupFailurePolicySkip:
	default:
		errs = append(errs, fmt.Errorf("unknown dedup failure policy %q", c.Pipeline.DedupFailurePolicy))
	}
	return errors.Join(errs...)
}

// Validate checks weights, bonuses and threshold.
func (q Quality) Validate() error {
	var errs []error
	w := q.Weights
	if w.Question < 0 || w.Answer < 0 || w.Completion < 0 {
		errs = append(errs, fmt.Errorf("weights must be non-negative: %+v", w))
	}
	if w.Question+w.Answer+w.Completion <= 0 {
		errs = append(errs, errors.New("at least one weight must be positive"))
	}
	b := q.CompletionBonus
	if b.Base < 0 || b.Code < 0 || b.Image < 0 {
		errs = append(errs, fmt.Errorf("completion bonus must be non-negative: %+v", b))
	}
	if q.Threshold < 0 || q.Threshold > 10 {
		errs = append(errs, fmt.Errorf("quality threshold %.2f outside [0,10]", q.Threshold))
	}
	return errors.Join(errs...)
}

// Validate checks the similarity threshold and batching parameters.
func (d Dedup) Validate() error {
	var errs []error
	if d.SimilarityThreshold <= 0 || d.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("similarity threshold %.3f outside (0,1]", d.SimilarityThreshold))
	}
	if d.EmbeddingBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("embedding batch size must be positive, got %d", d.EmbeddingBatchSize))
	}
	if d.MaxConcurrentBatches <= 0 {
		errs = append(errs, fmt.Errorf("max concurrent batches must be positive, got %d", d.MaxConcurrentBatches))
	}
	if d.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache ttl must not be negative, got %s", d.CacheTTL))
	}
	if d.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", d.Workers))
	}
	return errors.Join(errs...)
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
