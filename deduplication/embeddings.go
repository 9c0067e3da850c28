package deduplication

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"qacurator/config"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// EmbeddingsProvider abstracts a text->embedding generator.
// Implementations return exactly one vector per input text, in input order.
type EmbeddingsProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// NewEmbeddingsProvider builds the provider selected in cfg.
func NewEmbeddingsProvider(cfg config.Embeddings) (EmbeddingsProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for embeddings provider %q", cfg.Provider)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultEmbedTimeout
	}

	switch cfg.Provider {
	case config.ProviderCohere:
		model := cfg.Model
		if model == "" || !strings.HasPrefix(model, "embed-") {
			model = config.DefaultCohereModel
		}
		// Force HTTP/1.1; the embed endpoint drops HTTP/2 streams under load
		httpClient := &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
				ForceAttemptHTTP2: false,
			},
		}
		client := cohereclient.NewClient(
			cohereclient.WithToken(cfg.APIKey),
			cohereclient.WithHTTPClient(httpClient),
		)
		return &CohereEmbeddings{client: client, model: model, timeout: timeout}, nil

	case config.ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = config.DefaultOpenAIModel
		}
		opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		client := openai.NewClient(opts...)
		return &OpenAIEmbeddings{client: &client, model: model, timeout: timeout}, nil
	}
	return nil, fmt.Errorf("unknown embeddings provider %q", cfg.Provider)
}

// CohereEmbeddings implements EmbeddingsProvider using the Cohere Embed API (v2)
// Docs: https://docs.cohere.com/reference/embed
type CohereEmbeddings struct {
	client  *cohereclient.Client
	model   string
	timeout time.Duration
}

func (c *CohereEmbeddings) ModelName() string { return c.model }

func (c *CohereEmbeddings) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.V2.Embed(
		ctx,
		&cohere.V2EmbedRequest{
			Texts:          texts,
			Model:          c.model,
			InputType:      cohere.EmbedInputTypeSearchDocument,
			EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("cohere embed error: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, errors.New("cohere embed returned no float embeddings")
	}
	return toFloat32(resp.Embeddings.Float), nil
}

// OpenAIEmbeddings implements EmbeddingsProvider against the OpenAI
// embeddings endpoint or any server that speaks the same API.
type OpenAIEmbeddings struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func (o *OpenAIEmbeddings) ModelName() string { return o.model }

func (o *OpenAIEmbeddings) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: o.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings error: %w", err)
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(out) {
			return nil, fmt.Errorf("openai embedding index out of range: %d", d.Index)
		}
		out[idx] = toFloat32([][]float64{d.Embedding})[0]
	}
	return out, nil
}

func toFloat32(in [][]float64) [][]float32 {
	out := make([][]float32, len(in))
	for i, vec := range in {
		fv := make([]float32, len(vec))
		for j, v := range vec {
			fv[j] = float32(v)
		}
		out[i] = fv
	}
	return out
}
