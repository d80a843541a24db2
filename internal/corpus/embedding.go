package corpus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/lorecheck/lorecheck/internal/cache"
	"github.com/lorecheck/lorecheck/internal/worker"
)

// Embedder turns text into vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEmbedder implements Embedder via the OpenAI embeddings API. Every
// call goes through the shared process-wide limiter.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	limiter *worker.Limiter
}

// NewOpenAIEmbedder creates an embedder for the given model.
func NewOpenAIEmbedder(apiKey, baseURL, model string, limiter *worker.Limiter) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		limiter: limiter,
	}, nil
}

// Embed returns one vector per input text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// CachedEmbedder wraps an Embedder with a vector cache keyed on the
// embedding model and the exact input text. Cache failures are treated
// as misses; they never fail a batch.
type CachedEmbedder struct {
	inner Embedder
	model string
	store cache.Cache
}

// NewCachedEmbedder creates a caching wrapper around inner. The model
// name is part of every cache key so switching models never serves
// stale vectors.
func NewCachedEmbedder(inner Embedder, model string, store cache.Cache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, model: model, store: store}
}

// Embed returns one vector per input text, in input order. Only cache
// misses are forwarded to the wrapped embedder, as a single batch.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		data, found := e.store.Get(cache.Key(e.model, text))
		if !found {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
			continue
		}
		var vec []float32
		if err := json.Unmarshal(data, &vec); err != nil {
			missTexts = append(missTexts, text)
			missIdx = append(missIdx, i)
			continue
		}
		vectors[i] = vec
	}

	if len(missTexts) > 0 {
		fresh, err := e.inner.Embed(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(fresh) != len(missTexts) {
			return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(missTexts), len(fresh))
		}
		for j, vec := range fresh {
			vectors[missIdx[j]] = vec
			if data, err := json.Marshal(vec); err == nil {
				_ = e.store.Set(cache.Key(e.model, missTexts[j]), data, 0)
			}
		}
	}

	return vectors, nil
}
