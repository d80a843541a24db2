package corpus

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/lorecheck/lorecheck/internal/cache"
)

// countingEmbedder records how many texts reach the real embedder.
type countingEmbedder struct {
	stub    *stubEmbedder
	batched []int
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.batched = append(c.batched, len(texts))
	return c.stub.Embed(ctx, texts)
}

func TestCachedEmbedder_SkipsCachedVectors(t *testing.T) {
	inner := &countingEmbedder{stub: &stubEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0},
		"beta":  {0, 1},
	}}}
	store := cache.NewMemoryCache(time.Hour, time.Hour)
	cached := NewCachedEmbedder(inner, "test-model", store)

	first, err := cached.Embed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("first Embed failed: %v", err)
	}
	if !reflect.DeepEqual(first, [][]float32{{1, 0}, {0, 1}}) {
		t.Errorf("first Embed returned %v", first)
	}
	if !reflect.DeepEqual(inner.batched, []int{2}) {
		t.Fatalf("expected one batch of 2, got %v", inner.batched)
	}

	// Second call must be served entirely from cache.
	second, err := cached.Embed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("second Embed failed: %v", err)
	}
	if !reflect.DeepEqual(second, first) {
		t.Errorf("cached vectors differ: %v vs %v", second, first)
	}
	if len(inner.batched) != 1 {
		t.Errorf("cache hit still reached the embedder: %v", inner.batched)
	}
}

func TestCachedEmbedder_BatchesOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{stub: &stubEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0},
		"beta":  {0, 1},
		"gamma": {1, 1},
	}}}
	store := cache.NewMemoryCache(time.Hour, time.Hour)
	cached := NewCachedEmbedder(inner, "test-model", store)

	if _, err := cached.Embed(context.Background(), []string{"alpha"}); err != nil {
		t.Fatalf("warmup Embed failed: %v", err)
	}

	// alpha is cached; only beta and gamma should go out, and order must
	// be preserved in the merged result.
	got, err := cached.Embed(context.Background(), []string{"beta", "alpha", "gamma"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	want := [][]float32{{0, 1}, {1, 0}, {1, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Embed returned %v, want %v", got, want)
	}
	if !reflect.DeepEqual(inner.batched, []int{1, 2}) {
		t.Errorf("expected batches [1 2], got %v", inner.batched)
	}
}

func TestCachedEmbedder_DistinguishesModels(t *testing.T) {
	inner := &countingEmbedder{stub: &stubEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0},
	}}}
	store := cache.NewMemoryCache(time.Hour, time.Hour)

	a := NewCachedEmbedder(inner, "model-a", store)
	b := NewCachedEmbedder(inner, "model-b", store)

	if _, err := a.Embed(context.Background(), []string{"alpha"}); err != nil {
		t.Fatalf("Embed under model-a failed: %v", err)
	}
	if _, err := b.Embed(context.Background(), []string{"alpha"}); err != nil {
		t.Fatalf("Embed under model-b failed: %v", err)
	}
	if len(inner.batched) != 2 {
		t.Errorf("different models shared a cache entry: %v", inner.batched)
	}
}

func TestCachedEmbedder_EmptyInput(t *testing.T) {
	inner := &countingEmbedder{stub: &stubEmbedder{}}
	cached := NewCachedEmbedder(inner, "test-model", cache.NewMemoryCache(time.Hour, time.Hour))

	got, err := cached.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	if len(inner.batched) != 0 {
		t.Errorf("empty input reached the embedder: %v", inner.batched)
	}
}
