package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/lorecheck/lorecheck/internal/cache"
	"github.com/lorecheck/lorecheck/internal/corpus"
	"github.com/lorecheck/lorecheck/internal/model"
	"github.com/lorecheck/lorecheck/internal/oracle"
	"github.com/lorecheck/lorecheck/internal/pipeline"
	"github.com/lorecheck/lorecheck/internal/worker"
)

// loadConfig layers the config file and environment over the defaults.
// Flag overrides are applied by each command afterwards.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	cfg.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
	return cfg, nil
}

// buildPipeline wires the full pipeline: library, embedder-backed index,
// oracle, and one process-wide rate limiter shared by every outbound
// call.
func buildPipeline(cfg *model.Config) (*pipeline.Pipeline, *corpus.Library, error) {
	if cfg.Oracle.APIKey == "" {
		return nil, nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	openaiEmbedder, err := corpus.NewOpenAIEmbedder(cfg.Oracle.APIKey, cfg.Oracle.BaseURL, cfg.Retrieval.EmbeddingModel, limiter)
	if err != nil {
		return nil, nil, fmt.Errorf("create embedder: %w", err)
	}

	// Book embeddings are the expensive part of a run; keep them across
	// runs on disk, with a memory layer for claim queries within a run.
	var embedder corpus.Embedder = openaiEmbedder
	if home, err := os.UserHomeDir(); err == nil {
		store := cache.NewLayeredCache(time.Hour, filepath.Join(home, ".lorecheck", "cache"), 30*24*time.Hour)
		embedder = corpus.NewCachedEmbedder(openaiEmbedder, cfg.Retrieval.EmbeddingModel, store)
	}

	o, err := oracle.New(oracle.ConfigFromModel(cfg.Oracle), limiter)
	if err != nil {
		return nil, nil, fmt.Errorf("create oracle: %w", err)
	}

	library := corpus.NewLibrary(cfg.Books.Dir, cfg.Books.CacheTTL)
	index := corpus.NewMemoryIndex(embedder)

	return pipeline.New(cfg, library, index, o), library, nil
}

// requireBooks aborts before any processing when no corpus is available
// at all.
func requireBooks(library *corpus.Library) error {
	books, err := library.Available()
	if err != nil {
		return fmt.Errorf("no corpus available: %w", err)
	}
	if len(books) == 0 {
		return fmt.Errorf("no corpus available: books directory contains no .txt or .html files")
	}
	return nil
}
