package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lorecheck/lorecheck/internal/model"
	"github.com/lorecheck/lorecheck/internal/worker"
)

// Oracle is the reasoning boundary: it decomposes a backstory into atomic
// claims and judges one claim against retrieved passages. Judge returns an
// untrusted payload; callers must validate it before use.
type Oracle interface {
	// Name returns the provider name
	Name() string

	// Decompose extracts atomic, self-contained claims from a backstory,
	// in narrative order.
	Decompose(ctx context.Context, req DecomposeRequest) ([]string, error)

	// Judge evaluates one claim against the retrieved passages and
	// returns the decoded JSON payload as-is.
	Judge(ctx context.Context, req JudgeRequest) (map[string]any, error)
}

// DecomposeRequest identifies the backstory to break into claims.
type DecomposeRequest struct {
	Character string
	Book      string
	Backstory string
}

// JudgeRequest carries one claim plus the evidence passages retrieved for
// it. Passages may be empty: a retrieval-degraded claim is still judged.
type JudgeRequest struct {
	Character string
	Book      string
	Claim     string
	Passages  []model.Passage
}

// Config holds oracle provider configuration
type Config struct {
	// Provider name: currently "openai"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for the provider
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout per API request
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   60 * time.Second,
		MaxTokens: 1000,
	}
}

// ConfigFromModel converts model.OracleConfig to oracle.Config
func ConfigFromModel(mc model.OracleConfig) Config {
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   mc.Timeout,
		MaxTokens: mc.MaxTokens,
	}
}

// New creates an oracle for the configured provider. All outbound calls
// are gated by the shared limiter.
func New(config Config, limiter *worker.Limiter) (Oracle, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "":
		return NewOpenAIOracle(config, limiter)
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: openai)", config.Provider)
	}
}
