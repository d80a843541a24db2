package model

import "time"

// Config is the complete runtime configuration. Values are layered:
// CLI flags > LORECHECK_* env vars > config file > DefaultConfig.
type Config struct {
	Books       BooksConfig       `yaml:"books" mapstructure:"books"`
	Retrieval   RetrievalConfig   `yaml:"retrieval" mapstructure:"retrieval"`
	Oracle      OracleConfig      `yaml:"oracle" mapstructure:"oracle"`
	Decision    DecisionConfig    `yaml:"decision" mapstructure:"decision"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// BooksConfig locates the corpus sources.
type BooksConfig struct {
	Dir      string        `yaml:"dir" mapstructure:"dir"`             // Directory of .txt/.html book files
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"` // Book text cache lifetime
}

// RetrievalConfig controls chunking and similarity search.
type RetrievalConfig struct {
	TopK           int    `yaml:"top_k" mapstructure:"top_k"`                     // Passages retrieved per claim
	ChunkWords     int    `yaml:"chunk_words" mapstructure:"chunk_words"`         // Words per chunk
	OverlapWords   int    `yaml:"overlap_words" mapstructure:"overlap_words"`     // Words shared between consecutive chunks
	EmbeddingModel string `yaml:"embedding_model" mapstructure:"embedding_model"` // Embedding model name
}

// OracleConfig configures the reasoning oracle boundary.
type OracleConfig struct {
	Provider   string        `yaml:"provider" mapstructure:"provider"` // Currently "openai"
	Model      string        `yaml:"model" mapstructure:"model"`
	APIKey     string        `yaml:"-" mapstructure:"-"` // From OPENAI_API_KEY, never persisted
	BaseURL    string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per external call
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	MaxTokens  int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DecisionConfig parameterizes the aggregation rule.
type DecisionConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	MinContradictions   int     `yaml:"min_contradictions" mapstructure:"min_contradictions"`
}

// ConcurrencyConfig bounds parallel work.
type ConcurrencyConfig struct {
	ClaimWorkers int `yaml:"claim_workers" mapstructure:"claim_workers"` // Concurrent claim evaluations per case
	CaseWorkers  int `yaml:"case_workers" mapstructure:"case_workers"`   // Concurrent cases in a batch
}

// RateLimitConfig is the process-wide outbound request budget shared by
// every oracle and index call.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// OutputConfig controls CLI reporting.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Books: BooksConfig{
			Dir:      "./books",
			CacheTTL: 30 * time.Minute,
		},
		Retrieval: RetrievalConfig{
			TopK:           7,
			ChunkWords:     3000,
			OverlapWords:   500,
			EmbeddingModel: "text-embedding-3-small",
		},
		Oracle: OracleConfig{
			Provider:   "openai",
			Model:      "gpt-4o-mini",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
			MaxTokens:  1000,
		},
		Decision: DecisionConfig{
			ConfidenceThreshold: 0.65,
			MinContradictions:   2,
		},
		Concurrency: ConcurrencyConfig{
			ClaimWorkers: 4,
			CaseWorkers:  1,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Output: OutputConfig{},
	}
}
