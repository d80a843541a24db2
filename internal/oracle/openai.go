package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/lorecheck/lorecheck/internal/worker"
)

// OpenAIOracle implements the Oracle interface via OpenAI chat
// completions.
type OpenAIOracle struct {
	client  *openai.Client
	config  Config
	limiter *worker.Limiter
}

// NewOpenAIOracle creates a new OpenAI-backed oracle
func NewOpenAIOracle(config Config, limiter *worker.Limiter) (*OpenAIOracle, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIOracle{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		limiter: limiter,
	}, nil
}

// Name returns the provider name
func (o *OpenAIOracle) Name() string {
	return "openai"
}

// Decompose asks the model for 5-7 atomic claims and parses the returned
// JSON array of strings. Blank entries are dropped.
func (o *OpenAIOracle) Decompose(ctx context.Context, req DecomposeRequest) ([]string, error) {
	raw, err := o.complete(ctx, buildDecomposePrompt(req))
	if err != nil {
		return nil, err
	}

	parsed, err := ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decompose response: %w", err)
	}

	items, ok := parsed.([]any)
	if !ok {
		return nil, fmt.Errorf("decompose response: expected a JSON array of claims, got %T", parsed)
	}

	var claims []string
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			claims = append(claims, strings.TrimSpace(s))
		}
	}
	return claims, nil
}

// Judge evaluates one claim against its passages and returns the decoded
// JSON object without interpreting it.
func (o *OpenAIOracle) Judge(ctx context.Context, req JudgeRequest) (map[string]any, error) {
	raw, err := o.complete(ctx, buildJudgePrompt(req))
	if err != nil {
		return nil, err
	}

	parsed, err := ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("judge response: %w", err)
	}

	payload, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("judge response: expected a JSON object, got %T", parsed)
	}
	return payload, nil
}

// complete performs one rate-limited chat completion call.
func (o *OpenAIOracle) complete(ctx context.Context, prompt string) (string, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	model := o.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := o.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}

	callCtx := ctx
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	resp, err := o.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a careful literary analyst. Respond with JSON only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2, // Low temperature for focused, checkable output
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
