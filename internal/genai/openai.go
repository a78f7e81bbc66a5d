package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// chatService defines minimal interface for chat completions.
type chatService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIClient wraps the OpenAI chat completion service for any OpenAI-compatible endpoint.
type OpenAIClient struct {
	chat   chatService
	apiKey string
	model  string
}

// NewOpenAIClient initializes a client. Retries are disabled: a failed generation is retried
// only when the user asks for it.
func NewOpenAIClient(opts ...Option) *OpenAIClient {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.Endpoint != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.Endpoint))
	}
	if cfg.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.HTTPClient))
	}
	cli := openai.NewClient(reqOpts...)
	slog.Debug("NewOpenAIClient invoked", "model", model, "base_url_set", cfg.Endpoint != "", "api_key_set", cfg.APIKey != "")
	return &OpenAIClient{chat: &cli.Chat.Completions, apiKey: cfg.APIKey, model: model}
}

// Generate sends prompt as a single user message and returns the first choice's content.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		slog.Warn("OpenAIClient.Generate: API key not configured")
		return "", ErrMissingAPIKey
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}
	slog.Debug("OpenAIClient.Generate: sending request", "model", c.model, "prompt_length", len(prompt))
	resp, err := c.chat.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			slog.Warn("OpenAIClient.Generate: non-success status", "status", apiErr.StatusCode)
			return "", &APIError{StatusCode: apiErr.StatusCode}
		}
		slog.Error("OpenAIClient.Generate: request failed", "error", err)
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		slog.Warn("OpenAIClient.Generate: no choices in response")
		return "", fmt.Errorf("%w: %w", ErrInvalidResponseShape, ErrNoChoicesReturned)
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrInvalidResponseShape
	}
	slog.Debug("OpenAIClient.Generate: received response", "text_length", len(content))
	return content, nil
}
