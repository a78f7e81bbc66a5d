// Package genai provides text generation against hosted generative-text APIs.
//
// Two providers are supported: the Gemini generateContent REST endpoint (the default) and any
// OpenAI-compatible chat completion endpoint through openai-go. Both satisfy Generator.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DefaultGeminiEndpoint is used when no endpoint is configured.
const DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

// DefaultOpenAIModel is used when no model is configured for the OpenAI provider.
const DefaultOpenAIModel = "gpt-4o-mini"

// Error variables for better error handling and testability
var (
	// ErrMissingAPIKey is a configuration error: no credential was configured.
	ErrMissingAPIKey = errors.New("API key is missing. Please configure the API key in your .env file")
	// ErrInvalidResponseShape means the API answered but not in the expected structure.
	ErrInvalidResponseShape = errors.New("Invalid response structure from the generative API")
	// ErrNoChoicesReturned means an OpenAI-compatible endpoint returned no choices.
	ErrNoChoicesReturned = errors.New("no choices returned")
	// ErrUnknownProvider is returned by New for unsupported provider names.
	ErrUnknownProvider = errors.New("unknown genai provider")
)

// APIError reports a non-success HTTP status from the generative API.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error: %d", e.StatusCode)
}

// Generator turns a prompt into raw generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Opts holds configuration shared by all providers.
type Opts struct {
	Provider   string
	APIKey     string
	Endpoint   string
	Model      string
	HTTPClient *http.Client
}

// Option defines a configuration option for generators.
type Option func(*Opts)

// WithProvider selects the provider ("gemini" or "openai").
func WithProvider(provider string) Option {
	return func(o *Opts) {
		o.Provider = provider
	}
}

// WithAPIKey sets the API credential.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithEndpoint overrides the endpoint URL (Gemini) or base URL (OpenAI-compatible).
func WithEndpoint(endpoint string) Option {
	return func(o *Opts) {
		o.Endpoint = endpoint
	}
}

// WithModel sets the model name used by the OpenAI-compatible provider.
func WithModel(model string) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Opts) {
		o.HTTPClient = client
	}
}

// New builds the Generator for the configured provider. A missing API key is not an error here;
// it is reported by Generate so callers can surface it to the user.
func New(opts ...Option) (Generator, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	switch cfg.Provider {
	case "", ProviderGemini:
		return NewGeminiClient(opts...), nil
	case ProviderOpenAI:
		return NewOpenAIClient(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
