package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content *geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

// NewGeminiClient creates a Gemini client. The endpoint defaults to DefaultGeminiEndpoint and the
// HTTP client to one without a timeout.
func NewGeminiClient(opts ...Option) *GeminiClient {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultGeminiEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	slog.Debug("NewGeminiClient invoked", "endpoint", endpoint, "api_key_set", cfg.APIKey != "")
	return &GeminiClient{apiKey: cfg.APIKey, endpoint: endpoint, http: httpClient}
}

// Generate sends prompt as a single user turn and returns the text of the first candidate part.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		slog.Warn("GeminiClient.Generate: API key not configured")
		return "", ErrMissingAPIKey
	}

	reqURL, err := c.requestURL()
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}})
	if err != nil {
		return "", fmt.Errorf("failed to encode gemini request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("GeminiClient.Generate: sending request", "endpoint", c.endpoint, "prompt_length", len(prompt))
	resp, err := c.http.Do(req)
	if err != nil {
		err = stripRequestURL(err)
		slog.Error("GeminiClient.Generate: request failed", "endpoint", c.endpoint, "error", err)
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Debug("GeminiClient.Generate: failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		slog.Warn("GeminiClient.Generate: non-success status", "status", resp.StatusCode)
		return "", &APIError{StatusCode: resp.StatusCode}
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		slog.Warn("GeminiClient.Generate: failed to decode response", "error", err)
		return "", fmt.Errorf("%w: %v", ErrInvalidResponseShape, err)
	}
	text, ok := decoded.firstText()
	if !ok {
		slog.Warn("GeminiClient.Generate: response missing candidates[0].content.parts[0].text")
		return "", ErrInvalidResponseShape
	}
	slog.Debug("GeminiClient.Generate: received response", "text_length", len(text))
	return text, nil
}

// requestURL appends the credential as the key query parameter, keeping any query the endpoint
// already carries.
func (c *GeminiClient) requestURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid gemini endpoint %q: %w", c.endpoint, err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// stripRequestURL removes the request URL, whose query holds the key, from a transport error.
func stripRequestURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

func (r geminiResponse) firstText() (string, bool) {
	if len(r.Candidates) == 0 {
		return "", false
	}
	content := r.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", false
	}
	text := content.Parts[0].Text
	if text == "" {
		return "", false
	}
	return text, true
}
