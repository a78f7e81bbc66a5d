package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

func geminiServer(t *testing.T, status int, body string, seen *geminiRequest, query *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		if query != nil {
			*query = r.URL.RawQuery
		}
		if seen != nil {
			data, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(data, seen); err != nil {
				t.Errorf("request body is not JSON: %v", err)
			}
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
}

func TestGeminiGenerate_Success(t *testing.T) {
	var seen geminiRequest
	var query string
	srv := geminiServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"Hello World"}]}}]}`, &seen, &query)
	defer srv.Close()

	client := NewGeminiClient(WithAPIKey("secret"), WithEndpoint(srv.URL+"/v1/models/x:generateContent"))
	out, err := client.Generate(context.Background(), "my prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello World" {
		t.Errorf("expected 'Hello World', got '%s'", out)
	}
	if query != "key=secret" {
		t.Errorf("expected key query parameter, got %q", query)
	}
	want := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: "my prompt"}}}}}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestGeminiGenerate_KeepsEndpointQuery(t *testing.T) {
	var query string
	srv := geminiServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`, nil, &query)
	defer srv.Close()

	client := NewGeminiClient(WithAPIKey("k"), WithEndpoint(srv.URL+"?alt=json"))
	if _, err := client.Generate(context.Background(), "p"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(query, "alt=json") || !strings.Contains(query, "key=k") {
		t.Errorf("expected both query parameters, got %q", query)
	}
}

func TestGeminiGenerate_StatusError(t *testing.T) {
	srv := geminiServer(t, http.StatusInternalServerError, `{"error":"boom"}`, nil, nil)
	defer srv.Close()

	client := NewGeminiClient(WithAPIKey("k"), WithEndpoint(srv.URL))
	_, err := client.Generate(context.Background(), "p")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", apiErr.StatusCode)
	}
	if err.Error() != "API Error: 500" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestGeminiGenerate_InvalidShape(t *testing.T) {
	bodies := map[string]string{
		"no candidates":   `{"candidates":[]}`,
		"no content":      `{"candidates":[{}]}`,
		"no parts":        `{"candidates":[{"content":{"parts":[]}}]}`,
		"empty text":      `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
		"not json":        `<html>oops</html>`,
		"different shape": `{"choices":[{"message":{"content":"hi"}}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := geminiServer(t, http.StatusOK, body, nil, nil)
			defer srv.Close()
			client := NewGeminiClient(WithAPIKey("k"), WithEndpoint(srv.URL))
			_, err := client.Generate(context.Background(), "p")
			if !errors.Is(err, ErrInvalidResponseShape) {
				t.Errorf("expected ErrInvalidResponseShape, got %v", err)
			}
		})
	}
}

func TestGeminiGenerate_MissingKeySkipsNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	client := NewGeminiClient(WithEndpoint(srv.URL))
	_, err := client.Generate(context.Background(), "p")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Error("expected no request when the API key is missing")
	}
}

func TestGeminiGenerate_TransportErrorHidesKey(t *testing.T) {
	const key = "SUPERSECRET123"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL + "/gen"
	srv.Close()

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	client := NewGeminiClient(WithAPIKey(key), WithEndpoint(endpoint))
	_, err := client.Generate(context.Background(), "p")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if strings.Contains(err.Error(), key) {
		t.Errorf("error exposes the API key: %v", err)
	}
	if strings.Contains(logs.String(), key) {
		t.Errorf("log output exposes the API key:\n%s", logs.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Generate(ctx, "p")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled to survive, got %v", err)
	}
	if err != nil && strings.Contains(err.Error(), key) {
		t.Errorf("error exposes the API key: %v", err)
	}
}

func TestNewGeminiClient_DefaultEndpoint(t *testing.T) {
	client := NewGeminiClient(WithAPIKey("k"))
	if client.endpoint != DefaultGeminiEndpoint {
		t.Errorf("expected default endpoint, got %q", client.endpoint)
	}
}

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp   *openai.ChatCompletion
	err    error
	params openai.ChatCompletionNewParams
}

func (m *mockChatService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.params = params
	return m.resp, m.err
}

func TestOpenAIGenerate_Success(t *testing.T) {
	mock := &mockChatService{resp: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "Hello World"}},
		},
	}}
	client := &OpenAIClient{chat: mock, apiKey: "k", model: "test-model"}
	out, err := client.Generate(context.Background(), "user prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello World" {
		t.Errorf("expected 'Hello World', got '%s'", out)
	}
	if string(mock.params.Model) != "test-model" {
		t.Errorf("expected model test-model, got %q", mock.params.Model)
	}
	if len(mock.params.Messages) != 1 {
		t.Errorf("expected a single message, got %d", len(mock.params.Messages))
	}
}

func TestOpenAIGenerate_StatusError(t *testing.T) {
	client := &OpenAIClient{chat: &mockChatService{err: &openai.Error{StatusCode: 429}}, apiKey: "k", model: "m"}
	_, err := client.Generate(context.Background(), "p")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 429 {
		t.Errorf("expected APIError 429, got %v", err)
	}
}

func TestOpenAIGenerate_TransportError(t *testing.T) {
	client := &OpenAIClient{chat: &mockChatService{err: errors.New("service failure")}, apiKey: "k", model: "m"}
	_, err := client.Generate(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestOpenAIGenerate_NoChoices(t *testing.T) {
	client := &OpenAIClient{chat: &mockChatService{resp: &openai.ChatCompletion{}}, apiKey: "k", model: "m"}
	_, err := client.Generate(context.Background(), "p")
	if !errors.Is(err, ErrInvalidResponseShape) || !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected invalid shape with no choices, got %v", err)
	}
}

func TestOpenAIGenerate_MissingKey(t *testing.T) {
	mock := &mockChatService{}
	client := &OpenAIClient{chat: mock, model: "m"}
	_, err := client.Generate(context.Background(), "p")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
	if mock.params.Model != "" {
		t.Error("expected no call when the API key is missing")
	}
}

func TestNew(t *testing.T) {
	gen, err := New(WithAPIKey("k"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := gen.(*GeminiClient); !ok {
		t.Errorf("expected Gemini by default, got %T", gen)
	}

	gen, err = New(WithProvider(ProviderOpenAI), WithAPIKey("k"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if oc, ok := gen.(*OpenAIClient); !ok || oc.model != DefaultOpenAIModel {
		t.Errorf("expected OpenAI client with default model, got %#v", gen)
	}

	if _, err := New(WithProvider("carrier-pigeon")); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}
