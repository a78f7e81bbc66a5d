// Package testutil provides common test utilities and helpers for Pathfinder tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/BTreeMap/Pathfinder/internal/models"
)

// StubGenerator is a scripted text generator. It records every prompt it receives.
// When Block is set, Generate waits until Block is closed or the context ends.
type StubGenerator struct {
	Response string
	Err      error
	Block    chan struct{}
	// Started, when set, receives a value as soon as Generate is entered.
	Started chan struct{}

	mu      sync.Mutex
	prompts []string
}

// Generate implements the generator contract used by the flow package.
func (g *StubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if g.Started != nil {
		g.Started <- struct{}{}
	}
	if g.Block != nil {
		select {
		case <-g.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.Response, g.Err
}

// Calls returns how many times Generate was invoked.
func (g *StubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// LastPrompt returns the most recent prompt, or "" when Generate was never called.
func (g *StubGenerator) LastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

// ValidForm returns a complete form.
func ValidForm() models.FormInput {
	return models.FormInput{
		Goal:          "Learn Go for backend development",
		CurrentLevel:  models.LevelBeginner,
		Timeframe:     models.Timeframe3Months,
		LearningStyle: models.LearningStyleHandsOn,
		Background:    "Two years of Python",
		Resources:     "Free resources",
	}
}

// RoadmapJSON returns a roadmap document with the given title and number of phases that
// passes strict validation.
func RoadmapJSON(title string, phases int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `{"title":%q,"overview":{"duration":"3 months","level":"Beginner","style":"Hands-on"},"phases":[`, title)
	for i := 1; i <= phases; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id":"phase%d","title":"Phase %d","duration":"Weeks %d-%d","color":"bg-blue-500","objective":"Objective %d","activities":["Activity %d"],"milestones":["Milestone %d"],"resources":["Resource %d"]}`,
			i, i, 2*i-1, 2*i, i, i, i, i)
	}
	b.WriteString(`],"schedule":{"monday":"Read","tuesday":"Code","wednesday":"Read","thursday":"Code","friday":"Review","saturday":"Project","sunday":"Rest"},`)
	b.WriteString(`"tips":["Be consistent","Build things"],"checkpoints":[{"week":3,"task":"Quiz"},{"week":6,"task":"Project"}]}`)
	return b.String()
}

// GeminiResponseBody wraps text in the generateContent response envelope.
func GeminiResponseBody(t *testing.T, text string) string {
	t.Helper()
	return string(MustMarshalJSON(t, map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"parts": []interface{}{map[string]interface{}{"text": text}},
				},
			},
		},
	}))
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
