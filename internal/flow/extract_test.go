package flow

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/BTreeMap/Pathfinder/internal/models"
	"github.com/BTreeMap/Pathfinder/internal/testutil"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "bare object", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "surrounding prose", raw: `Here is your plan: {"title":"X"} Thanks!`, want: `{"title":"X"}`},
		{name: "markdown fence", raw: "```json\n{\"a\":{\"b\":2}}\n```", want: `{"a":{"b":2}}`},
		{name: "greedy across prose braces", raw: `{"a":1} and {b}`, want: `{"a":1} and {b}`},
		{name: "no braces", raw: "no json here", wantErr: ErrNoJSONFound},
		{name: "empty", raw: "", wantErr: ErrNoJSONFound},
		{name: "only opening brace", raw: "{ unfinished", wantErr: ErrNoJSONFound},
		{name: "reversed braces", raw: "} then {", wantErr: ErrNoJSONFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractJSON_ErrorMessage(t *testing.T) {
	_, err := ExtractJSON("nothing")
	if err == nil || err.Error() != "No valid JSON found in response" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestBalancedObjects(t *testing.T) {
	raw := `prefix {"a":"}"} middle {"b":{"c":"\"{"}} tail } {unterminated`
	want := []string{`{"a":"}"}`, `{"b":{"c":"\"{"}}`}
	if diff := cmp.Diff(want, balancedObjects(raw)); diff != "" {
		t.Errorf("balancedObjects mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancedObjects_StrayOpeningBrace(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "prose brace before object", raw: `use { for blocks. {"title":"X"}`, want: []string{`{"title":"X"}`}},
		{name: "prose brace with quote", raw: `a { "b {"c":1} end`, want: []string{`{"c":1}`}},
		{name: "nested stray braces", raw: `{ { {"a":1}`, want: []string{`{"a":1}`}},
		{name: "only unterminated", raw: `{ {`, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, balancedObjects(tt.raw)); diff != "" {
				t.Errorf("balancedObjects mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeRoadmap_StrayBraceBeforeRoadmap(t *testing.T) {
	raw := "Use { for blocks. " + testutil.RoadmapJSON("After Stray", 2)
	r, err := DecodeRoadmap(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "After Stray" {
		t.Errorf("expected title After Stray, got %q", r.Title)
	}
}

func TestParseRoadmap(t *testing.T) {
	r, err := ParseRoadmap(testutil.RoadmapJSON("Learn Go", 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Learn Go" || len(r.Phases) != 4 {
		t.Errorf("unexpected roadmap: title=%q phases=%d", r.Title, len(r.Phases))
	}

	if _, err := ParseRoadmap(`{"title": }`); !errors.Is(err, ErrMalformedJSON) {
		t.Errorf("expected ErrMalformedJSON, got %v", err)
	}
	if _, err := ParseRoadmap(`{"title":"X"}`); !errors.Is(err, models.ErrSchemaViolation) {
		t.Errorf("expected ErrSchemaViolation for missing phases, got %v", err)
	}
}

func TestDecodeRoadmap_Greedy(t *testing.T) {
	raw := "Here is your plan:\n" + testutil.RoadmapJSON("Greedy", 2) + "\nGood luck!"
	r, err := DecodeRoadmap(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Greedy" {
		t.Errorf("expected title Greedy, got %q", r.Title)
	}
}

func TestDecodeRoadmap_FallsBackToBalancedObject(t *testing.T) {
	raw := testutil.RoadmapJSON("Fallback", 3) + "\nRemember to replace {placeholders} as needed."
	r, err := DecodeRoadmap(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Fallback" || len(r.Phases) != 3 {
		t.Errorf("unexpected roadmap: title=%q phases=%d", r.Title, len(r.Phases))
	}
}

func TestDecodeRoadmap_Errors(t *testing.T) {
	if _, err := DecodeRoadmap("sorry, I cannot help"); !errors.Is(err, ErrNoJSONFound) {
		t.Errorf("expected ErrNoJSONFound, got %v", err)
	}
	if _, err := DecodeRoadmap("{not json} and {also not}"); !errors.Is(err, ErrMalformedJSON) {
		t.Errorf("expected ErrMalformedJSON, got %v", err)
	}
	_, err := DecodeRoadmap(`{"title":"No phases","phases":[]}`)
	if !errors.Is(err, models.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
	if !strings.Contains(err.Error(), "phases") {
		t.Errorf("expected error to name the phases field, got %v", err)
	}
}
