package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/BTreeMap/Pathfinder/internal/models"
	"github.com/BTreeMap/Pathfinder/internal/testutil"
)

func TestBuildPrompt(t *testing.T) {
	form := testutil.ValidForm()
	prompt := BuildPrompt(form)

	for _, want := range []string{
		"Goal: " + form.Goal,
		"Current Level: Beginner",
		"Timeframe: 3 months",
		"Learning Style: Hands-on",
		"Background: " + form.Background,
		"Preferred Resources: " + form.Resources,
		`"phases": [`,
		`"checkpoints": [`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if BuildPrompt(form) != prompt {
		t.Error("BuildPrompt should be deterministic")
	}
}

func TestBuildPrompt_OptionalFieldsEmpty(t *testing.T) {
	form := models.FormInput{Goal: "Paint", CurrentLevel: models.LevelAdvanced, Timeframe: models.Timeframe1Year}
	prompt := BuildPrompt(form)
	if !strings.Contains(prompt, "Learning Style: \n") {
		t.Errorf("expected empty learning style line, got prompt:\n%s", prompt)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		phases int
		want   []models.Icon
	}{
		{phases: 1, want: []models.Icon{models.IconBookOpen}},
		{phases: 4, want: []models.Icon{models.IconBookOpen, models.IconTrendingUp, models.IconStar, models.IconAward}},
		{phases: 6, want: []models.Icon{models.IconBookOpen, models.IconTrendingUp, models.IconStar, models.IconAward, models.IconBookOpen, models.IconTrendingUp}},
	}
	for _, tt := range tests {
		r, err := ParseRoadmap(testutil.RoadmapJSON("Icons", tt.phases))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		Normalize(r)
		var got []models.Icon
		var ids []string
		for _, p := range r.Phases {
			got = append(got, p.Icon)
			ids = append(ids, p.ID)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%d phases: icon mismatch (-want +got):\n%s", tt.phases, diff)
		}
		if ids[0] != "phase1" || ids[len(ids)-1] != r.Phases[len(r.Phases)-1].ID {
			t.Errorf("phase order changed: %v", ids)
		}
	}
	if Normalize(nil) != nil {
		t.Error("Normalize(nil) should return nil")
	}
}

func TestGenerateRoadmap(t *testing.T) {
	gen := &testutil.StubGenerator{Response: "```json\n" + testutil.RoadmapJSON("Learn Go", 4) + "\n```"}
	r, err := GenerateRoadmap(context.Background(), gen, testutil.ValidForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Phases[3].Icon != models.IconAward {
		t.Errorf("expected normalized icons, got %q", r.Phases[3].Icon)
	}
	if !strings.Contains(gen.LastPrompt(), "Goal: Learn Go for backend development") {
		t.Error("generator did not receive the built prompt")
	}
}

func TestGenerateRoadmap_GeneratorError(t *testing.T) {
	boom := errors.New("boom")
	gen := &testutil.StubGenerator{Err: boom}
	if _, err := GenerateRoadmap(context.Background(), gen, testutil.ValidForm()); !errors.Is(err, boom) {
		t.Errorf("expected generator error, got %v", err)
	}
}
