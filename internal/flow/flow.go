// Package flow implements the roadmap generation pipeline and the per-session controller that
// drives it: form validation, prompt construction, generation, extraction, strict parsing and
// icon normalization.
package flow

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/Pathfinder/internal/genai"
	"github.com/BTreeMap/Pathfinder/internal/models"
)

// GenerateRoadmap runs the whole pipeline once for an already validated form.
func GenerateRoadmap(ctx context.Context, gen genai.Generator, form models.FormInput) (*models.Roadmap, error) {
	prompt := BuildPrompt(form)
	slog.Debug("Flow GenerateRoadmap invoked", "prompt_length", len(prompt))
	raw, err := gen.Generate(ctx, prompt)
	if err != nil {
		slog.Error("Flow generator error", "error", err)
		return nil, err
	}
	roadmap, err := DecodeRoadmap(raw)
	if err != nil {
		slog.Warn("Flow could not decode generated roadmap", "error", err, "raw_length", len(raw))
		return nil, err
	}
	slog.Debug("Flow GenerateRoadmap succeeded", "phases", len(roadmap.Phases))
	return Normalize(roadmap), nil
}
