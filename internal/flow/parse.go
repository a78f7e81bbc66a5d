package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/Pathfinder/internal/models"
)

// ErrMalformedJSON is returned when the extracted span does not decode as a roadmap.
var ErrMalformedJSON = errors.New("malformed roadmap JSON")

// ParseRoadmap decodes jsonText and validates the result strictly.
func ParseRoadmap(jsonText string) (*models.Roadmap, error) {
	var roadmap models.Roadmap
	if err := json.Unmarshal([]byte(jsonText), &roadmap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if err := roadmap.Validate(); err != nil {
		return nil, err
	}
	return &roadmap, nil
}

// DecodeRoadmap extracts and parses the roadmap embedded in generated text. The greedy span is
// tried first; if it does not decode, each balanced object in the text is tried in turn and the
// first valid one wins. When nothing works the greedy span's error is returned.
func DecodeRoadmap(raw string) (*models.Roadmap, error) {
	span, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	roadmap, err := ParseRoadmap(span)
	if err == nil {
		return roadmap, nil
	}
	if !errors.Is(err, ErrMalformedJSON) {
		return nil, err
	}

	candidates := balancedObjects(raw)
	slog.Debug("DecodeRoadmap: greedy span failed, trying balanced candidates", "error", err, "candidates", len(candidates))
	for i, candidate := range candidates {
		if candidate == span {
			continue
		}
		if fallback, ferr := ParseRoadmap(candidate); ferr == nil {
			slog.Debug("DecodeRoadmap: recovered roadmap from balanced candidate", "index", i)
			return fallback, nil
		}
	}
	return nil, err
}
