package flow

import "github.com/BTreeMap/Pathfinder/internal/models"

// State is the orchestrator's position in the generation lifecycle.
type State string

const (
	// StateIdle means nothing has been submitted yet.
	StateIdle State = "idle"
	// StateLoading means a generation request is in flight.
	StateLoading State = "loading"
	// StateSuccess means the last generation produced a roadmap.
	StateSuccess State = "success"
	// StateFailed means the last generation failed.
	StateFailed State = "failed"
)

// DisplayMode names the single thing that drives the display at a time.
type DisplayMode string

const (
	DisplayEmpty   DisplayMode = "empty"
	DisplayLoading DisplayMode = "loading"
	DisplayError   DisplayMode = "error"
	DisplayResult  DisplayMode = "result"
)

// Snapshot is a read-only copy of a controller's state handed to display layers.
type Snapshot struct {
	State     State            `json:"state"`
	Form      models.FormInput `json:"form"`
	UI        models.UIState   `json:"ui"`
	Roadmap   *models.Roadmap  `json:"roadmap,omitempty"`
	Retryable bool             `json:"retryable"`
}

// Display picks what to show: loading suppresses both error and result, and an error message
// takes precedence over a roadmap kept from an earlier success.
func (s Snapshot) Display() DisplayMode {
	switch {
	case s.UI.IsLoading:
		return DisplayLoading
	case s.UI.ErrorMessage != "":
		return DisplayError
	case s.Roadmap != nil:
		return DisplayResult
	default:
		return DisplayEmpty
	}
}

// IsExpanded reports whether the phase is currently expanded.
func (s Snapshot) IsExpanded(phaseID string) bool {
	for _, id := range s.UI.ExpandedPhaseIDs {
		if id == phaseID {
			return true
		}
	}
	return false
}
