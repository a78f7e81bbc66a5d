package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/BTreeMap/Pathfinder/internal/genai"
	"github.com/BTreeMap/Pathfinder/internal/models"
)

// FailurePrefix starts every message describing a failed generation.
const FailurePrefix = "Failed to generate roadmap:"

// Error variables for controller transitions
var (
	// ErrSubmitInProgress is returned when a submit arrives while a request is in flight.
	ErrSubmitInProgress = errors.New("a roadmap is already being generated")
	// ErrFormLocked is returned when a field is edited while a request is in flight.
	ErrFormLocked = errors.New("the form cannot be edited while a roadmap is being generated")
	// ErrGeneratorPanic wraps a panic raised while generating.
	ErrGeneratorPanic = errors.New("unexpected failure while generating")
)

// Controller owns the form, the UI state and the current roadmap of one session. Display layers
// read it through Snapshot and change it only through UpdateField, Submit and TogglePhase.
type Controller struct {
	gen genai.Generator

	mu       sync.Mutex
	form     models.FormInput
	state    State
	loading  bool
	errMsg   string
	lastErr  error
	roadmap  *models.Roadmap
	expanded map[string]struct{}
}

// NewController creates an idle controller that generates with gen.
func NewController(gen genai.Generator) *Controller {
	return &Controller{
		gen:      gen,
		state:    StateIdle,
		expanded: make(map[string]struct{}),
	}
}

// UpdateField sets one form field. No validation happens here and no other state changes.
// The form is read-only while a request is in flight.
func (c *Controller) UpdateField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrFormLocked
	}
	return c.form.Set(name, value)
}

// SetForm replaces every form field at once.
func (c *Controller) SetForm(f models.FormInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrFormLocked
	}
	c.form = f
	return nil
}

// Validate checks the current form without changing any state.
func (c *Controller) Validate() error {
	c.mu.Lock()
	form := c.form
	c.mu.Unlock()
	return form.Validate()
}

// Submit validates the form and, when it is complete, generates a roadmap from it. A validation
// failure sets the error message and makes no network call. The lock is not held while the
// generator runs; all state changes happen before the call or after it returns.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		slog.Debug("Controller.Submit: rejected, request in flight")
		return ErrSubmitInProgress
	}
	form := c.form
	if err := form.Validate(); err != nil {
		c.errMsg = err.Error()
		c.lastErr = err
		c.mu.Unlock()
		slog.Debug("Controller.Submit: validation failed", "error", err)
		return err
	}
	c.loading = true
	c.errMsg = ""
	c.lastErr = nil
	c.state = StateLoading
	c.mu.Unlock()

	slog.Info("Controller.Submit: generating roadmap", "level", form.CurrentLevel, "timeframe", form.Timeframe)
	roadmap, err := c.generate(ctx, form)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.state = StateFailed
		c.errMsg = FailureMessage(err)
		c.lastErr = err
		slog.Warn("Controller.Submit: generation failed", "error", err, "retryable", IsRetryable(err))
		return err
	}
	c.roadmap = roadmap
	c.state = StateSuccess
	c.errMsg = ""
	slog.Info("Controller.Submit: roadmap generated", "title", roadmap.Title, "phases", len(roadmap.Phases))
	return nil
}

func (c *Controller) generate(ctx context.Context, form models.FormInput) (roadmap *models.Roadmap, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Controller.generate: recovered panic", "panic", r)
			roadmap, err = nil, fmt.Errorf("%w: %v", ErrGeneratorPanic, r)
		}
	}()

	return GenerateRoadmap(ctx, c.gen, form)
}

// TogglePhase flips whether phaseID is expanded and reports the new membership. It does not
// depend on or affect the generation state.
func (c *Controller) TogglePhase(phaseID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.expanded[phaseID]; ok {
		delete(c.expanded, phaseID)
		return false
	}
	c.expanded[phaseID] = struct{}{}
	return true
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error behind the current error message, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Snapshot returns a copy of the controller state that is safe to read without locking.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	expanded := make([]string, 0, len(c.expanded))
	for id := range c.expanded {
		expanded = append(expanded, id)
	}
	sort.Strings(expanded)

	return Snapshot{
		State: c.state,
		Form:  c.form,
		UI: models.UIState{
			IsLoading:        c.loading,
			ErrorMessage:     c.errMsg,
			ExpandedPhaseIDs: expanded,
		},
		Roadmap:   c.roadmap.Clone(),
		Retryable: c.errMsg != "" && IsRetryable(c.lastErr),
	}
}

// FailureMessage renders the user-visible message for a failed generation.
func FailureMessage(err error) string {
	return fmt.Sprintf("%s %s. Please try again.", FailurePrefix, err)
}

// IsRetryable reports whether submitting the same form again can succeed. Missing
// configuration and incomplete input cannot be fixed by retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return false
	}
	return !errors.Is(err, genai.ErrMissingAPIKey)
}
