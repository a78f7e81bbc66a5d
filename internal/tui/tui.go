// Package tui runs the roadmap form in a terminal. It drives the same flow.Controller as the web
// front end through survey prompts.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/Pathfinder/internal/flow"
	"github.com/BTreeMap/Pathfinder/internal/models"
)

// Menu entries shown after a generation.
const (
	ChoiceRetry   = "Retry"
	ChoiceEdit    = "Edit answers"
	ChoiceAnother = "Create another roadmap"
	ChoiceQuit    = "Quit"
)

const noStyle = "No preference"

// App is one terminal session.
type App struct {
	ctl    *flow.Controller
	driver PromptDriver
}

// New creates an App around ctl. A nil driver uses survey on the process terminal.
func New(ctl *flow.Controller, driver PromptDriver) *App {
	if driver == nil {
		driver = NewSurveyDriver()
	}
	return &App{ctl: ctl, driver: driver}
}

// Run asks for the form, generates, and lets the user explore the roadmap until they quit.
// Aborting a prompt with Ctrl+C ends the session without an error.
func (a *App) Run(ctx context.Context) error {
	err := a.run(ctx)
	if errors.Is(err, ErrAborted) {
		slog.Debug("App.Run: aborted by user")
		return nil
	}
	return err
}

func (a *App) run(ctx context.Context) error {
	for {
		if err := a.askForm(ctx); err != nil {
			return err
		}
		next, err := a.generate(ctx)
		if err != nil {
			return err
		}
		if next == ChoiceQuit {
			return nil
		}
	}
}

// generate submits until it succeeds or the user leaves the retry menu, then hands over to the
// roadmap menu. It returns ChoiceEdit or ChoiceAnother to ask the form again, or ChoiceQuit.
func (a *App) generate(ctx context.Context) (string, error) {
	for {
		if err := a.driver.Info(ctx, "Generating Roadmap..."); err != nil {
			return "", err
		}
		submitErr := a.ctl.Submit(ctx)
		snap := a.ctl.Snapshot()
		if submitErr == nil {
			return a.explore(ctx)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if err := a.driver.Info(ctx, snap.UI.ErrorMessage); err != nil {
			return "", err
		}
		options := []string{ChoiceEdit, ChoiceQuit}
		if snap.Retryable {
			options = append([]string{ChoiceRetry}, options...)
		}
		idx, err := a.driver.Select(ctx, SelectConfig{Message: "What next?", Options: options})
		if err != nil {
			return "", err
		}
		switch choice := pick(options, idx); choice {
		case ChoiceRetry:
			continue
		default:
			return choice, nil
		}
	}
}

// explore prints the roadmap and toggles phases until the user moves on.
func (a *App) explore(ctx context.Context) (string, error) {
	for {
		snap := a.ctl.Snapshot()
		if err := a.driver.Info(ctx, RenderRoadmap(snap)); err != nil {
			return "", err
		}

		var options []string
		for i, p := range snap.Roadmap.Phases {
			verb := "Expand"
			if snap.IsExpanded(p.ID) {
				verb = "Collapse"
			}
			options = append(options, fmt.Sprintf("%s phase %d: %s", verb, i+1, p.Title))
		}
		options = append(options, ChoiceAnother, ChoiceQuit)

		idx, err := a.driver.Select(ctx, SelectConfig{Message: "Explore your roadmap", Options: options, PageSize: len(options)})
		if err != nil {
			return "", err
		}
		if idx >= 0 && idx < len(snap.Roadmap.Phases) {
			a.ctl.TogglePhase(snap.Roadmap.Phases[idx].ID)
			continue
		}
		return pick(options, idx), nil
	}
}

func (a *App) askForm(ctx context.Context) error {
	form := a.ctl.Snapshot().Form

	goal, err := a.driver.Input(ctx, InputConfig{
		Message: "Learning Goal",
		Default: form.Goal,
		Help:    "e.g., Master Python for data science, Learn React.js for web development",
	})
	if err != nil {
		return err
	}

	levels := make([]string, len(models.Levels))
	for i, l := range models.Levels {
		levels[i] = string(l)
	}
	level, err := a.driver.Select(ctx, SelectConfig{
		Message:      "Current Level",
		Options:      levels,
		DefaultIndex: indexOf(levels, string(form.CurrentLevel)),
	})
	if err != nil {
		return err
	}

	timeframes := make([]string, len(models.Timeframes))
	for i, t := range models.Timeframes {
		timeframes[i] = string(t)
	}
	timeframe, err := a.driver.Select(ctx, SelectConfig{
		Message:      "Timeframe",
		Options:      timeframes,
		DefaultIndex: indexOf(timeframes, string(form.Timeframe)),
	})
	if err != nil {
		return err
	}

	styles := []string{noStyle}
	styleDefault := 0
	for i, s := range models.LearningStyles {
		styles = append(styles, s.Label())
		if s == form.LearningStyle {
			styleDefault = i + 1
		}
	}
	style, err := a.driver.Select(ctx, SelectConfig{Message: "Learning Style", Options: styles, DefaultIndex: styleDefault})
	if err != nil {
		return err
	}

	background, err := a.driver.TextArea(ctx, TextAreaConfig{
		Message: "Background & Experience",
		Default: form.Background,
		Help:    "Describe your relevant background or experience...",
	})
	if err != nil {
		return err
	}
	resources, err := a.driver.Input(ctx, InputConfig{
		Message: "Preferred Resources",
		Default: form.Resources,
		Help:    "e.g., Free resources, Paid courses, Books",
	})
	if err != nil {
		return err
	}

	answers := map[string]string{
		models.FieldGoal:         goal,
		models.FieldCurrentLevel: pick(levels, level),
		models.FieldTimeframe:    pick(timeframes, timeframe),
		models.FieldBackground:   background,
		models.FieldResources:    resources,
	}
	if style > 0 && style <= len(models.LearningStyles) {
		answers[models.FieldLearningStyle] = string(models.LearningStyles[style-1])
	} else {
		answers[models.FieldLearningStyle] = ""
	}
	for _, name := range models.FormFields {
		if err := a.ctl.UpdateField(name, answers[name]); err != nil {
			return fmt.Errorf("update %s: %w", name, err)
		}
	}
	return nil
}

func pick(options []string, idx int) string {
	if idx < 0 || idx >= len(options) {
		return ""
	}
	return options[idx]
}
