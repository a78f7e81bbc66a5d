package api

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/flosch/pongo2/v6"

	"github.com/BTreeMap/Pathfinder/internal/flow"
	"github.com/BTreeMap/Pathfinder/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// FallbackHint is shown under the error on the fallback page.
const FallbackHint = "Please refresh the page or try again later."

type renderer struct {
	page     *pongo2.Template
	fallback *pongo2.Template
}

func newRenderer() (*renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	set := pongo2.NewSet("pathfinder", pongo2.NewFSLoader(sub))

	page, err := set.FromFile("page.html")
	if err != nil {
		return nil, fmt.Errorf("load page template: %w", err)
	}
	fallback, err := set.FromFile("fallback.html")
	if err != nil {
		return nil, fmt.Errorf("load fallback template: %w", err)
	}
	return &renderer{page: page, fallback: fallback}, nil
}

// renderPage renders the session page into a buffer first so a template fault never leaves a
// half-written response.
func (r *renderer) renderPage(w http.ResponseWriter, status int, view pageView) error {
	var buf bytes.Buffer
	if err := r.page.ExecuteWriter(pongo2.Context{"page": view}, &buf); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	writeHTML(w, status, buf.Bytes())
	return nil
}

// renderFallback writes the error page shown when a request could not be rendered.
func (r *renderer) renderFallback(w http.ResponseWriter, message string) {
	var buf bytes.Buffer
	ctx := pongo2.Context{"message": message, "hint": FallbackHint}
	if err := r.fallback.ExecuteWriter(ctx, &buf); err != nil {
		slog.Error("renderer.renderFallback: fallback template failed", "error", err)
		http.Error(w, "Error: "+message+"\n"+FallbackHint, http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusInternalServerError, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("writeHTML: failed to write response", "error", err)
	}
}

type selectOption struct {
	Value    string
	Label    string
	Selected bool
}

type phaseView struct {
	Number     int
	ID         string
	Title      string
	Duration   string
	Color      string
	Icon       string
	Objective  string
	Activities []string
	Milestones []string
	Resources  []string
	Expanded   bool
}

type scheduleRow struct {
	Day      string
	Activity string
}

type roadmapView struct {
	Title       string
	Overview    models.Overview
	Phases      []phaseView
	Schedule    []scheduleRow
	Tips        []string
	Checkpoints []models.Checkpoint
}

type pageView struct {
	SessionID        string
	Form             models.FormInput
	LevelOptions     []selectOption
	TimeframeOptions []selectOption
	StyleOptions     []selectOption
	Display          string
	Loading          bool
	Error            string
	Retryable        bool
	Roadmap          *roadmapView
}

func newPageView(sessionID string, snap flow.Snapshot) pageView {
	view := pageView{
		SessionID: sessionID,
		Form:      snap.Form,
		Display:   string(snap.Display()),
		Loading:   snap.UI.IsLoading,
		Error:     snap.UI.ErrorMessage,
		Retryable: snap.Retryable,
	}
	for _, l := range models.Levels {
		view.LevelOptions = append(view.LevelOptions, selectOption{Value: string(l), Label: string(l), Selected: l == snap.Form.CurrentLevel})
	}
	for _, t := range models.Timeframes {
		view.TimeframeOptions = append(view.TimeframeOptions, selectOption{Value: string(t), Label: string(t), Selected: t == snap.Form.Timeframe})
	}
	for _, s := range models.LearningStyles {
		view.StyleOptions = append(view.StyleOptions, selectOption{Value: string(s), Label: s.Label(), Selected: s == snap.Form.LearningStyle})
	}
	if snap.Display() == flow.DisplayResult {
		view.Roadmap = newRoadmapView(snap)
	}
	return view
}

func newRoadmapView(snap flow.Snapshot) *roadmapView {
	r := snap.Roadmap
	out := &roadmapView{
		Title:       r.Title,
		Overview:    r.Overview,
		Tips:        r.Tips,
		Checkpoints: r.Checkpoints,
	}
	for i, p := range r.Phases {
		out.Phases = append(out.Phases, phaseView{
			Number:     i + 1,
			ID:         p.ID,
			Title:      p.Title,
			Duration:   p.Duration,
			Color:      p.Color,
			Icon:       string(p.Icon),
			Objective:  p.Objective,
			Activities: p.Activities,
			Milestones: p.Milestones,
			Resources:  p.Resources,
			Expanded:   snap.IsExpanded(p.ID),
		})
	}
	for _, day := range r.ScheduleDays() {
		out.Schedule = append(out.Schedule, scheduleRow{Day: day, Activity: r.Schedule[day]})
	}
	return out
}
