package models

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Icon identifies the display icon attached to a phase.
type Icon string

const (
	IconBookOpen   Icon = "BookOpen"
	IconTrendingUp Icon = "TrendingUp"
	IconStar       Icon = "Star"
	IconAward      Icon = "Award"
)

// PhaseIcons is the fixed cycle of icons assigned to phases by position.
var PhaseIcons = [...]Icon{IconBookOpen, IconTrendingUp, IconStar, IconAward}

// Weekdays lists schedule keys in calendar order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// ErrSchemaViolation is returned when a decoded roadmap lacks fields the display needs.
var ErrSchemaViolation = errors.New("roadmap does not match the expected structure")

// Overview summarizes the plan parameters echoed back by the model.
type Overview struct {
	Duration string `json:"duration"`
	Level    string `json:"level"`
	Style    string `json:"style"`
}

// Phase is one stage of a roadmap.
type Phase struct {
	ID         string   `json:"id" validate:"required"`
	Title      string   `json:"title" validate:"required"`
	Duration   string   `json:"duration"`
	Color      string   `json:"color,omitempty"`
	Objective  string   `json:"objective"`
	Activities []string `json:"activities"`
	Milestones []string `json:"milestones"`
	Resources  []string `json:"resources"`
	Icon       Icon     `json:"iconName,omitempty"`
}

// Checkpoint is a week-numbered assessment task.
type Checkpoint struct {
	Week int    `json:"week" validate:"gte=0"`
	Task string `json:"task"`
}

// Roadmap is the structured learning plan returned by the generative API.
type Roadmap struct {
	Title       string            `json:"title" validate:"required"`
	Overview    Overview          `json:"overview"`
	Phases      []Phase           `json:"phases" validate:"required,min=1,dive"`
	Schedule    map[string]string `json:"schedule"`
	Tips        []string          `json:"tips"`
	Checkpoints []Checkpoint      `json:"checkpoints" validate:"dive"`
}

var roadmapValidator = newRoadmapValidator()

func newRoadmapValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks that the roadmap carries everything the display layer relies on.
func (r *Roadmap) Validate() error {
	if err := roadmapValidator.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%w: %s", ErrSchemaViolation, describeFieldError(fieldErrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	seen := make(map[string]struct{}, len(r.Phases))
	for i, phase := range r.Phases {
		if _, dup := seen[phase.ID]; dup {
			return fmt.Errorf("%w: phases[%d].id %q is not unique", ErrSchemaViolation, i, phase.ID)
		}
		seen[phase.ID] = struct{}{}
	}
	return nil
}

// PhaseByID returns the phase with the given id.
func (r *Roadmap) PhaseByID(id string) (Phase, bool) {
	for _, phase := range r.Phases {
		if phase.ID == id {
			return phase, true
		}
	}
	return Phase{}, false
}

// ScheduleDays returns the schedule keys with weekdays first in calendar order and any
// other keys after them in lexical order.
func (r *Roadmap) ScheduleDays() []string {
	days := make([]string, 0, len(r.Schedule))
	known := make(map[string]struct{}, len(Weekdays))
	for _, day := range Weekdays {
		known[day] = struct{}{}
		if _, ok := r.Schedule[day]; ok {
			days = append(days, day)
		}
	}
	var extra []string
	for day := range r.Schedule {
		if _, ok := known[day]; !ok {
			extra = append(extra, day)
		}
	}
	sort.Strings(extra)
	return append(days, extra...)
}

// Clone returns a deep copy so callers can hand the roadmap out read-only.
func (r *Roadmap) Clone() *Roadmap {
	if r == nil {
		return nil
	}
	out := *r
	out.Phases = make([]Phase, len(r.Phases))
	for i, phase := range r.Phases {
		phase.Activities = cloneStrings(phase.Activities)
		phase.Milestones = cloneStrings(phase.Milestones)
		phase.Resources = cloneStrings(phase.Resources)
		out.Phases[i] = phase
	}
	if r.Schedule != nil {
		out.Schedule = make(map[string]string, len(r.Schedule))
		for k, v := range r.Schedule {
			out.Schedule[k] = v
		}
	}
	out.Tips = cloneStrings(r.Tips)
	if r.Checkpoints != nil {
		out.Checkpoints = append([]Checkpoint(nil), r.Checkpoints...)
	}
	return &out
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
