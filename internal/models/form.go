package models

import (
	"errors"
	"fmt"
	"strings"
)

// Level is the learner's self-reported starting point.
type Level string

const (
	LevelCompleteBeginner Level = "Complete Beginner"
	LevelBeginner         Level = "Beginner"
	LevelIntermediate     Level = "Intermediate"
	LevelAdvanced         Level = "Advanced"
)

// Levels lists the accepted levels in display order.
var Levels = []Level{LevelCompleteBeginner, LevelBeginner, LevelIntermediate, LevelAdvanced}

// Timeframe is the time budget for reaching the goal.
type Timeframe string

const (
	Timeframe1Month  Timeframe = "1 month"
	Timeframe3Months Timeframe = "3 months"
	Timeframe6Months Timeframe = "6 months"
	Timeframe1Year   Timeframe = "1 year"
	Timeframe2Years  Timeframe = "2+ years"
)

// Timeframes lists the accepted timeframes in display order.
var Timeframes = []Timeframe{Timeframe1Month, Timeframe3Months, Timeframe6Months, Timeframe1Year, Timeframe2Years}

// LearningStyle is the optional preferred way of learning.
type LearningStyle string

const (
	LearningStyleVisual  LearningStyle = "Visual"
	LearningStyleHandsOn LearningStyle = "Hands-on"
	LearningStyleReading LearningStyle = "Reading"
	LearningStyleMixed   LearningStyle = "Mixed"
)

// LearningStyles lists the accepted learning styles in display order.
var LearningStyles = []LearningStyle{LearningStyleVisual, LearningStyleHandsOn, LearningStyleReading, LearningStyleMixed}

// Label returns the descriptive option text shown next to a learning style.
func (s LearningStyle) Label() string {
	switch s {
	case LearningStyleVisual:
		return "Visual (Videos, Diagrams)"
	case LearningStyleHandsOn:
		return "Hands-on (Projects, Practice)"
	case LearningStyleReading:
		return "Reading (Books, Articles)"
	case LearningStyleMixed:
		return "Mixed Approach"
	default:
		return string(s)
	}
}

// Form field names accepted by FormInput.Set. They match the JSON names.
const (
	FieldGoal          = "goal"
	FieldCurrentLevel  = "currentLevel"
	FieldTimeframe     = "timeframe"
	FieldLearningStyle = "learningStyle"
	FieldBackground    = "background"
	FieldResources     = "resources"
)

// FormFields lists every form field name in display order.
var FormFields = []string{FieldGoal, FieldCurrentLevel, FieldTimeframe, FieldLearningStyle, FieldBackground, FieldResources}

// Error variables for form validation
var (
	ErrMissingGoal          = errors.New("Please enter your learning goal")
	ErrMissingLevel         = errors.New("Please select your current level")
	ErrMissingTimeframe     = errors.New("Please select a timeframe")
	ErrInvalidLevel         = errors.New("Please select a valid current level")
	ErrInvalidTimeframe     = errors.New("Please select a valid timeframe")
	ErrInvalidLearningStyle = errors.New("Please select a valid learning style")
	ErrUnknownField         = errors.New("unknown form field")
)

// ValidationError reports incomplete or invalid user input. No network call is made for it.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// FormInput holds the values entered into the roadmap form.
type FormInput struct {
	Goal          string        `json:"goal"`
	CurrentLevel  Level         `json:"currentLevel"`
	Timeframe     Timeframe     `json:"timeframe"`
	LearningStyle LearningStyle `json:"learningStyle,omitempty"`
	Background    string        `json:"background,omitempty"`
	Resources     string        `json:"resources,omitempty"`
}

// Set assigns value to the named field without validating it.
func (f *FormInput) Set(name, value string) error {
	switch name {
	case FieldGoal:
		f.Goal = value
	case FieldCurrentLevel:
		f.CurrentLevel = Level(value)
	case FieldTimeframe:
		f.Timeframe = Timeframe(value)
	case FieldLearningStyle:
		f.LearningStyle = LearningStyle(value)
	case FieldBackground:
		f.Background = value
	case FieldResources:
		f.Resources = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Get returns the current value of the named field.
func (f FormInput) Get(name string) (string, error) {
	switch name {
	case FieldGoal:
		return f.Goal, nil
	case FieldCurrentLevel:
		return string(f.CurrentLevel), nil
	case FieldTimeframe:
		return string(f.Timeframe), nil
	case FieldLearningStyle:
		return string(f.LearningStyle), nil
	case FieldBackground:
		return f.Background, nil
	case FieldResources:
		return f.Resources, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
}

// Validate checks the required fields in the fixed order goal, level, timeframe and
// reports only the first failure. Enum membership is checked afterwards.
func (f FormInput) Validate() error {
	if strings.TrimSpace(f.Goal) == "" {
		return &ValidationError{Field: FieldGoal, Err: ErrMissingGoal}
	}
	if f.CurrentLevel == "" {
		return &ValidationError{Field: FieldCurrentLevel, Err: ErrMissingLevel}
	}
	if f.Timeframe == "" {
		return &ValidationError{Field: FieldTimeframe, Err: ErrMissingTimeframe}
	}
	if !IsValidLevel(f.CurrentLevel) {
		return &ValidationError{Field: FieldCurrentLevel, Err: ErrInvalidLevel}
	}
	if !IsValidTimeframe(f.Timeframe) {
		return &ValidationError{Field: FieldTimeframe, Err: ErrInvalidTimeframe}
	}
	if f.LearningStyle != "" && !IsValidLearningStyle(f.LearningStyle) {
		return &ValidationError{Field: FieldLearningStyle, Err: ErrInvalidLearningStyle}
	}
	return nil
}

// IsValidLevel checks if the given level is one of the offered options.
func IsValidLevel(l Level) bool {
	switch l {
	case LevelCompleteBeginner, LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

// IsValidTimeframe checks if the given timeframe is one of the offered options.
func IsValidTimeframe(t Timeframe) bool {
	switch t {
	case Timeframe1Month, Timeframe3Months, Timeframe6Months, Timeframe1Year, Timeframe2Years:
		return true
	default:
		return false
	}
}

// IsValidLearningStyle checks if the given style is one of the offered options.
func IsValidLearningStyle(s LearningStyle) bool {
	switch s {
	case LearningStyleVisual, LearningStyleHandsOn, LearningStyleReading, LearningStyleMixed:
		return true
	default:
		return false
	}
}
