package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Mode partitions all learning content and progress records. It is set on a
// Scenario and inherited top-down by Programs and Tasks.
type Mode string

const (
	ModePBL        Mode = "pbl"
	ModeAssessment Mode = "assessment"
	ModeDiscovery  Mode = "discovery"
)

// NewMode validates a raw mode string.
func NewMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePBL, ModeAssessment, ModeDiscovery:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
}

func (m Mode) String() string { return string(m) }

// ScenarioStatus is the publishing state of a content template.
type ScenarioStatus string

const (
	ScenarioStatusDraft    ScenarioStatus = "draft"
	ScenarioStatusActive   ScenarioStatus = "active"
	ScenarioStatusArchived ScenarioStatus = "archived"
)

// Difficulty grades a scenario for learners.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// TaskTemplate is the blueprint one Task is instantiated from at program
// creation time. Templates are ordered; their position becomes the task index.
type TaskTemplate struct {
	ID           string
	Type         TaskType
	Title        LocalizedValue
	Description  LocalizedValue
	Instructions LocalizedValue
}

// ScenarioTemplate is the nested authoring-template source a scenario was
// imported from. Historical rows captured only English in the structured
// fields while the template later gained full translations, so the resolver
// uses this as a language-tagged fallback.
type ScenarioTemplate struct {
	Title              LocalizedValue
	Description        LocalizedValue
	LearningObjectives LocalizedValue
}

// Scenario is an immutable content template for a learning unit. It is
// created by content authoring or import and mutated only by publishing
// workflows; it is never deleted while a Program references it.
type Scenario struct {
	ID               uuid.UUID
	Mode             Mode
	Status           ScenarioStatus
	Title            LocalizedValue
	Description      LocalizedValue
	Objectives       LocalizedValue
	TaskTemplates    []TaskTemplate
	Template         *ScenarioTemplate
	Difficulty       Difficulty
	EstimatedMinutes int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive reports whether learners may start programs from this scenario.
func (s *Scenario) IsActive() bool {
	return s.Status == ScenarioStatusActive
}

// TemplateFallback returns the template-source value for a structured field,
// or the empty value when no template is attached.
func (s *Scenario) TemplateFallback(field ScenarioField) LocalizedValue {
	if s.Template == nil {
		return LocalizedValue{}
	}
	switch field {
	case FieldTitle:
		return s.Template.Title
	case FieldDescription:
		return s.Template.Description
	case FieldObjectives:
		return s.Template.LearningObjectives
	}
	return LocalizedValue{}
}

// Field returns the structured DB value for a field.
func (s *Scenario) Field(field ScenarioField) LocalizedValue {
	switch field {
	case FieldTitle:
		return s.Title
	case FieldDescription:
		return s.Description
	case FieldObjectives:
		return s.Objectives
	}
	return LocalizedValue{}
}

// ScenarioField names the resolvable multilingual fields of a scenario.
type ScenarioField string

const (
	FieldTitle       ScenarioField = "title"
	FieldDescription ScenarioField = "description"
	FieldObjectives  ScenarioField = "objectives"
)
