package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise/progression/internal/domain"
)

// ProgramView is the wire shape of a program
type ProgramView struct {
	ID                 uuid.UUID  `json:"id"`
	ScenarioID         uuid.UUID  `json:"scenario_id"`
	UserID             uuid.UUID  `json:"user_id"`
	Mode               string     `json:"mode"`
	Status             string     `json:"status"`
	TotalTaskCount     int        `json:"total_task_count"`
	CompletedTaskCount int        `json:"completed_task_count"`
	SupersededAt       *time.Time `json:"superseded_at,omitempty"`
	LastActiveAt       time.Time  `json:"last_active_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func NewProgramView(p *domain.Program) ProgramView {
	return ProgramView{
		ID:                 p.ID,
		ScenarioID:         p.ScenarioID,
		UserID:             p.UserID,
		Mode:               string(p.Mode),
		Status:             string(p.Status),
		TotalTaskCount:     p.TotalTaskCount,
		CompletedTaskCount: p.CompletedTaskCount,
		SupersededAt:       p.SupersededAt,
		LastActiveAt:       p.LastActiveAt,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// TaskView is the wire shape of a task
type TaskView struct {
	ID               uuid.UUID             `json:"id"`
	ProgramID        uuid.UUID             `json:"program_id"`
	Mode             string                `json:"mode"`
	TaskIndex        int                   `json:"task_index"`
	TemplateID       string                `json:"template_id"`
	Type             string                `json:"type"`
	Title            domain.LocalizedValue `json:"title"`
	Status           string                `json:"status"`
	Score            *float64              `json:"score,omitempty"`
	TimeSpentSeconds int                   `json:"time_spent_seconds"`
	EvaluationID     *uuid.UUID            `json:"evaluation_id,omitempty"`
	CompletedAt      *time.Time            `json:"completed_at,omitempty"`
}

func NewTaskView(t *domain.Task) TaskView {
	return TaskView{
		ID:               t.ID,
		ProgramID:        t.ProgramID,
		Mode:             string(t.Mode),
		TaskIndex:        t.TaskIndex,
		TemplateID:       t.TemplateID,
		Type:             string(t.Type),
		Title:            t.Title,
		Status:           string(t.Status),
		Score:            t.Score,
		TimeSpentSeconds: t.TimeSpentSeconds,
		EvaluationID:     t.EvaluationID,
		CompletedAt:      t.CompletedAt,
	}
}

func NewTaskViews(tasks []*domain.Task) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, NewTaskView(t))
	}
	return views
}

// EvaluationView is the wire shape of an evaluation
type EvaluationView struct {
	ID             uuid.UUID           `json:"id"`
	SubjectID      uuid.UUID           `json:"subject_id"`
	EvaluationType string              `json:"evaluation_type"`
	Score          float64             `json:"score"`
	Band           string              `json:"band"`
	DomainScores   map[string]float64  `json:"domain_scores,omitempty"`
	Feedback       domain.FeedbackData `json:"feedback"`
	AIAnalysis     map[string]any      `json:"ai_analysis,omitempty"`
	Language       string              `json:"language"`
	TranslatedFrom string              `json:"translated_from,omitempty"`
	TranslatedAt   *time.Time          `json:"translated_at,omitempty"`
	Version        int                 `json:"version"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func NewEvaluationView(e *domain.Evaluation) EvaluationView {
	return EvaluationView{
		ID:             e.ID,
		SubjectID:      e.SubjectID,
		EvaluationType: string(e.EvaluationType),
		Score:          e.Score,
		Band:           e.Band,
		DomainScores:   e.DomainScores,
		Feedback:       e.FeedbackData,
		AIAnalysis:     e.AIAnalysis,
		Language:       e.Language,
		TranslatedFrom: e.TranslatedFrom,
		TranslatedAt:   e.TranslatedAt,
		Version:        e.Version,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// ScenarioSummary is the wire shape of a scenario in list responses
type ScenarioSummary struct {
	ID               uuid.UUID       `json:"id"`
	Mode             string          `json:"mode"`
	Status           string          `json:"status"`
	Title            json.RawMessage `json:"title"`
	TaskCount        int             `json:"task_count"`
	Difficulty       string          `json:"difficulty,omitempty"`
	EstimatedMinutes int             `json:"estimated_minutes,omitempty"`
}

func NewScenarioSummary(s *domain.Scenario) ScenarioSummary {
	title, _ := s.Title.MarshalJSON()
	return ScenarioSummary{
		ID:               s.ID,
		Mode:             string(s.Mode),
		Status:           string(s.Status),
		Title:            title,
		TaskCount:        len(s.TaskTemplates),
		Difficulty:       string(s.Difficulty),
		EstimatedMinutes: s.EstimatedMinutes,
	}
}
