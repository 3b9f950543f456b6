package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a single task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskType describes the kind of learner interaction a task expects.
type TaskType string

const (
	TaskTypeQuestion TaskType = "question"
	TaskTypeChat     TaskType = "chat"
	TaskTypeCreation TaskType = "creation"
	TaskTypeAnalysis TaskType = "analysis"
)

// Task is one unit of work inside a Program, instantiated from a scenario
// task template at program-creation time. Mode is inherited from the program
// and read-only afterwards.
type Task struct {
	ID               uuid.UUID
	ProgramID        uuid.UUID
	Mode             Mode
	TaskIndex        int
	TemplateID       string
	Type             TaskType
	Title            LocalizedValue
	Status           TaskStatus
	Score            *float64
	TimeSpentSeconds int
	Response         json.RawMessage
	EvaluationID     *uuid.UUID
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsCompleted reports whether the task has been finished by the learner.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// Complete records a learner result on the task. Completing an already
// completed task overwrites the recorded result but stays idempotent with
// respect to progress counting.
func (t *Task) Complete(result TaskResult, now time.Time) {
	t.Status = TaskStatusCompleted
	if result.Score != nil {
		s := ClampScore(*result.Score)
		t.Score = &s
	}
	if result.TimeSpentSeconds > 0 {
		t.TimeSpentSeconds = result.TimeSpentSeconds
	}
	if len(result.Response) > 0 {
		t.Response = result.Response
	}
	if t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	t.UpdatedAt = now
}

// NewTaskFromTemplate instantiates a task at the given index of a program.
func NewTaskFromTemplate(programID uuid.UUID, mode Mode, index int, tpl TaskTemplate, now time.Time) *Task {
	return &Task{
		ID:         uuid.New(),
		ProgramID:  programID,
		Mode:       mode,
		TaskIndex:  index,
		TemplateID: tpl.ID,
		Type:       tpl.Type,
		Title:      tpl.Title,
		Status:     TaskStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TaskResult is the learner-supplied payload for a completion call.
type TaskResult struct {
	Score            *float64        `json:"score,omitempty"`
	TimeSpentSeconds int             `json:"time_spent_seconds,omitempty"`
	Response         json.RawMessage `json:"response,omitempty"`
}
