package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Event Interface and Base Event
// -----------------------------------------------------------------------------

// Event represents a domain event
type Event interface {
	// EventID returns the unique identifier for this event
	EventID() uuid.UUID
	// EventType returns the type name of this event
	EventType() string
	// OccurredAt returns when this event occurred
	OccurredAt() time.Time
	// AggregateID returns the ID of the aggregate that produced this event
	AggregateID() uuid.UUID
	// AggregateType returns the type of aggregate that produced this event
	AggregateType() string
}

// BaseEvent provides common event fields
type BaseEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateUUID uuid.UUID `json:"aggregate_id"`
	AggregateName string    `json:"aggregate_type"`
}

// NewBaseEvent creates a new BaseEvent
func NewBaseEvent(eventType, aggregateType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     time.Now(),
		AggregateUUID: aggregateID,
		AggregateName: aggregateType,
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.ID }
func (e BaseEvent) EventType() string      { return e.Type }
func (e BaseEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e BaseEvent) AggregateID() uuid.UUID { return e.AggregateUUID }
func (e BaseEvent) AggregateType() string  { return e.AggregateName }

// Event type names published by the progress engine.
const (
	EventTypeProgramStarted    = "program.started"
	EventTypeTaskCompleted     = "task.completed"
	EventTypeProgramCompleted  = "program.completed"
	EventTypeEvaluationCreated = "evaluation.created"
)

// ProgramStartedEvent fires when a new program instance is created. Duplicate
// start calls that return an existing program do not fire it.
type ProgramStartedEvent struct {
	BaseEvent
	UserID     uuid.UUID `json:"user_id"`
	ScenarioID uuid.UUID `json:"scenario_id"`
	Mode       Mode      `json:"mode"`
	TaskCount  int       `json:"task_count"`
}

// NewProgramStartedEvent creates a ProgramStartedEvent
func NewProgramStartedEvent(p *Program) *ProgramStartedEvent {
	return &ProgramStartedEvent{
		BaseEvent:  NewBaseEvent(EventTypeProgramStarted, "program", p.ID),
		UserID:     p.UserID,
		ScenarioID: p.ScenarioID,
		Mode:       p.Mode,
		TaskCount:  p.TotalTaskCount,
	}
}

// TaskCompletedEvent fires when a learner finishes a task.
type TaskCompletedEvent struct {
	BaseEvent
	ProgramID uuid.UUID `json:"program_id"`
	TaskIndex int       `json:"task_index"`
	Mode      Mode      `json:"mode"`
	Score     *float64  `json:"score,omitempty"`
}

// NewTaskCompletedEvent creates a TaskCompletedEvent
func NewTaskCompletedEvent(t *Task) *TaskCompletedEvent {
	return &TaskCompletedEvent{
		BaseEvent: NewBaseEvent(EventTypeTaskCompleted, "task", t.ID),
		ProgramID: t.ProgramID,
		TaskIndex: t.TaskIndex,
		Mode:      t.Mode,
		Score:     t.Score,
	}
}

// ProgramCompletedEvent fires when the re-derived status first reaches
// completed.
type ProgramCompletedEvent struct {
	BaseEvent
	UserID         uuid.UUID `json:"user_id"`
	ScenarioID     uuid.UUID `json:"scenario_id"`
	Mode           Mode      `json:"mode"`
	CompletedTasks int       `json:"completed_tasks"`
	TotalTasks     int       `json:"total_tasks"`
}

// NewProgramCompletedEvent creates a ProgramCompletedEvent
func NewProgramCompletedEvent(p *Program) *ProgramCompletedEvent {
	return &ProgramCompletedEvent{
		BaseEvent:      NewBaseEvent(EventTypeProgramCompleted, "program", p.ID),
		UserID:         p.UserID,
		ScenarioID:     p.ScenarioID,
		Mode:           p.Mode,
		CompletedTasks: p.CompletedTaskCount,
		TotalTasks:     p.TotalTaskCount,
	}
}

// EvaluationCreatedEvent fires when a scoring pass writes an evaluation row,
// both on first creation and on overwrite.
type EvaluationCreatedEvent struct {
	BaseEvent
	SubjectID      uuid.UUID      `json:"subject_id"`
	EvaluationType EvaluationType `json:"evaluation_type"`
	Score          float64        `json:"score"`
	Band           string         `json:"band"`
	Language       string         `json:"language"`
}

// NewEvaluationCreatedEvent creates an EvaluationCreatedEvent
func NewEvaluationCreatedEvent(e *Evaluation) *EvaluationCreatedEvent {
	return &EvaluationCreatedEvent{
		BaseEvent:      NewBaseEvent(EventTypeEvaluationCreated, "evaluation", e.ID),
		SubjectID:      e.SubjectID,
		EvaluationType: e.EvaluationType,
		Score:          e.Score,
		Band:           e.Band,
		Language:       e.Language,
	}
}

// -----------------------------------------------------------------------------
// Event Handler and Dispatcher
// -----------------------------------------------------------------------------

// EventHandler processes domain events
type EventHandler func(event Event)

// EventDispatcher manages event subscriptions and publishing
type EventDispatcher struct {
	mu          sync.RWMutex
	handlers    map[string][]EventHandler
	allHandlers []EventHandler // handlers for all events
}

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// SubscribeAll registers a handler for every event type
func (d *EventDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allHandlers = append(d.allHandlers, handler)
}

// Publish delivers an event to all matching handlers synchronously.
func (d *EventDispatcher) Publish(event Event) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.handlers[event.EventType()]...)
	handlers = append(handlers, d.allHandlers...)
	d.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
