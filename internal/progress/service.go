// Package progress records task completions and keeps program progress
// derived from the authoritative task set.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise/progression/internal/domain"
)

// ProgramStore is the persistence interface for program progress snapshots.
type ProgramStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Program, error)
	UpdateProgress(ctx context.Context, p *domain.Program) error
}

// TaskStore is the persistence interface for tasks.
type TaskStore interface {
	FindByIDForProgram(ctx context.Context, id, programID uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	Insert(ctx context.Context, t *domain.Task) error
	CountProgress(ctx context.Context, programID uuid.UUID) (completed, total int, err error)
}

// Service tracks task-level progress
type Service struct {
	programs ProgramStore
	tasks    TaskStore
	events   *domain.EventDispatcher
	logger   *slog.Logger
	// lockedModes marks modes whose programs reject edits after completion.
	lockedModes map[domain.Mode]bool
	now         func() time.Time
}

// NewService creates a new progress service. lockedModes may be nil, in which
// case only assessment programs lock after completion.
func NewService(programs ProgramStore, tasks TaskStore, events *domain.EventDispatcher, lockedModes map[domain.Mode]bool, logger *slog.Logger) *Service {
	if lockedModes == nil {
		lockedModes = map[domain.Mode]bool{domain.ModeAssessment: true}
	}
	return &Service{
		programs:    programs,
		tasks:       tasks,
		events:      events,
		logger:      logger,
		lockedModes: lockedModes,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CompleteTask records a learner result on a task and re-derives the program's
// progress from the full task set. Duplicate completions overwrite the
// recorded result but never double-count, and the derived program status never
// regresses.
func (s *Service) CompleteTask(ctx context.Context, programID, taskID uuid.UUID, result domain.TaskResult) (*domain.Task, domain.ProgramStatus, error) {
	p, err := s.programs.FindByID(ctx, programID)
	if err != nil {
		return nil, "", err
	}
	if s.lockedModes[p.Mode] && p.IsCompleted() {
		return nil, "", fmt.Errorf("%w: %s program %s", domain.ErrProgramFinalized, p.Mode, p.ID)
	}

	task, err := s.tasks.FindByIDForProgram(ctx, taskID, programID)
	if err != nil {
		return nil, "", err
	}

	firstCompletion := !task.IsCompleted()
	task.Complete(result, s.now())
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, "", err
	}

	status, err := s.refreshProgress(ctx, p)
	if err != nil {
		return nil, "", err
	}

	if firstCompletion {
		s.events.Publish(domain.NewTaskCompletedEvent(task))
	}
	return task, status, nil
}

// AppendTask inserts an adaptive follow-up task into a running program. The
// new task grows the denominator, so a previously complete-looking program
// simply shows more work remaining; its status does not regress.
func (s *Service) AppendTask(ctx context.Context, programID uuid.UUID, tpl domain.TaskTemplate) (*domain.Task, error) {
	p, err := s.programs.FindByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if s.lockedModes[p.Mode] && p.IsCompleted() {
		return nil, fmt.Errorf("%w: %s program %s", domain.ErrProgramFinalized, p.Mode, p.ID)
	}

	task := domain.NewTaskFromTemplate(p.ID, p.Mode, 0, tpl, s.now())
	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, err
	}

	if _, err := s.refreshProgress(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("task appended",
		"program_id", p.ID,
		"task_id", task.ID,
		"task_index", task.TaskIndex,
		"template_id", task.TemplateID)
	return task, nil
}

// refreshProgress recomputes the counts from the task table and persists the
// snapshot when anything moved. Counting the authoritative set instead of
// incrementing keeps retried and out-of-order calls harmless.
func (s *Service) refreshProgress(ctx context.Context, p *domain.Program) (domain.ProgramStatus, error) {
	completed, total, err := s.tasks.CountProgress(ctx, p.ID)
	if err != nil {
		return "", err
	}

	status := domain.DeriveProgramStatus(p.Status, completed, total)
	changed := status != p.Status || completed != p.CompletedTaskCount || total != p.TotalTaskCount
	if !changed {
		return p.Status, nil
	}

	justCompleted := status == domain.ProgramStatusCompleted && p.Status != domain.ProgramStatusCompleted

	p.Status = status
	p.CompletedTaskCount = completed
	p.TotalTaskCount = total
	now := s.now()
	p.LastActiveAt = now
	p.UpdatedAt = now
	if err := s.programs.UpdateProgress(ctx, p); err != nil {
		return "", err
	}

	if justCompleted {
		s.events.Publish(domain.NewProgramCompletedEvent(p))
		s.logger.Info("program completed",
			"program_id", p.ID,
			"completed", completed,
			"total", total)
	}
	return status, nil
}
