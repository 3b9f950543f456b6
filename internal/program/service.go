// Package program manages the learner's program lifecycle: the idempotent
// start operation and explicit restarts.
package program

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise/progression/internal/domain"
)

// ScenarioSource supplies startable content templates.
type ScenarioSource interface {
	GetStartable(ctx context.Context, id uuid.UUID) (*domain.Scenario, error)
}

// ProgramStore is the persistence interface for programs.
type ProgramStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Program, error)
	FindOpen(ctx context.Context, userID, scenarioID uuid.UUID) (*domain.Program, error)
	CreateWithTasks(ctx context.Context, p *domain.Program, tasks []*domain.Task) error
	Supersede(ctx context.Context, id uuid.UUID, at time.Time) error
}

// TaskStore lists the tasks instantiated for a program.
type TaskStore interface {
	ListByProgram(ctx context.Context, programID uuid.UUID) ([]*domain.Task, error)
}

// Service implements the program lifecycle
type Service struct {
	scenarios ScenarioSource
	programs  ProgramStore
	tasks     TaskStore
	events    *domain.EventDispatcher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new program service
func NewService(scenarios ScenarioSource, programs ProgramStore, tasks TaskStore, events *domain.EventDispatcher, logger *slog.Logger) *Service {
	return &Service{
		scenarios: scenarios,
		programs:  programs,
		tasks:     tasks,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EnsureProgram returns the learner's program for a scenario, creating it
// together with its tasks when none is open. The operation is idempotent:
// concurrent or repeated calls converge on a single program instance.
func (s *Service) EnsureProgram(ctx context.Context, userID, scenarioID uuid.UUID) (*domain.ProgramWithTasks, bool, error) {
	if userID == uuid.Nil {
		return nil, false, domain.ErrUnauthorized
	}

	scenario, err := s.scenarios.GetStartable(ctx, scenarioID)
	if err != nil {
		// Drafts and archived scenarios are indistinguishable from missing
		// ones for learners.
		if errors.Is(err, domain.ErrScenarioInactive) {
			return nil, false, fmt.Errorf("%w: scenario %s", domain.ErrScenarioNotFound, scenarioID)
		}
		return nil, false, err
	}

	existing, err := s.programs.FindOpen(ctx, userID, scenarioID)
	if err == nil {
		return s.withTasks(ctx, existing, false)
	}
	if !errors.Is(err, domain.ErrProgramNotFound) {
		return nil, false, err
	}

	created, err := s.create(ctx, userID, scenario)
	if errors.Is(err, domain.ErrConflict) {
		// Lost the creation race; the winner's row is the program.
		winner, ferr := s.programs.FindOpen(ctx, userID, scenarioID)
		if ferr != nil {
			return nil, false, ferr
		}
		return s.withTasks(ctx, winner, false)
	}
	if err != nil {
		return nil, false, err
	}

	s.events.Publish(domain.NewProgramStartedEvent(created.Program))
	s.logger.Info("program started",
		"program_id", created.Program.ID,
		"user_id", userID,
		"scenario_id", scenarioID,
		"mode", created.Program.Mode,
		"task_count", len(created.Tasks))
	return created, true, nil
}

// Restart supersedes the learner's program and creates a fresh instance from
// the same scenario. The superseded row keeps its status and history.
func (s *Service) Restart(ctx context.Context, userID, programID uuid.UUID) (*domain.ProgramWithTasks, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}

	old, err := s.programs.FindByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if old.UserID != userID {
		return nil, domain.ErrProgramNotFound
	}

	scenario, err := s.scenarios.GetStartable(ctx, old.ScenarioID)
	if err != nil {
		if errors.Is(err, domain.ErrScenarioInactive) {
			return nil, fmt.Errorf("%w: scenario %s", domain.ErrScenarioNotFound, old.ScenarioID)
		}
		return nil, err
	}

	if err := s.programs.Supersede(ctx, old.ID, s.now()); err != nil {
		return nil, err
	}

	fresh, err := s.create(ctx, userID, scenario)
	if errors.Is(err, domain.ErrConflict) {
		winner, ferr := s.programs.FindOpen(ctx, userID, old.ScenarioID)
		if ferr != nil {
			return nil, ferr
		}
		bundle, _, werr := s.withTasks(ctx, winner, false)
		return bundle, werr
	}
	if err != nil {
		return nil, err
	}

	s.events.Publish(domain.NewProgramStartedEvent(fresh.Program))
	s.logger.Info("program restarted",
		"program_id", fresh.Program.ID,
		"superseded_program_id", old.ID,
		"user_id", userID)
	return fresh, nil
}

func (s *Service) create(ctx context.Context, userID uuid.UUID, scenario *domain.Scenario) (*domain.ProgramWithTasks, error) {
	now := s.now()
	p := &domain.Program{
		ID:             uuid.New(),
		ScenarioID:     scenario.ID,
		UserID:         userID,
		Mode:           scenario.Mode,
		Status:         domain.ProgramStatusActive,
		TotalTaskCount: len(scenario.TaskTemplates),
		LastActiveAt:   now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tasks := make([]*domain.Task, 0, len(scenario.TaskTemplates))
	for i, tpl := range scenario.TaskTemplates {
		tasks = append(tasks, domain.NewTaskFromTemplate(p.ID, p.Mode, i, tpl, now))
	}

	if err := s.programs.CreateWithTasks(ctx, p, tasks); err != nil {
		return nil, err
	}
	return &domain.ProgramWithTasks{Program: p, Tasks: tasks}, nil
}

func (s *Service) withTasks(ctx context.Context, p *domain.Program, created bool) (*domain.ProgramWithTasks, bool, error) {
	tasks, err := s.tasks.ListByProgram(ctx, p.ID)
	if err != nil {
		return nil, false, err
	}
	return &domain.ProgramWithTasks{Program: p, Tasks: tasks}, created, nil
}
