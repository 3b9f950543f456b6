package program

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise/progression/internal/domain"
)

type fakeScenarios struct {
	scenario *domain.Scenario
	err      error
}

func (f *fakeScenarios) GetStartable(_ context.Context, id uuid.UUID) (*domain.Scenario, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.scenario == nil || f.scenario.ID != id {
		return nil, domain.ErrScenarioNotFound
	}
	return f.scenario, nil
}

type fakePrograms struct {
	programs map[uuid.UUID]*domain.Program
	tasks    map[uuid.UUID][]*domain.Task

	// conflictOnce makes the next CreateWithTasks fail with a duplicate-key
	// conflict, simulating a lost creation race.
	conflictOnce bool
	// raceWinner is installed as the open program when the conflict fires.
	raceWinner *domain.Program
	creates    int
}

func newFakePrograms() *fakePrograms {
	return &fakePrograms{
		programs: make(map[uuid.UUID]*domain.Program),
		tasks:    make(map[uuid.UUID][]*domain.Task),
	}
}

func (f *fakePrograms) FindByID(_ context.Context, id uuid.UUID) (*domain.Program, error) {
	p, ok := f.programs[id]
	if !ok {
		return nil, domain.ErrProgramNotFound
	}
	return p, nil
}

func (f *fakePrograms) FindOpen(_ context.Context, userID, scenarioID uuid.UUID) (*domain.Program, error) {
	for _, p := range f.programs {
		if p.UserID == userID && p.ScenarioID == scenarioID && p.IsOpen() {
			return p, nil
		}
	}
	return nil, domain.ErrProgramNotFound
}

func (f *fakePrograms) CreateWithTasks(_ context.Context, p *domain.Program, tasks []*domain.Task) error {
	if f.conflictOnce {
		f.conflictOnce = false
		if f.raceWinner != nil {
			f.programs[f.raceWinner.ID] = f.raceWinner
		}
		return domain.ErrConflict
	}
	f.creates++
	f.programs[p.ID] = p
	f.tasks[p.ID] = tasks
	return nil
}

func (f *fakePrograms) Supersede(_ context.Context, id uuid.UUID, at time.Time) error {
	p, ok := f.programs[id]
	if !ok || p.SupersededAt != nil {
		return domain.ErrProgramNotFound
	}
	p.SupersededAt = &at
	return nil
}

func (f *fakePrograms) ListByProgram(_ context.Context, programID uuid.UUID) ([]*domain.Task, error) {
	return f.tasks[programID], nil
}

func activeScenario() *domain.Scenario {
	return &domain.Scenario{
		ID:     uuid.New(),
		Mode:   domain.ModeAssessment,
		Status: domain.ScenarioStatusActive,
		TaskTemplates: []domain.TaskTemplate{
			{ID: "intro", Type: domain.TaskTypeQuestion},
			{ID: "build", Type: domain.TaskTypeCreation},
			{ID: "reflect", Type: domain.TaskTypeChat},
		},
	}
}

func newTestService(scenarios ScenarioSource, store *fakePrograms) (*Service, *domain.EventDispatcher) {
	events := domain.NewEventDispatcher()
	svc := NewService(scenarios, store, store, events, slog.New(slog.DiscardHandler))
	return svc, events
}

func TestEnsureProgramCreates(t *testing.T) {
	sc := activeScenario()
	store := newFakePrograms()
	svc, events := newTestService(&fakeScenarios{scenario: sc}, store)

	var started int
	events.Subscribe(domain.EventTypeProgramStarted, func(domain.Event) { started++ })

	userID := uuid.New()
	got, created, err := svc.EnsureProgram(context.Background(), userID, sc.ID)
	if err != nil {
		t.Fatalf("EnsureProgram() error = %v", err)
	}
	if !created {
		t.Error("created = false, want true")
	}
	if got.Program.Status != domain.ProgramStatusActive {
		t.Errorf("status = %v, want active", got.Program.Status)
	}
	if got.Program.Mode != domain.ModeAssessment {
		t.Errorf("mode = %v, want inherited assessment", got.Program.Mode)
	}
	if got.Program.TotalTaskCount != 3 {
		t.Errorf("TotalTaskCount = %d, want 3", got.Program.TotalTaskCount)
	}
	if len(got.Tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(got.Tasks))
	}
	for i, task := range got.Tasks {
		if task.TaskIndex != i {
			t.Errorf("task %d index = %d", i, task.TaskIndex)
		}
		if task.Mode != domain.ModeAssessment {
			t.Errorf("task %d mode = %v, want inherited", i, task.Mode)
		}
		if task.Status != domain.TaskStatusPending {
			t.Errorf("task %d status = %v, want pending", i, task.Status)
		}
	}
	if started != 1 {
		t.Errorf("program.started events = %d, want 1", started)
	}
}

func TestEnsureProgramIdempotent(t *testing.T) {
	sc := activeScenario()
	store := newFakePrograms()
	svc, _ := newTestService(&fakeScenarios{scenario: sc}, store)

	userID := uuid.New()
	first, _, err := svc.EnsureProgram(context.Background(), userID, sc.ID)
	if err != nil {
		t.Fatalf("first EnsureProgram() error = %v", err)
	}

	second, created, err := svc.EnsureProgram(context.Background(), userID, sc.ID)
	if err != nil {
		t.Fatalf("second EnsureProgram() error = %v", err)
	}
	if created {
		t.Error("created = true on repeat call, want false")
	}
	if second.Program.ID != first.Program.ID {
		t.Errorf("second call returned %v, want existing %v", second.Program.ID, first.Program.ID)
	}
	if store.creates != 1 {
		t.Errorf("creates = %d, want 1", store.creates)
	}
}

func TestEnsureProgramAbsorbsCreationRace(t *testing.T) {
	sc := activeScenario()
	userID := uuid.New()
	winner := &domain.Program{
		ID:         uuid.New(),
		ScenarioID: sc.ID,
		UserID:     userID,
		Mode:       sc.Mode,
		Status:     domain.ProgramStatusActive,
	}
	store := newFakePrograms()
	store.conflictOnce = true
	store.raceWinner = winner
	svc, events := newTestService(&fakeScenarios{scenario: sc}, store)

	var started int
	events.Subscribe(domain.EventTypeProgramStarted, func(domain.Event) { started++ })

	got, created, err := svc.EnsureProgram(context.Background(), userID, sc.ID)
	if err != nil {
		t.Fatalf("EnsureProgram() error = %v, want conflict absorbed", err)
	}
	if created {
		t.Error("created = true, want false for race loser")
	}
	if got.Program.ID != winner.ID {
		t.Errorf("program = %v, want winner %v", got.Program.ID, winner.ID)
	}
	if started != 0 {
		t.Errorf("program.started events = %d, want 0 for race loser", started)
	}
}

func TestEnsureProgramErrors(t *testing.T) {
	sc := activeScenario()

	tests := []struct {
		name      string
		userID    uuid.UUID
		scenarios ScenarioSource
		wantErr   error
	}{
		{
			name:      "nil user",
			userID:    uuid.Nil,
			scenarios: &fakeScenarios{scenario: sc},
			wantErr:   domain.ErrUnauthorized,
		},
		{
			name:      "unknown scenario",
			userID:    uuid.New(),
			scenarios: &fakeScenarios{},
			wantErr:   domain.ErrScenarioNotFound,
		},
		{
			name:      "inactive scenario reported as missing",
			userID:    uuid.New(),
			scenarios: &fakeScenarios{err: domain.ErrScenarioInactive},
			wantErr:   domain.ErrScenarioNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(tt.scenarios, newFakePrograms())
			_, _, err := svc.EnsureProgram(context.Background(), tt.userID, sc.ID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("EnsureProgram() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRestart(t *testing.T) {
	sc := activeScenario()
	store := newFakePrograms()
	svc, _ := newTestService(&fakeScenarios{scenario: sc}, store)

	userID := uuid.New()
	first, _, err := svc.EnsureProgram(context.Background(), userID, sc.ID)
	if err != nil {
		t.Fatalf("EnsureProgram() error = %v", err)
	}

	fresh, err := svc.Restart(context.Background(), userID, first.Program.ID)
	if err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if fresh.Program.ID == first.Program.ID {
		t.Error("Restart() returned the old program, want a fresh instance")
	}
	if first.Program.SupersededAt == nil {
		t.Error("old program not stamped superseded")
	}
	if first.Program.Status != domain.ProgramStatusActive {
		t.Errorf("old program status = %v, want unchanged active", first.Program.Status)
	}
	if len(fresh.Tasks) != 3 {
		t.Errorf("fresh tasks = %d, want 3", len(fresh.Tasks))
	}
}

func TestRestartOwnership(t *testing.T) {
	sc := activeScenario()
	store := newFakePrograms()
	svc, _ := newTestService(&fakeScenarios{scenario: sc}, store)

	owner := uuid.New()
	p, _, err := svc.EnsureProgram(context.Background(), owner, sc.ID)
	if err != nil {
		t.Fatalf("EnsureProgram() error = %v", err)
	}

	_, err = svc.Restart(context.Background(), uuid.New(), p.Program.ID)
	if !errors.Is(err, domain.ErrProgramNotFound) {
		t.Errorf("Restart() by stranger error = %v, want ErrProgramNotFound", err)
	}
}
