package progress

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/pathwise/progression/internal/domain"
)

// fakeStore backs both store interfaces with in-memory maps so that progress
// is genuinely re-derived from the task rows.
type fakeStore struct {
	program *domain.Program
	tasks   map[uuid.UUID]*domain.Task
	updates int
}

func newFakeStore(mode domain.Mode, taskCount int) *fakeStore {
	p := &domain.Program{
		ID:             uuid.New(),
		ScenarioID:     uuid.New(),
		UserID:         uuid.New(),
		Mode:           mode,
		Status:         domain.ProgramStatusActive,
		TotalTaskCount: taskCount,
	}
	f := &fakeStore{program: p, tasks: make(map[uuid.UUID]*domain.Task)}
	for i := 0; i < taskCount; i++ {
		t := &domain.Task{
			ID:        uuid.New(),
			ProgramID: p.ID,
			Mode:      mode,
			TaskIndex: i,
			Status:    domain.TaskStatusPending,
		}
		f.tasks[t.ID] = t
	}
	return f
}

func (f *fakeStore) taskAt(index int) *domain.Task {
	for _, t := range f.tasks {
		if t.TaskIndex == index {
			return t
		}
	}
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Program, error) {
	if f.program.ID != id {
		return nil, domain.ErrProgramNotFound
	}
	return f.program, nil
}

func (f *fakeStore) UpdateProgress(_ context.Context, p *domain.Program) error {
	f.program = p
	f.updates++
	return nil
}

func (f *fakeStore) FindByIDForProgram(_ context.Context, id, programID uuid.UUID) (*domain.Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.ProgramID != programID {
		return nil, domain.ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeStore) Update(_ context.Context, t *domain.Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) Insert(_ context.Context, t *domain.Task) error {
	next := 0
	for _, existing := range f.tasks {
		if existing.TaskIndex >= next {
			next = existing.TaskIndex + 1
		}
	}
	t.TaskIndex = next
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) CountProgress(_ context.Context, programID uuid.UUID) (int, int, error) {
	completed, total := 0, 0
	for _, t := range f.tasks {
		if t.ProgramID != programID {
			continue
		}
		total++
		if t.IsCompleted() {
			completed++
		}
	}
	return completed, total, nil
}

func newTestService(store *fakeStore) (*Service, *domain.EventDispatcher) {
	events := domain.NewEventDispatcher()
	svc := NewService(store, store, events, nil, slog.New(slog.DiscardHandler))
	return svc, events
}

func score(v float64) *float64 { return &v }

func TestCompleteTaskRecordsResult(t *testing.T) {
	store := newFakeStore(domain.ModePBL, 2)
	svc, events := newTestService(store)

	var taskEvents int
	events.Subscribe(domain.EventTypeTaskCompleted, func(domain.Event) { taskEvents++ })

	task := store.taskAt(0)
	result := domain.TaskResult{
		Score:            score(87.5),
		TimeSpentSeconds: 300,
		Response:         json.RawMessage(`{"answer":"chips are everywhere"}`),
	}
	got, status, err := svc.CompleteTask(context.Background(), store.program.ID, task.ID, result)
	if err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	if !got.IsCompleted() {
		t.Error("task not marked completed")
	}
	if got.Score == nil || *got.Score != 87.5 {
		t.Errorf("score = %v, want 87.5", got.Score)
	}
	if status != domain.ProgramStatusActive {
		t.Errorf("program status = %v, want active with one of two done", status)
	}
	if store.program.CompletedTaskCount != 1 {
		t.Errorf("CompletedTaskCount = %d, want 1", store.program.CompletedTaskCount)
	}
	if taskEvents != 1 {
		t.Errorf("task.completed events = %d, want 1", taskEvents)
	}
}

func TestCompleteTaskDuplicateDoesNotDoubleCount(t *testing.T) {
	store := newFakeStore(domain.ModePBL, 2)
	svc, events := newTestService(store)

	var taskEvents int
	events.Subscribe(domain.EventTypeTaskCompleted, func(domain.Event) { taskEvents++ })

	task := store.taskAt(0)
	for i := 0; i < 3; i++ {
		if _, _, err := svc.CompleteTask(context.Background(), store.program.ID, task.ID, domain.TaskResult{Score: score(70)}); err != nil {
			t.Fatalf("CompleteTask() call %d error = %v", i, err)
		}
	}

	if store.program.CompletedTaskCount != 1 {
		t.Errorf("CompletedTaskCount = %d after duplicates, want 1", store.program.CompletedTaskCount)
	}
	if taskEvents != 1 {
		t.Errorf("task.completed events = %d, want 1", taskEvents)
	}
	// Only the first call moved the counters, so only it wrote the program.
	if store.updates != 1 {
		t.Errorf("program updates = %d, want 1", store.updates)
	}
}

func TestCompleteTaskFinishesProgram(t *testing.T) {
	store := newFakeStore(domain.ModePBL, 2)
	svc, events := newTestService(store)

	var programCompleted int
	events.Subscribe(domain.EventTypeProgramCompleted, func(domain.Event) { programCompleted++ })

	for i := 0; i < 2; i++ {
		task := store.taskAt(i)
		_, status, err := svc.CompleteTask(context.Background(), store.program.ID, task.ID, domain.TaskResult{})
		if err != nil {
			t.Fatalf("CompleteTask() error = %v", err)
		}
		want := domain.ProgramStatusActive
		if i == 1 {
			want = domain.ProgramStatusCompleted
		}
		if status != want {
			t.Errorf("after task %d status = %v, want %v", i, status, want)
		}
	}
	if programCompleted != 1 {
		t.Errorf("program.completed events = %d, want 1", programCompleted)
	}
}

func TestCompleteTaskRejectsForeignTask(t *testing.T) {
	store := newFakeStore(domain.ModePBL, 1)
	other := newFakeStore(domain.ModePBL, 1)
	svc, _ := newTestService(store)

	_, _, err := svc.CompleteTask(context.Background(), store.program.ID, other.taskAt(0).ID, domain.TaskResult{})
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("CompleteTask() foreign task error = %v, want ErrTaskNotFound", err)
	}
}

func TestCompleteTaskAssessmentLocksAfterCompletion(t *testing.T) {
	store := newFakeStore(domain.ModeAssessment, 1)
	svc, _ := newTestService(store)

	task := store.taskAt(0)
	if _, _, err := svc.CompleteTask(context.Background(), store.program.ID, task.ID, domain.TaskResult{Score: score(90)}); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	if store.program.Status != domain.ProgramStatusCompleted {
		t.Fatalf("program status = %v, want completed", store.program.Status)
	}

	_, _, err := svc.CompleteTask(context.Background(), store.program.ID, task.ID, domain.TaskResult{Score: score(100)})
	if !errors.Is(err, domain.ErrProgramFinalized) {
		t.Errorf("CompleteTask() on finalized assessment error = %v, want ErrProgramFinalized", err)
	}

	// PBL programs stay editable after completion.
	pbl := newFakeStore(domain.ModePBL, 1)
	pblSvc, _ := newTestService(pbl)
	pblTask := pbl.taskAt(0)
	for i := 0; i < 2; i++ {
		if _, _, err := pblSvc.CompleteTask(context.Background(), pbl.program.ID, pblTask.ID, domain.TaskResult{}); err != nil {
			t.Fatalf("pbl CompleteTask() call %d error = %v", i, err)
		}
	}
}

func TestAppendTaskGrowsDenominator(t *testing.T) {
	store := newFakeStore(domain.ModeDiscovery, 1)
	svc, _ := newTestService(store)

	// Finish the only task first.
	if _, _, err := svc.CompleteTask(context.Background(), store.program.ID, store.taskAt(0).ID, domain.TaskResult{}); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	if store.program.Status != domain.ProgramStatusCompleted {
		t.Fatalf("program status = %v, want completed", store.program.Status)
	}

	task, err := svc.AppendTask(context.Background(), store.program.ID, domain.TaskTemplate{
		ID:   "follow-up",
		Type: domain.TaskTypeAnalysis,
	})
	if err != nil {
		t.Fatalf("AppendTask() error = %v", err)
	}
	if task.TaskIndex != 1 {
		t.Errorf("appended task index = %d, want 1", task.TaskIndex)
	}
	if store.program.TotalTaskCount != 2 {
		t.Errorf("TotalTaskCount = %d, want 2", store.program.TotalTaskCount)
	}
	if store.program.CompletedTaskCount != 1 {
		t.Errorf("CompletedTaskCount = %d, want 1", store.program.CompletedTaskCount)
	}
	// Status never regresses even though the program now has open work.
	if store.program.Status != domain.ProgramStatusCompleted {
		t.Errorf("status = %v, want completed kept", store.program.Status)
	}
}

func TestAppendTaskRejectsFinalizedAssessment(t *testing.T) {
	store := newFakeStore(domain.ModeAssessment, 1)
	svc, _ := newTestService(store)

	if _, _, err := svc.CompleteTask(context.Background(), store.program.ID, store.taskAt(0).ID, domain.TaskResult{}); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}

	_, err := svc.AppendTask(context.Background(), store.program.ID, domain.TaskTemplate{ID: "extra", Type: domain.TaskTypeQuestion})
	if !errors.Is(err, domain.ErrProgramFinalized) {
		t.Errorf("AppendTask() error = %v, want ErrProgramFinalized", err)
	}
}
