package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProgramStatus is the lifecycle state of a learner's program. It advances
// monotonically pending -> active -> completed and never regresses.
type ProgramStatus string

const (
	ProgramStatusPending   ProgramStatus = "pending"
	ProgramStatusActive    ProgramStatus = "active"
	ProgramStatusCompleted ProgramStatus = "completed"
)

var programStatusRank = map[ProgramStatus]int{
	ProgramStatusPending:   0,
	ProgramStatusActive:    1,
	ProgramStatusCompleted: 2,
}

// Program is one learner's attempt at a Scenario. It is never hard-deleted;
// an explicit restart supersedes it with a fresh instance.
type Program struct {
	ID                 uuid.UUID
	ScenarioID         uuid.UUID
	UserID             uuid.UUID
	Mode               Mode
	Status             ProgramStatus
	TotalTaskCount     int
	CompletedTaskCount int
	SupersededAt       *time.Time
	LastActiveAt       time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsOpen reports whether this program absorbs duplicate start requests,
// i.e. it is the learner's current instance for its scenario.
func (p *Program) IsOpen() bool {
	return (p.Status == ProgramStatusPending || p.Status == ProgramStatusActive) &&
		p.SupersededAt == nil
}

// IsCompleted reports whether the program reached its terminal state.
func (p *Program) IsCompleted() bool {
	return p.Status == ProgramStatusCompleted
}

// AdvanceTo moves the status forward. Regressions are ignored so that
// re-derived statuses can be applied unconditionally by callers.
func (p *Program) AdvanceTo(next ProgramStatus) bool {
	if programStatusRank[next] <= programStatusRank[p.Status] {
		return false
	}
	p.Status = next
	return true
}

// DeriveProgramStatus re-derives the program status from the authoritative
// completed-task count. The result never ranks below current, which keeps
// the observed status sequence non-decreasing even under retried or
// out-of-order completion calls.
func DeriveProgramStatus(current ProgramStatus, completed, total int) ProgramStatus {
	derived := ProgramStatusActive
	if total > 0 && completed >= total {
		derived = ProgramStatusCompleted
	}
	if programStatusRank[derived] < programStatusRank[current] {
		return current
	}
	return derived
}

// ProgramWithTasks bundles a program with its instantiated tasks, as returned
// by the start operation.
type ProgramWithTasks struct {
	Program *Program
	Tasks   []*Task
}
