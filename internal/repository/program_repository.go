package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathwise/progression/internal/domain"
)

// ProgramRepository implements program persistence using PostgreSQL
type ProgramRepository struct {
	pool *pgxpool.Pool
}

// NewProgramRepository creates a new ProgramRepository
func NewProgramRepository(pool *pgxpool.Pool) *ProgramRepository {
	return &ProgramRepository{pool: pool}
}

const programColumns = `
	id, scenario_id, user_id, mode, status,
	total_task_count, completed_task_count,
	superseded_at, last_active_at, created_at, updated_at
`

// FindByID retrieves a program by ID
func (r *ProgramRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id = $1`
	p, err := scanProgram(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProgramNotFound
	}
	return p, err
}

// FindOpen retrieves the learner's current open instance for a scenario.
func (r *ProgramRepository) FindOpen(ctx context.Context, userID, scenarioID uuid.UUID) (*domain.Program, error) {
	query := `
		SELECT ` + programColumns + `
		FROM programs
		WHERE user_id = $1 AND scenario_id = $2
		  AND status IN ('pending', 'active')
		  AND superseded_at IS NULL
	`
	p, err := scanProgram(r.pool.QueryRow(ctx, query, userID, scenarioID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProgramNotFound
	}
	return p, err
}

// CreateWithTasks inserts a program and its instantiated tasks in one
// transaction. The partial unique index on open instances makes the insert an
// atomic insert-if-absent: a concurrent duplicate fails with
// domain.ErrConflict and the caller re-reads the winner's row.
func (r *ProgramRepository) CreateWithTasks(ctx context.Context, p *domain.Program, tasks []*domain.Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO programs (
			id, scenario_id, user_id, mode, status,
			total_task_count, completed_task_count,
			last_active_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		p.ID, p.ScenarioID, p.UserID, p.Mode, p.Status,
		p.TotalTaskCount, p.CompletedTaskCount,
		p.LastActiveAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "programs_open_instance_key") {
			return domain.ErrConflict
		}
		return err
	}

	for _, t := range tasks {
		if err := insertTask(ctx, tx, t); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// UpdateProgress persists a re-derived progress snapshot.
func (r *ProgramRepository) UpdateProgress(ctx context.Context, p *domain.Program) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE programs
		SET status = $2,
		    total_task_count = $3,
		    completed_task_count = $4,
		    last_active_at = $5,
		    updated_at = $6
		WHERE id = $1
	`, p.ID, p.Status, p.TotalTaskCount, p.CompletedTaskCount, p.LastActiveAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProgramNotFound
	}
	return nil
}

// Supersede stamps a program as replaced by a fresh instance. Status is left
// as-is: it never regresses, restarts only mark the old row.
func (r *ProgramRepository) Supersede(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE programs
		SET superseded_at = $2, updated_at = $2
		WHERE id = $1 AND superseded_at IS NULL
	`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: program %s has no open instance", domain.ErrProgramNotFound, id)
	}
	return nil
}

func scanProgram(row pgx.Row) (*domain.Program, error) {
	var p domain.Program
	err := row.Scan(
		&p.ID, &p.ScenarioID, &p.UserID, &p.Mode, &p.Status,
		&p.TotalTaskCount, &p.CompletedTaskCount,
		&p.SupersededAt, &p.LastActiveAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
