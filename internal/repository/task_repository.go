package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathwise/progression/internal/domain"
)

// TaskRepository implements task persistence using PostgreSQL
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

const taskColumns = `
	id, program_id, mode, task_index, template_id, type, title,
	status, score, time_spent_seconds, response, evaluation_id,
	completed_at, created_at, updated_at
`

// FindByID retrieves a task by ID
func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	return t, err
}

// FindByIDForProgram retrieves a task only if it belongs to the program.
func (r *TaskRepository) FindByIDForProgram(ctx context.Context, id, programID uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND program_id = $2`
	t, err := scanTask(r.pool.QueryRow(ctx, query, id, programID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	return t, err
}

// ListByProgram retrieves all tasks of a program in template order.
func (r *TaskRepository) ListByProgram(ctx context.Context, programID uuid.UUID) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE program_id = $1 ORDER BY task_index`
	rows, err := r.pool.Query(ctx, query, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Insert appends a task to an existing program. The task index is assigned
// here so dynamically generated follow-up tasks slot in after the last one.
func (r *TaskRepository) Insert(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (
			id, program_id, mode, task_index, template_id, type, title,
			status, score, time_spent_seconds, response, evaluation_id,
			completed_at, created_at, updated_at
		)
		SELECT $1, $2, $3, COALESCE(MAX(task_index) + 1, 0), $4, $5, $6,
		       $7, $8, $9, $10, $11, $12, $13, $14
		FROM tasks WHERE program_id = $2
		RETURNING task_index
	`
	title, err := encodeLocalized(t.Title)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, query,
		t.ID, t.ProgramID, t.Mode, t.TemplateID, t.Type, title,
		t.Status, t.Score, t.TimeSpentSeconds, t.Response, t.EvaluationID,
		t.CompletedAt, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.TaskIndex)
}

// Update persists learner progress recorded on a task.
func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks
		SET status = $2,
		    score = $3,
		    time_spent_seconds = $4,
		    response = $5,
		    evaluation_id = $6,
		    completed_at = $7,
		    updated_at = $8
		WHERE id = $1
	`, t.ID, t.Status, t.Score, t.TimeSpentSeconds, t.Response, t.EvaluationID, t.CompletedAt, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// SetEvaluationID back-references the evaluation produced for a task.
func (r *TaskRepository) SetEvaluationID(ctx context.Context, taskID, evaluationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET evaluation_id = $2, updated_at = now() WHERE id = $1
	`, taskID, evaluationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// CountProgress re-derives the authoritative progress counts for a program.
// Counting rows instead of incrementing keeps duplicate and out-of-order
// completion calls harmless.
func (r *TaskRepository) CountProgress(ctx context.Context, programID uuid.UUID) (completed, total int, err error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE status = 'completed'), COUNT(*)
		FROM tasks
		WHERE program_id = $1
	`
	err = r.pool.QueryRow(ctx, query, programID).Scan(&completed, &total)
	return completed, total, err
}

func insertTask(ctx context.Context, tx pgx.Tx, t *domain.Task) error {
	title, err := encodeLocalized(t.Title)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO tasks (
			id, program_id, mode, task_index, template_id, type, title,
			status, score, time_spent_seconds, response, evaluation_id,
			completed_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		t.ID, t.ProgramID, t.Mode, t.TaskIndex, t.TemplateID, t.Type, title,
		t.Status, t.Score, t.TimeSpentSeconds, t.Response, t.EvaluationID,
		t.CompletedAt, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		t     domain.Task
		title []byte
	)
	err := row.Scan(
		&t.ID, &t.ProgramID, &t.Mode, &t.TaskIndex, &t.TemplateID, &t.Type, &title,
		&t.Status, &t.Score, &t.TimeSpentSeconds, &t.Response, &t.EvaluationID,
		&t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if t.Title, err = decodeLocalized(title); err != nil {
		return nil, err
	}
	return &t, nil
}
