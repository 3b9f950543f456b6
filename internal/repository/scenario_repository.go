package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathwise/progression/internal/domain"
)

// ScenarioRepository implements scenario persistence using PostgreSQL
type ScenarioRepository struct {
	pool *pgxpool.Pool
}

// NewScenarioRepository creates a new ScenarioRepository
func NewScenarioRepository(pool *pgxpool.Pool) *ScenarioRepository {
	return &ScenarioRepository{pool: pool}
}

const scenarioColumns = `
	id, mode, status, title, description, objectives,
	task_templates, template, difficulty, estimated_minutes,
	created_at, updated_at
`

// FindByID retrieves a scenario by ID
func (r *ScenarioRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Scenario, error) {
	query := `SELECT ` + scenarioColumns + ` FROM scenarios WHERE id = $1`
	s, err := scanScenario(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrScenarioNotFound
	}
	return s, err
}

// ListByMode retrieves active scenarios for a learning mode
func (r *ScenarioRepository) ListByMode(ctx context.Context, mode domain.Mode) ([]*domain.Scenario, error) {
	query := `
		SELECT ` + scenarioColumns + `
		FROM scenarios
		WHERE mode = $1 AND status = 'active'
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, mode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenarios []*domain.Scenario
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, rows.Err()
}

// Upsert inserts or replaces a scenario. Used by the content importer; the
// engine itself never mutates scenarios.
func (r *ScenarioRepository) Upsert(ctx context.Context, s *domain.Scenario) error {
	title, err := encodeLocalized(s.Title)
	if err != nil {
		return err
	}
	description, err := encodeLocalized(s.Description)
	if err != nil {
		return err
	}
	objectives, err := encodeLocalized(s.Objectives)
	if err != nil {
		return err
	}
	templates, err := encodeTaskTemplates(s.TaskTemplates)
	if err != nil {
		return err
	}
	template, err := encodeScenarioTemplate(s.Template)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scenarios (
			id, mode, status, title, description, objectives,
			task_templates, template, difficulty, estimated_minutes,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			mode              = EXCLUDED.mode,
			status            = EXCLUDED.status,
			title             = EXCLUDED.title,
			description       = EXCLUDED.description,
			objectives        = EXCLUDED.objectives,
			task_templates    = EXCLUDED.task_templates,
			template          = EXCLUDED.template,
			difficulty        = EXCLUDED.difficulty,
			estimated_minutes = EXCLUDED.estimated_minutes,
			updated_at        = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query,
		s.ID, s.Mode, s.Status, title, description, objectives,
		templates, template, s.Difficulty, s.EstimatedMinutes,
		s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func scanScenario(row pgx.Row) (*domain.Scenario, error) {
	var (
		s           domain.Scenario
		title       []byte
		description []byte
		objectives  []byte
		templates   []byte
		template    []byte
	)
	err := row.Scan(
		&s.ID, &s.Mode, &s.Status, &title, &description, &objectives,
		&templates, &template, &s.Difficulty, &s.EstimatedMinutes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if s.Title, err = decodeLocalized(title); err != nil {
		return nil, err
	}
	if s.Description, err = decodeLocalized(description); err != nil {
		return nil, err
	}
	if s.Objectives, err = decodeLocalized(objectives); err != nil {
		return nil, err
	}
	if s.TaskTemplates, err = decodeTaskTemplates(templates); err != nil {
		return nil, err
	}
	if s.Template, err = decodeScenarioTemplate(template); err != nil {
		return nil, err
	}
	return &s, nil
}
