package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathwise/progression/internal/domain"
)

// EvaluationRepository implements evaluation persistence using PostgreSQL.
// Each subject has exactly one row; scoring passes overwrite it and bump the
// version column, which guards concurrent localize/score writes.
type EvaluationRepository struct {
	pool *pgxpool.Pool
}

// NewEvaluationRepository creates a new EvaluationRepository
func NewEvaluationRepository(pool *pgxpool.Pool) *EvaluationRepository {
	return &EvaluationRepository{pool: pool}
}

const evaluationColumns = `
	id, subject_id, evaluation_type, score, band, domain_scores,
	feedback, ai_analysis, language, translated_from, translated_at,
	version, created_at, updated_at
`

// FindByID retrieves an evaluation by ID
func (r *EvaluationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id = $1`
	e, err := scanEvaluation(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEvaluationNotFound
	}
	return e, err
}

// FindBySubject retrieves the evaluation for a task or program.
func (r *EvaluationRepository) FindBySubject(ctx context.Context, subjectID uuid.UUID, typ domain.EvaluationType) (*domain.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE subject_id = $1 AND evaluation_type = $2`
	e, err := scanEvaluation(r.pool.QueryRow(ctx, query, subjectID, typ))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEvaluationNotFound
	}
	return e, err
}

// ListBySubjects retrieves task evaluations for a set of task ids, for the
// program rollup.
func (r *EvaluationRepository) ListBySubjects(ctx context.Context, subjectIDs []uuid.UUID) ([]*domain.Evaluation, error) {
	query := `
		SELECT ` + evaluationColumns + `
		FROM evaluations
		WHERE subject_id = ANY($1) AND evaluation_type = 'task'
	`
	rows, err := r.pool.Query(ctx, query, subjectIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evals []*domain.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evals = append(evals, e)
	}
	return evals, rows.Err()
}

// Upsert writes a scoring pass. An existing row for the subject is
// overwritten in place (single source of truth, no history); the row's
// identity, creation time and bumped version are read back into e.
func (r *EvaluationRepository) Upsert(ctx context.Context, e *domain.Evaluation) error {
	domainScores, err := encodeJSONMap(e.DomainScores)
	if err != nil {
		return err
	}
	feedback, err := encodeFeedback(e.FeedbackData)
	if err != nil {
		return err
	}
	analysis, err := encodeJSONMap(e.AIAnalysis)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO evaluations (
			id, subject_id, evaluation_type, score, band, domain_scores,
			feedback, ai_analysis, language, translated_from, translated_at,
			version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $12)
		ON CONFLICT (subject_id, evaluation_type) DO UPDATE SET
			score           = EXCLUDED.score,
			band            = EXCLUDED.band,
			domain_scores   = EXCLUDED.domain_scores,
			feedback        = EXCLUDED.feedback,
			ai_analysis     = EXCLUDED.ai_analysis,
			language        = EXCLUDED.language,
			translated_from = EXCLUDED.translated_from,
			translated_at   = EXCLUDED.translated_at,
			version         = evaluations.version + 1,
			updated_at      = EXCLUDED.updated_at
		RETURNING id, version, created_at
	`
	return r.pool.QueryRow(ctx, query,
		e.ID, e.SubjectID, e.EvaluationType, e.Score, e.Band, domainScores,
		feedback, analysis, e.Language, e.TranslatedFrom, e.TranslatedAt,
		e.UpdatedAt,
	).Scan(&e.ID, &e.Version, &e.CreatedAt)
}

// UpdateLocalization overwrites the translatable parts of an evaluation,
// compare-and-set on the version it was read at. A concurrent writer makes
// the update miss and the caller gets domain.ErrEvaluationConflict with the
// stored record untouched.
func (r *EvaluationRepository) UpdateLocalization(ctx context.Context, e *domain.Evaluation, expectedVersion int) error {
	feedback, err := encodeFeedback(e.FeedbackData)
	if err != nil {
		return err
	}
	analysis, err := encodeJSONMap(e.AIAnalysis)
	if err != nil {
		return err
	}

	query := `
		UPDATE evaluations
		SET feedback        = $2,
		    ai_analysis     = $3,
		    language        = $4,
		    translated_from = $5,
		    translated_at   = $6,
		    version         = version + 1,
		    updated_at      = $7
		WHERE id = $1 AND version = $8
		RETURNING version
	`
	err = r.pool.QueryRow(ctx, query,
		e.ID, feedback, analysis, e.Language, e.TranslatedFrom, e.TranslatedAt,
		e.UpdatedAt, expectedVersion,
	).Scan(&e.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrEvaluationConflict
	}
	return err
}

func scanEvaluation(row pgx.Row) (*domain.Evaluation, error) {
	var (
		e            domain.Evaluation
		domainScores []byte
		feedback     []byte
		analysis     []byte
	)
	err := row.Scan(
		&e.ID, &e.SubjectID, &e.EvaluationType, &e.Score, &e.Band, &domainScores,
		&feedback, &analysis, &e.Language, &e.TranslatedFrom, &e.TranslatedAt,
		&e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if e.DomainScores, err = decodeJSONMap[float64](domainScores); err != nil {
		return nil, err
	}
	if e.FeedbackData, err = decodeFeedback(feedback); err != nil {
		return nil, err
	}
	if e.AIAnalysis, err = decodeJSONMap[any](analysis); err != nil {
		return nil, err
	}
	return &e, nil
}
