// Package evaluation produces scoring and feedback records: per-task oracle
// scoring, program-level rollups, and on-demand feedback translation.
package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise/progression/internal/domain"
	"github.com/pathwise/progression/internal/oracle"
)

// EvaluationStore is the persistence interface for evaluations.
type EvaluationStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Evaluation, error)
	FindBySubject(ctx context.Context, subjectID uuid.UUID, typ domain.EvaluationType) (*domain.Evaluation, error)
	ListBySubjects(ctx context.Context, subjectIDs []uuid.UUID) ([]*domain.Evaluation, error)
	Upsert(ctx context.Context, e *domain.Evaluation) error
	UpdateLocalization(ctx context.Context, e *domain.Evaluation, expectedVersion int) error
}

// TaskStore supplies tasks and receives the evaluation back-reference.
type TaskStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListByProgram(ctx context.Context, programID uuid.UUID) ([]*domain.Task, error)
	SetEvaluationID(ctx context.Context, taskID, evaluationID uuid.UUID) error
}

// ProgramStore supplies programs for the rollup guard.
type ProgramStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Program, error)
}

// Config tunes scoring behavior.
type Config struct {
	// NeutralScore is recorded when the oracle is unreachable or its reply
	// cannot be parsed, so completed work is never left unscored.
	NeutralScore float64
	// OracleTimeout bounds a single oracle call.
	OracleTimeout time.Duration
	// ModeWeights weights task scores by task type in the program rollup,
	// per learning mode. Missing entries weigh 1.
	ModeWeights map[domain.Mode]map[domain.TaskType]float64
}

// DefaultConfig returns the platform defaults.
func DefaultConfig() Config {
	return Config{
		NeutralScore:  60,
		OracleTimeout: 60 * time.Second,
	}
}

// Service implements evaluation aggregation
type Service struct {
	provider oracle.Provider
	evals    EvaluationStore
	tasks    TaskStore
	programs ProgramStore
	bands    *domain.BandScale
	cfg      Config
	events   *domain.EventDispatcher
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new evaluation service. provider may be nil when no
// oracle is configured; scoring then always records the neutral default and
// localization fails.
func NewService(provider oracle.Provider, evals EvaluationStore, tasks TaskStore, programs ProgramStore, bands *domain.BandScale, cfg Config, events *domain.EventDispatcher, logger *slog.Logger) *Service {
	if bands == nil {
		bands = domain.DefaultBandScale()
	}
	if cfg.NeutralScore == 0 {
		cfg.NeutralScore = DefaultConfig().NeutralScore
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = DefaultConfig().OracleTimeout
	}
	return &Service{
		provider: provider,
		evals:    evals,
		tasks:    tasks,
		programs: programs,
		bands:    bands,
		cfg:      cfg,
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ScoreTask evaluates a task submission against a rubric. An unreachable
// oracle or an unparsable reply degrades to the neutral default score instead
// of leaving the task unscored. Re-scoring overwrites the subject's single
// evaluation row.
func (s *Service) ScoreTask(ctx context.Context, taskID uuid.UUID, rubric string) (*domain.Evaluation, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	payload := s.askScoringOracle(ctx, task, rubric)

	now := s.now()
	e := &domain.Evaluation{
		ID:             uuid.New(),
		SubjectID:      task.ID,
		EvaluationType: domain.EvaluationTypeTask,
		Score:          domain.ClampScore(*payload.Score),
		DomainScores:   domain.ClampDomainScores(payload.DomainScores),
		FeedbackData: domain.FeedbackData{
			Strengths:    payload.Strengths,
			Improvements: payload.Improvements,
			NextSteps:    payload.NextSteps,
		},
		AIAnalysis: payload.Analysis,
		Language:   domain.DefaultLanguage,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	e.Band = s.bands.Band(e.Score)

	if err := s.evals.Upsert(ctx, e); err != nil {
		return nil, err
	}
	if err := s.tasks.SetEvaluationID(ctx, task.ID, e.ID); err != nil {
		return nil, err
	}

	s.events.Publish(domain.NewEvaluationCreatedEvent(e))
	s.logger.Info("task scored",
		"task_id", task.ID,
		"evaluation_id", e.ID,
		"score", e.Score,
		"band", e.Band)
	return e, nil
}

// askScoringOracle returns the parsed scoring document, or the neutral
// fallback when the oracle cannot produce one. The returned payload always
// carries a score.
func (s *Service) askScoringOracle(ctx context.Context, task *domain.Task, rubric string) *scoringPayload {
	if s.provider == nil {
		return s.neutralPayload("no oracle provider configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	defer cancel()

	resp, err := s.provider.Generate(callCtx, &oracle.Request{
		System:   scoringSystemPrompt,
		Messages: []oracle.Message{{Role: oracle.RoleUser, Content: buildScoringPrompt(task, rubric)}},
	})
	if err != nil {
		s.logger.Warn("scoring oracle unavailable, recording neutral score",
			"task_id", task.ID, "error", err)
		return s.neutralPayload(fmt.Sprintf("oracle call failed: %v", err))
	}

	payload, err := parseScoring(resp.Content)
	if err != nil {
		s.logger.Warn("scoring reply unparsable, recording neutral score",
			"task_id", task.ID, "error", err)
		return s.neutralPayload(fmt.Sprintf("unparsable reply: %v", err))
	}
	return payload
}

func (s *Service) neutralPayload(reason string) *scoringPayload {
	score := s.cfg.NeutralScore
	return &scoringPayload{
		Score:    &score,
		Analysis: map[string]any{"scoringFallback": reason},
	}
}

// Localize translates an evaluation's feedback in place. Already-matching
// language short-circuits without an oracle call. Any oracle or parse failure
// surfaces ErrTranslationFailed with the stored record untouched; a concurrent
// writer surfaces ErrEvaluationConflict.
func (s *Service) Localize(ctx context.Context, evaluationID uuid.UUID, targetLang string) (*domain.Evaluation, error) {
	if targetLang == "" {
		return nil, fmt.Errorf("%w: target language required", domain.ErrInvalidInput)
	}

	e, err := s.evals.FindByID(ctx, evaluationID)
	if err != nil {
		return nil, err
	}

	sourceLang := e.Language
	if sourceLang == "" {
		sourceLang = domain.DefaultLanguage
	}
	if sourceLang == targetLang {
		return e, nil
	}

	if s.provider == nil {
		return nil, fmt.Errorf("%w: no oracle provider configured", domain.ErrTranslationFailed)
	}

	prompt, err := buildTranslationPrompt(e, sourceLang, targetLang)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTranslationFailed, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	defer cancel()

	resp, err := s.provider.Generate(callCtx, &oracle.Request{
		System:   translationSystemPrompt,
		Messages: []oracle.Message{{Role: oracle.RoleUser, Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTranslationFailed, err)
	}

	payload, err := parseTranslation(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTranslationFailed, err)
	}

	now := s.now()
	translated := *e
	translated.FeedbackData = domain.FeedbackData{
		Strengths:    payload.Strengths,
		Improvements: payload.Improvements,
		NextSteps:    payload.NextSteps,
	}
	if payload.Analysis != nil {
		translated.AIAnalysis = payload.Analysis
	}
	translated.Language = targetLang
	translated.TranslatedFrom = sourceLang
	translated.TranslatedAt = &now
	translated.UpdatedAt = now

	if err := s.evals.UpdateLocalization(ctx, &translated, e.Version); err != nil {
		return nil, err
	}

	s.logger.Info("evaluation localized",
		"evaluation_id", e.ID,
		"from", sourceLang,
		"to", targetLang)
	return &translated, nil
}

// RollupProgram aggregates a completed program's task evaluations into the
// single program-level evaluation row. Re-rollup overwrites it.
func (s *Service) RollupProgram(ctx context.Context, programID uuid.UUID) (*domain.Evaluation, error) {
	p, err := s.programs.FindByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if !p.IsCompleted() {
		return nil, fmt.Errorf("%w: program %s is %s", domain.ErrProgramNotReady, p.ID, p.Status)
	}

	tasks, err := s.tasks.ListByProgram(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	taskIDs := make([]uuid.UUID, 0, len(tasks))
	taskByID := make(map[uuid.UUID]*domain.Task, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
		taskByID[t.ID] = t
	}

	taskEvals, err := s.evals.ListBySubjects(ctx, taskIDs)
	if err != nil {
		return nil, err
	}
	if len(taskEvals) == 0 {
		return nil, fmt.Errorf("%w: program %s has no task evaluations", domain.ErrProgramNotReady, p.ID)
	}

	weights := s.cfg.ModeWeights[p.Mode]
	var weightedSum, weightTotal float64
	domainSums := make(map[string]float64)
	domainCounts := make(map[string]int)
	feedback := domain.FeedbackData{}

	for _, te := range taskEvals {
		weight := 1.0
		if task, ok := taskByID[te.SubjectID]; ok && weights != nil {
			if w, ok := weights[task.Type]; ok && w > 0 {
				weight = w
			}
		}
		weightedSum += te.Score * weight
		weightTotal += weight

		for name, v := range te.DomainScores {
			domainSums[name] += v
			domainCounts[name]++
		}
		feedback.Strengths = append(feedback.Strengths, te.FeedbackData.Strengths...)
		feedback.Improvements = append(feedback.Improvements, te.FeedbackData.Improvements...)
		feedback.NextSteps = append(feedback.NextSteps, te.FeedbackData.NextSteps...)
	}

	domainScores := make(map[string]float64, len(domainSums))
	for name, sum := range domainSums {
		domainScores[name] = domain.ClampScore(sum / float64(domainCounts[name]))
	}

	now := s.now()
	e := &domain.Evaluation{
		ID:             uuid.New(),
		SubjectID:      p.ID,
		EvaluationType: domain.EvaluationTypeProgram,
		Score:          domain.ClampScore(weightedSum / weightTotal),
		DomainScores:   domainScores,
		FeedbackData:   feedback,
		AIAnalysis: map[string]any{
			"taskEvaluations": len(taskEvals),
			"mode":            string(p.Mode),
		},
		Language:  domain.DefaultLanguage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.Band = s.bands.Band(e.Score)

	if err := s.evals.Upsert(ctx, e); err != nil {
		return nil, err
	}

	s.events.Publish(domain.NewEvaluationCreatedEvent(e))
	s.logger.Info("program rolled up",
		"program_id", p.ID,
		"evaluation_id", e.ID,
		"score", e.Score,
		"band", e.Band,
		"task_evaluations", len(taskEvals))
	return e, nil
}

// GetForSubject retrieves the evaluation for a task or program.
func (s *Service) GetForSubject(ctx context.Context, subjectID uuid.UUID, typ domain.EvaluationType) (*domain.Evaluation, error) {
	return s.evals.FindBySubject(ctx, subjectID, typ)
}

// Get retrieves an evaluation by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Evaluation, error) {
	return s.evals.FindByID(ctx, id)
}
