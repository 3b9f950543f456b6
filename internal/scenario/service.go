// Package scenario serves learning-content templates: cached reads for the
// program lifecycle, language-resolved views for the API, and the authoring
// import path.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pathwise/progression/internal/content"
	"github.com/pathwise/progression/internal/domain"
)

// Store is the persistence interface the service depends on.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Scenario, error)
	ListByMode(ctx context.Context, mode domain.Mode) ([]*domain.Scenario, error)
	Upsert(ctx context.Context, s *domain.Scenario) error
}

// Service provides access to scenarios
type Service struct {
	store    Store
	cache    *Cache
	resolver *content.Resolver
	logger   *slog.Logger
}

// NewService creates a new scenario service. cache may be nil when Redis is
// not configured; reads then always hit the store.
func NewService(store Store, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		resolver: content.NewResolver(),
		logger:   logger,
	}
}

// Get retrieves a scenario in any status, cache-aside.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Scenario, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("scenario cache read failed", "scenario_id", id, "error", err)
		}
	}

	scenario, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, scenario); err != nil {
			s.logger.Warn("scenario cache write failed", "scenario_id", id, "error", err)
		}
	}
	return scenario, nil
}

// GetStartable retrieves a scenario learners may start programs from.
// Draft and archived scenarios are reported as inactive.
func (s *Service) GetStartable(ctx context.Context, id uuid.UUID) (*domain.Scenario, error) {
	scenario, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scenario.IsActive() {
		return nil, fmt.Errorf("%w: scenario %s is %s", domain.ErrScenarioInactive, id, scenario.Status)
	}
	return scenario, nil
}

// ListByMode retrieves the active scenarios of a learning mode.
func (s *Service) ListByMode(ctx context.Context, mode domain.Mode) ([]*domain.Scenario, error) {
	return s.store.ListByMode(ctx, mode)
}

// ResolvedScenario is the display view of a scenario in one language.
type ResolvedScenario struct {
	ID               uuid.UUID             `json:"id"`
	Mode             domain.Mode           `json:"mode"`
	Status           domain.ScenarioStatus `json:"status"`
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	Objectives       []string              `json:"objectives"`
	TaskCount        int                   `json:"taskCount"`
	Difficulty       domain.Difficulty     `json:"difficulty,omitempty"`
	EstimatedMinutes int                   `json:"estimatedMinutes,omitempty"`
	Language         string                `json:"language"`
}

// GetResolved retrieves a scenario with its multilingual fields resolved to
// lang. An empty lang resolves to English.
func (s *Service) GetResolved(ctx context.Context, id uuid.UUID, lang string) (*ResolvedScenario, error) {
	if lang == "" {
		lang = domain.DefaultLanguage
	}
	scenario, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolve(scenario, lang), nil
}

func (s *Service) resolve(scenario *domain.Scenario, lang string) *ResolvedScenario {
	return &ResolvedScenario{
		ID:               scenario.ID,
		Mode:             scenario.Mode,
		Status:           scenario.Status,
		Title:            s.resolver.ResolveText(scenario, domain.FieldTitle, lang),
		Description:      s.resolver.ResolveText(scenario, domain.FieldDescription, lang),
		Objectives:       s.resolver.Resolve(scenario, domain.FieldObjectives, lang),
		TaskCount:        len(scenario.TaskTemplates),
		Difficulty:       scenario.Difficulty,
		EstimatedMinutes: scenario.EstimatedMinutes,
		Language:         lang,
	}
}

// Import upserts scenarios loaded from authoring seed files and invalidates
// their cache entries. A single bad scenario aborts the whole import.
func (s *Service) Import(ctx context.Context, scenarios []*domain.Scenario) error {
	for _, scenario := range scenarios {
		if err := s.store.Upsert(ctx, scenario); err != nil {
			return fmt.Errorf("import scenario %s: %w", scenario.ID, err)
		}
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx, scenario.ID); err != nil {
				s.logger.Warn("scenario cache invalidation failed", "scenario_id", scenario.ID, "error", err)
			}
		}
		s.logger.Info("scenario imported", "scenario_id", scenario.ID, "mode", scenario.Mode, "status", scenario.Status)
	}
	return nil
}
