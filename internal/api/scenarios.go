package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/pathwise/progression/internal/domain"
	"github.com/pathwise/progression/internal/scenario"
)

// ScenarioHandler handles scenario catalogue endpoints
type ScenarioHandler struct {
	scenarios *scenario.Service
}

// NewScenarioHandler creates a new scenario handler
func NewScenarioHandler(scenarios *scenario.Service) *ScenarioHandler {
	return &ScenarioHandler{scenarios: scenarios}
}

// Get returns a scenario with its multilingual fields resolved to the
// requested language (?lang=, default English)
func (h *ScenarioHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, r, "invalid scenario id")
		return
	}

	resolved, err := h.scenarios.GetResolved(r.Context(), id, r.URL.Query().Get("lang"))
	if err != nil {
		if errors.Is(err, domain.ErrScenarioNotFound) {
			NotFound(w, r, "scenario")
			return
		}
		InternalError(w, r, "failed to load scenario", err)
		return
	}

	WriteJSON(w, http.StatusOK, resolved)
}

// List returns active scenario summaries for a learning mode (?mode=)
func (h *ScenarioHandler) List(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.NewMode(r.URL.Query().Get("mode"))
	if err != nil {
		BadRequest(w, r, "unknown mode")
		return
	}

	scenarios, err := h.scenarios.ListByMode(r.Context(), mode)
	if err != nil {
		InternalError(w, r, "failed to list scenarios", err)
		return
	}

	summaries := make([]ScenarioSummary, 0, len(scenarios))
	for _, s := range scenarios {
		summaries = append(summaries, NewScenarioSummary(s))
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"scenarios": summaries,
		"total":     len(summaries),
	})
}
