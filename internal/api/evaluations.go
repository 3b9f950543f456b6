package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/pathwise/progression/internal/domain"
	"github.com/pathwise/progression/internal/evaluation"
)

// EvaluationHandler handles evaluation endpoints
type EvaluationHandler struct {
	evaluations *evaluation.Service
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(evaluations *evaluation.Service) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations}
}

// Get returns a single evaluation by ID
func (h *EvaluationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, r, "invalid evaluation id")
		return
	}

	eval, err := h.evaluations.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrEvaluationNotFound) {
			NotFound(w, r, "evaluation")
			return
		}
		InternalError(w, r, "failed to load evaluation", err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"evaluation": NewEvaluationView(eval),
	})
}

type localizeRequest struct {
	Language string `json:"language"`
}

// Localize translates an evaluation's feedback into the requested language,
// overwriting the stored record in place.
func (h *EvaluationHandler) Localize(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, r, "invalid evaluation id")
		return
	}

	var req localizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request body")
		return
	}
	if req.Language == "" {
		BadRequest(w, r, "language is required")
		return
	}

	eval, err := h.evaluations.Localize(r.Context(), id, req.Language)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEvaluationNotFound):
			NotFound(w, r, "evaluation")
		case errors.Is(err, domain.ErrEvaluationConflict):
			Conflict(w, r, "evaluation was modified concurrently")
		case errors.Is(err, domain.ErrInvalidInput):
			BadRequest(w, r, err.Error())
		case errors.Is(err, domain.ErrTranslationFailed):
			WriteError(w, r, http.StatusInternalServerError,
				NewAPIError("TRANSLATION_FAILED", "translation failed, stored evaluation is unchanged").WithCause(err))
		default:
			InternalError(w, r, "failed to localize evaluation", err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"evaluation": NewEvaluationView(eval),
	})
}
