package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/pathwise/progression/internal/api/middleware"
	"github.com/pathwise/progression/internal/domain"
	"github.com/pathwise/progression/internal/evaluation"
	"github.com/pathwise/progression/internal/program"
	"github.com/pathwise/progression/internal/progress"
)

// ProgramHandler handles program lifecycle and task progress endpoints
type ProgramHandler struct {
	programs    *program.Service
	progress    *progress.Service
	evaluations *evaluation.Service
}

// NewProgramHandler creates a new program handler
func NewProgramHandler(programs *program.Service, progress *progress.Service, evaluations *evaluation.Service) *ProgramHandler {
	return &ProgramHandler{
		programs:    programs,
		progress:    progress,
		evaluations: evaluations,
	}
}

type startProgramRequest struct {
	ScenarioID uuid.UUID `json:"scenario_id"`
}

// Start begins (or resumes) a program for the caller. Starting the same
// scenario twice returns the existing open program.
func (h *ProgramHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		Unauthorized(w, r, "authentication required")
		return
	}

	var req startProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request body")
		return
	}
	if req.ScenarioID == uuid.Nil {
		BadRequest(w, r, "scenario_id is required")
		return
	}

	pw, created, err := h.programs.EnsureProgram(r.Context(), userID, req.ScenarioID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			Unauthorized(w, r, "authentication required")
		case errors.Is(err, domain.ErrScenarioNotFound):
			NotFound(w, r, "scenario")
		default:
			InternalError(w, r, "failed to start program", err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"program": NewProgramView(pw.Program),
		"tasks":   NewTaskViews(pw.Tasks),
		"created": created,
	})
}

// Restart supersedes the caller's program and starts a fresh instance of
// the same scenario.
func (h *ProgramHandler) Restart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		Unauthorized(w, r, "authentication required")
		return
	}

	programID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, r, "invalid program id")
		return
	}

	pw, err := h.programs.Restart(r.Context(), userID, programID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProgramNotFound):
			NotFound(w, r, "program")
		case errors.Is(err, domain.ErrScenarioNotFound):
			NotFound(w, r, "scenario")
		default:
			InternalError(w, r, "failed to restart program", err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"program": NewProgramView(pw.Program),
		"tasks":   NewTaskViews(pw.Tasks),
	})
}

type completeTaskRequest struct {
	Score            *float64        `json:"score,omitempty"`
	TimeSpentSeconds int             `json:"time_spent_seconds,omitempty"`
	Response         json.RawMessage `json:"response,omitempty"`
}

// CompleteTask records a task result and refreshes program progress
func (h *ProgramHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	programID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, r, "invalid program id")
		return
	}
	taskID, err := uuid.Parse(r.PathValue("taskID"))
	if err != nil {
		BadRequest(w, r, "invalid task id")
		return
	}

	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request body")
		return
	}

	task, status, err := h.progress.CompleteTask(r.Context(), programID, taskID, domain.TaskResult{
		Score:            req.Score,
		TimeSpentSeconds: req.TimeSpentSeconds,
		Response:         req.Response,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProgramNotFound):
			NotFound(w, r, "program")
		case errors.Is(err, domain.ErrTaskNotFound):
			NotFound(w, r, "task")
		case errors.Is(err, domain.ErrProgramFinalized):
			Conflict(w, r, "program is finalized and locked")
		case errors.Is(err, domain.ErrInvalidInput):
			BadRequest(w, r, err.Error())
		default:
			InternalError(w, r, "failed to complete task", err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"task":           NewTaskView(task),
		"program_status": string(status),
	})
}

type appendTaskRequest struct {
	TemplateID string          `json:"template_id"`
	Type       string          `json:"type"`
	Title      json.RawMessage `json:"title,omitempty"`
}

// AppendTask adds an adaptive follow-up task to a running program
func (h *ProgramHandler) AppendTask(w http.ResponseWriter, r *http.Request) {
	programID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, r, "invalid program id")
		return
	}

	var req appendTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request body")
		return
	}

	taskType := domain.TaskType(req.Type)
	switch taskType {
	case domain.TaskTypeQuestion, domain.TaskTypeChat, domain.TaskTypeCreation, domain.TaskTypeAnalysis:
	default:
		BadRequest(w, r, "unknown task type")
		return
	}

	var title domain.LocalizedValue
	if len(req.Title) > 0 {
		if err := title.UnmarshalJSON(req.Title); err != nil {
			BadRequest(w, r, "invalid title")
			return
		}
	}

	task, err := h.progress.AppendTask(r.Context(), programID, domain.TaskTemplate{
		ID:    req.TemplateID,
		Type:  taskType,
		Title: title,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProgramNotFound):
			NotFound(w, r, "program")
		case errors.Is(err, domain.ErrProgramFinalized):
			Conflict(w, r, "program is finalized and locked")
		case errors.Is(err, domain.ErrInvalidInput):
			BadRequest(w, r, err.Error())
		default:
			InternalError(w, r, "failed to append task", err)
		}
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"task": NewTaskView(task),
	})
}

// Complete rolls the program's task evaluations up into a single
// program-level evaluation
func (h *ProgramHandler) Complete(w http.ResponseWriter, r *http.Request) {
	programID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, r, "invalid program id")
		return
	}

	eval, err := h.evaluations.RollupProgram(r.Context(), programID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProgramNotFound):
			NotFound(w, r, "program")
		case errors.Is(err, domain.ErrProgramNotReady):
			BadRequest(w, r, "program is not completed yet")
		default:
			InternalError(w, r, "failed to evaluate program", err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"evaluation": NewEvaluationView(eval),
	})
}
