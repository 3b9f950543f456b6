package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pathwise/progression/internal/api/middleware"
)

// Router wraps the HTTP multiplexer with middleware and handlers
type Router struct {
	mux         *http.ServeMux
	app         *App
	programs    *ProgramHandler
	evaluations *EvaluationHandler
	scenarios   *ScenarioHandler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(app *App) http.Handler {
	r := &Router{
		mux: http.NewServeMux(),
		app: app,
	}

	r.programs = NewProgramHandler(app.Programs, app.Progress, app.Evaluations)
	r.evaluations = NewEvaluationHandler(app.Evaluations)
	r.scenarios = NewScenarioHandler(app.Scenarios)

	r.registerRoutes()

	return r.buildMiddlewareChain(r.mux, app)
}

func (r *Router) registerRoutes() {
	// Health check
	r.mux.HandleFunc("GET /health", r.handleHealth)
	r.mux.HandleFunc("GET /ready", r.handleReady)

	// Scenarios (catalogue reads)
	r.mux.HandleFunc("GET /api/v1/scenarios", r.scenarios.List)
	r.mux.HandleFunc("GET /api/v1/scenarios/{id}", r.scenarios.Get)

	// Programs
	r.mux.HandleFunc("POST /api/v1/programs/start", r.programs.Start)
	r.mux.HandleFunc("POST /api/v1/programs/{id}/restart", r.programs.Restart)
	r.mux.HandleFunc("PATCH /api/v1/programs/{id}/tasks/{taskID}", r.programs.CompleteTask)
	r.mux.HandleFunc("POST /api/v1/programs/{id}/tasks", r.programs.AppendTask)
	r.mux.HandleFunc("POST /api/v1/programs/{id}/complete", r.programs.Complete)

	// Evaluations
	r.mux.HandleFunc("GET /api/v1/evaluations/{id}", r.evaluations.Get)
	r.mux.HandleFunc("POST /api/v1/evaluations/{id}/localize", r.evaluations.Localize)
}

func (r *Router) buildMiddlewareChain(handler http.Handler, app *App) http.Handler {
	// Apply middleware in reverse order (last applied = first executed)
	handler = middleware.Recovery(handler)
	handler = middleware.Logger(handler)

	// Rate limiting is keyed by identity, so it sits after Identity in the
	// execution order. Skipped in debug mode for easier development.
	if !app.Config.Debug {
		handler = middleware.RateLimit(middleware.DefaultRateLimitConfig())(handler)
	}

	handler = middleware.Identity(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.CORS(handler)

	return handler
}

// Health check handlers
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	checks := map[string]string{"database": "healthy"}
	ready := true

	if err := r.app.DB.Ping(req.Context()); err != nil {
		slog.Error("database health check failed",
			"error", err,
			"request_id", middleware.GetRequestID(req.Context()),
		)
		checks["database"] = "unhealthy"
		ready = false
	}

	if r.app.Cache != nil {
		checks["cache"] = "healthy"
		if err := r.app.Cache.Ping(req.Context()); err != nil {
			slog.Warn("cache health check failed",
				"error", err,
				"request_id", middleware.GetRequestID(req.Context()),
			)
			// Cache is an optimization; a dead cache does not make the
			// service unready.
			checks["cache"] = "unhealthy"
		}
	}

	if !ready {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": checks,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": checks,
	})
}
