package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by repositories
// and services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Scenario errors
var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrScenarioInactive = errors.New("scenario is not active")
)

// Program errors
var (
	ErrProgramNotFound  = errors.New("program not found")
	ErrProgramNotReady  = errors.New("program is not completed yet")
	ErrProgramFinalized = errors.New("program is finalized and locked")
	ErrModeMismatch     = errors.New("program mode does not match scenario mode")
)

// Task errors
var (
	ErrTaskNotFound = errors.New("task not found")
)

// Evaluation errors
var (
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrEvaluationConflict = errors.New("evaluation was modified concurrently")
	ErrTranslationFailed  = errors.New("translation failed")
	ErrScoringUnavailable = errors.New("scoring oracle unavailable")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)
