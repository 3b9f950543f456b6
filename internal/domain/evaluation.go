package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// EvaluationType distinguishes task-level evaluations from the program-level
// rollup.
type EvaluationType string

const (
	EvaluationTypeTask    EvaluationType = "task"
	EvaluationTypeProgram EvaluationType = "program"
)

// FeedbackData holds the qualitative feedback produced by the scoring oracle.
type FeedbackData struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	NextSteps    []string `json:"nextSteps"`
}

// Evaluation is the scoring/feedback record for a task or a completed
// program. There is exactly one row per subject: re-scoring and
// re-localization overwrite it in place, no history is retained.
type Evaluation struct {
	ID             uuid.UUID
	SubjectID      uuid.UUID
	EvaluationType EvaluationType
	Score          float64
	Band           string
	DomainScores   map[string]float64
	FeedbackData   FeedbackData
	AIAnalysis     map[string]any
	Language       string
	TranslatedFrom string
	TranslatedAt   *time.Time
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ClampScore bounds a score to [0,100].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClampDomainScores bounds every domain sub-score to [0,100].
func ClampDomainScores(scores map[string]float64) map[string]float64 {
	if scores == nil {
		return nil
	}
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		out[k] = ClampScore(v)
	}
	return out
}

// Band is a named qualitative tier with its inclusive lower score bound.
type Band struct {
	Name string
	Min  float64
}

// BandScale maps numeric scores to qualitative tiers via fixed thresholds.
// The thresholds are shared contract with completion-summary views, so they
// are configuration rather than per-call-site constants.
type BandScale struct {
	bands []Band // sorted descending by Min
}

// NewBandScale builds a scale from tiers. The lowest tier must start at 0 so
// every score lands in a band.
func NewBandScale(bands []Band) (*BandScale, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: band scale needs at least one tier", ErrInvalidInput)
	}
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })
	if sorted[len(sorted)-1].Min != 0 {
		return nil, fmt.Errorf("%w: lowest band must start at 0", ErrInvalidInput)
	}
	for _, b := range sorted {
		if b.Name == "" {
			return nil, fmt.Errorf("%w: band name must not be empty", ErrInvalidInput)
		}
		if b.Min < 0 || b.Min > 100 {
			return nil, fmt.Errorf("%w: band threshold %v out of range", ErrInvalidInput, b.Min)
		}
	}
	return &BandScale{bands: sorted}, nil
}

// DefaultBandScale returns the platform-wide tier thresholds.
func DefaultBandScale() *BandScale {
	scale, _ := NewBandScale([]Band{
		{Name: "excellent", Min: 85},
		{Name: "proficient", Min: 70},
		{Name: "developing", Min: 50},
		{Name: "needs improvement", Min: 0},
	})
	return scale
}

// Band returns the tier name for a score. Scores are clamped first, so the
// result is always a valid tier.
func (s *BandScale) Band(score float64) string {
	score = ClampScore(score)
	for _, b := range s.bands {
		if score >= b.Min {
			return b.Name
		}
	}
	return s.bands[len(s.bands)-1].Name
}
