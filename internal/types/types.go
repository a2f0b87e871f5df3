// Package types holds the wire-level request and response shapes shared by
// the HTTP handlers, the result cache, and the progress hub.
package types

import (
	"time"

	"github.com/fairway-labs/caddie-engine/internal/course"
	"github.com/fairway-labs/caddie-engine/internal/engine"
	"github.com/fairway-labs/caddie-engine/internal/geo"
)

// OptimizeRequest is the aim-point optimization request body. Raster classes
// travel as base64 in the JSON payload.
type OptimizeRequest struct {
	Start             geo.Point           `json:"start" binding:"required"`
	Pin               geo.Point           `json:"pin" binding:"required"`
	MaxDistanceMeters float64             `json:"maxDistanceMeters" binding:"required"`
	Skill             engine.SkillProfile `json:"skill" binding:"required"`
	Mask              course.Raster       `json:"mask" binding:"required"`
	Eval              engine.EvalBudget   `json:"eval"`
	Constraints       engine.Constraints  `json:"constraints"`
	Tuning            *engine.Tuning      `json:"tuning,omitempty"`

	// Strategy selects the search: "cem" (default) or "ring-grid".
	Strategy string `json:"strategy"`

	// Seed fixes the stochastic parts of the search for reproducible runs.
	Seed int64 `json:"seed"`

	// RunID ties progress updates to a websocket subscription. Assigned by
	// the server when empty.
	RunID string `json:"runId"`
}

// CandidateJSON is one recommended aim point.
type CandidateJSON struct {
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	ES     float64 `json:"es"`
	ESCI95 float64 `json:"esCi95"`
}

// OptimizeResponse is the aim-point optimization result, candidates sorted
// ascending by expected strokes.
type OptimizeResponse struct {
	RunID       string          `json:"runId"`
	Strategy    string          `json:"strategy"`
	Candidates  []CandidateJSON `json:"candidates"`
	Iterations  int             `json:"iterations"`
	Evaluations int             `json:"evalCount"`
	DurationMs  int64           `json:"durationMs"`
	Cached      bool            `json:"cached"`
}

// ProgressUpdate is pushed over the websocket while a run is in flight.
type ProgressUpdate struct {
	Type        string    `json:"type"`
	RunID       string    `json:"runId"`
	Phase       string    `json:"phase"`
	Iteration   int       `json:"iteration"`
	Evaluations int       `json:"evaluations"`
	BestES      float64   `json:"bestEs"`
	Timestamp   time.Time `json:"timestamp"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthStatus reports service health per dependency.
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}
