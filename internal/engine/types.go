// Package engine contains the aim-point optimization core: the dispersion
// Monte Carlo evaluator and the search strategies that drive it.
package engine

import (
	"context"

	"github.com/fairway-labs/caddie-engine/internal/course"
	"github.com/fairway-labs/caddie-engine/internal/geo"
)

// SkillProfile describes a player's shot dispersion: the offline half-angle
// in degrees and the longitudinal error as a percent of shot distance.
// Both must be positive.
type SkillProfile struct {
	OfflineDeg float64 `json:"offlineDeg"`
	DistPct    float64 `json:"distPct"`
}

// EvalBudget caps the Monte Carlo work per aim point. NEarly bounds the
// search-phase evaluations, NFinal the re-scoring of accepted candidates,
// and CI95Stop allows stopping early once the confidence interval is tight.
type EvalBudget struct {
	NEarly   int     `json:"nEarly"`
	NFinal   int     `json:"nFinal"`
	CI95Stop float64 `json:"ci95Stop"`
}

// Constraints restricts which aim points are legal and how close two
// returned candidates may sit.
type Constraints struct {
	DisallowFartherThanPin bool    `json:"disallowFartherThanPin"`
	MinSeparationMeters    float64 `json:"minSeparationMeters"`
}

// Tuning collects the empirically chosen search constants. The defaults are
// reasonable, not load-bearing; callers may override any of them.
type Tuning struct {
	// CEM
	Iterations     int     `json:"iterations"`
	Population     int     `json:"population"`
	EliteRatio     float64 `json:"eliteRatio"`
	VarianceFloor  float64 `json:"varianceFloor"`
	ConvergenceTol float64 `json:"convergenceTol"`
	MaxStagnation  int     `json:"maxStagnation"`

	// Ring-Grid
	RingSpacingMeters float64 `json:"ringSpacingMeters"`
	RingMinPoints     int     `json:"ringMinPoints"`
	RefineTopN        int     `json:"refineTopN"`
	RefineGridSide    int     `json:"refineGridSide"`
	RefineSpanRatio   float64 `json:"refineSpanRatio"`
	RandomCoverage    int     `json:"randomCoverage"`

	// Evaluator
	WarmupSamples int `json:"warmupSamples"`

	// Selector
	MaxCandidates int `json:"maxCandidates"`
}

// DefaultTuning returns the stock search constants.
func DefaultTuning() Tuning {
	return Tuning{
		Iterations:     30,
		Population:     40,
		EliteRatio:     0.2,
		VarianceFloor:  4.0,
		ConvergenceTol: 0.005,
		MaxStagnation:  5,

		RingSpacingMeters: 10,
		RingMinPoints:     7,
		RefineTopN:        5,
		RefineGridSide:    7,
		RefineSpanRatio:   0.05,
		RandomCoverage:    60,

		WarmupSamples: 40,

		MaxCandidates: 6,
	}
}

// withDefaults fills any unset tuning field from DefaultTuning so a
// partially specified override cannot zero out a loop bound.
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.Iterations <= 0 {
		t.Iterations = d.Iterations
	}
	if t.Population <= 0 {
		t.Population = d.Population
	}
	if t.EliteRatio <= 0 {
		t.EliteRatio = d.EliteRatio
	}
	if t.VarianceFloor <= 0 {
		t.VarianceFloor = d.VarianceFloor
	}
	if t.ConvergenceTol <= 0 {
		t.ConvergenceTol = d.ConvergenceTol
	}
	if t.MaxStagnation <= 0 {
		t.MaxStagnation = d.MaxStagnation
	}
	if t.RingSpacingMeters <= 0 {
		t.RingSpacingMeters = d.RingSpacingMeters
	}
	if t.RingMinPoints <= 0 {
		t.RingMinPoints = d.RingMinPoints
	}
	if t.RefineTopN <= 0 {
		t.RefineTopN = d.RefineTopN
	}
	if t.RefineGridSide <= 0 {
		t.RefineGridSide = d.RefineGridSide
	}
	if t.RefineSpanRatio <= 0 {
		t.RefineSpanRatio = d.RefineSpanRatio
	}
	if t.RandomCoverage <= 0 {
		t.RandomCoverage = d.RandomCoverage
	}
	if t.WarmupSamples <= 0 {
		t.WarmupSamples = d.WarmupSamples
	}
	if t.MaxCandidates <= 0 {
		t.MaxCandidates = d.MaxCandidates
	}
	return t
}

// ElevationProvider is the optional external collaborator used to refine a
// shot distance into its plays-like equivalent. Implementations may fail;
// the engine then falls back to the unadjusted surface distance.
type ElevationProvider interface {
	SampleElevation(p geo.Point) (float64, error)
}

// Progress is the per-phase snapshot handed to a progress callback.
type Progress struct {
	Phase       string  `json:"phase"`
	Iteration   int     `json:"iteration"`
	Evaluations int     `json:"evaluations"`
	BestES      float64 `json:"bestEs"`
}

// ProgressFunc receives search progress. May be nil. Called from the run's
// own goroutine; implementations must not block.
type ProgressFunc func(Progress)

// Input is the immutable per-run configuration bundle. The raster is
// caller-owned and only read.
type Input struct {
	Start             geo.Point
	Pin               geo.Point
	MaxDistanceMeters float64
	Skill             SkillProfile
	Mask              *course.Raster
	Eval              EvalBudget
	Constraints       Constraints

	Elevation ElevationProvider
	Progress  ProgressFunc

	// Seed fixes the random-coverage and CEM proposal RNG so runs are
	// reproducible. Zero means seed from the clock.
	Seed int64

	Tuning Tuning
}

// EvaluationResult summarizes one aim point's Monte Carlo pricing.
type EvaluationResult struct {
	ES      float64 `json:"es"`
	CI95    float64 `json:"esCi95"`
	Samples int     `json:"samples"`
}

// Candidate is an aim point with its evaluation summary. Value object; its
// only identity is the coordinate.
type Candidate struct {
	Point geo.Point `json:"point"`
	ES    float64   `json:"es"`
	CI95  float64   `json:"esCi95"`
}

// Result is the ordered outcome of one optimization run, best aim first.
type Result struct {
	Candidates  []Candidate `json:"candidates"`
	Iterations  int         `json:"iterations"`
	Evaluations int         `json:"evaluations"`
}

// Strategy is the closed set of search implementations. Adding a strategy
// means adding a variant here, not touching callers.
type Strategy interface {
	Name() string
	Run(ctx context.Context, in *Input) (*Result, error)
}

// scored is one evaluated (point, ES) pair accumulated during a search.
// Every evaluation lands in the run pool; candidate selection works off the
// whole record, not just a strategy's final state.
type scored struct {
	point geo.Point
	es    float64
	ci95  float64
}

// legalAim reports whether an aim point satisfies the shared legality
// constraints. Illegal points never consume Monte Carlo budget.
func legalAim(p geo.Point, in *Input) bool {
	if geo.DistanceMeters(in.Start, p) > in.MaxDistanceMeters {
		return false
	}
	if in.Constraints.DisallowFartherThanPin {
		if geo.DistanceMeters(p, in.Pin) > geo.DistanceMeters(in.Start, in.Pin) {
			return false
		}
	}
	return true
}

func reportProgress(in *Input, p Progress) {
	if in.Progress != nil {
		in.Progress(p)
	}
}
