package engine

import (
	"context"

	"github.com/fairway-labs/caddie-engine/internal/geo"
	"github.com/fairway-labs/caddie-engine/internal/strokes"
)

// Evaluator prices candidate aim points by Monte Carlo over the dispersion
// ellipse. One evaluator serves a whole run; it owns the strokes model (and
// with it the memo cache) so concurrent runs stay isolated.
type Evaluator struct {
	model   *strokes.Model
	sampler DispersionSampler

	// elevation lookups are best-effort: after the first failure the run
	// degrades to unadjusted surface distances.
	elevationDown bool
}

// NewEvaluator returns an evaluator with a fresh strokes model.
func NewEvaluator() *Evaluator {
	return &Evaluator{model: strokes.NewModel()}
}

// Evaluate prices aim by drawing up to sampleCap landing points, classifying
// and pricing each, and accumulating online statistics. After the warm-up it
// stops early once the 95% CI half-width falls to ciStop (ciStop <= 0
// disables early stopping). The context is checked between samples; on
// cancellation the partial result is discarded and the context error returned.
func (e *Evaluator) Evaluate(ctx context.Context, aim geo.Point, in *Input, sampleCap int, ciStop float64) (EvaluationResult, error) {
	dist := geo.DistanceMeters(in.Start, aim)
	bearing := geo.BearingRad(in.Start, aim)
	semiMajor, semiMinor := ellipseAxes(dist, in.Skill)

	warmup := in.Tuning.WarmupSamples
	if warmup <= 0 {
		warmup = DefaultTuning().WarmupSamples
	}

	var stats RunningStats
	for i := 0; i < sampleCap; i++ {
		if err := ctx.Err(); err != nil {
			return EvaluationResult{}, err
		}

		land := e.sampler.Sample(aim, semiMajor, semiMinor, bearing, i)
		cond, penalty := in.Mask.ClassAt(land).Pricing()

		toPin := geo.DistanceMeters(land, in.Pin)
		yards := e.playsLikeYards(in, land, toPin)

		stats.Add(e.model.Cost(yards, cond) + penalty)

		if stats.Count() >= warmup && ciStop > 0 && stats.CI95() <= ciStop {
			break
		}
	}

	return EvaluationResult{
		ES:      stats.Mean(),
		CI95:    stats.CI95(),
		Samples: stats.Count(),
	}, nil
}

// playsLikeYards converts the landing-to-pin surface distance to yards,
// adjusted for elevation change when a provider is available. Uphill to the
// pin plays longer. Any lookup failure disables the adjustment for the rest
// of the run rather than failing the optimization.
func (e *Evaluator) playsLikeYards(in *Input, land geo.Point, surfaceMeters float64) float64 {
	if in.Elevation == nil || e.elevationDown {
		return surfaceMeters * geo.YardsPerMeter
	}

	landElev, err := in.Elevation.SampleElevation(land)
	if err != nil {
		e.elevationDown = true
		return surfaceMeters * geo.YardsPerMeter
	}
	pinElev, err := in.Elevation.SampleElevation(in.Pin)
	if err != nil {
		e.elevationDown = true
		return surfaceMeters * geo.YardsPerMeter
	}

	adjusted := surfaceMeters + (pinElev - landElev)
	if adjusted < 0 {
		adjusted = 0
	}
	return adjusted * geo.YardsPerMeter
}
