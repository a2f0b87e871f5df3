package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairway-labs/caddie-engine/internal/course"
	"github.com/fairway-labs/caddie-engine/internal/geo"
	"github.com/fairway-labs/caddie-engine/internal/strokes"
)

const yardsToMeters = 0.9144

// testStart sits near the south edge of the raster so the forward half-plane
// points north, straight at the pin.
var testStart = geo.Point{Lon: -122.0, Lat: 37.0}

// fairwayInput builds the shared fixture: pin 150 yards due north over a
// uniform fairway, average-golfer dispersion, 200-yard max.
func fairwayInput() *Input {
	pin := geo.Destination(testStart, 0, 150*yardsToMeters)
	return &Input{
		Start:             testStart,
		Pin:               pin,
		MaxDistanceMeters: 200 * yardsToMeters,
		Skill:             SkillProfile{OfflineDeg: 5.5, DistPct: 6.5},
		Mask: course.Uniform(200, 200,
			testStart.Lon-0.005, testStart.Lat-0.002,
			testStart.Lon+0.005, testStart.Lat+0.006,
			course.ClassFairway),
		Eval:   EvalBudget{NEarly: 120, NFinal: 600, CI95Stop: 0.02},
		Seed:   1,
		Tuning: DefaultTuning(),
	}
}

type fixedElevation struct {
	byPoint func(geo.Point) (float64, error)
}

func (f fixedElevation) SampleElevation(p geo.Point) (float64, error) {
	return f.byPoint(p)
}

func TestEvaluate_Deterministic(t *testing.T) {
	in := fairwayInput()

	a, err := NewEvaluator().Evaluate(context.Background(), in.Pin, in, 400, 0.01)
	require.NoError(t, err)
	b, err := NewEvaluator().Evaluate(context.Background(), in.Pin, in, 400, 0.01)
	require.NoError(t, err)

	// Bit-identical across evaluators: same sequence, same arithmetic.
	assert.Equal(t, a, b)
}

func TestEvaluate_UniformFairwayMatchesModel(t *testing.T) {
	in := fairwayInput()

	res, err := NewEvaluator().Evaluate(context.Background(), in.Pin, in, 600, 0)
	require.NoError(t, err)
	assert.Equal(t, 600, res.Samples)

	// Aiming at the pin over uniform fairway, every landing is a short
	// fairway approach; the mean must sit between the at-hole cost and the
	// cost from the far edge of the dispersion ellipse.
	m := strokes.NewUncachedModel()
	semiMajor, semiMinor := ellipseAxes(geo.DistanceMeters(in.Start, in.Pin), in.Skill)
	maxAxis := math.Max(semiMajor, semiMinor)
	low := m.Cost(0, course.PriceFairway)
	high := m.Cost(maxAxis*geo.YardsPerMeter, course.PriceFairway)

	assert.GreaterOrEqual(t, res.ES, low)
	assert.LessOrEqual(t, res.ES, high)
	assert.GreaterOrEqual(t, res.ES, 1.0)
}

func TestEvaluate_EarlyStopRespectsWarmup(t *testing.T) {
	in := fairwayInput()

	// A huge CI target stops the loop at the warm-up boundary, never before.
	res, err := NewEvaluator().Evaluate(context.Background(), in.Pin, in, 500, 10.0)
	require.NoError(t, err)
	assert.Equal(t, in.Tuning.WarmupSamples, res.Samples)

	// Disabled early stop runs the whole cap.
	res, err = NewEvaluator().Evaluate(context.Background(), in.Pin, in, 90, 0)
	require.NoError(t, err)
	assert.Equal(t, 90, res.Samples)
}

func TestEvaluate_Cancellation(t *testing.T) {
	in := fairwayInput()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewEvaluator().Evaluate(ctx, in.Pin, in, 500, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, EvaluationResult{}, res, "cancelled call must not leak a partial result")
}

func TestEvaluate_ElevationAdjustsPlaysLike(t *testing.T) {
	in := fairwayInput()
	flat, err := NewEvaluator().Evaluate(context.Background(), in.Pin, in, 300, 0)
	require.NoError(t, err)

	// Pin 12 m above every landing point: approaches play longer, ES rises.
	uphill := fairwayInput()
	uphill.Elevation = fixedElevation{byPoint: func(p geo.Point) (float64, error) {
		if p == uphill.Pin {
			return 12, nil
		}
		return 0, nil
	}}
	up, err := NewEvaluator().Evaluate(context.Background(), uphill.Pin, uphill, 300, 0)
	require.NoError(t, err)
	assert.Greater(t, up.ES, flat.ES)
}

func TestEvaluate_ElevationFailureDegradesGracefully(t *testing.T) {
	in := fairwayInput()
	baseline, err := NewEvaluator().Evaluate(context.Background(), in.Pin, in, 300, 0)
	require.NoError(t, err)

	broken := fairwayInput()
	broken.Elevation = fixedElevation{byPoint: func(geo.Point) (float64, error) {
		return 0, errors.New("terrain service unavailable")
	}}
	res, err := NewEvaluator().Evaluate(context.Background(), broken.Pin, broken, 300, 0)
	require.NoError(t, err)
	assert.Equal(t, baseline, res, "failed lookups must fall back to surface distance")
}
