package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairway-labs/caddie-engine/internal/geo"
)

func TestRadicalInverse_FirstElements(t *testing.T) {
	// Base 2: 1 -> 0.5, 2 -> 0.25, 3 -> 0.75, 4 -> 0.125.
	assert.InDelta(t, 0.5, radicalInverse(2, 1), 1e-15)
	assert.InDelta(t, 0.25, radicalInverse(2, 2), 1e-15)
	assert.InDelta(t, 0.75, radicalInverse(2, 3), 1e-15)
	assert.InDelta(t, 0.125, radicalInverse(2, 4), 1e-15)

	// Base 3: 1 -> 1/3, 2 -> 2/3, 3 -> 1/9.
	assert.InDelta(t, 1.0/3, radicalInverse(3, 1), 1e-15)
	assert.InDelta(t, 2.0/3, radicalInverse(3, 2), 1e-15)
	assert.InDelta(t, 1.0/9, radicalInverse(3, 3), 1e-15)
}

func TestSample_Deterministic(t *testing.T) {
	var s DispersionSampler
	aim := geo.Point{Lon: -122.0, Lat: 37.0}

	for i := 0; i < 50; i++ {
		a := s.Sample(aim, 15, 6, 0.7, i)
		b := s.Sample(aim, 15, 6, 0.7, i)
		assert.Equal(t, a, b, "sample %d must be bit-identical across calls", i)
	}
}

func TestSample_StaysInsideEllipse(t *testing.T) {
	var s DispersionSampler
	aim := geo.Point{Lon: -122.0, Lat: 37.0}
	semiMajor, semiMinor, bearing := 20.0, 8.0, 0.35

	sin, cos := math.Sin(bearing), math.Cos(bearing)
	for i := 0; i < 500; i++ {
		p := s.Sample(aim, semiMajor, semiMinor, bearing, i)
		east, north := geo.LocalOffset(aim, p)

		// Rotate back into ellipse coordinates.
		along := east*sin + north*cos
		cross := east*cos - north*sin

		r2 := (along/semiMajor)*(along/semiMajor) + (cross/semiMinor)*(cross/semiMinor)
		assert.LessOrEqual(t, r2, 1.0+1e-6, "sample %d outside dispersion ellipse", i)
	}
}

func TestSample_ZeroBearingAxes(t *testing.T) {
	var s DispersionSampler
	aim := geo.Point{Lon: -122.0, Lat: 37.0}

	// With bearing 0 the major axis runs north-south; with a tiny minor
	// axis every sample hugs that line.
	for i := 0; i < 100; i++ {
		p := s.Sample(aim, 30, 0.001, 0, i)
		east, _ := geo.LocalOffset(aim, p)
		assert.InDelta(t, 0, east, 0.01)
	}
}

func TestSampleBatch_MatchesSequentialSamples(t *testing.T) {
	var s DispersionSampler
	aim := geo.Point{Lon: -122.0, Lat: 37.0}

	batch := s.SampleBatch(make([]geo.Point, 20), aim, 12, 5, 1.1, 7)
	require.Len(t, batch, 20)
	for k, p := range batch {
		assert.Equal(t, s.Sample(aim, 12, 5, 1.1, 7+k), p)
	}
}

func TestEllipseAxes(t *testing.T) {
	major, minor := ellipseAxes(150, SkillProfile{OfflineDeg: 5, DistPct: 6})
	assert.InDelta(t, 9.0, major, 1e-9)
	assert.InDelta(t, 150*math.Tan(5*math.Pi/180), minor, 1e-9)
}
