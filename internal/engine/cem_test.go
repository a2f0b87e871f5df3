package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/fairway-labs/caddie-engine/internal/geo"
)

func TestCEM_Name(t *testing.T) {
	assert.Equal(t, "cem", NewCEMSearch(nil).Name())
}

func TestCEM_DrawPopulationStaysLegal(t *testing.T) {
	in := fairwayInput()
	in.Constraints.DisallowFartherThanPin = true

	src := rand.NewSource(7)
	mean := []float64{0, 50}
	sigma := mat.NewSymDense(2, []float64{400, 0, 0, 400})
	normal, ok := distmv.NewNormal(mean, sigma, src)
	require.True(t, ok)

	c := NewCEMSearch(nil)
	population := c.drawPopulation(normal, rand.New(src), in, 64)
	require.NotEmpty(t, population)

	for _, local := range population {
		p := geo.Offset(in.Start, local[0], local[1])
		assert.True(t, legalAim(p, in), "proposal (%.1f, %.1f) escaped the legality filter", local[0], local[1])
	}
}

func TestCEM_RefitTracksElitesAndFloorsVariance(t *testing.T) {
	in := fairwayInput()
	c := NewCEMSearch(nil)

	// A tight elite cluster: 20 m east, 80 m north, half-meter spread.
	elites := []scored{
		{point: geo.Offset(in.Start, 19.5, 80.0)},
		{point: geo.Offset(in.Start, 20.0, 80.5)},
		{point: geo.Offset(in.Start, 20.5, 79.5)},
		{point: geo.Offset(in.Start, 20.0, 80.0)},
	}

	mean := []float64{0, 0}
	sigma := mat.NewSymDense(2, []float64{100, 0, 0, 100})
	rawTrace := c.refit(elites, in.Start, mean, sigma, 4.0)

	assert.InDelta(t, 20.0, mean[0], 0.5)
	assert.InDelta(t, 80.0, mean[1], 0.5)

	// The cluster's true variance is far below the floor.
	assert.Less(t, rawTrace, 1.0)
	assert.GreaterOrEqual(t, sigma.At(0, 0), 4.0)
	assert.GreaterOrEqual(t, sigma.At(1, 1), 4.0)
}

func TestCEM_TerminatesBeforeIterationCap(t *testing.T) {
	// Uniform fairway has a single smooth basin; stagnation or covariance
	// collapse should end the run well before the cap.
	in := fairwayInput()
	in.Tuning.Iterations = 100

	res, err := NewCEMSearch(nil).Run(context.Background(), in)
	require.NoError(t, err)
	assert.Less(t, res.Iterations, 100)
	assert.NotEmpty(t, res.Candidates)
}

func TestCEM_ProgressReportsMonotoneBest(t *testing.T) {
	in := fairwayInput()

	var bests []float64
	in.Progress = func(p Progress) {
		assert.Equal(t, "cem", p.Phase)
		bests = append(bests, p.BestES)
	}

	_, err := NewCEMSearch(nil).Run(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, bests)

	for i := 1; i < len(bests); i++ {
		assert.LessOrEqual(t, bests[i], bests[i-1], "best-seen ES must never regress")
	}
	assert.False(t, math.IsInf(bests[len(bests)-1], 1))
}
