package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairway-labs/caddie-engine/internal/geo"
)

func TestRingGrid_Name(t *testing.T) {
	assert.Equal(t, "ring-grid", NewRingGridSearch(nil).Name())
}

func TestRingGrid_PhasesInOrder(t *testing.T) {
	in := fairwayInput()

	var phases []string
	in.Progress = func(p Progress) {
		phases = append(phases, p.Phase)
	}

	_, err := NewRingGridSearch(nil).Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"ring-sweep", "refinement", "random-coverage"}, phases)
}

func TestRingGrid_EvaluationCountGrowsAcrossPhases(t *testing.T) {
	in := fairwayInput()

	var counts []int
	in.Progress = func(p Progress) {
		counts = append(counts, p.Evaluations)
	}

	res, err := NewRingGridSearch(nil).Run(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Less(t, counts[0], counts[1])
	assert.Less(t, counts[1], counts[2])
	// Selection re-scoring runs after the last phase report.
	assert.GreaterOrEqual(t, res.Evaluations, counts[2])
}

func TestRingGrid_RespectsFartherThanPinConstraint(t *testing.T) {
	in := fairwayInput()
	in.Constraints.DisallowFartherThanPin = true

	res, err := NewRingGridSearch(nil).Run(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, res.Candidates)

	pinDist := geo.DistanceMeters(in.Start, in.Pin)
	for i, c := range res.Candidates {
		assert.LessOrEqual(t, geo.DistanceMeters(c.Point, in.Pin), pinDist+1e-6,
			"candidate %d is farther from the pin than the start", i)
	}
}

func TestRingGrid_UnseededRunsStillComplete(t *testing.T) {
	in := fairwayInput()
	in.Seed = 0 // clock-seeded random coverage

	res, err := NewRingGridSearch(nil).Run(context.Background(), in)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Candidates)
	assert.Positive(t, res.Evaluations)
}
