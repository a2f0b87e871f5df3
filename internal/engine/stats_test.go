package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunningStats_MatchesDirectComputation(t *testing.T) {
	values := []float64{2.8, 3.1, 2.95, 4.2, 2.7, 3.3, 2.9, 3.05}

	var s RunningStats
	for _, v := range values {
		s.Add(v)
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	sq := 0.0
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	variance := sq / float64(len(values))

	assert.Equal(t, len(values), s.Count())
	assert.InDelta(t, mean, s.Mean(), 1e-12)
	assert.InDelta(t, variance, s.Variance(), 1e-12)
	assert.InDelta(t, 1.96*math.Sqrt(variance/float64(len(values))), s.CI95(), 1e-12)
}

func TestRunningStats_DegenerateCounts(t *testing.T) {
	var s RunningStats
	assert.Equal(t, 0.0, s.Mean())
	assert.Equal(t, 0.0, s.Variance())
	assert.Equal(t, 0.0, s.CI95())

	s.Add(3.5)
	assert.Equal(t, 3.5, s.Mean())
	assert.Equal(t, 0.0, s.Variance())
	assert.Equal(t, 0.0, s.CI95())
}

func TestRunningStats_CIShrinks(t *testing.T) {
	// Bounded alternating stream: once two samples are in, the confidence
	// interval must never widen.
	var s RunningStats
	s.Add(1)
	s.Add(2)

	prev := s.CI95()
	for i := 0; i < 2000; i++ {
		if i%2 == 0 {
			s.Add(1)
		} else {
			s.Add(2)
		}
		cur := s.CI95()
		assert.LessOrEqual(t, cur, prev+1e-12)
		prev = cur
	}
	assert.Less(t, s.CI95(), 0.05)
}
