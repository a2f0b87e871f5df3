package engine

import "math"

// RunningStats is a Welford online accumulator. It backs the evaluator's
// early-stopping rule, so Add must stay allocation-free.
type RunningStats struct {
	n    int
	mean float64
	m2   float64
}

// Add folds one observation into the accumulator.
func (s *RunningStats) Add(x float64) {
	s.n++
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

// Count returns the number of observations seen.
func (s *RunningStats) Count() int { return s.n }

// Mean returns the running mean, zero before any observation.
func (s *RunningStats) Mean() float64 { return s.mean }

// Variance returns the population variance; zero for fewer than two samples.
func (s *RunningStats) Variance() float64 {
	if s.n < 2 {
		return 0
	}
	return s.m2 / float64(s.n)
}

// CI95 returns the half-width of the 95% confidence interval around the mean.
func (s *RunningStats) CI95() float64 {
	if s.n < 2 {
		return 0
	}
	return 1.96 * math.Sqrt(s.Variance()/float64(s.n))
}
