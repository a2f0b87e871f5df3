// Package strokes prices a lie as the expected number of strokes to hole out.
// The curves are cubic regressions against shot-tracking baselines, each valid
// up to a condition-specific ceiling with a monotone linear tail beyond it.
package strokes

import "github.com/fairway-labs/caddie-engine/internal/course"

// curve is a bounded cubic c0 + c1*d + c2*d^2 + c3*d^3 over yards, switching
// to a linear tail past ceilingYards. The tail is anchored at the curve value
// at the ceiling so the function stays continuous.
type curve struct {
	coeffs       [4]float64
	ceilingYards float64
	tailSlope    float64
}

func (c curve) eval(d float64) float64 {
	if d > c.ceilingYards {
		e := c.ceilingYards
		return c.coeffs[0] + e*(c.coeffs[1]+e*(c.coeffs[2]+e*c.coeffs[3])) +
			c.tailSlope*(d-e)
	}
	return c.coeffs[0] + d*(c.coeffs[1]+d*(c.coeffs[2]+d*c.coeffs[3]))
}

// Fitted per-condition curves. Water has no curve of its own: it prices as
// rough plus a one-stroke drop.
var curves = map[course.PricingCondition]curve{
	course.PriceGreen: {
		coeffs:       [4]float64{1.0, 0.12, -0.0045, 0.00006},
		ceilingYards: 30,
		tailSlope:    0.010,
	},
	course.PriceFairway: {
		coeffs:       [4]float64{2.28, 0.0065, -0.0000135, 0.00000002},
		ceilingYards: 350,
		tailSlope:    0.0040,
	},
	course.PriceRough: {
		coeffs:       [4]float64{2.50, 0.0072, -0.0000155, 0.0000000225},
		ceilingYards: 350,
		tailSlope:    0.0045,
	},
	course.PriceSand: {
		coeffs:       [4]float64{2.65, 0.0078, -0.0000165, 0.0000000235},
		ceilingYards: 320,
		tailSlope:    0.0050,
	},
	course.PriceRecovery: {
		coeffs:       [4]float64{3.00, 0.0082, -0.0000170, 0.0000000240},
		ceilingYards: 320,
		tailSlope:    0.0052,
	},
}

// Model evaluates expected strokes. Each optimization run owns its own Model
// so the memo cache never crosses runs; the cache can be disabled for tests.
type Model struct {
	cache map[uint32]float64
}

// NewModel returns a model with memoization enabled. The Monte Carlo loops
// revisit the same (rounded distance, condition) pairs constantly, so the
// cache pays for itself within a single evaluation.
func NewModel() *Model {
	return &Model{cache: make(map[uint32]float64, 1024)}
}

// NewUncachedModel returns a model that recomputes every call.
func NewUncachedModel() *Model {
	return &Model{}
}

// Cost returns the expected strokes to hole out from distanceYards in the
// given condition. Negative distances clamp to zero; the result is never
// below 1.0. Pure aside from the instance-owned cache.
func (m *Model) Cost(distanceYards float64, cond course.PricingCondition) float64 {
	if distanceYards < 0 {
		distanceYards = 0
	}

	if m.cache != nil {
		key := uint32(cond)<<24 | uint32(distanceYards+0.5)
		if v, ok := m.cache[key]; ok {
			return v
		}
		v := m.compute(float64(uint32(distanceYards+0.5)), cond)
		m.cache[key] = v
		return v
	}
	return m.compute(distanceYards, cond)
}

func (m *Model) compute(d float64, cond course.PricingCondition) float64 {
	if cond == course.PriceWater {
		// Penalty drop next to the hazard, then play from rough.
		return m.compute(d, course.PriceRough) + 1
	}

	c, ok := curves[cond]
	if !ok {
		c = curves[course.PriceRough]
	}
	v := c.eval(d)
	if v < 1.0 {
		return 1.0
	}
	return v
}
