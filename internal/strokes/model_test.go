package strokes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairway-labs/caddie-engine/internal/course"
)

var allConditions = []course.PricingCondition{
	course.PriceGreen,
	course.PriceFairway,
	course.PriceRough,
	course.PriceSand,
	course.PriceRecovery,
	course.PriceWater,
}

func TestCost_Monotonic(t *testing.T) {
	m := NewUncachedModel()

	for _, cond := range allConditions {
		t.Run(cond.String(), func(t *testing.T) {
			prev := m.Cost(0, cond)
			for d := 1.0; d <= 500; d++ {
				cur := m.Cost(d, cond)
				assert.GreaterOrEqual(t, cur, prev, "cost must not decrease at %v yards", d)
				prev = cur
			}
		})
	}
}

func TestCost_Floor(t *testing.T) {
	m := NewUncachedModel()

	for _, cond := range allConditions {
		for _, d := range []float64{0, 0.5, 3, 30, 150, 400, 1000} {
			assert.GreaterOrEqual(t, m.Cost(d, cond), 1.0, "%s at %v yards", cond, d)
		}
	}
	// Negative distance clamps rather than misprices.
	assert.Equal(t, m.Cost(0, course.PriceFairway), m.Cost(-5, course.PriceFairway))
}

func TestCost_WaterIdentity(t *testing.T) {
	cached := NewModel()
	uncached := NewUncachedModel()

	for _, m := range []*Model{cached, uncached} {
		for d := 0.0; d <= 400; d += 7 {
			assert.InDelta(t, m.Cost(d, course.PriceRough)+1, m.Cost(d, course.PriceWater), 1e-12)
		}
	}
}

func TestCost_ContinuousAtCeiling(t *testing.T) {
	m := NewUncachedModel()

	for cond, c := range curves {
		below := m.Cost(c.ceilingYards, cond)
		above := m.Cost(c.ceilingYards+0.001, cond)
		assert.InDelta(t, below, above, 1e-4, "%s discontinuous at ceiling", cond)
	}
}

func TestCost_ConditionOrderingAtMidRange(t *testing.T) {
	m := NewUncachedModel()

	// At approach distance a fairway lie must beat rough, rough must beat
	// recovery, and water is always rough plus the drop.
	d := 150.0
	assert.Less(t, m.Cost(d, course.PriceFairway), m.Cost(d, course.PriceRough))
	assert.Less(t, m.Cost(d, course.PriceRough), m.Cost(d, course.PriceRecovery))
	assert.Less(t, m.Cost(d, course.PriceRough), m.Cost(d, course.PriceWater))
}

func TestCost_CacheMatchesRoundedCompute(t *testing.T) {
	cached := NewModel()
	uncached := NewUncachedModel()

	// The cache rounds distance to whole yards; on integer distances the two
	// models must agree exactly, and repeated lookups must be stable.
	for d := 0.0; d <= 300; d += 1 {
		first := cached.Cost(d, course.PriceFairway)
		assert.Equal(t, uncached.Cost(d, course.PriceFairway), first)
		assert.Equal(t, first, cached.Cost(d, course.PriceFairway))
	}
}
