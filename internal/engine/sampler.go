package engine

import (
	"math"

	"github.com/fairway-labs/caddie-engine/internal/geo"
)

// haltonIndexOffset skips the degenerate first element of the sequence,
// which would always land exactly on the aim point.
const haltonIndexOffset = 1

// radicalInverse reverses the digits of i in the given base onto the unit
// interval. Bases 2 and 3 together form the 2D Halton sequence.
func radicalInverse(base uint32, i uint64) float64 {
	inv := 1.0 / float64(base)
	f := inv
	v := 0.0
	for i > 0 {
		v += f * float64(i%uint64(base))
		i /= uint64(base)
		f *= inv
	}
	return v
}

// DispersionSampler maps a low-discrepancy index sequence onto an oriented
// dispersion ellipse around an aim point. For a fixed index the output is
// exactly reproducible, which the regression tests and the preview/worker
// split both rely on.
type DispersionSampler struct{}

// unitDisk maps index i to a uniform point in the unit disk via the
// standard sqrt(u), 2*pi*v transform of the Halton pair.
func (DispersionSampler) unitDisk(i int) (x, y float64) {
	u := radicalInverse(2, uint64(i+haltonIndexOffset))
	v := radicalInverse(3, uint64(i+haltonIndexOffset))
	r := math.Sqrt(u)
	theta := 2 * math.Pi * v
	return r * math.Cos(theta), r * math.Sin(theta)
}

// Sample returns landing point i for a shot aimed at aim. semiMajorM is the
// longitudinal semi-axis (along the shot), semiMinorM the lateral one,
// bearingRad the aim bearing from north.
func (s DispersionSampler) Sample(aim geo.Point, semiMajorM, semiMinorM, bearingRad float64, i int) geo.Point {
	dx, dy := s.unitDisk(i)

	along := dy * semiMajorM
	cross := dx * semiMinorM

	sin, cos := math.Sin(bearingRad), math.Cos(bearingRad)
	east := along*sin + cross*cos
	north := along*cos - cross*sin
	return geo.Offset(aim, east, north)
}

// SampleBatch fills dst with consecutive landing points starting at index
// from. Returns dst for chaining.
func (s DispersionSampler) SampleBatch(dst []geo.Point, aim geo.Point, semiMajorM, semiMinorM, bearingRad float64, from int) []geo.Point {
	for k := range dst {
		dst[k] = s.Sample(aim, semiMajorM, semiMinorM, bearingRad, from+k)
	}
	return dst
}

// ellipseAxes derives the dispersion semi-axes for a shot of the given
// length under a skill profile: longitudinal spread as a percent of the
// distance, lateral spread from the offline half-angle.
func ellipseAxes(distanceMeters float64, skill SkillProfile) (semiMajorM, semiMinorM float64) {
	semiMajorM = distanceMeters * skill.DistPct / 100
	semiMinorM = distanceMeters * math.Tan(skill.OfflineDeg*math.Pi/180)
	return semiMajorM, semiMinorM
}
