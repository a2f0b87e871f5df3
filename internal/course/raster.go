package course

import "github.com/fairway-labs/caddie-engine/internal/geo"

// ConditionClass is the raster byte contract shared with course producers.
// The set is closed; any stored byte outside it reads as rough.
type ConditionClass byte

const (
	ClassUnknown  ConditionClass = 0
	ClassOB       ConditionClass = 1
	ClassWater    ConditionClass = 2
	ClassHazard   ConditionClass = 3
	ClassBunker   ConditionClass = 4
	ClassGreen    ConditionClass = 5
	ClassFairway  ConditionClass = 6
	ClassRecovery ConditionClass = 7
	ClassRough    ConditionClass = 8
	ClassTee      ConditionClass = 9

	numClasses = 10
)

// PricingCondition is the lie category the strokes model prices.
type PricingCondition int

const (
	PriceGreen PricingCondition = iota
	PriceFairway
	PriceRough
	PriceSand
	PriceRecovery
	PriceWater
	NumPricingConditions
)

func (p PricingCondition) String() string {
	switch p {
	case PriceGreen:
		return "green"
	case PriceFairway:
		return "fairway"
	case PriceRough:
		return "rough"
	case PriceSand:
		return "sand"
	case PriceRecovery:
		return "recovery"
	case PriceWater:
		return "water"
	}
	return "unknown"
}

// Pricing maps a condition class to its pricing condition and the additive
// stroke penalty charged on top of the curve (OB +2, hazard +1).
func (c ConditionClass) Pricing() (PricingCondition, float64) {
	switch c {
	case ClassGreen:
		return PriceGreen, 0
	case ClassFairway, ClassTee:
		return PriceFairway, 0
	case ClassBunker:
		return PriceSand, 0
	case ClassRecovery:
		return PriceRecovery, 0
	case ClassWater:
		return PriceWater, 0
	case ClassOB:
		return PriceRough, 2
	case ClassHazard:
		return PriceRough, 1
	default:
		// unknown, rough, and any out-of-set byte
		return PriceRough, 0
	}
}

// Raster is a classified grid covering one hole. Cells are row-major,
// north-to-south: row 0 spans the north edge. The buffer is caller-owned and
// never mutated here, so it is safe to share across concurrent runs.
type Raster struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	West    float64 `json:"west"`
	South   float64 `json:"south"`
	East    float64 `json:"east"`
	North   float64 `json:"north"`
	Classes []byte  `json:"classes"`
}

// ClassAt returns the condition class of the cell containing p. Points outside
// the bounding box clamp to the nearest edge cell. Called millions of times per
// run; must stay O(1) and allocation-free.
func (r *Raster) ClassAt(p geo.Point) ConditionClass {
	col := int(float64(r.Width) * (p.Lon - r.West) / (r.East - r.West))
	row := int(float64(r.Height) * (r.North - p.Lat) / (r.North - r.South))

	if col < 0 {
		col = 0
	} else if col >= r.Width {
		col = r.Width - 1
	}
	if row < 0 {
		row = 0
	} else if row >= r.Height {
		row = r.Height - 1
	}

	b := r.Classes[row*r.Width+col]
	if b >= numClasses {
		return ClassRough
	}
	return ConditionClass(b)
}

// Uniform builds a raster filled with a single class over the given box.
// Used by tests and as a fallback when a hole has no classified outline.
func Uniform(width, height int, west, south, east, north float64, class ConditionClass) *Raster {
	buf := make([]byte, width*height)
	for i := range buf {
		buf[i] = byte(class)
	}
	return &Raster{
		Width: width, Height: height,
		West: west, South: south, East: east, North: north,
		Classes: buf,
	}
}
