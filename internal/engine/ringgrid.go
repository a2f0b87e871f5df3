package engine

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"github.com/fairway-labs/caddie-engine/internal/geo"
)

// RingGridSearch is the deterministic sweep strategy: concentric half-rings
// ahead of the player, local grid refinement around the best ring points, and
// a random-coverage pass to catch anything the structure missed.
type RingGridSearch struct {
	logger *logrus.Entry
}

// NewRingGridSearch returns the structured sweep strategy.
func NewRingGridSearch(logger *logrus.Entry) *RingGridSearch {
	return &RingGridSearch{logger: logger}
}

func (r *RingGridSearch) Name() string { return "ring-grid" }

func (r *RingGridSearch) Run(ctx context.Context, in *Input) (*Result, error) {
	start := time.Now()
	tun := in.Tuning.withDefaults()
	ev := NewEvaluator()

	bearing := geo.BearingRad(in.Start, in.Pin)

	var pool []scored
	evaluations := 0
	phases := 0

	evaluate := func(p geo.Point) error {
		if !legalAim(p, in) {
			return nil
		}
		res, err := ev.Evaluate(ctx, p, in, in.Eval.NEarly, in.Eval.CI95Stop)
		if err != nil {
			return err
		}
		evaluations++
		pool = append(pool, scored{point: p, es: res.ES, ci95: res.CI95})
		return nil
	}

	// Phase 1: forward half-circle rings. Point count scales with the ring
	// circumference so angular density stays roughly constant, with a floor
	// for the innermost rings.
	phases++
	for k := 1; ; k++ {
		radius := float64(k) * tun.RingSpacingMeters
		if radius > in.MaxDistanceMeters {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := int(math.Pi * radius / tun.RingSpacingMeters)
		if n < tun.RingMinPoints {
			n = tun.RingMinPoints
		}
		if n%2 == 0 {
			n++ // keep a point on the start-pin line
		}

		for j := 0; j < n; j++ {
			// Spread across [-pi/2, +pi/2] around the pin bearing.
			angle := bearing + math.Pi*(float64(j)/float64(n-1)-0.5)
			if err := evaluate(geo.Destination(in.Start, angle, radius)); err != nil {
				return nil, err
			}
		}
	}
	reportProgress(in, Progress{Phase: "ring-sweep", Iteration: phases, Evaluations: evaluations, BestES: bestOf(pool)})

	// Phase 2: local grids around the best ring points.
	phases++
	top := append([]scored(nil), pool...)
	sort.Slice(top, func(i, j int) bool { return top[i].es < top[j].es })
	if len(top) > tun.RefineTopN {
		top = top[:tun.RefineTopN]
	}

	side := tun.RefineGridSide
	if side%2 == 0 {
		side++
	}
	step := in.MaxDistanceMeters * tun.RefineSpanRatio / float64(side/2+1)
	for _, center := range top {
		for gy := -(side / 2); gy <= side/2; gy++ {
			for gx := -(side / 2); gx <= side/2; gx++ {
				if gx == 0 && gy == 0 {
					continue // center already evaluated in phase 1
				}
				if err := evaluate(geo.Offset(center.point, float64(gx)*step, float64(gy)*step)); err != nil {
					return nil, err
				}
			}
		}
	}
	reportProgress(in, Progress{Phase: "refinement", Iteration: phases, Evaluations: evaluations, BestES: bestOf(pool)})

	// Phase 3: area-uniform random infill over the forward half-disc.
	phases++
	seed := uint64(in.Seed)
	if in.Seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < tun.RandomCoverage; i++ {
		radius := in.MaxDistanceMeters * math.Sqrt(rng.Float64())
		angle := bearing + math.Pi*(rng.Float64()-0.5)
		if err := evaluate(geo.Destination(in.Start, angle, radius)); err != nil {
			return nil, err
		}
	}
	reportProgress(in, Progress{Phase: "random-coverage", Iteration: phases, Evaluations: evaluations, BestES: bestOf(pool)})

	candidates, selEvals, err := selectCandidates(ctx, pool, in, ev)
	if err != nil {
		return nil, err
	}
	evaluations += selEvals

	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{
			"phases":      phases,
			"evaluations": evaluations,
			"candidates":  len(candidates),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("Ring-grid search completed")
	}

	return &Result{Candidates: candidates, Iterations: phases, Evaluations: evaluations}, nil
}

func bestOf(pool []scored) float64 {
	best := math.Inf(1)
	for _, s := range pool {
		if s.es < best {
			best = s.es
		}
	}
	return best
}
