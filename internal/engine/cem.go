package engine

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/fairway-labs/caddie-engine/internal/geo"
)

// CEMSearch is the elite-shrinking strategy: a 2D Gaussian proposal over the
// start-local tangent plane, iteratively refit to the lowest-cost fraction of
// each population until it converges, stagnates, or runs out of iterations.
type CEMSearch struct {
	logger *logrus.Entry
}

// NewCEMSearch returns the stochastic elite-shrinking strategy.
func NewCEMSearch(logger *logrus.Entry) *CEMSearch {
	return &CEMSearch{logger: logger}
}

func (c *CEMSearch) Name() string { return "cem" }

// proposalRetries bounds rejection sampling per population member before
// falling back to uniform draws in the max-distance disk.
const (
	proposalRetries  = 10
	uniformFallbacks = 4
)

func (c *CEMSearch) Run(ctx context.Context, in *Input) (*Result, error) {
	start := time.Now()
	tun := in.Tuning.withDefaults()
	ev := NewEvaluator()

	seed := uint64(in.Seed)
	if in.Seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewSource(seed)
	rng := rand.New(src)

	// Start partway toward the pin so early populations are not biased
	// toward the shortest shot.
	pinDist := geo.DistanceMeters(in.Start, in.Pin)
	bearing := geo.BearingRad(in.Start, in.Pin)
	reach := math.Min(pinDist, in.MaxDistanceMeters)
	mean := []float64{0.6 * reach * math.Sin(bearing), 0.6 * reach * math.Cos(bearing)}

	// Wide initial covariance relative to the reachable disk.
	spread := in.MaxDistanceMeters / 2
	sigma := mat.NewSymDense(2, []float64{spread * spread, 0, 0, spread * spread})

	// collapseEps is the raw-trace level at which the proposal has
	// effectively converged to a point.
	collapseEps := tun.VarianceFloor * 0.25

	var pool []scored
	bestES := math.Inf(1)
	stagnation := 0
	iterations := 0
	evaluations := 0

	for iter := 0; iter < tun.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iterations++

		normal, ok := distmv.NewNormal(mean, sigma, src)
		if !ok {
			// Non positive-definite after a degenerate fit: retreat to an
			// axis-aligned floor.
			sigma = mat.NewSymDense(2, []float64{tun.VarianceFloor, 0, 0, tun.VarianceFloor})
			normal, _ = distmv.NewNormal(mean, sigma, src)
		}

		population := c.drawPopulation(normal, rng, in, tun.Population)
		if len(population) == 0 {
			// Every proposal was illegal; the phase yields nothing and the
			// search moves on rather than erroring.
			continue
		}

		iterScored := make([]scored, 0, len(population))
		for _, local := range population {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p := geo.Offset(in.Start, local[0], local[1])
			res, err := ev.Evaluate(ctx, p, in, in.Eval.NEarly, in.Eval.CI95Stop)
			if err != nil {
				return nil, err
			}
			evaluations++
			iterScored = append(iterScored, scored{point: p, es: res.ES, ci95: res.CI95})
		}
		pool = append(pool, iterScored...)

		sort.Slice(iterScored, func(i, j int) bool { return iterScored[i].es < iterScored[j].es })

		nElite := int(float64(len(iterScored)) * tun.EliteRatio)
		if nElite < 2 {
			nElite = 2
		}
		if nElite > len(iterScored) {
			nElite = len(iterScored)
		}

		rawTrace := c.refit(iterScored[:nElite], in.Start, mean, sigma, tun.VarianceFloor)

		improvement := bestES - iterScored[0].es
		if iterScored[0].es < bestES {
			bestES = iterScored[0].es
		}
		if improvement < tun.ConvergenceTol {
			stagnation++
		} else {
			stagnation = 0
		}

		reportProgress(in, Progress{
			Phase:       "cem",
			Iteration:   iterations,
			Evaluations: evaluations,
			BestES:      bestES,
		})

		if stagnation > tun.MaxStagnation {
			break
		}
		if rawTrace < collapseEps {
			break
		}
	}

	candidates, selEvals, err := selectCandidates(ctx, pool, in, ev)
	if err != nil {
		return nil, err
	}
	evaluations += selEvals

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"iterations":  iterations,
			"evaluations": evaluations,
			"candidates":  len(candidates),
			"best_es":     bestES,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("CEM search completed")
	}

	return &Result{Candidates: candidates, Iterations: iterations, Evaluations: evaluations}, nil
}

// drawPopulation samples legal local offsets from the proposal, rejecting
// illegal points with bounded retries and topping up from uniform-disk draws
// when rejection sampling struggles.
func (c *CEMSearch) drawPopulation(normal *distmv.Normal, rng *rand.Rand, in *Input, n int) [][2]float64 {
	out := make([][2]float64, 0, n)
	buf := make([]float64, 2)

	for member := 0; member < n; member++ {
		accepted := false
		for try := 0; try < proposalRetries; try++ {
			normal.Rand(buf)
			if c.legalLocal(buf[0], buf[1], in) {
				out = append(out, [2]float64{buf[0], buf[1]})
				accepted = true
				break
			}
		}
		if accepted {
			continue
		}
		for try := 0; try < uniformFallbacks; try++ {
			r := in.MaxDistanceMeters * math.Sqrt(rng.Float64())
			theta := 2 * math.Pi * rng.Float64()
			x, y := r*math.Sin(theta), r*math.Cos(theta)
			if c.legalLocal(x, y, in) {
				out = append(out, [2]float64{x, y})
				break
			}
		}
	}
	return out
}

func (c *CEMSearch) legalLocal(x, y float64, in *Input) bool {
	if math.Hypot(x, y) > in.MaxDistanceMeters {
		return false
	}
	return legalAim(geo.Offset(in.Start, x, y), in)
}

// refit recomputes the proposal mean and covariance from the elite set,
// applying the variance floor to the diagonal so the proposal never collapses
// prematurely. Returns the pre-floor trace for the collapse check.
func (c *CEMSearch) refit(elites []scored, origin geo.Point, mean []float64, sigma *mat.SymDense, floor float64) float64 {
	data := make([]float64, 0, 2*len(elites))
	for _, e := range elites {
		x, y := geo.LocalOffset(origin, e.point)
		data = append(data, x, y)
	}
	samples := mat.NewDense(len(elites), 2, data)

	mean[0] = stat.Mean(mat.Col(nil, 0, samples), nil)
	mean[1] = stat.Mean(mat.Col(nil, 1, samples), nil)

	stat.CovarianceMatrix(sigma, samples, nil)
	rawTrace := sigma.At(0, 0) + sigma.At(1, 1)

	if sigma.At(0, 0) < floor {
		sigma.SetSym(0, 0, floor)
	}
	if sigma.At(1, 1) < floor {
		sigma.SetSym(1, 1, floor)
	}
	return rawTrace
}
