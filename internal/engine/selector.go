package engine

import (
	"context"
	"sort"

	"github.com/fairway-labs/caddie-engine/internal/geo"
)

// defaultSeparationMeters is roughly three yards; two aims closer than that
// are the same decision for a human player.
const defaultSeparationMeters = 2.7432

// selectCandidates turns the run's evaluated pool into the final candidate
// list: sort ascending by ES, greedily keep points that respect the minimum
// separation, then re-score the keepers at the final sample cap with early
// stopping disabled for a tight confidence interval. Returns the selection's
// extra evaluation count alongside the candidates.
func selectCandidates(ctx context.Context, pool []scored, in *Input, ev *Evaluator) ([]Candidate, int, error) {
	if len(pool) == 0 {
		return []Candidate{}, 0, nil
	}

	tun := in.Tuning.withDefaults()
	minSep := in.Constraints.MinSeparationMeters
	if minSep <= 0 {
		minSep = defaultSeparationMeters
	}

	sorted := append([]scored(nil), pool...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].es < sorted[j].es })

	accepted := make([]scored, 0, tun.MaxCandidates)
	for _, s := range sorted {
		if len(accepted) >= tun.MaxCandidates {
			break
		}
		tooClose := false
		for _, a := range accepted {
			if geo.DistanceMeters(s.point, a.point) < minSep {
				tooClose = true
				break
			}
		}
		if !tooClose {
			accepted = append(accepted, s)
		}
	}
	if len(accepted) == 0 {
		// Separation filtered everything; fall back to the single best.
		accepted = sorted[:1]
	}

	evaluations := 0
	candidates := make([]Candidate, 0, len(accepted))
	for _, a := range accepted {
		res, err := ev.Evaluate(ctx, a.point, in, in.Eval.NFinal, 0)
		if err != nil {
			return nil, evaluations, err
		}
		evaluations++
		candidates = append(candidates, Candidate{Point: a.point, ES: res.ES, CI95: res.CI95})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ES < candidates[j].ES })
	return candidates, evaluations, nil
}
