package cpclean

import (
	"context"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/budgetclean/internal/space"
	"github.com/tensorplex-labs/budgetclean/internal/workerpool"
)

// CountWorlds returns, for one validation point, the world mass in which
// each class wins the top-k vote, without enumerating worlds.
//
// Every world has exactly one candidate that is its k-th most similar
// element. Sweeping candidates by ascending similarity and pinning each one
// as that threshold, the DP tables give the mass of worlds in which the
// remaining top-k slots split between the classes in each feasible way.
func CountWorlds(ctx context.Context, p *space.Point, labels []int, k int, eps float64) (WorldCounts, error) {
	if err := checkK(k, len(labels)); err != nil {
		return WorldCounts{}, err
	}
	sc := newScan(p, labels, k, eps)

	var (
		counts WorldCounts
		stats  scanStats
		tables [2]mat.Dense
		buf    []split
	)
	for _, e := range sc.order {
		stats.steps++
		y, idx, w, prev := sc.pin(e)

		splits, maxN := feasibleSplits(&sc.counters, k, buf)
		buf = splits
		if len(splits) > 0 {
			if err := ctx.Err(); err != nil {
				return WorldCounts{}, err
			}
			stats.rebuilds++

			big := true
			for c := range 2 {
				if !suffixTable(&tables[c], sc.counters[c].Rows(), maxN[c]+1, eps) {
					big = false
					break
				}
			}
			if big {
				for _, s := range splits {
					counts[s.pred] += tables[0].At(0, s.n[0]) * tables[1].At(0, s.n[1])
				}
			} else {
				stats.small++
			}
		}

		sc.release(y, idx, w, prev)
	}

	log.Trace().
		Int("rows", len(sc.rows)).
		Int("steps", stats.steps).
		Int("rebuilds", stats.rebuilds).
		Int("small", stats.small).
		Floats64("counts", counts[:]).
		Msg("world count done")
	if stats.small > 0 {
		log.Debug().Int("small", stats.small).Float64("eps", eps).Msg("scan steps skipped under eps cutoff")
	}
	return counts, nil
}

// CountWorldsAll runs CountWorlds over points in parallel; results keep the
// order of points.
func CountWorldsAll(ctx context.Context, points []*space.Point, labels []int, k int, eps float64, jobs int) ([]WorldCounts, error) {
	if err := checkK(k, len(labels)); err != nil {
		return nil, err
	}
	return workerpool.Map(ctx, jobs, points, func(ctx context.Context, _ int, p *space.Point) (WorldCounts, error) {
		return CountWorlds(ctx, p, labels, k, eps)
	})
}
