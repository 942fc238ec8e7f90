package cpclean

import (
	"context"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/budgetclean/internal/space"
	"github.com/tensorplex-labs/budgetclean/internal/workerpool"
)

// slCounts are the hypothetical counts of one dirty row at one scan step:
// small with the row fixed below the threshold, large with it fixed above.
type slCounts struct {
	small WorldCounts
	large WorldCounts
}

// CountAfterClean computes, for one validation point and every dirty row that
// survives pruning, the world counts that would result if the row were
// cleaned to each of its candidates. It runs the same sweep as CountWorlds but
// keeps both suffix and prefix tables so a row can be taken out of its class
// product in O(K).
func CountAfterClean(ctx context.Context, p *space.Point, labels []int, k int, eps float64) (AfterClean, error) {
	if err := checkK(k, len(labels)); err != nil {
		return nil, err
	}
	sc := newScan(p, labels, k, eps)

	var dirty []int
	for i, cell := range sc.cells {
		if cell.Len() > 1 {
			dirty = append(dirty, i)
		}
	}

	out := make(AfterClean, len(labels))
	if len(dirty) == 0 {
		return out, nil
	}

	acc := make([][]WorldCounts, len(sc.rows))
	for _, i := range dirty {
		acc[i] = make([]WorldCounts, sc.cells[i].Len())
	}
	sl := make([]slCounts, len(sc.rows))

	var (
		stats          scanStats
		suffix, prefix [2]mat.Dense
		buf            []split
	)
	for _, e := range sc.order {
		stats.steps++
		y, idx, w, prev := sc.pin(e)

		splits, maxN := feasibleSplits(&sc.counters, k, buf)
		buf = splits
		if len(splits) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			stats.rebuilds++

			big := true
			for c := range 2 {
				ab := sc.counters[c].Rows()
				if !suffixTable(&suffix[c], ab, maxN[c]+1, eps) || !prefixTable(&prefix[c], ab, maxN[c]+1, eps) {
					big = false
					break
				}
			}
			if big {
				sc.countWithout(sl, dirty, splits, &suffix, &prefix)
				sc.accumulate(acc, sl, dirty, e)
			} else {
				stats.small++
			}
		}

		sc.release(y, idx, w, prev)
	}

	for _, i := range dirty {
		cell := sc.cells[i]
		outcomes := make([]Outcome, cell.Len())
		for j := range outcomes {
			outcomes[j] = Outcome{Counts: acc[i][j], Weight: cell.At(j).Weight}
		}
		out[sc.rows[i]] = outcomes
	}

	log.Trace().
		Int("rows", len(sc.rows)).
		Int("dirty", len(dirty)).
		Int("steps", stats.steps).
		Int("rebuilds", stats.rebuilds).
		Int("small", stats.small).
		Msg("after-clean count done")
	if stats.small > 0 {
		log.Debug().Int("small", stats.small).Float64("eps", eps).Msg("scan steps skipped under eps cutoff")
	}
	return out, nil
}

// countWithout fills sl for every dirty row from the current tables.
func (sc *scan) countWithout(sl []slCounts, dirty []int, splits []split, suffix, prefix *[2]mat.Dense) {
	for _, i := range dirty {
		y, other := sc.labels[i], 1-sc.labels[i]
		n, row := sc.counters[y].Len(), sc.classIdx[i]

		var c slCounts
		for _, s := range splits {
			rest := suffix[other].At(0, s.n[other])
			c.small[s.pred] += worldsWithout(&suffix[y], &prefix[y], s.n[y], row, n) * rest
			c.large[s.pred] += worldsWithout(&suffix[y], &prefix[y], s.n[y]-1, row, n) * rest
		}
		sl[i] = c
	}
}

// accumulate adds the step's counts: the pinned row gets its large counts on
// the pinned candidate, every other dirty row gets small or large per
// candidate depending on where that candidate ranks against e.
func (sc *scan) accumulate(acc [][]WorldCounts, sl []slCounts, dirty []int, e entry) {
	if acc[e.row] != nil {
		acc[e.row][e.cand].add(sl[e.row].large)
	}
	for _, i := range dirty {
		if i == e.row {
			continue
		}
		for j := range acc[i] {
			if sc.below(i, j, e) {
				acc[i][j].add(sl[i].small)
			} else {
				acc[i][j].add(sl[i].large)
			}
		}
	}
}

// CountAfterCleanAll runs CountAfterClean over points in parallel; results
// keep the order of points.
func CountAfterCleanAll(ctx context.Context, points []*space.Point, labels []int, k int, eps float64, jobs int) ([]AfterClean, error) {
	if err := checkK(k, len(labels)); err != nil {
		return nil, err
	}
	return workerpool.Map(ctx, jobs, points, func(ctx context.Context, _ int, p *space.Point) (AfterClean, error) {
		return CountAfterClean(ctx, p, labels, k, eps)
	})
}
