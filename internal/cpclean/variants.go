package cpclean

import (
	"cmp"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/budgetclean/internal/space"
)

// Run dispatches to the cleaning method m.
func (c *Cleaner) Run(ctx context.Context, sp *space.Space, m Method) (*Result, error) {
	switch m {
	case MethodCPClean, "":
		return c.Clean(ctx, sp)
	case MethodSample:
		return c.SampleClean(ctx, sp)
	case MethodSGD:
		return c.SGDClean(ctx, sp)
	case MethodRandom:
		return c.RandomClean(ctx, sp)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, m)
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// sample draws up to n of idx without replacement, keeping idx order when
// all of them fit.
func sample(rng *rand.Rand, idx []int, n int) []int {
	if len(idx) <= n {
		return slices.Clone(idx)
	}
	perm := rng.Perm(len(idx))[:n]
	out := make([]int, n)
	for i, j := range perm {
		out[i] = idx[j]
	}
	return out
}

// SampleClean repeatedly runs Clean on a sample of at most SampleSize
// uncertain points and applies that run's selection to the whole space,
// until every point is certified. Each round draws with the same seed.
func (c *Cleaner) SampleClean(ctx context.Context, sp *space.Space) (*Result, error) {
	work := sp.Clone()
	certs, entropies, err := c.baseline(ctx, work)
	if err != nil {
		return nil, err
	}

	res := newResult(work)
	res.record(0, -1, certs, entropies, 0)

	for round := 1; ; round++ {
		uncertain := uncertainPoints(certs)
		if len(uncertain) == 0 {
			break
		}
		sampled := sample(newRand(c.Seed), uncertain, c.SampleSize)

		inner, err := c.Clean(ctx, work.Subset(sampled))
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		if len(inner.Selection) == 0 {
			log.Warn().Int("round", round).Int("uncertain", len(uncertain)).Msg("sampled run selected nothing, stopping")
			break
		}

		for _, sel := range inner.Selection {
			tic := time.Now()
			work.Collapse(sel)
			res.Selection = append(res.Selection, sel)

			certs, entropies, err = c.baseline(ctx, work)
			if err != nil {
				return nil, err
			}
			res.record(len(res.Selection), sel, certs, entropies, time.Since(tic))
		}
		log.Info().
			Int("round", round).
			Int("sampled", len(sampled)).
			Ints("selected", inner.Selection).
			Float64("percent_certified", percentCertified(certs)).
			Msg("sample_cpclean round")
	}
	return res, nil
}

// SGDClean selects one row per iteration from the expected gains on a sample
// of at most SampleSize uncertain points, seeded by the iteration number.
func (c *Cleaner) SGDClean(ctx context.Context, sp *space.Space) (*Result, error) {
	work := sp.Clone()
	certs, entropies, err := c.baseline(ctx, work)
	if err != nil {
		return nil, err
	}

	res := newResult(work)
	res.record(0, -1, certs, entropies, 0)

	for iter := 1; ; iter++ {
		tic := time.Now()

		uncertain := uncertainPoints(certs)
		dirty := work.DirtyRows()
		if len(uncertain) == 0 || len(dirty) == 0 {
			break
		}
		sampled := sample(newRand(uint64(iter)), uncertain, c.SampleSize)
		points := pointsAt(work, sampled)

		counts, err := CountWorldsAll(ctx, points, work.Labels, c.K, c.Eps, c.Jobs)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: count worlds: %w", iter, err)
		}
		before := make([]float64, len(counts))
		for i, w := range counts {
			before[i] = w.Entropy()
		}
		after, err := CountAfterCleanAll(ctx, points, work.Labels, c.K, c.Eps, c.Jobs)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: count after clean: %w", iter, err)
		}
		sel := SelectBest(ExpectedGains(after, dirty, before, work.NumRows()), dirty)

		work.Collapse(sel)
		res.Selection = append(res.Selection, sel)

		certs, entropies, err = c.baseline(ctx, work)
		if err != nil {
			return nil, err
		}
		elapsed := time.Since(tic)
		res.record(iter, sel, certs, entropies, elapsed)
		log.Info().
			Int("iter", iter).
			Int("selected", sel).
			Int("sampled", len(sampled)).
			Dur("elapsed", elapsed).
			Float64("percent_certified", percentCertified(certs)).
			Msg("sgd_cpclean iteration")
	}
	return res, nil
}

// RandomClean cleans dirty rows in a seeded random order until every point
// is certified.
func (c *Cleaner) RandomClean(ctx context.Context, sp *space.Space) (*Result, error) {
	work := sp.Clone()
	certs, entropies, err := c.baseline(ctx, work)
	if err != nil {
		return nil, err
	}

	res := newResult(work)
	res.record(0, -1, certs, entropies, 0)

	order := work.DirtyRows()
	newRand(c.Seed).Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	for iter, sel := range order {
		if len(uncertainPoints(certs)) == 0 {
			break
		}
		tic := time.Now()
		work.Collapse(sel)
		res.Selection = append(res.Selection, sel)

		certs, entropies, err = c.baseline(ctx, work)
		if err != nil {
			return nil, err
		}
		elapsed := time.Since(tic)
		res.record(iter+1, sel, certs, entropies, elapsed)
		log.Info().
			Int("iter", iter+1).
			Int("selected", sel).
			Dur("elapsed", elapsed).
			Float64("percent_certified", percentCertified(certs)).
			Msg("random iteration")
	}
	return res, nil
}

// RankOneShot ranks dirty rows by expected gain from a single Q2/Q3 pass over
// the uncertain points and returns the best budget rows. A negative budget
// returns the full ranking.
func (c *Cleaner) RankOneShot(ctx context.Context, sp *space.Space, budget int) ([]int, error) {
	certs, entropies, err := c.baseline(ctx, sp)
	if err != nil {
		return nil, err
	}
	uncertain := uncertainPoints(certs)
	dirty := sp.DirtyRows()

	after, err := CountAfterCleanAll(ctx, pointsAt(sp, uncertain), sp.Labels, c.K, c.Eps, c.Jobs)
	if err != nil {
		return nil, fmt.Errorf("count after clean: %w", err)
	}
	before := make([]float64, len(uncertain))
	for i, p := range uncertain {
		before[i] = entropies[p]
	}
	gains := ExpectedGains(after, dirty, before, sp.NumRows())

	ranked := slices.Clone(dirty)
	slices.SortStableFunc(ranked, func(a, b int) int {
		return cmp.Compare(gains[b], gains[a])
	})
	if budget >= 0 && budget < len(ranked) {
		ranked = ranked[:budget]
	}
	log.Info().Int("dirty", len(dirty)).Int("budget", budget).Ints("ranked", ranked).Msg("one-shot ranking")
	return ranked, nil
}
