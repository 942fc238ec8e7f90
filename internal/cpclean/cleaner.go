package cpclean

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/budgetclean/internal/space"
)

// baseline certifies every point of sp and counts worlds for the uncertain
// ones. Certified points have entropy 0.
func (c *Cleaner) baseline(ctx context.Context, sp *space.Space) ([]Certification, []float64, error) {
	certs, err := CertifyAll(sp, c.K)
	if err != nil {
		return nil, nil, err
	}
	uncertain := uncertainPoints(certs)
	counts, err := CountWorldsAll(ctx, pointsAt(sp, uncertain), sp.Labels, c.K, c.Eps, c.Jobs)
	if err != nil {
		return nil, nil, fmt.Errorf("count worlds: %w", err)
	}

	entropies := make([]float64, len(certs))
	for i, p := range uncertain {
		entropies[p] = counts[i].Entropy()
	}
	return certs, entropies, nil
}

// recertify re-runs Q1 on the given points after a collapse; newly certified
// points drop to zero entropy.
func (c *Cleaner) recertify(sp *space.Space, certs []Certification, entropies []float64, points []int) {
	for _, p := range points {
		certs[p] = Certify(sp.Points[p].Bounds, sp.Labels, c.K)
		if certs[p].Certified {
			entropies[p] = 0
		}
	}
}

// Clean runs the greedy CPClean loop on a copy of sp and returns the rows in
// the order they were cleaned. It stops once every validation point is
// certified or no dirty row is left; the caller applies any budget.
func (c *Cleaner) Clean(ctx context.Context, sp *space.Space) (*Result, error) {
	work := sp.Clone()
	certs, before, err := c.baseline(ctx, work)
	if err != nil {
		return nil, err
	}

	res := newResult(work)
	res.record(0, -1, certs, before, 0)
	log.Info().
		Int("points", work.NumPoints()).
		Int("dirty", len(work.DirtyRows())).
		Float64("percent_certified", percentCertified(certs)).
		Msg("cpclean baseline")

	for iter := 1; ; iter++ {
		tic := time.Now()

		uncertain := uncertainPoints(certs)
		dirty := work.DirtyRows()
		if len(uncertain) == 0 || len(dirty) == 0 {
			break
		}

		after, err := CountAfterCleanAll(ctx, pointsAt(work, uncertain), work.Labels, c.K, c.Eps, c.Jobs)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: count after clean: %w", iter, err)
		}

		beforeU := make([]float64, len(uncertain))
		for i, p := range uncertain {
			beforeU[i] = before[p]
		}
		sel := SelectBest(ExpectedGains(after, dirty, beforeU, work.NumRows()), dirty)

		gt := work.GroundTruth[sel]
		work.Collapse(sel)
		res.Selection = append(res.Selection, sel)

		for i, p := range uncertain {
			if o := after[i][sel]; o != nil {
				if h := o[gt].Counts.Entropy(); !math.IsInf(h, 0) {
					before[p] = h
				}
			}
		}
		c.recertify(work, certs, before, uncertain)

		elapsed := time.Since(tic)
		res.record(iter, sel, certs, before, elapsed)
		log.Info().
			Int("iter", iter).
			Int("selected", sel).
			Dur("elapsed", elapsed).
			Float64("percent_certified", percentCertified(certs)).
			Float64("percent_clean", res.percentClean()).
			Msg("cpclean iteration")
	}
	return res, nil
}

func (r *Result) record(iter, sel int, certs []Certification, entropies []float64, elapsed time.Duration) {
	r.Iterations = append(r.Iterations, Iteration{
		Iter:             iter,
		Selected:         sel,
		PercentCertified: percentCertified(certs),
		PercentClean:     r.percentClean(),
		AvgEntropy:       meanEntropy(entropies),
		Elapsed:          elapsed,
	})
}

func (r *Result) percentClean() float64 {
	if r.dirty == 0 {
		return 1
	}
	return float64(len(r.Selection)) / float64(r.dirty)
}

func uncertainPoints(certs []Certification) []int {
	var out []int
	for i, c := range certs {
		if !c.Certified {
			out = append(out, i)
		}
	}
	return out
}

func percentCertified(certs []Certification) float64 {
	if len(certs) == 0 {
		return 1
	}
	n := 0
	for _, c := range certs {
		if c.Certified {
			n++
		}
	}
	return float64(n) / float64(len(certs))
}

func pointsAt(sp *space.Space, idx []int) []*space.Point {
	out := make([]*space.Point, len(idx))
	for i, p := range idx {
		out[i] = sp.Points[p]
	}
	return out
}
