package cpclean

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/tensorplex-labs/budgetclean/internal/space"
)

// randomPoint draws n rows with 1..maxCands candidates each. Similarities are
// continuous so ties have probability zero.
func randomPoint(rng *rand.Rand, n, maxCands int, weighted bool) *space.Point {
	p := &space.Point{
		Cells:  make([]space.Cell, n),
		Bounds: make([]space.MinMaxBound, n),
	}
	for i := range n {
		m := 1 + rng.IntN(maxCands)
		if m == 1 {
			p.Cells[i] = space.Resolved(rng.Float64())
		} else {
			cands := make(space.Unresolved, m)
			total := 0.0
			for j := range cands {
				w := 1.0
				if weighted {
					w = 0.5 + rng.Float64()
				}
				cands[j] = space.Candidate{Similarity: rng.Float64(), Weight: w}
				total += w
			}
			for j := range cands {
				cands[j].Weight /= total
			}
			p.Cells[i] = cands
		}
		p.Bounds[i] = p.Cells[i].Bound()
	}
	return p
}

func randomLabels(rng *rand.Rand, n int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = rng.IntN(2)
	}
	labels[0], labels[1] = 0, 1
	return labels
}

// randomSpace builds a space whose points share one candidate count per row.
func randomSpace(rng *rand.Rand, points, rows, maxCands int) *space.Space {
	counts := make([]int, rows)
	gt := make([]int, rows)
	for r := range counts {
		counts[r] = 1 + rng.IntN(maxCands)
		gt[r] = rng.IntN(counts[r])
	}
	sp := &space.Space{
		Labels:      randomLabels(rng, rows),
		GroundTruth: gt,
		Points:      make([]*space.Point, points),
	}
	for m := range sp.Points {
		p := &space.Point{
			Cells:  make([]space.Cell, rows),
			Bounds: make([]space.MinMaxBound, rows),
		}
		for r, c := range counts {
			if c == 1 {
				p.Cells[r] = space.Resolved(rng.Float64())
			} else {
				cands := make(space.Unresolved, c)
				for j := range cands {
					cands[j] = space.Candidate{Similarity: rng.Float64(), Weight: 1 / float64(c)}
				}
				p.Cells[r] = cands
			}
			p.Bounds[r] = p.Cells[r].Bound()
		}
		sp.Points[m] = p
	}
	return sp
}

// bruteForce enumerates every world of p.
func bruteForce(p *space.Point, labels []int, k int) WorldCounts {
	n := len(p.Cells)
	choice := make([]int, n)
	order := make([]int, n)
	sims := make([]float64, n)

	var out WorldCounts
	var walk func(r int, mass float64)
	walk = func(r int, mass float64) {
		if r == n {
			for i := range n {
				sims[i] = p.Cells[i].At(choice[i]).Similarity
				order[i] = i
			}
			slices.SortStableFunc(order, func(a, b int) int {
				return cmp.Compare(sims[b], sims[a])
			})
			nClass0 := 0
			for _, i := range order[:k] {
				if labels[i] == 0 {
					nClass0++
				}
			}
			out[vote(nClass0, k)] += mass
			return
		}
		for j := range p.Cells[r].Len() {
			choice[r] = j
			walk(r+1, mass*p.Cells[r].At(j).Weight)
		}
	}
	walk(0, 1)
	return out
}

// collapsed returns a copy of p with row fixed to candidate j.
func collapsed(p *space.Point, row, j int) *space.Point {
	out := &space.Point{
		Cells:  slices.Clone(p.Cells),
		Bounds: slices.Clone(p.Bounds),
	}
	sim := p.Cells[row].At(j).Similarity
	out.Cells[row] = space.Resolved(sim)
	out.Bounds[row] = space.Resolve(sim)
	return out
}
