package cpclean

import (
	"cmp"
	"slices"

	"github.com/tensorplex-labs/budgetclean/internal/space"
)

// vote is the top-K majority given how many of the K neighbours are class 0.
// A tied vote goes to class 0.
func vote(nClass0, k int) int {
	if 2*nClass0 >= k {
		return 0
	}
	return 1
}

// Certify runs min-max certification for one validation point. For each
// class c it builds the scenario most favourable to c (rows of class c at
// their max similarity, the rest at their min) and takes the top-K vote. The
// point is certified when exactly one class wins its own best case.
// k must be within [1, len(labels)].
func Certify(bounds []space.MinMaxBound, labels []int, k int) Certification {
	n := len(labels)
	best := make([]float64, n)
	order := make([]int, n)

	var wins [2]bool
	for c := range 2 {
		for i, y := range labels {
			if y == c {
				best[i] = bounds[i].Max
			} else {
				best[i] = bounds[i].Min
			}
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			return cmp.Compare(best[b], best[a])
		})

		nClass0 := 0
		for _, i := range order[:k] {
			if labels[i] == 0 {
				nClass0++
			}
		}
		wins[c] = vote(nClass0, k) == c
	}

	switch {
	case wins[0] && !wins[1]:
		return Certification{Certified: true, Prediction: 0}
	case wins[1] && !wins[0]:
		return Certification{Certified: true, Prediction: 1}
	}
	return Certification{Certified: false, Prediction: -1}
}

// CertifyAll certifies every point of sp.
func CertifyAll(sp *space.Space, k int) ([]Certification, error) {
	if err := checkK(k, sp.NumRows()); err != nil {
		return nil, err
	}
	out := make([]Certification, sp.NumPoints())
	for i, p := range sp.Points {
		out[i] = Certify(p.Bounds, sp.Labels, k)
	}
	return out, nil
}

func checkK(k, n int) error {
	if k < 1 || k > n {
		return ErrInvalidK
	}
	return nil
}
