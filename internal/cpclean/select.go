package cpclean

import (
	"math"
)

// ExpectedEntropy is the entropy a point is expected to have once row is
// cleaned: the weight-averaged entropy over the row's candidates. It reports
// false when the row has no usable outcome at this point.
func (a AfterClean) ExpectedEntropy(row int) (float64, bool) {
	if row >= len(a) || a[row] == nil {
		return 0, false
	}
	var sum, mass float64
	for _, o := range a[row] {
		h := o.Counts.Entropy()
		if math.IsInf(h, 0) || math.IsNaN(h) {
			return 0, false
		}
		sum += o.Weight * h
		mass += o.Weight
	}
	if mass <= 0 {
		return 0, false
	}
	return sum / mass, true
}

// ExpectedGains returns, for each of nRows training rows, the mean entropy
// reduction over the points in after (aligned with before) expected from
// cleaning it. Rows outside dirty, and rows whose gain is exactly zero, get
// -Inf.
func ExpectedGains(after []AfterClean, dirty []int, before []float64, nRows int) []float64 {
	gains := make([]float64, nRows)
	for i := range gains {
		gains[i] = math.Inf(-1)
	}
	if len(after) == 0 {
		return gains
	}

	for _, r := range dirty {
		total := 0.0
		for p, a := range after {
			if math.IsInf(before[p], 0) {
				continue
			}
			h, ok := a.ExpectedEntropy(r)
			if !ok {
				h = before[p]
			}
			total += before[p] - h
		}
		if g := total / float64(len(after)); g != 0 {
			gains[r] = g
		}
	}
	return gains
}

// SelectBest picks the dirty row with the largest gain, the first one in
// dirty order on ties. It returns -1 when dirty is empty.
func SelectBest(gains []float64, dirty []int) int {
	best := -1
	bestGain := math.Inf(-1)
	for _, r := range dirty {
		if best < 0 || gains[r] > bestGain {
			best, bestGain = r, gains[r]
		}
	}
	return best
}
