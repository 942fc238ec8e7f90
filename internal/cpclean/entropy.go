package cpclean

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WorldCounts is the (fractional) world mass in which each class wins the
// top-K vote.
type WorldCounts [2]float64

func (w WorldCounts) Total() float64 { return w[0] + w[1] }

// Prediction is the class holding the larger mass, class 0 on ties.
func (w WorldCounts) Prediction() int {
	if w[0] >= w[1] {
		return 0
	}
	return 1
}

// Entropy is the Shannon entropy (nats) of the normalized counts, +Inf when
// there is no mass at all.
func (w WorldCounts) Entropy() float64 {
	if w.Total() <= 0 {
		return math.Inf(1)
	}
	return stat.Entropy(L1Normalize(w[:]))
}

func (w *WorldCounts) add(o WorldCounts) {
	w[0] += o[0]
	w[1] += o[1]
}

// certainCounts is the Q2 result of a certified point.
func certainCounts(pred int) WorldCounts {
	var w WorldCounts
	w[pred] = 1
	return w
}

func L1Normalize(arr []float64) []float64 {
	result := make([]float64, len(arr))
	copy(result, arr)

	sum := floats.Sum(result)
	if sum > 0 {
		floats.Scale(1.0/sum, result)
	}

	return result
}

// meanEntropy averages entropies over all points, certified points counting
// as zero.
func meanEntropy(entropies []float64) float64 {
	if len(entropies) == 0 {
		return 0
	}
	return stat.Mean(entropies, nil)
}
