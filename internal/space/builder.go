package space

import (
	"fmt"
	"math"
	"slices"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const DefaultDecimals = 12

// Similarity is 1/(1+d) for the Euclidean distance d between a and b.
func Similarity(a, b []float64) float64 {
	return 1 / (1 + floats.Distance(a, b, 2))
}

// Build computes the similarity space for R repair matrices (each N×D), a
// validation matrix (M×D), the ground-truth matrix (N×D) and binary labels.
func Build(repairs []*mat.Dense, val, gt *mat.Dense, labels []int, opts ...BuildOption) (*Space, error) {
	cfg := buildConfig{weightMode: WeightUniform, decimals: DefaultDecimals}
	for _, opt := range opts {
		opt(&cfg)
	}

	n, d, err := checkShapes(repairs, val, gt, labels)
	if err != nil {
		return nil, err
	}
	if err := validateLabels(labels); err != nil {
		return nil, err
	}
	for r, x := range repairs {
		if err := checkFinite(x, fmt.Sprintf("repair %d", r)); err != nil {
			return nil, err
		}
	}
	if err := checkFinite(val, "validation"); err != nil {
		return nil, err
	}
	if err := checkFinite(gt, "ground truth"); err != nil {
		return nil, err
	}

	m, _ := val.Dims()
	numRepairs := len(repairs)

	// sims[r][m][n]
	sims := make([][][]float64, numRepairs)
	for r, x := range repairs {
		sims[r] = make([][]float64, m)
		for i := range m {
			v := val.RawRowView(i)
			row := make([]float64, n)
			for j := range n {
				row[j] = Similarity(x.RawRowView(j), v)
			}
			sims[r][i] = row
		}
	}

	s := &Space{
		Labels:      slices.Clone(labels),
		GroundTruth: make([]int, n),
		Repairs:     make([][][]float64, n),
		Points:      make([]*Point, m),
	}
	for i := range m {
		s.Points[i] = &Point{Cells: make([]Cell, n), Bounds: make([]MinMaxBound, n)}
	}

	distinctTotal := 0
	for j := range n {
		vecs := make([][]float64, numRepairs)
		for r, x := range repairs {
			vecs[r] = roundVec(x.RawRowView(j), cfg.decimals)
		}
		groups := uniqueRows(vecs)

		target := roundVec(gt.RawRowView(j), cfg.decimals)
		gtIdx := slices.IndexFunc(groups, func(g group) bool {
			return slices.Equal(g.vec, target)
		})
		if gtIdx < 0 {
			return nil, fmt.Errorf("%w: row %d", ErrGroundTruthMissing, j)
		}
		s.GroundTruth[j] = gtIdx

		weights := make([]float64, len(groups))
		s.Repairs[j] = make([][]float64, len(groups))
		for k, g := range groups {
			s.Repairs[j][k] = g.vec
			switch cfg.weightMode {
			case WeightMultiplicity:
				weights[k] = float64(g.count) / float64(numRepairs)
			default:
				weights[k] = 1 / float64(len(groups))
			}
		}
		distinctTotal += len(groups)

		for i := range m {
			cands := make([]Candidate, len(groups))
			b := Resolve(sims[0][i][j])
			for r := range numRepairs {
				b.Min = min(b.Min, sims[r][i][j])
				b.Max = max(b.Max, sims[r][i][j])
			}
			for k, g := range groups {
				cands[k] = Candidate{Similarity: sims[g.first][i][j], Weight: weights[k]}
			}
			s.Points[i].Cells[j] = newCell(cands)
			s.Points[i].Bounds[j] = b
		}
	}

	log.Debug().
		Int("repairs", numRepairs).
		Int("rows", n).
		Int("features", d).
		Int("points", m).
		Int("dirty_rows", len(s.DirtyRows())).
		Int("distinct_candidates", distinctTotal).
		Str("weight_mode", cfg.weightMode.String()).
		Msg("similarity space built")

	return s, nil
}

func checkShapes(repairs []*mat.Dense, val, gt *mat.Dense, labels []int) (n, d int, err error) {
	if len(repairs) == 0 {
		return 0, 0, ErrNoRepairs
	}
	n, d = repairs[0].Dims()
	for r, x := range repairs[1:] {
		if rn, rd := x.Dims(); rn != n || rd != d {
			return 0, 0, fmt.Errorf("%w: repair %d is %dx%d, want %dx%d", ErrShapeMismatch, r+1, rn, rd, n, d)
		}
	}
	if _, vd := val.Dims(); vd != d {
		return 0, 0, fmt.Errorf("%w: validation has %d features, want %d", ErrShapeMismatch, vd, d)
	}
	if gn, gd := gt.Dims(); gn != n || gd != d {
		return 0, 0, fmt.Errorf("%w: ground truth is %dx%d, want %dx%d", ErrShapeMismatch, gn, gd, n, d)
	}
	if len(labels) != n {
		return 0, 0, fmt.Errorf("%w: %d labels for %d rows", ErrShapeMismatch, len(labels), n)
	}
	return n, d, nil
}

func checkFinite(x *mat.Dense, name string) error {
	rows, _ := x.Dims()
	for i := range rows {
		for j, v := range x.RawRowView(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s[%d][%d] = %v", ErrNonFinite, name, i, j, v)
			}
		}
	}
	return nil
}

func roundVec(v []float64, decimals int) []float64 {
	scale := math.Pow(10, float64(decimals))
	out := make([]float64, len(v))
	for i, x := range v {
		r := math.RoundToEven(x*scale) / scale
		if math.IsInf(r, 0) || math.IsNaN(r) {
			r = x
		}
		out[i] = r
	}
	return out
}

type group struct {
	vec   []float64
	first int // first repair producing vec
	count int
}

// uniqueRows groups identical vectors and returns them in lexicographic order.
func uniqueRows(vecs [][]float64) []group {
	order := make([]int, len(vecs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return slices.Compare(vecs[a], vecs[b])
	})

	var groups []group
	for _, idx := range order {
		if k := len(groups) - 1; k >= 0 && slices.Equal(groups[k].vec, vecs[idx]) {
			groups[k].count++
			continue
		}
		groups = append(groups, group{vec: vecs[idx], first: idx, count: 1})
	}
	return groups
}
