// Package space builds the candidate similarity space a CPClean run works on:
// for every validation point, the similarity of every candidate repair of
// every training row, plus per-row min/max bounds.
package space

import (
	"fmt"
	"math"
	"slices"
)

// Point holds one validation point's view of the training set.
type Point struct {
	Cells  []Cell
	Bounds []MinMaxBound
}

func (p *Point) clone() *Point {
	return &Point{
		Cells:  slices.Clone(p.Cells),
		Bounds: slices.Clone(p.Bounds),
	}
}

// Space is mutated in place by Collapse; use Clone or Subset to keep the
// original.
type Space struct {
	Labels      []int
	GroundTruth []int         // index of the ground-truth candidate per row
	Repairs     [][][]float64 // distinct candidate vectors per row, may be nil
	Points      []*Point
}

func (s *Space) NumRows() int { return len(s.Labels) }

func (s *Space) NumPoints() int { return len(s.Points) }

// IsDirty reports whether row still has more than one distinct candidate.
func (s *Space) IsDirty(row int) bool {
	if len(s.Points) == 0 {
		return false
	}
	return s.Points[0].Cells[row].Len() > 1
}

// DirtyRows returns the dirty row indices in ascending order.
func (s *Space) DirtyRows() []int {
	var rows []int
	for r := range s.Labels {
		if s.IsDirty(r) {
			rows = append(rows, r)
		}
	}
	return rows
}

// Collapse cleans row to its ground-truth candidate at every validation
// point. Collapsing a clean row is a no-op.
func (s *Space) Collapse(row int) {
	gt := s.GroundTruth[row]
	for _, p := range s.Points {
		cell := p.Cells[row]
		if cell.Len() == 1 {
			continue
		}
		sim := cell.At(gt).Similarity
		p.Cells[row] = Resolved(sim)
		p.Bounds[row] = Resolve(sim)
	}
	if s.Repairs != nil && len(s.Repairs[row]) > 1 {
		s.Repairs[row] = [][]float64{s.Repairs[row][gt]}
	}
	s.GroundTruth[row] = 0
}

// Subset returns a deep copy restricted to the given validation points.
func (s *Space) Subset(points []int) *Space {
	out := s.shallowRows()
	out.Points = make([]*Point, len(points))
	for i, idx := range points {
		out.Points[i] = s.Points[idx].clone()
	}
	return out
}

// Clone returns a deep copy of the whole space.
func (s *Space) Clone() *Space {
	out := s.shallowRows()
	out.Points = make([]*Point, len(s.Points))
	for i, p := range s.Points {
		out.Points[i] = p.clone()
	}
	return out
}

func (s *Space) shallowRows() *Space {
	out := &Space{
		Labels:      slices.Clone(s.Labels),
		GroundTruth: slices.Clone(s.GroundTruth),
	}
	if s.Repairs != nil {
		out.Repairs = slices.Clone(s.Repairs)
	}
	return out
}

// FromSimilarities builds a space directly from sims[point][row][candidate].
// Candidates get uniform weight and bounds are taken over the candidates.
func FromSimilarities(sims [][][]float64, labels, groundTruth []int) (*Space, error) {
	if err := validateLabels(labels); err != nil {
		return nil, err
	}
	if len(groundTruth) != len(labels) {
		return nil, fmt.Errorf("%w: %d ground truth indices for %d rows", ErrShapeMismatch, len(groundTruth), len(labels))
	}

	s := &Space{
		Labels:      slices.Clone(labels),
		GroundTruth: slices.Clone(groundTruth),
		Points:      make([]*Point, len(sims)),
	}
	for m, rows := range sims {
		if len(rows) != len(labels) {
			return nil, fmt.Errorf("%w: point %d has %d rows, want %d", ErrShapeMismatch, m, len(rows), len(labels))
		}
		p := &Point{Cells: make([]Cell, len(rows)), Bounds: make([]MinMaxBound, len(rows))}
		for n, row := range rows {
			if len(row) == 0 {
				return nil, fmt.Errorf("%w: point %d row %d has no candidates", ErrShapeMismatch, m, n)
			}
			if m > 0 && len(row) != len(sims[0][n]) {
				return nil, fmt.Errorf("%w: row %d has a different candidate count at point %d", ErrShapeMismatch, n, m)
			}
			if groundTruth[n] < 0 || groundTruth[n] >= len(row) {
				return nil, fmt.Errorf("%w: row %d", ErrGroundTruthMissing, n)
			}
			cands := make([]Candidate, len(row))
			for j, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, fmt.Errorf("%w: similarity at point %d row %d candidate %d", ErrNonFinite, m, n, j)
				}
				cands[j] = Candidate{Similarity: v, Weight: 1 / float64(len(row))}
			}
			p.Cells[n] = newCell(cands)
			p.Bounds[n] = p.Cells[n].Bound()
		}
		s.Points[m] = p
	}
	return s, nil
}

func validateLabels(labels []int) error {
	var seen [2]bool
	for i, y := range labels {
		if y != 0 && y != 1 {
			return fmt.Errorf("%w: row %d has label %d", ErrNonBinaryLabels, i, y)
		}
		seen[y] = true
	}
	if !seen[0] || !seen[1] {
		return ErrNonBinaryLabels
	}
	return nil
}
