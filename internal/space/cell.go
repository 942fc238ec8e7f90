package space

// Cell is what one training row looks like from one validation point: either
// Resolved to a single similarity or still Unresolved between candidates.
type Cell interface {
	Len() int
	At(i int) Candidate
	Bound() MinMaxBound
	isCell()
}

// Resolved is a cleaned (or never dirty) row.
type Resolved float64

func (r Resolved) Len() int { return 1 }

func (r Resolved) At(int) Candidate {
	return Candidate{Similarity: float64(r), Weight: 1}
}

func (r Resolved) Bound() MinMaxBound { return Resolve(float64(r)) }

func (Resolved) isCell() {}

// Unresolved holds the distinct candidates of a dirty row.
type Unresolved []Candidate

func (u Unresolved) Len() int { return len(u) }

func (u Unresolved) At(i int) Candidate { return u[i] }

func (u Unresolved) Bound() MinMaxBound {
	b := Resolve(u[0].Similarity)
	for _, c := range u[1:] {
		b.Min = min(b.Min, c.Similarity)
		b.Max = max(b.Max, c.Similarity)
	}
	return b
}

func (Unresolved) isCell() {}

// newCell folds single-candidate rows into Resolved.
func newCell(cands []Candidate) Cell {
	if len(cands) == 1 {
		return Resolved(cands[0].Similarity)
	}
	return Unresolved(cands)
}
