package cpclean

import (
	"cmp"
	"slices"

	"github.com/tensorplex-labs/budgetclean/internal/space"
)

// validRows returns the rows that can enter the top k in at least one world.
// With t the k-th largest minimum similarity (stable order), a row at or
// before that row's index survives if its max reaches t, a later row only if
// its max exceeds t.
func validRows(bounds []space.MinMaxBound, k int) []int {
	order := make([]int, len(bounds))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(bounds[b].Min, bounds[a].Min)
	})

	kth := order[k-1]
	t := bounds[kth].Min

	var rows []int
	for i, b := range bounds {
		if b.Max > t || (i <= kth && b.Max == t) {
			rows = append(rows, i)
		}
	}
	return rows
}

// entry is one candidate of one surviving row in the scan.
type entry struct {
	sim  float64
	row  int // index into scan.rows
	cand int
}

// scan is the per-point state of the sort-and-count sweep.
type scan struct {
	rows     []int        // surviving training rows, ascending
	labels   []int        // label per surviving row
	classIdx []int        // position of each surviving row within its class
	cells    []space.Cell // cell per surviving row
	order    []entry

	counters [2]ClassCounterState
	k        int
	eps      float64
}

func newScan(p *space.Point, labels []int, k int, eps float64) *scan {
	rows := validRows(p.Bounds, k)
	sc := &scan{
		rows:     rows,
		labels:   make([]int, len(rows)),
		classIdx: make([]int, len(rows)),
		cells:    make([]space.Cell, len(rows)),
		k:        k,
		eps:      eps,
	}

	var sizes [2]int
	total := 0
	for i, r := range rows {
		y := labels[r]
		sc.labels[i] = y
		sc.classIdx[i] = sizes[y]
		sizes[y]++
		sc.cells[i] = p.Cells[r]
		total += p.Cells[r].Len()
	}
	sc.counters = [2]ClassCounterState{newClassCounterState(sizes[0]), newClassCounterState(sizes[1])}

	// Ranked by descending similarity with ties to the lower row (then lower
	// candidate); the sweep walks that ranking from the bottom.
	sc.order = make([]entry, 0, total)
	for i, cell := range sc.cells {
		for j := range cell.Len() {
			sc.order = append(sc.order, entry{sim: cell.At(j).Similarity, row: i, cand: j})
		}
	}
	slices.SortFunc(sc.order, func(a, b entry) int {
		if c := cmp.Compare(a.sim, b.sim); c != 0 {
			return c
		}
		if c := cmp.Compare(b.row, a.row); c != 0 {
			return c
		}
		return cmp.Compare(b.cand, a.cand)
	})
	return sc
}

// below reports whether candidate cand of surviving row i ranks under e.
func (sc *scan) below(i, cand int, e entry) bool {
	s := sc.cells[i].At(cand).Similarity
	return s < e.sim || (s == e.sim && i > e.row)
}

// pin temporarily makes e the threshold element of its row and returns what
// to restore.
func (sc *scan) pin(e entry) (y, idx int, w float64, prev AlphaBeta) {
	y, idx = sc.labels[e.row], sc.classIdx[e.row]
	w = sc.cells[e.row].At(e.cand).Weight
	prev = sc.counters[y].Set(idx, AlphaBeta{Alpha: 0, Beta: w})
	return y, idx, w, prev
}

// release moves e's mass below the threshold.
func (sc *scan) release(y, idx int, w float64, prev AlphaBeta) {
	sc.counters[y].Set(idx, prev.lower(w))
}

type scanStats struct {
	steps    int
	rebuilds int
	small    int
}
