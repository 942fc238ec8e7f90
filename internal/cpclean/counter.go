package cpclean

// AlphaBeta splits a row's candidate mass during the scan: Alpha is already
// below the current similarity threshold, Beta is still at or above it.
type AlphaBeta struct {
	Alpha float64
	Beta  float64
}

// mustAlpha reports a row whose mass is entirely below the threshold.
func (ab AlphaBeta) mustAlpha() bool { return ab.Beta == 0 }

// mustBeta reports a row whose mass is entirely above the threshold.
func (ab AlphaBeta) mustBeta() bool { return ab.Alpha == 0 }

// lower moves w of mass from beta to alpha.
func (ab AlphaBeta) lower(w float64) AlphaBeta {
	return stabilize(AlphaBeta{Alpha: ab.Alpha + w, Beta: ab.Beta - w})
}

// stabilize snaps near-boundary counters to exactly (0,1) or (1,0).
func stabilize(ab AlphaBeta) AlphaBeta {
	if ab.Alpha < stableTolerance {
		return AlphaBeta{Alpha: 0, Beta: 1}
	}
	if ab.Beta < stableTolerance {
		return AlphaBeta{Alpha: 1, Beta: 0}
	}
	return ab
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ClassCounterState owns the alpha/beta counters of one class together with
// the number of rows whose mass is fully resolved each way.
type ClassCounterState struct {
	rows      []AlphaBeta
	mustAlpha int
	mustBeta  int
}

// newClassCounterState starts every row fully above the threshold.
func newClassCounterState(n int) ClassCounterState {
	rows := make([]AlphaBeta, n)
	for i := range rows {
		rows[i] = AlphaBeta{Alpha: 0, Beta: 1}
	}
	return ClassCounterState{rows: rows, mustBeta: n}
}

func (s *ClassCounterState) Len() int { return len(s.rows) }

func (s *ClassCounterState) MustAlpha() int { return s.mustAlpha }

func (s *ClassCounterState) MustBeta() int { return s.mustBeta }

func (s *ClassCounterState) Rows() []AlphaBeta { return s.rows }

// Set replaces the counter of row and returns the previous one.
func (s *ClassCounterState) Set(row int, ab AlphaBeta) AlphaBeta {
	prev := s.rows[row]
	s.mustAlpha += b2i(ab.mustAlpha()) - b2i(prev.mustAlpha())
	s.mustBeta += b2i(ab.mustBeta()) - b2i(prev.mustBeta())
	s.rows[row] = ab
	return prev
}

// betaRange is the feasible number of this class's rows above the threshold
// among the top k.
func (s *ClassCounterState) betaRange(k int) (lo, hi int) {
	return s.mustBeta, min(len(s.rows)-s.mustAlpha, k)
}

// split is one way of filling the top K: n[c] rows of class c above the
// threshold, and the class that wins that vote.
type split struct {
	n    [2]int
	pred int
}

// feasibleSplits enumerates the splits consistent with both classes' counters
// and the widest n[c] each class needs in its DP table.
func feasibleSplits(counters *[2]ClassCounterState, k int, buf []split) ([]split, [2]int) {
	buf = buf[:0]
	var maxN [2]int
	lo0, hi0 := counters[0].betaRange(k)
	lo1, hi1 := counters[1].betaRange(k)
	for i := 0; i <= k; i++ {
		j := k - i
		if i < lo0 || i > hi0 || j < lo1 || j > hi1 {
			continue
		}
		buf = append(buf, split{n: [2]int{i, j}, pred: vote(i, k)})
		maxN[0] = max(maxN[0], i)
		maxN[1] = max(maxN[1], j)
	}
	return buf, maxN
}
