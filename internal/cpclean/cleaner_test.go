package cpclean

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/budgetclean/internal/space"
)

// straddleSpace has one validation point and K=1: row 0 (class 0) and row 1
// (class 1) are clean, row 2 (class 1) has candidates on either side of row 0
// and decides the vote, row 3 (class 0) is dirty but never reaches the top.
func straddleSpace(t *testing.T) *space.Space {
	t.Helper()
	sp, err := space.FromSimilarities(
		[][][]float64{{{0.5}, {0.2}, {0.3, 0.7}, {0.05, 0.1}}},
		[]int{0, 1, 1, 0},
		[]int{0, 0, 1, 0},
	)
	require.NoError(t, err)
	return sp
}

func TestCleanSelectsDecisiveRow(t *testing.T) {
	sp := straddleSpace(t)
	res, err := NewCleaner(WithK(1), WithJobs(1)).Clean(context.Background(), sp)
	require.NoError(t, err)

	assert.Equal(t, []int{2}, res.Selection)
	require.Len(t, res.Iterations, 2)
	assert.Equal(t, -1, res.Iterations[0].Selected)
	assert.InDelta(t, math.Ln2, res.Iterations[0].AvgEntropy, 1e-12)
	assert.Zero(t, res.Iterations[0].PercentCertified)
	assert.Equal(t, 2, res.Iterations[1].Selected)
	assert.Equal(t, 1.0, res.Iterations[1].PercentCertified)
	assert.Zero(t, res.Iterations[1].AvgEntropy)

	assert.True(t, sp.IsDirty(2), "input space is left untouched")
}

func TestCleanThreeRowScenario(t *testing.T) {
	// Row 0 (class 0) and row 1 (class 1) are clean; row 2 (class 1) lands on
	// either side of row 0 and is cleaned to the far side.
	sp, err := space.FromSimilarities(
		[][][]float64{{{0.5}, {0.2}, {0.3, 0.7}}},
		[]int{0, 1, 1},
		[]int{0, 0, 1},
	)
	require.NoError(t, err)

	res, err := NewCleaner(WithK(1), WithJobs(1)).Clean(context.Background(), sp)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, res.Selection)
	require.Len(t, res.Iterations, 2)
	assert.InDelta(t, math.Ln2, res.Iterations[0].AvgEntropy, 1e-12)
	assert.Zero(t, res.Iterations[0].PercentClean)
	assert.Equal(t, 1.0, res.Iterations[1].PercentCertified)
	assert.Equal(t, 1.0, res.Iterations[1].PercentClean)

	certs, err := CertifyAll(sp, 1)
	require.NoError(t, err)
	assert.False(t, certs[0].Certified)
}

func TestCleanRecordsPercentClean(t *testing.T) {
	res, err := NewCleaner(WithK(1), WithJobs(1)).Clean(context.Background(), straddleSpace(t))
	require.NoError(t, err)

	// Rows 2 and 3 start dirty; one is cleaned.
	assert.Zero(t, res.Iterations[0].PercentClean)
	assert.InDelta(t, 0.5, res.Iterations[1].PercentClean, 1e-12)
}

func TestCleanDegenerateSpace(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 13))
	const rows, points = 5000, 4

	sims := make([][][]float64, points)
	for m := range sims {
		sims[m] = make([][]float64, rows)
		for r := range sims[m] {
			sims[m][r] = []float64{rng.Float64()}
		}
	}
	sp, err := space.FromSimilarities(sims, randomLabels(rng, rows), make([]int, rows))
	require.NoError(t, err)

	res, err := NewCleaner(WithK(3)).Clean(context.Background(), sp)
	require.NoError(t, err)
	assert.Empty(t, res.Selection)
	require.Len(t, res.Iterations, 1)
	assert.Equal(t, 1.0, res.Iterations[0].PercentCertified)
}

func TestCleanNeverRepeatsRows(t *testing.T) {
	rng := rand.New(rand.NewPCG(31, 37))
	sp := randomSpace(rng, 12, 14, 3)

	res, err := NewCleaner(WithK(3), WithJobs(3)).Clean(context.Background(), sp)
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, r := range res.Selection {
		assert.False(t, seen[r], "row %d selected twice", r)
		assert.True(t, sp.IsDirty(r), "row %d was clean", r)
		seen[r] = true
	}
	last := res.Iterations[len(res.Iterations)-1]
	assert.Equal(t, 1.0, last.PercentCertified)
	assert.Len(t, res.Iterations, len(res.Selection)+1)
}

func TestCleanDeterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 3))
	sp := randomSpace(rng, 10, 12, 3)

	ref, err := NewCleaner(WithK(3), WithJobs(1)).Clean(context.Background(), sp)
	require.NoError(t, err)
	require.NotEmpty(t, ref.Selection)

	again, err := NewCleaner(WithK(3), WithJobs(1)).Clean(context.Background(), sp)
	require.NoError(t, err)
	assert.Equal(t, ref.Selection, again.Selection)

	for jobs := 2; jobs <= 8; jobs++ {
		t.Run(fmt.Sprintf("jobs%d", jobs), func(t *testing.T) {
			res, err := NewCleaner(WithK(3), WithJobs(jobs)).Clean(context.Background(), sp)
			require.NoError(t, err)
			assert.Equal(t, ref.Selection, res.Selection)
		})
	}
}

// Realized entropy can rise on general inputs (a collapse may push a point
// toward an even split); it cannot when each point is decided by its own row.
func TestCleanEntropyNonIncreasingOnSeparatedPoints(t *testing.T) {
	// Two validation points each decided by its own dirty row.
	sp, err := space.FromSimilarities(
		[][][]float64{
			{{0.5}, {0.2}, {0.3, 0.7}, {0.1, 0.15}},
			{{0.5}, {0.2}, {0.1, 0.15}, {0.4, 0.8}},
		},
		[]int{0, 1, 1, 1},
		[]int{0, 0, 0, 1},
	)
	require.NoError(t, err)

	res, err := NewCleaner(WithK(1), WithJobs(2)).Clean(context.Background(), sp)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2, 3}, res.Selection)

	for i := 1; i < len(res.Iterations); i++ {
		assert.LessOrEqual(t, res.Iterations[i].AvgEntropy, res.Iterations[i-1].AvgEntropy+1e-12)
	}
}

func TestCleanCancelled(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 3))
	sp := randomSpace(rng, 10, 12, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCleaner(WithK(3)).Clean(ctx, sp)
	require.ErrorIs(t, err, context.Canceled)
}

func TestVariantsReachFullCertification(t *testing.T) {
	rng := rand.New(rand.NewPCG(77, 1))
	sp := randomSpace(rng, 9, 10, 3)

	for _, m := range []Method{MethodCPClean, MethodSample, MethodSGD, MethodRandom} {
		t.Run(string(m), func(t *testing.T) {
			c := NewCleaner(WithK(3), WithJobs(2), WithSampleSize(4), WithSeed(5))
			res, err := c.Run(context.Background(), sp, m)
			require.NoError(t, err)

			last := res.Iterations[len(res.Iterations)-1]
			assert.Equal(t, 1.0, last.PercentCertified)

			seen := map[int]bool{}
			for _, r := range res.Selection {
				assert.False(t, seen[r], "row %d selected twice", r)
				seen[r] = true
			}

			again, err := c.Run(context.Background(), sp, m)
			require.NoError(t, err)
			assert.Equal(t, res.Selection, again.Selection)
		})
	}

	_, err := NewCleaner().Run(context.Background(), sp, Method("bogus"))
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestRankOneShot(t *testing.T) {
	sp := straddleSpace(t)
	c := NewCleaner(WithK(1), WithJobs(1))

	ranked, err := c.RankOneShot(context.Background(), sp, -1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, ranked)

	ranked, err = c.RankOneShot(context.Background(), sp, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, ranked)
}

func TestResultBudget(t *testing.T) {
	r := &Result{Selection: []int{4, 1, 7}}
	assert.Equal(t, []int{4, 1}, r.Budget(2))
	assert.Equal(t, []int{4, 1, 7}, r.Budget(10))
	assert.Equal(t, []int{4, 1, 7}, r.Budget(-1))
	assert.Empty(t, r.Budget(0))
}

func TestPlotEntropyCurve(t *testing.T) {
	var buf bytes.Buffer
	PlotEntropyCurve(&buf, []Iteration{
		{Iter: 0, Selected: -1, PercentCertified: 0.25, AvgEntropy: 0.6},
		{Iter: 1, Selected: 3, PercentCertified: 1, AvgEntropy: 0},
	}, "run")

	out := buf.String()
	assert.Contains(t, out, "run (Terminal Plot - Average Entropy)")
	assert.Contains(t, out, "25.00%")
	assert.Contains(t, out, "100.00%")
	assert.Contains(t, out, "Scale: Min=0.000000, Max=0.600000")
}
