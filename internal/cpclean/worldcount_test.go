package cpclean

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/budgetclean/internal/space"
)

func TestValidRows(t *testing.T) {
	bounds := []space.MinMaxBound{
		{Min: 0.5, Max: 0.9},
		{Min: 0.1, Max: 0.2},
		{Min: 0.6, Max: 0.6},
		{Min: 0.2, Max: 0.5},
		{Min: 0.3, Max: 0.55},
	}
	// k-th largest min with k=2 is row 0 (0.5); row 3 reaches it only with
	// equality and comes later, so it is pruned.
	assert.Equal(t, []int{0, 2, 4}, validRows(bounds, 2))
	assert.Equal(t, []int{0, 2}, validRows(bounds, 1))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, validRows(bounds, 5))
}

func TestCountWorldsMatchesEnumeration(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := range 40 {
		n := 3 + rng.IntN(5)
		k := 1 + rng.IntN(min(n, 4))
		weighted := trial%2 == 1
		p := randomPoint(rng, n, 3, weighted)
		labels := randomLabels(rng, n)

		t.Run(fmt.Sprintf("trial%d_n%d_k%d", trial, n, k), func(t *testing.T) {
			got, err := CountWorlds(context.Background(), p, labels, k, DefaultEps)
			require.NoError(t, err)
			want := bruteForce(p, labels, k)
			assert.InDelta(t, want[0], got[0], 1e-9)
			assert.InDelta(t, want[1], got[1], 1e-9)
			assert.InDelta(t, 1.0, got.Total(), 1e-9)
		})
	}
}

func TestCountWorldsConcentration(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	certified := 0
	for range 200 {
		n := 4 + rng.IntN(6)
		k := 1 + rng.IntN(4)
		p := randomPoint(rng, n, 3, false)
		labels := randomLabels(rng, n)

		cert := Certify(p.Bounds, labels, k)
		if !cert.Certified {
			continue
		}
		certified++

		counts, err := CountWorlds(context.Background(), p, labels, k, DefaultEps)
		require.NoError(t, err)
		assert.InDelta(t, counts.Total(), counts[cert.Prediction], 1e-9)
		assert.InDelta(t, 0, counts[1-cert.Prediction], 1e-9)
	}
	require.Positive(t, certified)
}

func TestCountWorldsPermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 8))
	for range 20 {
		n := 6
		k := 3
		p := randomPoint(rng, n, 3, true)
		labels := randomLabels(rng, n)

		perm := rng.Perm(n)
		q := &space.Point{
			Cells:  make([]space.Cell, n),
			Bounds: make([]space.MinMaxBound, n),
		}
		qLabels := make([]int, n)
		for i, j := range perm {
			cell := p.Cells[j]
			if u, ok := cell.(space.Unresolved); ok {
				rev := make(space.Unresolved, len(u))
				for c := range u {
					rev[len(u)-1-c] = u[c]
				}
				cell = rev
			}
			q.Cells[i] = cell
			q.Bounds[i] = p.Bounds[j]
			qLabels[i] = labels[j]
		}

		a, err := CountWorlds(context.Background(), p, labels, k, DefaultEps)
		require.NoError(t, err)
		b, err := CountWorlds(context.Background(), q, qLabels, k, DefaultEps)
		require.NoError(t, err)
		assert.InDelta(t, a[0], b[0], 1e-9)
		assert.InDelta(t, a[1], b[1], 1e-9)
	}
}

func TestCountWorldsAllJobsAgree(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	sp := randomSpace(rng, 17, 12, 3)

	serial, err := CountWorldsAll(context.Background(), sp.Points, sp.Labels, 3, DefaultEps, 1)
	require.NoError(t, err)
	for jobs := 2; jobs <= 8; jobs++ {
		got, err := CountWorldsAll(context.Background(), sp.Points, sp.Labels, 3, DefaultEps, jobs)
		require.NoError(t, err)
		assert.Equal(t, serial, got, "jobs=%d", jobs)
	}
}

func TestCountWorldsAllErrors(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	sp := randomSpace(rng, 5, 6, 3)

	_, err := CountWorldsAll(context.Background(), sp.Points, sp.Labels, 7, DefaultEps, 2)
	require.ErrorIs(t, err, ErrInvalidK)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CountWorldsAll(ctx, sp.Points, sp.Labels, 3, DefaultEps, 2)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPerPointCountsRejectInvalidK(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	p := randomPoint(rng, 6, 3, false)
	labels := randomLabels(rng, 6)

	for _, k := range []int{0, -1, 7} {
		t.Run(fmt.Sprintf("k%d", k), func(t *testing.T) {
			_, err := CountWorlds(context.Background(), p, labels, k, DefaultEps)
			require.ErrorIs(t, err, ErrInvalidK)

			_, err = CountAfterClean(context.Background(), p, labels, k, DefaultEps)
			require.ErrorIs(t, err, ErrInvalidK)
		})
	}
}

func TestWorldCountsEntropy(t *testing.T) {
	assert.InDelta(t, 0.6931471805599453, WorldCounts{2, 2}.Entropy(), 1e-12)
	assert.Zero(t, WorldCounts{0, 3}.Entropy())
	assert.True(t, WorldCounts{}.Entropy() > 1e308)
	assert.Equal(t, 0, WorldCounts{1, 1}.Prediction())
	assert.Equal(t, 1, WorldCounts{1, 2}.Prediction())
}

func BenchmarkCountWorlds(b *testing.B) {
	sizes := []struct {
		rows  int
		cands int
	}{
		{100, 3},
		{500, 5},
	}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Rows%d_Cands%d", size.rows, size.cands), func(b *testing.B) {
			rng := rand.New(rand.NewPCG(9, 9))
			p := randomPoint(rng, size.rows, size.cands, false)
			labels := randomLabels(rng, size.rows)

			b.ResetTimer()
			for b.Loop() {
				_, _ = CountWorlds(context.Background(), p, labels, DefaultK, DefaultEps)
			}
		})
	}
}
