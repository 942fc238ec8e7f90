package problem

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/budgetclean/internal/cpclean"
	"github.com/tensorplex-labs/budgetclean/internal/space"
)

// straddle is a one-feature problem with a single validation point at 0 and
// K=1: row 0 (class 0) sits at 1, row 1 (class 1) at 4, and row 2 (class 1)
// is repaired either to 2 or to 0.5, which decides the vote.
func straddle() *Problem {
	return &Problem{
		ID: "straddle",
		Repairs: [][][]float64{
			{{1}, {4}, {2}},
			{{1}, {4}, {0.5}},
		},
		Validation:  [][]float64{{0}},
		GroundTruth: [][]float64{{1}, {4}, {0.5}},
		Labels:      []int{0, 1, 1},
		K:           1,
		Budget:      1,
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"problem.json", "problem.json.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, straddle()))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, straddle(), got)
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	var p Problem
	require.Error(t, Decode(bytes.NewReader([]byte("{not json")), &p, false))
	require.Error(t, Decode(bytes.NewReader([]byte("plain text")), &p, true))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Problem)
	}{
		{"no repairs", func(p *Problem) { p.Repairs = nil }},
		{"ragged repair", func(p *Problem) { p.Repairs[1][2] = []float64{1, 2} }},
		{"empty validation", func(p *Problem) { p.Validation = nil }},
		{"empty ground truth row", func(p *Problem) { p.GroundTruth = [][]float64{{}} }},
		{"negative budget", func(p *Problem) { p.Budget = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := straddle()
			tt.mutate(p)
			require.ErrorIs(t, p.Validate(), ErrInvalidProblem)
		})
	}
	require.NoError(t, straddle().Validate())
}

func TestSpace(t *testing.T) {
	sp, err := straddle().Space()
	require.NoError(t, err)
	assert.Equal(t, []int{2}, sp.DirtyRows())
	assert.Equal(t, []int{0, 0, 0}, sp.GroundTruth)

	p := straddle()
	p.Labels = []int{0, 0, 0}
	_, err = p.Space()
	require.ErrorIs(t, err, space.ErrNonBinaryLabels)
}

func TestSolve(t *testing.T) {
	s := &Solver{
		Options: []cpclean.Option{cpclean.WithK(3), cpclean.WithJobs(1)},
		Method:  cpclean.MethodCPClean,
	}

	report, err := s.Solve(context.Background(), straddle())
	require.NoError(t, err)
	assert.Equal(t, "straddle", report.ProblemID)
	assert.Equal(t, 1, report.K, "problem K overrides the default")
	assert.Equal(t, cpclean.MethodCPClean, report.Method)
	assert.Equal(t, []int{2}, report.Selection)
	assert.Equal(t, []int{2}, report.Budgeted)
	assert.NotEmpty(t, report.RunID.String())
	require.Len(t, report.Iterations, 2)
	assert.Equal(t, 1.0, report.Iterations[1].PercentCertified)

	p := straddle()
	p.Method = "random"
	report, err = s.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, cpclean.MethodRandom, report.Method)
	assert.Equal(t, []int{2}, report.Selection)

	p.Method = "annealing"
	_, err = s.Solve(context.Background(), p)
	require.ErrorIs(t, err, cpclean.ErrUnknownMethod)
}

func TestReportRoundTrip(t *testing.T) {
	res := &cpclean.Result{
		Selection:  []int{5, 2, 9},
		Iterations: []cpclean.Iteration{{Iter: 0, Selected: -1, PercentCertified: 0.5, AvgEntropy: 0.3}},
	}
	r := NewReport("p1", cpclean.MethodSGD, 3, res, 2)
	assert.Equal(t, []int{5, 2}, r.Budgeted)

	path := filepath.Join(t.TempDir(), "report.json.zst")
	require.NoError(t, Save(path, r))
	got, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, got.RunID)
	assert.Equal(t, r.Budgeted, got.Budgeted)
	assert.Equal(t, r.Iterations, got.Iterations)
	assert.True(t, r.CreatedAt.Equal(got.CreatedAt))
}
