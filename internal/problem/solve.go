package problem

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/budgetclean/internal/cpclean"
	"github.com/tensorplex-labs/budgetclean/internal/space"
)

// Validate checks that every matrix of p is non-empty and rectangular.
// Shape agreement between matrices is left to space.Build.
func (p *Problem) Validate() error {
	if len(p.Repairs) == 0 {
		return fmt.Errorf("%w: no repairs", ErrInvalidProblem)
	}
	for r, x := range p.Repairs {
		if err := checkRect(x, fmt.Sprintf("repairs[%d]", r)); err != nil {
			return err
		}
	}
	if err := checkRect(p.Validation, "validation"); err != nil {
		return err
	}
	if err := checkRect(p.GroundTruth, "ground_truth"); err != nil {
		return err
	}
	if p.K < 0 || p.Budget < 0 {
		return fmt.Errorf("%w: negative k or budget", ErrInvalidProblem)
	}
	return nil
}

func checkRect(rows [][]float64, name string) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidProblem, name)
	}
	for i, row := range rows {
		if len(row) != len(rows[0]) {
			return fmt.Errorf("%w: %s row %d has %d columns, want %d", ErrInvalidProblem, name, i, len(row), len(rows[0]))
		}
	}
	return nil
}

func dense(rows [][]float64) *mat.Dense {
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}

// Space validates p and builds its similarity space.
func (p *Problem) Space(opts ...space.BuildOption) (*space.Space, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	repairs := make([]*mat.Dense, len(p.Repairs))
	for r, x := range p.Repairs {
		repairs[r] = dense(x)
	}
	return space.Build(repairs, dense(p.Validation), dense(p.GroundTruth), p.Labels, opts...)
}

// Solver turns problems into reports. Per-problem K and Method override the
// defaults.
type Solver struct {
	Options      []cpclean.Option
	BuildOptions []space.BuildOption
	Method       cpclean.Method
}

func (s *Solver) Solve(ctx context.Context, p *Problem) (*Report, error) {
	sp, err := p.Space(s.BuildOptions...)
	if err != nil {
		return nil, err
	}

	method := s.Method
	if p.Method != "" {
		if method, err = cpclean.ParseMethod(p.Method); err != nil {
			return nil, err
		}
	}
	opts := slices.Clone(s.Options)
	if p.K > 0 {
		opts = append(opts, cpclean.WithK(p.K))
	}
	cleaner := cpclean.NewCleaner(opts...)

	log.Info().
		Str("problem_id", p.ID).
		Str("method", string(method)).
		Int("k", cleaner.K).
		Int("rows", sp.NumRows()).
		Int("points", sp.NumPoints()).
		Msg("solving problem")

	res, err := cleaner.Run(ctx, sp, method)
	if err != nil {
		return nil, fmt.Errorf("problem %q: %w", p.ID, err)
	}
	return NewReport(p.ID, method, cleaner.K, res, p.Budget), nil
}
