// Package problem holds the documents exchanged with the cleaning engine: a
// Problem (raw repairs, validation set, ground truth, labels) and the Report
// produced for it.
package problem

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tensorplex-labs/budgetclean/internal/cpclean"
)

var ErrInvalidProblem = errors.New("problem: invalid document")

// Problem is one cleaning task. Repairs is R×N×D (one candidate matrix per
// repair method), Validation is M×D and GroundTruth is N×D.
type Problem struct {
	ID          string        `json:"id"`
	Repairs     [][][]float64 `json:"repairs"`
	Validation  [][]float64   `json:"validation"`
	GroundTruth [][]float64   `json:"ground_truth"`
	Labels      []int         `json:"labels"`
	K           int           `json:"k,omitempty"`
	Method      string        `json:"method,omitempty"`
	Budget      int           `json:"budget,omitempty"` // <= 0 keeps the full selection
}

// Report is the outcome of solving a Problem.
type Report struct {
	RunID      uuid.UUID           `json:"run_id"`
	ProblemID  string              `json:"problem_id"`
	Method     cpclean.Method      `json:"method"`
	K          int                 `json:"k"`
	Selection  []int               `json:"selection"`
	Budgeted   []int               `json:"budgeted"`
	Iterations []cpclean.Iteration `json:"iterations"`
	CreatedAt  time.Time           `json:"created_at"`
}

// NewReport wraps a cleaning result; Budgeted is the first budget rows of the
// selection, or all of it when budget <= 0.
func NewReport(problemID string, method cpclean.Method, k int, res *cpclean.Result, budget int) *Report {
	if budget <= 0 {
		budget = -1
	}
	return &Report{
		RunID:      uuid.New(),
		ProblemID:  problemID,
		Method:     method,
		K:          k,
		Selection:  res.Selection,
		Budgeted:   res.Budget(budget),
		Iterations: res.Iterations,
		CreatedAt:  time.Now().UTC(),
	}
}
