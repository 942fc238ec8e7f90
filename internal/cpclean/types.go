package cpclean

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tensorplex-labs/budgetclean/internal/space"
)

var (
	ErrInvalidK      = errors.New("cpclean: K must be between 1 and the number of training rows")
	ErrUnknownMethod = errors.New("cpclean: unknown cleaning method")
)

type Method string

const (
	MethodCPClean Method = "cpclean"
	MethodSample  Method = "sample_cpclean"
	MethodSGD     Method = "sgd_cpclean"
	MethodRandom  Method = "random"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodCPClean, MethodSample, MethodSGD, MethodRandom:
		return m, nil
	case "":
		return MethodCPClean, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Certification is the Q1 verdict for one validation point. Prediction is -1
// when the point is not certified.
type Certification struct {
	Certified  bool
	Prediction int
}

// Outcome is the world mass per class if a row were cleaned to one of its
// candidates, together with that candidate's prior weight.
type Outcome struct {
	Counts WorldCounts
	Weight float64
}

// AfterClean holds, for one validation point, the outcomes of every dirty row
// indexed by training row. Rows that are clean or pruned at this point are nil.
type AfterClean [][]Outcome

// Iteration is the diagnostic recorded after each selection. Iteration 0 is
// the state before any cleaning and has Selected = -1.
type Iteration struct {
	Iter             int           `json:"iter"`
	Selected         int           `json:"selected"`
	PercentCertified float64       `json:"percent_certified"`
	PercentClean     float64       `json:"percent_clean"` // rows cleaned over rows dirty at the start
	AvgEntropy       float64       `json:"avg_entropy"`
	Elapsed          time.Duration `json:"elapsed"`
}

// Result is the cleaning order plus its per-iteration diagnostics.
type Result struct {
	Selection  []int       `json:"selection"`
	Iterations []Iteration `json:"iterations"`

	dirty int
}

func newResult(sp *space.Space) *Result {
	return &Result{dirty: len(sp.DirtyRows())}
}

// Budget returns the first n selected rows.
func (r *Result) Budget(n int) []int {
	if n < 0 || n > len(r.Selection) {
		n = len(r.Selection)
	}
	out := make([]int, n)
	copy(out, r.Selection[:n])
	return out
}

// SelectionState is the loop state of a cleaning run.
type SelectionState struct {
	Uncertain []int // validation points not yet certified
	Dirty     []int // rows with more than one candidate left
	Log       []int // rows cleaned so far, in order
}
