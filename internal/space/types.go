package space

import (
	"fmt"
	"strings"
)

// MinMaxBound is the lowest and highest similarity a row can contribute to a
// validation point across its candidates.
type MinMaxBound struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Resolve returns the bound of a row known to sit at exactly s.
func Resolve(s float64) MinMaxBound {
	return MinMaxBound{Min: s, Max: s}
}

// Candidate is one distinct repair of a row seen from one validation point.
type Candidate struct {
	Similarity float64
	Weight     float64
}

// WeightMode decides how much world mass each distinct candidate carries.
type WeightMode int

const (
	// WeightUniform gives each distinct candidate 1/distinct, whatever the
	// number of repairs that produced it.
	WeightUniform WeightMode = iota
	// WeightMultiplicity gives each distinct candidate count/R, where count
	// is the number of repairs that coincide on it.
	WeightMultiplicity
)

func (m WeightMode) String() string {
	switch m {
	case WeightUniform:
		return "uniform"
	case WeightMultiplicity:
		return "multiplicity"
	}
	return fmt.Sprintf("WeightMode(%d)", int(m))
}

func ParseWeightMode(s string) (WeightMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uniform":
		return WeightUniform, nil
	case "multiplicity":
		return WeightMultiplicity, nil
	}
	return WeightUniform, fmt.Errorf("unknown weight mode %q", s)
}

type buildConfig struct {
	weightMode WeightMode
	decimals   int
}

type BuildOption func(*buildConfig)

func WithWeightMode(mode WeightMode) BuildOption {
	return func(c *buildConfig) {
		c.weightMode = mode
	}
}

// WithDecimals sets the rounding applied to candidate vectors before
// deduplication.
func WithDecimals(decimals int) BuildOption {
	return func(c *buildConfig) {
		c.decimals = decimals
	}
}
