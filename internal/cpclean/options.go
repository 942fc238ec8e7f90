package cpclean

import (
	"github.com/tensorplex-labs/budgetclean/internal/utils/logger"
)

// Cleaner drives the certify, count, select and collapse loop.
type Cleaner struct {
	K          int
	Jobs       int
	Eps        float64
	Seed       uint64
	SampleSize int
}

type Option func(*Cleaner)

func WithK(k int) Option {
	return func(c *Cleaner) {
		c.K = k
	}
}

func WithJobs(jobs int) Option {
	return func(c *Cleaner) {
		c.Jobs = jobs
	}
}

// WithEps sets the cutoff under which a DP table counts as empty. Larger
// values skip more scan steps and lose precision.
func WithEps(eps float64) Option {
	return func(c *Cleaner) {
		c.Eps = eps
	}
}

func WithSeed(seed uint64) Option {
	return func(c *Cleaner) {
		c.Seed = seed
	}
}

func WithSampleSize(n int) Option {
	return func(c *Cleaner) {
		c.SampleSize = n
	}
}

func NewCleaner(opts ...Option) *Cleaner {
	c := &Cleaner{
		K:          DefaultK,
		Jobs:       DefaultJobs,
		Eps:        DefaultEps,
		Seed:       DefaultSeed,
		SampleSize: DefaultSampleSize,
	}

	for _, opt := range opts {
		opt(c)
	}
	c.Jobs = max(c.Jobs, 1)

	logger.Sugar().Infow("Cleaner configured",
		"k", c.K,
		"jobs", c.Jobs,
		"eps", c.Eps,
		"seed", c.Seed,
		"sampleSize", c.SampleSize,
	)
	return c
}
