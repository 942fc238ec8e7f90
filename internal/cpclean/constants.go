package cpclean

const (
	DefaultK          = 3
	DefaultJobs       = 4
	DefaultSeed       = 1
	DefaultSampleSize = 32

	// DefaultEps is the mass below which (divided by the class size) a DP
	// table is treated as empty and its scan step contributes nothing.
	DefaultEps = 1e-100

	// stableTolerance snaps alpha/beta counters to exactly 0 or 1.
	stableTolerance = 1e-9
)
