package rule

import "time"

// Limits bounds a single transaction's fixpoint execution (§4.6 "safety
// limits"). Zero Budget means no wall-clock bound.
type Limits struct {
	MaxActions    int
	MaxChainDepth int
	Budget        time.Duration
}

// DefaultLimits matches §4.6's stated defaults.
func DefaultLimits() Limits {
	return Limits{MaxActions: 10000, MaxChainDepth: 100}
}
