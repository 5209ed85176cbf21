package engine

import (
	"math"
)

// MarginJitterBound caps the multiplicative perturbation applied to the
// published profit margin at ±5%.
const MarginJitterBound = 0.05

// JitterSource yields a value in [0,1); injected so tests can pin the
// perturbation. A nil source disables jitter entirely.
type JitterSource func() float64

// ProfitMargin computes the resale margin percentage from a cost and retail
// estimate, applies the bounded jitter and clamps the result to [0,100]. A
// zero retail estimate means no usable retail data, so the margin is 0 rather
// than a division artifact.
func ProfitMargin(cost, retail float64, jitter JitterSource) float64 {
	if retail <= 0 {
		return 0
	}

	margin := (retail - cost) / retail * 100

	if jitter != nil {
		variation := jitter()*2*MarginJitterBound - MarginJitterBound
		margin *= 1 + variation
	}

	return math.Min(100, math.Max(0, margin))
}
