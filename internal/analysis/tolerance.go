package analysis

import "math"

// Tolerance is the piecewise-linear allowance applied to a reference value v:
// 5 up to 0, falling linearly to 3 at 5 and to 2 at 10, then flat at 2.
func Tolerance(v float64) float64 {
	switch {
	case v <= 0:
		return 5
	case v <= 5:
		return 5 - 0.4*v
	case v <= 10:
		return 4 - 0.2*v
	default:
		return 2
	}
}

// WithinTolerance reports whether |diff| <= Tolerance(reference).
func WithinTolerance(diff, reference float64) bool {
	return math.Abs(diff) <= Tolerance(reference)
}
