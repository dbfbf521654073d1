package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToleranceBreakpoints(t *testing.T) {
	tests := []struct {
		v    float64
		want float64
	}{
		{-3, 5},
		{0, 5},
		{1e-12, 5},
		{2.5, 4},
		{5, 3},
		{7, 2.6},
		{10, 2},
		{10.0001, 2},
		{250, 2},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Tolerance(tt.v), 1e-9, "v=%g", tt.v)
	}
}

func TestToleranceBoundedAndNonIncreasing(t *testing.T) {
	prev := Tolerance(0)
	for i := 0; i <= 20000; i++ {
		v := float64(i) / 1000
		tau := Tolerance(v)
		assert.GreaterOrEqual(t, tau, 2.0)
		assert.LessOrEqual(t, tau, 5.0)
		assert.LessOrEqual(t, tau, prev+1e-12, "v=%g", v)
		prev = tau
	}
}

func TestToleranceContinuousAtBreakpoints(t *testing.T) {
	const eps = 1e-9
	for _, bp := range []float64{0, 5, 10} {
		assert.InDelta(t, Tolerance(bp), Tolerance(bp+eps), 1e-6, "right of %g", bp)
		assert.InDelta(t, Tolerance(bp), Tolerance(bp-eps), 1e-6, "left of %g", bp)
	}
}

func TestWithinTolerance(t *testing.T) {
	assert.False(t, WithinTolerance(3, 7))
	assert.True(t, WithinTolerance(-2.5, 7))
	assert.True(t, WithinTolerance(2, 20))
	assert.False(t, WithinTolerance(2.01, 20))
}
