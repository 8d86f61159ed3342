package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaledRoundtrip(t *testing.T) {
	tcs := map[string]float64{
		"zero":     0,
		"one":      1,
		"negative": -0.375,
		"small":    3.5e-200,
		"large":    1.25e250,
	}
	for name, f := range tcs {
		t.Run(name, func(t *testing.T) {
			s := NewScaled(f)
			assert.Equal(t, f, s.Float64())
		})
	}
}

func TestScaledUnderflowSurvives(t *testing.T) {
	// repeated scaling far below float64 range keeps ordering information
	a := NewScaled(0.5).Ldexp(-5000)
	b := NewScaled(0.25).Ldexp(-5000)
	assert.Equal(t, 0.0, a.Float64())
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(a))
}

func TestScaledBigUnnormalized(t *testing.T) {
	// Big must honour M * 2^E even when |M| is outside [0.5, 1)
	s := Scaled{M: 6, E: 3}
	got, _ := s.Big().Float64()
	assert.Equal(t, 48.0, got)
	assert.Equal(t, 0, s.Cmp(NewScaled(48)))

	n := Scaled{M: -3, E: -1}
	got, _ = n.Big().Float64()
	assert.Equal(t, -1.5, got)
}

func TestScaledMulFloat(t *testing.T) {
	s := NewScaled(3).MulFloat(0.5)
	assert.Equal(t, 1.5, s.Float64())

	z := NewScaled(1).MulFloat(0)
	assert.Equal(t, 0.0, z.Float64())
}

func TestAvgScaled(t *testing.T) {
	got := AvgScaled(NewScaled(2), NewScaled(4))
	assert.InDelta(t, 3, got.Float64(), 1e-15)

	// averaging across wildly separated exponents keeps the larger term
	big := NewScaled(1).Ldexp(-100)
	tiny := NewScaled(1).Ldexp(-4000)
	avg := AvgScaled(big, tiny)
	assert.InDelta(t, math.Ldexp(0.5, -100), avg.Float64(), 1e-45)

	assert.Equal(t, 0.0, AvgScaled().Float64())
	assert.Equal(t, 0.0, AvgScaled(NewScaled(1), NewScaled(-1)).Float64())
}
