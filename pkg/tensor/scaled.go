package tensor

import (
	"math"
	"math/big"
)

// Scaled is a float64 mantissa with a separate base-2 exponent, representing
// M * 2^E. Coset probabilities of large lattices underflow float64; carrying
// the exponent separately keeps comparison and averaging exact.
type Scaled struct {
	M float64
	E int
}

// NewScaled returns a normalized Scaled value equal to f.
func NewScaled(f float64) Scaled {
	return Scaled{M: f}.normalize()
}

func (s Scaled) normalize() Scaled {
	if s.M == 0 || math.IsInf(s.M, 0) || math.IsNaN(s.M) {
		return Scaled{M: s.M}
	}
	frac, exp := math.Frexp(s.M)
	return Scaled{M: frac, E: s.E + exp}
}

// MulFloat returns s scaled by f.
func (s Scaled) MulFloat(f float64) Scaled {
	return Scaled{M: s.M * f, E: s.E}.normalize()
}

// Ldexp returns s scaled by 2^e.
func (s Scaled) Ldexp(e int) Scaled {
	return Scaled{M: s.M, E: s.E + e}
}

// Float64 collapses the value to a float64, which may underflow to zero or
// overflow to infinity.
func (s Scaled) Float64() float64 {
	return math.Ldexp(s.M, s.E)
}

// Big returns the value as an arbitrary-precision float. M need not be
// normalized.
func (s Scaled) Big() *big.Float {
	f := new(big.Float).SetFloat64(s.M)
	if s.M == 0 {
		return f
	}
	mant := new(big.Float)
	exp := f.MantExp(mant)
	return f.SetMantExp(mant, exp+s.E)
}

// Cmp compares two values: -1 if s < o, 0 if equal, 1 if s > o.
func (s Scaled) Cmp(o Scaled) int {
	return s.Big().Cmp(o.Big())
}

// AvgScaled returns the mean of the given values, computed in arbitrary
// precision so widely separated exponents do not swamp each other.
func AvgScaled(values ...Scaled) Scaled {
	if len(values) == 0 {
		return Scaled{}
	}
	sum := new(big.Float)
	for _, v := range values {
		sum.Add(sum, v.Big())
	}
	sum.Quo(sum, big.NewFloat(float64(len(values))))
	if sum.Sign() == 0 {
		return Scaled{}
	}
	mant := new(big.Float)
	exp := sum.MantExp(mant)
	m, _ := mant.Float64()
	return Scaled{M: m, E: exp}.normalize()
}
