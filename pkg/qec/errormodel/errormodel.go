// Package errormodel implements independent identically distributed qubit
// error models.
package errormodel

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/Gurrzz/qec-bsc/pkg/qec"
	"github.com/Gurrzz/qec-bsc/pkg/qec/pauli"
)

// Errors returned for invalid parameters.
var (
	ErrProbabilityRange = errors.New("probability must be in [0, 1]")
	ErrBiasRange        = errors.New("bias must be greater than 0")
	ErrUnknownAxis      = errors.New("axis must be X, Y or Z")
)

// paulis orders the single-qubit operators the way probability
// distributions are reported: (I, X, Y, Z).
var paulis = [4]byte{'I', 'X', 'Y', 'Z'}

func checkProbability(p float64) error {
	if p < 0 || p > 1 {
		return errors.Wrapf(ErrProbabilityRange, "probability %g", p)
	}
	return nil
}

// generate samples an error on every qubit of the code from the given
// single-qubit distribution.
func generate(code qec.Code, dist [4]float64, rng *rand.Rand) pauli.BSF {
	n, _, _ := code.NKD()
	err := pauli.New(n)
	for i := 0; i < n; i++ {
		err.Apply(i, samplePauli(dist, rng))
	}
	return err
}

func samplePauli(dist [4]float64, rng *rand.Rand) byte {
	r := rng.Float64()
	acc := 0.0
	for i, p := range dist {
		acc += p
		if r < acc {
			return paulis[i]
		}
	}
	// guard against accumulated rounding below 1
	return paulis[3]
}
