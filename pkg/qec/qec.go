// Package qec defines the contracts between stabilizer codes, error models
// and decoders, together with helpers shared by all implementations.
package qec

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/Gurrzz/qec-bsc/pkg/qec/pauli"
)

// Code is a stabilizer code together with a canonical ordering of its
// stabilizer generators and logical operators.
type Code interface {
	// NKD returns the number of physical qubits, logical qubits and the
	// code distance.
	NKD() (n, k, d int)
	// Stabilizers returns the stabilizer generators in canonical order.
	// The i-th syndrome bit corresponds to the i-th generator.
	Stabilizers() []pauli.BSF
	// Logicals returns the logical operators, X-type first then Z-type.
	Logicals() []pauli.BSF
	// Label describes the code for run records.
	Label() string
}

// ErrorModel generates errors on the physical qubits of a code.
type ErrorModel interface {
	// ProbabilityDistribution returns (Pr(I), Pr(X), Pr(Y), Pr(Z)) for a
	// single qubit at error probability p.
	ProbabilityDistribution(p float64) ([4]float64, error)
	// Generate samples an error on every qubit of the code.
	Generate(code Code, p float64, rng *rand.Rand) (pauli.BSF, error)
	// Label describes the error model for run records.
	Label() string
}

// Decoder resolves a syndrome to a recovery operation.
type Decoder interface {
	// Decode returns a recovery operation whose syndrome matches the given
	// syndrome.
	Decode(ctx context.Context, code Code, syndrome []uint8) (pauli.BSF, error)
	// Label describes the decoder for run records.
	Label() string
}

// Syndrome returns the syndrome of an error against the code's stabilizers.
func Syndrome(code Code, err pauli.BSF) ([]uint8, error) {
	return pauli.BspRows(code.Stabilizers(), err)
}

// Validate checks the defining properties of a stabilizer code: stabilizers
// mutually commute, logicals commute with all stabilizers, and the logical
// X/Z pairs anticommute with each other.
func Validate(code Code) error {
	stabilizers := code.Stabilizers()
	for i, a := range stabilizers {
		for j := i + 1; j < len(stabilizers); j++ {
			v, err := pauli.Bsp(a, stabilizers[j])
			if err != nil {
				return errors.Wrap(err, "stabilizer product")
			}
			if v != 0 {
				return errors.Errorf("stabilizers %d and %d anticommute", i, j)
			}
		}
	}

	logicals := code.Logicals()
	for i, l := range logicals {
		for j, s := range stabilizers {
			v, err := pauli.Bsp(l, s)
			if err != nil {
				return errors.Wrap(err, "logical stabilizer product")
			}
			if v != 0 {
				return errors.Errorf("logical %d anticommutes with stabilizer %d", i, j)
			}
		}
	}

	// logicals come in X/Z pairs; each pair must anticommute
	if len(logicals)%2 != 0 {
		return errors.Errorf("odd number of logical operators: %d", len(logicals))
	}
	half := len(logicals) / 2
	for i := 0; i < half; i++ {
		v, err := pauli.Bsp(logicals[i], logicals[half+i])
		if err != nil {
			return errors.Wrap(err, "logical pair product")
		}
		if v != 1 {
			return errors.Errorf("logical pair %d commutes", i)
		}
	}

	return nil
}
