package errormodel

import (
	"math/rand"

	"github.com/Gurrzz/qec-bsc/pkg/qec"
	"github.com/Gurrzz/qec-bsc/pkg/qec/pauli"
)

// Depolarizing is the standard depolarizing error model: X, Y and Z errors
// are equally likely.
type Depolarizing struct{}

var _ qec.ErrorModel = (*Depolarizing)(nil)

// NewDepolarizing returns a depolarizing error model.
func NewDepolarizing() *Depolarizing { return &Depolarizing{} }

// ProbabilityDistribution returns (1-p, p/3, p/3, p/3).
func (m *Depolarizing) ProbabilityDistribution(p float64) ([4]float64, error) {
	if err := checkProbability(p); err != nil {
		return [4]float64{}, err
	}
	third := p / 3
	return [4]float64{1 - p, third, third, third}, nil
}

// Generate samples an iid depolarizing error on the code.
func (m *Depolarizing) Generate(code qec.Code, p float64, rng *rand.Rand) (pauli.BSF, error) {
	dist, err := m.ProbabilityDistribution(p)
	if err != nil {
		return nil, err
	}
	return generate(code, dist, rng), nil
}

// Label describes the error model for run records.
func (m *Depolarizing) Label() string { return "Depolarizing" }
