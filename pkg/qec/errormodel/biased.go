package errormodel

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/Gurrzz/qec-bsc/pkg/qec"
	"github.com/Gurrzz/qec-bsc/pkg/qec/pauli"
)

// Axis selects the high-rate error axis of a biased model.
type Axis byte

// High-rate axes.
const (
	AxisX Axis = 'X'
	AxisY Axis = 'Y'
	AxisZ Axis = 'Z'
)

// BiasedDepolarizing is a depolarizing model with one Pauli axis occurring
// at a higher rate. The bias eta is the ratio of the high-rate probability
// to the summed low-rate probabilities: eta = 0.5 recovers standard
// depolarizing noise, eta -> infinity a pure dephasing channel on the axis.
type BiasedDepolarizing struct {
	bias float64
	axis Axis
}

var _ qec.ErrorModel = (*BiasedDepolarizing)(nil)

// NewBiasedDepolarizing returns a biased depolarizing error model with bias
// eta > 0 on the given axis.
func NewBiasedDepolarizing(bias float64, axis Axis) (*BiasedDepolarizing, error) {
	if !(bias > 0) {
		return nil, errors.Wrapf(ErrBiasRange, "bias %g", bias)
	}
	switch axis {
	case AxisX, AxisY, AxisZ:
	default:
		return nil, errors.Wrapf(ErrUnknownAxis, "axis %q", axis)
	}
	return &BiasedDepolarizing{bias: bias, axis: axis}, nil
}

// Bias returns the bias eta.
func (m *BiasedDepolarizing) Bias() float64 { return m.bias }

// Axis returns the high-rate axis.
func (m *BiasedDepolarizing) Axis() Axis { return m.axis }

// ProbabilityDistribution returns the distribution with the high-rate axis
// at p*eta/(eta+1) and each low-rate axis at p/(2*(eta+1)).
func (m *BiasedDepolarizing) ProbabilityDistribution(p float64) ([4]float64, error) {
	if err := checkProbability(p); err != nil {
		return [4]float64{}, err
	}
	high := p * m.bias / (m.bias + 1)
	low := p / (2 * (m.bias + 1))
	dist := [4]float64{1 - p, low, low, low}
	switch m.axis {
	case AxisX:
		dist[1] = high
	case AxisY:
		dist[2] = high
	case AxisZ:
		dist[3] = high
	}
	return dist, nil
}

// Generate samples an iid biased depolarizing error on the code.
func (m *BiasedDepolarizing) Generate(code qec.Code, p float64, rng *rand.Rand) (pauli.BSF, error) {
	dist, err := m.ProbabilityDistribution(p)
	if err != nil {
		return nil, err
	}
	return generate(code, dist, rng), nil
}

// Label describes the error model for run records.
func (m *BiasedDepolarizing) Label() string {
	return fmt.Sprintf("Biased-depolarizing (bias=%g, axis='%c')", m.bias, m.axis)
}
