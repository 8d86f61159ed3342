package rotatedplanar

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/Gurrzz/qec-bsc/pkg/qec"
	"github.com/Gurrzz/qec-bsc/pkg/qec/errormodel"
	"github.com/Gurrzz/qec-bsc/pkg/qec/pauli"
	"github.com/Gurrzz/qec-bsc/pkg/tensor"
)

// Mode selects the contraction direction of the RMPS decoder.
type Mode byte

const (
	// ModeColumns contracts the network column by column, truncating
	// vertical links.
	ModeColumns Mode = 'c'
	// ModeRows contracts the transposed network, truncating horizontal
	// links.
	ModeRows Mode = 'r'
	// ModeAverage contracts both ways and averages the coset
	// probabilities.
	ModeAverage Mode = 'a'
)

// Decoder errors.
var (
	ErrUnknownMode = errors.New("unknown contraction mode")
	ErrWrongCode   = errors.New("decoder requires a rotated planar G81 code")
)

// RMPSDecoder decodes syndromes of the G81 code with a rotated matrix
// product state tensor network.
//
// A sample recovery consistent with the syndrome is found by applying paths
// of operators from each syndrome plaquette to an appropriate boundary. The
// probability of each coset of the stabilizer group with respect to the
// sample (and the sample composed with the logical operators) is found by
// contracting the rotated tensor network, truncated to bond dimension chi; a
// representative of the most probable coset is returned.
type RMPSDecoder struct {
	model Model
	p     float64
	chi   int
	mode  Mode
	tol   float64
}

// Model is the part of the error model the decoder consumes.
type Model interface {
	ProbabilityDistribution(p float64) ([4]float64, error)
}

var _ qec.Decoder = (*RMPSDecoder)(nil)

// DecoderOption configures an RMPSDecoder.
type DecoderOption func(d *RMPSDecoder)

// WithChi truncates the MPS bond dimension to chi after each contracted
// column or row. chi <= 0 contracts exactly, which is exponentially slow in
// the lattice size.
func WithChi(chi int) DecoderOption {
	return func(d *RMPSDecoder) {
		d.chi = chi
	}
}

// WithMode sets the contraction mode.
func WithMode(mode Mode) DecoderOption {
	return func(d *RMPSDecoder) {
		d.mode = mode
	}
}

// WithTolerance drops singular values below tol relative to the largest,
// regardless of chi.
func WithTolerance(tol float64) DecoderOption {
	return func(d *RMPSDecoder) {
		d.tol = tol
	}
}

// WithErrorModel sets the error model and probability defining the qubit
// probability distribution the network is built from.
func WithErrorModel(model Model, p float64) DecoderOption {
	return func(d *RMPSDecoder) {
		d.model = model
		d.p = p
	}
}

// NewRMPSDecoder returns an RMPS decoder. By default it contracts by
// columns without truncation, assuming depolarizing noise at probability
// 0.1.
func NewRMPSDecoder(opts ...DecoderOption) (*RMPSDecoder, error) {
	d := &RMPSDecoder{
		model: errormodel.NewDepolarizing(),
		p:     0.1,
		mode:  ModeColumns,
	}
	for _, opt := range opts {
		opt(d)
	}
	switch d.mode {
	case ModeColumns, ModeRows, ModeAverage:
	default:
		return nil, errors.Wrapf(ErrUnknownMode, "mode %q", d.mode)
	}
	return d, nil
}

// Label describes the decoder for run records.
func (d *RMPSDecoder) Label() string {
	parts := []string{}
	if d.chi > 0 {
		parts = append(parts, fmt.Sprintf("chi=%d", d.chi))
	}
	parts = append(parts, fmt.Sprintf("mode=%c", d.mode))
	if d.tol > 0 {
		parts = append(parts, fmt.Sprintf("tol=%g", d.tol))
	}
	return fmt.Sprintf("Rotated planar XZ RMPS (%s)", strings.Join(parts, ", "))
}

// SampleRecovery returns an operator consistent with the syndrome, built by
// applying a path of operators from each syndrome plaquette to a boundary.
// ZX-type plaquettes take a relabelled X-path leftward along a row; XZ-type
// plaquettes take a Z-path downward along an even column.
func (d *RMPSDecoder) SampleRecovery(code *Code, syndrome []uint8) (*LatticePauli, error) {
	recovery := code.NewPauli()
	indices, err := code.SyndromeToPlaquetteIndices(syndrome)
	if err != nil {
		return nil, errors.Wrap(err, "resolve syndrome")
	}

	for _, plaq := range indices {
		if IsZXType(plaq) {
			// even row plaquettes path along their own row, odd row
			// plaquettes along the row above
			row := plaq.Y
			if mod2(plaq.Y) != 0 {
				row = plaq.Y + 1
			}
			for x := plaq.X; x >= 0; x-- {
				recovery.Site(columnOp('X', x), Index{x, row})
			}
		} else {
			// Z-path down an even column to the bottom boundary
			col := plaq.X
			if mod2(plaq.X) != 0 {
				col = plaq.X + 1
			}
			for y := 0; y <= plaq.Y; y++ {
				recovery.Site('Z', Index{col, y})
			}
		}
	}
	return recovery, nil
}

// Decode returns a sample of the most probable coset as a recovery
// operation.
func (d *RMPSDecoder) Decode(ctx context.Context, code qec.Code, syndrome []uint8) (pauli.BSF, error) {
	g81, ok := code.(*Code)
	if !ok {
		return nil, errors.Wrapf(ErrWrongCode, "got %T", code)
	}

	sample, err := d.SampleRecovery(g81, syndrome)
	if err != nil {
		return nil, err
	}

	dist, err := d.model.ProbabilityDistribution(d.p)
	if err != nil {
		return nil, errors.Wrap(err, "probability distribution")
	}

	cosetPs, recoveries, err := d.CosetProbabilities(ctx, dist, sample)
	if err != nil {
		return nil, err
	}

	best := 0
	for i := 1; i < len(cosetPs); i++ {
		if cosetPs[i].Cmp(cosetPs[best]) > 0 {
			best = i
		}
	}
	return recoveries[best].BSF(), nil
}

// CosetProbabilities contracts the tensor network for the cosets of the
// sample with respect to I, logical X, logical Y and logical Z, in that
// order, returning the coset probabilities and their representatives.
func (d *RMPSDecoder) CosetProbabilities(
	ctx context.Context, dist [4]float64, sample *LatticePauli,
) ([4]tensor.Scaled, [4]*LatticePauli, error) {
	recoveries := [4]*LatticePauli{
		sample.Copy(),
		sample.Copy().LogicalX(),
		sample.Copy().LogicalX().LogicalZ(),
		sample.Copy().LogicalZ(),
	}

	var probabilities [4]tensor.Scaled
	for i, recovery := range recoveries {
		if err := ctx.Err(); err != nil {
			return probabilities, recoveries, errors.Wrap(err, "coset contraction")
		}

		tn, err := buildNetwork(recovery, dist)
		if err != nil {
			return probabilities, recoveries, errors.Wrapf(err, "coset %d", i)
		}

		var byColumns, byRows tensor.Scaled
		if d.mode == ModeColumns || d.mode == ModeAverage {
			byColumns, err = tensor.ContractNetwork(tn, d.chi, d.tol)
			if err != nil {
				return probabilities, recoveries, errors.Wrapf(err, "coset %d columns", i)
			}
		}
		if d.mode == ModeRows || d.mode == ModeAverage {
			transposed, terr := tensor.TransposeNetwork(tn)
			if terr != nil {
				return probabilities, recoveries, errors.Wrapf(terr, "coset %d", i)
			}
			byRows, err = tensor.ContractNetwork(transposed, d.chi, d.tol)
			if err != nil {
				return probabilities, recoveries, errors.Wrapf(err, "coset %d rows", i)
			}
		}

		switch d.mode {
		case ModeColumns:
			probabilities[i] = byColumns
		case ModeRows:
			probabilities[i] = byRows
		case ModeAverage:
			probabilities[i] = tensor.AvgScaled(byColumns, byRows)
		}
	}
	return probabilities, recoveries, nil
}
