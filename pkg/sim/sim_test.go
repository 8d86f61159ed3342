package sim_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gurrzz/qec-bsc/pkg/qec"
	"github.com/Gurrzz/qec-bsc/pkg/qec/errormodel"
	"github.com/Gurrzz/qec-bsc/pkg/qec/pauli"
	"github.com/Gurrzz/qec-bsc/pkg/qec/rotatedplanar"
	"github.com/Gurrzz/qec-bsc/pkg/sim"
)

func newRunner(t *testing.T, distance int, p float64) *sim.Runner {
	t.Helper()
	code, err := rotatedplanar.New(distance)
	require.NoError(t, err)
	model := errormodel.NewDepolarizing()
	decoder, err := rotatedplanar.NewRMPSDecoder(rotatedplanar.WithErrorModel(model, p))
	require.NoError(t, err)

	return &sim.Runner{Code: code, Model: model, Decoder: decoder}
}

func TestRunOnce(t *testing.T) {
	runner := newRunner(t, 3, 0.1)

	trial, err := runner.RunOnce(context.Background(), 0.1, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	assert.Len(t, trial.LogicalCommutations, 2)
	if trial.Success {
		assert.Equal(t, []uint8{0, 0}, trial.LogicalCommutations)
	}

	t.Run("zero probability always succeeds", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 5; i++ {
			trial, err := runner.RunOnce(context.Background(), 0, rng)
			require.NoError(t, err)
			assert.True(t, trial.Success)
			assert.Zero(t, trial.ErrorWeight)
		}
	})
}

// identityDecoder returns the identity recovery regardless of the syndrome.
type identityDecoder struct{}

func (identityDecoder) Decode(_ context.Context, code qec.Code, _ []uint8) (pauli.BSF, error) {
	n, _, _ := code.NKD()
	return pauli.New(n), nil
}

func (identityDecoder) Label() string { return "identity" }

func TestRunOnceRecoveryFailure(t *testing.T) {
	code, err := rotatedplanar.New(3)
	require.NoError(t, err)
	runner := &sim.Runner{
		Code:    code,
		Model:   errormodel.NewDepolarizing(),
		Decoder: identityDecoder{},
	}

	// at p=1 every qubit is hit, so the identity recovery leaves a
	// syndrome behind for any error outside the stabilizer-logical group
	rng := rand.New(rand.NewSource(1))
	sawFailure := false
	for i := 0; i < 10 && !sawFailure; i++ {
		_, err = runner.RunOnce(context.Background(), 1, rng)
		sawFailure = errors.Is(err, sim.ErrRecoveryFailed)
	}
	assert.True(t, sawFailure)
}

func TestRun(t *testing.T) {
	runner := newRunner(t, 3, 0.1)

	rec, err := runner.Run(context.Background(), sim.RunSpec{P: 0.1, MaxRuns: 20, Seed: 11})
	require.NoError(t, err)

	assert.Equal(t, "Rotated planar XZ 3", rec.Code)
	assert.Equal(t, [3]int{9, 1, 3}, rec.NKD)
	assert.Equal(t, "Depolarizing", rec.ErrorModel)
	assert.Equal(t, 20, rec.NRun)
	assert.Equal(t, rec.NRun, rec.NSuccess+rec.NFail)
	assert.Len(t, rec.NLogicalCommutations, 2)
	assert.InDelta(t, float64(rec.NFail)/20.0, rec.LogicalFailureRate, 1e-15)
	assert.Equal(t, int64(11), rec.Seed)
	assert.NotEmpty(t, rec.UUID)
	assert.GreaterOrEqual(t, rec.ErrorWeightPvar, 0.0)

	t.Run("deterministic per seed", func(t *testing.T) {
		again, err := runner.Run(context.Background(), sim.RunSpec{P: 0.1, MaxRuns: 20, Seed: 11})
		require.NoError(t, err)
		assert.Equal(t, rec.NFail, again.NFail)
		assert.Equal(t, rec.ErrorWeightTotal, again.ErrorWeightTotal)
		assert.Equal(t, rec.NLogicalCommutations, again.NLogicalCommutations)
	})

	t.Run("max failures stops early", func(t *testing.T) {
		rec, err := runner.Run(context.Background(), sim.RunSpec{P: 0.4, MaxRuns: 1000, MaxFailures: 3, Seed: 5})
		require.NoError(t, err)
		assert.Equal(t, 3, rec.NFail)
		assert.Less(t, rec.NRun, 1000)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := runner.Run(ctx, sim.RunSpec{P: 0.1, MaxRuns: 5, Seed: 1})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
