package errormodel_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gurrzz/qec-bsc/pkg/qec/errormodel"
	"github.com/Gurrzz/qec-bsc/pkg/qec/rotatedplanar"
)

func TestDepolarizingDistribution(t *testing.T) {
	model := errormodel.NewDepolarizing()

	tcs := map[string]struct {
		p       float64
		want    [4]float64
		wantErr error
	}{
		"no errors":   {p: 0, want: [4]float64{1, 0, 0, 0}},
		"low":         {p: 0.1, want: [4]float64{0.9, 0.1 / 3, 0.1 / 3, 0.1 / 3}},
		"maximal":     {p: 1, want: [4]float64{0, 1.0 / 3, 1.0 / 3, 1.0 / 3}},
		"negative":    {p: -0.1, wantErr: errormodel.ErrProbabilityRange},
		"above unity": {p: 1.5, wantErr: errormodel.ErrProbabilityRange},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			dist, err := model.ProbabilityDistribution(tc.p)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			for i := range tc.want {
				assert.InDelta(t, tc.want[i], dist[i], 1e-15, "op %d", i)
			}
		})
	}
}

func TestBiasedDepolarizingDistribution(t *testing.T) {
	tcs := map[string]struct {
		bias    float64
		axis    errormodel.Axis
		wantErr error
	}{
		"z biased":     {bias: 30, axis: errormodel.AxisZ},
		"x biased":     {bias: 10, axis: errormodel.AxisX},
		"y biased":     {bias: 100, axis: errormodel.AxisY},
		"unbiased":     {bias: 0.5, axis: errormodel.AxisZ},
		"zero bias":    {bias: 0, axis: errormodel.AxisZ, wantErr: errormodel.ErrBiasRange},
		"negative":     {bias: -3, axis: errormodel.AxisZ, wantErr: errormodel.ErrBiasRange},
		"unknown axis": {bias: 30, axis: errormodel.Axis('q'), wantErr: errormodel.ErrUnknownAxis},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			model, err := errormodel.NewBiasedDepolarizing(tc.bias, tc.axis)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)

			p := 0.2
			dist, err := model.ProbabilityDistribution(p)
			require.NoError(t, err)

			// probabilities sum to one and the biased axis carries
			// bias times either other axis
			sum := dist[0] + dist[1] + dist[2] + dist[3]
			assert.InDelta(t, 1.0, sum, 1e-15)

			biased := map[errormodel.Axis]int{
				errormodel.AxisX: 1,
				errormodel.AxisY: 2,
				errormodel.AxisZ: 3,
			}[tc.axis]
			for i := 1; i < 4; i++ {
				if i == biased {
					continue
				}
				assert.InDelta(t, tc.bias*dist[i], dist[biased], 1e-15, "op %d", i)
			}
		})
	}
}

func TestBiasedDepolarizingReducesToDepolarizing(t *testing.T) {
	// bias 1/2 spreads the probability evenly over X, Y and Z
	model, err := errormodel.NewBiasedDepolarizing(0.5, errormodel.AxisZ)
	require.NoError(t, err)
	dist, err := model.ProbabilityDistribution(0.3)
	require.NoError(t, err)

	want, err := errormodel.NewDepolarizing().ProbabilityDistribution(0.3)
	require.NoError(t, err)
	for i := range want {
		assert.InDelta(t, want[i], dist[i], 1e-15, "op %d", i)
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Depolarizing", errormodel.NewDepolarizing().Label())

	model, err := errormodel.NewBiasedDepolarizing(30, errormodel.AxisZ)
	require.NoError(t, err)
	assert.Equal(t, "Biased-depolarizing (bias=30, axis='Z')", model.Label())
}

func TestGenerate(t *testing.T) {
	code, err := rotatedplanar.New(5)
	require.NoError(t, err)
	n, _, _ := code.NKD()
	model := errormodel.NewDepolarizing()

	t.Run("deterministic for a seed", func(t *testing.T) {
		a, err := model.Generate(code, 0.2, rand.New(rand.NewSource(42)))
		require.NoError(t, err)
		b, err := model.Generate(code, 0.2, rand.New(rand.NewSource(42)))
		require.NoError(t, err)
		assert.True(t, a.Equal(b))
	})

	t.Run("acts on every qubit", func(t *testing.T) {
		errOp, err := model.Generate(code, 0.2, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		assert.Equal(t, n, errOp.N())
	})

	t.Run("zero probability is the identity", func(t *testing.T) {
		errOp, err := model.Generate(code, 0, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		assert.Zero(t, errOp.Weight())
	})

	t.Run("unit probability flips every qubit", func(t *testing.T) {
		errOp, err := model.Generate(code, 1, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		assert.Equal(t, n, errOp.Weight())
	})

	t.Run("weight tracks the probability", func(t *testing.T) {
		rng := rand.New(rand.NewSource(99))
		total := 0
		trials := 200
		for i := 0; i < trials; i++ {
			errOp, err := model.Generate(code, 0.15, rng)
			require.NoError(t, err)
			total += errOp.Weight()
		}
		mean := float64(total) / float64(trials)
		assert.InDelta(t, 0.15*float64(n), mean, 0.5)
	})

	t.Run("invalid probability", func(t *testing.T) {
		_, err := model.Generate(code, 2, rand.New(rand.NewSource(1)))
		assert.ErrorIs(t, err, errormodel.ErrProbabilityRange)
	})
}
