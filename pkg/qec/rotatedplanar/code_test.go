package rotatedplanar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gurrzz/qec-bsc/pkg/qec"
)

func TestNew(t *testing.T) {
	tcs := map[string]struct {
		distance int
		wantErr  error
	}{
		"distance 3":  {distance: 3},
		"distance 5":  {distance: 5},
		"distance 7":  {distance: 7},
		"too small":   {distance: 1, wantErr: ErrDistanceTooSmall},
		"negative":    {distance: -3, wantErr: ErrDistanceTooSmall},
		"even":        {distance: 4, wantErr: ErrDistanceEven},
		"even larger": {distance: 10, wantErr: ErrDistanceEven},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			code, err := New(tc.distance)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)

			n, k, d := code.NKD()
			assert.Equal(t, tc.distance*tc.distance, n)
			assert.Equal(t, 1, k)
			assert.Equal(t, tc.distance, d)
			assert.Len(t, code.Stabilizers(), n-1)
			assert.Len(t, code.Logicals(), 2)
		})
	}
}

func TestValidate(t *testing.T) {
	for _, distance := range []int{3, 5, 7} {
		code, err := New(distance)
		require.NoError(t, err)
		assert.NoError(t, qec.Validate(code), "distance %d", distance)
	}
}

func TestLabel(t *testing.T) {
	code, err := New(5)
	require.NoError(t, err)
	assert.Equal(t, "Rotated planar XZ 5", code.Label())
}

func TestIsVirtualPlaquette(t *testing.T) {
	code, err := New(3)
	require.NoError(t, err)

	real := map[Index]struct{}{}
	for _, i := range code.PlaquetteIndices() {
		real[i] = struct{}{}
	}

	// the real rim stabilizers of the distance-3 lattice
	wantRim := []Index{{-1, 0}, {2, 1}, {1, -1}, {0, 2}}
	for _, i := range wantRim {
		assert.Contains(t, real, i)
		assert.False(t, code.IsVirtualPlaquette(i), "%v", i)
	}

	// corners and the remaining rim plaquettes carry no stabilizer
	wantVirtual := []Index{
		{-1, -1}, {-1, 1}, {-1, 2}, {2, -1}, {2, 0}, {2, 2}, {0, -1}, {1, 2},
	}
	for _, i := range wantVirtual {
		assert.NotContains(t, real, i)
		assert.True(t, code.IsVirtualPlaquette(i), "%v", i)
	}

	// bulk plaquettes all carry stabilizers
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			assert.Contains(t, real, Index{x, y})
		}
	}
}

// operatorAt renders the operator a lattice pauli applies at a site.
func operatorAt(t *testing.T, p *LatticePauli, x, y int) byte {
	t.Helper()
	return p.Operator(Index{x, y})
}

func TestPlaquetteOperators(t *testing.T) {
	code, err := New(3)
	require.NoError(t, err)

	t.Run("zx even column", func(t *testing.T) {
		p := code.NewPauli().Plaquette(Index{0, 0})
		assert.Equal(t, byte('Z'), operatorAt(t, p, 0, 0))
		assert.Equal(t, byte('Z'), operatorAt(t, p, 0, 1))
		assert.Equal(t, byte('X'), operatorAt(t, p, 1, 1))
		assert.Equal(t, byte('X'), operatorAt(t, p, 1, 0))
		assert.Equal(t, 4, p.BSF().Weight())
	})

	t.Run("zx odd column swaps letters", func(t *testing.T) {
		p := code.NewPauli().Plaquette(Index{1, 1})
		assert.Equal(t, byte('X'), operatorAt(t, p, 1, 1))
		assert.Equal(t, byte('X'), operatorAt(t, p, 1, 2))
		assert.Equal(t, byte('Z'), operatorAt(t, p, 2, 2))
		assert.Equal(t, byte('Z'), operatorAt(t, p, 2, 1))
	})

	t.Run("xz even column", func(t *testing.T) {
		p := code.NewPauli().Plaquette(Index{0, 1})
		assert.Equal(t, byte('X'), operatorAt(t, p, 0, 1))
		assert.Equal(t, byte('X'), operatorAt(t, p, 0, 2))
		assert.Equal(t, byte('Z'), operatorAt(t, p, 1, 2))
		assert.Equal(t, byte('Z'), operatorAt(t, p, 1, 1))
	})

	t.Run("xz odd column swaps letters", func(t *testing.T) {
		p := code.NewPauli().Plaquette(Index{1, 0})
		assert.Equal(t, byte('Z'), operatorAt(t, p, 1, 0))
		assert.Equal(t, byte('Z'), operatorAt(t, p, 1, 1))
		assert.Equal(t, byte('X'), operatorAt(t, p, 2, 1))
		assert.Equal(t, byte('X'), operatorAt(t, p, 2, 0))
	})

	t.Run("rim plaquette acts on two sites", func(t *testing.T) {
		p := code.NewPauli().Plaquette(Index{-1, 0})
		assert.Equal(t, 2, p.BSF().Weight())
		assert.Equal(t, byte('X'), operatorAt(t, p, 0, 1))
		assert.Equal(t, byte('X'), operatorAt(t, p, 0, 0))
	})

	t.Run("out of bounds is a no-op", func(t *testing.T) {
		p := code.NewPauli().Plaquette(Index{-2, 0}).Plaquette(Index{5, 5})
		assert.Equal(t, 0, p.BSF().Weight())
	})
}

func TestLogicalOperators(t *testing.T) {
	code, err := New(3)
	require.NoError(t, err)

	// bottom row alternates X and Z starting with X
	lx := code.NewPauli().LogicalX()
	assert.Equal(t, "XZXIIIIII", lx.BSF().String())

	// rightmost column is all Z
	lz := code.NewPauli().LogicalZ()
	assert.Equal(t, "IIZIIZIIZ", lz.BSF().String())
}

func TestSyndromeToPlaquetteIndices(t *testing.T) {
	code, err := New(3)
	require.NoError(t, err)
	stabilizers := code.Stabilizers()

	syndrome := make([]uint8, len(stabilizers))
	syndrome[0] = 1
	syndrome[3] = 1

	indices, err := code.SyndromeToPlaquetteIndices(syndrome)
	require.NoError(t, err)
	assert.Equal(t, []Index{
		code.PlaquetteIndices()[0],
		code.PlaquetteIndices()[3],
	}, indices)

	_, err = code.SyndromeToPlaquetteIndices(make([]uint8, 3))
	assert.ErrorIs(t, err, ErrSyndromeLength)
}

func TestStabilizerSyndromes(t *testing.T) {
	// the syndrome of a stabilizer itself is trivial
	code, err := New(5)
	require.NoError(t, err)
	for i, s := range code.Stabilizers() {
		syndrome, err := qec.Syndrome(code, s)
		require.NoError(t, err)
		for j, bit := range syndrome {
			assert.Zero(t, bit, "stabilizer %d excites plaquette %d", i, j)
		}
	}
}
