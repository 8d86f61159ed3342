package pauli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	tcs := map[string]struct {
		in      string
		weight  int
		wantErr bool
	}{
		"identity":   {in: "III", weight: 0},
		"single x":   {in: "XII", weight: 1},
		"mixed":      {in: "XIZY", weight: 3},
		"empty":      {in: "", weight: 0},
		"invalid op": {in: "XQZ", wantErr: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			b, err := FromString(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.in, b.String())
			assert.Equal(t, tc.weight, b.Weight())
		})
	}
}

func TestApply(t *testing.T) {
	b := New(3)
	b.Apply(0, 'X')
	b.Apply(1, 'Z')
	b.Apply(2, 'X')
	b.Apply(2, 'Z')
	assert.Equal(t, "XZY", b.String())

	// applying the same operator twice cancels
	b.Apply(0, 'X')
	b.Apply(1, 'Z')
	b.Apply(2, 'Y')
	assert.Equal(t, "III", b.String())
}

func TestMul(t *testing.T) {
	a, err := FromString("XXI")
	require.NoError(t, err)
	b, err := FromString("IXZ")
	require.NoError(t, err)

	c, err := Mul(a, b)
	require.NoError(t, err)
	assert.Equal(t, "XIZ", c.String())

	// composing with itself gives identity
	d, err := Mul(c, c)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Weight())

	_, err = Mul(a, New(5))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestBsp(t *testing.T) {
	tcs := map[string]struct {
		a, b string
		want uint8
	}{
		"commuting identity":    {a: "II", b: "XZ", want: 0},
		"anticommuting xz":      {a: "XI", b: "ZI", want: 1},
		"commuting xx zz":       {a: "XX", b: "ZZ", want: 0},
		"anticommuting y and x": {a: "YI", b: "XI", want: 1},
		"same op commutes":      {a: "XZ", b: "XZ", want: 0},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			a, err := FromString(tc.a)
			require.NoError(t, err)
			b, err := FromString(tc.b)
			require.NoError(t, err)

			got, err := Bsp(a, b)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			// bsp is symmetric
			sym, err := Bsp(b, a)
			require.NoError(t, err)
			assert.Equal(t, got, sym)
		})
	}
}

func TestBspRows(t *testing.T) {
	zz, err := FromString("ZZI")
	require.NoError(t, err)
	iz, err := FromString("IZZ")
	require.NoError(t, err)
	x, err := FromString("IXI")
	require.NoError(t, err)

	syndrome, err := BspRows([]BSF{zz, iz}, x)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 1}, syndrome)
}
