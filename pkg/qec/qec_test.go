package qec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gurrzz/qec-bsc/pkg/qec"
	"github.com/Gurrzz/qec-bsc/pkg/qec/pauli"
)

// fiveQubitCode is the [[5,1,3]] perfect code, small enough to hand check.
type fiveQubitCode struct {
	stabilizers []pauli.BSF
	logicals    []pauli.BSF
}

func newFiveQubitCode(t *testing.T) *fiveQubitCode {
	t.Helper()
	parse := func(s string) pauli.BSF {
		b, err := pauli.FromString(s)
		require.NoError(t, err)
		return b
	}
	return &fiveQubitCode{
		stabilizers: []pauli.BSF{
			parse("XZZXI"),
			parse("IXZZX"),
			parse("XIXZZ"),
			parse("ZXIXZ"),
		},
		logicals: []pauli.BSF{
			parse("XXXXX"),
			parse("ZZZZZ"),
		},
	}
}

func (c *fiveQubitCode) NKD() (int, int, int)     { return 5, 1, 3 }
func (c *fiveQubitCode) Stabilizers() []pauli.BSF { return c.stabilizers }
func (c *fiveQubitCode) Logicals() []pauli.BSF    { return c.logicals }
func (c *fiveQubitCode) Label() string            { return "5-qubit" }

func TestValidate(t *testing.T) {
	code := newFiveQubitCode(t)
	assert.NoError(t, qec.Validate(code))

	t.Run("anticommuting stabilizers", func(t *testing.T) {
		broken := newFiveQubitCode(t)
		x, err := pauli.FromString("XIIII")
		require.NoError(t, err)
		z, err := pauli.FromString("ZIIII")
		require.NoError(t, err)
		broken.stabilizers = []pauli.BSF{x, z}
		assert.Error(t, qec.Validate(broken))
	})

	t.Run("logical anticommutes with stabilizer", func(t *testing.T) {
		broken := newFiveQubitCode(t)
		l, err := pauli.FromString("XIIII")
		require.NoError(t, err)
		broken.logicals = []pauli.BSF{l, broken.logicals[1]}
		assert.Error(t, qec.Validate(broken))
	})

	t.Run("commuting logical pair", func(t *testing.T) {
		broken := newFiveQubitCode(t)
		broken.logicals = []pauli.BSF{broken.logicals[0], broken.logicals[0]}
		assert.Error(t, qec.Validate(broken))
	})
}

func TestSyndrome(t *testing.T) {
	code := newFiveQubitCode(t)

	t.Run("stabilizers have no syndrome", func(t *testing.T) {
		for _, s := range code.Stabilizers() {
			syndrome, err := qec.Syndrome(code, s)
			require.NoError(t, err)
			assert.Equal(t, []uint8{0, 0, 0, 0}, syndrome)
		}
	})

	t.Run("single error", func(t *testing.T) {
		// X on qubit 0 anticommutes with the stabilizers carrying a Z
		// there, i.e. the fourth generator only
		errOp, err := pauli.FromString("XIIII")
		require.NoError(t, err)
		syndrome, err := qec.Syndrome(code, errOp)
		require.NoError(t, err)
		assert.Equal(t, []uint8{0, 0, 0, 1}, syndrome)
	})

	t.Run("length mismatch", func(t *testing.T) {
		errOp, err := pauli.FromString("XII")
		require.NoError(t, err)
		_, err = qec.Syndrome(code, errOp)
		assert.ErrorIs(t, err, pauli.ErrLengthMismatch)
	})
}
