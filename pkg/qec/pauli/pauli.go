// Package pauli implements Pauli operators in binary symplectic form.
//
// An operator on n qubits is stored as a length-2n bit vector over GF(2):
// the first n bits flag X components, the last n bits flag Z components.
// A Y component sets both bits. Composition of operators is bitwise xor,
// and commutation is decided by the binary symplectic product.
package pauli

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrLengthMismatch is returned when two operators act on different numbers
// of qubits.
var ErrLengthMismatch = errors.New("operators act on different numbers of qubits")

// BSF is a Pauli operator in binary symplectic form.
type BSF []uint8

// New returns the identity operator on n qubits.
func New(n int) BSF {
	return make(BSF, 2*n)
}

// FromString parses an operator given as a string of I, X, Y and Z runes.
func FromString(s string) (BSF, error) {
	n := len(s)
	b := New(n)
	for i, r := range s {
		switch r {
		case 'I':
		case 'X':
			b[i] = 1
		case 'Z':
			b[n+i] = 1
		case 'Y':
			b[i] = 1
			b[n+i] = 1
		default:
			return nil, errors.Errorf("invalid pauli %q at site %d", r, i)
		}
	}
	return b, nil
}

// N returns the number of qubits the operator acts on.
func (b BSF) N() int { return len(b) / 2 }

// Op returns the single-site operator at site i as 'I', 'X', 'Y' or 'Z'.
func (b BSF) Op(i int) byte {
	x, z := b[i], b[b.N()+i]
	switch {
	case x == 1 && z == 1:
		return 'Y'
	case x == 1:
		return 'X'
	case z == 1:
		return 'Z'
	}
	return 'I'
}

// Apply composes the single-site operator op onto site i.
func (b BSF) Apply(i int, op byte) {
	switch op {
	case 'X':
		b[i] ^= 1
	case 'Z':
		b[b.N()+i] ^= 1
	case 'Y':
		b[i] ^= 1
		b[b.N()+i] ^= 1
	}
}

// String renders the operator as a string of I, X, Y and Z runes.
func (b BSF) String() string {
	var sb strings.Builder
	n := b.N()
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(b.Op(i))
	}
	return sb.String()
}

// Copy returns an independent copy of the operator.
func (b BSF) Copy() BSF {
	c := make(BSF, len(b))
	copy(c, b)
	return c
}

// Equal reports whether two operators are identical.
func (b BSF) Equal(o BSF) bool {
	if len(b) != len(o) {
		return false
	}
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

// Weight returns the number of sites with a non-identity component.
func (b BSF) Weight() int {
	n := b.N()
	w := 0
	for i := 0; i < n; i++ {
		if b[i] == 1 || b[n+i] == 1 {
			w++
		}
	}
	return w
}

// Mul composes two operators, ignoring global phase.
func Mul(a, b BSF) (BSF, error) {
	if len(a) != len(b) {
		return nil, ErrLengthMismatch
	}
	c := make(BSF, len(a))
	for i := range a {
		c[i] = a[i] ^ b[i]
	}
	return c, nil
}

// Bsp returns the binary symplectic product of two operators: 0 if they
// commute, 1 if they anticommute.
func Bsp(a, b BSF) (uint8, error) {
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}
	n := len(a) / 2
	var acc uint8
	for i := 0; i < n; i++ {
		acc ^= a[i] & b[n+i]
		acc ^= a[n+i] & b[i]
	}
	return acc, nil
}

// BspRows returns the binary symplectic product of op against each row,
// e.g. the syndrome of an error against a list of stabilizers.
func BspRows(rows []BSF, op BSF) ([]uint8, error) {
	out := make([]uint8, len(rows))
	for i, row := range rows {
		v, err := Bsp(row, op)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		out[i] = v
	}
	return out, nil
}
