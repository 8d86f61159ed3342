// Package rotatedplanar implements the rotated planar G81 surface code, an
// XZXZ/ZXZX variant of the rotated planar code obtained by relabelling X and
// Z on every odd column of the lattice, together with a rotated matrix
// product state decoder specialised to its stabilizer layout.
//
// Indices are in the format (x, y). Qubit sites sit at integer coordinates
// with the origin at the lower left qubit. Stabilizer plaquettes are indexed
// by the site at their lower left corner; plaquettes with (x - y) mod 2 == 0
// descend from Z-plaquettes of the unrotated code, the others from
// X-plaquettes. After the column relabelling every plaquette acts with Z on
// its even-column sites and X on its odd-column sites (or vice versa),
// giving the mixed XZXZ/ZXZX patterns:
//
//	    -------
//	   /       \
//	  |Z (0,2) X|
//	  +---------+---------+-----
//	  |X       Z|X       Z|X    \
//	  |  (0,1)  |  (1,1)  |(2,1) |
//	  |X       Z|X       Z|X    /
//	--+---------+---------+-----
//	 X|Z       X|Z       X|
//	  |  (0,0)  |  (1,0)  |
//	 X|Z       X|Z       X|
//	--+---------+---------+
//	            |X       Z|
//	             \ (1,-1)/
//	              -------
package rotatedplanar

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/Gurrzz/qec-bsc/pkg/qec"
	"github.com/Gurrzz/qec-bsc/pkg/qec/pauli"
)

// MinDistance is the smallest supported code distance.
const MinDistance = 3

// Errors returned by New.
var (
	ErrDistanceTooSmall = errors.Errorf("distance must be at least %d", MinDistance)
	ErrDistanceEven     = errors.New("distance must be odd")
	ErrSyndromeLength   = errors.New("syndrome length does not match stabilizer count")
)

// Index identifies a qubit site or a stabilizer plaquette on the lattice.
type Index struct {
	X, Y int
}

// Code is a rotated planar G81 code of odd distance d on a d x d lattice.
type Code struct {
	distance    int
	plaquettes  []Index
	stabilizers []pauli.BSF
	logicals    []pauli.BSF
}

var _ qec.Code = (*Code)(nil)

// New returns a rotated planar G81 code with the given distance (odd, >= 3).
func New(distance int) (*Code, error) {
	if distance < MinDistance {
		return nil, errors.Wrapf(ErrDistanceTooSmall, "distance %d", distance)
	}
	if distance%2 == 0 {
		return nil, errors.Wrapf(ErrDistanceEven, "distance %d", distance)
	}

	c := &Code{distance: distance}
	for y := -1; y < distance; y++ {
		for x := -1; x < distance; x++ {
			index := Index{x, y}
			if c.IsInPlaquetteBounds(index) && !c.IsVirtualPlaquette(index) {
				c.plaquettes = append(c.plaquettes, index)
			}
		}
	}
	for _, index := range c.plaquettes {
		c.stabilizers = append(c.stabilizers, c.NewPauli().Plaquette(index).BSF())
	}
	c.logicals = []pauli.BSF{
		c.NewPauli().LogicalX().BSF(),
		c.NewPauli().LogicalZ().BSF(),
	}
	return c, nil
}

// Distance returns the code distance.
func (c *Code) Distance() int { return c.distance }

// NKD returns the number of physical qubits, logical qubits and the distance.
func (c *Code) NKD() (n, k, d int) {
	return c.distance * c.distance, 1, c.distance
}

// Label describes the code for run records.
func (c *Code) Label() string {
	return fmt.Sprintf("Rotated planar XZ %d", c.distance)
}

// SiteBounds returns the maximal site coordinates (maxX, maxY).
func (c *Code) SiteBounds() (maxX, maxY int) {
	return c.distance - 1, c.distance - 1
}

// IsInSiteBounds reports whether the index lies on a qubit site.
func (c *Code) IsInSiteBounds(i Index) bool {
	maxX, maxY := c.SiteBounds()
	return i.X >= 0 && i.X <= maxX && i.Y >= 0 && i.Y <= maxY
}

// IsInPlaquetteBounds reports whether the index lies within the plaquette
// bounds, including the boundary rim.
func (c *Code) IsInPlaquetteBounds(i Index) bool {
	maxX, maxY := c.SiteBounds()
	return i.X >= -1 && i.X <= maxX && i.Y >= -1 && i.Y <= maxY
}

// IsZXType reports whether the plaquette descends from a Z-plaquette of the
// unrotated code, i.e. (x - y) mod 2 == 0.
func IsZXType(i Index) bool {
	return mod2(i.X-i.Y) == 0
}

// IsVirtualPlaquette reports whether a rim plaquette carries no stabilizer:
// ZX-type plaquettes are virtual on the left and right rims, XZ-type on the
// top and bottom rims.
func (c *Code) IsVirtualPlaquette(i Index) bool {
	maxX, maxY := c.SiteBounds()
	if i.X == -1 || i.X == maxX {
		if IsZXType(i) {
			return true
		}
	}
	if i.Y == -1 || i.Y == maxY {
		if !IsZXType(i) {
			return true
		}
	}
	return false
}

// Stabilizers returns the stabilizer generators, ordered by plaquette index
// row-major from (-1,-1).
func (c *Code) Stabilizers() []pauli.BSF { return c.stabilizers }

// Logicals returns the logical X and logical Z operators.
func (c *Code) Logicals() []pauli.BSF { return c.logicals }

// PlaquetteIndices returns the stabilizer plaquette indices in syndrome
// order.
func (c *Code) PlaquetteIndices() []Index { return c.plaquettes }

// SyndromeToPlaquetteIndices resolves set syndrome bits to the indices of
// their plaquettes.
func (c *Code) SyndromeToPlaquetteIndices(syndrome []uint8) ([]Index, error) {
	if len(syndrome) != len(c.plaquettes) {
		return nil, errors.Wrapf(ErrSyndromeLength, "got %d, want %d", len(syndrome), len(c.plaquettes))
	}
	var out []Index
	for i, bit := range syndrome {
		if bit != 0 {
			out = append(out, c.plaquettes[i])
		}
	}
	return out, nil
}

// siteOffset maps a site to its qubit index in binary symplectic form.
func (c *Code) siteOffset(i Index) int {
	return i.Y*c.distance + i.X
}

func mod2(v int) int {
	return ((v % 2) + 2) % 2
}
