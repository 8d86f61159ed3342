package rotatedplanar

import (
	"fmt"

	"github.com/Gurrzz/qec-bsc/pkg/qec/pauli"
)

// LatticePauli builds a Pauli operator on the G81 lattice by applying site,
// plaquette and logical operators. Site applications outside the lattice are
// ignored, so rim plaquettes act only on their in-bounds corners. All
// methods return the receiver to allow chaining.
type LatticePauli struct {
	code *Code
	bsf  pauli.BSF
}

// NewPauli returns the identity operator on the lattice.
func (c *Code) NewPauli() *LatticePauli {
	n, _, _ := c.NKD()
	return &LatticePauli{code: c, bsf: pauli.New(n)}
}

// NewPauliFromBSF wraps an existing binary symplectic form. The operator is
// a view: modifying one modifies the other.
func (c *Code) NewPauliFromBSF(b pauli.BSF) *LatticePauli {
	return &LatticePauli{code: c, bsf: b}
}

// Code returns the code the operator is defined on.
func (p *LatticePauli) Code() *Code { return p.code }

// BSF returns the operator in binary symplectic form.
func (p *LatticePauli) BSF() pauli.BSF { return p.bsf }

// Copy returns an independent copy of the operator.
func (p *LatticePauli) Copy() *LatticePauli {
	return &LatticePauli{code: p.code, bsf: p.bsf.Copy()}
}

// Operator returns the single Pauli applied at the given site.
func (p *LatticePauli) Operator(i Index) byte {
	if !p.code.IsInSiteBounds(i) {
		return 'I'
	}
	return p.bsf.Op(p.code.siteOffset(i))
}

// Site composes the single operator op onto each given site. Out-of-bounds
// sites are ignored.
func (p *LatticePauli) Site(op byte, indices ...Index) *LatticePauli {
	for _, i := range indices {
		if p.code.IsInSiteBounds(i) {
			p.bsf.Apply(p.code.siteOffset(i), op)
		}
	}
	return p
}

// Plaquette applies the stabilizer plaquette operator at the given index.
//
// The unrotated code applies Z (ZX-type) or X (XZ-type) at all four corners;
// the G81 relabelling swaps X and Z on odd columns, so the western pair
// (column x) and the eastern pair (column x+1) always carry opposite
// letters. Plaquettes outside the plaquette bounds have no effect.
func (p *LatticePauli) Plaquette(i Index) *LatticePauli {
	if !p.code.IsInPlaquetteBounds(i) {
		return p
	}
	base := byte('Z')
	if !IsZXType(i) {
		base = 'X'
	}
	west := columnOp(base, i.X)
	east := columnOp(base, i.X+1)
	p.Site(west, Index{i.X, i.Y}, Index{i.X, i.Y + 1})       // SW, NW
	p.Site(east, Index{i.X + 1, i.Y + 1}, Index{i.X + 1, i.Y}) // NE, SE
	return p
}

// LogicalX applies the logical X operator: the relabelled X-string along the
// bottom row, X on even columns and Z on odd columns. The bottom row is used
// to allow optimisation of the MPS decoder.
func (p *LatticePauli) LogicalX() *LatticePauli {
	maxX, _ := p.code.SiteBounds()
	for x := 0; x <= maxX; x++ {
		p.Site(columnOp('X', x), Index{x, 0})
	}
	return p
}

// LogicalZ applies the logical Z operator: a Z-string along the rightmost
// column, which is even for odd distances and therefore untouched by the
// relabelling.
func (p *LatticePauli) LogicalZ() *LatticePauli {
	maxX, maxY := p.code.SiteBounds()
	for y := 0; y <= maxY; y++ {
		p.Site('Z', Index{maxX, y})
	}
	return p
}

func (p *LatticePauli) String() string {
	return fmt.Sprintf("LatticePauli(%s, %s)", p.code.Label(), p.bsf)
}

// columnOp relabels the operator for the column parity of site column x:
// even columns keep the letter, odd columns swap X and Z.
func columnOp(op byte, x int) byte {
	if mod2(x) == 0 {
		return op
	}
	switch op {
	case 'X':
		return 'Z'
	case 'Z':
		return 'X'
	}
	return op
}
