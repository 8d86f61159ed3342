package drawer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"

	"github.com/Gurrzz/qec-bsc/pkg/qec/pauli"
	"github.com/Gurrzz/qec-bsc/pkg/qec/rotatedplanar"
)

const (
	latticeCell   = 48
	latticeMargin = 48
	siteRadius    = 4
)

// plaquette fills: ZX-type blue, XZ-type orange
const (
	fillZX = "#dbeafe"
	fillXZ = "#ffe3c2"
)

type latticeDrawing struct {
	op       pauli.BSF
	syndrome []uint8
}

// LatticeOption overlays extra information on a lattice drawing.
type LatticeOption func(*latticeDrawing)

// WithPauli overlays the non-identity single-site operators of op as letters
// at their sites.
func WithPauli(op pauli.BSF) LatticeOption {
	return func(d *latticeDrawing) {
		d.op = op
	}
}

// WithSyndrome marks the excited plaquettes of the syndrome.
func WithSyndrome(syndrome []uint8) LatticeOption {
	return func(d *latticeDrawing) {
		d.syndrome = syndrome
	}
}

// WriteLatticeSVG renders the code lattice as SVG: plaquette squares
// coloured by type, qubit sites as dots, and any overlays from the options.
func WriteLatticeSVG(w io.Writer, code *rotatedplanar.Code, opts ...LatticeOption) error {
	drawing := &latticeDrawing{}
	for _, opt := range opts {
		opt(drawing)
	}

	maxX, maxY := code.SiteBounds()
	width := 2*latticeMargin + maxX*latticeCell
	height := 2*latticeMargin + maxY*latticeCell

	// site (x, y) in lattice coordinates, origin lower left
	sx := func(x int) int { return latticeMargin + x*latticeCell }
	sy := func(y int) int { return latticeMargin + (maxY-y)*latticeCell }

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n", width, height, width, height)
	fmt.Fprintf(&buf, `<rect width="%d" height="%d" fill="white"/>`+"\n", width, height)

	// bulk plaquette squares
	for y := 0; y < maxY; y++ {
		for x := 0; x < maxX; x++ {
			fill := fillXZ
			if rotatedplanar.IsZXType(rotatedplanar.Index{X: x, Y: y}) {
				fill = fillZX
			}
			fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="#888"/>`+"\n",
				sx(x), sy(y+1), latticeCell, latticeCell, fill)
		}
	}

	// rim plaquettes as half-size lobes
	for _, plaq := range code.PlaquetteIndices() {
		if plaq.X >= 0 && plaq.X < maxX && plaq.Y >= 0 && plaq.Y < maxY {
			continue
		}
		fill := fillXZ
		if rotatedplanar.IsZXType(plaq) {
			fill = fillZX
		}
		cx := sx(plaq.X) + latticeCell/2
		cy := sy(plaq.Y) - latticeCell/2
		fmt.Fprintf(&buf, `<circle cx="%d" cy="%d" r="%d" fill="%s" stroke="#888"/>`+"\n",
			cx, cy, latticeCell/3, fill)
	}

	// syndrome markers at plaquette centres
	if drawing.syndrome != nil {
		excited, err := code.SyndromeToPlaquetteIndices(drawing.syndrome)
		if err != nil {
			return errors.Wrap(err, "syndrome overlay")
		}
		for _, plaq := range excited {
			cx := sx(plaq.X) + latticeCell/2
			cy := sy(plaq.Y) - latticeCell/2
			fmt.Fprintf(&buf, `<circle cx="%d" cy="%d" r="%d" fill="none" stroke="red" stroke-width="3"/>`+"\n",
				cx, cy, latticeCell/4)
		}
	}

	// qubit sites
	for y := 0; y <= maxY; y++ {
		for x := 0; x <= maxX; x++ {
			fmt.Fprintf(&buf, `<circle cx="%d" cy="%d" r="%d" fill="#333"/>`+"\n", sx(x), sy(y), siteRadius)
		}
	}

	// operator overlay
	if drawing.op != nil {
		n, _, _ := code.NKD()
		if drawing.op.N() != n {
			return errors.Wrapf(pauli.ErrLengthMismatch, "operator on %d qubits, code has %d", drawing.op.N(), n)
		}
		site := code.NewPauliFromBSF(drawing.op)
		for y := 0; y <= maxY; y++ {
			for x := 0; x <= maxX; x++ {
				op := site.Operator(rotatedplanar.Index{X: x, Y: y})
				if op == 'I' {
					continue
				}
				fmt.Fprintf(&buf, `<text x="%d" y="%d" font-size="18" font-family="monospace" fill="#b00" text-anchor="middle">%c</text>`+"\n",
					sx(x)+10, sy(y)-8, op)
			}
		}
	}

	fmt.Fprint(&buf, "</svg>\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "write svg")
	}

	return nil
}

// SaveLatticeSVG renders the lattice and writes the file atomically.
func SaveLatticeSVG(path string, code *rotatedplanar.Code, opts ...LatticeOption) error {
	var buf bytes.Buffer
	if err := WriteLatticeSVG(&buf, code, opts...); err != nil {
		return err
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}

	return nil
}
