package rotatedplanar

import (
	"github.com/pkg/errors"

	"github.com/Gurrzz/qec-bsc/pkg/tensor"
)

// Tensor network creation for the RMPS decoder.
//
// Each qubit becomes a q-node whose four legs (n, e, s, w) address the
// diagonally adjacent stabilizers (NE, SE, SW, NW). The legs are rotated 45
// degrees by splitting each stabilizer into delta nodes that are absorbed
// into the neighbouring q-nodes, leaving a square grid with legs
// (up, right, down, left); horizontal bonds have dimension 2 and vertical
// bonds dimension 4 in the bulk. H-nodes sit at sites with x+y even and have
// ZX-type plaquettes in their NE and SW directions; V-nodes have them NW and
// SE. Whether a stabilizer acts with Z or X on the qubit follows the column
// relabelling, so the node values depend on the qubit column parity.

// ErrVNodeSW mirrors the lattice constraint that the SW corner always hosts
// an H-node.
var ErrVNodeSW = errors.New("cannot have v-node in SW corner of lattice")

type deltaShape [3]int

var trivialDelta = deltaShape{1, 1, 1}

// qNodeShapes returns the value-tensor shape and the four delta shapes for a
// node, following the boundary modifications of the rotated lattice.
func qNodeShapes(hNode, evenColumn bool, dir string) (q [4]int, n, e, s, w deltaShape, err error) {
	q = [4]int{2, 2, 2, 2}
	if evenColumn {
		n, e, s, w = deltaShape{2, 2, 2}, deltaShape{2, 1, 2}, deltaShape{2, 2, 2}, deltaShape{2, 1, 2}
	} else {
		n, e, s, w = deltaShape{2, 2, 1}, deltaShape{2, 2, 2}, deltaShape{2, 2, 1}, deltaShape{2, 2, 2}
	}

	if hNode {
		switch dir {
		case "":
		case "n":
			q = [4]int{2, 2, 2, 1}
			n, w = deltaShape{2, 1, 2}, trivialDelta
		case "ne":
			q = [4]int{1, 2, 2, 1}
			n, e, w = trivialDelta, deltaShape{2, 1, 2}, trivialDelta
		case "e":
			q = [4]int{1, 2, 2, 2}
			n, e = trivialDelta, deltaShape{2, 1, 2}
		case "se": // always even
			q = [4]int{1, 1, 2, 2}
			n, e, s = trivialDelta, trivialDelta, deltaShape{2, 1, 2}
		case "s": // always even
			q = [4]int{2, 1, 2, 2}
			e, s = trivialDelta, deltaShape{2, 1, 2}
		case "sw": // always even
			q = [4]int{2, 1, 1, 2}
			e, s, w = trivialDelta, trivialDelta, deltaShape{2, 1, 2}
		case "w": // always even
			q = [4]int{2, 2, 1, 2}
			s, w = trivialDelta, deltaShape{2, 1, 2}
		case "nw": // always even
			q = [4]int{2, 2, 1, 1}
			n, s, w = deltaShape{2, 1, 2}, trivialDelta, trivialDelta
		default:
			return q, n, e, s, w, errors.Errorf("unknown compass direction %q", dir)
		}
		return q, n, e, s, w, nil
	}

	switch dir {
	case "":
	case "n":
		q = [4]int{1, 2, 2, 2}
		n, w = trivialDelta, deltaShape{2, 2, 1}
	case "ne":
		q = [4]int{1, 1, 2, 2}
		n, e, w = trivialDelta, trivialDelta, deltaShape{2, 2, 1}
	case "e":
		q = [4]int{2, 1, 2, 2}
		n, e = deltaShape{2, 2, 1}, trivialDelta
	case "se": // always odd
		q = [4]int{2, 1, 1, 2}
		n, e, s = deltaShape{2, 2, 1}, trivialDelta, trivialDelta
	case "s": // always odd
		q = [4]int{2, 2, 1, 2}
		e, s = deltaShape{2, 2, 1}, trivialDelta
	case "sw":
		return q, n, e, s, w, ErrVNodeSW
	case "w": // always even
		q = [4]int{2, 2, 2, 1}
		s, w = deltaShape{2, 2, 1}, trivialDelta
	case "nw": // always even
		q = [4]int{1, 2, 2, 1}
		n, s, w = trivialDelta, deltaShape{2, 2, 1}, trivialDelta
	default:
		return q, n, e, s, w, errors.Errorf("unknown compass direction %q", dir)
	}
	return q, n, e, s, w, nil
}

// hNodeValue returns the value of an H-node element: the probability of the
// qubit operator f composed with the stabilizer actions selected by the leg
// indices. On even columns the NE and SW legs apply Z and the SE and NW legs
// apply X; odd columns swap the letters.
func hNodeValue(dist [4]float64, f byte, n, e, s, w int, evenColumn bool) float64 {
	diag, anti := byte('Z'), byte('X')
	if !evenColumn {
		diag, anti = anti, diag
	}
	var op [2]uint8 // single-qubit bsf: x bit, z bit
	applySingle(&op, f)
	if n == 1 {
		applySingle(&op, diag)
	}
	if e == 1 {
		applySingle(&op, anti)
	}
	if s == 1 {
		applySingle(&op, diag)
	}
	if w == 1 {
		applySingle(&op, anti)
	}
	return dist[opIndex(op)]
}

// vNodeValue reuses hNodeValue with the leg order rotated.
func vNodeValue(dist [4]float64, f byte, n, e, s, w int, evenColumn bool) float64 {
	return hNodeValue(dist, f, e, s, w, n, evenColumn)
}

func applySingle(op *[2]uint8, p byte) {
	switch p {
	case 'X':
		op[0] ^= 1
	case 'Z':
		op[1] ^= 1
	case 'Y':
		op[0] ^= 1
		op[1] ^= 1
	}
}

// opIndex maps a single-qubit bsf to its position in (I, X, Y, Z).
func opIndex(op [2]uint8) int {
	switch {
	case op[0] == 1 && op[1] == 1:
		return 2
	case op[0] == 1:
		return 1
	case op[1] == 1:
		return 3
	}
	return 0
}

// qNode builds the combined grid tensor for one qubit: the four-leg value
// tensor with its delta nodes absorbed, reshaped to (up, right, down, left).
// Delta axes of size 1 are pass-through dummies, so every value element maps
// to exactly one element of the combined node.
func qNode(dist [4]float64, f byte, hNode, evenColumn bool, dir string) (*tensor.Tensor, error) {
	q, n, e, s, w, err := qNodeShapes(hNode, evenColumn, dir)
	if err != nil {
		return nil, err
	}

	node := tensor.New(w[2]*n[1], n[2]*e[1], e[2]*s[1], s[2]*w[1])
	pass := func(v, dim int) int {
		if dim > 1 {
			return v
		}
		return 0
	}
	for nn := 0; nn < q[0]; nn++ {
		for ee := 0; ee < q[1]; ee++ {
			for ss := 0; ss < q[2]; ss++ {
				for ww := 0; ww < q[3]; ww++ {
					var val float64
					if hNode {
						val = hNodeValue(dist, f, nn, ee, ss, ww, evenColumn)
					} else {
						val = vNodeValue(dist, f, nn, ee, ss, ww, evenColumn)
					}
					up := pass(ww, w[2])*n[1] + pass(nn, n[1])
					right := pass(nn, n[2])*e[1] + pass(ee, e[1])
					down := pass(ss, s[1])*e[2] + pass(ee, e[2])
					left := pass(ww, w[1])*s[2] + pass(ss, s[2])
					node.Set(val, up, right, down, left)
				}
			}
		}
	}
	return node, nil
}

// compass classifies a site against the lattice boundary.
func compass(x, y, maxX, maxY int) string {
	switch {
	case x == 0 && y == 0:
		return "sw"
	case x == 0 && y == maxY:
		return "nw"
	case x == maxX && y == 0:
		return "se"
	case x == maxX && y == maxY:
		return "ne"
	case x == 0:
		return "w"
	case x == maxX:
		return "e"
	case y == 0:
		return "s"
	case y == maxY:
		return "n"
	}
	return ""
}

// buildNetwork lays out the grid of combined q-nodes for a sample operator:
// network row 0 is the top lattice row.
func buildNetwork(sample *LatticePauli, dist [4]float64) ([][]*tensor.Tensor, error) {
	code := sample.Code()
	maxX, maxY := code.SiteBounds()

	tn := make([][]*tensor.Tensor, maxY+1)
	for i := range tn {
		tn[i] = make([]*tensor.Tensor, maxX+1)
	}
	for y := 0; y <= maxY; y++ {
		for x := 0; x <= maxX; x++ {
			node, err := qNode(
				dist,
				sample.Operator(Index{x, y}),
				mod2(x+y) == 0,
				mod2(x) == 0,
				compass(x, y, maxX, maxY),
			)
			if err != nil {
				return nil, errors.Wrapf(err, "site (%d,%d)", x, y)
			}
			tn[maxY-y][x] = node
		}
	}
	return tn, nil
}
