package tensor

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Network nodes are 4-leg tensors with axes ordered (up, right, down, left).
const (
	legUp = iota
	legRight
	legDown
	legLeft
)

// ErrBadNetwork is returned when a grid of tensors is not contractible.
var ErrBadNetwork = errors.New("malformed tensor network")

// ContractNetwork contracts a rectangular grid of 4-leg tensors to a scalar.
// The leftmost column seeds a matrix product state; every further column is
// absorbed and the vertical bonds are then compressed by SVD, truncated to
// chi when chi > 0. Singular values below tol relative to the largest are
// dropped regardless of chi when tol > 0.
func ContractNetwork(tn [][]*Tensor, chi int, tol float64) (Scaled, error) {
	if err := validateNetwork(tn); err != nil {
		return Scaled{}, err
	}

	norm := NewScaled(1)
	mps := make([]*Tensor, len(tn))
	for i := range tn {
		mps[i] = tn[i][0].Clone()
	}

	cols := len(tn[0])
	for j := 1; j < cols; j++ {
		column := make([]*Tensor, len(tn))
		for i := range tn {
			column[i] = tn[i][j]
		}
		var err error
		mps, err = absorbColumn(mps, column)
		if err != nil {
			return Scaled{}, errors.Wrapf(err, "column %d", j)
		}
		f, err := compress(mps, chi, tol)
		if err != nil {
			return Scaled{}, errors.Wrapf(err, "column %d", j)
		}
		norm = mul(norm, f)
	}

	scalar, err := contractChain(mps)
	if err != nil {
		return Scaled{}, err
	}
	return mul(norm, scalar), nil
}

// TransposeNetwork reflects a grid across its main diagonal, swapping the
// roles of rows and columns. Tensor legs are reversed accordingly:
// (up, right, down, left) becomes (left, down, right, up).
func TransposeNetwork(tn [][]*Tensor) ([][]*Tensor, error) {
	if len(tn) == 0 {
		return nil, errors.Wrap(ErrBadNetwork, "empty network")
	}
	rows, cols := len(tn), len(tn[0])
	out := make([][]*Tensor, cols)
	for j := 0; j < cols; j++ {
		out[j] = make([]*Tensor, rows)
		for i := 0; i < rows; i++ {
			t, err := tn[i][j].Permute(legLeft, legDown, legRight, legUp)
			if err != nil {
				return nil, errors.Wrapf(err, "node (%d,%d)", i, j)
			}
			out[j][i] = t
		}
	}
	return out, nil
}

func validateNetwork(tn [][]*Tensor) error {
	if len(tn) == 0 || len(tn[0]) == 0 {
		return errors.Wrap(ErrBadNetwork, "empty network")
	}
	rows, cols := len(tn), len(tn[0])
	for i := 0; i < rows; i++ {
		if len(tn[i]) != cols {
			return errors.Wrapf(ErrBadNetwork, "ragged row %d", i)
		}
		for j := 0; j < cols; j++ {
			node := tn[i][j]
			if node == nil || len(node.Shape()) != 4 {
				return errors.Wrapf(ErrBadNetwork, "node (%d,%d) is not a 4-leg tensor", i, j)
			}
			if i == 0 && node.Dim(legUp) != 1 {
				return errors.Wrapf(ErrBadNetwork, "node (%d,%d) has open up leg", i, j)
			}
			if i == rows-1 && node.Dim(legDown) != 1 {
				return errors.Wrapf(ErrBadNetwork, "node (%d,%d) has open down leg", i, j)
			}
			if j == 0 && node.Dim(legLeft) != 1 {
				return errors.Wrapf(ErrBadNetwork, "node (%d,%d) has open left leg", i, j)
			}
			if j == cols-1 && node.Dim(legRight) != 1 {
				return errors.Wrapf(ErrBadNetwork, "node (%d,%d) has open right leg", i, j)
			}
			if i+1 < rows && node.Dim(legDown) != tn[i+1][j].Dim(legUp) {
				return errors.Wrapf(ErrBadNetwork, "vertical bond mismatch at (%d,%d)", i, j)
			}
			if j+1 < cols && node.Dim(legRight) != tn[i][j+1].Dim(legLeft) {
				return errors.Wrapf(ErrBadNetwork, "horizontal bond mismatch at (%d,%d)", i, j)
			}
		}
	}
	return nil
}

// absorbColumn contracts the dangling right leg of each MPS tensor with the
// left leg of the matching column tensor, merging vertical bonds.
func absorbColumn(mps, column []*Tensor) ([]*Tensor, error) {
	out := make([]*Tensor, len(mps))
	for i := range mps {
		a, b := mps[i], column[i]
		if a.Dim(legRight) != b.Dim(legLeft) {
			return nil, errors.Wrapf(ErrBadNetwork, "bond mismatch at row %d", i)
		}
		u1, d1 := a.Dim(legUp), a.Dim(legDown)
		u2, r2, d2 := b.Dim(legUp), b.Dim(legRight), b.Dim(legDown)
		k := a.Dim(legRight)

		merged := New(u1, u2, r2, d1, d2)
		for x1 := 0; x1 < u1; x1++ {
			for x2 := 0; x2 < u2; x2++ {
				for r := 0; r < r2; r++ {
					for y1 := 0; y1 < d1; y1++ {
						for y2 := 0; y2 < d2; y2++ {
							sum := 0.0
							for c := 0; c < k; c++ {
								sum += a.At(x1, c, y1, 0) * b.At(x2, r, y2, c)
							}
							merged.Set(sum, x1, x2, r, y1, y2)
						}
					}
				}
			}
		}
		t, err := merged.Reshape(u1*u2, r2, d1*d2, 1)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// compress runs a downward orthogonalisation sweep followed by an upward
// truncation sweep over the vertical bonds, then pulls the accumulated norm
// out of the top tensor. The returned factor restores the true magnitude.
func compress(mps []*Tensor, chi int, tol float64) (Scaled, error) {
	m := len(mps)

	// downward sweep: no truncation, canonicalise towards the bottom
	for i := 0; i < m-1; i++ {
		u, r, d := mps[i].Dim(legUp), mps[i].Dim(legRight), mps[i].Dim(legDown)
		uMat, s, vMat, err := svdThin(mps[i].Data(), u*r, d)
		if err != nil {
			return Scaled{}, errors.Wrapf(err, "down sweep row %d", i)
		}
		rank := rankOf(s, 0, 0)
		mps[i], err = fromColumns(uMat, u*r, rank).Reshape(u, r, rank, 1)
		if err != nil {
			return Scaled{}, err
		}
		carry := scaledRows(s, vMat, rank, d)
		mps[i+1] = applyAbove(carry, rank, d, mps[i+1])
	}

	// upward sweep: truncate vertical bonds to chi
	for i := m - 1; i > 0; i-- {
		u, r, d := mps[i].Dim(legUp), mps[i].Dim(legRight), mps[i].Dim(legDown)
		uMat, s, vMat, err := svdThin(mps[i].Data(), u, r*d)
		if err != nil {
			return Scaled{}, errors.Wrapf(err, "up sweep row %d", i)
		}
		rank := rankOf(s, chi, tol)
		// v-transpose rows index the new bond, which becomes the up leg
		mps[i], err = fromRows(vMat, rank, r*d).Reshape(rank, r, d, 1)
		if err != nil {
			return Scaled{}, err
		}
		carry := scaledColumns(uMat, s, u, rank)
		mps[i-1] = applyBelow(mps[i-1], carry, u, rank)
	}

	// factor the norm out of the top tensor
	f := mps[0].MaxAbs()
	if f == 0 {
		return NewScaled(0), nil
	}
	mps[0].Scale(1 / f)
	return NewScaled(f), nil
}

// contractChain collapses a fully absorbed MPS (all right legs closed) down
// the vertical bonds to a scalar.
func contractChain(mps []*Tensor) (Scaled, error) {
	norm := NewScaled(1)
	// row vector over the first vertical bond
	first := mps[0]
	if first.Dim(legUp) != 1 || first.Dim(legRight) != 1 {
		return Scaled{}, errors.Wrap(ErrBadNetwork, "chain has open legs")
	}
	vec := make([]float64, first.Dim(legDown))
	for d := range vec {
		vec[d] = first.At(0, 0, d, 0)
	}
	for i := 1; i < len(mps); i++ {
		node := mps[i]
		if node.Dim(legRight) != 1 {
			return Scaled{}, errors.Wrap(ErrBadNetwork, "chain has open legs")
		}
		u, d := node.Dim(legUp), node.Dim(legDown)
		if u != len(vec) {
			return Scaled{}, errors.Wrapf(ErrBadNetwork, "bond mismatch at row %d", i)
		}
		next := make([]float64, d)
		for y := 0; y < d; y++ {
			sum := 0.0
			for x := 0; x < u; x++ {
				sum += vec[x] * node.At(x, 0, y, 0)
			}
			next[y] = sum
		}
		vec = next
		norm, vec = renormalizeVec(norm, vec)
	}
	if len(vec) != 1 {
		return Scaled{}, errors.Wrap(ErrBadNetwork, "chain does not close")
	}
	return norm.MulFloat(vec[0]), nil
}

func renormalizeVec(norm Scaled, vec []float64) (Scaled, []float64) {
	m := 0.0
	for _, v := range vec {
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	if m == 0 {
		return norm, vec
	}
	for i := range vec {
		vec[i] /= m
	}
	return norm.MulFloat(m), vec
}

func mul(a, b Scaled) Scaled {
	return Scaled{M: a.M * b.M, E: a.E + b.E}.normalize()
}

// svdThin computes the thin SVD of a rows x cols row-major matrix.
func svdThin(data []float64, rows, cols int) (u *mat.Dense, s []float64, v *mat.Dense, err error) {
	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(rows, cols, data), mat.SVDThin); !ok {
		return nil, nil, nil, errors.New("svd failed to converge")
	}
	s = svd.Values(nil)
	u, v = &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)
	return u, s, v, nil
}

// rankOf counts the singular values kept under the chi cap and the relative
// tolerance floor.
func rankOf(s []float64, chi int, tol float64) int {
	rank := len(s)
	if chi > 0 && chi < rank {
		rank = chi
	}
	floor := 0.0
	if len(s) > 0 {
		if tol > 0 {
			floor = tol * s[0]
		}
	}
	kept := 0
	for i := 0; i < rank; i++ {
		if s[i] > floor && s[i] > 0 {
			kept++
		}
	}
	if kept == 0 {
		kept = 1
	}
	return kept
}

// fromColumns copies the first k columns of u into a tensor of shape (rows, k).
func fromColumns(u *mat.Dense, rows, k int) *Tensor {
	t := New(rows, k)
	for i := 0; i < rows; i++ {
		for j := 0; j < k; j++ {
			t.Set(u.At(i, j), i, j)
		}
	}
	return t
}

// fromRows copies the first k rows of v-transpose into a tensor of shape (k, cols).
func fromRows(v *mat.Dense, k, cols int) *Tensor {
	t := New(k, cols)
	for i := 0; i < k; i++ {
		for j := 0; j < cols; j++ {
			t.Set(v.At(j, i), i, j)
		}
	}
	return t
}

// scaledRows returns diag(s) * v^T restricted to the first k rows, as k x cols.
func scaledRows(s []float64, v *mat.Dense, k, cols int) []float64 {
	out := make([]float64, k*cols)
	for i := 0; i < k; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = s[i] * v.At(j, i)
		}
	}
	return out
}

// scaledColumns returns u * diag(s) restricted to the first k columns, as rows x k.
func scaledColumns(u *mat.Dense, s []float64, rows, k int) []float64 {
	out := make([]float64, rows*k)
	for i := 0; i < rows; i++ {
		for j := 0; j < k; j++ {
			out[i*k+j] = u.At(i, j) * s[j]
		}
	}
	return out
}

// applyAbove contracts carry (k x b) into the up leg of node (b, r, d, 1).
func applyAbove(carry []float64, k, b int, node *Tensor) *Tensor {
	r, d := node.Dim(legRight), node.Dim(legDown)
	out := New(k, r, d, 1)
	for a := 0; a < k; a++ {
		for x := 0; x < r; x++ {
			for y := 0; y < d; y++ {
				sum := 0.0
				for c := 0; c < b; c++ {
					sum += carry[a*b+c] * node.At(c, x, y, 0)
				}
				out.Set(sum, a, x, y, 0)
			}
		}
	}
	return out
}

// applyBelow contracts carry (b x k) into the down leg of node (u, r, b, 1).
func applyBelow(node *Tensor, carry []float64, b, k int) *Tensor {
	u, r := node.Dim(legUp), node.Dim(legRight)
	out := New(u, r, k, 1)
	for x := 0; x < u; x++ {
		for y := 0; y < r; y++ {
			for a := 0; a < k; a++ {
				sum := 0.0
				for c := 0; c < b; c++ {
					sum += node.At(x, y, c, 0) * carry[c*k+a]
				}
				out.Set(sum, x, y, a, 0)
			}
		}
	}
	return out
}
