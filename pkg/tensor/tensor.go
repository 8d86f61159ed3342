// Package tensor implements the dense tensor operations behind matrix
// product state decoding: delta tensors, 2-D network contraction with bond
// truncation, and scalars carried with an explicit base-2 exponent so that
// vanishing coset probabilities survive contraction of large lattices.
package tensor

import (
	"github.com/pkg/errors"
)

// ErrShapeMismatch is returned when tensors with incompatible shapes are
// combined.
var ErrShapeMismatch = errors.New("incompatible tensor shapes")

// Tensor is a dense tensor of float64 values in row-major order.
type Tensor struct {
	shape   []int
	strides []int
	data    []float64
}

// New returns a zero tensor with the given shape.
func New(shape ...int) *Tensor {
	size := 1
	for _, d := range shape {
		size *= d
	}
	t := &Tensor{
		shape: append([]int(nil), shape...),
		data:  make([]float64, size),
	}
	t.strides = rowMajorStrides(t.shape)
	return t
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// Shape returns the tensor shape. The slice must not be modified.
func (t *Tensor) Shape() []int { return t.shape }

// Dim returns the size of axis i.
func (t *Tensor) Dim(i int) int { return t.shape[i] }

// Size returns the total number of elements.
func (t *Tensor) Size() int { return len(t.data) }

// Data returns the backing slice in row-major order.
func (t *Tensor) Data() []float64 { return t.data }

func (t *Tensor) offset(idx []int) int {
	off := 0
	for i, v := range idx {
		off += v * t.strides[i]
	}
	return off
}

// At returns the element at the given multi-index.
func (t *Tensor) At(idx ...int) float64 { return t.data[t.offset(idx)] }

// Set assigns the element at the given multi-index.
func (t *Tensor) Set(v float64, idx ...int) { t.data[t.offset(idx)] = v }

// Reshape returns a view of the tensor with a new shape of the same size.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	size := 1
	for _, d := range shape {
		size *= d
	}
	if size != len(t.data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "reshape %v to %v", t.shape, shape)
	}
	r := &Tensor{
		shape: append([]int(nil), shape...),
		data:  t.data,
	}
	r.strides = rowMajorStrides(r.shape)
	return r, nil
}

// Permute returns a copy of the tensor with axes reordered so that new axis
// i is old axis perm[i].
func (t *Tensor) Permute(perm ...int) (*Tensor, error) {
	if len(perm) != len(t.shape) {
		return nil, errors.Wrapf(ErrShapeMismatch, "permute %v with %v", t.shape, perm)
	}
	shape := make([]int, len(perm))
	for i, p := range perm {
		shape[i] = t.shape[p]
	}
	out := New(shape...)
	idx := make([]int, len(t.shape))
	oldIdx := make([]int, len(t.shape))
	for off := 0; off < len(out.data); off++ {
		for i, p := range perm {
			oldIdx[p] = idx[i]
		}
		out.data[off] = t.data[t.offset(oldIdx)]
		// increment idx in row-major order
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < shape[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out, nil
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := New(t.shape...)
	copy(c.data, t.data)
	return c
}

// Scale multiplies every element by f in place.
func (t *Tensor) Scale(f float64) {
	for i := range t.data {
		t.data[i] *= f
	}
}

// MaxAbs returns the largest absolute element value.
func (t *Tensor) MaxAbs() float64 {
	m := 0.0
	for _, v := range t.data {
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}

// Delta returns the generalized Kronecker delta of the given shape: an
// element is 1 when the indices of all non-trivial axes (size > 1) agree,
// 0 otherwise. Trivial axes act as pass-through dummies.
func Delta(shape ...int) *Tensor {
	t := New(shape...)
	idx := make([]int, len(shape))
	for off := 0; off < len(t.data); off++ {
		match := true
		first := -1
		for i, v := range idx {
			if shape[i] == 1 {
				continue
			}
			if first == -1 {
				first = v
			} else if v != first {
				match = false
				break
			}
		}
		if match {
			t.data[off] = 1
		}
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < shape[i] {
				break
			}
			idx[i] = 0
		}
	}
	return t
}
