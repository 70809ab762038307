package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix returns a gonum dense matrix view of a 2D float64 tensor.
// The view shares the tensor's backing memory: writes through the matrix
// mutate the tensor.
func (r *RawTensor) Matrix() *mat.Dense {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("Matrix: tensor dtype is %s, not float64", r.dtype))
	}
	if len(r.shape) != 2 {
		panic(fmt.Sprintf("Matrix: expected 2D tensor, got shape %v", r.shape))
	}
	return mat.NewDense(r.shape[0], r.shape[1], r.AsFloat64())
}

// Vector returns a gonum dense vector view of a 1D float64 tensor,
// sharing the tensor's backing memory.
func (r *RawTensor) Vector() *mat.VecDense {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("Vector: tensor dtype is %s, not float64", r.dtype))
	}
	if len(r.shape) != 1 {
		panic(fmt.Sprintf("Vector: expected 1D tensor, got shape %v", r.shape))
	}
	return mat.NewVecDense(r.shape[0], r.AsFloat64())
}
