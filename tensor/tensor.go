// Copyright 2025 The Kiln Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for kiln's dense tensors.
//
// A RawTensor is a contiguous row-major buffer with a shape and a data
// type. Two-dimensional float64 tensors interoperate with gonum through
// zero-copy Matrix and Vector views.
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{2, 3})
//	m := x.Matrix() // *mat.Dense sharing x's memory
package tensor

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float64 DataType = tensor.Float64
	Float32 DataType = tensor.Float32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
)

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// RawTensor is a dense, contiguous tensor.
type RawTensor = tensor.RawTensor

// Zeros creates a zero-filled float64 tensor with the given shape.
func Zeros(shape Shape) *RawTensor {
	return tensor.Zeros(shape)
}

// Full creates a float64 tensor filled with the given value.
func Full(shape Shape, value float64) *RawTensor {
	return tensor.Full(shape, value)
}

// FromFloat64 creates a float64 tensor from a slice. The slice length must
// match the shape's element count.
func FromFloat64(data []float64, shape Shape) (*RawTensor, error) {
	return tensor.FromFloat64(data, shape)
}
