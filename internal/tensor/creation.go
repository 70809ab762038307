package tensor

import "fmt"

// Zeros creates a float64 tensor filled with zeros.
// Panics if the shape is invalid.
func Zeros(shape Shape) *RawTensor {
	raw, err := NewRaw(shape, Float64)
	if err != nil {
		panic(err)
	}
	return raw
}

// Full creates a float64 tensor filled with the given value.
// Panics if the shape is invalid.
func Full(shape Shape, value float64) *RawTensor {
	raw := Zeros(shape)
	data := raw.AsFloat64()
	for i := range data {
		data[i] = value
	}
	return raw
}

// FromFloat64 creates a float64 tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromFloat64(data []float64, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	raw, err := NewRaw(shape, Float64)
	if err != nil {
		return nil, err
	}
	copy(raw.AsFloat64(), data)
	return raw, nil
}
