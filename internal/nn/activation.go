package nn

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
type ReLU struct {
	lastInput *tensor.RawTensor
}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU) Forward(input *tensor.RawTensor) *tensor.RawTensor {
	output := input.Clone()
	data := output.AsFloat64()
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
	r.lastInput = input
	return output
}

// Backward zeroes the gradient wherever the forward input was non-positive.
func (r *ReLU) Backward(grad *tensor.RawTensor) *tensor.RawTensor {
	if r.lastInput == nil {
		panic("ReLU.Backward: called before Forward")
	}
	gradIn := grad.Clone()
	in := r.lastInput.AsFloat64()
	out := gradIn.AsFloat64()
	for i, v := range in {
		if v <= 0 {
			out[i] = 0
		}
	}
	return gradIn
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU) Parameters() []*Parameter {
	return nil
}
