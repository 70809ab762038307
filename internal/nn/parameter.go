package nn

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters are tensors updated by an optimizer during training. They
// typically represent weights and biases of layers. The gradient buffer is
// allocated lazily on the first backward pass and accumulated into until
// ZeroGrad is called.
type Parameter struct {
	name   string
	tensor *tensor.RawTensor
	grad   *tensor.RawTensor
}

// NewParameter creates a new trainable parameter.
// The parameter tensor should be initialized before creating the Parameter.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
		grad:   nil, // Allocated on first backward pass
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.RawTensor {
	return p.tensor
}

// Grad returns the gradient tensor.
// Returns nil if no gradient has been accumulated since the last ZeroGrad.
func (p *Parameter) Grad() *tensor.RawTensor {
	return p.grad
}

// EnsureGrad returns the gradient tensor, allocating a zeroed buffer with
// the parameter's shape on first use.
func (p *Parameter) EnsureGrad() *tensor.RawTensor {
	if p.grad == nil {
		p.grad = tensor.Zeros(p.tensor.Shape())
	}
	return p.grad
}

// ZeroGrad clears the gradient tensor.
// This should be called before each training iteration to avoid
// accumulating gradients from previous iterations.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}
