// Package nn implements the neural network building blocks for kiln:
//   - Module interface: base interface for all NN components
//   - Parameter: trainable parameters with gradient storage
//   - Linear: fully connected layer
//   - ReLU: rectified linear activation
//   - CrossEntropyLoss: multi-class classification loss
//   - Classifier: feed-forward classifier built from an explicit
//     Architecture descriptor
//
// Design inspired by PyTorch's nn.Module, with closed-form per-layer
// backward passes instead of a recorded autodiff graph.
package nn

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Forward computes the module output for a batch. Backward consumes the
// gradient of the loss with respect to the module's output, accumulates
// gradients into the module's parameters, and returns the gradient with
// respect to the module's input. Backward must be called after Forward on
// the same batch: modules cache whatever forward state their gradient
// needs.
type Module interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.RawTensor) *tensor.RawTensor

	// Backward propagates the output gradient through the module and
	// returns the input gradient.
	Backward(grad *tensor.RawTensor) *tensor.RawTensor

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter
}
