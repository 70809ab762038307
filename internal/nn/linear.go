package nn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features]

	lastInput *tensor.RawTensor // Cached by Forward for the backward pass
}

// NewLinear creates a new Linear layer.
func NewLinear(inFeatures, outFeatures int) *Linear {
	weight := NewParameter("weight", Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}))
	bias := NewParameter("bias", tensor.Zeros(tensor.Shape{outFeatures}))

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
	}
}

// Forward computes y = x @ W.T + b.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear) Forward(input *tensor.RawTensor) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", inputShape))
	}
	if inputShape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1]))
	}

	batch := inputShape[0]
	output := tensor.Zeros(tensor.Shape{batch, l.outFeatures})

	// [batch, in] @ [in, out] = [batch, out]
	om := output.Matrix()
	om.Mul(input.Matrix(), l.weight.Tensor().Matrix().T())

	// Broadcast bias across rows.
	biasData := l.bias.Tensor().AsFloat64()
	for i := 0; i < batch; i++ {
		floats.Add(om.RawRowView(i), biasData)
	}

	l.lastInput = input
	return output
}

// Backward accumulates dL/dW and dL/db into the layer's parameter gradients
// and returns dL/dx for the previous layer.
//
// With y = x W.T + b and g = dL/dy:
//
//	dL/dW = g.T @ x
//	dL/db = column sums of g
//	dL/dx = g @ W
func (l *Linear) Backward(grad *tensor.RawTensor) *tensor.RawTensor {
	if l.lastInput == nil {
		panic("Linear.Backward: called before Forward")
	}
	gradShape := grad.Shape()
	batch := l.lastInput.Shape()[0]
	if len(gradShape) != 2 || gradShape[0] != batch || gradShape[1] != l.outFeatures {
		panic(fmt.Sprintf("Linear.Backward: expected gradient shape [%d %d], got %v", batch, l.outFeatures, gradShape))
	}

	gm := grad.Matrix()

	// dL/dW accumulated into the weight gradient buffer.
	dw := mat.NewDense(l.outFeatures, l.inFeatures, nil)
	dw.Mul(gm.T(), l.lastInput.Matrix())
	floats.Add(l.weight.EnsureGrad().AsFloat64(), dw.RawMatrix().Data)

	// dL/db: sum the output gradient over the batch dimension.
	db := l.bias.EnsureGrad().AsFloat64()
	for i := 0; i < batch; i++ {
		floats.Add(db, gm.RawRowView(i))
	}

	// dL/dx for the previous layer.
	gradIn := tensor.Zeros(tensor.Shape{batch, l.inFeatures})
	gradIn.Matrix().Mul(gm, l.weight.Tensor().Matrix())
	return gradIn
}

// Parameters returns the trainable parameters of this layer.
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}

// StateDict returns a map of parameter names to raw tensors.
func (l *Linear) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor(),
		"bias":   l.bias.Tensor(),
	}
}

// LoadStateDict loads the layer's parameters from a state dictionary.
// Shapes and dtypes must match exactly.
func (l *Linear) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	weightRaw, ok := stateDict["weight"]
	if !ok {
		return fmt.Errorf("missing weight in state dict")
	}
	expectedWeightShape := tensor.Shape{l.outFeatures, l.inFeatures}
	if !weightRaw.Shape().Equal(expectedWeightShape) {
		return fmt.Errorf("weight shape mismatch: expected %v, got %v",
			expectedWeightShape, weightRaw.Shape())
	}
	if weightRaw.DType() != tensor.Float64 {
		return fmt.Errorf("weight dtype mismatch: expected float64, got %v", weightRaw.DType())
	}

	biasRaw, ok := stateDict["bias"]
	if !ok {
		return fmt.Errorf("missing bias in state dict")
	}
	expectedBiasShape := tensor.Shape{l.outFeatures}
	if !biasRaw.Shape().Equal(expectedBiasShape) {
		return fmt.Errorf("bias shape mismatch: expected %v, got %v",
			expectedBiasShape, biasRaw.Shape())
	}
	if biasRaw.DType() != tensor.Float64 {
		return fmt.Errorf("bias dtype mismatch: expected float64, got %v", biasRaw.DType())
	}

	copy(l.weight.Tensor().Data(), weightRaw.Data())
	copy(l.bias.Tensor().Data(), biasRaw.Data())
	return nil
}
