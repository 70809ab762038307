package nn

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Architecture fully determines the layer shapes of a Classifier: input
// dimensionality, output dimensionality and the ordered hidden-layer widths
// in forward-pass order.
//
// The descriptor is an explicit value threaded alongside the model from
// construction; widths are never recovered by introspecting a live layer
// list after the fact.
type Architecture struct {
	InputSize    int
	OutputSize   int
	HiddenLayers []int
}

// Validate checks that every dimension is a positive integer.
func (a Architecture) Validate() error {
	if a.InputSize <= 0 {
		return fmt.Errorf("invalid input size: %d (must be > 0)", a.InputSize)
	}
	if a.OutputSize <= 0 {
		return fmt.Errorf("invalid output size: %d (must be > 0)", a.OutputSize)
	}
	for i, width := range a.HiddenLayers {
		if width <= 0 {
			return fmt.Errorf("invalid hidden layer width at index %d: %d (must be > 0)", i, width)
		}
	}
	return nil
}

// Clone returns a copy with an independent hidden-layer slice.
func (a Architecture) Clone() Architecture {
	return Architecture{
		InputSize:    a.InputSize,
		OutputSize:   a.OutputSize,
		HiddenLayers: append([]int(nil), a.HiddenLayers...),
	}
}

// Equal reports whether two architectures describe identical layer shapes.
func (a Architecture) Equal(other Architecture) bool {
	if a.InputSize != other.InputSize || a.OutputSize != other.OutputSize {
		return false
	}
	if len(a.HiddenLayers) != len(other.HiddenLayers) {
		return false
	}
	for i, w := range a.HiddenLayers {
		if w != other.HiddenLayers[i] {
			return false
		}
	}
	return true
}

// Classifier is a feed-forward network: a stack of Linear+ReLU hidden
// layers followed by a Linear output layer producing raw logits.
//
// State dict naming convention:
//
//	hidden_layers.<i>.weight   [width_i, prev_width]
//	hidden_layers.<i>.bias     [width_i]
//	output.weight              [output_size, last_width]
//	output.bias                [output_size]
type Classifier struct {
	arch   Architecture
	hidden []*Linear
	acts   []*ReLU
	output *Linear
}

// NewClassifier builds a classifier from an architecture descriptor with
// Xavier-initialized weights and zero biases.
func NewClassifier(arch Architecture) (*Classifier, error) {
	if err := arch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid architecture: %w", err)
	}

	c := &Classifier{arch: arch.Clone()}
	prev := arch.InputSize
	for _, width := range arch.HiddenLayers {
		c.hidden = append(c.hidden, NewLinear(prev, width))
		c.acts = append(c.acts, NewReLU())
		prev = width
	}
	c.output = NewLinear(prev, arch.OutputSize)
	return c, nil
}

// Architecture returns a copy of the model's architecture descriptor.
func (c *Classifier) Architecture() Architecture {
	return c.arch.Clone()
}

// Forward computes logits for a batch.
//
// Input shape: [batch_size, input_size]
// Output shape: [batch_size, output_size] (raw logits, no softmax)
func (c *Classifier) Forward(input *tensor.RawTensor) *tensor.RawTensor {
	x := input
	for i, layer := range c.hidden {
		x = layer.Forward(x)
		x = c.acts[i].Forward(x)
	}
	return c.output.Forward(x)
}

// Backward propagates the logit gradient through the network, accumulating
// parameter gradients, and returns the gradient with respect to the input.
func (c *Classifier) Backward(grad *tensor.RawTensor) *tensor.RawTensor {
	g := c.output.Backward(grad)
	for i := len(c.hidden) - 1; i >= 0; i-- {
		g = c.acts[i].Backward(g)
		g = c.hidden[i].Backward(g)
	}
	return g
}

// Parameters returns all trainable parameters in forward-pass order.
func (c *Classifier) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range c.hidden {
		params = append(params, layer.Parameters()...)
	}
	params = append(params, c.output.Parameters()...)
	return params
}

// namedParam is one expected state dict entry in forward-pass order.
type namedParam struct {
	name  string
	param *Parameter
}

func (c *Classifier) namedParams() []namedParam {
	var entries []namedParam
	for i, layer := range c.hidden {
		entries = append(entries,
			namedParam{fmt.Sprintf("hidden_layers.%d.weight", i), layer.Weight()},
			namedParam{fmt.Sprintf("hidden_layers.%d.bias", i), layer.Bias()},
		)
	}
	entries = append(entries,
		namedParam{"output.weight", c.output.Weight()},
		namedParam{"output.bias", c.output.Bias()},
	)
	return entries
}

// StateDict returns a map of layer-qualified parameter names to the live
// parameter tensors. Callers that need an independent copy (e.g. the
// checkpoint encoder) must Clone the values.
func (c *Classifier) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for _, e := range c.namedParams() {
		stateDict[e.name] = e.param.Tensor()
	}
	return stateDict
}

// LoadStateDict loads parameters from a state dictionary by exact
// name-and-shape match. The load is all-or-nothing: validation runs over
// the complete dictionary first and no parameter is mutated unless every
// expected entry matches.
//
// Failure modes, in precedence order, each enumerating every instance of
// its class:
//   - *ArchitectureMismatchError: at least one stored shape disagrees
//   - *MissingKeysError: the dictionary lacks expected entries
//   - *UnexpectedKeysError: the dictionary has extra entries (strict only)
//
// With strict=false, unexpected keys are tolerated and returned to the
// caller instead of failing the load.
func (c *Classifier) LoadStateDict(stateDict map[string]*tensor.RawTensor, strict bool) ([]string, error) {
	entries := c.namedParams()

	var mismatches []ShapeMismatch
	var missing []string
	for _, e := range entries {
		raw, ok := stateDict[e.name]
		if !ok {
			missing = append(missing, e.name)
			continue
		}
		want := e.param.Tensor().Shape()
		if !raw.Shape().Equal(want) {
			mismatches = append(mismatches, ShapeMismatch{Name: e.name, Want: want, Got: raw.Shape()})
			continue
		}
		if raw.DType() != tensor.Float64 {
			return nil, fmt.Errorf("tensor %q: dtype %v, expected float64", e.name, raw.DType())
		}
	}

	expected := make(map[string]bool, len(entries))
	for _, e := range entries {
		expected[e.name] = true
	}
	var unexpected []string
	for name := range stateDict {
		if !expected[name] {
			unexpected = append(unexpected, name)
		}
	}
	unexpected = sortedKeys(unexpected)

	switch {
	case len(mismatches) > 0:
		return nil, &ArchitectureMismatchError{Mismatches: mismatches}
	case len(missing) > 0:
		return nil, &MissingKeysError{Keys: missing}
	case strict && len(unexpected) > 0:
		return nil, &UnexpectedKeysError{Keys: unexpected}
	}

	// Commit: everything validated, copy the data in.
	for _, e := range entries {
		copy(e.param.Tensor().Data(), stateDict[e.name].Data())
	}
	return unexpected, nil
}
