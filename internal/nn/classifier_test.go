package nn_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/tensor"
)

func mustClassifier(t *testing.T, arch nn.Architecture) *nn.Classifier {
	t.Helper()
	model, err := nn.NewClassifier(arch)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return model
}

// cloneStateDict deep-copies a model's state dict.
func cloneStateDict(model *nn.Classifier) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for name, raw := range model.StateDict() {
		out[name] = raw.Clone()
	}
	return out
}

func TestArchitectureValidate(t *testing.T) {
	cases := []struct {
		arch nn.Architecture
		ok   bool
	}{
		{nn.Architecture{InputSize: 784, OutputSize: 10, HiddenLayers: []int{512, 256, 128}}, true},
		{nn.Architecture{InputSize: 4, OutputSize: 2}, true},
		{nn.Architecture{InputSize: 0, OutputSize: 10}, false},
		{nn.Architecture{InputSize: 784, OutputSize: -1}, false},
		{nn.Architecture{InputSize: 784, OutputSize: 10, HiddenLayers: []int{128, 0}}, false},
	}
	for _, c := range cases {
		err := c.arch.Validate()
		if c.ok && err != nil {
			t.Errorf("Validate(%+v) = %v, want nil", c.arch, err)
		}
		if !c.ok && err == nil {
			t.Errorf("Validate(%+v) = nil, want error", c.arch)
		}
	}
}

// TestClassifierStateDictKeys checks the key naming convention and shapes
// for a 784 -> 512 -> 256 -> 128 -> 10 network.
func TestClassifierStateDictKeys(t *testing.T) {
	model := mustClassifier(t, nn.Architecture{
		InputSize:    784,
		OutputSize:   10,
		HiddenLayers: []int{512, 256, 128},
	})

	sd := model.StateDict()
	if len(sd) != 8 {
		t.Fatalf("state dict has %d entries, want 8", len(sd))
	}

	wantShapes := map[string]tensor.Shape{
		"hidden_layers.0.weight": {512, 784},
		"hidden_layers.0.bias":   {512},
		"hidden_layers.1.weight": {256, 512},
		"hidden_layers.1.bias":   {256},
		"hidden_layers.2.weight": {128, 256},
		"hidden_layers.2.bias":   {128},
		"output.weight":          {10, 128},
		"output.bias":            {10},
	}
	for name, want := range wantShapes {
		raw, ok := sd[name]
		if !ok {
			t.Errorf("state dict missing %q", name)
			continue
		}
		if !raw.Shape().Equal(want) {
			t.Errorf("%s shape = %v, want %v", name, raw.Shape(), want)
		}
	}
}

// TestClassifierForwardShape checks logits come out [batch, output_size]
// with no hidden layers and with several.
func TestClassifierForwardShape(t *testing.T) {
	for _, hidden := range [][]int{nil, {16}, {32, 16}} {
		model := mustClassifier(t, nn.Architecture{
			InputSize: 8, OutputSize: 3, HiddenLayers: hidden,
		})
		out := model.Forward(tensor.Zeros(tensor.Shape{5, 8}))
		if !out.Shape().Equal(tensor.Shape{5, 3}) {
			t.Errorf("hidden=%v: output shape = %v, want [5 3]", hidden, out.Shape())
		}
	}
}

// TestLoadStateDictRoundTrip: a state dict from one model loads into a
// same-architecture model and reproduces its outputs.
func TestLoadStateDictRoundTrip(t *testing.T) {
	arch := nn.Architecture{InputSize: 6, OutputSize: 4, HiddenLayers: []int{8, 5}}
	src := mustClassifier(t, arch)
	dst := mustClassifier(t, arch)

	if _, err := dst.LoadStateDict(cloneStateDict(src), true); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	input, _ := tensor.FromFloat64([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{1, 6})
	if !src.Forward(input).Equal(dst.Forward(input)) {
		t.Error("loaded model should reproduce the source model's outputs")
	}
}

// TestLoadStateDictShapeMismatches: loading arrays for hidden widths
// [512, 256, 128] into a [400, 200, 100] model reports exactly the seven
// mismatching tensors, in parameter order, and leaves output.bias out
// because [10] matches on both sides.
func TestLoadStateDictShapeMismatches(t *testing.T) {
	src := mustClassifier(t, nn.Architecture{
		InputSize: 784, OutputSize: 10, HiddenLayers: []int{512, 256, 128},
	})
	dst := mustClassifier(t, nn.Architecture{
		InputSize: 784, OutputSize: 10, HiddenLayers: []int{400, 200, 100},
	})

	_, err := dst.LoadStateDict(cloneStateDict(src), true)
	var mismatch *nn.ArchitectureMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want *ArchitectureMismatchError", err)
	}

	wantNames := []string{
		"hidden_layers.0.weight",
		"hidden_layers.0.bias",
		"hidden_layers.1.weight",
		"hidden_layers.1.bias",
		"hidden_layers.2.weight",
		"hidden_layers.2.bias",
		"output.weight",
	}
	if len(mismatch.Mismatches) != len(wantNames) {
		t.Fatalf("got %d mismatches, want %d:\n%v", len(mismatch.Mismatches), len(wantNames), err)
	}
	for i, want := range wantNames {
		if mismatch.Mismatches[i].Name != want {
			t.Errorf("mismatch[%d] = %s, want %s", i, mismatch.Mismatches[i].Name, want)
		}
	}

	// output.bias is [10] in both models and must not be reported.
	for _, m := range mismatch.Mismatches {
		if m.Name == "output.bias" {
			t.Error("output.bias matches in shape and must not be reported")
		}
	}

	// The first entry carries the expected-vs-found shapes.
	first := mismatch.Mismatches[0]
	if !first.Want.Equal(tensor.Shape{400, 784}) || !first.Got.Equal(tensor.Shape{512, 784}) {
		t.Errorf("mismatch[0] = %v, want expected [400 784], got [512 784]", first)
	}
}

// TestLoadStateDictMissingKeys: absent entries fail with every missing name.
func TestLoadStateDictMissingKeys(t *testing.T) {
	model := mustClassifier(t, nn.Architecture{
		InputSize: 4, OutputSize: 2, HiddenLayers: []int{3},
	})
	sd := cloneStateDict(model)
	delete(sd, "hidden_layers.0.bias")
	delete(sd, "output.weight")

	_, err := model.LoadStateDict(sd, true)
	var missing *nn.MissingKeysError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *MissingKeysError", err)
	}
	if len(missing.Keys) != 2 {
		t.Fatalf("missing %d keys, want 2: %v", len(missing.Keys), missing.Keys)
	}
}

// TestLoadStateDictUnexpectedKeys: extra entries fail under strict matching
// and are returned, not applied, under lenient matching.
func TestLoadStateDictUnexpectedKeys(t *testing.T) {
	model := mustClassifier(t, nn.Architecture{
		InputSize: 4, OutputSize: 2, HiddenLayers: []int{3},
	})
	sd := cloneStateDict(model)
	sd["optimizer.state"] = tensor.Zeros(tensor.Shape{7})

	_, err := model.LoadStateDict(sd, true)
	var unexpected *nn.UnexpectedKeysError
	if !errors.As(err, &unexpected) {
		t.Fatalf("strict err = %v, want *UnexpectedKeysError", err)
	}
	if len(unexpected.Keys) != 1 || unexpected.Keys[0] != "optimizer.state" {
		t.Errorf("unexpected keys = %v, want [optimizer.state]", unexpected.Keys)
	}

	ignored, err := model.LoadStateDict(sd, false)
	if err != nil {
		t.Fatalf("lenient err = %v, want nil", err)
	}
	if len(ignored) != 1 || ignored[0] != "optimizer.state" {
		t.Errorf("ignored keys = %v, want [optimizer.state]", ignored)
	}
}

// TestLoadStateDictPrecedence: when shapes mismatch AND keys are missing
// AND extra keys exist, only the shape mismatches are reported.
func TestLoadStateDictPrecedence(t *testing.T) {
	model := mustClassifier(t, nn.Architecture{
		InputSize: 4, OutputSize: 2, HiddenLayers: []int{3},
	})
	sd := cloneStateDict(model)
	sd["hidden_layers.0.weight"] = tensor.Zeros(tensor.Shape{5, 4})
	delete(sd, "output.bias")
	sd["stray"] = tensor.Zeros(tensor.Shape{1})

	_, err := model.LoadStateDict(sd, true)
	var mismatch *nn.ArchitectureMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want *ArchitectureMismatchError", err)
	}
}

// TestLoadStateDictAtomicity: a failed load leaves every parameter
// bitwise identical.
func TestLoadStateDictAtomicity(t *testing.T) {
	model := mustClassifier(t, nn.Architecture{
		InputSize: 4, OutputSize: 2, HiddenLayers: []int{3, 3},
	})

	before := make(map[string][]byte)
	for name, raw := range model.StateDict() {
		before[name] = append([]byte(nil), raw.Data()...)
	}

	// Valid data for most entries, one bad shape.
	sd := cloneStateDict(model)
	for _, raw := range sd {
		for i, d := range raw.AsFloat64() {
			raw.AsFloat64()[i] = d + 1
		}
	}
	sd["hidden_layers.1.weight"] = tensor.Zeros(tensor.Shape{9, 9})

	if _, err := model.LoadStateDict(sd, true); err == nil {
		t.Fatal("LoadStateDict should fail on the bad shape")
	}

	for name, raw := range model.StateDict() {
		if !bytes.Equal(before[name], raw.Data()) {
			t.Errorf("parameter %s changed after a failed load", name)
		}
	}
}

// TestErrorMessageEnumeration: the error text lists one line per mismatch.
func TestErrorMessageEnumeration(t *testing.T) {
	err := &nn.ArchitectureMismatchError{Mismatches: []nn.ShapeMismatch{
		{Name: "hidden_layers.0.weight", Want: tensor.Shape{400, 784}, Got: tensor.Shape{512, 784}},
		{Name: "hidden_layers.0.bias", Want: tensor.Shape{400}, Got: tensor.Shape{512}},
	}}

	msg := err.Error()
	want := "architecture mismatch: 2 tensor(s) differ in shape:" +
		"\n  hidden_layers.0.weight: expected [400 784], got [512 784]" +
		"\n  hidden_layers.0.bias: expected [400], got [512]"
	if msg != want {
		t.Errorf("message =\n%q\nwant\n%q", msg, want)
	}
}

// TestClassifierParametersOrder: Parameters follows forward-pass order.
func TestClassifierParametersOrder(t *testing.T) {
	model := mustClassifier(t, nn.Architecture{
		InputSize: 4, OutputSize: 2, HiddenLayers: []int{3, 5},
	})
	params := model.Parameters()
	if len(params) != 6 {
		t.Fatalf("got %d parameters, want 6", len(params))
	}
	wantShapes := []tensor.Shape{
		{3, 4}, {3},
		{5, 3}, {5},
		{2, 5}, {2},
	}
	for i, want := range wantShapes {
		if !params[i].Tensor().Shape().Equal(want) {
			t.Errorf("param[%d] shape = %v, want %v", i, params[i].Tensor().Shape(), want)
		}
	}
}

// TestNumericalGradient validates the full backward pass against finite
// differences on a tiny network.
func TestNumericalGradient(t *testing.T) {
	model := mustClassifier(t, nn.Architecture{
		InputSize: 3, OutputSize: 2, HiddenLayers: []int{4},
	})
	loss := nn.NewCrossEntropyLoss()

	input, _ := tensor.FromFloat64([]float64{0.5, -0.2, 0.8}, tensor.Shape{1, 3})
	targets := []int{1}

	forward := func() float64 {
		return loss.Forward(model.Forward(input), targets)
	}

	forward()
	model.Backward(loss.Backward())

	const eps = 1e-6
	for pi, p := range model.Parameters() {
		data := p.Tensor().AsFloat64()
		grad := p.Grad().AsFloat64()
		for i := range data {
			orig := data[i]
			data[i] = orig + eps
			plus := forward()
			data[i] = orig - eps
			minus := forward()
			data[i] = orig

			numeric := (plus - minus) / (2 * eps)
			if !floatEqual(grad[i], numeric, 1e-5) {
				t.Fatalf("param %d elem %d: analytic grad %v, numeric %v",
					pi, i, grad[i], numeric)
			}
		}
	}
}

// TestNamedParamFormat pins the hidden-layer key template.
func TestNamedParamFormat(t *testing.T) {
	model := mustClassifier(t, nn.Architecture{
		InputSize: 2, OutputSize: 2, HiddenLayers: []int{2, 2, 2},
	})
	sd := model.StateDict()
	for i := 0; i < 3; i++ {
		for _, suffix := range []string{"weight", "bias"} {
			key := fmt.Sprintf("hidden_layers.%d.%s", i, suffix)
			if _, ok := sd[key]; !ok {
				t.Errorf("state dict missing %q", key)
			}
		}
	}
}
