package nn_test

import (
	"math"
	"testing"

	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/tensor"
)

func floatEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

// setLinear overwrites a layer's weight and bias with known values.
func setLinear(l *nn.Linear, weight, bias []float64) {
	copy(l.Weight().Tensor().AsFloat64(), weight)
	copy(l.Bias().Tensor().AsFloat64(), bias)
}

// TestLinearForward checks y = x @ W.T + b against hand-computed values.
func TestLinearForward(t *testing.T) {
	layer := nn.NewLinear(3, 2)
	// W = [[1, 2, 3], [4, 5, 6]], b = [0.5, -0.5]
	setLinear(layer, []float64{1, 2, 3, 4, 5, 6}, []float64{0.5, -0.5})

	input, _ := tensor.FromFloat64([]float64{
		1, 0, 0,
		1, 1, 1,
	}, tensor.Shape{2, 3})

	out := layer.Forward(input).AsFloat64()
	want := []float64{
		1.5, 3.5, // [1,0,0]: 1+0.5, 4-0.5
		6.5, 14.5, // [1,1,1]: 6+0.5, 15-0.5
	}
	for i, w := range want {
		if !floatEqual(out[i], w, 1e-12) {
			t.Errorf("output[%d] = %v, want %v", i, out[i], w)
		}
	}
}

// TestLinearForwardShapePanic verifies the input dimension check.
func TestLinearForwardShapePanic(t *testing.T) {
	layer := nn.NewLinear(3, 2)
	input := tensor.Zeros(tensor.Shape{2, 4})

	defer func() {
		if recover() == nil {
			t.Error("Forward should panic on a feature-count mismatch")
		}
	}()
	layer.Forward(input)
}

// TestLinearBackward checks the closed-form gradients for a single example.
func TestLinearBackward(t *testing.T) {
	layer := nn.NewLinear(2, 2)
	setLinear(layer, []float64{1, 2, 3, 4}, []float64{0, 0})

	input, _ := tensor.FromFloat64([]float64{5, 7}, tensor.Shape{1, 2})
	layer.Forward(input)

	grad, _ := tensor.FromFloat64([]float64{1, -1}, tensor.Shape{1, 2})
	gradIn := layer.Backward(grad)

	// dW = g.T @ x = [[5, 7], [-5, -7]]
	wantDW := []float64{5, 7, -5, -7}
	dw := layer.Weight().Grad().AsFloat64()
	for i, w := range wantDW {
		if !floatEqual(dw[i], w, 1e-12) {
			t.Errorf("dW[%d] = %v, want %v", i, dw[i], w)
		}
	}

	// db = g = [1, -1]
	db := layer.Bias().Grad().AsFloat64()
	if !floatEqual(db[0], 1, 1e-12) || !floatEqual(db[1], -1, 1e-12) {
		t.Errorf("db = %v, want [1 -1]", db)
	}

	// dx = g @ W = [1*1 + (-1)*3, 1*2 + (-1)*4] = [-2, -2]
	dx := gradIn.AsFloat64()
	if !floatEqual(dx[0], -2, 1e-12) || !floatEqual(dx[1], -2, 1e-12) {
		t.Errorf("dx = %v, want [-2 -2]", dx)
	}
}

// TestLinearBackwardAccumulates verifies gradients add up across calls
// until ZeroGrad.
func TestLinearBackwardAccumulates(t *testing.T) {
	layer := nn.NewLinear(2, 1)
	setLinear(layer, []float64{1, 1}, []float64{0})

	input, _ := tensor.FromFloat64([]float64{1, 2}, tensor.Shape{1, 2})
	grad, _ := tensor.FromFloat64([]float64{1}, tensor.Shape{1, 1})

	layer.Forward(input)
	layer.Backward(grad)
	layer.Forward(input)
	layer.Backward(grad)

	dw := layer.Weight().Grad().AsFloat64()
	if !floatEqual(dw[0], 2, 1e-12) || !floatEqual(dw[1], 4, 1e-12) {
		t.Errorf("accumulated dW = %v, want [2 4]", dw)
	}

	layer.Weight().ZeroGrad()
	if layer.Weight().Grad() != nil {
		t.Error("ZeroGrad should clear the gradient")
	}
}

// TestLinearXavierInit verifies weights land inside the Xavier bound and
// biases start at zero.
func TestLinearXavierInit(t *testing.T) {
	layer := nn.NewLinear(100, 50)
	bound := math.Sqrt(6.0 / (100 + 50))

	for i, w := range layer.Weight().Tensor().AsFloat64() {
		if w < -bound || w > bound {
			t.Fatalf("weight[%d] = %v outside Xavier bound ±%v", i, w, bound)
		}
	}
	for i, b := range layer.Bias().Tensor().AsFloat64() {
		if b != 0 {
			t.Fatalf("bias[%d] = %v, want 0", i, b)
		}
	}
}

// TestReLU checks the forward clamp and the backward mask.
func TestReLU(t *testing.T) {
	relu := nn.NewReLU()
	input, _ := tensor.FromFloat64([]float64{-1, 0, 2, -3}, tensor.Shape{2, 2})

	out := relu.Forward(input).AsFloat64()
	wantOut := []float64{0, 0, 2, 0}
	for i, w := range wantOut {
		if out[i] != w {
			t.Errorf("forward[%d] = %v, want %v", i, out[i], w)
		}
	}

	grad, _ := tensor.FromFloat64([]float64{1, 1, 1, 1}, tensor.Shape{2, 2})
	gin := relu.Backward(grad).AsFloat64()
	wantGrad := []float64{0, 0, 1, 0}
	for i, w := range wantGrad {
		if gin[i] != w {
			t.Errorf("backward[%d] = %v, want %v", i, gin[i], w)
		}
	}
}
