package nn

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Xavier returns a tensor initialized with Xavier/Glorot uniform values:
// U(-sqrt(6/(fan_in+fan_out)), sqrt(6/(fan_in+fan_out))).
//
// This initialization keeps the variance of activations roughly constant
// across layers, which matters for training dynamics with sigmoid/tanh and
// works well with ReLU too.
func Xavier(fanIn, fanOut int, shape tensor.Shape) *tensor.RawTensor {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	dist := distuv.Uniform{Min: -bound, Max: bound}

	raw := tensor.Zeros(shape)
	data := raw.AsFloat64()
	for i := range data {
		data[i] = dist.Rand()
	}
	return raw
}
