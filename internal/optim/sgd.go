package optim

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kiln-ml/kiln/internal/nn"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD struct {
	params     []*nn.Parameter
	lr         float64
	momentum   float64
	velocities map[*nn.Parameter][]float64
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer bound to the given parameters.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter][]float64),
	}
}

// Step performs a single optimization step.
func (s *SGD) Step() {
	for _, param := range s.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}
		g := grad.AsFloat64()
		p := param.Tensor().AsFloat64()

		if s.momentum == 0 {
			floats.AddScaled(p, -s.lr, g)
			continue
		}

		v, ok := s.velocities[param]
		if !ok {
			v = make([]float64, len(p))
			s.velocities[param] = v
		}
		floats.Scale(s.momentum, v)
		floats.Add(v, g)
		floats.AddScaled(p, -s.lr, v)
	}
}

// ZeroGrad clears gradients for all bound parameters.
func (s *SGD) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// LR returns the current learning rate.
func (s *SGD) LR() float64 {
	return s.lr
}

// SetLR updates the learning rate. Useful for schedules.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
