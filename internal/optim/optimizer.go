// Package optim implements optimization algorithms for training:
//   - Optimizer interface: base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers read the gradients accumulated on their bound parameters by
// the model's backward pass and update the parameters in place. The vector
// arithmetic is delegated to gonum's floats package.
package optim

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies one gradient update to all bound parameters.
	// Parameters with no accumulated gradient are skipped.
	Step()

	// ZeroGrad clears all parameter gradients. Call before each backward
	// pass to prevent accumulation across iterations.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float64
}

// Config is the base configuration shared by optimizers.
type Config struct {
	LR float64 // Learning rate
}
