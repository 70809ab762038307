package nn

import (
	"fmt"
	"math"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// CrossEntropyLoss computes cross-entropy loss for multi-class
// classification.
//
// The implementation uses the log-sum-exp trick for numerical stability:
//
//	Loss = mean over batch of (logsumexp(logits) - logits[target])
//
// and the closed-form gradient:
//
//	dL/dlogits = (Softmax(logits) - y_one_hot) / batch_size
//
// Forward expects raw logits (unnormalized scores); no softmax should be
// applied by the model.
type CrossEntropyLoss struct {
	probs   *tensor.RawTensor // Softmax probabilities cached by Forward
	targets []int
}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss() *CrossEntropyLoss {
	return &CrossEntropyLoss{}
}

// Forward computes the mean cross-entropy loss over the batch.
//
// logits must have shape [batch_size, num_classes]; targets holds one class
// index per batch row.
func (c *CrossEntropyLoss) Forward(logits *tensor.RawTensor, targets []int) float64 {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic("CrossEntropyLoss: logits must be 2D [batch_size, num_classes]")
	}
	batchSize := shape[0]
	numClasses := shape[1]
	if len(targets) != batchSize {
		panic(fmt.Sprintf("CrossEntropyLoss: expected %d targets, got %d", batchSize, len(targets)))
	}

	probs := tensor.Zeros(tensor.Shape{batchSize, numClasses})
	logitsData := logits.AsFloat64()
	probsData := probs.AsFloat64()

	var total float64
	for i := 0; i < batchSize; i++ {
		row := logitsData[i*numClasses : (i+1)*numClasses]
		target := targets[i]
		if target < 0 || target >= numClasses {
			panic(fmt.Sprintf("CrossEntropyLoss: target %d out of range [0, %d)", target, numClasses))
		}

		// log-sum-exp with the max subtracted to avoid overflow.
		maxLogit := row[0]
		for _, v := range row[1:] {
			if v > maxLogit {
				maxLogit = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(v - maxLogit)
		}
		logSumExp := maxLogit + math.Log(sumExp)

		pRow := probsData[i*numClasses : (i+1)*numClasses]
		for j, v := range row {
			pRow[j] = math.Exp(v-maxLogit) / sumExp
		}

		total += logSumExp - row[target]
	}

	c.probs = probs
	c.targets = append(c.targets[:0], targets...)
	return total / float64(batchSize)
}

// Backward returns dL/dlogits for the most recent Forward call.
func (c *CrossEntropyLoss) Backward() *tensor.RawTensor {
	if c.probs == nil {
		panic("CrossEntropyLoss.Backward: called before Forward")
	}
	shape := c.probs.Shape()
	batchSize := shape[0]
	numClasses := shape[1]

	grad := c.probs.Clone()
	data := grad.AsFloat64()
	for i, target := range c.targets {
		data[i*numClasses+target] -= 1.0
	}
	inv := 1.0 / float64(batchSize)
	for i := range data {
		data[i] *= inv
	}
	return grad
}
