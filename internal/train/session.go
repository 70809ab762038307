// Package train runs epoch-based training loops for classifiers.
package train

import (
	"fmt"
	"io"
	"time"

	"github.com/kiln-ml/kiln/internal/checkpoint"
	"github.com/kiln-ml/kiln/internal/dataset"
	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/optim"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// EpochStats records the outcome of one training epoch.
type EpochStats struct {
	Epoch    int
	Loss     float64
	Accuracy float64
	Duration time.Duration
}

// Session ties together a model, an optimizer and a loss function, and
// accumulates per-epoch statistics over the course of training.
type Session struct {
	Model     *nn.Classifier
	Optimizer optim.Optimizer
	Loss      *nn.CrossEntropyLoss
	History   []EpochStats

	// Log, if non-nil, receives one line per epoch.
	Log io.Writer
}

// NewSession creates a training session.
func NewSession(model *nn.Classifier, opt optim.Optimizer) *Session {
	return &Session{
		Model:     model,
		Optimizer: opt,
		Loss:      nn.NewCrossEntropyLoss(),
	}
}

// TrainEpoch runs one pass over the loader, updating the model after every
// batch, and appends the epoch's statistics to History.
func (s *Session) TrainEpoch(loader *dataset.Loader) EpochStats {
	start := time.Now()
	loader.Reset()

	var totalLoss float64
	var correct, seen, batches int
	for {
		batch, ok := loader.Next()
		if !ok {
			break
		}

		s.Optimizer.ZeroGrad()
		logits := s.Model.Forward(batch.Inputs)
		loss := s.Loss.Forward(logits, batch.Targets)
		s.Model.Backward(s.Loss.Backward())
		s.Optimizer.Step()

		totalLoss += loss
		correct += countCorrect(logits, batch.Targets)
		seen += len(batch.Targets)
		batches++
	}

	stats := EpochStats{
		Epoch:    len(s.History) + 1,
		Loss:     totalLoss / float64(batches),
		Accuracy: float64(correct) / float64(seen),
		Duration: time.Since(start),
	}
	s.History = append(s.History, stats)
	if s.Log != nil {
		fmt.Fprintf(s.Log, "epoch %d: loss=%.4f acc=%.2f%% (%s)\n",
			stats.Epoch, stats.Loss, stats.Accuracy*100, stats.Duration.Round(time.Millisecond))
	}
	return stats
}

// Evaluate runs the model over the loader without updating parameters and
// returns the mean loss and accuracy.
func (s *Session) Evaluate(loader *dataset.Loader) (float64, float64) {
	loader.Reset()

	var totalLoss float64
	var correct, seen, batches int
	for {
		batch, ok := loader.Next()
		if !ok {
			break
		}
		logits := s.Model.Forward(batch.Inputs)
		totalLoss += s.Loss.Forward(logits, batch.Targets)
		correct += countCorrect(logits, batch.Targets)
		seen += len(batch.Targets)
		batches++
	}
	if batches == 0 {
		return 0, 0
	}
	return totalLoss / float64(batches), float64(correct) / float64(seen)
}

// Checkpoint saves the current model state to path.
func (s *Session) Checkpoint(path string) error {
	return checkpoint.Save(path, s.Model)
}

// countCorrect compares argmax over each logits row to the target label.
func countCorrect(logits *tensor.RawTensor, targets []int) int {
	shape := logits.Shape()
	batch, classes := shape[0], shape[1]
	data := logits.AsFloat64()

	correct := 0
	for i := 0; i < batch; i++ {
		row := data[i*classes : (i+1)*classes]
		best := 0
		for j := 1; j < classes; j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		if best == targets[i] {
			correct++
		}
	}
	return correct
}
