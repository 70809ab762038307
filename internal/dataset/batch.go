package dataset

import (
	"math/rand"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Batch is one mini-batch of examples. Inputs has shape [n, dim].
type Batch struct {
	Inputs  *tensor.RawTensor
	Targets []int
}

// Loader iterates over a Dataset in mini-batches, optionally shuffling the
// example order at each Reset.
type Loader struct {
	data      *Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	order     []int
	pos       int
}

// NewLoader creates a Loader over data. If shuffle is true the example order
// is reshuffled with the given seed on every Reset, so runs with the same
// seed see the same batches.
func NewLoader(data *Dataset, batchSize int, shuffle bool, seed int64) *Loader {
	if batchSize <= 0 {
		batchSize = 1
	}
	l := &Loader{
		data:      data,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
		order:     make([]int, data.Len()),
	}
	l.Reset()
	return l
}

// Reset rewinds the loader and reshuffles if shuffling is enabled.
func (l *Loader) Reset() {
	for i := range l.order {
		l.order[i] = i
	}
	if l.shuffle {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
	l.pos = 0
}

// Next returns the next batch, or (nil, false) when the epoch is exhausted.
// The final batch may hold fewer than batchSize examples.
func (l *Loader) Next() (*Batch, bool) {
	if l.pos >= len(l.order) {
		return nil, false
	}
	end := l.pos + l.batchSize
	if end > len(l.order) {
		end = len(l.order)
	}
	idx := l.order[l.pos:end]
	l.pos = end

	n := len(idx)
	dim := l.data.Dim()
	inputs := tensor.Zeros(tensor.Shape{n, dim})
	flat := inputs.AsFloat64()
	targets := make([]int, n)
	for bi, di := range idx {
		copy(flat[bi*dim:(bi+1)*dim], l.data.Image(di))
		targets[bi] = l.data.Label(di)
	}
	return &Batch{Inputs: inputs, Targets: targets}, true
}

// NumBatches returns the number of batches per epoch.
func (l *Loader) NumBatches() int {
	n := l.data.Len()
	return (n + l.batchSize - 1) / l.batchSize
}
