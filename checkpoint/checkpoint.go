// Copyright 2025 The Kiln Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint provides the public API for saving and loading
// classifier checkpoints.
//
// A checkpoint stores a model's architecture alongside a snapshot of its
// parameters. Loading is all-or-nothing: either every parameter matches by
// name and shape and the model is updated, or the model is left untouched
// and the error enumerates what differed.
//
// Example:
//
//	model, _ := nn.NewClassifier(nn.Architecture{
//		InputSize: 784, OutputSize: 10, HiddenLayers: []int{512, 256, 128},
//	})
//	if err := checkpoint.Save("model.kiln", model); err != nil { ... }
//	restored, err := checkpoint.Load("model.kiln")
package checkpoint

import (
	"github.com/kiln-ml/kiln/internal/checkpoint"
	"github.com/kiln-ml/kiln/internal/nn"
)

// Record is an in-memory checkpoint: an architecture description plus a
// snapshot of parameter tensors keyed by name.
type Record = checkpoint.Record

// Option adjusts how a checkpoint is loaded.
type Option = checkpoint.Option

// WithLenientKeys makes loading ignore state dict entries that have no
// matching model parameter instead of failing. Ignored keys are returned by
// LoadInto.
func WithLenientKeys() Option {
	return checkpoint.WithLenientKeys()
}

// WithoutChecksum skips checksum verification when reading a file.
func WithoutChecksum() Option {
	return checkpoint.WithoutChecksum()
}

// Encode snapshots a model into a Record without touching the filesystem.
func Encode(model *nn.Classifier) *Record {
	return checkpoint.Encode(model)
}

// Save writes a model snapshot to path in the .kiln container format.
func Save(path string, model *nn.Classifier) error {
	return checkpoint.Save(path, model)
}

// Read parses a checkpoint file into a Record without building a model.
func Read(path string, opts ...Option) (*Record, error) {
	return checkpoint.Read(path, opts...)
}

// Load reads a checkpoint and builds a fresh model from its recorded
// architecture.
func Load(path string, opts ...Option) (*nn.Classifier, error) {
	return checkpoint.Load(path, opts...)
}

// LoadInto restores a checkpoint's parameters into an existing model. The
// model is only modified if every tensor matches; under WithLenientKeys the
// returned slice lists the ignored extra keys.
func LoadInto(path string, model *nn.Classifier, opts ...Option) ([]string, error) {
	return checkpoint.LoadInto(path, model, opts...)
}
