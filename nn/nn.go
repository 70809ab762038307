// Copyright 2025 The Kiln Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for kiln's neural network layers.
package nn

import (
	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Module is the common interface for all network modules.
type Module = nn.Module

// Parameter represents a trainable parameter in a network.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer with Xavier initialization.
func NewLinear(inFeatures, outFeatures int) *Linear {
	return nn.NewLinear(inFeatures, outFeatures)
}

// ReLU is the rectified linear activation.
type ReLU = nn.ReLU

// NewReLU creates a new ReLU activation.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// Models

// Architecture describes a classifier's layer sizes.
type Architecture = nn.Architecture

// Classifier is a feed-forward multi-layer perceptron classifier.
type Classifier = nn.Classifier

// NewClassifier creates a classifier with Xavier-initialized parameters.
//
// Example:
//
//	model, err := nn.NewClassifier(nn.Architecture{
//		InputSize:    784,
//		OutputSize:   10,
//		HiddenLayers: []int{512, 256, 128},
//	})
func NewClassifier(arch Architecture) (*Classifier, error) {
	return nn.NewClassifier(arch)
}

// Loss functions

// CrossEntropyLoss combines softmax and negative log-likelihood.
type CrossEntropyLoss = nn.CrossEntropyLoss

// NewCrossEntropyLoss creates a new cross-entropy loss.
func NewCrossEntropyLoss() *CrossEntropyLoss {
	return nn.NewCrossEntropyLoss()
}

// Errors

// ShapeMismatch describes one tensor whose stored shape differs from the
// model's.
type ShapeMismatch = nn.ShapeMismatch

// ArchitectureMismatchError reports every tensor whose shape differs between
// a state dict and a model.
type ArchitectureMismatchError = nn.ArchitectureMismatchError

// MissingKeysError reports model parameters absent from a state dict.
type MissingKeysError = nn.MissingKeysError

// UnexpectedKeysError reports state dict entries with no matching parameter.
type UnexpectedKeysError = nn.UnexpectedKeysError
