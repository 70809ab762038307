// Package checkpoint implements the model checkpoint codec: it serializes
// a classifier's architecture descriptor and learned parameters to a .kiln
// file and reconstructs an equivalent model from one.
//
// A checkpoint record combines the three architecture fields (input_size,
// output_size, hidden_layers) with a state_dict mapping layer-qualified
// parameter names to numeric arrays. Loads are all-or-nothing: a failed
// load leaves the target model's parameters bitwise untouched.
package checkpoint

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/serialization"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Record is the in-memory form of one persisted checkpoint: an architecture
// descriptor plus a deep copy of every named parameter array.
type Record struct {
	InputSize    int
	OutputSize   int
	HiddenLayers []int
	StateDict    map[string]*tensor.RawTensor
}

// Architecture returns the record's architecture descriptor.
func (r *Record) Architecture() nn.Architecture {
	return nn.Architecture{
		InputSize:    r.InputSize,
		OutputSize:   r.OutputSize,
		HiddenLayers: append([]int(nil), r.HiddenLayers...),
	}
}

// Option configures decoding behavior.
type Option func(*config)

type config struct {
	lenientKeys  bool
	skipChecksum bool
}

// WithLenientKeys downgrades unexpected state-dict keys from a hard failure
// to a tolerated, reported condition. Missing keys and shape mismatches
// remain fatal regardless.
func WithLenientKeys() Option {
	return func(c *config) { c.lenientKeys = true }
}

// WithoutChecksum skips checksum validation when reading. Use only with
// trusted files.
func WithoutChecksum() Option {
	return func(c *config) { c.skipChecksum = true }
}

func applyOptions(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Encode produces a Record from a live model: the architecture descriptor
// and a deep, shape-preserving copy of every named parameter array. The
// record is independent of the model; later training steps do not alter it.
func Encode(model *nn.Classifier) *Record {
	arch := model.Architecture()
	stateDict := make(map[string]*tensor.RawTensor)
	for name, raw := range model.StateDict() {
		stateDict[name] = raw.Clone()
	}
	return &Record{
		InputSize:    arch.InputSize,
		OutputSize:   arch.OutputSize,
		HiddenLayers: arch.HiddenLayers,
		StateDict:    stateDict,
	}
}

// Save encodes the model and writes the record to path, fully overwriting
// any prior content there. Atomicity of the write is owned by the
// underlying storage; a failure mid-write leaves the file undefined.
func Save(path string, model *nn.Classifier) error {
	return writeRecord(path, Encode(model))
}

func writeRecord(path string, rec *Record) error {
	writer, err := serialization.NewWriter(path)
	if err != nil {
		return fmt.Errorf("checkpoint save: %w", err)
	}

	header := serialization.Header{
		InputSize:    rec.InputSize,
		OutputSize:   rec.OutputSize,
		HiddenLayers: append([]int(nil), rec.HiddenLayers...),
	}

	if err := writer.WriteStateDict(rec.StateDict, header); err != nil {
		_ = writer.Close()
		return fmt.Errorf("checkpoint save: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("checkpoint save: %w", err)
	}
	return nil
}

// Read reads a Record back from path without constructing a model.
func Read(path string, opts ...Option) (*Record, error) {
	cfg := applyOptions(opts)

	reader, err := serialization.NewReaderWithOptions(path, serialization.ReaderOptions{
		SkipChecksumValidation: cfg.skipChecksum,
		ValidationLevel:        serialization.ValidationStrict,
	})
	if err != nil {
		return nil, fmt.Errorf("checkpoint read %s: %w", path, err)
	}
	defer func() { _ = reader.Close() }()

	header := reader.Header()
	stateDict, err := reader.ReadStateDict()
	if err != nil {
		return nil, fmt.Errorf("checkpoint read %s: %w", path, err)
	}

	return &Record{
		InputSize:    header.InputSize,
		OutputSize:   header.OutputSize,
		HiddenLayers: append([]int(nil), header.HiddenLayers...),
		StateDict:    stateDict,
	}, nil
}

// Load reads a record from path, constructs a fresh model from the
// record's architecture fields, and loads the parameter arrays into it by
// exact name-and-shape match.
//
// Decoding is all-or-nothing: an inconsistent record (hidden-layer widths
// that disagree with the stored arrays, missing or unexpected keys) fails
// without producing a model.
func Load(path string, opts ...Option) (*nn.Classifier, error) {
	rec, err := Read(path, opts...)
	if err != nil {
		return nil, err
	}

	arch := rec.Architecture()
	if err := arch.Validate(); err != nil {
		return nil, fmt.Errorf("checkpoint load %s: %w", path, err)
	}

	model, err := nn.NewClassifier(arch)
	if err != nil {
		return nil, fmt.Errorf("checkpoint load %s: %w", path, err)
	}

	cfg := applyOptions(opts)
	if _, err := model.LoadStateDict(rec.StateDict, !cfg.lenientKeys); err != nil {
		return nil, fmt.Errorf("checkpoint load %s: %w", path, err)
	}
	return model, nil
}

// LoadInto loads the record at path into an existing model. Every expected
// parameter must match by name and shape or the call fails with the
// model's parameters bitwise unchanged. Under WithLenientKeys, tensor
// names the model has no parameter for are skipped and returned.
func LoadInto(path string, model *nn.Classifier, opts ...Option) ([]string, error) {
	rec, err := Read(path, opts...)
	if err != nil {
		return nil, err
	}

	cfg := applyOptions(opts)
	ignored, err := model.LoadStateDict(rec.StateDict, !cfg.lenientKeys)
	if err != nil {
		return nil, fmt.Errorf("checkpoint load %s: %w", path, err)
	}
	return ignored, nil
}
