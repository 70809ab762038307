package serialization

import (
	"time"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "KILN"
	FormatVersion   = 1
	HeaderAlignment = 64   // Tensor data is aligned to 64 bytes
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Data type string constants for serialization.
const (
	DTypeFloat64 = "float64"
	DTypeFloat32 = "float32"
	DTypeInt64   = "int64"
	DTypeUint8   = "uint8"
)

// Flags for the .kiln format.
const (
	FlagHasMetadata uint32 = 1 << 0 // bit 0: custom metadata included
)

// Header is the JSON header of a .kiln file: the checkpoint record's
// architecture fields plus the tensor index.
type Header struct {
	FormatVersion int               `json:"format_version"`
	KilnVersion   string            `json:"kiln_version"`
	CreatedAt     time.Time         `json:"created_at"`
	InputSize     int               `json:"input_size"`
	OutputSize    int               `json:"output_size"`
	HiddenLayers  []int             `json:"hidden_layers"`
	StateDict     []TensorMeta      `json:"state_dict"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // Parameter name (e.g. "hidden_layers.0.weight")
	DType  string `json:"dtype"`  // Data type (e.g. "float64")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in bytes from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// dtypeToString converts tensor.DataType to its string representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Int64:
		return DTypeInt64
	case tensor.Uint8:
		return DTypeUint8
	default:
		return "unknown"
	}
}

// stringToDtype converts a string representation to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeInt64:
		return tensor.Int64, true
	case DTypeUint8:
		return tensor.Uint8, true
	default:
		return 0, false
	}
}
