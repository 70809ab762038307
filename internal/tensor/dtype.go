// Package tensor provides the shaped numeric arrays shared by the model,
// the optimizers and the checkpoint codec.
package tensor

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types.
const (
	Float64 DataType = iota
	Float32
	Int64
	Uint8
)

// Size returns the size of one element in bytes.
func (d DataType) Size() int {
	switch d {
	case Float64, Int64:
		return 8
	case Float32:
		return 4
	case Uint8:
		return 1
	default:
		return 0
	}
}

// String returns a human-readable type name.
func (d DataType) String() string {
	switch d {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}
