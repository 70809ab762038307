// Package serialization implements the .kiln container format used to
// persist checkpoint records.
//
//	Format structure:
//	  [64 bytes: fixed header]
//	    0x00-0x03  Magic "KILN"
//	    0x04-0x07  Version (uint32 LE)
//	    0x08-0x0B  Flags (uint32 LE)
//	    0x0C-0x0F  Reserved
//	    0x10-0x17  Header size (uint64 LE)
//	    0x18-0x1F  Data size (uint64 LE)
//	    0x20-0x3F  SHA-256 checksum of the tensor data section
//	  [Header: JSON metadata — architecture fields + tensor index]
//	  [Tensor data: raw bytes, 64-byte aligned, in index order]
//
// The JSON header carries the architecture descriptor (input_size,
// output_size, hidden_layers) and a state_dict index mapping each tensor
// name to its dtype, shape, offset and size within the data section.
// Tensors are written in sorted-name order so repeated saves of the same
// model are byte-identical.
package serialization
