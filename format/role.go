package format

import "fmt"

// Role classifies a pipeline stage's position in a chain. The chooser and
// chain validator use it to enforce the stage-sequencing grammar:
//
//	PRECOND_FIRST* (CONVERTER PRECOND_SECOND*)? (DATA_COMPRESSOR | BYTE_COMPRESSOR) BYTE_COMPRESSOR?
type Role uint8

const (
	// PrecondFirst stages run before any datatype conversion, operating on
	// the array in its original element type (e.g. lossy truncation of
	// floats/doubles).
	PrecondFirst Role = iota
	// Converter stages change the element datatype, e.g. float64 -> int64
	// quantization.
	Converter
	// PrecondSecond stages run after conversion, operating on the converted
	// (usually integer) representation.
	PrecondSecond
	// DataCompressor stages are algorithms that understand the converted
	// element stream directly, as opposed to treating it as opaque bytes.
	DataCompressor
	// ByteCompressor stages treat their input as an opaque byte string and
	// may appear at most twice: once in the DATA_COMPRESSOR slot, once as the
	// final tail stage.
	ByteCompressor
)

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r {
	case PrecondFirst:
		return "PRECOND_FIRST"
	case Converter:
		return "CONVERTER"
	case PrecondSecond:
		return "PRECOND_SECOND"
	case DataCompressor:
		return "DATA_COMPRESSOR"
	case ByteCompressor:
		return "BYTE_COMPRESSOR"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}
