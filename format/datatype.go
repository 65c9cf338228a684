// Package format defines the small, dependency-free enums shared across the
// rest of the codec: the element datatype tag of an array and the pipeline
// stage roles used to validate chain shape.
package format

import "fmt"

// Datatype identifies the element type of an array passed to Compress.
//
// The numeric values are stable and must never be renumbered. Frames do not
// record the datatype: the caller passes it back to Decompress.
type Datatype uint8

const (
	// Float is IEEE-754 single precision.
	Float Datatype = iota
	// Double is IEEE-754 double precision.
	Double
	// Int8 is a signed 8-bit integer.
	Int8
	// Int16 is a signed 16-bit integer.
	Int16
	// Int32 is a signed 32-bit integer.
	Int32
	// Int64 is a signed 64-bit integer.
	Int64
	// Binary is an opaque fixed-width byte blob, passed through untouched by
	// lossy stages.
	Binary
	// String is treated as an opaque byte blob; no lossy codec ever inspects it.
	String
)

// ElemSize returns the size in bytes of a single element of the datatype.
// Binary and String return 1, since their "element" is a single byte of an
// opaque stream; callers size the buffer from the element count directly.
func (d Datatype) ElemSize() int {
	switch d {
	case Float:
		return 4
	case Double, Int64:
		return 8
	case Int8, Binary, String:
		return 1
	case Int16:
		return 2
	case Int32:
		return 4
	default:
		return 0
	}
}

// IsFloat reports whether the datatype is a floating-point type, i.e. one
// that lossy accuracy-hint codecs (sigbits, abstol) may legally target.
func (d Datatype) IsFloat() bool {
	return d == Float || d == Double
}

// IsInteger reports whether the datatype is a fixed-width signed integer.
func (d Datatype) IsInteger() bool {
	switch d {
	case Int8, Int16, Int32, Int64:
		return true
	default:
		return false
	}
}

// IsOpaque reports whether the datatype carries no numeric meaning: the
// lossy codecs refuse it, while memcopy and the byte compressors accept it.
func (d Datatype) IsOpaque() bool {
	return d == Binary || d == String
}

// String implements fmt.Stringer.
func (d Datatype) String() string {
	switch d {
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case Int8:
		return "INT8"
	case Int16:
		return "INT16"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Binary:
		return "BINARY"
	case String:
		return "STRING"
	default:
		return fmt.Sprintf("Datatype(%d)", uint8(d))
	}
}

// Valid reports whether d is one of the defined datatype constants.
func (d Datatype) Valid() bool {
	return d <= String
}
