// Package errs collects the sentinel errors returned across the compression
// pipeline and the numeric error-code surface exposed to callers through
// Code. Callers compare with errors.Is rather than type assertions; wrapped
// causes remain reachable via errors.Unwrap.
package errs

import "errors"

var (
	// ErrInvalidDims is returned when a Dims value has rank 0, rank greater
	// than 4, or a negative axis length, or when a position passed to
	// LinearIndex does not fit the shape.
	ErrInvalidDims = errors.New("scil: invalid dims")

	// ErrInvalidDatatype is returned when a Datatype value is outside the
	// defined enum range, or is unsupported by the requested operation.
	ErrInvalidDatatype = errors.New("scil: invalid datatype")

	// ErrInvalidHints is returned when UserHints carries a self-contradictory
	// combination, e.g. both significant bits and significant digits, or a
	// negative tolerance.
	ErrInvalidHints = errors.New("scil: invalid hints")

	// ErrUnsupported is returned when an otherwise well-formed request asks
	// for a combination the implementation does not support, e.g. a lossy
	// hint against an opaque datatype.
	ErrUnsupported = errors.New("scil: unsupported operation")

	// ErrBufferTooSmall is returned when a caller-supplied destination buffer
	// cannot hold the operation's output.
	ErrBufferTooSmall = errors.New("scil: destination buffer too small")

	// ErrLossyForbidden is returned when a forced compression chain contains
	// a lossy stage but the caller's hints require a lossless result (no
	// accuracy hint set, or an absolute tolerance of zero).
	ErrLossyForbidden = errors.New("scil: lossy compression required but forbidden by hints")

	// ErrUnknownAlgorithm is returned when a forced compression method names
	// a stage (by name or numeric id) that is not registered.
	ErrUnknownAlgorithm = errors.New("scil: unknown compression algorithm")

	// ErrInvalidChain is returned when a sequence of stages violates the
	// role-sequencing grammar (too many preconditioners, misplaced
	// converter, missing terminal compressor, and so on).
	ErrInvalidChain = errors.New("scil: invalid stage chain")

	// ErrCorruptFrame is returned when a compressed frame fails to parse:
	// truncated header, inconsistent stage count, bad bitmap.
	ErrCorruptFrame = errors.New("scil: corrupt frame")

	// ErrUnknown wraps an error surfaced by a third-party back-end (lz4, s2,
	// zstd) that does not map to any of the above.
	ErrUnknown = errors.New("scil: unknown error")
)

// Code numbers the error surface of the library (see spec §6/§7). It returns
// 0 (NoErr) for a nil error, and UnknownErr for any error that isn't one of
// the sentinels above or doesn't wrap one of them.
type Code int

const (
	NoErr Code = iota
	EInval
	Unsupported
	BufferTooSmall
	LossyForbidden
	UnknownAlgorithm
	UnknownErr
)

// String implements fmt.Stringer.
func (c Code) String() string {
	switch c {
	case NoErr:
		return "NO_ERR"
	case EInval:
		return "EINVAL"
	case Unsupported:
		return "UNSUPPORTED"
	case BufferTooSmall:
		return "BUFFER_TOO_SMALL"
	case LossyForbidden:
		return "LOSSY_FORBIDDEN"
	case UnknownAlgorithm:
		return "UNKNOWN_ALGORITHM"
	default:
		return "UNKNOWN_ERR"
	}
}

// CodeOf maps err to its numeric Code via errors.Is, so a wrapped sentinel
// (e.g. fmt.Errorf("...: %w", ErrBufferTooSmall)) still resolves correctly.
func CodeOf(err error) Code {
	if err == nil {
		return NoErr
	}

	switch {
	case errors.Is(err, ErrInvalidDims), errors.Is(err, ErrInvalidDatatype), errors.Is(err, ErrInvalidHints), errors.Is(err, ErrInvalidChain):
		return EInval
	case errors.Is(err, ErrUnsupported):
		return Unsupported
	case errors.Is(err, ErrBufferTooSmall):
		return BufferTooSmall
	case errors.Is(err, ErrLossyForbidden):
		return LossyForbidden
	case errors.Is(err, ErrUnknownAlgorithm):
		return UnknownAlgorithm
	case errors.Is(err, ErrCorruptFrame):
		return EInval
	default:
		return UnknownErr
	}
}
