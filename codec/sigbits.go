package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/stage"
)

// sigbitsStage truncates the mantissa of each float/double element to a
// fixed number of significant bits, rounding half-up at the truncation
// point. It runs PRECOND_FIRST: the truncated value is stored directly, so
// Decompress is an identity pass-through of the payload.
type sigbitsStage struct{}

const sigbitsID uint8 = 1

func init() {
	stage.Register(&sigbitsStage{})
}

func (sigbitsStage) ID() uint8         { return sigbitsID }
func (sigbitsStage) Name() string      { return "sigbits" }
func (sigbitsStage) Role() format.Role { return format.PrecondFirst }
func (sigbitsStage) IsLossy() bool     { return true }

func (sigbitsStage) OutputDatatype(in format.Datatype) format.Datatype { return in }

func (s sigbitsStage) Compress(ctx *stage.Context, src []byte) (header []byte, payload []byte, err error) {
	if !ctx.Datatype.IsFloat() {
		return nil, nil, fmt.Errorf("%w: sigbits requires a float datatype, got %s", errs.ErrUnsupported, ctx.Datatype)
	}

	elemSize := ctx.Datatype.ElemSize()
	if len(src)%elemSize != 0 {
		return nil, nil, fmt.Errorf("%w: source length %d not a multiple of element size %d", errs.ErrCorruptFrame, len(src), elemSize)
	}

	// k is the number of explicit mantissa bits retained: significant_bits
	// counts the implicit leading 1 as the first significant bit, so
	// k = significant_bits - 1. An unset (<=0) hint means "keep everything".
	k := maxMantissaBitsFor(ctx.Datatype)
	if ctx.Hints.SignificantBits > 0 {
		k = ctx.Hints.SignificantBits - 1
		if k < 0 {
			k = 0
		}
		if max := maxMantissaBitsFor(ctx.Datatype); k > max {
			k = max
		}
	}

	payload = make([]byte, len(src))

	switch ctx.Datatype {
	case format.Double:
		for i := 0; i < len(src); i += 8 {
			v := math.Float64frombits(binary.LittleEndian.Uint64(src[i : i+8]))
			binary.LittleEndian.PutUint64(payload[i:i+8], math.Float64bits(truncateFloat64(v, k)))
		}
	case format.Float:
		for i := 0; i < len(src); i += 4 {
			v := math.Float32frombits(binary.LittleEndian.Uint32(src[i : i+4]))
			binary.LittleEndian.PutUint32(payload[i:i+4], math.Float32bits(truncateFloat32(v, k)))
		}
	}

	header = []byte{byte(k)}

	return header, payload, nil
}

// maxMantissaBitsFor returns the explicit mantissa width of dt: 52 for
// double, 23 for float.
func maxMantissaBitsFor(dt format.Datatype) int {
	if dt == format.Float {
		return 23
	}

	return 52
}

func (sigbitsStage) Decompress(ctx *stage.Context, header []byte, payload []byte) ([]byte, error) {
	out := make([]byte, len(payload))
	copy(out, payload)

	return out, nil
}

// truncateFloat64 rounds x to the nearest representable value whose mantissa
// keeps only its top k explicit bits, rounding half-up. NaN and infinities
// pass through unchanged: the bit-level rounding trick below is only valid
// for finite values.
func truncateFloat64(x float64, k int) float64 {
	if k >= 52 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}

	shift := uint(52 - k)
	half := uint64(1) << (shift - 1)

	u := math.Float64bits(x)
	sign := u >> 63
	mag := u &^ (uint64(1) << 63)

	rounded := ((mag + half) >> shift) << shift

	return math.Float64frombits(rounded | (sign << 63))
}

// truncateFloat32 is the float32 analogue of truncateFloat64 (23 mantissa bits).
func truncateFloat32(x float32, k int) float32 {
	if k >= 23 || math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
		return x
	}

	shift := uint(23 - k)
	half := uint32(1) << (shift - 1)

	u := math.Float32bits(x)
	sign := u >> 31
	mag := u &^ (uint32(1) << 31)

	rounded := ((mag + half) >> shift) << shift

	return math.Float32frombits(rounded | (sign << 31))
}
