// Package validate checks a compressed-then-decompressed round trip against
// the hints it was compressed under, and reports the achieved compression
// ratio. It is the library's own self-check, not a public file-format
// verifier: callers run it against the exact original array they passed to
// Compress.
package validate

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/hints"
)

// Report is the result of comparing a decompressed array against its
// original bytes.
type Report struct {
	// ObservedMaxAbsError is the largest |decompressed - original| seen
	// across any element. Always 0 for non-float datatypes.
	ObservedMaxAbsError float64
	// ObservedMaxRelError is the largest relative error seen, computed only
	// where |original| is large enough to divide by safely.
	ObservedMaxRelError float64
	// WithinTolerance reports whether every element satisfied the
	// effective accuracy hints used to compress it.
	WithinTolerance bool
	// MismatchedElements is the number of elements that round-tripped
	// outside the effective tolerance.
	MismatchedElements int

	OriginalBytes   int
	CompressedBytes int
}

// CompressionRatio is OriginalBytes / CompressedBytes. A ratio of 1 means no
// space was saved; it is +Inf if CompressedBytes is 0 and OriginalBytes is
// not.
func (r Report) CompressionRatio() float64 {
	if r.CompressedBytes == 0 {
		if r.OriginalBytes == 0 {
			return 1
		}

		return math.Inf(1)
	}

	return float64(r.OriginalBytes) / float64(r.CompressedBytes)
}

// SpaceSavingsPercent is the percentage reduction in size, 100*(1 - 1/ratio).
func (r Report) SpaceSavingsPercent() float64 {
	ratio := r.CompressionRatio()
	if math.IsInf(ratio, 1) {
		return 100
	}

	return 100 * (1 - 1/ratio)
}

// Validate compares decompressed against original, both the native
// little-endian byte encoding of dt, under the effective hints the array
// was compressed with, and records the frame size for ratio reporting.
func Validate(dt format.Datatype, original, decompressed []byte, frameBytes int, eff hints.EffectiveHints) (Report, error) {
	report := Report{
		OriginalBytes:   len(original),
		CompressedBytes: frameBytes,
		WithinTolerance: true,
	}

	if len(original) != len(decompressed) {
		return Report{}, fmt.Errorf("%w: original is %d bytes, decompressed is %d bytes", errs.ErrCorruptFrame, len(original), len(decompressed))
	}

	if !dt.IsFloat() {
		if string(original) != string(decompressed) {
			report.WithinTolerance = false
			report.MismatchedElements = 1
		}

		return report, nil
	}

	elemSize := dt.ElemSize()
	n := len(original) / elemSize

	tolerance := eff.AbsoluteTolerance
	if eff.SignificantBits > 0 {
		tolerance = math.Max(tolerance, 0)
	}

	for i := 0; i < n; i++ {
		ov := readElem(dt, original, i)
		dv := readElem(dt, decompressed, i)

		if math.IsNaN(ov) {
			if !math.IsNaN(dv) {
				report.WithinTolerance = false
				report.MismatchedElements++
			}

			continue
		}
		if math.IsInf(ov, 0) {
			if ov != dv {
				report.WithinTolerance = false
				report.MismatchedElements++
			}

			continue
		}

		absErr := math.Abs(dv - ov)
		if absErr > report.ObservedMaxAbsError {
			report.ObservedMaxAbsError = absErr
		}

		if math.Abs(ov) > 1e-9 {
			relErr := absErr / math.Abs(ov)
			if relErr > report.ObservedMaxRelError {
				report.ObservedMaxRelError = relErr
			}
		}

		within := true
		switch {
		case eff.HasFillValue && ov == eff.FillValue:
			within = dv == ov
		case isSpecialValue(ov, eff.SpecialValues):
			within = dv == ov
		case eff.HasLosslessDataRange && ov >= eff.LosslessDataRangeFrom && ov <= eff.LosslessDataRangeTo:
			within = dv == ov
		case eff.Lossless:
			within = dv == ov
		case eff.AbsoluteTolerance > 0:
			within = absErr <= eff.AbsoluteTolerance*1.0001
		case eff.SignificantBits > 0:
			// sigbits keeps significant_bits-1 explicit mantissa bits (the
			// implicit leading 1 counts as the first significant bit),
			// bounding relative error to roughly 2^-(bits-1); allow a
			// small safety margin.
			bound := math.Pow(2, -float64(eff.SignificantBits-1)) * 4
			within = math.Abs(ov) < 1e-12 || absErr/math.Abs(ov) <= bound
		}

		if !within {
			report.WithinTolerance = false
			report.MismatchedElements++
		}
	}

	return report, nil
}

// isSpecialValue reports whether v equals (==) one of the context's
// declared special values.
func isSpecialValue(v float64, specials []float64) bool {
	for _, s := range specials {
		if v == s {
			return true
		}
	}

	return false
}

func readElem(dt format.Datatype, data []byte, i int) float64 {
	switch dt {
	case format.Double:
		return math.Float64frombits(binary.LittleEndian.Uint64(data[i*8 : i*8+8]))
	case format.Float:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4 : i*4+4])))
	default:
		return 0
	}
}
