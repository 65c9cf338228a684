// Package hints defines the accuracy and performance hints a caller attaches
// to a compression Context, and the normalization that turns user-supplied
// hints into the EffectiveHints the chooser resolves a chain from.
//
// Hints are built with the functional-options pattern from internal/options,
// applied once at context construction and never mutated afterward.
package hints

import (
	"fmt"
	"math"

	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/internal/options"
)

// SpeedHint expresses a relative throughput target: Multiplier times faster
// than Unit's reference implementation (e.g. 2x memcopy, 10x gzip -6).
type SpeedHint struct {
	Multiplier float64
	Unit       string
}

// IsZero reports whether the speed hint carries no preference.
func (s SpeedHint) IsZero() bool {
	return s.Multiplier == 0 && s.Unit == ""
}

// UserHints is the caller-facing accuracy/performance hint record. The zero
// value means "no hint given" for every field; Option closures populate it.
type UserHints struct {
	AbsoluteTolerance             float64
	HasAbsoluteTolerance          bool
	RelativeTolerancePercent      float64
	HasRelativeTolerancePercent   bool
	RelativeErrFinestAbsTolerance float64
	HasRelativeErrFinestAbsTolerance bool

	SignificantBits   int
	HasSignificantBits bool
	SignificantDigits  int
	HasSignificantDigits bool

	CompressionSpeed   SpeedHint
	DecompressionSpeed SpeedHint

	LosslessDataRangeFrom float64
	LosslessDataRangeTo   float64
	HasLosslessDataRange  bool

	FillValue    float64
	HasFillValue bool

	// ForceCompressionMethods, if non-empty, is a comma-separated, ordered
	// list of stage names or decimal numeric ids (resolved by chooser.Choose
	// through stage.Lookup) that bypasses heuristic chain selection entirely.
	ForceCompressionMethods string
}

// Option configures a UserHints during construction.
type Option = options.Option[*UserHints]

// New builds a UserHints from options, applied in order. The zero-value
// UserHints (all hints absent) is always valid: it selects the lossless
// heuristic path.
func New(opts ...Option) (UserHints, error) {
	h := UserHints{}
	if err := options.Apply(&h, opts...); err != nil {
		return UserHints{}, err
	}

	if err := h.Validate(); err != nil {
		return UserHints{}, err
	}

	return h, nil
}

// WithAbsoluteTolerance sets the maximum allowed |decompressed - original|.
func WithAbsoluteTolerance(tol float64) Option {
	return options.New(func(h *UserHints) error {
		if tol < 0 || math.IsNaN(tol) {
			return fmt.Errorf("%w: absolute tolerance must be non-negative, got %v", errs.ErrInvalidHints, tol)
		}
		h.AbsoluteTolerance = tol
		h.HasAbsoluteTolerance = true

		return nil
	})
}

// WithRelativeTolerancePercent sets the maximum allowed relative error, as a
// percentage of the element's own magnitude.
func WithRelativeTolerancePercent(pct float64) Option {
	return options.New(func(h *UserHints) error {
		if pct < 0 || math.IsNaN(pct) {
			return fmt.Errorf("%w: relative tolerance percent must be non-negative, got %v", errs.ErrInvalidHints, pct)
		}
		h.RelativeTolerancePercent = pct
		h.HasRelativeTolerancePercent = true

		return nil
	})
}

// WithRelativeErrFinestAbsTolerance bounds how fine the absolute tolerance
// derived from a relative-tolerance hint is allowed to get as values
// approach zero.
func WithRelativeErrFinestAbsTolerance(tol float64) Option {
	return options.New(func(h *UserHints) error {
		if tol < 0 || math.IsNaN(tol) {
			return fmt.Errorf("%w: finest absolute tolerance must be non-negative, got %v", errs.ErrInvalidHints, tol)
		}
		h.RelativeErrFinestAbsTolerance = tol
		h.HasRelativeErrFinestAbsTolerance = true

		return nil
	})
}

// WithSignificantBits sets the number of significant bits to retain for
// sigbits-style truncation, counting the implicit leading mantissa bit: 53
// is full double precision, 24 is full float precision.
func WithSignificantBits(bits int) Option {
	return options.New(func(h *UserHints) error {
		if bits < 1 || bits > 53 {
			return fmt.Errorf("%w: significant bits must be in [1,53], got %d", errs.ErrInvalidHints, bits)
		}
		h.SignificantBits = bits
		h.HasSignificantBits = true

		return nil
	})
}

// WithSignificantDigits sets the number of base-10 significant digits to
// retain, converted internally to an equivalent bit count.
func WithSignificantDigits(digits int) Option {
	return options.New(func(h *UserHints) error {
		if digits < 1 || digits > 17 {
			return fmt.Errorf("%w: significant digits must be in [1,17], got %d", errs.ErrInvalidHints, digits)
		}
		h.SignificantDigits = digits
		h.HasSignificantDigits = true

		return nil
	})
}

// WithCompressionSpeed sets a desired compression throughput hint.
func WithCompressionSpeed(s SpeedHint) Option {
	return options.NoError(func(h *UserHints) { h.CompressionSpeed = s })
}

// WithDecompressionSpeed sets a desired decompression throughput hint.
func WithDecompressionSpeed(s SpeedHint) Option {
	return options.NoError(func(h *UserHints) { h.DecompressionSpeed = s })
}

// WithLosslessDataRange marks [from, to] as a sub-range of the domain that
// must round-trip bit-exact regardless of any other accuracy hint.
func WithLosslessDataRange(from, to float64) Option {
	return options.New(func(h *UserHints) error {
		if to < from {
			return fmt.Errorf("%w: lossless data range upper bound below lower bound", errs.ErrInvalidHints)
		}
		h.LosslessDataRangeFrom = from
		h.LosslessDataRangeTo = to
		h.HasLosslessDataRange = true

		return nil
	})
}

// WithFillValue marks a sentinel value that must always round-trip bit-exact
// (e.g. a missing-data marker) no matter what accuracy hints apply elsewhere.
func WithFillValue(v float64) Option {
	return options.NoError(func(h *UserHints) {
		h.FillValue = v
		h.HasFillValue = true
	})
}

// WithForceCompressionMethods bypasses heuristic chain selection with an
// explicit, comma-separated, ordered list of stage names or decimal numeric
// ids (each token is resolved by stage.Lookup).
func WithForceCompressionMethods(spec string) Option {
	return options.NoError(func(h *UserHints) { h.ForceCompressionMethods = spec })
}

// Validate checks internal consistency of the hint set. It does not know
// about the target datatype; chooser.Choose performs the datatype-aware
// checks (e.g. sigbits against an integer datatype).
func (h UserHints) Validate() error {
	if h.HasAbsoluteTolerance && h.AbsoluteTolerance == 0 && h.HasSignificantBits {
		return fmt.Errorf("%w: absolute tolerance of 0 and significant bits are mutually exclusive", errs.ErrInvalidHints)
	}
	if h.HasSignificantBits && h.HasSignificantDigits {
		return fmt.Errorf("%w: significant bits and significant digits are mutually exclusive", errs.ErrInvalidHints)
	}

	return nil
}

// EffectiveHints is the fully resolved, datatype-aware hint set the chooser
// produces. Unlike UserHints, every numeric field is meaningful: absent
// hints are normalized to their "no constraint" value.
type EffectiveHints struct {
	AbsoluteTolerance float64
	SignificantBits   int
	Lossless          bool

	LosslessDataRangeFrom float64
	LosslessDataRangeTo   float64
	HasLosslessDataRange  bool

	FillValue    float64
	HasFillValue bool

	// SpecialValues are bit-exact values that must survive every lossy stage
	// unchanged (§3 "Special values"), independent of FillValue and the
	// lossless data range. Set from Context construction, not from UserHints.
	SpecialValues []float64
}

// SignificantDigitsToBits converts a base-10 significant-digit count to the
// equivalent significant_bits count (implicit leading bit included), rounding
// up so no precision is lost relative to the requested decimal digits.
func SignificantDigitsToBits(digits int) int {
	return int(math.Ceil(float64(digits) * math.Log2(10)))
}

// BitsForRelativeTolerancePercent converts a relative-tolerance percentage
// into the significant_bits count that bounds sigbits's per-element relative
// error (roughly 2^-(bits-1)) to at most pct/100, rounding up so the
// requested bound is never exceeded. pct must be in (0, 100].
func BitsForRelativeTolerancePercent(pct float64) int {
	if pct <= 0 {
		return 53
	}
	if pct >= 100 {
		return 1
	}

	return int(math.Ceil(math.Log2(100/pct))) + 1
}
