// Package chooser resolves a Datatype and a caller's UserHints into a
// validated chain.Chain plus the fully normalized hints.EffectiveHints the
// chain was built from. It implements both the forced-method override path
// (§4.5 rule 1) and the heuristic accuracy/performance-hint-driven path.
package chooser

import (
	"fmt"
	"strings"

	"github.com/scil-project/scil/chain"
	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/hints"
	"github.com/scil-project/scil/stage"
)

// Result is the outcome of a Choose call: the validated chain and the
// effective hints it was resolved from.
type Result struct {
	Chain     *chain.Chain
	Effective hints.EffectiveHints
}

// Choose resolves a chain for an array of the given datatype under userHints.
// specialValues (from Context construction, §4.2) are carried into the
// returned EffectiveHints unchanged; they do not influence chain selection,
// only the preserved-element scan the pipeline executor runs before any
// lossy stage.
func Choose(dt format.Datatype, userHints hints.UserHints, specialValues []float64) (Result, error) {
	eff := effectiveFromUser(userHints)
	eff.SpecialValues = specialValues

	if userHints.ForceCompressionMethods != "" {
		c, err := chooseForced(userHints.ForceCompressionMethods)
		if err != nil {
			return Result{}, err
		}

		if eff.Lossless && chainIsLossy(c) {
			return Result{}, fmt.Errorf("%w: forced chain %q is lossy but no accuracy hint was given", errs.ErrLossyForbidden, userHints.ForceCompressionMethods)
		}

		return Result{Chain: c, Effective: eff}, nil
	}

	c, err := chooseHeuristic(dt, eff)
	if err != nil {
		return Result{}, err
	}

	return Result{Chain: c, Effective: eff}, nil
}

// effectiveFromUser normalizes UserHints into EffectiveHints, converting a
// significant-digits hint to its bit-count equivalent and defaulting
// Lossless to true when no accuracy hint calls for anything lossy.
func effectiveFromUser(u hints.UserHints) hints.EffectiveHints {
	eff := hints.EffectiveHints{
		LosslessDataRangeFrom: u.LosslessDataRangeFrom,
		LosslessDataRangeTo:   u.LosslessDataRangeTo,
		HasLosslessDataRange:  u.HasLosslessDataRange,
		FillValue:             u.FillValue,
		HasFillValue:          u.HasFillValue,
	}

	switch {
	case u.HasSignificantBits:
		eff.SignificantBits = u.SignificantBits
	case u.HasSignificantDigits:
		eff.SignificantBits = hints.SignificantDigitsToBits(u.SignificantDigits)
	case u.HasRelativeTolerancePercent && u.RelativeTolerancePercent > 0:
		// Per §4.5/§4.7: derive a per-magnitude bound from the relative
		// tolerance. sigbits's mantissa truncation is already a proportional
		// (per-exponent-bucket) quantizer, so it realizes the magnitude
		// partition directly with no explicit bucket table: its actual
		// error only ever undershoots the requested bound, which also
		// subsumes the relative_err_finest_abs_tolerance floor (that floor
		// only relaxes precision demands near zero; sigbits never demands
		// more precision there than elsewhere).
		eff.SignificantBits = hints.BitsForRelativeTolerancePercent(u.RelativeTolerancePercent)
	}

	if u.HasAbsoluteTolerance {
		eff.AbsoluteTolerance = u.AbsoluteTolerance
	}

	eff.Lossless = !u.HasAbsoluteTolerance && !u.HasRelativeTolerancePercent &&
		!u.HasSignificantBits && !u.HasSignificantDigits
	if u.HasAbsoluteTolerance && u.AbsoluteTolerance == 0 {
		eff.Lossless = true
	}

	return eff
}

// chainIsLossy reports whether any stage in c can discard information.
func chainIsLossy(c *chain.Chain) bool {
	for _, s := range c.Stages() {
		if s.IsLossy() {
			return true
		}
	}

	return false
}

// chooseForced parses a comma-separated, ordered list of stage names or
// numeric ids and builds a chain directly from the resolved stages, with no
// heuristic reasoning at all.
func chooseForced(spec string) (*chain.Chain, error) {
	tokens := strings.Split(spec, ",")
	stages := make([]stage.Stage, 0, len(tokens))

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		s, err := stage.Lookup(tok)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}

	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: empty forced compression method list", errs.ErrUnknownAlgorithm)
	}

	return chain.New(stages)
}

// chooseHeuristic selects a chain from the datatype and effective hints,
// with no forced override in play.
//
// Tie-break rules: when an accuracy hint could be satisfied by more than one
// stage combination, the lowest-numeric-id stage wins at each slot; a
// heuristic result is never allowed to be lossy when the hints are
// lossless, and a lossless byte compressor is always appended as the chain
// tail so the result is never worse than plain lossless compression.
func chooseHeuristic(dt format.Datatype, eff hints.EffectiveHints) (*chain.Chain, error) {
	tail, err := tailByteCompressor()
	if err != nil {
		return nil, err
	}

	if dt.IsOpaque() {
		if !eff.Lossless {
			return nil, fmt.Errorf("%w: datatype %s cannot be compressed lossily", errs.ErrUnsupported, dt)
		}

		return chain.New([]stage.Stage{tail})
	}

	if !eff.Lossless && !dt.IsFloat() {
		return nil, fmt.Errorf("%w: lossy stages require a float datatype, got %s", errs.ErrUnsupported, dt)
	}

	if eff.Lossless {
		mc, ok := stage.Get("memcopy")
		if !ok {
			return nil, fmt.Errorf("%w: memcopy stage not registered", errs.ErrUnknownAlgorithm)
		}

		return chain.New([]stage.Stage{mc, tail})
	}

	var stages []stage.Stage

	if eff.SignificantBits > 0 {
		s, ok := stage.Get("sigbits")
		if !ok {
			return nil, fmt.Errorf("%w: sigbits stage not registered", errs.ErrUnknownAlgorithm)
		}
		stages = append(stages, s)
	}

	if eff.AbsoluteTolerance > 0 {
		s, ok := stage.Get("abstol")
		if !ok {
			return nil, fmt.Errorf("%w: abstol stage not registered", errs.ErrUnknownAlgorithm)
		}
		stages = append(stages, s)
	}

	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: hints request lossy compression but specify no usable accuracy bound", errs.ErrInvalidHints)
	}

	stages = append(stages, tail)

	return chain.New(stages)
}

// tailByteCompressor picks the default lossless byte-compressor tail stage:
// zstd if registered (the best general-purpose ratio among the pack), then
// lz4, s2 and noop in that order, matching the chooser's "append a lossless
// byte compressor at the tail" rule.
func tailByteCompressor() (stage.Stage, error) {
	for _, name := range []string{"zstd", "lz4", "s2", "noop"} {
		if s, ok := stage.Get(name); ok {
			return s, nil
		}
	}

	return nil, fmt.Errorf("%w: no byte compressor stage registered", errs.ErrUnknownAlgorithm)
}
