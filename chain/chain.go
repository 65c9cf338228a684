// Package chain validates and represents an ordered sequence of stages
// against SCIL's stage-sequencing grammar:
//
//	PRECOND_FIRST* (CONVERTER PRECOND_SECOND*)? (DATA_COMPRESSOR | BYTE_COMPRESSOR) BYTE_COMPRESSOR?
//
// with the additional limits: at most 10 preconditioners on each side of the
// converter, at most one converter, at most one data compressor, and at most
// one trailing byte compressor.
package chain

import (
	"fmt"

	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/stage"
)

// MaxPreconditioners is the per-side cap on PRECOND_FIRST/PRECOND_SECOND stages.
const MaxPreconditioners = 10

// Chain is a validated, ordered sequence of stages.
type Chain struct {
	stages []stage.Stage
}

// New validates stages against the sequencing grammar and returns a Chain.
func New(stages []stage.Stage) (*Chain, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: chain must have at least one stage", errs.ErrInvalidChain)
	}
	if len(stages) > 21 {
		return nil, fmt.Errorf("%w: chain length %d exceeds frame's 1-byte length field range", errs.ErrInvalidChain, len(stages))
	}

	var (
		preFirstCount  int
		converterCount int
		preSecondCount int
		terminalSeen   bool
		byteTailSeen   bool
		seenConverter  bool
	)

	for i, s := range stages {
		role := s.Role()

		switch role {
		case format.PrecondFirst:
			if seenConverter {
				return nil, fmt.Errorf("%w: stage %d (%s) is PRECOND_FIRST after a converter", errs.ErrInvalidChain, i, s.Name())
			}
			if terminalSeen {
				return nil, fmt.Errorf("%w: stage %d (%s) follows the terminal compressor", errs.ErrInvalidChain, i, s.Name())
			}
			preFirstCount++
			if preFirstCount > MaxPreconditioners {
				return nil, fmt.Errorf("%w: more than %d PRECOND_FIRST stages", errs.ErrInvalidChain, MaxPreconditioners)
			}

		case format.Converter:
			if terminalSeen {
				return nil, fmt.Errorf("%w: stage %d (%s) follows the terminal compressor", errs.ErrInvalidChain, i, s.Name())
			}
			if seenConverter {
				return nil, fmt.Errorf("%w: more than one CONVERTER stage", errs.ErrInvalidChain)
			}
			seenConverter = true
			converterCount++

		case format.PrecondSecond:
			if !seenConverter {
				return nil, fmt.Errorf("%w: stage %d (%s) is PRECOND_SECOND before any CONVERTER", errs.ErrInvalidChain, i, s.Name())
			}
			if terminalSeen {
				return nil, fmt.Errorf("%w: stage %d (%s) follows the terminal compressor", errs.ErrInvalidChain, i, s.Name())
			}
			preSecondCount++
			if preSecondCount > MaxPreconditioners {
				return nil, fmt.Errorf("%w: more than %d PRECOND_SECOND stages", errs.ErrInvalidChain, MaxPreconditioners)
			}

		case format.DataCompressor:
			if terminalSeen {
				return nil, fmt.Errorf("%w: more than one terminal compressor", errs.ErrInvalidChain)
			}
			terminalSeen = true

		case format.ByteCompressor:
			if !terminalSeen {
				terminalSeen = true
			} else {
				if byteTailSeen {
					return nil, fmt.Errorf("%w: more than one trailing BYTE_COMPRESSOR", errs.ErrInvalidChain)
				}
				byteTailSeen = true
			}

		default:
			return nil, fmt.Errorf("%w: stage %d (%s) has unrecognized role %s", errs.ErrInvalidChain, i, s.Name(), role)
		}
	}

	if !terminalSeen {
		return nil, fmt.Errorf("%w: chain has no terminal DATA_COMPRESSOR or BYTE_COMPRESSOR", errs.ErrInvalidChain)
	}

	cp := make([]stage.Stage, len(stages))
	copy(cp, stages)

	return &Chain{stages: cp}, nil
}

// Stages returns the validated stage sequence, in execution order.
func (c *Chain) Stages() []stage.Stage {
	out := make([]stage.Stage, len(c.stages))
	copy(out, c.stages)

	return out
}

// Len returns the number of stages in the chain.
func (c *Chain) Len() int {
	return len(c.stages)
}
