// Package stage defines the pipeline stage contract and a registry of
// built-in stages, generalizing the teacher's registry-of-codecs pattern
// (compress.Codec / builtinCodecs / CreateCodec) from "byte payload
// compressor" to the full set of SCIL stage roles.
package stage

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/scil-project/scil/dims"
	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/hints"
)

// Context carries the read-only per-call state a stage needs to size and
// interpret its input. Datatype always names the datatype of the stage's
// input side: the type of src on Compress, and the type of the src this
// call's Decompress must reconstruct. A CONVERTER stage is the only one
// where this differs from the datatype the next stage downstream sees
// (reported by OutputDatatype); the pipeline executor computes each stage's
// input-side datatype once, forward, and reuses it unchanged when replaying
// stages in reverse for Decompress.
type Context struct {
	Dims     dims.Dims
	Datatype format.Datatype
	Hints    hints.EffectiveHints
}

// Stage is one step of a compression chain. A stage reads src (formatted
// according to ctx.Datatype for PRECOND/CONVERTER/DATA_COMPRESSOR roles
// operating on typed elements, or as an opaque byte string for
// BYTE_COMPRESSOR and any DATA_COMPRESSOR that treats its input as bytes),
// and returns a stage-specific header (written into the frame's
// length-prefixed header section) plus the transformed payload.
//
// Decompress must be able to reconstruct src from (header, payload) alone,
// using ctx for sizing.
type Stage interface {
	// ID is the stable numeric identifier written into frame headers.
	ID() uint8
	// Name is the human-readable, registry-lookup name (e.g. "sigbits").
	Name() string
	// Role reports this stage's position in the chain grammar.
	Role() format.Role
	// IsLossy reports whether this stage can discard information that
	// Decompress cannot recover exactly. The chooser's forced-method path
	// uses this to reject a forced chain that would be lossy when the
	// caller's hints require a lossless result (§4.5 rule 1).
	IsLossy() bool
	// OutputDatatype reports the element datatype downstream stages see
	// after this stage runs, given the datatype they see it with. Every
	// role except CONVERTER returns in unchanged; a CONVERTER stage maps
	// its accepted input datatype(s) to the datatype it emits.
	OutputDatatype(in format.Datatype) format.Datatype
	// Compress transforms src, returning the stage header and payload.
	Compress(ctx *Context, src []byte) (header []byte, payload []byte, err error)
	// Decompress reverses Compress given the stage header and payload.
	Decompress(ctx *Context, header []byte, payload []byte) (src []byte, err error)
}

var (
	mu         sync.RWMutex
	byName     = map[string]Stage{}
	byID       = map[uint8]Stage{}
)

// Register adds a stage to the built-in registry. It is called from the
// init() function of each stage's implementation file, so importing a stage
// package for its side effect is enough to make it available to the
// chooser. Register panics on a duplicate name or id: that is a programming
// error, not a runtime condition.
func Register(s Stage) {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := byName[s.Name()]; ok {
		panic(fmt.Sprintf("stage: duplicate registration for name %q", s.Name()))
	}
	if _, ok := byID[s.ID()]; ok {
		panic(fmt.Sprintf("stage: duplicate registration for id %d", s.ID()))
	}

	byName[s.Name()] = s
	byID[s.ID()] = s
}

// Get looks up a registered stage by name.
func Get(name string) (Stage, bool) {
	mu.RLock()
	defer mu.RUnlock()

	s, ok := byName[name]

	return s, ok
}

// GetByID looks up a registered stage by its numeric id.
func GetByID(id uint8) (Stage, bool) {
	mu.RLock()
	defer mu.RUnlock()

	s, ok := byID[id]

	return s, ok
}

// Registered returns every built-in stage, sorted by numeric id. This backs
// the public AvailableCompressors() surface: a registry walk rather than a
// hardcoded list, so adding a stage file automatically surfaces it.
func Registered() []Stage {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]Stage, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })

	return out
}

// Lookup resolves a forced-method token (§4.5 rule 1) that may be either a
// registered stage name or its decimal numeric id.
func Lookup(token string) (Stage, error) {
	if s, ok := Get(token); ok {
		return s, nil
	}

	if id, err := strconv.ParseUint(token, 10, 8); err == nil {
		if s, ok := GetByID(uint8(id)); ok {
			return s, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", errs.ErrUnknownAlgorithm, token)
}
