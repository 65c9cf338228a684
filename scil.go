// Package scil is a Scientific Compression Interface Library: it
// compresses and decompresses multi-dimensional numeric arrays (floats,
// doubles, signed integers 8/16/32/64-bit) under caller-stated accuracy and
// performance hints.
//
// A caller builds a Context once from a datatype, a set of special values,
// and hints (absolute tolerance, relative tolerance, significant
// bits/digits, lossless ranges, fill value). The chooser resolves the
// hints into a concrete pipeline once at context-construction time;
// Compress and Decompress then run that pipeline against individual
// buffers.
//
// # Basic usage
//
//	d, _ := dims.New(1000)
//	h, _ := hints.New(hints.WithAbsoluteTolerance(0.01))
//	ctx, err := scil.NewContext(format.Double, nil, h)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Destroy()
//
//	frame, err := scil.Compress(ctx, d, src)
//	out, err := scil.Decompress(format.Double, d, frame)
//	report, err := scil.Validate(ctx, d, src, frame)
package scil

import (
	"sync"

	"github.com/scil-project/scil/chain"
	"github.com/scil-project/scil/chooser"
	"github.com/scil-project/scil/dims"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/hints"
	"github.com/scil-project/scil/internal/pool"
	"github.com/scil-project/scil/pipeline"
	"github.com/scil-project/scil/stage"
	"github.com/scil-project/scil/validate"
)

// FrameOverhead is the fixed per-frame byte cost CompressedSizeLimit adds on
// top of 2x the uncompressed size: a chain-length byte, up to 21 stage-id
// bytes, the is-data-compressor bitmap (up to ceil(21/8) = 3 bytes), a
// varint preserved-element count, the 8-byte side-table fingerprint, and one
// length-prefix varint per stage header. It is intentionally generous rather
// than exact; callers that size their own output buffers from
// CompressedSizeLimit must never see it undersized.
const FrameOverhead = 1 + 21 + 3 + 10 + 8 + 21*10

// Context is the immutable, resolved handle returned by NewContext: the
// datatype it was built for, the special values that must survive every
// lossy stage bit-exact, and the chain+effective-hints pair the chooser
// resolved once. It is safe to share across goroutines for concurrent
// Compress/Decompress calls against different buffers; it owns no mutable
// state beyond the one-time release tracked by Destroy.
type Context struct {
	Datatype      format.Datatype
	SpecialValues []float64

	chain     *chain.Chain
	effective hints.EffectiveHints

	destroyOnce sync.Once
}

// NewContext resolves datatype, specialValues and userHints into a Context,
// running the chooser exactly once. It fails with the same sentinel errors
// chooser.Choose does: errs.ErrUnsupported for a datatype/hint combination
// the registry can't satisfy, errs.ErrUnknownAlgorithm for an unresolvable
// forced-method token, errs.ErrInvalidHints for a self-contradictory hint
// set.
func NewContext(datatype format.Datatype, specialValues []float64, userHints hints.UserHints) (*Context, error) {
	res, err := chooser.Choose(datatype, userHints, specialValues)
	if err != nil {
		return nil, err
	}

	return &Context{
		Datatype:      datatype,
		SpecialValues: specialValues,
		chain:         res.Chain,
		effective:     res.Effective,
	}, nil
}

// Destroy releases the context. Calling it more than once, even
// concurrently, is safe: only the first call does anything.
func (c *Context) Destroy() {
	c.destroyOnce.Do(func() {
		c.chain = nil
	})
}

// EffectiveHints returns the fully normalized, datatype-aware hints the
// context's chain was resolved from.
func (c *Context) EffectiveHints() hints.EffectiveHints {
	return c.effective
}

// CompressedSizeLimit returns the upper bound on a compressed frame's size
// for an array of shape d and datatype dt: enough room for the worst case
// (incompressible data, every stage expanding its payload) plus the frame's
// fixed header overhead. Callers sizing their own destination buffers
// should use this rather than guessing.
func CompressedSizeLimit(d dims.Dims, dt format.Datatype) int64 {
	return d.CompressedLimit(dt, FrameOverhead)
}

// Compress runs ctx's resolved chain over src (d.ByteSize(ctx.Datatype)
// bytes of native little-endian encoding) and returns a self-describing
// frame. The frame is assembled through a pooled buffer so repeated calls
// against the same context don't churn the allocator on every invocation.
func Compress(ctx *Context, d dims.Dims, src []byte) ([]byte, error) {
	raw, err := pipeline.Compress(ctx.Datatype, d, src, ctx.chain, ctx.effective)
	if err != nil {
		return nil, err
	}

	bb := pool.GetFrameBuffer()
	defer pool.PutFrameBuffer(bb)
	bb.MustWrite(raw)

	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())

	return out, nil
}

// Decompress parses a frame produced by Compress (from any context built
// with compatible hints, per §8's frame-self-description property) and
// reconstructs the original native byte encoding. datatype and d must match
// what the frame was compressed with — the frame encodes only the chain
// that produced it, not the array's type or shape, mirroring the library's
// external decompress(ctx_datatype, dims, frame, ...) entry point.
func Decompress(datatype format.Datatype, d dims.Dims, frame []byte) ([]byte, error) {
	return pipeline.Decompress(datatype, d, frame)
}

// Validate compares a Compress/Decompress round trip against the hints ctx
// was built with and reports the observed accuracy plus compression ratio.
// Callers pass the array's shape, the exact original bytes, and the frame
// Compress produced.
func Validate(ctx *Context, d dims.Dims, original, frame []byte) (validate.Report, error) {
	decompressed, err := pipeline.Decompress(ctx.Datatype, d, frame)
	if err != nil {
		return validate.Report{}, err
	}

	return validate.Validate(ctx.Datatype, original, decompressed, len(frame), ctx.effective)
}

// AvailableCompressors returns the name of every registered stage, sorted
// by numeric id. A fresh build that adds a stage file surfaces it here
// automatically; nothing needs to be hardcoded.
func AvailableCompressors() []string {
	registered := stage.Registered()
	names := make([]string, len(registered))
	for i, s := range registered {
		names[i] = s.Name()
	}

	return names
}
