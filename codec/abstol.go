package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/internal/pool"
	"github.com/scil-project/scil/stage"
)

// abstolStage quantizes a float/double element stream onto an evenly spaced
// int64 lattice with step 2*abstol, guaranteeing that decompression recovers
// every original element within the requested absolute tolerance. It is a
// CONVERTER stage: its downstream datatype is always Int64.
type abstolStage struct{}

const abstolID uint8 = 2

func init() {
	stage.Register(&abstolStage{})
}

func (abstolStage) ID() uint8         { return abstolID }
func (abstolStage) Name() string      { return "abstol" }
func (abstolStage) Role() format.Role { return format.Converter }
func (abstolStage) IsLossy() bool     { return true }

func (abstolStage) OutputDatatype(in format.Datatype) format.Datatype {
	if in.IsFloat() {
		return format.Int64
	}

	return in
}

func (abstolStage) Compress(ctx *stage.Context, src []byte) (header []byte, payload []byte, err error) {
	if !ctx.Datatype.IsFloat() {
		return nil, nil, fmt.Errorf("%w: abstol requires a float datatype, got %s", errs.ErrUnsupported, ctx.Datatype)
	}
	if ctx.Hints.AbsoluteTolerance <= 0 {
		return nil, nil, fmt.Errorf("%w: abstol requires a positive absolute tolerance", errs.ErrUnsupported)
	}

	vals, cleanup, err := readFloats(ctx.Datatype, src)
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()
	if len(vals) == 0 {
		header = make([]byte, 16)

		return header, nil, nil
	}

	delta := 2 * ctx.Hints.AbsoluteTolerance
	// The anchor is the minimum finite value: NaN and infinities have no
	// place on the lattice (the pipeline restores them from its side table).
	anchor, haveAnchor := 0.0, false
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !haveAnchor || v < anchor {
			anchor, haveAnchor = v, true
		}
	}

	payload = make([]byte, 8*len(vals))
	for i, v := range vals {
		var code int64
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			code = int64(math.Round((v - anchor) / delta))
		}
		binary.LittleEndian.PutUint64(payload[i*8:i*8+8], uint64(code))
	}

	header = make([]byte, 16)
	binary.LittleEndian.PutUint64(header[0:8], math.Float64bits(anchor))
	binary.LittleEndian.PutUint64(header[8:16], math.Float64bits(delta))

	return header, payload, nil
}

func (abstolStage) Decompress(ctx *stage.Context, header []byte, payload []byte) ([]byte, error) {
	if len(header) != 16 {
		return nil, fmt.Errorf("%w: abstol header must be 16 bytes, got %d", errs.ErrCorruptFrame, len(header))
	}

	anchor := math.Float64frombits(binary.LittleEndian.Uint64(header[0:8]))
	delta := math.Float64frombits(binary.LittleEndian.Uint64(header[8:16]))

	n := len(payload) / 8
	vals, cleanup := pool.GetFloat64Slice(n)
	defer cleanup()
	for i := 0; i < n; i++ {
		code := int64(binary.LittleEndian.Uint64(payload[i*8 : i*8+8]))
		vals[i] = anchor + float64(code)*delta
	}

	return writeFloats(ctx.Datatype, vals), nil
}

// readFloats decodes a byte stream into float64 values regardless of
// whether dt is Float or Double. The returned slice is borrowed from a pool
// shared across stage calls; the caller must invoke cleanup once done
// reading it (before returning from Compress).
func readFloats(dt format.Datatype, src []byte) (vals []float64, cleanup func(), err error) {
	elemSize := dt.ElemSize()
	if elemSize == 0 || len(src)%elemSize != 0 {
		return nil, func() {}, fmt.Errorf("%w: source length %d not a multiple of element size %d", errs.ErrCorruptFrame, len(src), elemSize)
	}

	n := len(src) / elemSize
	out, cleanup := pool.GetFloat64Slice(n)

	switch dt {
	case format.Double:
		for i := 0; i < n; i++ {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(src[i*8 : i*8+8]))
		}
	case format.Float:
		for i := 0; i < n; i++ {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(src[i*4 : i*4+4])))
		}
	default:
		cleanup()

		return nil, func() {}, fmt.Errorf("%w: readFloats does not support %s", errs.ErrUnsupported, dt)
	}

	return out, cleanup, nil
}

// writeFloats encodes float64 values back into dt's native byte width.
func writeFloats(dt format.Datatype, vals []float64) []byte {
	switch dt {
	case format.Double:
		out := make([]byte, 8*len(vals))
		for i, v := range vals {
			binary.LittleEndian.PutUint64(out[i*8:i*8+8], math.Float64bits(v))
		}

		return out
	case format.Float:
		out := make([]byte, 4*len(vals))
		for i, v := range vals {
			binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(float32(v)))
		}

		return out
	default:
		return nil
	}
}
