package pipeline

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/scil-project/scil/chain"
	"github.com/scil-project/scil/dims"
	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/hints"
	"github.com/scil-project/scil/stage"
)

// Compress runs src (d.ByteSize(dt) bytes, native little-endian encoding of
// dt) through c, producing a self-describing frame. eff carries the fill
// value / lossless-range / special-value hints used to pick which elements
// are recorded in the frame's side table before the chain runs and restored
// bit-exact after decompression.
func Compress(dt format.Datatype, d dims.Dims, src []byte, c *chain.Chain, eff hints.EffectiveHints) ([]byte, error) {
	if d.Count() == 0 {
		return []byte{emptySentinel}, nil
	}

	stages := c.Stages()
	if len(stages) == 0 || len(stages) > 21 {
		return nil, fmt.Errorf("%w: chain length %d out of frame range", errs.ErrInvalidChain, len(stages))
	}

	preserved := preservedElems(dt, src, eff)

	cur := src
	curDT := dt
	headers := make([][]byte, len(stages))

	for i, s := range stages {
		ctx := &stage.Context{Dims: d, Datatype: curDT, Hints: eff}

		header, payload, err := s.Compress(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", s.Name(), err)
		}

		headers[i] = header
		cur = payload
		curDT = s.OutputDatatype(curDT)
	}

	w := &frameWriter{}
	w.byte(byte(len(stages)))
	for _, s := range stages {
		w.byte(s.ID())
	}
	w.bytes(dataCompressorBitmap(stages))
	w.bytes(writePreservedIndices(preserved))
	for _, h := range headers {
		w.uvarint(uint64(len(h)))
		w.bytes(h)
	}
	w.bytes(cur)

	return w.buf, nil
}

// Decompress parses a frame produced by Compress and reconstructs the
// original native byte encoding, including bit-exact restoration of every
// preserved (fill/lossless-range) element. dt and d are supplied by the
// caller rather than recovered from the frame, matching the library's
// external decompress(ctx_datatype, dims, frame, ...) entry point: the
// frame alone is enough to pick out the right registered stages, but the
// caller already knows what array shape and element type it asked for.
func Decompress(dt format.Datatype, d dims.Dims, frame []byte) ([]byte, error) {
	if len(frame) == 1 && frame[0] == emptySentinel {
		return nil, nil
	}

	r := &frameReader{buf: frame}

	lenByte, err := r.byte()
	if err != nil {
		return nil, err
	}
	chainLen := int(lenByte)
	if chainLen < 1 || chainLen > 21 {
		return nil, fmt.Errorf("%w: invalid chain length %d", errs.ErrCorruptFrame, chainLen)
	}

	stages := make([]stage.Stage, chainLen)
	for i := 0; i < chainLen; i++ {
		b, err := r.byte()
		if err != nil {
			return nil, err
		}

		s, ok := stage.GetByID(b)
		if !ok {
			return nil, fmt.Errorf("%w: unregistered stage id %d in frame", errs.ErrCorruptFrame, b)
		}
		stages[i] = s
	}

	if err := readDataCompressorBitmap(r, stages); err != nil {
		return nil, err
	}

	preserved, err := readPreservedIndices(r, dt.ElemSize())
	if err != nil {
		return nil, err
	}

	// Compute each stage's input-side datatype by replaying OutputDatatype
	// forward, so every stage sees the same ctx.Datatype on Decompress that
	// it saw on Compress.
	inputDTs := make([]format.Datatype, chainLen)
	cur := dt
	for i, s := range stages {
		inputDTs[i] = cur
		cur = s.OutputDatatype(cur)
	}

	headers := make([][]byte, chainLen)
	for i := 0; i < chainLen; i++ {
		n, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		h, err := r.take(int(n))
		if err != nil {
			return nil, err
		}
		headers[i] = h
	}

	payload := r.buf[r.pos:]

	for i := chainLen - 1; i >= 0; i-- {
		ctx := &stage.Context{Dims: d, Datatype: inputDTs[i]}

		out, err := stages[i].Decompress(ctx, headers[i], payload)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", stages[i].Name(), err)
		}
		payload = out
	}

	restorePreserved(dt, payload, preserved)

	return payload, nil
}

// preservedElems scans a float/double array for positions whose value must
// survive every lossy stage bit-exact: NaN and infinities (unconditionally —
// the lossy codecs are only defined over finite values), any declared
// special value, the fill value, and any value inside the declared lossless
// data range, capturing each one's raw bytes for the frame's side table.
func preservedElems(dt format.Datatype, data []byte, eff hints.EffectiveHints) []preservedElem {
	if !dt.IsFloat() {
		return nil
	}

	elemSize := dt.ElemSize()
	n := len(data) / elemSize

	var entries []preservedElem
	for i := 0; i < n; i++ {
		v := readElem(dt, data, i)
		preserve := math.IsNaN(v) || math.IsInf(v, 0) ||
			(eff.HasFillValue && v == eff.FillValue) ||
			(eff.HasLosslessDataRange && v >= eff.LosslessDataRangeFrom && v <= eff.LosslessDataRangeTo) ||
			isSpecialValue(v, eff.SpecialValues)
		if !preserve {
			continue
		}

		raw := make([]byte, elemSize)
		copy(raw, data[i*elemSize:(i+1)*elemSize])
		entries = append(entries, preservedElem{index: int64(i), raw: raw})
	}

	return entries
}

// isSpecialValue reports whether v equals (==) one of the context's declared
// special values. Any NaN matches a NaN special value, since NaN != NaN
// under ==.
func isSpecialValue(v float64, specials []float64) bool {
	for _, s := range specials {
		if v == s || (math.IsNaN(v) && math.IsNaN(s)) {
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

// restorePreserved overwrites each preserved element's original bytes back
// into payload, undoing whatever the lossy stages did to it.
func restorePreserved(dt format.Datatype, payload []byte, entries []preservedElem) {
	elemSize := dt.ElemSize()
	for _, e := range entries {
		off := int(e.index) * elemSize
		if off+elemSize > len(payload) {
			continue
		}
		copy(payload[off:off+elemSize], e.raw)
	}
}
