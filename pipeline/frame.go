// Package pipeline implements the self-describing compressed frame format
// and the executor that runs an array through a validated chain.Chain to
// produce (or reverse) one.
//
// Frame layout, all integers little-endian. Datatype and dims are NOT part
// of the frame: the caller already knows them (it built the Context that
// produced the frame) and passes them back into Decompress, matching the
// original C library's `scil_decompress(ctx_datatype, dims, frame, ...)`
// entry point.
//
//	[1]       chain length L (1..21)
//	[L]       stage ids, in execution order
//	[ceil(L/8)]  is-data-compressor bitmap, LSB-first: bit i set means
//	             stage i is a datatype-domain stage (PRECOND_FIRST,
//	             CONVERTER, PRECOND_SECOND or DATA_COMPRESSOR), clear means
//	             it is a BYTE_COMPRESSOR. Spans more than one byte only for
//	             chains longer than 8 stages.
//	varint    preserved-element count P
//	P entries each: varint linear index, delta-encoded from the previous
//	          entry, then the element's original bytes (element size of dt)
//	[8]       xxhash64 of the P entries above, count excluded (0 if P == 0)
//	per stage: varint header length, then that many header bytes
//	remainder: final stage's payload bytes
//
// A frame for a zero-element array is exactly one byte: 0xFF.
package pipeline

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/internal/pool"
	"github.com/scil-project/scil/stage"
)

// emptySentinel is the single-byte frame written for a zero-element array.
const emptySentinel = 0xFF

// frameWriter accumulates a frame's bytes.
type frameWriter struct {
	buf []byte
}

func (w *frameWriter) byte(b byte) { w.buf = append(w.buf, b) }

func (w *frameWriter) bytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *frameWriter) uvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf = append(w.buf, tmp[:n]...)
}

// dataCompressorBitmap packs one LSB-first bit per stage: set when the
// stage's role is anything other than ByteCompressor.
func dataCompressorBitmap(stages []stage.Stage) []byte {
	out := make([]byte, (len(stages)+7)/8)
	for i, s := range stages {
		if s.Role() != format.ByteCompressor {
			out[i/8] |= 1 << uint(i%8)
		}
	}

	return out
}

// preservedElem is one entry of the preserved-value side table: the linear
// index of an element that must survive the chain bit-exact (NaN, an
// infinity, a special value, the fill value, or a value inside the caller's
// lossless data range), and its original raw bytes.
type preservedElem struct {
	index int64
	raw   []byte
}

// writePreservedIndices encodes the side table of preserved elements, sorted
// by index, along with an xxhash64 fingerprint over the table body so
// Decompress can detect a corrupted table without needing the original
// array (which it no longer has) to re-derive it.
func writePreservedIndices(entries []preservedElem) []byte {
	w := &frameWriter{}
	w.uvarint(uint64(len(entries)))

	prev := int64(0)
	body := &frameWriter{}
	for _, e := range entries {
		body.uvarint(uint64(e.index - prev))
		body.bytes(e.raw)
		prev = e.index
	}

	w.bytes(body.buf)

	var sum uint64
	if len(entries) > 0 {
		sum = xxhash.Sum64(body.buf)
	}

	var sumBytes [8]byte
	binary.LittleEndian.PutUint64(sumBytes[:], sum)
	w.bytes(sumBytes[:])

	return w.buf
}

// frameReader walks a frame's bytes left to right.
type frameReader struct {
	buf []byte
	pos int
}

func (r *frameReader) byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, fmt.Errorf("%w: unexpected end of frame", errs.ErrCorruptFrame)
	}
	b := r.buf[r.pos]
	r.pos++

	return b, nil
}

func (r *frameReader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("%w: expected %d more bytes, have %d", errs.ErrCorruptFrame, n, len(r.buf)-r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n

	return b, nil
}

func (r *frameReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("%w: malformed varint", errs.ErrCorruptFrame)
	}
	r.pos += n

	return v, nil
}

// readDataCompressorBitmap reads the ceil(len(stages)/8)-byte bitmap and
// checks it against the roles the registry already reports for the
// resolved stages, catching a frame whose bitmap was corrupted or
// generated by an incompatible writer.
func readDataCompressorBitmap(r *frameReader, stages []stage.Stage) error {
	nBytes := (len(stages) + 7) / 8
	bitmap, err := r.take(nBytes)
	if err != nil {
		return err
	}

	want := dataCompressorBitmap(stages)
	for i := range want {
		if bitmap[i] != want[i] {
			return fmt.Errorf("%w: is-data-compressor bitmap does not match chain's stage roles", errs.ErrCorruptFrame)
		}
	}

	return nil
}

func readPreservedIndices(r *frameReader, elemSize int) ([]preservedElem, error) {
	count, err := r.uvarint()
	if err != nil {
		return nil, err
	}

	start := r.pos

	// Decode the delta-encoded indices into a pooled []int64 rather than
	// allocating one on every frame: the side table is typically small and
	// short-lived, but Decompress can be called at a high rate.
	indices, cleanup := pool.GetInt64Slice(int(count))
	defer cleanup()

	entries := make([]preservedElem, count)
	prev := int64(0)
	for i := uint64(0); i < count; i++ {
		delta, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		prev += int64(delta)
		indices[i] = prev

		raw, err := r.take(elemSize)
		if err != nil {
			return nil, err
		}

		entries[i] = preservedElem{index: indices[i], raw: append([]byte(nil), raw...)}
	}
	body := r.buf[start:r.pos]

	sumBytes, err := r.take(8)
	if err != nil {
		return nil, err
	}
	wantSum := binary.LittleEndian.Uint64(sumBytes)

	var gotSum uint64
	if count > 0 {
		gotSum = xxhash.Sum64(body)
	}
	if gotSum != wantSum {
		return nil, fmt.Errorf("%w: preserved-value table fingerprint mismatch", errs.ErrCorruptFrame)
	}

	return entries, nil
}
