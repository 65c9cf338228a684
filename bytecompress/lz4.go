package bytecompress

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/stage"
)

// lz4Stage wraps pierrec/lz4's block compressor. A pooled hash table
// mirrors the teacher's pooled lz4.Compressor: CompressBlock's hash table
// is the only per-call allocation worth reusing across calls.
type lz4Stage struct{}

const lz4ID uint8 = 11

// lz4HashTableSize matches the hash table size lz4.CompressBlock expects
// for its default window (1 << 16 entries).
const lz4HashTableSize = 1 << 16

var hashTablePool = sync.Pool{
	New: func() any { return make([]int, lz4HashTableSize) },
}

func init() {
	stage.Register(&lz4Stage{})
}

func (lz4Stage) ID() uint8                                        { return lz4ID }
func (lz4Stage) Name() string                                     { return "lz4" }
func (lz4Stage) Role() format.Role                                 { return format.ByteCompressor }
func (lz4Stage) IsLossy() bool                                       { return false }
func (lz4Stage) OutputDatatype(in format.Datatype) format.Datatype { return in }

func (lz4Stage) Compress(ctx *stage.Context, src []byte) (header []byte, payload []byte, err error) {
	if len(src) == 0 {
		return lenHeader(0), nil, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(src)))

	ht, _ := hashTablePool.Get().([]int)
	if len(ht) < lz4HashTableSize {
		ht = make([]int, lz4HashTableSize)
	}
	defer hashTablePool.Put(ht)

	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst, ht)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: lz4 compress: %v", errs.ErrUnknown, err)
	}

	// Incompressible input: CompressBlock reports n == 0 without error.
	if n == 0 {
		header = lenHeader(len(src))
		header = append(header, 0) // stored flag: payload is raw
		payload = make([]byte, len(src))
		copy(payload, src)

		return header, payload, nil
	}

	header = lenHeader(len(src))
	header = append(header, 1) // stored flag: payload is lz4-compressed

	return header, dst[:n], nil
}

func (lz4Stage) Decompress(ctx *stage.Context, header []byte, payload []byte) ([]byte, error) {
	origLen, flagOff, err := readLenHeader(header)
	if err != nil {
		return nil, err
	}
	if origLen == 0 {
		return nil, nil
	}
	if flagOff >= len(header) {
		return nil, fmt.Errorf("%w: lz4 header missing stored flag", errs.ErrCorruptFrame)
	}

	if header[flagOff] == 0 {
		out := make([]byte, origLen)
		copy(out, payload)

		return out, nil
	}

	dst := make([]byte, origLen)
	n, err := lz4.UncompressBlock(payload, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4 decompress: %v", errs.ErrUnknown, err)
	}
	if n != origLen {
		return nil, fmt.Errorf("%w: lz4 decompressed length %d, expected %d", errs.ErrCorruptFrame, n, origLen)
	}

	return dst, nil
}

// lenHeader encodes an original byte length as a varint, used by lz4Stage
// to size its decompression destination buffer.
func lenHeader(n int) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	w := binary.PutUvarint(buf, uint64(n))

	return buf[:w]
}

// readLenHeader decodes a length written by lenHeader, returning the value
// and the offset of the first byte following the varint.
func readLenHeader(header []byte) (n int, next int, err error) {
	v, w := binary.Uvarint(header)
	if w <= 0 {
		return 0, 0, fmt.Errorf("%w: malformed length header", errs.ErrCorruptFrame)
	}

	return int(v), w, nil
}
