package bytecompress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/stage"
)

// zstdStage wraps klauspost/compress/zstd, the teacher's pure-Go zstd
// back-end. A single package-level encoder/decoder pair is built lazily:
// EncodeAll/DecodeAll on a *zstd.Encoder/*zstd.Decoder are safe for
// concurrent use, so there is no per-call allocation to pool here the way
// lz4's hash table needs.
type zstdStage struct{}

const zstdID uint8 = 13

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdInitErr error
)

func zstdCodecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdInitErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdInitErr != nil {
			return
		}
		zstdDecoder, zstdInitErr = zstd.NewReader(nil)
	})

	return zstdEncoder, zstdDecoder, zstdInitErr
}

func init() {
	stage.Register(&zstdStage{})
}

func (zstdStage) ID() uint8                                        { return zstdID }
func (zstdStage) Name() string                                     { return "zstd" }
func (zstdStage) Role() format.Role                                 { return format.ByteCompressor }
func (zstdStage) IsLossy() bool                                       { return false }
func (zstdStage) OutputDatatype(in format.Datatype) format.Datatype { return in }

func (zstdStage) Compress(ctx *stage.Context, src []byte) (header []byte, payload []byte, err error) {
	enc, _, err := zstdCodecs()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: zstd encoder init: %v", errs.ErrUnknown, err)
	}

	return nil, enc.EncodeAll(src, nil), nil
}

func (zstdStage) Decompress(ctx *stage.Context, header []byte, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	_, dec, err := zstdCodecs()
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decoder init: %v", errs.ErrUnknown, err)
	}

	out, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decompress: %v", errs.ErrUnknown, err)
	}

	return out, nil
}
