package bytecompress

import (
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/stage"
)

// s2Stage wraps klauspost/compress/s2's block codec. s2's wire format
// embeds its own decoded length, so unlike lz4Stage this stage needs no
// stage header at all.
type s2Stage struct{}

const s2ID uint8 = 12

func init() {
	stage.Register(&s2Stage{})
}

func (s2Stage) ID() uint8                                        { return s2ID }
func (s2Stage) Name() string                                     { return "s2" }
func (s2Stage) Role() format.Role                                 { return format.ByteCompressor }
func (s2Stage) IsLossy() bool                                       { return false }
func (s2Stage) OutputDatatype(in format.Datatype) format.Datatype { return in }

func (s2Stage) Compress(ctx *stage.Context, src []byte) (header []byte, payload []byte, err error) {
	return nil, s2.Encode(nil, src), nil
}

func (s2Stage) Decompress(ctx *stage.Context, header []byte, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: s2 decoded length: %v", errs.ErrCorruptFrame, err)
	}

	dst := make([]byte, n)
	out, err := s2.Decode(dst, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: s2 decompress: %v", errs.ErrUnknown, err)
	}

	return out, nil
}
