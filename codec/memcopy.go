// Package codec implements the lossy and identity stages that operate on an
// array's own element stream: sigbits (mantissa truncation), abstol
// (quantization to an integer lattice), and memcopy (identity). Each
// self-registers with the stage registry on import.
package codec

import (
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/stage"
)

// memcopyStage is the identity transform in the DATA_COMPRESSOR slot: the
// chooser puts it ahead of the tail byte compressor when no accuracy hint
// calls for anything lossy, and a forced chain may use it alone as its
// terminal stage. It mirrors the teacher's noop byte codec.
type memcopyStage struct{}

const memcopyID uint8 = 0

func init() {
	stage.Register(&memcopyStage{})
}

func (memcopyStage) ID() uint8         { return memcopyID }
func (memcopyStage) Name() string      { return "memcopy" }
func (memcopyStage) Role() format.Role { return format.DataCompressor }
func (memcopyStage) IsLossy() bool     { return false }

func (memcopyStage) OutputDatatype(in format.Datatype) format.Datatype { return in }

func (memcopyStage) Compress(ctx *stage.Context, src []byte) (header []byte, payload []byte, err error) {
	payload = make([]byte, len(src))
	copy(payload, src)

	return nil, payload, nil
}

func (memcopyStage) Decompress(ctx *stage.Context, header []byte, payload []byte) ([]byte, error) {
	out := make([]byte, len(payload))
	copy(out, payload)

	return out, nil
}
