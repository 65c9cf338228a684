// Package bytecompress implements the BYTE_COMPRESSOR stage role: adapters
// over third-party general-purpose byte compressors (lz4, s2, zstd) plus a
// lossless identity stage, each self-registering with the stage registry.
package bytecompress

import (
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/stage"
)

// noopStage passes bytes through unchanged. The heuristic chooser falls
// back to it as the tail byte compressor only when none of zstd, lz4 or s2
// is registered; a forced chain may name it directly.
type noopStage struct{}

const noopID uint8 = 10

func init() {
	stage.Register(&noopStage{})
}

func (noopStage) ID() uint8                                        { return noopID }
func (noopStage) Name() string                                     { return "noop" }
func (noopStage) Role() format.Role                                 { return format.ByteCompressor }
func (noopStage) IsLossy() bool                                       { return false }
func (noopStage) OutputDatatype(in format.Datatype) format.Datatype { return in }

func (noopStage) Compress(ctx *stage.Context, src []byte) (header []byte, payload []byte, err error) {
	payload = make([]byte, len(src))
	copy(payload, src)

	return nil, payload, nil
}

func (noopStage) Decompress(ctx *stage.Context, header []byte, payload []byte) ([]byte, error) {
	out := make([]byte, len(payload))
	copy(out, payload)

	return out, nil
}
