package scil

import (
	"encoding/binary"
	"math"
	"testing"

	_ "github.com/scil-project/scil/bytecompress"
	_ "github.com/scil-project/scil/codec"
	"github.com/scil-project/scil/dims"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/hints"
	"github.com/stretchr/testify/require"
)

func encodeDoubles(vals []float64) []byte {
	out := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], math.Float64bits(v))
	}

	return out
}

func TestNewContext_LosslessDefault(t *testing.T) {
	userHints, err := hints.New()
	require.NoError(t, err)

	ctx, err := NewContext(format.Double, nil, userHints)
	require.NoError(t, err)
	defer ctx.Destroy()

	require.True(t, ctx.EffectiveHints().Lossless)
}

func TestNewContext_UnknownForcedAlgorithm(t *testing.T) {
	userHints, err := hints.New(hints.WithForceCompressionMethods("nonexistent"))
	require.NoError(t, err)

	_, err = NewContext(format.Double, nil, userHints)
	require.Error(t, err)
}

func TestCompressDecompress_RoundTrip(t *testing.T) {
	d, err := dims.New(10000)
	require.NoError(t, err)

	vals := make([]float64, 10000)
	for i := range vals {
		vals[i] = -100 + 200*float64(i)/float64(len(vals))
	}
	src := encodeDoubles(vals)

	userHints, err := hints.New(hints.WithAbsoluteTolerance(0.005))
	require.NoError(t, err)

	ctx, err := NewContext(format.Double, nil, userHints)
	require.NoError(t, err)
	defer ctx.Destroy()

	frame, err := Compress(ctx, d, src)
	require.NoError(t, err)
	require.LessOrEqual(t, int64(len(frame)), CompressedSizeLimit(d, format.Double))

	out, err := Decompress(format.Double, d, frame)
	require.NoError(t, err)

	for i := range vals {
		got := math.Float64frombits(binary.LittleEndian.Uint64(out[i*8 : i*8+8]))
		require.InDelta(t, vals[i], got, 0.005*1.0001)
	}
}

func TestValidate_ReportsRatioAndAccuracy(t *testing.T) {
	d, err := dims.New(5000)
	require.NoError(t, err)

	vals := make([]float64, 5000)
	for i := range vals {
		vals[i] = 35.3535
	}
	src := encodeDoubles(vals)

	userHints, err := hints.New()
	require.NoError(t, err)

	ctx, err := NewContext(format.Double, nil, userHints)
	require.NoError(t, err)
	defer ctx.Destroy()

	frame, err := Compress(ctx, d, src)
	require.NoError(t, err)

	report, err := Validate(ctx, d, src, frame)
	require.NoError(t, err)
	require.True(t, report.WithinTolerance)
	require.Greater(t, report.CompressionRatio(), 100.0)
}

func TestCompressDecompress_EmptyArray(t *testing.T) {
	d, err := dims.New(0)
	require.NoError(t, err)

	userHints, err := hints.New()
	require.NoError(t, err)

	ctx, err := NewContext(format.Double, nil, userHints)
	require.NoError(t, err)
	defer ctx.Destroy()

	frame, err := Compress(ctx, d, nil)
	require.NoError(t, err)
	require.Len(t, frame, 1)

	out, err := Decompress(format.Double, d, frame)
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestCompressDecompress_ForcedLosslessOnLossyHints(t *testing.T) {
	d, err := dims.New(32)
	require.NoError(t, err)

	vals := make([]float64, 32)
	for i := range vals {
		vals[i] = float64(i) * 1.1
	}
	src := encodeDoubles(vals)

	userHints, err := hints.New(
		hints.WithAbsoluteTolerance(0.01),
		hints.WithForceCompressionMethods("memcopy,zstd"),
	)
	require.NoError(t, err)

	ctx, err := NewContext(format.Double, nil, userHints)
	require.NoError(t, err)
	defer ctx.Destroy()

	frame, err := Compress(ctx, d, src)
	require.NoError(t, err)

	out, err := Decompress(format.Double, d, frame)
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestAvailableCompressors_IncludesRegisteredStages(t *testing.T) {
	names := AvailableCompressors()
	require.Contains(t, names, "memcopy")
	require.Contains(t, names, "sigbits")
	require.Contains(t, names, "abstol")
	require.Contains(t, names, "zstd")
}

func TestContext_DestroyIsIdempotent(t *testing.T) {
	userHints, err := hints.New()
	require.NoError(t, err)

	ctx, err := NewContext(format.Double, nil, userHints)
	require.NoError(t, err)

	ctx.Destroy()
	ctx.Destroy()
}
