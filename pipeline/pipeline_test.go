package pipeline

import (
	"encoding/binary"
	"math"
	"testing"

	_ "github.com/scil-project/scil/bytecompress"
	"github.com/scil-project/scil/chain"
	_ "github.com/scil-project/scil/codec"
	"github.com/scil-project/scil/dims"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/hints"
	"github.com/scil-project/scil/stage"
	"github.com/stretchr/testify/require"
)

func encodeDoubles(vals []float64) []byte {
	out := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], math.Float64bits(v))
	}

	return out
}

func decodeDoubles(b []byte) []float64 {
	n := len(b) / 8
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8 : i*8+8]))
	}

	return out
}

func mustChain(t *testing.T, names ...string) *chain.Chain {
	t.Helper()
	stages := make([]stage.Stage, len(names))
	for i, n := range names {
		s, ok := stage.Get(n)
		require.True(t, ok, "stage %s must be registered", n)
		stages[i] = s
	}
	c, err := chain.New(stages)
	require.NoError(t, err)

	return c
}

func TestRoundTrip_LosslessZstd(t *testing.T) {
	d, err := dims.New(100)
	require.NoError(t, err)

	vals := make([]float64, 100)
	for i := range vals {
		vals[i] = float64(i)
	}
	src := encodeDoubles(vals)

	c := mustChain(t, "zstd")

	frame, err := Compress(format.Double, d, src, c, hints.EffectiveHints{Lossless: true})
	require.NoError(t, err)

	out, err := Decompress(format.Double, d, frame)
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestRoundTrip_Sigbits(t *testing.T) {
	d, err := dims.New(16)
	require.NoError(t, err)

	vals := []float64{1, 1.0 / 3, 42.125, -7.7, 0, 100.001, 3.14159, 2.71828, 9.99, -0.5, 1e6, -1e6, 5, 6, 7, 8}
	src := encodeDoubles(vals)

	c := mustChain(t, "sigbits", "zstd")
	eff := hints.EffectiveHints{SignificantBits: 20}

	frame, err := Compress(format.Double, d, src, c, eff)
	require.NoError(t, err)

	out, err := Decompress(format.Double, d, frame)
	require.NoError(t, err)

	got := decodeDoubles(out)
	for i := range vals {
		require.InDelta(t, vals[i], got[i], math.Abs(vals[i])*0.001+1e-2)
	}
}

func TestRoundTrip_AbstolWithinTolerance(t *testing.T) {
	d, err := dims.New(50)
	require.NoError(t, err)

	vals := make([]float64, 50)
	for i := range vals {
		vals[i] = float64(i)*1.37 - 25
	}
	src := encodeDoubles(vals)

	tol := 0.01
	c := mustChain(t, "abstol", "zstd")
	eff := hints.EffectiveHints{AbsoluteTolerance: tol}

	frame, err := Compress(format.Double, d, src, c, eff)
	require.NoError(t, err)

	out, err := Decompress(format.Double, d, frame)
	require.NoError(t, err)

	got := decodeDoubles(out)
	for i := range vals {
		require.InDelta(t, vals[i], got[i], tol*1.0001)
	}
}

func TestRoundTrip_FillValuePreservedExact(t *testing.T) {
	d, err := dims.New(10)
	require.NoError(t, err)

	const fill = -9999.0
	vals := []float64{1, 2, fill, 4, 5, fill, 7, 8, 9, 10}
	src := encodeDoubles(vals)

	c := mustChain(t, "abstol", "zstd")
	eff := hints.EffectiveHints{AbsoluteTolerance: 0.5, HasFillValue: true, FillValue: fill}

	frame, err := Compress(format.Double, d, src, c, eff)
	require.NoError(t, err)

	out, err := Decompress(format.Double, d, frame)
	require.NoError(t, err)

	got := decodeDoubles(out)
	require.Equal(t, fill, got[2])
	require.Equal(t, fill, got[5])
	for i := range vals {
		if vals[i] == fill {
			continue
		}
		require.InDelta(t, vals[i], got[i], 0.5*1.0001)
	}
}

func TestRoundTrip_NaNAndInfPreservedThroughAbstol(t *testing.T) {
	d, err := dims.New(6)
	require.NoError(t, err)

	vals := []float64{1, math.NaN(), 3, math.Inf(1), math.Inf(-1), 6}
	src := encodeDoubles(vals)

	c := mustChain(t, "abstol", "zstd")
	eff := hints.EffectiveHints{AbsoluteTolerance: 0.5}

	frame, err := Compress(format.Double, d, src, c, eff)
	require.NoError(t, err)

	out, err := Decompress(format.Double, d, frame)
	require.NoError(t, err)

	got := decodeDoubles(out)
	require.True(t, math.IsNaN(got[1]))
	require.True(t, math.IsInf(got[3], 1))
	require.True(t, math.IsInf(got[4], -1))
	require.Equal(t, 1.0, got[0])
	require.InDelta(t, 3.0, got[2], 0.5*1.0001)
	require.InDelta(t, 6.0, got[5], 0.5*1.0001)
}

func TestRoundTrip_SpecialValuesPreservedThroughSigbits(t *testing.T) {
	d, err := dims.New(4)
	require.NoError(t, err)

	const special = -999.25
	vals := []float64{1, special, 3, 4}
	src := encodeDoubles(vals)

	c := mustChain(t, "sigbits", "zstd")
	eff := hints.EffectiveHints{SignificantBits: 4, SpecialValues: []float64{special}}

	frame, err := Compress(format.Double, d, src, c, eff)
	require.NoError(t, err)

	out, err := Decompress(format.Double, d, frame)
	require.NoError(t, err)

	got := decodeDoubles(out)
	require.Equal(t, special, got[1])
}

func TestRoundTrip_EmptyArray(t *testing.T) {
	d, err := dims.New(0)
	require.NoError(t, err)

	c := mustChain(t, "zstd")

	frame, err := Compress(format.Double, d, nil, c, hints.EffectiveHints{Lossless: true})
	require.NoError(t, err)
	require.Len(t, frame, 1)

	out, err := Decompress(format.Double, d, frame)
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestRoundTrip_ConstantPatternRatio(t *testing.T) {
	d, err := dims.New(10000)
	require.NoError(t, err)

	vals := make([]float64, 10000)
	for i := range vals {
		vals[i] = 42.0
	}
	src := encodeDoubles(vals)

	c := mustChain(t, "zstd")

	frame, err := Compress(format.Double, d, src, c, hints.EffectiveHints{Lossless: true})
	require.NoError(t, err)
	require.Greater(t, float64(len(src))/float64(len(frame)), 100.0)

	out, err := Decompress(format.Double, d, frame)
	require.NoError(t, err)
	require.Equal(t, src, out)
}
