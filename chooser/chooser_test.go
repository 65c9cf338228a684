package chooser

import (
	"testing"

	_ "github.com/scil-project/scil/bytecompress"
	_ "github.com/scil-project/scil/codec"
	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/scil-project/scil/hints"
	"github.com/stretchr/testify/require"
)

func TestChoose_LosslessDefault(t *testing.T) {
	h, err := hints.New()
	require.NoError(t, err)

	res, err := Choose(format.Double, h, nil)
	require.NoError(t, err)
	require.True(t, res.Effective.Lossless)
	require.Equal(t, 2, res.Chain.Len())
	require.Equal(t, []string{"memcopy", "zstd"}, stageNames(t, res))
}

func TestChoose_SignificantBits(t *testing.T) {
	h, err := hints.New(hints.WithSignificantBits(16))
	require.NoError(t, err)

	res, err := Choose(format.Double, h, nil)
	require.NoError(t, err)
	require.False(t, res.Effective.Lossless)

	names := stageNames(t, res)
	require.Equal(t, []string{"sigbits", "zstd"}, names)
}

func TestChoose_RelativeTolerancePercent(t *testing.T) {
	h, err := hints.New(hints.WithRelativeTolerancePercent(1))
	require.NoError(t, err)

	res, err := Choose(format.Double, h, nil)
	require.NoError(t, err)
	require.False(t, res.Effective.Lossless)
	require.Greater(t, res.Effective.SignificantBits, 0)

	names := stageNames(t, res)
	require.Equal(t, []string{"sigbits", "zstd"}, names)
}

func TestChoose_AbsoluteTolerance(t *testing.T) {
	h, err := hints.New(hints.WithAbsoluteTolerance(0.5))
	require.NoError(t, err)

	res, err := Choose(format.Float, h, nil)
	require.NoError(t, err)

	names := stageNames(t, res)
	require.Equal(t, []string{"abstol", "zstd"}, names)
}

func TestChoose_ZeroToleranceIsLossless(t *testing.T) {
	h, err := hints.New(hints.WithAbsoluteTolerance(0))
	require.NoError(t, err)

	res, err := Choose(format.Double, h, nil)
	require.NoError(t, err)
	require.True(t, res.Effective.Lossless)
}

func TestChoose_OpaqueDatatypeRejectsLossy(t *testing.T) {
	h, err := hints.New(hints.WithAbsoluteTolerance(0.1))
	require.NoError(t, err)

	_, err = Choose(format.Binary, h, nil)
	require.ErrorIs(t, err, errs.ErrUnsupported)
}

func TestChoose_ForcedMethods_ByName(t *testing.T) {
	h, err := hints.New(
		hints.WithSignificantBits(16),
		hints.WithForceCompressionMethods("sigbits,lz4"),
	)
	require.NoError(t, err)

	res, err := Choose(format.Double, h, nil)
	require.NoError(t, err)

	names := stageNames(t, res)
	require.Equal(t, []string{"sigbits", "lz4"}, names)
}

func TestChoose_ForcedMethods_NumericID(t *testing.T) {
	h, err := hints.New(hints.WithForceCompressionMethods("0"))
	require.NoError(t, err)

	res, err := Choose(format.Int32, h, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"memcopy"}, stageNames(t, res))
}

func TestChoose_ForcedMethods_LossyForbidden(t *testing.T) {
	h, err := hints.New(hints.WithForceCompressionMethods("sigbits,zstd"))
	require.NoError(t, err)

	_, err = Choose(format.Double, h, nil)
	require.ErrorIs(t, err, errs.ErrLossyForbidden)
}

func TestChoose_ForcedMethods_UnknownAlgorithm(t *testing.T) {
	h, err := hints.New(hints.WithForceCompressionMethods("not-a-real-stage"))
	require.NoError(t, err)

	_, err = Choose(format.Double, h, nil)
	require.ErrorIs(t, err, errs.ErrUnknownAlgorithm)
}

func stageNames(t *testing.T, res Result) []string {
	t.Helper()
	stages := res.Chain.Stages()
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}

	return names
}
