package dims

import (
	"testing"

	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("valid 1d", func(t *testing.T) {
		d, err := New(10)
		require.NoError(t, err)
		require.Equal(t, 1, d.Rank())
		require.Equal(t, int64(10), d.Count())
	})

	t.Run("valid 4d", func(t *testing.T) {
		d, err := New(2, 3, 4, 5)
		require.NoError(t, err)
		require.Equal(t, 4, d.Rank())
		require.Equal(t, int64(120), d.Count())
	})

	t.Run("rejects rank 0", func(t *testing.T) {
		_, err := New()
		require.ErrorIs(t, err, errs.ErrInvalidDims)
	})

	t.Run("rejects rank above 4", func(t *testing.T) {
		_, err := New(1, 2, 3, 4, 5)
		require.ErrorIs(t, err, errs.ErrInvalidDims)
	})

	t.Run("allows zero axis for an explicitly empty array", func(t *testing.T) {
		d, err := New(0)
		require.NoError(t, err)
		require.Equal(t, int64(0), d.Count())
	})

	t.Run("rejects negative axis", func(t *testing.T) {
		_, err := New(3, -1)
		require.ErrorIs(t, err, errs.ErrInvalidDims)
	})
}

func TestDims_ByteSize(t *testing.T) {
	d, err := New(100)
	require.NoError(t, err)

	require.Equal(t, int64(400), d.ByteSize(format.Float))
	require.Equal(t, int64(800), d.ByteSize(format.Double))
	require.Equal(t, int64(100), d.ByteSize(format.Int8))
}

func TestDims_CompressedLimit(t *testing.T) {
	d, err := New(100)
	require.NoError(t, err)

	limit := d.CompressedLimit(format.Double, 32)
	require.Equal(t, int64(2*800+32), limit)
	require.GreaterOrEqual(t, limit, 2*d.ByteSize(format.Double))
}

func TestDims_LinearIndex(t *testing.T) {
	d, err := New(2, 3)
	require.NoError(t, err)

	idx, err := d.LinearIndex([]int64{1, 0})
	require.NoError(t, err)
	require.Equal(t, int64(1), idx)

	idx, err = d.LinearIndex([]int64{0, 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), idx)

	idx, err = d.LinearIndex([]int64{1, 2})
	require.NoError(t, err)
	require.Equal(t, int64(5), idx)

	_, err = d.LinearIndex([]int64{1})
	require.ErrorIs(t, err, errs.ErrInvalidDims)

	_, err = d.LinearIndex([]int64{2, 0})
	require.ErrorIs(t, err, errs.ErrInvalidDims)
}

func TestDims_Axes(t *testing.T) {
	d, err := New(4, 5, 6)
	require.NoError(t, err)
	require.Equal(t, []int64{4, 5, 6}, d.Axes())
	require.Equal(t, int64(4), d.Axis(0))
	require.Equal(t, int64(6), d.Axis(2))
}

func TestDims_Axis_Panics(t *testing.T) {
	d, err := New(4)
	require.NoError(t, err)
	require.Panics(t, func() { d.Axis(1) })
}
