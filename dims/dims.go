// Package dims describes the shape of an array passed to SCIL: up to four
// axes, row-major, axis 0 varying fastest.
package dims

import (
	"fmt"

	"github.com/scil-project/scil/errs"
	"github.com/scil-project/scil/format"
)

// MaxRank is the highest supported number of axes.
const MaxRank = 4

// Dims is the shape of a multi-dimensional array. Axes are ordered from
// fastest-varying (axis 0) to slowest-varying (axis Rank()-1), matching
// C-order/row-major layout.
type Dims struct {
	axes [MaxRank]int64
	rank int
}

// New builds a Dims from 1 to 4 axis lengths. An axis may be 0 (an
// explicitly empty array, e.g. a time series with no samples yet) but never
// negative.
func New(axes ...int64) (Dims, error) {
	var d Dims

	if len(axes) < 1 || len(axes) > MaxRank {
		return d, fmt.Errorf("%w: rank %d not in [1,%d]", errs.ErrInvalidDims, len(axes), MaxRank)
	}

	for i, a := range axes {
		if a < 0 {
			return d, fmt.Errorf("%w: axis %d has negative length %d", errs.ErrInvalidDims, i, a)
		}
		d.axes[i] = a
	}
	d.rank = len(axes)

	return d, nil
}

// Rank returns the number of axes, 1 through MaxRank.
func (d Dims) Rank() int {
	return d.rank
}

// Axis returns the length of axis i. It panics if i is out of [0, Rank()).
func (d Dims) Axis(i int) int64 {
	if i < 0 || i >= d.rank {
		panic(fmt.Sprintf("dims: axis index %d out of range for rank %d", i, d.rank))
	}

	return d.axes[i]
}

// Axes returns a copy of the axis lengths, in fastest-to-slowest order,
// truncated to Rank().
func (d Dims) Axes() []int64 {
	out := make([]int64, d.rank)
	copy(out, d.axes[:d.rank])

	return out
}

// Count returns the total element count: the product of all axis lengths.
func (d Dims) Count() int64 {
	n := int64(1)
	for i := 0; i < d.rank; i++ {
		n *= d.axes[i]
	}

	return n
}

// ByteSize returns the size in bytes of an uncompressed array of this shape
// under datatype dt.
func (d Dims) ByteSize(dt format.Datatype) int64 {
	return d.Count() * int64(dt.ElemSize())
}

// CompressedLimit returns the upper bound on a compressed frame's size for
// this shape and datatype: enough room for the worst case (incompressible
// data) plus the frame's fixed header overhead, per the "never larger than
// ~2x the input" ceiling used to size destination buffers.
func (d Dims) CompressedLimit(dt format.Datatype, frameOverhead int) int64 {
	return 2*d.ByteSize(dt) + int64(frameOverhead)
}

// LinearIndex maps a multi-axis position to its offset into a flattened,
// row-major (axis 0 fastest) buffer. pos must have exactly Rank() entries.
func (d Dims) LinearIndex(pos []int64) (int64, error) {
	if len(pos) != d.rank {
		return 0, fmt.Errorf("%w: position has %d coordinates, dims has rank %d", errs.ErrInvalidDims, len(pos), d.rank)
	}

	var idx int64
	stride := int64(1)
	for i := 0; i < d.rank; i++ {
		if pos[i] < 0 || pos[i] >= d.axes[i] {
			return 0, fmt.Errorf("%w: coordinate %d (%d) out of range [0,%d)", errs.ErrInvalidDims, i, pos[i], d.axes[i])
		}
		idx += pos[i] * stride
		stride *= d.axes[i]
	}

	return idx, nil
}

// String implements fmt.Stringer, rendering axes fastest-to-slowest.
func (d Dims) String() string {
	return fmt.Sprintf("%v", d.Axes())
}
