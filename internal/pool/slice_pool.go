package pool

import "sync"

// Slice pools for the typed intermediate buffers the codec and pipeline
// layers stage arrays through: int64 for the preserved-index side table
// decoded out of a frame, float64 for the unpacked array abstol operates on
// before re-encoding.
var (
	int64SlicePool = sync.Pool{
		New: func() any { return &[]int64{} },
	}
	float64SlicePool = sync.Pool{
		New: func() any { return &[]float64{} },
	}
)

// GetInt64Slice returns an int64 slice of exactly size length from the pool,
// allocating a new one if the pooled slice's capacity is too small. The
// caller must call the returned cleanup function (typically via defer) to
// return the slice to the pool.
func GetInt64Slice(size int) ([]int64, func()) {
	ptr, _ := int64SlicePool.Get().(*[]int64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]int64, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		*ptr = slice
	}

	return slice, func() { int64SlicePool.Put(ptr) }
}

// GetFloat64Slice returns a float64 slice of exactly size length from the
// pool, allocating a new one if the pooled slice's capacity is too small.
// The caller must call the returned cleanup function (typically via defer)
// to return the slice to the pool.
func GetFloat64Slice(size int) ([]float64, func()) {
	ptr, _ := float64SlicePool.Get().(*[]float64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]float64, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		*ptr = slice
	}

	return slice, func() { float64SlicePool.Put(ptr) }
}
