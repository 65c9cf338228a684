package pool

import "sync"

// FrameBufferDefaultSize is the default capacity of a buffer handed out by
// the frame pool: big enough to hold one frame for a typical array without
// reallocating, small enough that an idle pool doesn't hoard much memory.
const (
	FrameBufferDefaultSize  = 1024 * 16  // 16KiB
	FrameBufferMaxThreshold = 1024 * 128 // 128KiB
)

// ByteBuffer is a reusable, growable byte slice, pooled to avoid an
// allocation on every Compress call.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer but retains its allocated capacity for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// ByteBufferPool is a sync.Pool of ByteBuffers. Buffers grown past
// maxThreshold are dropped instead of returned to the pool, so one
// oversized frame doesn't pin a large allocation in the pool forever.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a ByteBufferPool whose buffers start at
// defaultSize and are discarded on Put once grown past maxThreshold
// (0 disables the threshold).
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var framePool = NewByteBufferPool(FrameBufferDefaultSize, FrameBufferMaxThreshold)

// GetFrameBuffer retrieves a ByteBuffer from the shared frame pool. Callers
// assembling a self-describing frame (root package Compress) use this
// instead of allocating a fresh slice on every call.
func GetFrameBuffer() *ByteBuffer {
	return framePool.Get()
}

// PutFrameBuffer returns a ByteBuffer to the shared frame pool.
func PutFrameBuffer(bb *ByteBuffer) {
	framePool.Put(bb)
}
