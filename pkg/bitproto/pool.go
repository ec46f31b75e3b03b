package bitproto

import (
	"math/bits"
	"sync"
)

// Size-tiered buffer pools, used by the batch layer to avoid
// allocating a fresh scratch slice on every call. The single-scalar codec
// path (codec.go) never touches these pools: its scratch is always a
// stack-local array, per field, so that Read/Write stay safe to call from
// multiple goroutines against independent Protocols without any shared
// mutable state.
var bufferPools = [6]sync.Pool{
	{New: func() any { return make([]byte, 0, 64) }},
	{New: func() any { return make([]byte, 0, 256) }},
	{New: func() any { return make([]byte, 0, 1024) }},
	{New: func() any { return make([]byte, 0, 4096) }},
	{New: func() any { return make([]byte, 0, 16384) }},
	{New: func() any { return make([]byte, 0, 65536) }},
}

var bufferSizes = [6]int{64, 256, 1024, 4096, 16384, 65536}

func poolIndex(size int) int {
	for i, s := range bufferSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// getPooledBuffer returns a zero-length buffer with at least sizeHint
// capacity, pulled from the size-tiered pool when sizeHint is 64KB or
// smaller, or freshly allocated otherwise.
func getPooledBuffer(sizeHint int) []byte {
	idx := poolIndex(sizeHint)
	if idx < 0 {
		return make([]byte, 0, sizeHint)
	}
	buf := bufferPools[idx].Get().([]byte)
	return buf[:0]
}

// putPooledBuffer returns buf to the size-tiered pool keyed by its
// capacity. Buffers over 64KB are left for the garbage collector.
func putPooledBuffer(buf []byte) {
	c := cap(buf)
	if c > 65536 {
		return
	}
	if idx := poolIndex(c); idx >= 0 {
		bufferPools[idx].Put(buf[:0]) //nolint:staticcheck // pool element must be a slice header, not a pointer
	}
}

// BufferPoolStats reports the size classes the pool is configured with.
type BufferPoolStats struct {
	SizeClasses  []int
	TotalClasses int
}

// GetBufferPoolStats returns the current buffer pool configuration.
func GetBufferPoolStats() BufferPoolStats {
	return BufferPoolStats{SizeClasses: bufferSizes[:], TotalClasses: len(bufferSizes)}
}

// OptimalBufferSize rounds dataSize up to the nearest pool size class, or
// to the next power of two beyond the largest class.
func OptimalBufferSize(dataSize int) int {
	if dataSize <= 0 {
		return bufferSizes[0]
	}
	if dataSize > bufferSizes[len(bufferSizes)-1] {
		return 1 << bits.Len(uint(dataSize-1))
	}
	for _, size := range bufferSizes {
		if dataSize <= size {
			return size
		}
	}
	return dataSize
}
