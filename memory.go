//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"runtime"
	"unsafe"

	"github.com/obinnaokechukwu/ffmedia/avutil"
)

// MemorySegment is a zeroed block from FFmpeg's allocator. Native APIs that
// take ownership of an av_malloc'd buffer (packets, AVIO contexts) receive it
// through Release.
type MemorySegment struct {
	h    handle
	size int
}

// NewMemorySegment allocates size zeroed bytes with av_mallocz.
func NewMemorySegment(size int) (*MemorySegment, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, allocError("memory segment of non-positive size")
	}
	h, err := newHandle(avutil.Mallocz(uintptr(size)), "memory segment", avutil.Freep)
	if err != nil {
		return nil, err
	}
	m := &MemorySegment{h: h, size: size}
	runtime.SetFinalizer(m, (*MemorySegment).Close)
	return m, nil
}

// Len returns the segment size in bytes, or 0 after Close or Release.
func (m *MemorySegment) Len() int {
	if m.h.closed() {
		return 0
	}
	return m.size
}

// Bytes returns the segment's memory as a slice. The slice is borrowed and
// becomes invalid after Close or Release.
func (m *MemorySegment) Bytes() []byte {
	if m.h.closed() {
		return nil
	}
	return unsafe.Slice((*byte)(m.h.raw()), m.size)
}

// CopyFrom copies data into the start of the segment and returns the number
// of bytes copied.
func (m *MemorySegment) CopyFrom(data []byte) int {
	return copy(m.Bytes(), data)
}

// Release transfers ownership of the memory to the caller, typically a native
// API that frees it later. The segment no longer frees it on Close.
func (m *MemorySegment) Release() unsafe.Pointer {
	return m.h.release()
}

// Close frees the memory unless it was released.
func (m *MemorySegment) Close() error {
	m.h.close()
	return nil
}
