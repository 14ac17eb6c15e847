//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/ffmedia/avformat"
	"github.com/obinnaokechukwu/ffmedia/avutil"
	"github.com/obinnaokechukwu/ffmedia/internal/handles"
)

// IOCallbacks supplies the data behind a read-only IOContext.
type IOCallbacks struct {
	// Read reads up to len(buf) bytes into buf. At end of input it
	// returns 0, io.EOF.
	Read func(buf []byte) (int, error)

	// Seek seeks like io.Seeker. Optional; without it the input is
	// treated as a non-seekable stream.
	Seek func(offset int64, whence int) (int64, error)
}

// IOContext is an owned AVIOContext whose reads are served by Go callbacks.
// It owns the av_malloc'd buffer it was created with, which FFmpeg may
// reallocate.
type IOContext struct {
	h         handle
	callbacks IOCallbacks
	id        uintptr
}

// defaultIOBufferSize is the AVIO buffer size used by OpenMemory.
const defaultIOBufferSize = 32 * 1024

// avseekSize is AVSEEK_SIZE: report the stream size instead of seeking.
const avseekSize = 0x10000

// ioContexts maps the opaque pointer handed to FFmpeg back to its IOContext.
var ioContexts handles.Table[*IOContext]

// Callbacks are created once; purego has a fixed number of callback slots.
var (
	ioCallbacksOnce sync.Once
	readCallbackPtr uintptr
	seekCallbackPtr uintptr
)

func initIOCallbacks() {
	ioCallbacksOnce.Do(func() {
		// int read_packet(void *opaque, uint8_t *buf, int buf_size)
		readCallbackPtr = purego.NewCallback(func(_ purego.CDecl, opaque unsafe.Pointer, buf *byte, bufSize int32) int32 {
			c, ok := ioContexts.Lookup(uintptr(opaque))
			if !ok || c.callbacks.Read == nil {
				return avutil.AVERROR_EINVAL
			}
			n, err := c.callbacks.Read(unsafe.Slice(buf, bufSize))
			if n > 0 {
				return int32(n)
			}
			if err == nil || errors.Is(err, io.EOF) {
				return avutil.AVERROR_EOF
			}
			return avutil.AVERROR_EINVAL
		})

		// int64_t seek(void *opaque, int64_t offset, int whence)
		seekCallbackPtr = purego.NewCallback(func(_ purego.CDecl, opaque unsafe.Pointer, offset int64, whence int32) int64 {
			c, ok := ioContexts.Lookup(uintptr(opaque))
			if !ok || c.callbacks.Seek == nil {
				return -1
			}
			return c.seek(offset, int(whence))
		})
	})
}

func (c *IOContext) seek(offset int64, whence int) int64 {
	seek := c.callbacks.Seek
	if whence&avseekSize != 0 {
		current, err := seek(0, io.SeekCurrent)
		if err != nil {
			return -1
		}
		end, err := seek(0, io.SeekEnd)
		if err != nil {
			return -1
		}
		if _, err := seek(current, io.SeekStart); err != nil {
			return -1
		}
		return end
	}
	// AVSEEK_FORCE may be or'ed into whence.
	pos, err := seek(offset, whence&0xffff)
	if err != nil {
		return -1
	}
	return pos
}

// NewIOContext creates a read-only AVIOContext over buf. On success the
// context takes ownership of buf through MemorySegment.Release; on failure
// buf is left untouched.
func NewIOContext(buf *MemorySegment, callbacks IOCallbacks) (*IOContext, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if callbacks.Read == nil {
		return nil, errors.New("ffmedia: read callback required")
	}
	if err := buf.h.check(); err != nil {
		return nil, err
	}
	initIOCallbacks()

	c := &IOContext{callbacks: callbacks}
	c.id = ioContexts.Register(c)

	var seekCb uintptr
	if callbacks.Seek != nil {
		seekCb = seekCallbackPtr
	}
	h, err := newHandle(avformat.IOAllocContext(buf.h.raw(), buf.Len(), false,
		unsafe.Pointer(c.id), readCallbackPtr, 0, seekCb), "io context", avformat.IOContextFree)
	if err != nil {
		ioContexts.Unregister(c.id)
		return nil, err
	}
	buf.Release()
	c.h = h
	return c, nil
}

// NewReaderIOContext creates an IOContext reading from r with a buffer of
// the given size.
func NewReaderIOContext(r io.ReadSeeker, bufferSize int) (*IOContext, error) {
	if bufferSize <= 0 {
		bufferSize = defaultIOBufferSize
	}
	buf, err := NewMemorySegment(bufferSize)
	if err != nil {
		return nil, err
	}
	c, err := NewIOContext(buf, IOCallbacks{Read: r.Read, Seek: r.Seek})
	if err != nil {
		buf.Close()
		return nil, err
	}
	return c, nil
}

func newMemoryIOContext(data []byte) (*IOContext, error) {
	return NewReaderIOContext(bytes.NewReader(data), defaultIOBufferSize)
}

func (c *IOContext) raw() avformat.IOContext {
	return c.h.raw()
}

// Close frees the AVIOContext and its buffer. An IOContext attached to a
// FormatContext must outlive it; FormatContext.Close handles the order.
func (c *IOContext) Close() error {
	if c.h.closed() {
		return nil
	}
	c.h.close()
	ioContexts.Unregister(c.id)
	return nil
}
