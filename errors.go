//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"errors"
	"fmt"

	"github.com/obinnaokechukwu/ffmedia/avutil"
	"github.com/obinnaokechukwu/ffmedia/internal/bindings"
)

// FFmpegError is a failed native call: the raw code, FFmpeg's message, the
// native function and the Go call site that issued it.
type FFmpegError = avutil.Error

// Common errors
var (
	// ErrAllocation indicates a native allocator returned NULL.
	ErrAllocation = errors.New("ffmedia: allocation failed")

	// ErrNotLoaded indicates the FFmpeg libraries are not loaded.
	ErrNotLoaded = bindings.ErrNotLoaded

	// ErrClosed indicates the resource has been closed.
	ErrClosed = errors.New("ffmedia: resource is closed")

	// ErrCodecNotFound indicates no codec matches the requested id or name.
	ErrCodecNotFound = errors.New("ffmedia: codec not found")

	// ErrFilterNotFound indicates no filter matches the requested name.
	ErrFilterNotFound = errors.New("ffmedia: filter not found")

	// ErrStreamNotFound indicates the input has no stream of the requested type.
	ErrStreamNotFound = errors.New("ffmedia: stream not found")

	// ErrNoCodecContext indicates an Image has neither decoder nor encoder.
	ErrNoCodecContext = errors.New("ffmedia: no codec context")

	// ErrNotOpened indicates a codec context was used before Open.
	ErrNotOpened = errors.New("ffmedia: codec context not opened")

	// ErrAlreadyOpened indicates a configuration change on an opened codec context.
	ErrAlreadyOpened = errors.New("ffmedia: codec context already opened")

	// ErrMissingGeometry indicates a video codec context lacks width, height or pixel format.
	ErrMissingGeometry = errors.New("ffmedia: width, height and pixel format must be set")

	// ErrOddGeometry indicates odd frame dimensions combined with padded rows.
	ErrOddGeometry = errors.New("ffmedia: odd dimensions with padded rows")

	// ErrShortData indicates the caller's buffer is smaller than the frame needs.
	ErrShortData = errors.New("ffmedia: data shorter than frame buffer")

	// ErrUnsupportedPixelFormat indicates an operation cannot handle the pixel format.
	ErrUnsupportedPixelFormat = errors.New("ffmedia: unsupported pixel format")
)

// IsEOF reports whether err is FFmpeg's end-of-stream condition.
func IsEOF(err error) bool {
	return avutil.IsEOF(err)
}

// IsAgain reports whether err means more input or output is needed (EAGAIN).
func IsAgain(err error) bool {
	return avutil.IsAgain(err)
}

// ErrorCode returns the FFmpeg error code from an error, or 0 if not an FFmpeg error.
func ErrorCode(err error) int32 {
	return avutil.Code(err)
}

func allocError(kind string) error {
	return fmt.Errorf("%w: %s", ErrAllocation, kind)
}

func closedError(kind string) error {
	return fmt.Errorf("%w: %s", ErrClosed, kind)
}
