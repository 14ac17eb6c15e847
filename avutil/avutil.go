//go:build !ios && !android && (amd64 || arm64)

// Package avutil provides bindings to FFmpeg's libavutil library: frames,
// the native allocator, dictionaries, AVOptions, image-size helpers and
// error codes.
package avutil

import (
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/ffmedia/internal/bindings"
)

// Frame is an opaque FFmpeg AVFrame pointer.
type Frame = unsafe.Pointer

// Dictionary is an opaque FFmpeg AVDictionary pointer.
type Dictionary = unsafe.Pointer

// InputBufferPadding is AV_INPUT_BUFFER_PADDING_SIZE: extra zeroed bytes
// FFmpeg requires at the end of every packet buffer.
const InputBufferPadding = 64

var (
	avFrameAlloc        func() unsafe.Pointer
	avFrameFree         func(frame *unsafe.Pointer)
	avFrameRef          func(dst, src unsafe.Pointer) int32
	avFrameUnref        func(frame unsafe.Pointer)
	avFrameClone        func(src unsafe.Pointer) unsafe.Pointer
	avFrameGetBuffer    func(frame unsafe.Pointer, align int32) int32
	avFrameMakeWritable func(frame unsafe.Pointer) int32
	avFrameIsWritable   func(frame unsafe.Pointer) int32

	avMalloc  func(size uintptr) unsafe.Pointer
	avMallocz func(size uintptr) unsafe.Pointer
	avFree    func(ptr unsafe.Pointer)
	avFreep   func(ptr *unsafe.Pointer)

	avStrerror func(errnum int32, errbuf unsafe.Pointer, errbufSize uintptr) int32

	bindingsRegistered bool
)

func init() {
	registerBindings()
}

func registerBindings() {
	if bindingsRegistered {
		return
	}

	if err := bindings.Load(); err != nil {
		return // callers get ErrNotLoaded
	}

	lib := bindings.LibAVUtil()
	if lib == 0 {
		return
	}

	purego.RegisterLibFunc(&avFrameAlloc, lib, "av_frame_alloc")
	purego.RegisterLibFunc(&avFrameFree, lib, "av_frame_free")
	purego.RegisterLibFunc(&avFrameRef, lib, "av_frame_ref")
	purego.RegisterLibFunc(&avFrameUnref, lib, "av_frame_unref")
	purego.RegisterLibFunc(&avFrameClone, lib, "av_frame_clone")
	purego.RegisterLibFunc(&avFrameGetBuffer, lib, "av_frame_get_buffer")
	purego.RegisterLibFunc(&avFrameMakeWritable, lib, "av_frame_make_writable")
	purego.RegisterLibFunc(&avFrameIsWritable, lib, "av_frame_is_writable")

	purego.RegisterLibFunc(&avMalloc, lib, "av_malloc")
	purego.RegisterLibFunc(&avMallocz, lib, "av_mallocz")
	purego.RegisterLibFunc(&avFree, lib, "av_free")
	purego.RegisterLibFunc(&avFreep, lib, "av_freep")

	purego.RegisterLibFunc(&avStrerror, lib, "av_strerror")

	registerDictBindings(lib)
	registerOptBindings(lib)
	registerImageBindings(lib)
	registerLogBindings(lib)

	bindingsRegistered = true
}

// FrameAlloc allocates an AVFrame. The returned frame must be freed with FrameFree.
func FrameAlloc() Frame {
	if avFrameAlloc == nil {
		return nil
	}
	return avFrameAlloc()
}

// FrameFree frees an AVFrame and its buffers and sets the pointer to nil.
// Safe to call with nil pointer.
func FrameFree(frame *Frame) {
	if frame == nil || *frame == nil || avFrameFree == nil {
		return
	}
	avFrameFree(frame)
	*frame = nil
}

// FrameRef creates a new reference to src's buffers in dst.
func FrameRef(dst, src Frame) error {
	if avFrameRef == nil {
		return bindings.ErrNotLoaded
	}
	return NewError(avFrameRef(dst, src), "av_frame_ref")
}

// FrameUnref unreferences all buffers referenced by frame and resets its fields.
func FrameUnref(frame Frame) {
	if frame == nil || avFrameUnref == nil {
		return
	}
	avFrameUnref(frame)
}

// FrameClone allocates a new frame referencing the same buffers as src.
func FrameClone(src Frame) Frame {
	if src == nil || avFrameClone == nil {
		return nil
	}
	return avFrameClone(src)
}

// FrameGetBuffer allocates buffers for the frame from its format and dimensions.
func FrameGetBuffer(frame Frame, align int32) error {
	if avFrameGetBuffer == nil {
		return bindings.ErrNotLoaded
	}
	return NewError(avFrameGetBuffer(frame, align), "av_frame_get_buffer")
}

// FrameMakeWritable ensures the frame data is writable, copying it if shared.
func FrameMakeWritable(frame Frame) error {
	if avFrameMakeWritable == nil {
		return bindings.ErrNotLoaded
	}
	return NewError(avFrameMakeWritable(frame), "av_frame_make_writable")
}

// FrameIsWritable reports whether every buffer of the frame has a single reference.
func FrameIsWritable(frame Frame) bool {
	if frame == nil || avFrameIsWritable == nil {
		return false
	}
	return avFrameIsWritable(frame) > 0
}

// NoPTSValue is AV_NOPTS_VALUE.
const NoPTSValue int64 = -9223372036854775808

// AVFrame field offsets for FFmpeg 6.x (avutil 58.x).
const (
	offsetData      = 0   // uint8_t *data[8]
	offsetLinesize  = 64  // int linesize[8]
	offsetWidth     = 104 // int width
	offsetHeight    = 108 // int height
	offsetNbSamples = 112 // int nb_samples
	offsetFormat    = 116 // int format
	offsetKeyFrame  = 120 // int key_frame
	offsetPts       = 136 // int64_t pts
)

// NumDataPointers is AV_NUM_DATA_POINTERS.
const NumDataPointers = 8

func field[T any](p unsafe.Pointer, off uintptr) *T {
	return (*T)(unsafe.Add(p, off))
}

// GetFrameWidth returns the width of the frame.
func GetFrameWidth(frame Frame) int32 {
	if frame == nil {
		return 0
	}
	return *field[int32](frame, offsetWidth)
}

// SetFrameWidth sets the width of the frame.
func SetFrameWidth(frame Frame, width int32) {
	if frame == nil {
		return
	}
	*field[int32](frame, offsetWidth) = width
}

// GetFrameHeight returns the height of the frame.
func GetFrameHeight(frame Frame) int32 {
	if frame == nil {
		return 0
	}
	return *field[int32](frame, offsetHeight)
}

// SetFrameHeight sets the height of the frame.
func SetFrameHeight(frame Frame, height int32) {
	if frame == nil {
		return
	}
	*field[int32](frame, offsetHeight) = height
}

// GetFrameFormat returns the pixel format (video) or sample format (audio).
func GetFrameFormat(frame Frame) int32 {
	if frame == nil {
		return -1
	}
	return *field[int32](frame, offsetFormat)
}

// SetFrameFormat sets the pixel format (video) or sample format (audio).
func SetFrameFormat(frame Frame, format int32) {
	if frame == nil {
		return
	}
	*field[int32](frame, offsetFormat) = format
}

// GetFramePTS returns the presentation timestamp.
func GetFramePTS(frame Frame) int64 {
	if frame == nil {
		return NoPTSValue
	}
	return *field[int64](frame, offsetPts)
}

// SetFramePTS sets the presentation timestamp.
func SetFramePTS(frame Frame, pts int64) {
	if frame == nil {
		return
	}
	*field[int64](frame, offsetPts) = pts
}

// GetFrameNbSamples returns the number of audio samples in this frame.
func GetFrameNbSamples(frame Frame) int32 {
	if frame == nil {
		return 0
	}
	return *field[int32](frame, offsetNbSamples)
}

// GetFrameKeyFrame returns 1 if this is a key frame, 0 otherwise.
func GetFrameKeyFrame(frame Frame) int32 {
	if frame == nil {
		return 0
	}
	return *field[int32](frame, offsetKeyFrame)
}

// GetFrameLinesizePlane returns the linesize for a given plane.
func GetFrameLinesizePlane(frame Frame, plane int) int32 {
	if frame == nil || plane < 0 || plane >= NumDataPointers {
		return 0
	}
	return field[[NumDataPointers]int32](frame, offsetLinesize)[plane]
}

// GetFrameDataPlane returns the data pointer for a given plane.
func GetFrameDataPlane(frame Frame, plane int) unsafe.Pointer {
	if frame == nil || plane < 0 || plane >= NumDataPointers {
		return nil
	}
	return field[[NumDataPointers]unsafe.Pointer](frame, offsetData)[plane]
}

// GetFrameData returns pointers to all data planes.
func GetFrameData(frame Frame) [NumDataPointers]unsafe.Pointer {
	if frame == nil {
		return [NumDataPointers]unsafe.Pointer{}
	}
	return *field[[NumDataPointers]unsafe.Pointer](frame, offsetData)
}

// GetFrameLinesize returns the linesizes for all planes.
func GetFrameLinesize(frame Frame) [NumDataPointers]int32 {
	if frame == nil {
		return [NumDataPointers]int32{}
	}
	return *field[[NumDataPointers]int32](frame, offsetLinesize)
}

// Malloc allocates memory using FFmpeg's allocator.
func Malloc(size uintptr) unsafe.Pointer {
	if avMalloc == nil {
		return nil
	}
	return avMalloc(size)
}

// Mallocz allocates zeroed memory using FFmpeg's allocator.
func Mallocz(size uintptr) unsafe.Pointer {
	if avMallocz == nil {
		return nil
	}
	return avMallocz(size)
}

// Free frees memory allocated by Malloc.
func Free(ptr unsafe.Pointer) {
	if ptr == nil || avFree == nil {
		return
	}
	avFree(ptr)
}

// Freep frees memory allocated by Malloc and sets the pointer to nil.
func Freep(ptr *unsafe.Pointer) {
	if ptr == nil || *ptr == nil || avFreep == nil {
		return
	}
	avFreep(ptr)
}

// ErrorString returns a human-readable error message for an FFmpeg error code.
func ErrorString(errnum int32) string {
	if avStrerror == nil {
		return "unknown error (FFmpeg not loaded)"
	}

	buf := make([]byte, 256)
	avStrerror(errnum, unsafe.Pointer(&buf[0]), uintptr(len(buf)))

	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
