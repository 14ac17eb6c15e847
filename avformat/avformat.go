//go:build !ios && !android && (amd64 || arm64)

// Package avformat provides bindings to FFmpeg's libavformat library:
// demuxer contexts, streams and custom AVIO contexts.
package avformat

import (
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/ffmedia/avcodec"
	"github.com/obinnaokechukwu/ffmedia/avutil"
	"github.com/obinnaokechukwu/ffmedia/internal/bindings"
)

// FormatContext is an opaque FFmpeg AVFormatContext pointer.
type FormatContext = unsafe.Pointer

// InputFormat is an opaque FFmpeg AVInputFormat pointer.
type InputFormat = unsafe.Pointer

// Stream is an opaque FFmpeg AVStream pointer.
type Stream = unsafe.Pointer

// IOContext is an opaque FFmpeg AVIOContext pointer.
type IOContext = unsafe.Pointer

// Function bindings
var (
	avformatOpenInput      func(ctx *unsafe.Pointer, url string, fmt unsafe.Pointer, options *unsafe.Pointer) int32
	avformatCloseInput     func(ctx *unsafe.Pointer)
	avformatFindStreamInfo func(ctx unsafe.Pointer, options *unsafe.Pointer) int32
	avformatAllocContext   func() unsafe.Pointer
	avformatFreeContext    func(ctx unsafe.Pointer)
	avFindInputFormat      func(name string) unsafe.Pointer

	avReadFrame func(ctx, pkt unsafe.Pointer) int32

	avioAllocContext func(buffer unsafe.Pointer, bufferSize int32, writeFlag int32, opaque unsafe.Pointer,
		readPacket, writePacket, seek uintptr) unsafe.Pointer
	avioContextFree func(ctx *unsafe.Pointer)

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
		return
	}

	lib := bindings.LibAVFormat()
	if lib == 0 {
		return
	}

	purego.RegisterLibFunc(&avformatOpenInput, lib, "avformat_open_input")
	purego.RegisterLibFunc(&avformatCloseInput, lib, "avformat_close_input")
	purego.RegisterLibFunc(&avformatFindStreamInfo, lib, "avformat_find_stream_info")
	purego.RegisterLibFunc(&avformatAllocContext, lib, "avformat_alloc_context")
	purego.RegisterLibFunc(&avformatFreeContext, lib, "avformat_free_context")
	purego.RegisterLibFunc(&avFindInputFormat, lib, "av_find_input_format")

	purego.RegisterLibFunc(&avReadFrame, lib, "av_read_frame")

	purego.RegisterLibFunc(&avioAllocContext, lib, "avio_alloc_context")
	purego.RegisterLibFunc(&avioContextFree, lib, "avio_context_free")

	bindingsRegistered = true
}

// AllocContext allocates an empty AVFormatContext.
func AllocContext() FormatContext {
	if avformatAllocContext == nil {
		return nil
	}
	return avformatAllocContext()
}

// FreeContext frees a context that was never passed to OpenInput.
func FreeContext(ctx FormatContext) {
	if ctx == nil || avformatFreeContext == nil {
		return
	}
	avformatFreeContext(ctx)
}

// OpenInput opens an input and reads its header. *ctx may be nil or a context
// from AllocContext. On failure FFmpeg frees the context and sets *ctx to nil.
// Entries not consumed by the demuxer are left in *options.
func OpenInput(ctx *FormatContext, url string, fmt InputFormat, options *avutil.Dictionary) error {
	if avformatOpenInput == nil {
		return bindings.ErrNotLoaded
	}
	return avutil.NewError(avformatOpenInput(ctx, url, fmt, options), "avformat_open_input")
}

// CloseInput closes an opened input and sets *ctx to nil. A caller-supplied
// AVIOContext is not freed.
func CloseInput(ctx *FormatContext) {
	if ctx == nil || *ctx == nil || avformatCloseInput == nil {
		return
	}
	avformatCloseInput(ctx)
	*ctx = nil
}

// FindStreamInfo reads packets to fill in stream parameters.
func FindStreamInfo(ctx FormatContext, options *avutil.Dictionary) error {
	if avformatFindStreamInfo == nil {
		return bindings.ErrNotLoaded
	}
	return avutil.NewError(avformatFindStreamInfo(ctx, options), "avformat_find_stream_info")
}

// FindInputFormat looks up a demuxer by short name, e.g. "image2" or "png_pipe".
func FindInputFormat(name string) InputFormat {
	if avFindInputFormat == nil || name == "" {
		return nil
	}
	return avFindInputFormat(name)
}

// ReadFrame reads the next packet of the input.
func ReadFrame(ctx FormatContext, pkt avcodec.Packet) error {
	if avReadFrame == nil {
		return bindings.ErrNotLoaded
	}
	return avutil.NewError(avReadFrame(ctx, pkt), "av_read_frame")
}

// IOAllocContext wraps an av_malloc'd buffer in an AVIOContext. Callback
// pointers come from purego.NewCallback; zero disables a callback.
func IOAllocContext(buffer unsafe.Pointer, bufferSize int, writable bool, opaque unsafe.Pointer,
	readPacket, writePacket, seek uintptr) IOContext {
	if avioAllocContext == nil {
		return nil
	}
	var writeFlag int32
	if writable {
		writeFlag = 1
	}
	return avioAllocContext(buffer, int32(bufferSize), writeFlag, opaque, readPacket, writePacket, seek)
}

// IOContextFree frees an AVIOContext together with its current buffer,
// which FFmpeg may have reallocated since IOAllocContext.
func IOContextFree(ctx *IOContext) {
	if ctx == nil || *ctx == nil || avioContextFree == nil {
		return
	}
	buf := (*unsafe.Pointer)(unsafe.Add(*ctx, offsetIOBuffer))
	avutil.Freep(buf)
	avioContextFree(ctx)
	*ctx = nil
}

// AVIOContext struct field offsets
const (
	offsetIOBuffer = 8 // unsigned char *buffer
)

// AVFormatContext struct field offsets (FFmpeg 6.0)
const (
	offsetIformat    = 8  // const AVInputFormat *iformat
	offsetIOContext  = 32 // AVIOContext *pb
	offsetNumStreams = 44 // unsigned int nb_streams
	offsetStreams    = 48 // AVStream **streams
	offsetDuration   = 72 // int64_t duration
	offsetBitRate    = 80 // int64_t bit_rate
)

// AVInputFormat struct field offsets
const (
	offsetInputFormatName = 0 // const char *name
)

// GetNumStreams returns the number of streams.
func GetNumStreams(ctx FormatContext) int {
	if ctx == nil {
		return 0
	}
	return int(*(*uint32)(unsafe.Add(ctx, offsetNumStreams)))
}

// GetStream returns the stream at index, or nil when out of range.
func GetStream(ctx FormatContext, index int) Stream {
	if ctx == nil || index < 0 || index >= GetNumStreams(ctx) {
		return nil
	}
	streams := *(*unsafe.Pointer)(unsafe.Add(ctx, offsetStreams))
	if streams == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(streams, uintptr(index)*unsafe.Sizeof(uintptr(0))))
}

// GetDuration returns the duration in AV_TIME_BASE units.
func GetDuration(ctx FormatContext) int64 {
	if ctx == nil {
		return 0
	}
	return *(*int64)(unsafe.Add(ctx, offsetDuration))
}

// GetBitRate returns the total stream bitrate in bit/s.
func GetBitRate(ctx FormatContext) int64 {
	if ctx == nil {
		return 0
	}
	return *(*int64)(unsafe.Add(ctx, offsetBitRate))
}

// GetInputFormatName returns the short name of the demuxer in use.
func GetInputFormatName(ctx FormatContext) string {
	if ctx == nil {
		return ""
	}
	iformat := *(*unsafe.Pointer)(unsafe.Add(ctx, offsetIformat))
	if iformat == nil {
		return ""
	}
	return bindings.GoString(*(*uintptr)(unsafe.Add(iformat, offsetInputFormatName)))
}

// GetIOContext returns the context's AVIOContext.
func GetIOContext(ctx FormatContext) IOContext {
	if ctx == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(ctx, offsetIOContext))
}

// SetIOContext attaches a custom AVIOContext before OpenInput.
func SetIOContext(ctx FormatContext, pb IOContext) {
	if ctx == nil {
		return
	}
	*(*unsafe.Pointer)(unsafe.Add(ctx, offsetIOContext)) = pb
}

// AVStream struct field offsets
const (
	offsetStreamIndex        = 8  // int index
	offsetStreamCodecPar     = 16 // AVCodecParameters *codecpar
	offsetStreamTimeBase     = 32 // AVRational time_base
	offsetStreamAvgFrameRate = 88 // AVRational avg_frame_rate
)

// GetStreamIndex returns the stream's index in its format context.
func GetStreamIndex(stream Stream) int32 {
	if stream == nil {
		return -1
	}
	return *(*int32)(unsafe.Add(stream, offsetStreamIndex))
}

// GetStreamCodecPar returns the stream's codec parameters.
func GetStreamCodecPar(stream Stream) avcodec.Parameters {
	if stream == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(stream, offsetStreamCodecPar))
}

// GetStreamTimeBase returns the stream's time base.
func GetStreamTimeBase(stream Stream) avutil.Rational {
	if stream == nil {
		return avutil.Rational{}
	}
	return *(*avutil.Rational)(unsafe.Add(stream, offsetStreamTimeBase))
}

// GetStreamAvgFrameRate returns the stream's average frame rate.
func GetStreamAvgFrameRate(stream Stream) avutil.Rational {
	if stream == nil {
		return avutil.Rational{}
	}
	return *(*avutil.Rational)(unsafe.Add(stream, offsetStreamAvgFrameRate))
}
