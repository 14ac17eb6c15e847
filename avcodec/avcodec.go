//go:build !ios && !android && (amd64 || arm64)

// Package avcodec provides bindings to FFmpeg's libavcodec library.
// It includes codec discovery, codec contexts, codec parameters and packets.
package avcodec

import (
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/ffmedia/avutil"
	"github.com/obinnaokechukwu/ffmedia/internal/bindings"
)

// Codec is an opaque FFmpeg AVCodec pointer.
type Codec = unsafe.Pointer

// Context is an opaque FFmpeg AVCodecContext pointer.
type Context = unsafe.Pointer

// Packet is an opaque FFmpeg AVPacket pointer.
type Packet = unsafe.Pointer

// Parameters is an opaque FFmpeg AVCodecParameters pointer.
type Parameters = unsafe.Pointer

// Function bindings
var (
	avcodecFindDecoder       func(id int32) unsafe.Pointer
	avcodecFindEncoder       func(id int32) unsafe.Pointer
	avcodecFindDecoderByName func(name string) unsafe.Pointer
	avcodecFindEncoderByName func(name string) unsafe.Pointer
	avCodecIsEncoder         func(codec unsafe.Pointer) int32
	avcodecGetName           func(id int32) string
	avcodecAllocContext3     func(codec unsafe.Pointer) unsafe.Pointer
	avcodecFreeContext       func(ctx *unsafe.Pointer)
	avcodecOpen2             func(ctx, codec unsafe.Pointer, options *unsafe.Pointer) int32
	avcodecSendPacket        func(ctx, pkt unsafe.Pointer) int32
	avcodecReceiveFrame      func(ctx, frame unsafe.Pointer) int32
	avcodecSendFrame         func(ctx, frame unsafe.Pointer) int32
	avcodecReceivePacket     func(ctx, pkt unsafe.Pointer) int32
	avcodecFlushBuffers      func(ctx unsafe.Pointer)

	avcodecParametersAlloc   func() unsafe.Pointer
	avcodecParametersFree    func(par *unsafe.Pointer)
	avcodecParametersToCtx   func(ctx, par unsafe.Pointer) int32
	avcodecParametersFromCtx func(par, ctx unsafe.Pointer) int32
	avcodecParametersCopy    func(dst, src unsafe.Pointer) int32

	avPacketAlloc    func() unsafe.Pointer
	avPacketFree     func(pkt *unsafe.Pointer)
	avPacketRef      func(dst, src unsafe.Pointer) int32
	avPacketUnref    func(pkt unsafe.Pointer)
	avPacketFromData func(pkt, data unsafe.Pointer, size int32) int32

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

	lib := bindings.LibAVCodec()
	if lib == 0 {
		return
	}

	purego.RegisterLibFunc(&avcodecFindDecoder, lib, "avcodec_find_decoder")
	purego.RegisterLibFunc(&avcodecFindEncoder, lib, "avcodec_find_encoder")
	purego.RegisterLibFunc(&avcodecFindDecoderByName, lib, "avcodec_find_decoder_by_name")
	purego.RegisterLibFunc(&avcodecFindEncoderByName, lib, "avcodec_find_encoder_by_name")
	purego.RegisterLibFunc(&avCodecIsEncoder, lib, "av_codec_is_encoder")
	purego.RegisterLibFunc(&avcodecGetName, lib, "avcodec_get_name")
	purego.RegisterLibFunc(&avcodecAllocContext3, lib, "avcodec_alloc_context3")
	purego.RegisterLibFunc(&avcodecFreeContext, lib, "avcodec_free_context")
	purego.RegisterLibFunc(&avcodecOpen2, lib, "avcodec_open2")
	purego.RegisterLibFunc(&avcodecSendPacket, lib, "avcodec_send_packet")
	purego.RegisterLibFunc(&avcodecReceiveFrame, lib, "avcodec_receive_frame")
	purego.RegisterLibFunc(&avcodecSendFrame, lib, "avcodec_send_frame")
	purego.RegisterLibFunc(&avcodecReceivePacket, lib, "avcodec_receive_packet")
	purego.RegisterLibFunc(&avcodecFlushBuffers, lib, "avcodec_flush_buffers")

	purego.RegisterLibFunc(&avcodecParametersAlloc, lib, "avcodec_parameters_alloc")
	purego.RegisterLibFunc(&avcodecParametersFree, lib, "avcodec_parameters_free")
	purego.RegisterLibFunc(&avcodecParametersToCtx, lib, "avcodec_parameters_to_context")
	purego.RegisterLibFunc(&avcodecParametersFromCtx, lib, "avcodec_parameters_from_context")
	purego.RegisterLibFunc(&avcodecParametersCopy, lib, "avcodec_parameters_copy")

	purego.RegisterLibFunc(&avPacketAlloc, lib, "av_packet_alloc")
	purego.RegisterLibFunc(&avPacketFree, lib, "av_packet_free")
	purego.RegisterLibFunc(&avPacketRef, lib, "av_packet_ref")
	purego.RegisterLibFunc(&avPacketUnref, lib, "av_packet_unref")
	purego.RegisterLibFunc(&avPacketFromData, lib, "av_packet_from_data")

	bindingsRegistered = true
}

// FindDecoder finds a registered decoder by codec ID. Returns nil if not found.
func FindDecoder(id CodecID) Codec {
	if avcodecFindDecoder == nil {
		return nil
	}
	return avcodecFindDecoder(int32(id))
}

// FindEncoder finds a registered encoder by codec ID. Returns nil if not found.
func FindEncoder(id CodecID) Codec {
	if avcodecFindEncoder == nil {
		return nil
	}
	return avcodecFindEncoder(int32(id))
}

// FindDecoderByName finds a registered decoder by name, e.g. "png".
func FindDecoderByName(name string) Codec {
	if avcodecFindDecoderByName == nil {
		return nil
	}
	return avcodecFindDecoderByName(name)
}

// FindEncoderByName finds a registered encoder by name, e.g. "libx264".
func FindEncoderByName(name string) Codec {
	if avcodecFindEncoderByName == nil {
		return nil
	}
	return avcodecFindEncoderByName(name)
}

// IsEncoder reports whether codec is an encoder.
func IsEncoder(codec Codec) bool {
	if codec == nil || avCodecIsEncoder == nil {
		return false
	}
	return avCodecIsEncoder(codec) != 0
}

// CodecName returns FFmpeg's descriptor name for id, e.g. "h264".
func CodecName(id CodecID) string {
	if avcodecGetName == nil {
		return "unknown"
	}
	return avcodecGetName(int32(id))
}

// AVCodec struct field offsets. Public fields are ABI-stable.
const (
	offsetCodecName = 0  // const char *name
	offsetCodecType = 16 // enum AVMediaType type
	offsetCodecID   = 20 // enum AVCodecID id
)

// GetCodecName returns the codec's short name.
func GetCodecName(codec Codec) string {
	if codec == nil {
		return ""
	}
	return bindings.GoString(*(*uintptr)(unsafe.Add(codec, offsetCodecName)))
}

// GetCodecType returns the media type the codec handles.
func GetCodecType(codec Codec) avutil.MediaType {
	if codec == nil {
		return avutil.MediaTypeUnknown
	}
	return avutil.MediaType(*(*int32)(unsafe.Add(codec, offsetCodecType)))
}

// GetCodecID returns the codec's ID.
func GetCodecID(codec Codec) CodecID {
	if codec == nil {
		return CodecIDNone
	}
	return CodecID(*(*int32)(unsafe.Add(codec, offsetCodecID)))
}

// AllocContext3 allocates a codec context, optionally bound to codec.
func AllocContext3(codec Codec) Context {
	if avcodecAllocContext3 == nil {
		return nil
	}
	return avcodecAllocContext3(codec)
}

// FreeContext frees a codec context and sets the pointer to nil.
func FreeContext(ctx *Context) {
	if ctx == nil || *ctx == nil || avcodecFreeContext == nil {
		return
	}
	avcodecFreeContext(ctx)
	*ctx = nil
}

// Open2 initializes ctx to use codec. options may be nil.
func Open2(ctx Context, codec Codec, options *avutil.Dictionary) error {
	if avcodecOpen2 == nil {
		return bindings.ErrNotLoaded
	}
	return avutil.NewError(avcodecOpen2(ctx, codec, options), "avcodec_open2")
}

// SendPacket supplies compressed data to a decoder. A nil pkt enters draining mode.
func SendPacket(ctx Context, pkt Packet) error {
	if avcodecSendPacket == nil {
		return bindings.ErrNotLoaded
	}
	return avutil.NewError(avcodecSendPacket(ctx, pkt), "avcodec_send_packet")
}

// ReceiveFrame returns decoded output data from a decoder.
func ReceiveFrame(ctx Context, frame avutil.Frame) error {
	if avcodecReceiveFrame == nil {
		return bindings.ErrNotLoaded
	}
	return avutil.NewError(avcodecReceiveFrame(ctx, frame), "avcodec_receive_frame")
}

// SendFrame supplies a raw frame to an encoder. A nil frame enters draining mode.
func SendFrame(ctx Context, frame avutil.Frame) error {
	if avcodecSendFrame == nil {
		return bindings.ErrNotLoaded
	}
	return avutil.NewError(avcodecSendFrame(ctx, frame), "avcodec_send_frame")
}

// ReceivePacket reads encoded data from an encoder.
func ReceivePacket(ctx Context, pkt Packet) error {
	if avcodecReceivePacket == nil {
		return bindings.ErrNotLoaded
	}
	return avutil.NewError(avcodecReceivePacket(ctx, pkt), "avcodec_receive_packet")
}

// FlushBuffers resets the internal codec state.
func FlushBuffers(ctx Context) {
	if ctx == nil || avcodecFlushBuffers == nil {
		return
	}
	avcodecFlushBuffers(ctx)
}

// ParametersAlloc allocates an AVCodecParameters with default fields.
func ParametersAlloc() Parameters {
	if avcodecParametersAlloc == nil {
		return nil
	}
	return avcodecParametersAlloc()
}

// ParametersFree frees an AVCodecParameters and sets the pointer to nil.
func ParametersFree(par *Parameters) {
	if par == nil || *par == nil || avcodecParametersFree == nil {
		return
	}
	avcodecParametersFree(par)
	*par = nil
}

// ParametersToContext fills ctx from par.
func ParametersToContext(ctx Context, par Parameters) error {
	if avcodecParametersToCtx == nil {
		return bindings.ErrNotLoaded
	}
	return avutil.NewError(avcodecParametersToCtx(ctx, par), "avcodec_parameters_to_context")
}

// ParametersFromContext fills par from ctx.
func ParametersFromContext(par Parameters, ctx Context) error {
	if avcodecParametersFromCtx == nil {
		return bindings.ErrNotLoaded
	}
	return avutil.NewError(avcodecParametersFromCtx(par, ctx), "avcodec_parameters_from_context")
}

// ParametersCopy copies src into dst.
func ParametersCopy(dst, src Parameters) error {
	if avcodecParametersCopy == nil {
		return bindings.ErrNotLoaded
	}
	return avutil.NewError(avcodecParametersCopy(dst, src), "avcodec_parameters_copy")
}

// AVCodecParameters struct field offsets
const (
	offsetParCodecType = 0  // enum AVMediaType codec_type
	offsetParCodecID   = 4  // enum AVCodecID codec_id
	offsetParCodecTag  = 8  // uint32_t codec_tag
	offsetParFormat    = 28 // int format
	offsetParBitRate   = 32 // int64_t bit_rate
	offsetParWidth     = 56 // int width
	offsetParHeight    = 60 // int height
)

// GetParCodecType returns the media type described by par.
func GetParCodecType(par Parameters) avutil.MediaType {
	if par == nil {
		return avutil.MediaTypeUnknown
	}
	return avutil.MediaType(*(*int32)(unsafe.Add(par, offsetParCodecType)))
}

// GetParCodecID returns the codec ID described by par.
func GetParCodecID(par Parameters) CodecID {
	if par == nil {
		return CodecIDNone
	}
	return CodecID(*(*int32)(unsafe.Add(par, offsetParCodecID)))
}

// GetParCodecTag returns the codec tag (FourCC) described by par.
func GetParCodecTag(par Parameters) uint32 {
	if par == nil {
		return 0
	}
	return *(*uint32)(unsafe.Add(par, offsetParCodecTag))
}

// GetParFormat returns the pixel (video) or sample (audio) format.
func GetParFormat(par Parameters) int32 {
	if par == nil {
		return -1
	}
	return *(*int32)(unsafe.Add(par, offsetParFormat))
}

// GetParBitRate returns the average bit rate.
func GetParBitRate(par Parameters) int64 {
	if par == nil {
		return 0
	}
	return *(*int64)(unsafe.Add(par, offsetParBitRate))
}

// GetParWidth returns the video width.
func GetParWidth(par Parameters) int32 {
	if par == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(par, offsetParWidth))
}

// GetParHeight returns the video height.
func GetParHeight(par Parameters) int32 {
	if par == nil {
		return 0
	}
	return *(*int32)(unsafe.Add(par, offsetParHeight))
}

// SetParVideo describes a raw video stream in par.
func SetParVideo(par Parameters, id CodecID, width, height int32, fmt avutil.PixelFormat) {
	if par == nil {
		return
	}
	*(*int32)(unsafe.Add(par, offsetParCodecType)) = int32(avutil.MediaTypeVideo)
	*(*int32)(unsafe.Add(par, offsetParCodecID)) = int32(id)
	*(*int32)(unsafe.Add(par, offsetParFormat)) = int32(fmt)
	*(*int32)(unsafe.Add(par, offsetParWidth)) = width
	*(*int32)(unsafe.Add(par, offsetParHeight)) = height
}
