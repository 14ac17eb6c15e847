//go:build !ios && !android && (amd64 || arm64)

package avcodec

import (
	"unsafe"

	"github.com/obinnaokechukwu/ffmedia/avutil"
)

// AVCodecContext struct field offsets (for FFmpeg 6.x / avcodec 60.x).
// Setters go through AVOptions first; the offsets are the fallback and the
// read path.
const (
	offsetCtxCodecType  = 12  // enum AVMediaType codec_type
	offsetCtxCodecID    = 24  // enum AVCodecID codec_id
	offsetCtxBitRate    = 56  // int64_t bit_rate
	offsetCtxFlags      = 76  // int flags
	offsetCtxTimeBase   = 100 // AVRational time_base
	offsetCtxWidth      = 116 // int width
	offsetCtxHeight     = 120 // int height
	offsetCtxGopSize    = 132 // int gop_size
	offsetCtxPixFmt     = 136 // enum AVPixelFormat pix_fmt
	offsetCtxMaxBFrames = 160 // int max_b_frames
	offsetCtxFramerate  = 704 // AVRational framerate
)

// Codec flag constants
const (
	CodecFlagGlobalHeader = 1 << 22 // AV_CODEC_FLAG_GLOBAL_HEADER
	CodecFlagQScale       = 1 << 1  // AV_CODEC_FLAG_QSCALE
)

func ctxField[T any](ctx Context, off uintptr) *T {
	return (*T)(unsafe.Add(ctx, off))
}

// GetCtxCodecType returns the media type of the codec context.
func GetCtxCodecType(ctx Context) avutil.MediaType {
	if ctx == nil {
		return avutil.MediaTypeUnknown
	}
	return avutil.MediaType(*ctxField[int32](ctx, offsetCtxCodecType))
}

// GetCtxCodecID returns the codec ID of the codec context.
func GetCtxCodecID(ctx Context) CodecID {
	if ctx == nil {
		return CodecIDNone
	}
	return CodecID(*ctxField[int32](ctx, offsetCtxCodecID))
}

// SetCtxCodecID binds a codec ID and media type to a context allocated without a codec.
func SetCtxCodecID(ctx Context, id CodecID, mediaType avutil.MediaType) {
	if ctx == nil {
		return
	}
	*ctxField[int32](ctx, offsetCtxCodecID) = int32(id)
	*ctxField[int32](ctx, offsetCtxCodecType) = int32(mediaType)
}

// GetCtxWidth returns the width from codec context.
func GetCtxWidth(ctx Context) int32 {
	if ctx == nil {
		return 0
	}
	return *ctxField[int32](ctx, offsetCtxWidth)
}

// GetCtxHeight returns the height from codec context.
func GetCtxHeight(ctx Context) int32 {
	if ctx == nil {
		return 0
	}
	return *ctxField[int32](ctx, offsetCtxHeight)
}

// SetCtxSize sets width and height in codec context.
func SetCtxSize(ctx Context, width, height int32) {
	if ctx == nil {
		return
	}
	if err := avutil.OptSetImageSize(ctx, "video_size", width, height); err == nil {
		return
	}
	*ctxField[int32](ctx, offsetCtxWidth) = width
	*ctxField[int32](ctx, offsetCtxHeight) = height
}

// GetCtxPixFmt returns the pixel format from codec context.
func GetCtxPixFmt(ctx Context) avutil.PixelFormat {
	if ctx == nil {
		return avutil.PixelFormatNone
	}
	return avutil.PixelFormat(*ctxField[int32](ctx, offsetCtxPixFmt))
}

// SetCtxPixFmt sets the pixel format in codec context.
func SetCtxPixFmt(ctx Context, fmt avutil.PixelFormat) {
	if ctx == nil {
		return
	}
	if err := avutil.OptSetPixelFormat(ctx, "pixel_format", fmt); err == nil {
		return
	}
	*ctxField[int32](ctx, offsetCtxPixFmt) = int32(fmt)
}

// GetCtxTimeBase returns the time base from codec context.
func GetCtxTimeBase(ctx Context) avutil.Rational {
	if ctx == nil {
		return avutil.Rational{}
	}
	return *ctxField[avutil.Rational](ctx, offsetCtxTimeBase)
}

// SetCtxTimeBase sets the time base in codec context.
func SetCtxTimeBase(ctx Context, tb avutil.Rational) {
	if ctx == nil {
		return
	}
	if err := avutil.OptSet(ctx, "time_base", tb.String()); err == nil {
		return
	}
	*ctxField[avutil.Rational](ctx, offsetCtxTimeBase) = tb
}

// GetCtxFramerate returns the framerate from codec context.
func GetCtxFramerate(ctx Context) avutil.Rational {
	if ctx == nil {
		return avutil.Rational{}
	}
	return *ctxField[avutil.Rational](ctx, offsetCtxFramerate)
}

// SetCtxFramerate sets the framerate in codec context.
// AVCodecContext.framerate has no generic AVOption, so this writes the field.
func SetCtxFramerate(ctx Context, rate avutil.Rational) {
	if ctx == nil {
		return
	}
	*ctxField[avutil.Rational](ctx, offsetCtxFramerate) = rate
}

// GetCtxGopSize returns the GOP size from codec context.
func GetCtxGopSize(ctx Context) int32 {
	if ctx == nil {
		return 0
	}
	if v, err := avutil.OptGetInt(ctx, "g"); err == nil {
		return int32(v)
	}
	return *ctxField[int32](ctx, offsetCtxGopSize)
}

// SetCtxGopSize sets the GOP size in codec context.
func SetCtxGopSize(ctx Context, size int32) {
	if ctx == nil {
		return
	}
	if err := avutil.OptSetInt(ctx, "g", int64(size)); err == nil {
		return
	}
	*ctxField[int32](ctx, offsetCtxGopSize) = size
}

// GetCtxMaxBFrames returns the max B-frames from codec context.
func GetCtxMaxBFrames(ctx Context) int32 {
	if ctx == nil {
		return 0
	}
	if v, err := avutil.OptGetInt(ctx, "bf"); err == nil {
		return int32(v)
	}
	return *ctxField[int32](ctx, offsetCtxMaxBFrames)
}

// SetCtxMaxBFrames sets the max B-frames in codec context.
func SetCtxMaxBFrames(ctx Context, max int32) {
	if ctx == nil {
		return
	}
	if err := avutil.OptSetInt(ctx, "bf", int64(max)); err == nil {
		return
	}
	*ctxField[int32](ctx, offsetCtxMaxBFrames) = max
}

// GetCtxBitRate returns the bit rate from codec context.
func GetCtxBitRate(ctx Context) int64 {
	if ctx == nil {
		return 0
	}
	return *ctxField[int64](ctx, offsetCtxBitRate)
}

// SetCtxBitRate sets the bit rate in codec context.
func SetCtxBitRate(ctx Context, bitRate int64) {
	if ctx == nil {
		return
	}
	if err := avutil.OptSetInt(ctx, "b", bitRate); err == nil {
		return
	}
	*ctxField[int64](ctx, offsetCtxBitRate) = bitRate
}

// GetCtxFlags returns the AV_CODEC_FLAG_* bits from codec context.
func GetCtxFlags(ctx Context) int32 {
	if ctx == nil {
		return 0
	}
	return *ctxField[int32](ctx, offsetCtxFlags)
}

// SetCtxFlags sets the flags in codec context.
func SetCtxFlags(ctx Context, flags int32) {
	if ctx == nil {
		return
	}
	if err := avutil.OptSetInt(ctx, "flags", int64(flags)); err == nil {
		return
	}
	*ctxField[int32](ctx, offsetCtxFlags) = flags
}
