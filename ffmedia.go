//go:build !ios && !android && (amd64 || arm64)

// Package ffmedia provides ownership-disciplined wrappers over FFmpeg's
// demuxing, decoding, encoding, scaling and filtering APIs, loaded at runtime
// through purego without cgo.
//
// Every native allocation is held by exactly one Go value and released by its
// Close method; repeated Close calls are no-ops. Borrowed values (Codec,
// Stream, PlaneView, FilterContext and the frame returned by
// CodecContext.LastFrame) are only valid while their owner is open.
//
// For still images, use Image. The lower-level types compose the same flows
// for callers that need control over each step.
package ffmedia

import (
	"github.com/obinnaokechukwu/ffmedia/avcodec"
	"github.com/obinnaokechukwu/ffmedia/avutil"
	"github.com/obinnaokechukwu/ffmedia/internal/bindings"
)

// Init loads the FFmpeg libraries. Constructors call it implicitly; calling it
// up front surfaces discovery errors early. Safe to call repeatedly.
func Init() error {
	return bindings.Load()
}

// IsLoaded reports whether the FFmpeg libraries have been loaded.
func IsLoaded() bool {
	return bindings.IsLoaded()
}

// Version returns the loaded library versions.
func Version() (avutil, avcodec, avformat uint32) {
	return bindings.AVUtilVersion(), bindings.AVCodecVersion(), bindings.AVFormatVersion()
}

// Re-export common types for convenience
type (
	// Rational is a fraction such as a time base or frame rate.
	Rational = avutil.Rational

	// PixelFormat identifies an FFmpeg pixel layout.
	PixelFormat = avutil.PixelFormat

	// MediaType identifies a stream category (video, audio, ...).
	MediaType = avutil.MediaType

	// CodecID identifies a codec.
	CodecID = avcodec.CodecID
)

// Re-export common constants
const (
	MediaTypeUnknown  = avutil.MediaTypeUnknown
	MediaTypeVideo    = avutil.MediaTypeVideo
	MediaTypeAudio    = avutil.MediaTypeAudio
	MediaTypeSubtitle = avutil.MediaTypeSubtitle

	PixelFormatNone     = avutil.PixelFormatNone
	PixelFormatYUV420P  = avutil.PixelFormatYUV420P
	PixelFormatYUVJ420P = avutil.PixelFormatYUVJ420P
	PixelFormatRGB24    = avutil.PixelFormatRGB24
	PixelFormatBGR24    = avutil.PixelFormatBGR24
	PixelFormatRGBA     = avutil.PixelFormatRGBA
	PixelFormatBGRA     = avutil.PixelFormatBGRA
	PixelFormatGray8    = avutil.PixelFormatGray8

	CodecIDNone     = avcodec.CodecIDNone
	CodecIDMJPEG    = avcodec.CodecIDMJPEG
	CodecIDRawVideo = avcodec.CodecIDRawVideo
	CodecIDH264     = avcodec.CodecIDH264
	CodecIDPNG      = avcodec.CodecIDPNG
	CodecIDBMP      = avcodec.CodecIDBMP
	CodecIDTIFF     = avcodec.CodecIDTIFF
	CodecIDFFV1     = avcodec.CodecIDFFV1
)

// NewRational creates a Rational.
func NewRational(num, den int32) Rational {
	return avutil.NewRational(num, den)
}
