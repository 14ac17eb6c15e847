//go:build !ios && !android && (amd64 || arm64)

package avutil

// PixelFormat represents FFmpeg pixel formats.
type PixelFormat int32

// Common pixel formats (from FFmpeg's pixfmt.h)
const (
	PixelFormatNone     PixelFormat = -1
	PixelFormatYUV420P  PixelFormat = 0  // Planar YUV 4:2:0
	PixelFormatYUYV422  PixelFormat = 1  // Packed YUV 4:2:2
	PixelFormatRGB24    PixelFormat = 2  // Packed RGB 8:8:8
	PixelFormatBGR24    PixelFormat = 3  // Packed BGR 8:8:8
	PixelFormatYUV422P  PixelFormat = 4  // Planar YUV 4:2:2
	PixelFormatYUV444P  PixelFormat = 5  // Planar YUV 4:4:4
	PixelFormatGray8    PixelFormat = 8  // 8-bit grayscale
	PixelFormatPAL8     PixelFormat = 11 // 8-bit palette
	PixelFormatYUVJ420P PixelFormat = 12 // Planar YUV 4:2:0 (JPEG)
	PixelFormatYUVJ422P PixelFormat = 13 // Planar YUV 4:2:2 (JPEG)
	PixelFormatYUVJ444P PixelFormat = 14 // Planar YUV 4:4:4 (JPEG)
	PixelFormatNV12     PixelFormat = 23 // Planar YUV 4:2:0 (UV interleaved)
	PixelFormatARGB     PixelFormat = 25 // Packed ARGB 8:8:8:8
	PixelFormatRGBA     PixelFormat = 26 // Packed RGBA 8:8:8:8
	PixelFormatABGR     PixelFormat = 27 // Packed ABGR 8:8:8:8
	PixelFormatBGRA     PixelFormat = 28 // Packed BGRA 8:8:8:8
	PixelFormatGray16BE PixelFormat = 29 // 16-bit grayscale (big endian)
	PixelFormatGray16LE PixelFormat = 30 // 16-bit grayscale (little endian)
	PixelFormatRGB48BE  PixelFormat = 41 // Packed RGB 16:16:16 (big endian)
	PixelFormatRGB48LE  PixelFormat = 42 // Packed RGB 16:16:16 (little endian)
)

var pixelFormatNames = map[PixelFormat]string{
	PixelFormatYUV420P:  "yuv420p",
	PixelFormatYUYV422:  "yuyv422",
	PixelFormatRGB24:    "rgb24",
	PixelFormatBGR24:    "bgr24",
	PixelFormatYUV422P:  "yuv422p",
	PixelFormatYUV444P:  "yuv444p",
	PixelFormatGray8:    "gray",
	PixelFormatPAL8:     "pal8",
	PixelFormatYUVJ420P: "yuvj420p",
	PixelFormatYUVJ422P: "yuvj422p",
	PixelFormatYUVJ444P: "yuvj444p",
	PixelFormatNV12:     "nv12",
	PixelFormatARGB:     "argb",
	PixelFormatRGBA:     "rgba",
	PixelFormatABGR:     "abgr",
	PixelFormatBGRA:     "bgra",
	PixelFormatGray16BE: "gray16be",
	PixelFormatGray16LE: "gray16le",
	PixelFormatRGB48BE:  "rgb48be",
	PixelFormatRGB48LE:  "rgb48le",
}

func fallbackPixelFormatName(fmt PixelFormat) string {
	if name, ok := pixelFormatNames[fmt]; ok {
		return name
	}
	return "none"
}

// String returns the FFmpeg name of the format.
func (f PixelFormat) String() string {
	return PixelFormatName(f)
}

// IsGray reports whether f is a single-plane grayscale format.
func (f PixelFormat) IsGray() bool {
	switch f {
	case PixelFormatGray8, PixelFormatGray16BE, PixelFormatGray16LE:
		return true
	}
	return false
}

// IsPackedRGB reports whether f stores interleaved RGB-family samples in one plane.
func (f PixelFormat) IsPackedRGB() bool {
	return f.BytesPerPixel() > 0 && !f.IsGray()
}

// IsYUV420 reports whether f is three-plane YUV with 2x2 chroma subsampling.
func (f PixelFormat) IsYUV420() bool {
	return f == PixelFormatYUV420P || f == PixelFormatYUVJ420P
}

// BytesPerPixel returns the interleaved pixel size of a single-plane format,
// or 0 for planar and subsampled formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatGray8:
		return 1
	case PixelFormatGray16BE, PixelFormatGray16LE:
		return 2
	case PixelFormatRGB24, PixelFormatBGR24:
		return 3
	case PixelFormatARGB, PixelFormatRGBA, PixelFormatABGR, PixelFormatBGRA:
		return 4
	case PixelFormatRGB48BE, PixelFormatRGB48LE:
		return 6
	}
	return 0
}

func (f PixelFormat) planes() int {
	switch {
	case f == PixelFormatNone:
		return 0
	case f == PixelFormatNV12, f == PixelFormatPAL8:
		return 2
	case f == PixelFormatYUV420P, f == PixelFormatYUV422P, f == PixelFormatYUV444P,
		f == PixelFormatYUVJ420P, f == PixelFormatYUVJ422P, f == PixelFormatYUVJ444P:
		return 3
	}
	return 1
}

// MediaType represents FFmpeg media types.
type MediaType int32

const (
	MediaTypeUnknown    MediaType = -1
	MediaTypeVideo      MediaType = 0
	MediaTypeAudio      MediaType = 1
	MediaTypeData       MediaType = 2
	MediaTypeSubtitle   MediaType = 3
	MediaTypeAttachment MediaType = 4
)

func (m MediaType) String() string {
	switch m {
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeData:
		return "data"
	case MediaTypeSubtitle:
		return "subtitle"
	case MediaTypeAttachment:
		return "attachment"
	}
	return "unknown"
}
