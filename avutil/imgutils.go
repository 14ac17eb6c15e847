//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/ffmedia/internal/bindings"
)

var (
	avImageGetBufferSize func(pixFmt, width, height, align int32) int32
	avImageGetLinesize   func(pixFmt, width, plane int32) int32
	avGetPixFmtName      func(pixFmt int32) string
	avGetPixFmt          func(name string) int32
	avPixFmtCountPlanes  func(pixFmt int32) int32

	// FFmpeg 4.4+
	avImageFillPlaneSizes func(sizes *[4]uintptr, pixFmt, height int32, linesizes *[4]int) int32
)

func registerImageBindings(lib uintptr) {
	purego.RegisterLibFunc(&avImageGetBufferSize, lib, "av_image_get_buffer_size")
	purego.RegisterLibFunc(&avImageGetLinesize, lib, "av_image_get_linesize")
	purego.RegisterLibFunc(&avGetPixFmtName, lib, "av_get_pix_fmt_name")
	purego.RegisterLibFunc(&avGetPixFmt, lib, "av_get_pix_fmt")
	purego.RegisterLibFunc(&avPixFmtCountPlanes, lib, "av_pix_fmt_count_planes")
	bindings.RegisterOptional(&avImageFillPlaneSizes, lib, "av_image_fill_plane_sizes")
}

// ImageGetBufferSize returns the bytes needed to store an image of the given
// geometry with the given line alignment.
func ImageGetBufferSize(fmt PixelFormat, width, height, align int32) (int32, error) {
	if avImageGetBufferSize == nil {
		return 0, bindings.ErrNotLoaded
	}
	size := avImageGetBufferSize(int32(fmt), width, height, align)
	if size < 0 {
		return 0, NewError(size, "av_image_get_buffer_size")
	}
	return size, nil
}

// ImageGetLinesize returns the unpadded byte width of one plane row.
func ImageGetLinesize(fmt PixelFormat, width int32, plane int) (int32, error) {
	if avImageGetLinesize == nil {
		return 0, bindings.ErrNotLoaded
	}
	size := avImageGetLinesize(int32(fmt), width, int32(plane))
	if size < 0 {
		return 0, NewError(size, "av_image_get_linesize")
	}
	return size, nil
}

// PixelFormatName returns FFmpeg's name for fmt, e.g. "yuv420p".
func PixelFormatName(fmt PixelFormat) string {
	if avGetPixFmtName == nil || fmt == PixelFormatNone {
		return fallbackPixelFormatName(fmt)
	}
	if name := avGetPixFmtName(int32(fmt)); name != "" {
		return name
	}
	return fallbackPixelFormatName(fmt)
}

// PixelFormatByName looks up a pixel format by FFmpeg name.
func PixelFormatByName(name string) PixelFormat {
	if avGetPixFmt == nil {
		for f, n := range pixelFormatNames {
			if n == name {
				return f
			}
		}
		return PixelFormatNone
	}
	return PixelFormat(avGetPixFmt(name))
}

// PixelFormatPlanes returns the number of data planes used by fmt.
func PixelFormatPlanes(fmt PixelFormat) int {
	if avPixFmtCountPlanes == nil {
		return fmt.planes()
	}
	n := avPixFmtCountPlanes(int32(fmt))
	if n < 0 {
		return 0
	}
	return int(n)
}

// ImageFillPlaneSizes returns the byte size of each of the first four planes
// of an image with the given height and line sizes.
func ImageFillPlaneSizes(fmt PixelFormat, height int32, linesizes [4]int) ([4]int, error) {
	var out [4]int
	if avImageFillPlaneSizes == nil {
		return fallbackPlaneSizes(fmt, height, linesizes), nil
	}
	var sizes [4]uintptr
	if ret := avImageFillPlaneSizes(&sizes, int32(fmt), height, &linesizes); ret < 0 {
		return out, NewError(ret, "av_image_fill_plane_sizes")
	}
	for i, s := range sizes {
		out[i] = int(s)
	}
	return out, nil
}

func fallbackPlaneSizes(fmt PixelFormat, height int32, linesizes [4]int) [4]int {
	var out [4]int
	h := int(height)
	for i := 0; i < fmt.planes() && i < 4; i++ {
		rows := h
		if i > 0 && (fmt.IsYUV420() || fmt == PixelFormatNV12) {
			rows = (h + 1) >> 1
		}
		out[i] = linesizes[i] * rows
	}
	return out
}
