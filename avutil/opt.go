//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/obinnaokechukwu/ffmedia/internal/bindings"
)

// OptSearchChildren is AV_OPT_SEARCH_CHILDREN.
const OptSearchChildren int32 = 1

var (
	avOptSet          func(obj unsafe.Pointer, name, val string, flags int32) int32
	avOptSetInt       func(obj unsafe.Pointer, name string, val int64, flags int32) int32
	avOptSetBin       func(obj unsafe.Pointer, name string, val unsafe.Pointer, size int32, flags int32) int32
	avOptSetImageSize func(obj unsafe.Pointer, name string, w, h int32, flags int32) int32
	avOptSetPixelFmt  func(obj unsafe.Pointer, name string, fmt int32, flags int32) int32
	avOptGetInt       func(obj unsafe.Pointer, name string, flags int32, out *int64) int32
	avOptGetImageSize func(obj unsafe.Pointer, name string, flags int32, w, h *int32) int32
	avOptGetPixelFmt  func(obj unsafe.Pointer, name string, flags int32, out *int32) int32
)

func registerOptBindings(lib uintptr) {
	purego.RegisterLibFunc(&avOptSet, lib, "av_opt_set")
	purego.RegisterLibFunc(&avOptSetInt, lib, "av_opt_set_int")
	purego.RegisterLibFunc(&avOptSetBin, lib, "av_opt_set_bin")
	purego.RegisterLibFunc(&avOptSetImageSize, lib, "av_opt_set_image_size")
	purego.RegisterLibFunc(&avOptSetPixelFmt, lib, "av_opt_set_pixel_fmt")
	purego.RegisterLibFunc(&avOptGetInt, lib, "av_opt_get_int")
	purego.RegisterLibFunc(&avOptGetImageSize, lib, "av_opt_get_image_size")
	purego.RegisterLibFunc(&avOptGetPixelFmt, lib, "av_opt_get_pixel_fmt")
}

// OptSet sets an AVOption from its string form.
func OptSet(obj unsafe.Pointer, name, value string) error {
	if avOptSet == nil {
		return bindings.ErrNotLoaded
	}
	return NewError(avOptSet(obj, name, value, OptSearchChildren), "av_opt_set "+name)
}

// OptSetInt sets an integer AVOption.
func OptSetInt(obj unsafe.Pointer, name string, value int64) error {
	if avOptSetInt == nil {
		return bindings.ErrNotLoaded
	}
	return NewError(avOptSetInt(obj, name, value, OptSearchChildren), "av_opt_set_int "+name)
}

// OptSetInt32List sets a binary AVOption holding a list of int32 values,
// such as a buffersink's pix_fmts.
func OptSetInt32List(obj unsafe.Pointer, name string, values []int32) error {
	if avOptSetBin == nil {
		return bindings.ErrNotLoaded
	}
	if len(values) == 0 {
		return nil
	}
	size := int32(len(values) * 4)
	return NewError(avOptSetBin(obj, name, unsafe.Pointer(&values[0]), size, OptSearchChildren), "av_opt_set_bin "+name)
}

// OptSetImageSize sets an image-size AVOption.
func OptSetImageSize(obj unsafe.Pointer, name string, width, height int32) error {
	if avOptSetImageSize == nil {
		return bindings.ErrNotLoaded
	}
	return NewError(avOptSetImageSize(obj, name, width, height, OptSearchChildren), "av_opt_set_image_size "+name)
}

// OptSetPixelFormat sets a pixel-format AVOption.
func OptSetPixelFormat(obj unsafe.Pointer, name string, fmt PixelFormat) error {
	if avOptSetPixelFmt == nil {
		return bindings.ErrNotLoaded
	}
	return NewError(avOptSetPixelFmt(obj, name, int32(fmt), OptSearchChildren), "av_opt_set_pixel_fmt "+name)
}

// OptGetInt reads an integer AVOption.
func OptGetInt(obj unsafe.Pointer, name string) (int64, error) {
	if avOptGetInt == nil {
		return 0, bindings.ErrNotLoaded
	}
	var out int64
	if err := NewError(avOptGetInt(obj, name, OptSearchChildren, &out), "av_opt_get_int "+name); err != nil {
		return 0, err
	}
	return out, nil
}

// OptGetImageSize reads an image-size AVOption.
func OptGetImageSize(obj unsafe.Pointer, name string) (width, height int32, err error) {
	if avOptGetImageSize == nil {
		return 0, 0, bindings.ErrNotLoaded
	}
	err = NewError(avOptGetImageSize(obj, name, OptSearchChildren, &width, &height), "av_opt_get_image_size "+name)
	return width, height, err
}

// OptGetPixelFormat reads a pixel-format AVOption.
func OptGetPixelFormat(obj unsafe.Pointer, name string) (PixelFormat, error) {
	if avOptGetPixelFmt == nil {
		return PixelFormatNone, bindings.ErrNotLoaded
	}
	var out int32
	if err := NewError(avOptGetPixelFmt(obj, name, OptSearchChildren, &out), "av_opt_get_pixel_fmt "+name); err != nil {
		return PixelFormatNone, err
	}
	return PixelFormat(out), nil
}
