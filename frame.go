//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"image"
	"iter"
	"runtime"
	"unsafe"

	"github.com/obinnaokechukwu/ffmedia/avutil"
)

// frameAlign is the line alignment used for frame buffers allocated here.
const frameAlign = 32

// Frame is an owned AVFrame holding decoded pixels.
//
// Its generation counter advances whenever the frame's buffers are replaced
// or freed. PlaneViews remember the generation they were taken at and turn
// empty once it moves on.
type Frame struct {
	h          handle
	generation uint64
}

// NewFrame allocates an empty frame with no buffers.
func NewFrame() (*Frame, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	h, err := newHandle(avutil.FrameAlloc(), "frame", avutil.FrameFree)
	if err != nil {
		return nil, err
	}
	f := &Frame{h: h}
	runtime.SetFinalizer(f, (*Frame).Close)
	return f, nil
}

// NewVideoFrame allocates a frame with buffers for the given geometry.
func NewVideoFrame(width, height int, format PixelFormat) (*Frame, error) {
	f, err := NewFrame()
	if err != nil {
		return nil, err
	}
	if err := f.AllocBuffer(width, height, format, frameAlign); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (f *Frame) raw() avutil.Frame {
	return f.h.raw()
}

// invalidate marks every outstanding PlaneView stale.
func (f *Frame) invalidate() {
	f.generation++
}

// AllocBuffer (re)allocates the frame's buffers for the given geometry.
// Existing buffers are released first. align 0 lets FFmpeg choose.
func (f *Frame) AllocBuffer(width, height int, format PixelFormat, align int) error {
	if err := f.h.check(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 || format == PixelFormatNone {
		return ErrMissingGeometry
	}
	avutil.FrameUnref(f.raw())
	f.invalidate()
	avutil.SetFrameWidth(f.raw(), int32(width))
	avutil.SetFrameHeight(f.raw(), int32(height))
	avutil.SetFrameFormat(f.raw(), int32(format))
	return avutil.FrameGetBuffer(f.raw(), int32(align))
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int {
	return int(avutil.GetFrameWidth(f.raw()))
}

// Height returns the frame height in pixels.
func (f *Frame) Height() int {
	return int(avutil.GetFrameHeight(f.raw()))
}

// PixelFormat returns the frame's pixel format.
func (f *Frame) PixelFormat() PixelFormat {
	if f.h.closed() {
		return PixelFormatNone
	}
	return PixelFormat(avutil.GetFrameFormat(f.raw()))
}

// Linesize returns the byte stride of a plane, including padding.
func (f *Frame) Linesize(plane int) int {
	return int(avutil.GetFrameLinesizePlane(f.raw(), plane))
}

// PTS returns the presentation timestamp.
func (f *Frame) PTS() int64 {
	return avutil.GetFramePTS(f.raw())
}

// SetPTS sets the presentation timestamp.
func (f *Frame) SetPTS(pts int64) {
	avutil.SetFramePTS(f.raw(), pts)
}

// HasBuffers reports whether plane 0 is allocated.
func (f *Frame) HasBuffers() bool {
	return !f.h.closed() && avutil.GetFrameDataPlane(f.raw(), 0) != nil
}

// planeBytes returns the byte span of a plane: linesize times the plane's
// row count. It returns nil for missing planes and bottom-up layouts.
func (f *Frame) planeBytes(plane int) []byte {
	if f.h.closed() || plane < 0 || plane >= 4 {
		return nil
	}
	data := avutil.GetFrameDataPlane(f.raw(), plane)
	if data == nil {
		return nil
	}
	ls := avutil.GetFrameLinesize(f.raw())
	var linesizes [4]int
	for i := range linesizes {
		if ls[i] < 0 {
			return nil
		}
		linesizes[i] = int(ls[i])
	}
	sizes, err := avutil.ImageFillPlaneSizes(f.PixelFormat(), int32(f.Height()), linesizes)
	if err != nil || sizes[plane] <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(data), sizes[plane])
}

// planeRows returns the number of rows in a plane.
func (f *Frame) planeRows(plane int) int {
	ls := f.Linesize(plane)
	if ls <= 0 {
		return 0
	}
	return len(f.planeBytes(plane)) / ls
}

// planeRowBytes returns the unpadded width of one plane row in bytes.
func (f *Frame) planeRowBytes(plane int) int {
	n, err := avutil.ImageGetLinesize(f.PixelFormat(), int32(f.Width()), plane)
	if err != nil {
		return 0
	}
	return int(n)
}

// RawData returns plane 0 including row padding. The slice is borrowed; prefer
// Plane when the frame may be replaced while the bytes are in use.
func (f *Frame) RawData() []byte {
	return f.planeBytes(0)
}

// Plane returns a borrowed view of one plane tied to the frame's current
// buffers.
func (f *Frame) Plane(plane int) PlaneView {
	return PlaneView{frame: f, plane: plane, generation: f.generation}
}

// Rows iterates over the visible bytes of each row of a plane, without
// padding. The yielded slices alias the frame's memory.
func (f *Frame) Rows(plane int) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		v := f.Plane(plane)
		rowBytes := f.planeRowBytes(plane)
		rows := f.planeRows(plane)
		for y := 0; y < rows; y++ {
			row := v.Row(y)
			if row == nil {
				return
			}
			if !yield(y, row[:rowBytes]) {
				return
			}
		}
	}
}

// Pixels iterates over the pixels of a single-plane packed format, yielding
// each pixel's position and its bytes. Planar formats yield nothing.
func (f *Frame) Pixels() iter.Seq2[image.Point, []byte] {
	return func(yield func(image.Point, []byte) bool) {
		bpp := f.PixelFormat().BytesPerPixel()
		if bpp == 0 {
			return
		}
		width := f.Width()
		for y, row := range f.Rows(0) {
			for x := 0; x < width; x++ {
				if !yield(image.Pt(x, y), row[x*bpp:(x+1)*bpp:(x+1)*bpp]) {
					return
				}
			}
		}
	}
}

// MakeWritable ensures the frame's buffers are not shared, copying them if
// needed. Views taken before the call are invalidated when a copy happens.
func (f *Frame) MakeWritable() error {
	if err := f.h.check(); err != nil {
		return err
	}
	if avutil.FrameIsWritable(f.raw()) {
		return nil
	}
	f.invalidate()
	return avutil.FrameMakeWritable(f.raw())
}

// IsWritable reports whether the frame's buffers are exclusively owned.
func (f *Frame) IsWritable() bool {
	return !f.h.closed() && avutil.FrameIsWritable(f.raw())
}

// Ref returns a new frame sharing this frame's buffers.
func (f *Frame) Ref() (*Frame, error) {
	if err := f.h.check(); err != nil {
		return nil, err
	}
	dst, err := NewFrame()
	if err != nil {
		return nil, err
	}
	if err := avutil.FrameRef(dst.raw(), f.raw()); err != nil {
		dst.Close()
		return nil, err
	}
	return dst, nil
}

// Clone returns a deep copy with its own buffers.
func (f *Frame) Clone() (*Frame, error) {
	dst, err := f.Ref()
	if err != nil {
		return nil, err
	}
	if err := avutil.FrameMakeWritable(dst.raw()); err != nil {
		dst.Close()
		return nil, err
	}
	return dst, nil
}

// Unref releases the frame's buffers, keeping the frame for reuse.
func (f *Frame) Unref() {
	if f.h.closed() {
		return
	}
	f.invalidate()
	avutil.FrameUnref(f.raw())
}

// Close frees the frame and its buffer references.
func (f *Frame) Close() error {
	if f.h.closed() {
		return nil
	}
	f.invalidate()
	f.h.close()
	return nil
}

// PlaneView is a borrowed view of one frame plane. It stays usable only while
// the frame is open and its buffers are the ones the view was taken from;
// afterwards Bytes and Row return nil.
type PlaneView struct {
	frame      *Frame
	plane      int
	generation uint64
}

// Valid reports whether the view still refers to live buffers.
func (v PlaneView) Valid() bool {
	return v.frame != nil && !v.frame.h.closed() && v.frame.generation == v.generation &&
		avutil.GetFrameDataPlane(v.frame.raw(), v.plane) != nil
}

// Bytes returns the plane including row padding, or nil if the view is stale.
func (v PlaneView) Bytes() []byte {
	if !v.Valid() {
		return nil
	}
	return v.frame.planeBytes(v.plane)
}

// Linesize returns the plane stride, or 0 if the view is stale.
func (v PlaneView) Linesize() int {
	if !v.Valid() {
		return 0
	}
	return v.frame.Linesize(v.plane)
}

// Rows returns the number of rows in the plane.
func (v PlaneView) Rows() int {
	if !v.Valid() {
		return 0
	}
	return v.frame.planeRows(v.plane)
}

// Row returns row y including padding, or nil if out of range or stale.
func (v PlaneView) Row(y int) []byte {
	data := v.Bytes()
	ls := v.Linesize()
	if data == nil || ls <= 0 || y < 0 || (y+1)*ls > len(data) {
		return nil
	}
	return data[y*ls : (y+1)*ls : (y+1)*ls]
}
