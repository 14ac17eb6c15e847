//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"errors"
	"image"
	"testing"
)

func TestVideoFrameGeometry(t *testing.T) {
	skipIfNoFFmpeg(t)

	f, err := NewVideoFrame(33, 17, PixelFormatRGB24)
	if err != nil {
		t.Fatalf("NewVideoFrame: %v", err)
	}
	defer f.Close()

	if f.Width() != 33 || f.Height() != 17 || f.PixelFormat() != PixelFormatRGB24 {
		t.Errorf("geometry = %dx%d %v", f.Width(), f.Height(), f.PixelFormat())
	}
	if f.Linesize(0) < 33*3 || f.Linesize(0)%frameAlign != 0 {
		t.Errorf("Linesize(0) = %d, want a multiple of %d >= %d", f.Linesize(0), frameAlign, 33*3)
	}
	if got, want := len(f.RawData()), f.Linesize(0)*17; got != want {
		t.Errorf("len(RawData()) = %d, want %d", got, want)
	}

	rows := 0
	for y, row := range f.Rows(0) {
		if len(row) != 33*3 {
			t.Fatalf("row %d has %d bytes, want %d", y, len(row), 33*3)
		}
		rows++
	}
	if rows != 17 {
		t.Errorf("Rows yielded %d rows, want 17", rows)
	}
}

func TestFramePixels(t *testing.T) {
	skipIfNoFFmpeg(t)

	f, err := NewVideoFrame(4, 3, PixelFormatRGB24)
	if err != nil {
		t.Fatalf("NewVideoFrame: %v", err)
	}
	defer f.Close()

	for y, row := range f.Rows(0) {
		for x := range 4 {
			row[x*3] = byte(x)
			row[x*3+1] = byte(y)
		}
	}
	count := 0
	for pt, px := range f.Pixels() {
		if len(px) != 3 || px[0] != byte(pt.X) || px[1] != byte(pt.Y) {
			t.Fatalf("pixel %v = %v", pt, px)
		}
		count++
	}
	if count != 12 {
		t.Errorf("Pixels yielded %d pixels, want 12", count)
	}
	for pt := range f.Pixels() {
		if pt != (image.Point{}) {
			t.Errorf("first pixel = %v, want origin", pt)
		}
		break
	}
}

func TestPlaneViewInvalidation(t *testing.T) {
	skipIfNoFFmpeg(t)

	f, err := NewVideoFrame(8, 8, PixelFormatGray8)
	if err != nil {
		t.Fatalf("NewVideoFrame: %v", err)
	}
	view := f.Plane(0)
	if !view.Valid() || view.Rows() != 8 || view.Row(7) == nil {
		t.Fatalf("fresh view unusable: valid=%v rows=%d", view.Valid(), view.Rows())
	}
	if view.Row(8) != nil {
		t.Error("Row past the end should be nil")
	}

	if err := f.AllocBuffer(16, 16, PixelFormatGray8, 0); err != nil {
		t.Fatalf("AllocBuffer: %v", err)
	}
	if view.Valid() || view.Bytes() != nil {
		t.Error("view still valid after buffers were replaced")
	}

	view = f.Plane(0)
	f.Close()
	if view.Valid() || view.Bytes() != nil || view.Linesize() != 0 {
		t.Error("view still valid after Close")
	}
}

func TestFrameCloneIsIndependent(t *testing.T) {
	skipIfNoFFmpeg(t)

	f, err := NewVideoFrame(8, 2, PixelFormatGray8)
	if err != nil {
		t.Fatalf("NewVideoFrame: %v", err)
	}
	defer f.Close()
	f.Plane(0).Row(0)[0] = 1

	shared, err := f.Ref()
	if err != nil {
		t.Fatalf("Ref: %v", err)
	}
	defer shared.Close()
	if f.IsWritable() {
		t.Error("frame with a second reference reports writable")
	}

	clone, err := f.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	defer clone.Close()
	clone.Plane(0).Row(0)[0] = 2

	if got := f.Plane(0).Row(0)[0]; got != 1 {
		t.Errorf("writing the clone changed the source: %d", got)
	}
	if got := shared.Plane(0).Row(0)[0]; got != 1 {
		t.Errorf("shared reference sees %d, want 1", got)
	}
}

func TestFrameClosed(t *testing.T) {
	skipIfNoFFmpeg(t)

	f, err := NewFrame()
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	if f.HasBuffers() {
		t.Error("new frame has buffers")
	}
	if err := f.AllocBuffer(0, 10, PixelFormatGray8, 0); !errors.Is(err, ErrMissingGeometry) {
		t.Errorf("AllocBuffer(0x10) = %v, want ErrMissingGeometry", err)
	}
	f.Close()
	f.Close()
	if _, err := f.Ref(); !errors.Is(err, ErrClosed) {
		t.Errorf("Ref after Close = %v, want ErrClosed", err)
	}
	if err := f.MakeWritable(); !errors.Is(err, ErrClosed) {
		t.Errorf("MakeWritable after Close = %v, want ErrClosed", err)
	}
}
