//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/obinnaokechukwu/ffmedia/avutil"
)

// minRowsPerWorker keeps small images on one goroutine.
const minRowsPerWorker = 64

// FillData copies tightly packed pixels into the current frame, converting
// to the frame's stride. The layout of data must match the frame's pixel
// format: one plane for gray and packed RGB formats, three consecutive
// planes for YUV 4:2:0.
//
// Packed RGB frames with an odd width or height are only supported when the
// frame has no row padding; otherwise ErrOddGeometry is returned.
func (c *CodecContext) FillData(data []byte) error {
	if err := c.h.check(); err != nil {
		return err
	}
	f := c.frame
	if !f.HasBuffers() {
		if err := c.presizeFrame(); err != nil {
			return err
		}
	}
	format := f.PixelFormat()
	size, err := avutil.ImageGetBufferSize(format, int32(f.Width()), int32(f.Height()), 1)
	if err != nil {
		return err
	}
	need := int(size)
	if len(data) < need {
		return fmt.Errorf("%w: have %d bytes, %s %dx%d needs %d",
			ErrShortData, len(data), format, f.Width(), f.Height(), need)
	}
	if err := f.MakeWritable(); err != nil {
		return err
	}

	width, height := f.Width(), f.Height()
	switch {
	case format.IsGray():
		rowBytes := width * format.BytesPerPixel()
		return copyRows(f.Plane(0).Bytes(), f.Linesize(0), data, rowBytes, height)

	case format.IsPackedRGB():
		rowBytes := width * format.BytesPerPixel()
		dst, stride := f.Plane(0).Bytes(), f.Linesize(0)
		if width%2 == 0 && height%2 == 0 {
			return copyRowsParallel(dst, stride, data, rowBytes, height)
		}
		if stride != rowBytes {
			return fmt.Errorf("%w: %dx%d %s, stride %d", ErrOddGeometry, width, height, format, stride)
		}
		copy(dst, data[:rowBytes*height])
		return nil

	case format.IsYUV420():
		chromaW, chromaH := (width+1)/2, (height+1)/2
		planes := [3]struct{ rowBytes, rows int }{
			{width, height},
			{chromaW, chromaH},
			{chromaW, chromaH},
		}
		off := 0
		for i, p := range planes {
			n := p.rowBytes * p.rows
			if err := copyRows(f.Plane(i).Bytes(), f.Linesize(i), data[off:off+n], p.rowBytes, p.rows); err != nil {
				return err
			}
			off += n
		}
		return nil
	}
	return fmt.Errorf("%w: fill %s", ErrUnsupportedPixelFormat, format)
}

// copyRows copies rows of rowBytes from tightly packed src into dst, whose
// rows are stride bytes apart.
func copyRows(dst []byte, stride int, src []byte, rowBytes, rows int) error {
	if err := checkRowCopy(dst, stride, src, rowBytes, rows); err != nil {
		return err
	}
	for y := range rows {
		copy(dst[y*stride:y*stride+rowBytes], src[y*rowBytes:(y+1)*rowBytes])
	}
	return nil
}

// copyRowsParallel is copyRows split into disjoint row ranges, one per
// goroutine.
func copyRowsParallel(dst []byte, stride int, src []byte, rowBytes, rows int) error {
	if err := checkRowCopy(dst, stride, src, rowBytes, rows); err != nil {
		return err
	}
	workers := min(runtime.GOMAXPROCS(0), rows/minRowsPerWorker)
	if workers <= 1 {
		return copyRows(dst, stride, src, rowBytes, rows)
	}
	chunk := (rows + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < rows; start += chunk {
		end := min(start+chunk, rows)
		g.Go(func() error {
			for y := start; y < end; y++ {
				copy(dst[y*stride:y*stride+rowBytes], src[y*rowBytes:(y+1)*rowBytes])
			}
			return nil
		})
	}
	return g.Wait()
}

func checkRowCopy(dst []byte, stride int, src []byte, rowBytes, rows int) error {
	if rows == 0 {
		return nil
	}
	if stride < rowBytes {
		return fmt.Errorf("ffmedia: stride %d shorter than row of %d bytes", stride, rowBytes)
	}
	if len(src) < rowBytes*rows {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortData, len(src), rowBytes*rows)
	}
	if len(dst) < (rows-1)*stride+rowBytes {
		return fmt.Errorf("ffmedia: destination plane of %d bytes too small for %d rows", len(dst), rows)
	}
	return nil
}
