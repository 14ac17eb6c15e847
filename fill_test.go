//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"bytes"
	"errors"
	"testing"
)

func packedRows(rowBytes, rows int) []byte {
	src := make([]byte, rowBytes*rows)
	for i := range src {
		src[i] = byte(i % 251)
	}
	return src
}

func TestCopyRowsStride(t *testing.T) {
	const rowBytes, rows, stride = 6, 3, 8
	src := packedRows(rowBytes, rows)
	dst := bytes.Repeat([]byte{0xff}, stride*rows)

	if err := copyRows(dst, stride, src, rowBytes, rows); err != nil {
		t.Fatalf("copyRows: %v", err)
	}
	for y := range rows {
		row := dst[y*stride : (y+1)*stride]
		if !bytes.Equal(row[:rowBytes], src[y*rowBytes:(y+1)*rowBytes]) {
			t.Errorf("row %d = %v, want %v", y, row[:rowBytes], src[y*rowBytes:(y+1)*rowBytes])
		}
		if !bytes.Equal(row[rowBytes:], []byte{0xff, 0xff}) {
			t.Errorf("row %d padding overwritten: %v", y, row[rowBytes:])
		}
	}
}

func TestCopyRowsParallelMatchesSerial(t *testing.T) {
	const rowBytes, rows, stride = 3 * 640, 480, 3*640 + 64
	src := packedRows(rowBytes, rows)

	serial := make([]byte, stride*rows)
	parallel := make([]byte, stride*rows)
	if err := copyRows(serial, stride, src, rowBytes, rows); err != nil {
		t.Fatalf("copyRows: %v", err)
	}
	if err := copyRowsParallel(parallel, stride, src, rowBytes, rows); err != nil {
		t.Fatalf("copyRowsParallel: %v", err)
	}
	if !bytes.Equal(serial, parallel) {
		t.Error("parallel copy differs from serial copy")
	}
}

func TestCopyRowsValidation(t *testing.T) {
	tests := []struct {
		name      string
		dstLen    int
		stride    int
		srcLen    int
		rowBytes  int
		rows      int
		wantShort bool
	}{
		{name: "stride shorter than row", dstLen: 64, stride: 4, srcLen: 64, rowBytes: 8, rows: 2},
		{name: "short source", dstLen: 64, stride: 8, srcLen: 10, rowBytes: 8, rows: 2, wantShort: true},
		{name: "small destination", dstLen: 12, stride: 8, srcLen: 16, rowBytes: 8, rows: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := copyRows(make([]byte, tt.dstLen), tt.stride, make([]byte, tt.srcLen), tt.rowBytes, tt.rows)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrShortData); got != tt.wantShort {
				t.Errorf("errors.Is(err, ErrShortData) = %v, want %v (err: %v)", got, tt.wantShort, err)
			}
		})
	}
}

func TestCopyRowsLastRowWithoutPadding(t *testing.T) {
	// The last row of a plane may end right after its visible bytes.
	const rowBytes, rows, stride = 4, 2, 8
	dst := make([]byte, stride+rowBytes)
	if err := copyRows(dst, stride, packedRows(rowBytes, rows), rowBytes, rows); err != nil {
		t.Fatalf("copyRows: %v", err)
	}
}

func TestFillDataRGB(t *testing.T) {
	skipIfNoFFmpeg(t)

	img, err := NewEmpty(64, 48, PixelFormatRGB24, CodecIDPNG)
	if err != nil {
		t.Fatalf("NewEmpty: %v", err)
	}
	defer img.Close()

	data := packedRows(64*3, 48)
	if err := img.FillData(data); err != nil {
		t.Fatalf("FillData: %v", err)
	}
	for y, row := range img.Frame().Rows(0) {
		if !bytes.Equal(row, data[y*64*3:(y+1)*64*3]) {
			t.Fatalf("row %d does not match source", y)
		}
	}
}

func TestFillDataYUV420(t *testing.T) {
	skipIfNoFFmpeg(t)

	ctx, err := newTestEncoder(t, CodecIDFFV1, 34, 18, PixelFormatYUV420P)
	if err != nil {
		t.Skipf("ffv1 encoder unavailable: %v", err)
	}
	defer ctx.Close()

	ySize, cSize := 34*18, 17*9
	data := packedRows(1, ySize+2*cSize)
	if err := ctx.FillData(data); err != nil {
		t.Fatalf("FillData: %v", err)
	}
	frame := ctx.LastFrame()
	wantPlanes := [][]byte{data[:ySize], data[ySize : ySize+cSize], data[ySize+cSize:]}
	rowBytes := []int{34, 17, 17}
	for plane, want := range wantPlanes {
		for y, row := range frame.Rows(plane) {
			if !bytes.Equal(row, want[y*rowBytes[plane]:(y+1)*rowBytes[plane]]) {
				t.Fatalf("plane %d row %d does not match source", plane, y)
			}
		}
	}
}

func TestFillDataShort(t *testing.T) {
	skipIfNoFFmpeg(t)

	img, err := NewEmpty(16, 16, PixelFormatRGB24, CodecIDPNG)
	if err != nil {
		t.Fatalf("NewEmpty: %v", err)
	}
	defer img.Close()

	if err := img.FillData(make([]byte, 16*16*3-1)); !errors.Is(err, ErrShortData) {
		t.Errorf("FillData(short) = %v, want ErrShortData", err)
	}
}

func TestFillDataOddGeometry(t *testing.T) {
	skipIfNoFFmpeg(t)

	img, err := NewEmpty(15, 7, PixelFormatRGB24, CodecIDPNG)
	if err != nil {
		t.Fatalf("NewEmpty: %v", err)
	}
	defer img.Close()

	err = img.FillData(packedRows(15*3, 7))
	frame := img.Frame()
	if frame.Linesize(0) == 15*3 {
		if err != nil {
			t.Errorf("FillData on unpadded odd frame: %v", err)
		}
		return
	}
	if !errors.Is(err, ErrOddGeometry) {
		t.Errorf("FillData on padded odd frame = %v, want ErrOddGeometry", err)
	}
}
