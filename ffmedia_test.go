//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

var ffmpegAvailable bool

func TestMain(m *testing.M) {
	if err := Init(); err == nil {
		ffmpegAvailable = true
	}
	os.Exit(m.Run())
}

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if !ffmpegAvailable {
		t.Skip("FFmpeg not available")
	}
}

// encodeTestPNG renders a width x height RGB gradient as PNG bytes.
func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 255 / max(width-1, 1)),
				G: uint8(y * 255 / max(height-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// writeTestPNG writes a gradient PNG into a temporary directory.
func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.png")
	if err := os.WriteFile(path, encodeTestPNG(t, width, height), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestInit(t *testing.T) {
	skipIfNoFFmpeg(t)

	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !IsLoaded() {
		t.Error("IsLoaded returned false after Init")
	}
}

func TestVersion(t *testing.T) {
	skipIfNoFFmpeg(t)

	avutil, avcodec, avformat := Version()
	if avutil == 0 || avcodec == 0 || avformat == 0 {
		t.Errorf("Version() = %d, %d, %d; want non-zero", avutil, avcodec, avformat)
	}
	t.Logf("Versions: avutil=%d.%d.%d, avcodec=%d.%d.%d, avformat=%d.%d.%d",
		avutil>>16, (avutil>>8)&0xFF, avutil&0xFF,
		avcodec>>16, (avcodec>>8)&0xFF, avcodec&0xFF,
		avformat>>16, (avformat>>8)&0xFF, avformat&0xFF)
}

func TestSetLogLevel(t *testing.T) {
	skipIfNoFFmpeg(t)

	prev := GetLogLevel()
	defer SetLogLevel(prev)

	if err := SetLogLevel(LogError); err != nil {
		t.Fatalf("SetLogLevel: %v", err)
	}
	if got := GetLogLevel(); got != LogError {
		t.Errorf("GetLogLevel() = %v, want %v", got, LogError)
	}
}
