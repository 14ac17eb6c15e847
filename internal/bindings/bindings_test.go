//go:build !ios && !android && (amd64 || arm64)

package bindings

import (
	"runtime"
	"testing"
)

func TestLibrarySearchPathsHonorsEnv(t *testing.T) {
	t.Setenv(LibDirEnv, "/opt/ffmedia/lib")
	paths := LibrarySearchPaths()
	if len(paths) == 0 || paths[0] != "/opt/ffmedia/lib" {
		t.Fatalf("LibrarySearchPaths()[0] = %v, want %s first", paths, LibDirEnv)
	}
}

func TestLibraryFileName(t *testing.T) {
	var want, unversioned string
	switch runtime.GOOS {
	case "darwin":
		want, unversioned = "libavcodec.61.dylib", "libavcodec.dylib"
	case "windows":
		want, unversioned = "avcodec-61.dll", "avcodec.dll"
	default:
		want, unversioned = "libavcodec.so.61", "libavcodec.so"
	}
	if got := LibraryFileName("avcodec", 61); got != want {
		t.Errorf("LibraryFileName(avcodec, 61) = %q, want %q", got, want)
	}
	if got := LibraryFileName("avcodec", 0); got != unversioned {
		t.Errorf("LibraryFileName(avcodec, 0) = %q, want %q", got, unversioned)
	}
}

func TestGoString(t *testing.T) {
	if got := GoString(0); got != "" {
		t.Errorf("GoString(0) = %q, want empty", got)
	}
	buf := []byte("libx264\x00trailing")
	if got := GoString(uintptr(unsafePointerOf(buf))); got != "libx264" {
		t.Errorf("GoString = %q, want libx264", got)
	}
}

// Integration test - only runs if FFmpeg is available
func TestLoadFFmpeg(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping FFmpeg load test in short mode")
	}

	if err := Load(); err != nil {
		t.Skipf("FFmpeg not available: %v", err)
	}
	if !IsLoaded() {
		t.Error("IsLoaded should be true after successful Load")
	}

	ver := AVUtilVersion()
	if ver == 0 {
		t.Error("AVUtilVersion should return non-zero after Load")
	}
	t.Logf("FFmpeg loaded: avutil version %d.%d.%d, swscale present: %v",
		ver>>16, (ver>>8)&0xFF, ver&0xFF, HasSWScale())
}
