//go:build !ios && !android && (amd64 || arm64)

// Package bindings loads the FFmpeg shared libraries with purego and exposes
// their handles to the binding packages.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// ErrNotLoaded is returned when FFmpeg functions are called before Load().
var ErrNotLoaded = errors.New("ffmedia: FFmpeg libraries not loaded")

// ErrLibraryNotFound is returned when a required FFmpeg library cannot be found.
var ErrLibraryNotFound = errors.New("ffmedia: FFmpeg library not found")

// LibDirEnv names a directory searched before every platform default.
const LibDirEnv = "FFMEDIA_LIB_DIR"

var (
	libAVUtil   uintptr
	libAVCodec  uintptr
	libAVFormat uintptr
	libSWScale  uintptr

	loaded   bool
	loadOnce sync.Once
	loadErr  error
)

var (
	avutilVersion   func() uint32
	avcodecVersion  func() uint32
	avformatVersion func() uint32
	swscaleVersion  func() uint32
)

// IsLoaded returns true if FFmpeg libraries have been successfully loaded.
func IsLoaded() bool {
	return loaded
}

// Load loads the FFmpeg libraries. Only the first call does any work.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		if loadErr == nil {
			loaded = true
		}
	})
	return loadErr
}

func doLoad() error {
	var err error

	// avutil first: every other library resolves symbols against it.
	libAVUtil, err = loadLibrary("avutil", []int{59, 58, 57})
	if err != nil {
		return fmt.Errorf("loading libavutil: %w", err)
	}
	libAVCodec, err = loadLibrary("avcodec", []int{61, 60, 59})
	if err != nil {
		return fmt.Errorf("loading libavcodec: %w", err)
	}
	libAVFormat, err = loadLibrary("avformat", []int{61, 60, 59})
	if err != nil {
		return fmt.Errorf("loading libavformat: %w", err)
	}
	// swscale is optional; the scaler reports its absence.
	libSWScale, _ = loadLibrary("swscale", []int{8, 7, 6})

	purego.RegisterLibFunc(&avutilVersion, libAVUtil, "avutil_version")
	purego.RegisterLibFunc(&avcodecVersion, libAVCodec, "avcodec_version")
	purego.RegisterLibFunc(&avformatVersion, libAVFormat, "avformat_version")
	if libSWScale != 0 {
		purego.RegisterLibFunc(&swscaleVersion, libSWScale, "swscale_version")
	}
	return nil
}

func loadLibrary(name string, versions []int) (uintptr, error) {
	// Versioned names first, then the unversioned development symlink.
	candidates := make([]int, 0, len(versions)+1)
	candidates = append(candidates, versions...)
	candidates = append(candidates, 0)

	for _, dir := range LibrarySearchPaths() {
		for _, ver := range candidates {
			if lib, err := tryOpen(filepath.Join(dir, LibraryFileName(name, ver))); err == nil {
				return lib, nil
			}
		}
	}
	// Let the dynamic loader search its own paths.
	for _, ver := range candidates {
		if lib, err := tryOpen(LibraryFileName(name, ver)); err == nil {
			return lib, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// RTLD_GLOBAL is required: the FFmpeg libraries reference each other's symbols.
func tryOpen(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

// LibraryFileName returns the platform-specific file name of an FFmpeg library.
// A zero version yields the unversioned name.
//
//   - Linux:   LibraryFileName("avcodec", 60) -> "libavcodec.so.60"
//   - macOS:   LibraryFileName("avcodec", 60) -> "libavcodec.60.dylib"
//   - Windows: LibraryFileName("avcodec", 60) -> "avcodec-60.dll"
func LibraryFileName(name string, version int) string {
	switch runtime.GOOS {
	case "darwin":
		if version > 0 {
			return fmt.Sprintf("lib%s.%d.dylib", name, version)
		}
		return "lib" + name + ".dylib"
	case "windows":
		if version > 0 {
			return fmt.Sprintf("%s-%d.dll", name, version)
		}
		return name + ".dll"
	default:
		if version > 0 {
			return fmt.Sprintf("lib%s.so.%d", name, version)
		}
		return "lib" + name + ".so"
	}
}

// LibrarySearchPaths returns the directories searched for FFmpeg libraries.
func LibrarySearchPaths() []string {
	var paths []string
	if dir := os.Getenv(LibDirEnv); dir != "" {
		paths = append(paths, dir)
	}

	switch runtime.GOOS {
	case "linux", "freebsd":
		if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
			paths = append(paths, filepath.SplitList(ldPath)...)
		}
		paths = append(paths,
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
			"/usr/local/lib",
			"/usr/lib",
			"/lib/x86_64-linux-gnu",
			"/lib",
		)
	case "darwin":
		if dyldPath := os.Getenv("DYLD_LIBRARY_PATH"); dyldPath != "" {
			paths = append(paths, filepath.SplitList(dyldPath)...)
		}
		paths = append(paths,
			"/opt/homebrew/lib",
			"/usr/local/lib",
			"/opt/homebrew/opt/ffmpeg/lib",
			"/usr/local/opt/ffmpeg/lib",
		)
	case "windows":
		if winPath := os.Getenv("PATH"); winPath != "" {
			paths = append(paths, filepath.SplitList(winPath)...)
		}
		if exe, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Dir(exe))
		}
		paths = append(paths, `C:\ffmpeg\bin`)
	}
	return paths
}

// AVUtilVersion returns the avutil library version, or 0 when not loaded.
func AVUtilVersion() uint32 {
	if !loaded || avutilVersion == nil {
		return 0
	}
	return avutilVersion()
}

// AVCodecVersion returns the avcodec library version, or 0 when not loaded.
func AVCodecVersion() uint32 {
	if !loaded || avcodecVersion == nil {
		return 0
	}
	return avcodecVersion()
}

// AVFormatVersion returns the avformat library version, or 0 when not loaded.
func AVFormatVersion() uint32 {
	if !loaded || avformatVersion == nil {
		return 0
	}
	return avformatVersion()
}

// SWScaleVersion returns the swscale library version, or 0 when unavailable.
func SWScaleVersion() uint32 {
	if !loaded || swscaleVersion == nil {
		return 0
	}
	return swscaleVersion()
}

// LibAVUtil returns the avutil library handle.
func LibAVUtil() uintptr { return libAVUtil }

// LibAVCodec returns the avcodec library handle.
func LibAVCodec() uintptr { return libAVCodec }

// LibAVFormat returns the avformat library handle.
func LibAVFormat() uintptr { return libAVFormat }

// LibSWScale returns the swscale library handle.
func LibSWScale() uintptr { return libSWScale }

// HasSWScale reports whether libswscale was found.
func HasSWScale() bool { return libSWScale != 0 }

// LoadLibrary loads an optional library such as avfilter after the core set.
func LoadLibrary(name string, versions []int) (uintptr, error) {
	if err := Load(); err != nil {
		return 0, err
	}
	return loadLibrary(name, versions)
}

// RegisterOptional binds a symbol that may be missing from older builds,
// leaving fptr nil when it is.
func RegisterOptional(fptr any, lib uintptr, name string) {
	defer func() { _ = recover() }()
	purego.RegisterLibFunc(fptr, lib, name)
}

// GoString copies a NUL-terminated C string.
func GoString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	n := 0
	p := unsafe.Pointer(ptr)
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}
