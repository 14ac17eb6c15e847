//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
)

// Common FFmpeg error codes (AVERROR values)
const (
	AVERROR_EOF               int32 = -541478725             // End of file
	AVERROR_EAGAIN            int32 = -int32(syscall.EAGAIN) // Resource temporarily unavailable
	AVERROR_EINVAL            int32 = -int32(syscall.EINVAL) // Invalid argument
	AVERROR_ENOMEM            int32 = -int32(syscall.ENOMEM) // Out of memory
	AVERROR_ENOENT            int32 = -int32(syscall.ENOENT) // No such file or directory
	AVERROR_DECODER_NOT_FOUND int32 = -1128613112            // Decoder not found
	AVERROR_ENCODER_NOT_FOUND int32 = -1129203192            // Encoder not found
	AVERROR_FILTER_NOT_FOUND  int32 = -1279870712            // Filter not found
	AVERROR_STREAM_NOT_FOUND  int32 = -1381258232            // Stream not found
	AVERROR_INVALIDDATA       int32 = -1094995529            // Invalid data
)

// Error represents a failed FFmpeg call.
type Error struct {
	Code    int32  // Raw FFmpeg error code
	Message string // Human-readable message
	Op      string // Native function that failed
	Site    string // file:line of the first caller outside the binding packages
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Site == "" {
		return fmt.Sprintf("ffmpeg %s: %s (code %d)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("ffmpeg %s: %s (code %d) at %s", e.Op, e.Message, e.Code, e.Site)
}

// NewError creates an error from an FFmpeg return code.
// Non-negative codes are success and yield nil.
func NewError(code int32, op string) error {
	if code >= 0 {
		return nil
	}
	return &Error{
		Code:    code,
		Message: ErrorString(code),
		Op:      op,
		Site:    callSite(),
	}
}

const modulePrefix = "github.com/obinnaokechukwu/ffmedia/"

var bindingPackages = []string{"avutil.", "avcodec.", "avformat.", "swscale.", "avfilter."}

// callSite walks past the binding packages so the recorded site is the
// wrapper that issued the native call.
func callSite() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isBindingFrame(frame.Function) {
			return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}
		if !more {
			return ""
		}
	}
}

func isBindingFrame(fn string) bool {
	rest, ok := strings.CutPrefix(fn, modulePrefix)
	if !ok {
		return false
	}
	for _, p := range bindingPackages {
		if strings.HasPrefix(rest, p) {
			return true
		}
	}
	return false
}

// IsEOF returns true if the error indicates end of file.
func IsEOF(err error) bool {
	return Code(err) == AVERROR_EOF
}

// IsAgain returns true if the error indicates to try again (EAGAIN).
// This is common during decoding when more data is needed.
func IsAgain(err error) bool {
	return Code(err) == AVERROR_EAGAIN
}

// IsInvalidData returns true if the error indicates invalid data.
func IsInvalidData(err error) bool {
	return Code(err) == AVERROR_INVALIDDATA
}

// Code returns the FFmpeg error code from an error, or 0 if not an FFmpeg error.
func Code(err error) int32 {
	var ffErr *Error
	if errors.As(err, &ffErr) {
		return ffErr.Code
	}
	return 0
}
