//go:build !ios && !android && (amd64 || arm64)

package avutil

import "github.com/ebitengine/purego"

// LogLevel is an FFmpeg AV_LOG_* verbosity level.
type LogLevel int32

const (
	LogQuiet   LogLevel = -8
	LogPanic   LogLevel = 0
	LogFatal   LogLevel = 8
	LogError   LogLevel = 16
	LogWarning LogLevel = 24
	LogInfo    LogLevel = 32
	LogVerbose LogLevel = 40
	LogDebug   LogLevel = 48
	LogTrace   LogLevel = 56
)

var (
	avLogSetLevel func(level int32)
	avLogGetLevel func() int32
)

func registerLogBindings(lib uintptr) {
	purego.RegisterLibFunc(&avLogSetLevel, lib, "av_log_set_level")
	purego.RegisterLibFunc(&avLogGetLevel, lib, "av_log_get_level")
}

// LogSetLevel sets the verbosity of FFmpeg's own stderr logging.
func LogSetLevel(level LogLevel) {
	if avLogSetLevel == nil {
		return
	}
	avLogSetLevel(int32(level))
}

// LogGetLevel returns the current FFmpeg log level.
func LogGetLevel() LogLevel {
	if avLogGetLevel == nil {
		return LogInfo
	}
	return LogLevel(avLogGetLevel())
}

// String returns the lower-case name of the level.
func (l LogLevel) String() string {
	switch {
	case l <= LogQuiet:
		return "quiet"
	case l <= LogPanic:
		return "panic"
	case l <= LogFatal:
		return "fatal"
	case l <= LogError:
		return "error"
	case l <= LogWarning:
		return "warning"
	case l <= LogInfo:
		return "info"
	case l <= LogVerbose:
		return "verbose"
	case l <= LogDebug:
		return "debug"
	default:
		return "trace"
	}
}
