//go:build !ios && !android && (amd64 || arm64)

package ffmedia

import (
	"sync"

	"go.uber.org/zap"

	"github.com/obinnaokechukwu/ffmedia/avutil"
)

// LogLevel is an FFmpeg verbosity level for the libraries' own stderr output.
type LogLevel = avutil.LogLevel

// Log level constants matching FFmpeg's AV_LOG_* values.
const (
	LogQuiet   = avutil.LogQuiet   // Print no output
	LogPanic   = avutil.LogPanic   // Something went really wrong, crash
	LogFatal   = avutil.LogFatal   // Something went wrong, exit now
	LogError   = avutil.LogError   // Something went wrong, recovery possible
	LogWarning = avutil.LogWarning // Something unexpected but recovery possible
	LogInfo    = avutil.LogInfo    // Standard information
	LogVerbose = avutil.LogVerbose // Detailed information
	LogDebug   = avutil.LogDebug   // Stuff for debugging
	LogTrace   = avutil.LogTrace   // Extremely verbose debugging
)

var (
	loggerMu sync.RWMutex
	logger   *zap.Logger
)

// Logger returns the package logger. Until SetLogger is called it is
// zap.L().Named("ffmedia"), so zap.ReplaceGlobals takes effect here too.
func Logger() *zap.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}
	return zap.L().Named("ffmedia")
}

// SetLogger replaces the package logger. Pass nil to restore the default.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// SetLogLevel sets the verbosity of FFmpeg's own logging.
func SetLogLevel(level LogLevel) error {
	if err := Init(); err != nil {
		return err
	}
	avutil.LogSetLevel(level)
	Logger().Debug("ffmpeg log level set", zap.Stringer("level", level))
	return nil
}

// GetLogLevel returns FFmpeg's current verbosity.
func GetLogLevel() LogLevel {
	return avutil.LogGetLevel()
}
