// Package logging holds the process-wide zap logger.
//
// The logger is a no-op until Configure runs, so library-style packages can
// log unconditionally. Output always goes to stderr: in MCP mode stdout
// carries the protocol stream.
package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLogLevel selects the minimum level: debug, info, warn, error or off.
const EnvLogLevel = "CAPPED_LOG_LEVEL"

var (
	mu     sync.RWMutex
	logger = zap.NewNop()

	configureOnce sync.Once
)

// Logger returns the current logger.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Configure installs a JSON logger on stderr at the level named by
// CAPPED_LOG_LEVEL (default warn). Only the first call has any effect.
func Configure() {
	configureOnce.Do(func() {
		level, ok := parseLevel(os.Getenv(EnvLogLevel))
		if !ok {
			level = zapcore.WarnLevel
		}
		if level > zapcore.FatalLevel {
			return
		}
		Set(newStderrLogger(level))
	})
}

// Set replaces the logger and returns a function restoring the previous one.
func Set(l *zap.Logger) (restore func()) {
	mu.Lock()
	prev := logger
	logger = l
	mu.Unlock()
	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

func newStderrLogger(level zapcore.Level) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core).Named("capped")
}

// parseLevel maps an env value to a zap level. "off" maps to a level above
// Fatal, which Configure treats as disabled.
func parseLevel(raw string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zapcore.WarnLevel, false
	case "debug", "trace":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	case "off", "none", "disabled":
		return zapcore.FatalLevel + 1, true
	default:
		return zapcore.WarnLevel, false
	}
}
