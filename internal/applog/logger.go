// Package applog builds the structured console logger used across the
// kryon-render CLI.
package applog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names accepted by configuration and the --log-level CLI flag.
const (
	LevelNone  = "none"
	LevelInfo  = "info"
	LevelDebug = "debug"
)

// New builds a zap.Logger writing to stderr at the requested level. An
// empty or unrecognized level falls back to LevelInfo.
func New(level string) *zap.Logger {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.TimeKey = zapcore.OmitKey
	if isTerminal(os.Stderr) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	encoder := zapcore.NewConsoleEncoder(ec)

	var core zapcore.Core
	switch level {
	case LevelNone:
		core = zapcore.NewNopCore()
	case LevelDebug:
		core = zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(zap.DebugLevel))
	default:
		core = zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(zap.InfoLevel))
	}
	return zap.New(core)
}

// isTerminal distinguishes a real character device from a redirected
// file/pipe, to decide whether level names get ANSI colors.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
