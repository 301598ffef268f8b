// Package logger builds the diagnostic zap logger. CLI output goes to
// stdout through the cli package; diagnostics go to a rotated log file so
// they never interleave with rendered results.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a logger. With a log file path set, diagnostics are written
// as JSON to the rotated file; stderr only receives warnings and above.
// Debug mode lowers all thresholds to debug.
func New(logFile string, debug bool) *zap.Logger {
	level := zap.InfoLevel
	consoleLevel := zap.WarnLevel
	if debug {
		level = zap.DebugLevel
		consoleLevel = zap.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		consoleLevel,
	)

	if logFile == "" {
		return zap.New(consoleCore)
	}

	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		level,
	)

	return zap.New(zapcore.NewTee(fileCore, consoleCore))
}
