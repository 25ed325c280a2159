// Package logger provides opinionated logging capabilities for tapechat
package logger

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger returns a logger writing colourised console output to stdout.
// Used by commands that do not take over the terminal (serve, settings, ask).
func NewLogger(debug bool) *zap.Logger {
	encoderConfig := encoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return newLogger(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), debug)
}

// NewFileLogger returns a logger writing to a size-rotated file at path.
// The interactive chat client owns stdout, so its diagnostics go here instead.
func NewFileLogger(path string, debug bool) (*zap.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}

	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	// No colour codes in files
	encoderConfig := encoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	return newLogger(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(sink), debug), sink, nil
}

func encoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return encoderConfig
}

func newLogger(encoder zapcore.Encoder, sink zapcore.WriteSyncer, debug bool) *zap.Logger {
	// Set log level
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	return zap.New(zapcore.NewCore(encoder, sink, level), zap.AddCaller())
}
