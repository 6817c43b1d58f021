// Package logging configures the process-wide zap logger with optional
// file rotation.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup builds a logger writing to stderr and, when path is non-empty,
// a rotated log file. Level accepts zap level names ("debug", "info",
// "warn", "error"); anything unrecognized falls back to info.
func Setup(level, path string) *zap.SugaredLogger {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), lvl),
	}
	if path != "" {
		rotated := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    20, // MB
			MaxBackups: 3,
			MaxAge:     30, // days
		}
		jsonEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotated), lvl))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger.Sugar()
}
