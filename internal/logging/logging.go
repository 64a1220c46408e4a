// Package logging builds a context-propagated logr.Logger handle backed by
// zap — the REDESIGN FLAG from spec §9 replacing the upstream shared-mutable
// logger singleton. File rotation via lumberjack matches the 10MB x 5
// backups policy from original_source/common/logger.py; console output is
// always active, file output can be disabled for constrained environments
// (spec §6/§7).
package logging

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func zapConsoleSink() *os.File { return os.Stdout }

// Options configures the logger handle.
type Options struct {
	Debug       bool
	NoFileLog   bool
	FilePath    string
}

// New builds a logr.Logger. Console is always enabled; --debug raises its
// level. The file sink, when enabled, rotates at 10MB with 5 backups.
func New(opts Options) logr.Logger {
	consoleLevel := zapcore.InfoLevel
	if opts.Debug {
		consoleLevel = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(zapConsoleSink())), consoleLevel),
	}

	if !opts.NoFileLog {
		filePath := opts.FilePath
		if filePath == "" {
			filePath = "logs/sync.log"
		}
		fileEncoder := zapcore.NewJSONEncoder(encoderCfg)
		rotator := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			Compress:   false,
		}
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(rotator), zapcore.InfoLevel))
	}

	zapLogger := zap.New(zapcore.NewTee(cores...))
	return zapr.NewLogger(zapLogger)
}
