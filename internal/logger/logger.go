// Package logger provides the single global *zap.Logger used across the
// CLI, server and route-generation core. A console core is always
// present; a rotated JSON file core is added when a log file path is
// configured.
package logger

import (
	"os"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  *zap.Logger
	once sync.Once
)

// Init initializes the global logger with console output only.
func Init(verbose bool) {
	once.Do(func() {
		initLogger(verbose, "")
	})
}

// InitWithFile initializes the global logger with console output plus a
// lumberjack-rotated JSON file at logFile.
func InitWithFile(verbose bool, logFile string) {
	once.Do(func() {
		initLogger(verbose, logFile)
	})
}

func initLogger(verbose bool, logFile string) {
	var level zapcore.Level
	var encoderConfig zapcore.EncoderConfig
	if verbose {
		level = zapcore.DebugLevel
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		level = zapcore.InfoLevel
		encoderConfig = zap.NewProductionEncoderConfig()
	}

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		level,
	)
	cores := []zapcore.Core{consoleCore}

	if logFile != "" {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    50,
				MaxBackups: 5,
				MaxAge:     30,
			}),
			level,
		)
		cores = append(cores, fileCore)
	}

	log = zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel))
}

// Get returns the global logger, lazily initializing it at default
// (non-verbose, console-only) settings if no Init call happened yet.
func Get() *zap.Logger {
	if log == nil {
		Init(false)
	}
	return log
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
