// Package logging wires up zap with a lumberjack rotating sink, matching
// the teacher stack's logging combination.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Verbosity maps spec §6's `-v|--verbosity 0|1|2` CLI flag onto zap levels.
type Verbosity int

const (
	VerbosityWarn Verbosity = iota
	VerbosityInfo
	VerbosityDebug
)

// Options configures New.
type Options struct {
	Verbosity Verbosity
	// LogFile, when non-empty, also writes rotated logs there via
	// lumberjack. Console output always goes to stderr.
	LogFile string
}

func (v Verbosity) level() zapcore.Level {
	switch v {
	case VerbosityDebug:
		return zapcore.DebugLevel
	case VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}

// New builds a *zap.SugaredLogger console-encoded to stderr, optionally
// tee'd into a rotating file sink.
func New(opts Options) *zap.SugaredLogger {
	level := opts.Verbosity.level()
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		level,
	)

	cores := []zapcore.Core{consoleCore}
	if opts.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(rotator),
			level,
		)
		cores = append(cores, fileCore)
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger.Sugar()
}
