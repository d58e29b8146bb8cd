package config

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig controls console logging. Logs always go to stderr so that
// HTML written to stdout stays clean.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"required,oneof=none normal debug"`
}

// Prepare returns the program logger configured for the requested level
func (conf LoggingConfig) Prepare() *zap.Logger {
	return conf.PrepareTo(os.Stderr)
}

// PrepareTo builds the logger on top of an arbitrary writer
func (conf LoggingConfig) PrepareTo(w io.Writer) *zap.Logger {
	var level zapcore.Level
	switch conf.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "normal":
		level = zapcore.InfoLevel
	default:
		return zap.NewNop()
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.TimeKey = zapcore.OmitKey

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}
