// Package logging builds the zap loggers used by the microcred CLI.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures a logger.
type Config struct {
	// Env selects the output format: "dev" (colored console) or "prod" (JSON).
	// Default: "dev"
	Env string

	// Level is the minimum level: "debug", "info", "warn" or "error".
	// Default: "info"
	Level string

	// ServiceName is attached to every entry when set.
	ServiceName string
}

// New builds a logger that writes to w, or to stderr when w is nil. The CLI
// passes its error stream so results on stdout stay clean.
func New(cfg Config, w io.Writer) *zap.Logger {
	if w == nil {
		w = os.Stderr
	}

	var l *zap.Logger
	if strings.ToLower(cfg.Env) == "prod" {
		core := zapcore.NewCore(zapcore.NewJSONEncoder(prodEncoderConfig()), zapcore.AddSync(w), ParseLevel(cfg.Level))
		l = zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(devEncoderConfig()), zapcore.AddSync(w), ParseLevel(cfg.Level))
		l = zap.New(core)
	}

	if cfg.ServiceName != "" {
		l = l.With(zap.String("service", cfg.ServiceName))
	}
	return l
}

// devEncoderConfig is the human-readable console format.
func devEncoderConfig() zapcore.EncoderConfig {
	ecfg := zap.NewDevelopmentEncoderConfig()
	ecfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	ecfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return ecfg
}

// prodEncoderConfig is JSON with ISO8601 timestamps.
func prodEncoderConfig() zapcore.EncoderConfig {
	ecfg := zap.NewProductionEncoderConfig()
	ecfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return ecfg
}

// ParseLevel converts a level name to a zapcore.Level. Unknown names map to
// info.
func ParseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
