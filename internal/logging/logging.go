// Package logging builds the zap loggers used across embedkit
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level and encoding of the logger
type Config struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // console or json
}

// Validate checks level and format
func (c Config) Validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return err
	}
	switch c.Format {
	case "", "console", "json":
		return nil
	default:
		return fmt.Errorf("invalid log format %q (want console or json)", c.Format)
	}
}

// New creates a logger writing to stderr
func New(cfg Config) (*zap.Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(cfg Config, w io.Writer) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := parseLevel(cfg.Level)

	core := zapcore.NewCore(newEncoder(cfg.Format), zapcore.AddSync(w), level)
	return zap.New(core).Named("embedkit"), nil
}

// newEncoder creates JSON or console encoder
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderCfg)
	}
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encoderCfg)
}

func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.WarnLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}
