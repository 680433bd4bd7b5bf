// Package logging builds the zap loggers used by the search facade and by the
// engine client's transport logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ca-srg/fluentsearch/internal/types"
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 10
	defaultMaxAgeDays = 30
)

// Options controls diagnostic logging. A zero value disables logging.
type Options struct {
	Enabled bool
	// Level is one of debug, info, warn, error. Unknown values fall back to info.
	Level string
	// Location is a file path; empty logs to stderr.
	Location string
	// Format is console or json.
	Format string
	// RequestBody and ResponseBody ask the transport logger to include bodies.
	RequestBody  bool
	ResponseBody bool
}

// OptionsFromConfig maps the LOG_* environment settings.
func OptionsFromConfig(cfg *types.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{
		Enabled:      cfg.LogEnabled,
		Level:        cfg.LogLevel,
		Location:     cfg.LogLocation,
		Format:       cfg.LogFormat,
		RequestBody:  cfg.LogRequestBody,
		ResponseBody: cfg.LogResponseBody,
	}
}

// New returns a zap logger for opts, or a no-op logger when logging is disabled.
func New(opts Options) (*zap.Logger, error) {
	if !opts.Enabled {
		return zap.NewNop(), nil
	}

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(opts.Level)))); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}

	writer, err := newWriter(opts.Location)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(opts.Format), writer, level)
	return zap.New(core, zap.AddCaller()).Named("fluentsearch"), nil
}

func newWriter(location string) (zapcore.WriteSyncer, error) {
	if strings.TrimSpace(location) == "" {
		return zapcore.Lock(os.Stderr), nil
	}

	if err := os.MkdirAll(filepath.Dir(location), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   location,
		MaxSize:    defaultMaxSizeMB,
		MaxBackups: defaultMaxBackups,
		MaxAge:     defaultMaxAgeDays,
	}
	return zapcore.AddSync(rotator), nil
}

func newEncoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}
