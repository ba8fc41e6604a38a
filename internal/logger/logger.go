// Package logger provides structured logging using zap.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Faultbox/glyphcloud/internal/config"
)

// Component names a subsystem in log output.
type Component string

// Components that log. The per-instance hot path (sampler, skin, updater) never does.
const (
	Scene     Component = "scene"
	Effects   Component = "effects"
	Chaos     Component = "chaos"
	Telemetry Component = "telemetry"
	Viewer    Component = "viewer"
	Window    Component = "window"
	Renderer  Component = "renderer"
	Sim       Component = "sim"
)

// Log is the global logger instance. It discards everything until Init runs,
// so packages and tests can log without setup.
var Log = zap.NewNop()

// Sugar is the sugared logger for convenient logging.
var Sugar = Log.Sugar()

// FileConfig holds rotating log file settings.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileConfig returns the rotation used for session logs. Chaos runs
// at debug level log every event, so files rotate early.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// Init configures the global logger from the logging config section.
func Init(cfg config.LoggingConfig) error {
	var file FileConfig
	if cfg.LogFile != "" {
		file = DefaultFileConfig(cfg.LogFile)
		if cfg.MaxSizeMB > 0 {
			file.MaxSizeMB = cfg.MaxSizeMB
		}
		if cfg.MaxBackups > 0 {
			file.MaxBackups = cfg.MaxBackups
		}
	}
	return InitWithFileConfig(cfg.Level, file, !cfg.Quiet)
}

// InitWithFileConfig initializes the logger with custom file configuration.
// Set console to false to log only to the file.
func InitWithFileConfig(level string, file FileConfig, console bool) error {
	lvl := ParseLevel(level)

	var cores []zapcore.Core
	if console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(true)),
			zapcore.AddSync(os.Stdout),
			lvl,
		))
	}
	if file.Path != "" {
		w := &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAge:     file.MaxAgeDays,
			Compress:   file.Compress,
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(false)),
			zapcore.AddSync(w),
			lvl,
		))
	}

	if len(cores) == 0 {
		Log = zap.NewNop()
	} else {
		Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	}
	Sugar = Log.Sugar()
	return nil
}

// encoderConfig is shared by both cores; the terminal gets colour and a
// short clock, the file gets plain levels and full timestamps.
func encoderConfig(terminal bool) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "component",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	}
	if terminal {
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg
}

// ParseLevel converts a level name to zapcore.Level. Unknown names log at info.
func ParseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Named returns a child logger tagged with a component name.
// Components capture it once at construction time, after Init.
func Named(c Component) *zap.Logger {
	return Log.Named(string(c))
}

// Effect is the field every effect state transition is logged with.
func Effect(id fmt.Stringer) zap.Field {
	return zap.Stringer("effect", id)
}

// Frame is the field frame-stamped scene logs carry.
func Frame(n int) zap.Field {
	return zap.Int("frame", n)
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Log.Sync()
}

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// Info logs an info message.
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error logs an error message.
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

// Fatal logs a fatal message and exits.
func Fatal(msg string, fields ...zap.Field) {
	Log.Fatal(msg, fields...)
}
