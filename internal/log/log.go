package log

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// New builds a zap logger for the given environment ("production",
// "development" or "test") at the given level ("debug", "info", ...).
func New(environment, lvl string) (*zap.Logger, error) {
	cfg, err := zapConfig(environment)
	if err != nil {
		return nil, err
	}

	atom := zap.NewAtomicLevel()
	if err := atom.UnmarshalText([]byte(lvl)); err != nil {
		return nil, err
	}
	cfg.Level = atom
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func zapConfig(environment string) (zap.Config, error) {
	switch environment {
	case "production", "test", "":
		return zap.NewProductionConfig(), nil
	case "development":
		return zap.NewDevelopmentConfig(), nil
	default:
		return zap.Config{}, fmt.Errorf("unsupported environment: %s", environment)
	}
}

// Init replaces the process-wide logger. Until Init is called a production
// logger at INFO writes to stderr.
func Init(environment, lvl string) error {
	var parsed zapcore.Level
	if err := parsed.UnmarshalText([]byte(lvl)); err != nil {
		return err
	}

	// The core stays at DEBUG; the shared atomic level does the filtering so
	// SetLevel can lower it later.
	l, err := New(environment, "debug")
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		_ = logger.Sync()
	}
	level.SetLevel(parsed)
	logger = l.WithOptions(zap.IncreaseLevel(level)).Sugar()
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if logger != nil {
		_ = logger.Sync()
	}
}

func SetLevel(l Level) {
	switch l {
	case LevelDebug:
		level.SetLevel(zapcore.DebugLevel)
	case LevelError:
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// ParseLevel maps a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func Debug(msg string, kv ...any) {
	current().Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	current().Infow(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	current().Errorw(msg, extended...)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		base, err := New("production", "debug")
		if err != nil {
			base = zap.NewNop()
		}
		logger = base.WithOptions(zap.IncreaseLevel(level)).Sugar()
	}
	return logger
}
