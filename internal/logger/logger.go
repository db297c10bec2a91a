package logger

import (
	"go.uber.org/zap"
)

var instance *zap.SugaredLogger

// Initialize builds the process-wide logger with the given level.
func Initialize(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	instance = logger.Sugar()
	return nil
}

// Get returns the logger; before Initialize it falls back to a no-op logger
// so packages stay usable from tests.
func Get() *zap.SugaredLogger {
	if instance == nil {
		return zap.NewNop().Sugar()
	}
	return instance
}

func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}

func Debug(args ...interface{}) {
	Get().Debugln(args...)
}

func Info(args ...interface{}) {
	Get().Infoln(args...)
}

func Warn(args ...interface{}) {
	Get().Warnln(args...)
}

func Error(args ...interface{}) {
	Get().Errorln(args...)
}

// Infow logs a message with structured key/value pairs.
func Infow(msg string, keysAndValues ...interface{}) {
	Get().Infow(msg, keysAndValues...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	Get().Warnw(msg, keysAndValues...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	Get().Errorw(msg, keysAndValues...)
}
