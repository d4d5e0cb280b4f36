// Package logger wraps zap construction so callers get a configured
// *zap.Logger without repeating level parsing.
package logger

import (
	"go.uber.org/zap"
)

// Logger holds the underlying zap logger.
type Logger struct {
	// Log is the configured zap logger instance.
	Log *zap.Logger
}

// New returns a Logger with a no-op zap instance; call Init to configure it.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init builds a production zap logger at the given level ("Debug", "Info",
// "Warn", "Error") and replaces the held instance. Returns an error if the
// level cannot be parsed or the logger cannot be built.
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	log, err := cfg.Build()
	if err != nil {
		return err
	}

	l.Log = log
	return nil
}
