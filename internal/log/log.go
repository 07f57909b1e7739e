// Package log provides the command-line tools' zap logger.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

var (
	log    *zap.SugaredLogger
	helper *zap.SugaredLogger
)

// Init initializes the package-level logger
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		zapLogger, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}

	setLogger(zapLogger)
	return nil
}

// setLogger installs l. The package helpers skip their own frame so callers
// show up in the caller field.
func setLogger(l *zap.Logger) {
	log = l.Sugar()
	helper = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// GetSugaredLogger returns the sugared logger instance
func GetSugaredLogger() *zap.SugaredLogger {
	if log == nil {
		setLogger(zap.NewNop())
	}
	return log
}

func helperLogger() *zap.SugaredLogger {
	if helper == nil {
		setLogger(zap.NewNop())
	}
	return helper
}

// Sync flushes any buffered log entries
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func Infow(msg string, keysAndValues ...interface{}) {
	helperLogger().Infow(msg, keysAndValues...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	helperLogger().Warnw(msg, keysAndValues...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	helperLogger().Errorw(msg, keysAndValues...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	helperLogger().Debugw(msg, keysAndValues...)
}
