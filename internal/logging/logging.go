// Package logging builds the zap logger used by every function.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger at the given level, tagged with the function name
func New(level, function string) (*zap.Logger, error) {

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %v", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// Lambda adds its own caller context
	cfg.DisableCaller = true

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %v", err)
	}
	return log.With(zap.String("function", function)), nil
}

// Must is New for use in init, panicking on a bad level
func Must(level, function string) *zap.Logger {
	log, err := New(level, function)
	if err != nil {
		panic(err)
	}
	return log
}
