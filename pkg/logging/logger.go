// Package logging builds the process logger and scrubs sensitive values
// before they reach it.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New constructs the root logger. env "local" and "dev" get the
// human-readable development encoder; everything else logs structured
// JSON at the given level.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "local" || env == "dev" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		cfg.Level = parsed
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
