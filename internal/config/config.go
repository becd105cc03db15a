// Package config loads runtime tunables for the difftrack engine from
// environment variables, following the same load-with-defaults-then-validate
// shape used throughout the broker this package was adapted from.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultMaxReentrantDepth bounds how many nested Dispatcher.Emit frames
	// a re-entrant listener may trigger before the dispatcher aborts (§4.1).
	DefaultMaxReentrantDepth = 10

	// DefaultBoundedPrefixSize is the window size the demo command uses when
	// none is supplied on the command line.
	DefaultBoundedPrefixSize = 32

	// DefaultLogLevel controls verbosity for dispatcher diagnostics.
	DefaultLogLevel = "info"
)

// Config captures the tunables difftrack reads from the environment.
type Config struct {
	MaxReentrantDepth int
	BoundedPrefixSize int
	LogLevel          string
}

// Load reads configuration from environment variables, applying defaults and
// returning a single descriptive error that joins every invalid override.
func Load() (*Config, error) {
	cfg := &Config{
		MaxReentrantDepth: DefaultMaxReentrantDepth,
		BoundedPrefixSize: DefaultBoundedPrefixSize,
		LogLevel:          getString("DIFFTRACK_LOG_LEVEL", DefaultLogLevel),
	}

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("DIFFTRACK_MAX_REENTRANT_DEPTH")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("DIFFTRACK_MAX_REENTRANT_DEPTH must be a positive integer, got %q", raw))
		} else {
			cfg.MaxReentrantDepth = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("DIFFTRACK_BOUNDED_PREFIX_SIZE")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("DIFFTRACK_BOUNDED_PREFIX_SIZE must be a positive integer, got %q", raw))
		} else {
			cfg.BoundedPrefixSize = value
		}
	}

	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
