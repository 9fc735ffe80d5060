// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration.
type Config struct {
	Level  string
	Format string // "text" or "json"
	// File enables a rotating log file in addition to stderr.
	File      string
	MaxSizeMB int
}

// New returns a logger writing to stderr and, when cfg.File is set, to a
// rotating file.
func New(cfg Config) (*log.Logger, error) {
	return newWithOutput(cfg, os.Stderr)
}

func newWithOutput(cfg Config, stderr io.Writer) (*log.Logger, error) {
	logger := log.New()

	level := log.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = log.ParseLevel(cfg.Level); err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	out := stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		size := cfg.MaxSizeMB
		if size <= 0 {
			size = 10
		}
		out = io.MultiWriter(stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    size, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	logger.SetOutput(out)

	return logger, nil
}
