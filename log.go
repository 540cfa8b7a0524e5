package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
)

type logConfig struct {
	File  string `env:"JTALK_LOGFILE"`
	Level string `env:"JTALK_LOGLEVEL" envDefault:"debug"`
}

// setupLog sends logs to JTALK_LOGFILE when it is set. Otherwise only
// warnings and errors reach stderr; --debug lowers the level later on.
func setupLog() (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)

	cfg, err := env.ParseAs[logConfig]()
	if err != nil {
		return nil, fmt.Errorf("unable to parse log environment: %w", err)
	}
	if cfg.File == "" {
		return func() error { return nil }, nil
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid JTALK_LOGLEVEL: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}

	log.SetOutput(f)
	log.SetLevel(level)
	log.SetReportTimestamp(true)
	return f.Close, nil
}
