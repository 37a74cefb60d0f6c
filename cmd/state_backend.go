package cmd

import (
	"io"
	"log/slog"

	"worklogsync/config"
	"worklogsync/internal/logging"
	"worklogsync/state"
)

func openStateBackend(cfg *config.Config) (state.Backend, error) {
	return state.Open(cfg.Sync.Store, cfg.Sync.StateDir, cfg.Sync.Prefix)
}

func newCommandLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, io.Closer) {
	return logging.New(logging.Options{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Stderr: stderr,
	})
}
