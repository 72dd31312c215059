// Package pipeline implements the five fixity operations over checksum
// trees and manifests: creation, manifest validation, tree validation, tree
// comparison, and manifest comparison. Each pipeline composes a record
// source, the digest computer, and a comparison rule, drains through the
// worker pool, and records outcomes in the report sink. Per-record failures
// become outcome values; only setup problems (missing inputs) return errors.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/digipres/fixity/internal/config"
	"github.com/digipres/fixity/internal/pool"
	"github.com/digipres/fixity/internal/report"
)

// Env carries the shared collaborators every pipeline needs.
type Env struct {
	Config   config.Run
	Sink     *report.Sink
	Progress pool.ProgressFunc
	Log      *slog.Logger
}

func (e Env) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

// requireDir fails fast when a configured directory is absent. Setup errors
// abort before any task is dispatched.
func requireDir(path, what string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s %s not found: %w", what, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s %s is not a directory", what, path)
	}
	return nil
}

func requireFile(path, what string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s %s not found: %w", what, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s %s is a directory", what, path)
	}
	return nil
}
