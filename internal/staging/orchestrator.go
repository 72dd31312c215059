package staging

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/digipres/fixity/internal/config"
	"github.com/digipres/fixity/internal/pool"
	"github.com/digipres/fixity/internal/records"
	"github.com/digipres/fixity/internal/report"
)

// Orchestrator drives staging tasks through the worker pool and applies the
// consecutive-write-failure circuit breaker. The breaker is global across
// all destinations: a burst of write failures usually means a destination
// is down, and continuing would only reproduce the failure.
type Orchestrator struct {
	Config   config.Run
	Sink     *report.Sink
	Progress pool.ProgressFunc
	Log      *slog.Logger

	// Stager is built from Config when nil; tests inject their own.
	Stager *Stager
}

// Run stages every file under the primary path. It returns whether the run
// was interrupted by the circuit breaker; per-task failures are recorded in
// the sink, not returned.
func (o *Orchestrator) Run() (interrupted bool, err error) {
	cfg := o.Config
	log := o.Log
	if log == nil {
		log = slog.Default()
	}
	if info, statErr := os.Stat(cfg.PrimaryPath); statErr != nil || !info.IsDir() {
		return false, &SetupError{Path: cfg.PrimaryPath, Err: statErr}
	}

	layout, err := ResolveLayout(cfg)
	if err != nil {
		return false, err
	}

	stager := o.Stager
	if stager == nil {
		stager = NewStager(cfg.Algorithm, cfg.BlockSize, cfg.RemoveOriginal, log)
	}

	source := records.TreeSource{Root: cfg.PrimaryPath, Recursive: true, Extensions: cfg.Extensions}
	total := pool.UnknownTotal
	if cfg.CountFiles {
		total = source.Count()
	}

	d := pool.Dispatcher[*Task, *Task]{
		Workers: cfg.Processes,
		Work: func(t *Task) *Task {
			stager.Stage(t)
			return t
		},
		Progress: o.Progress,
	}

	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = config.DefaultFailureThreshold
	}

	consecutive := 0
	var sinkErr error
	d.Run(Tasks(cfg, layout), total, func(t *Task) bool {
		if sinkErr == nil {
			if addErr := o.record(t); addErr != nil {
				sinkErr = addErr
			}
		}
		if t.WriteFailed() {
			consecutive++
		} else {
			consecutive = 0
		}
		if consecutive > threshold {
			if !interrupted {
				log.Error("interrupting staging run",
					"consecutive_failures", consecutive, "threshold", threshold)
			}
			interrupted = true
			return false
		}
		return true
	})
	if sinkErr != nil {
		return interrupted, sinkErr
	}
	if interrupted {
		o.Sink.MarkInterrupted()
	}

	if !cfg.KeepEmptyFolders {
		removeEmptyFolders(cfg.PrimaryPath, false)
	}
	return interrupted, nil
}

// record writes the task's classification and per-destination states to the
// sink.
func (o *Orchestrator) record(t *Task) error {
	details := make([]report.Detail, 0, len(t.Destinations))
	for _, d := range t.Destinations {
		value := d.State.Text()
		if d.Detail != "" {
			value += ": " + d.Detail
		}
		details = append(details, report.Detail{Key: d.Root, Value: value})
	}
	return o.Sink.Add(report.Record{
		Outcome: t.Result(),
		Path:    t.Source,
		Size:    report.SizeUnknown,
		Details: details,
	})
}

// SetupError marks a staging run that could not start.
type SetupError struct {
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	return "staging source directory " + e.Path + " not usable"
}

func (e *SetupError) Unwrap() error { return e.Err }

// removeEmptyFolders deletes empty directories beneath path, bottom-up.
// Access errors and non-empty directories are skipped, never propagated.
func removeEmptyFolders(path string, removeRoot bool) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			removeEmptyFolders(filepath.Join(path, entry.Name()), true)
		}
	}
	if !removeRoot {
		return
	}
	entries, err = os.ReadDir(path)
	if err == nil && len(entries) == 0 {
		os.Remove(path)
	}
}
