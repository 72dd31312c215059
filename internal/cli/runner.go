package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/digipres/fixity/internal/config"
	"github.com/digipres/fixity/internal/notify"
	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/pool"
	"github.com/digipres/fixity/internal/report"
	"github.com/digipres/fixity/internal/store"
)

// runner bundles the per-run plumbing shared by every operation command:
// the report sink in its dated directory, progress output, the summary,
// the run-history row, and the optional email notification.
type runner struct {
	action  outcome.Action
	cfg     config.Run
	sink    *report.Sink
	runID   string
	started time.Time
}

// newRunner creates the dated report directory and the sink for one run.
func newRunner(action outcome.Action, cfg config.Run, summary report.Summary) (*runner, error) {
	started := time.Now()
	dir := report.RunDir(cfg.OutputDir, action, started)
	sink, err := report.NewSink(dir, cfg.CacheSize, summary)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot create report directory", err)
	}
	return &runner{
		action:  action,
		cfg:     cfg,
		sink:    sink,
		runID:   uuid.NewString(),
		started: started,
	}, nil
}

// progress returns a callback that keeps a single updating line on stderr.
func (r *runner) progress() pool.ProgressFunc {
	return func(done, total int) {
		if total == pool.UnknownTotal {
			fmt.Fprintf(os.Stderr, "\rprocessed %d files", done)
		} else {
			fmt.Fprintf(os.Stderr, "\rprocessed %d of %d files", done, total)
		}
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

// finish closes the sink, prints the summary, records the run in the
// history database, and sends the notification if recipients are
// configured. History and notification failures are logged, never fatal:
// the reports on disk are the product of the run.
func (r *runner) finish(cmd *cobra.Command, interrupted bool) error {
	if err := r.sink.Close(); err != nil {
		return WrapExitError(ExitCommandError, "cannot finalise reports", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), r.sink.SummaryText())

	errorsDetected := r.sink.ErrorsDetected() || interrupted
	r.recordHistory(interrupted)
	r.sendNotification(errorsDetected)

	if errorsDetected {
		return NewExitError(ExitFailure, "errors detected, see reports in "+r.sink.Dir())
	}
	return nil
}

func (r *runner) recordHistory(interrupted bool) {
	dbPath := filepath.Join(r.cfg.OutputDir, "fixity.db")
	st, err := store.Open(dbPath)
	if err != nil {
		slog.Warn("cannot open run history database", "path", dbPath, "error", err)
		return
	}
	defer st.Close()

	run := store.Run{
		ID:          r.runID,
		Action:      r.action.Name(),
		PrimaryPath: r.cfg.PrimaryPath,
		ReportDir:   r.sink.Dir(),
		Started:     r.started,
		Finished:    time.Now(),
		Interrupted: interrupted,
	}
	for _, t := range r.sink.Tallies() {
		run.Outcomes = append(run.Outcomes, store.OutcomeCount{
			Kind:  t.Outcome.Name(),
			Count: t.Count,
			Bytes: t.Bytes,
		})
	}
	if err := st.RecordRun(run); err != nil {
		slog.Warn("cannot record run history", "error", err)
	}
}

func (r *runner) sendNotification(errorsDetected bool) {
	if len(r.cfg.Email) == 0 {
		return
	}
	mailer, err := notify.NewMailerFromEnv()
	if err != nil {
		slog.Warn("notification skipped", "error", err)
		return
	}

	host, _ := os.Hostname()
	subject := fmt.Sprintf("%s report for %s", r.action.Title(), host)
	if errorsDetected {
		subject += ": errors detected"
	}

	attachments := r.sink.ExceptionPartitions()
	compress := notify.AttachmentsSize(attachments) > config.DefaultMailSizeLimit
	err = mailer.Notify(subject, r.cfg.Email, r.sink.SummaryText(), attachments, compress)
	if err != nil {
		slog.Warn("cannot send notification", "recipients", r.cfg.Email, "error", err)
		return
	}
	slog.Info("notification sent", "recipients", r.cfg.Email)
}
