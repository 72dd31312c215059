package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/digipres/fixity/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Limit int
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent fixity runs",
		Long: `List recent runs recorded in the history database under the output
directory, newest first, with their outcome tallies.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of runs to show")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	cfg, err := opts.buildRun(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	dbPath := filepath.Join(cfg.OutputDir, "fixity.db")
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot open run history database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot list runs", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, run := range runs {
		status := ""
		if run.Interrupted {
			status = " (interrupted)"
		}
		fmt.Fprintf(out, "%s  %-18s %s%s\n",
			run.Started.Local().Format("2006-01-02 15:04"), run.Action, run.PrimaryPath, status)
		for _, oc := range run.Outcomes {
			if oc.Bytes > 0 {
				fmt.Fprintf(out, "    %s: %d (%d bytes)\n", oc.Kind, oc.Count, oc.Bytes)
			} else {
				fmt.Fprintf(out, "    %s: %d\n", oc.Kind, oc.Count)
			}
		}
		fmt.Fprintf(out, "    reports: %s\n", run.ReportDir)
	}
	return nil
}
