package cli

import (
	"github.com/spf13/cobra"

	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/pipeline"
	"github.com/digipres/fixity/internal/report"
)

// CompareTreesOptions holds flags for the compare-trees command.
type CompareTreesOptions struct {
	*RootOptions
}

// NewCompareTreesCommand creates the compare-trees command.
func NewCompareTreesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareTreesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare-trees <master-tree> <other-tree>...",
		Short: "Compare a master checksum tree against replicas",
		Long: `Compare every sidecar in the master checksum tree against the same
sidecar in each other tree, without touching the data files. No hashing
is performed; only the recorded checksums are compared.

Example:
  fixity compare-trees ./node-a/checksums ./node-b/checksums ./node-c/checksums`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompareTrees(opts, args[0], args[1:], cmd)
		},
	}

	return cmd
}

func runCompareTrees(opts *CompareTreesOptions, master string, others []string, cmd *cobra.Command) error {
	cfg, err := opts.buildRun(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	cfg.PrimaryPath = master
	cfg.OtherPaths = others

	r, err := newRunner(outcome.ActionCompareTrees, cfg, report.Summary{
		Action:      outcome.ActionCompareTrees,
		PrimaryPath: cfg.PrimaryPath,
	})
	if err != nil {
		return err
	}

	p := &pipeline.CompareTrees{Env: pipeline.Env{
		Config:   cfg,
		Sink:     r.sink,
		Progress: r.progress(),
	}}
	if err := p.Run(); err != nil {
		return WrapExitError(ExitCommandError, "checksum tree comparison failed", err)
	}
	return r.finish(cmd, false)
}
