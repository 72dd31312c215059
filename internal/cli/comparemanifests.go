package cli

import (
	"github.com/spf13/cobra"

	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/pipeline"
	"github.com/digipres/fixity/internal/report"
)

// CompareManifestsOptions holds flags for the compare-manifests command.
type CompareManifestsOptions struct {
	*RootOptions
}

// NewCompareManifestsCommand creates the compare-manifests command.
func NewCompareManifestsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareManifestsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare-manifests <master-manifest> <other-manifest>...",
		Short: "Compare a master manifest against replicas",
		Long: `Compare every entry in the master manifest against each other manifest,
without touching the data files. An entry matches when the other manifest
contains a line for the same path with the same checksum.

Example:
  fixity compare-manifests ./node-a.sha256 ./node-b.sha256`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompareManifests(opts, args[0], args[1:], cmd)
		},
	}

	return cmd
}

func runCompareManifests(opts *CompareManifestsOptions, master string, others []string, cmd *cobra.Command) error {
	cfg, err := opts.buildRun(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	cfg.PrimaryPath = master
	cfg.OtherPaths = others

	r, err := newRunner(outcome.ActionCompareManifests, cfg, report.Summary{
		Action:      outcome.ActionCompareManifests,
		PrimaryPath: cfg.PrimaryPath,
	})
	if err != nil {
		return err
	}

	p := &pipeline.CompareManifests{Env: pipeline.Env{
		Config:   cfg,
		Sink:     r.sink,
		Progress: r.progress(),
	}}
	if err := p.Run(); err != nil {
		return WrapExitError(ExitCommandError, "manifest comparison failed", err)
	}
	return r.finish(cmd, false)
}
