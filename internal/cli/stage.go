package cli

import (
	"github.com/spf13/cobra"

	"github.com/digipres/fixity/internal/hashing"
	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/report"
	"github.com/digipres/fixity/internal/staging"
)

// StageOptions holds flags for the stage command.
type StageOptions struct {
	*RootOptions
	Destinations     []string
	Trees            []string
	Manifests        []string
	Algorithm        string
	Extensions       []string
	FailureThreshold int
	KeepOriginal     bool
	KeepEmptyFolders bool
}

// NewStageCommand creates the stage command.
func NewStageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stage <source-dir>",
		Short: "Stage files to destinations with checksum verification",
		Long: `Copy every file under the source directory to each destination, writing
a checksum sidecar next to each copy and verifying the copies by
recomputing their checksums. A file is staged only when every destination
succeeds; partial copies are rolled back. Staged originals are removed
unless --keep-original is given.

The run stops early when the number of consecutive write failures
exceeds the threshold, since a failing destination would only keep
failing.

Example:
  fixity stage --dest /mnt/node-a --dest /mnt/node-b ./intake
  fixity stage --dest /mnt/a/files --tree /mnt/a/checksums --manifest /mnt/a/manifest.sha256 ./intake`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Destinations, "dest", "d", nil, "destination root, repeatable (required)")
	cmd.Flags().StringSliceVarP(&opts.Trees, "tree", "t", nil, "checksum tree per destination, repeatable")
	cmd.Flags().StringSliceVarP(&opts.Manifests, "manifest", "m", nil, "manifest file per destination, repeatable")
	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", "", "checksum algorithm")
	cmd.Flags().StringSliceVarP(&opts.Extensions, "extensions", "e", nil, "only stage files with these extensions")
	cmd.Flags().IntVar(&opts.FailureThreshold, "failure-threshold", 0, "consecutive write failures before the run is interrupted")
	cmd.Flags().BoolVar(&opts.KeepOriginal, "keep-original", false, "keep source files after successful staging")
	cmd.Flags().BoolVar(&opts.KeepEmptyFolders, "keep-empty-folders", false, "keep source directories emptied by staging")
	_ = cmd.MarkFlagRequired("dest")

	return cmd
}

func runStage(opts *StageOptions, sourceDir string, cmd *cobra.Command) error {
	cfg, err := opts.buildRun(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	cfg.PrimaryPath = sourceDir
	cfg.DestinationRoots = opts.Destinations
	cfg.StagingTrees = opts.Trees
	cfg.StagingManifests = opts.Manifests
	cfg.Extensions = opts.Extensions
	cfg.KeepEmptyFolders = opts.KeepEmptyFolders
	if opts.Algorithm != "" {
		cfg.Algorithm = opts.Algorithm
	}
	if opts.FailureThreshold > 0 {
		cfg.FailureThreshold = opts.FailureThreshold
	}
	if opts.KeepOriginal {
		cfg.RemoveOriginal = false
	}
	if !hashing.Supported(cfg.Algorithm) {
		return NewExitError(ExitCommandError, "unsupported algorithm "+cfg.Algorithm)
	}
	if _, err := staging.ResolveLayout(cfg); err != nil {
		return WrapExitError(ExitCommandError, "invalid staging layout", err)
	}

	r, err := newRunner(outcome.ActionStageFiles, cfg, report.Summary{
		Action:      outcome.ActionStageFiles,
		PrimaryPath: cfg.PrimaryPath,
	})
	if err != nil {
		return err
	}

	o := &staging.Orchestrator{
		Config:   cfg,
		Sink:     r.sink,
		Progress: r.progress(),
	}
	interrupted, err := o.Run()
	if err != nil {
		return WrapExitError(ExitCommandError, "staging failed", err)
	}
	return r.finish(cmd, interrupted)
}
