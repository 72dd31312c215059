package cli

import (
	"github.com/spf13/cobra"

	"github.com/digipres/fixity/internal/hashing"
	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/pipeline"
	"github.com/digipres/fixity/internal/report"
)

// ValidateManifestOptions holds flags for the validate-manifest command.
type ValidateManifestOptions struct {
	*RootOptions
	Manifest  string
	Algorithm string
}

// NewValidateManifestCommand creates the validate-manifest command.
func NewValidateManifestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateManifestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate-manifest <source-dir>",
		Short: "Validate files against a manifest",
		Long: `Recompute the checksum of every file listed in the manifest and compare
it with the recorded value. Files present under the source directory but
absent from the manifest are reported as additional.

Example:
  fixity validate-manifest --manifest ./manifest.sha256 ./archive`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateManifest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Manifest, "manifest", "m", "", "manifest file (required)")
	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", "", "checksum algorithm the manifest was written with")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func runValidateManifest(opts *ValidateManifestOptions, sourceDir string, cmd *cobra.Command) error {
	cfg, err := opts.buildRun(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	cfg.PrimaryPath = sourceDir
	cfg.ManifestPath = opts.Manifest
	if opts.Algorithm != "" {
		cfg.Algorithm = opts.Algorithm
	}
	if !hashing.Supported(cfg.Algorithm) {
		return NewExitError(ExitCommandError, "unsupported algorithm "+cfg.Algorithm)
	}

	r, err := newRunner(outcome.ActionValidateManifest, cfg, report.Summary{
		Action:       outcome.ActionValidateManifest,
		PrimaryPath:  cfg.PrimaryPath,
		ManifestPath: cfg.ManifestPath,
	})
	if err != nil {
		return err
	}

	p := &pipeline.ValidateManifest{Env: pipeline.Env{
		Config:   cfg,
		Sink:     r.sink,
		Progress: r.progress(),
	}}
	if err := p.Run(); err != nil {
		return WrapExitError(ExitCommandError, "manifest validation failed", err)
	}
	return r.finish(cmd, false)
}
