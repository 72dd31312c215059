package cli

import (
	"github.com/spf13/cobra"

	"github.com/digipres/fixity/internal/hashing"
	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/pipeline"
	"github.com/digipres/fixity/internal/report"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Tree       string
	Manifest   string
	Algorithm  string
	Recursive  bool
	Extensions []string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <source-dir>",
		Short: "Create checksum sidecars for new files",
		Long: `Create checksum sidecar files for every file under the source directory
that does not already have one in the checksum tree. Optionally append
each new checksum to a manifest file.

Example:
  fixity create --tree ./checksums ./archive
  fixity create --tree ./checksums --manifest ./manifest.sha256 -a sha512 ./archive`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Tree, "tree", "t", "", "checksum tree directory (required)")
	cmd.Flags().StringVarP(&opts.Manifest, "manifest", "m", "", "manifest file to append new checksums to")
	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", "", "checksum algorithm")
	cmd.Flags().BoolVarP(&opts.Recursive, "recursive", "r", true, "descend into subdirectories")
	cmd.Flags().StringSliceVarP(&opts.Extensions, "extensions", "e", nil, "only process files with these extensions")
	_ = cmd.MarkFlagRequired("tree")

	return cmd
}

func runCreate(opts *CreateOptions, sourceDir string, cmd *cobra.Command) error {
	cfg, err := opts.buildRun(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	cfg.PrimaryPath = sourceDir
	cfg.TreePath = opts.Tree
	cfg.ManifestPath = opts.Manifest
	cfg.Recursive = opts.Recursive
	cfg.Extensions = opts.Extensions
	if opts.Algorithm != "" {
		cfg.Algorithm = opts.Algorithm
	}
	if !hashing.Supported(cfg.Algorithm) {
		return NewExitError(ExitCommandError, "unsupported algorithm "+cfg.Algorithm)
	}

	r, err := newRunner(outcome.ActionCreate, cfg, report.Summary{
		Action:      outcome.ActionCreate,
		PrimaryPath: cfg.PrimaryPath,
		TreePath:    cfg.TreePath,
		Formats:     cfg.Extensions,
	})
	if err != nil {
		return err
	}

	p := &pipeline.Create{Env: pipeline.Env{
		Config:   cfg,
		Sink:     r.sink,
		Progress: r.progress(),
	}}
	if err := p.Run(); err != nil {
		return WrapExitError(ExitCommandError, "checksum creation failed", err)
	}
	return r.finish(cmd, false)
}
