package cli

import (
	"github.com/spf13/cobra"

	"github.com/digipres/fixity/internal/outcome"
	"github.com/digipres/fixity/internal/pipeline"
	"github.com/digipres/fixity/internal/report"
)

// ValidateTreeOptions holds flags for the validate-tree command.
type ValidateTreeOptions struct {
	*RootOptions
	Tree      string
	Recursive bool
}

// NewValidateTreeCommand creates the validate-tree command.
func NewValidateTreeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateTreeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate-tree <source-dir>",
		Short: "Validate files against a checksum tree",
		Long: `Recompute the checksum of every file recorded in the checksum tree and
compare it with the stored sidecar value. Files present under the source
directory but absent from the tree are reported as additional.

Example:
  fixity validate-tree --tree ./checksums ./archive`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateTree(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Tree, "tree", "t", "", "checksum tree directory (required)")
	cmd.Flags().BoolVarP(&opts.Recursive, "recursive", "r", true, "descend into subdirectories")
	_ = cmd.MarkFlagRequired("tree")

	return cmd
}

func runValidateTree(opts *ValidateTreeOptions, sourceDir string, cmd *cobra.Command) error {
	cfg, err := opts.buildRun(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	cfg.PrimaryPath = sourceDir
	cfg.TreePath = opts.Tree
	cfg.Recursive = opts.Recursive

	r, err := newRunner(outcome.ActionValidateTree, cfg, report.Summary{
		Action:      outcome.ActionValidateTree,
		PrimaryPath: cfg.PrimaryPath,
		TreePath:    cfg.TreePath,
	})
	if err != nil {
		return err
	}

	p := &pipeline.ValidateTree{Env: pipeline.Env{
		Config:   cfg,
		Sink:     r.sink,
		Progress: r.progress(),
	}}
	if err := p.Run(); err != nil {
		return WrapExitError(ExitCommandError, "checksum tree validation failed", err)
	}
	return r.finish(cmd, false)
}
