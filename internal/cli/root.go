// Package cli wires the fixity subcommands. Each command file follows the
// same shape: an Options struct embedding *RootOptions, a NewXxxCommand
// constructor that registers flags, and an unexported run function holding
// the logic.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/digipres/fixity/internal/config"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Processes    int
	Output       string
	CacheSize    int
	CountFiles   bool
	AbsolutePath bool
	Email        []string
	ConfigFile   string
	Verbose      bool
}

// NewRootCommand creates the root command for the fixity CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fixity",
		Short: "Fixity - checksum creation, validation and staging for digital preservation",
		Long: `Fixity creates, validates and compares checksum trees and manifests
for file collections, and stages files to multiple destinations with
checksum verification.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel := slog.LevelInfo
			if opts.Verbose {
				logLevel = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			slog.SetDefault(slog.New(handler))
		},
	}

	defaults := config.Defaults()
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().IntVarP(&opts.Processes, "processes", "p", defaults.Processes, "number of worker goroutines")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", defaults.OutputDir, "root directory for reports")
	cmd.PersistentFlags().IntVar(&opts.CacheSize, "cache-size", defaults.CacheSize, "results cached in memory before flushing to report files")
	cmd.PersistentFlags().BoolVar(&opts.CountFiles, "count-files", defaults.CountFiles, "count files up front for progress reporting")
	cmd.PersistentFlags().BoolVar(&opts.AbsolutePath, "absolute-path", false, "report absolute paths instead of portable placeholder paths")
	cmd.PersistentFlags().StringSliceVar(&opts.Email, "email", nil, "email addresses to notify when the run completes")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML file with installation defaults")

	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewValidateTreeCommand(opts))
	cmd.AddCommand(NewValidateManifestCommand(opts))
	cmd.AddCommand(NewCompareTreesCommand(opts))
	cmd.AddCommand(NewCompareManifestsCommand(opts))
	cmd.AddCommand(NewStageCommand(opts))
	cmd.AddCommand(NewAlgorithmsCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

// buildRun assembles the run configuration: built-in defaults, then the
// optional YAML file, then any flag the user set explicitly.
func (o *RootOptions) buildRun(cmd *cobra.Command) (config.Run, error) {
	cfg := config.Defaults()
	if o.ConfigFile != "" {
		var err error
		cfg, err = config.LoadFile(o.ConfigFile, cfg)
		if err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("processes") {
		cfg.Processes = o.Processes
	}
	if flags.Changed("output") {
		cfg.OutputDir = o.Output
	}
	if flags.Changed("cache-size") {
		cfg.CacheSize = o.CacheSize
	}
	if flags.Changed("count-files") {
		cfg.CountFiles = o.CountFiles
	}
	if flags.Changed("email") {
		cfg.Email = o.Email
	}
	cfg.AbsolutePath = o.AbsolutePath
	return cfg, nil
}
