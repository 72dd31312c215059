package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/digipres/fixity/internal/hashing"
)

// NewAlgorithmsCommand creates the algorithms command.
func NewAlgorithmsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List supported checksum algorithms",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range hashing.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
