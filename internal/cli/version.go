package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the thoughts release version.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/thoughts"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the thoughts version",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "thoughts v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
