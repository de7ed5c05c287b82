package cli

import (
	"github.com/andrei-cloud/go_rki/internal/commands/cli/server"
	"github.com/spf13/cobra"
)

// RegisterCommands registers all subcommands.
func RegisterCommands(root *cobra.Command) error {
	root.AddCommand(newInspectCommand())
	root.AddCommand(server.NewServeCommand())

	return nil
}
