package main

import (
	"github.com/spf13/cobra"

	"tasklist/internal/config"
)

// NewRootCmd creates the todoapi command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "todoapi",
		Short:         "Per-user todo list API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
