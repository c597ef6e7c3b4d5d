package main

import (
	"github.com/spf13/cobra"

	"github.com/azargarov/jobqueue/internal/config"
)

const cliExecutable = "jobqueue"

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Bounded job queue with priority aging and expiry",
	}
	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newSimulateCommand(&configFile))
	return cmd
}
