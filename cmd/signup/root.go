package main

import (
	"signup/config"

	"github.com/spf13/cobra"
)

// configDir is the directory holding config.yaml.
var configDir string

// NewRootCmd creates the root command of the signup CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "signup",
		Short:        "User registration service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configDir, "config", "", "directory containing config.yaml")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

func loadConfig() (*config.Config, error) {
	if configDir != "" {
		return config.Load(configDir)
	}

	return config.New()
}
