// Package cli wires the folio commands.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "folio",
	Short:         "Portfolio site backend for call booking and contact messages",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config.yaml (default $FOLIO_CONFIG_PATH or configs/config.yaml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
