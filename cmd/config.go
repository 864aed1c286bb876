package cmd

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Interact with the settings file",
	Long:  `Utilities for validating the ghtoken settings file`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
