package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/ghtoken/internal/buildinfo"
	"github.com/darmiel/ghtoken/internal/logging"
)

const ConfigKey = "config"

var f = NewFactory()

var rootCmd = &cobra.Command{
	Use:   "ghtoken",
	Short: fmt.Sprintf("GitHub App installation token issuer (version: %s, commit: %s)", buildinfo.Version, buildinfo.CommitHash),
	Long: `ghtoken exchanges a GitHub App private key for a short-lived installation
access token restricted to exactly one repository and, optionally, to a set of permissions.`,
	Version: buildinfo.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(nil)
		if viper.GetBool(logging.NoColorKey) {
			color.NoColor = true
		}
		f.ConfigPath = viper.GetString(ConfigKey)
		if f.ConfigPath != "" {
			log.Debug().Msgf("using config file: %s", f.ConfigPath)
		}
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		// errors of an issuance have already been written to the selected output
		if !errors.Is(err, errReported) {
			log.Error().Err(err).Msg("execution failed")
		}
		os.Exit(1)
	}
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag(logging.LevelKey, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	_ = viper.BindPFlag(logging.FormatKey, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output")
	_ = viper.BindPFlag(logging.NoColorKey, rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.PersistentFlags().StringP("config", "c", "", "Settings file (output, policy, audit, server)")
	_ = viper.BindPFlag(ConfigKey, rootCmd.PersistentFlags().Lookup("config"))

	viper.SetEnvPrefix("GHTOKEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))

	viper.AutomaticEnv()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}
