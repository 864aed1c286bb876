package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/ghtoken/internal/config"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:     "validate [file]",
	Short:   "Validate the settings file",
	Long:    "Parses the settings file and compiles its policy. Uses --config if no file is given.",
	Example: `  ghtoken config validate ghtoken.yaml`,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := f.ConfigPath
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no settings file given (use --config or pass a path)")
		}

		cfg, err := config.Load(path)
		if err != nil {
			log.Error().Err(err).Msg("Configuration is invalid.")
			return fmt.Errorf("%w: %w", errReported, err)
		}
		log.Info().
			Str("output", cfg.Output.Type).
			Bool("audit", cfg.Audit.Enabled).
			Bool("policy", cfg.Policy.Expr != "" || cfg.Policy.Condition != nil || cfg.Policy.MaxPermissions != nil).
			Msg("Configuration is valid.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
