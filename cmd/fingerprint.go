package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/darmiel/ghtoken/internal/audit"
)

var (
	fingerprintType string
	fingerprintRaw  bool
)

var fingerprintCmd = &cobra.Command{
	Use:     "fingerprint [token]",
	Aliases: []string{"fp"},
	Short:   `Calculate the fingerprint of a token`,
	Long: `Calculates the fingerprint of an installation access token.
This is the value stored in the audit log in the 'token_fingerprint' field.

Algorithms:
- github:  SHA256 -> Base64 (matches the 'hashed_token' field of GitHub's audit log)
- default: (no fingerprint)`,
	Example: `  # Calculate the fingerprint of a token
  ghtoken fingerprint ghs_123456...

  # Calculate the fingerprint of a token from stdin
  ghtoken issue ... | ghtoken fingerprint -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := readArgOrStdin(args[0], true)
		if err != nil {
			return err
		}
		if token == "" {
			return fmt.Errorf("token cannot be empty")
		}

		fp := audit.CalculateFingerprint(fingerprintType, token)

		if fingerprintRaw {
			fmt.Println(fp)
		} else {
			fmt.Println("Type:       ", fingerprintType)
			fmt.Println("Fingerprint:", fp)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)

	fingerprintCmd.Flags().StringVar(&fingerprintType, "type", audit.GitHubFingerprintType,
		fmt.Sprintf("Fingerprint type (one of: %s)", strings.Join(audit.RegisteredFingerprinterTypes(), ", ")))
	fingerprintCmd.Flags().BoolVarP(&fingerprintRaw, "raw", "r", false,
		"Output only the fingerprint value without additional text")
}
