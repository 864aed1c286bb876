package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/darmiel/ghtoken/internal/issuance"
)

const (
	AppIDKey       = "app_id"
	PrivateKeyKey  = "private_key"
	OwnerKey       = "owner"
	RepoKey        = "repo"
	PermissionsKey = "permissions"
	OutputKey      = "output"
	SecretNameKey  = "secret_name"
	ServerKey      = "server"
)

// errReported marks errors which were already written to the selected output.
var errReported = errors.New("error already reported")

// issueInput is one required or optional input of the issue command.
// Precedence: flag > environment variable > positional argument.
type issueInput struct {
	key      string
	flag     string
	env      string
	usage    string
	required bool
}

var issueInputs = []issueInput{
	{AppIDKey, "app-id", "GITHUB_APP_ID", "GitHub App ID (or client ID)", true},
	{PrivateKeyKey, "private-key", "GITHUB_PRIVATE_KEY", "PEM private key of the App, or a path to it", true},
	{OwnerKey, "owner", "GITHUB_REPOSITORY_OWNER", "Owner of the repository", true},
	{RepoKey, "repo", "GITHUB_REPOSITORY_NAME", "Name of the repository the token is restricted to", true},
	{PermissionsKey, "permissions", "GITHUB_PERMISSIONS", "Newline separated name:level pairs to down-scope the token", false},
}

var issueCmd = &cobra.Command{
	Use:   "issue [app-id] [private-key] [owner] [repo] [permissions]",
	Short: "Create an installation access token for a single repository",
	Long: `Signs an app assertion with the private key, looks up the installation of the App
on the repository and exchanges the assertion for an installation access token.

The token is restricted to the given repository. If permissions are given, it is
additionally restricted to them. The token is written to the selected output only:
  plain:   a single line on stdout
  octopus: a sensitive Octopus Deploy output variable

Every input can be passed as flag, environment variable or positional argument.`,
	Example: `  # Using environment variables
  export GITHUB_APP_ID=123456 GITHUB_PRIVATE_KEY=./app.pem
  GITHUB_TOKEN=$(ghtoken issue --owner octocat --repo Hello-World)

  # Down-scoped token as Octopus output variable
  ghtoken issue 123456 ./app.pem octocat Hello-World $'contents:read\npull_requests:write' --output octopus`,
	Args: cobra.MaximumNArgs(len(issueInputs)),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := resolveIssueInputs(args)
		if err != nil {
			return err
		}

		cfg, err := f.LoadConfig()
		if err != nil {
			return err
		}
		if output := viper.GetString(OutputKey); output != "" {
			cfg.Output.Type = output
		}
		if server := viper.GetString(ServerKey); server != "" {
			cfg.ServerURL = server
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		reporter, err := f.Reporter(cfg, os.Stdout)
		if err != nil {
			return err
		}

		auditor, err := f.Auditor(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := auditor.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close auditor")
			}
		}()

		orchestrator, err := f.Orchestrator(cfg, auditor)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		_, err = orchestrator.Issue(ctx, issuance.Request{
			AppID:       values[AppIDKey],
			PrivateKey:  values[PrivateKeyKey],
			Owner:       values[OwnerKey],
			Repository:  values[RepoKey],
			Permissions: values[PermissionsKey],
			SecretName:  viper.GetString(SecretNameKey),
			Reporter:    reporter,
		})
		if err != nil {
			reporter.Error("Error creating installation access token: %s", err)
			return fmt.Errorf("%w: %w", errReported, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(issueCmd)

	bindIssueInputs(issueCmd.Flags())

	issueCmd.Flags().StringP("output", "o", "", "Output type (plain, octopus), overrides the settings file")
	_ = viper.BindPFlag(OutputKey, issueCmd.Flags().Lookup("output"))

	issueCmd.Flags().String("secret-name", issuance.DefaultSecretName, "Name of the output variable holding the token")
	_ = viper.BindPFlag(SecretNameKey, issueCmd.Flags().Lookup("secret-name"))

	issueCmd.Flags().String("server", "", "GitHub Enterprise server URL, overrides the settings file")
	_ = viper.BindPFlag(ServerKey, issueCmd.Flags().Lookup("server"))
}

func bindIssueInputs(flags *pflag.FlagSet) {
	for _, in := range issueInputs {
		flags.String(in.flag, "", fmt.Sprintf("%s (env: %s)", in.usage, in.env))
		_ = viper.BindPFlag(in.key, flags.Lookup(in.flag))
		_ = viper.BindEnv(in.key, in.env)
	}
}

// resolveIssueInputs collects all inputs. Missing required inputs fail before anything else happens.
func resolveIssueInputs(args []string) (map[string]string, error) {
	values := make(map[string]string, len(issueInputs))
	var missing []string

	for i, in := range issueInputs {
		value := viper.GetString(in.key)
		if value == "" && i < len(args) {
			value = args[i]
		}
		if value == "" && in.required {
			missing = append(missing, fmt.Sprintf("--%s / %s / argument %d", in.flag, in.env, i+1))
			continue
		}
		values[in.key] = value
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required input(s): %s", strings.Join(missing, ", "))
	}
	return values, nil
}
