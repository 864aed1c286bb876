package cmd

import (
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/ghtoken/internal/core"
	"github.com/darmiel/ghtoken/internal/policy"
	"github.com/darmiel/ghtoken/internal/providers/github"
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions [listing]",
	Short: "Show how a permission listing is parsed",
	Long: `Parses a permission listing the same way 'issue' does and applies the
permission ceiling of the settings file. No request is sent to GitHub.

Lines which are not exactly one "name:level" pair are ignored.
If no listing is given, GITHUB_PERMISSIONS is used. Use "-" to read from stdin.`,
	Example: `  ghtoken permissions $'contents:write\npull_requests:read'
  cat permissions.txt | ghtoken permissions -`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		listing := viper.GetString(PermissionsKey)
		if len(args) > 0 {
			var err error
			if listing, err = readArgOrStdin(args[0], false); err != nil {
				return err
			}
		}

		cfg, err := f.LoadConfig()
		if err != nil {
			return err
		}
		p, err := policy.Compile(cfg.Policy)
		if err != nil {
			return err
		}

		requested := github.ParsePermissions(listing)
		effective, err := p.Limit(requested)
		if err != nil {
			return err
		}

		if requested == nil {
			log.Info().Msg("No permissions requested, the token gets all permissions of the installation")
		}
		if effective == nil {
			return nil
		}

		renderPermissions(requested, effective, p.Ceiling())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(permissionsCmd)
}

func renderPermissions(requested, effective, ceiling core.PermissionScope) {
	names := make([]string, 0, len(effective))
	for name := range effective {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Permission", "Requested", "Maximum", "Effective"})

	for _, name := range names {
		req := faint("(ceiling)")
		if level, ok := requested[name]; ok {
			req = string(level)
		}
		maximum := faint("(none)")
		if level, ok := ceiling[name]; ok {
			maximum = string(level)
		}
		t.AppendRow(table.Row{
			bold(name),
			req,
			maximum,
			color.GreenString(string(effective[name])),
		})
	}

	s := table.StyleRounded
	s.Format.Header = text.FormatDefault
	t.SetStyle(s)
	t.Render()
}
