package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darmiel/ghtoken/internal/audit"
	"github.com/darmiel/ghtoken/internal/core"
)

var auditFile string

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the local audit log",
	Long: `Reads the audit log written by 'issue' if audit.enabled is set in the settings file.
Tokens are never stored, only their fingerprint (see 'ghtoken fingerprint').`,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.PersistentFlags().StringVar(&auditFile, "file", "", "Audit log file (default: audit.path of the settings file)")
}

func readAuditEntries(limit int) ([]core.AuditEntry, error) {
	path := auditFile
	if path == "" {
		cfg, err := f.LoadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Audit.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no audit log configured (use --file or audit.path in the settings file)")
	}
	return audit.ReadFile(path, limit)
}
