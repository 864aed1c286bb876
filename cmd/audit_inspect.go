package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var auditInspectCmd = &cobra.Command{
	Use:     "inspect CORRELATION-ID",
	Short:   "Show full details of a specific audit log entry",
	Example: `  ghtoken audit inspect d0ak3kqnu9pc73b3dbq0`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		correlationID := args[0]
		if correlationID == "" {
			return fmt.Errorf("correlation ID cannot be empty")
		}

		entries, err := readAuditEntries(0)
		if err != nil {
			return err
		}

		idx := -1
		for i, e := range entries {
			if e.ID == correlationID {
				idx = i
			}
		}
		if idx < 0 {
			log.Warn().Str("correlation_id", correlationID).Msg("no audit log entries found")
			return nil
		}
		entry := entries[idx]

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		printKV := func(key string, val any) {
			fmt.Printf("  %-26s %v\n", faint(key)+":", val)
		}

		printMap := func(m map[string]any) {
			if len(m) == 0 {
				fmt.Printf("       %s\n", faint("(none)"))
				return
			}
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				fmt.Printf("       %-22s %v\n", faint(k)+":", m[k])
			}
		}

		status := green("granted")
		if !entry.Granted {
			status = red("denied")
		}

		fmt.Println(bold("\n── Audit Entry ──"))
		printKV("Correlation ID", entry.ID)
		printKV("Time", entry.Time.Local().Format(time.RFC1123))
		printKV("Action", entry.Action)
		printKV("Decision", status)
		printKV("Final State", entry.State)

		fmt.Println(bold("\n── Request ──"))
		printKV("App ID", entry.AppID)
		printKV("Repository", entry.Owner+"/"+entry.Repository)
		if entry.InstallationID != 0 {
			printKV("Installation", entry.InstallationID)
		} else {
			printKV("Installation", faint("(not resolved)"))
		}
		if len(entry.RequestedPermissions) > 0 {
			printKV("Permissions", "")
			requested := make(map[string]any, len(entry.RequestedPermissions))
			for k, v := range entry.RequestedPermissions {
				requested[k] = v
			}
			printMap(requested)
		} else {
			printKV("Permissions", faint("(all of the installation)"))
		}
		if entry.Error != "" {
			printKV("Error Class", red(entry.Kind))
			printKV("Error Message", red(entry.Error))
		}

		fmt.Println(bold("\n── Status Messages ──"))
		if len(entry.Messages) == 0 {
			fmt.Printf("  %s\n", faint("(none)"))
		}
		for _, msg := range entry.Messages {
			fmt.Printf("  %s\n", msg)
		}

		fmt.Println(bold("\n── Output ──"))
		if entry.TokenFingerprint != "" {
			printKV("Fingerprint", entry.TokenFingerprint)
		} else {
			printKV("Fingerprint", faint("(none)"))
		}
		printKV("Metadata", "")
		printMap(entry.Metadata)
		fmt.Println()

		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditInspectCmd)
}
