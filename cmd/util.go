package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

func bold(a ...any) string {
	return color.New(color.Bold).Sprint(a...)
}

func faint(a ...any) string {
	return color.New(color.Faint).Sprint(a...)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// readArgOrStdin returns arg, or the contents of stdin if arg is "-".
func readArgOrStdin(arg string, trim bool) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	log.Debug().Msg("Reading from stdin")
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	if trim {
		return strings.TrimSpace(string(data)), nil
	}
	return string(data), nil
}
