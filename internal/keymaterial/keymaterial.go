// Package keymaterial normalizes and validates GitHub App private keys before they are used.
package keymaterial

import (
	"fmt"
	"os"
	"strings"

	"github.com/darmiel/ghtoken/internal/core"
)

const (
	beginMarker      = "BEGIN"
	privateKeyMarker = "PRIVATE KEY"
)

// Load resolves the key input. If input names an existing regular file, the file contents
// are returned and fromFile is true. Otherwise, input is treated as the literal key.
func Load(input string) (content string, fromFile bool, err error) {
	if input == "" || strings.Contains(input, "\n") {
		return input, false, nil
	}
	// any stat error (not found, name too long, ...) means the input is not a path
	info, err := os.Stat(input)
	if err != nil || !info.Mode().IsRegular() {
		return input, false, nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return "", false, fmt.Errorf("reading private key file '%s': %w", input, err)
	}
	return string(data), true, nil
}

// Validate checks that content looks like a PEM private key.
// This is a structural check only, the key is parsed when the assertion is signed.
func Validate(content string) error {
	if !strings.Contains(content, beginMarker) || !strings.Contains(content, privateKeyMarker) {
		return core.NewError(core.ErrInvalidKeyFormat, nil,
			"Invalid private key format. Expected a PEM-formatted private key.")
	}
	return nil
}
