package github

import (
	"fmt"
	"sort"
	"strings"

	"github.com/darmiel/ghtoken/internal/core"
)

type PermissionLevel int

const (
	LevelNone PermissionLevel = iota
	LevelRead
	LevelWrite
	LevelAdmin
)

func parseLevel(s core.AccessLevel) PermissionLevel {
	switch strings.ToLower(string(s)) {
	case "read", "readonly":
		return LevelRead
	case "write", "readwrite":
		return LevelWrite
	case "admin":
		return LevelAdmin
	default:
		return LevelNone
	}
}

// ParsePermissions parses a permission listing with one "name:level" pair per line.
// Blank lines and lines which do not consist of exactly two non-empty parts separated
// by a colon are skipped. Later duplicates overwrite earlier ones.
// It returns nil if the listing contains no valid pair.
func ParsePermissions(text string) core.PermissionScope {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	scope := make(core.PermissionScope)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		level := strings.TrimSpace(parts[1])
		if name == "" || level == "" {
			continue
		}
		scope[name] = core.AccessLevel(level)
	}

	if len(scope) == 0 {
		return nil
	}
	return scope
}

// FormatPermissions renders a scope as a permission listing accepted by ParsePermissions,
// sorted by permission name.
func FormatPermissions(scope core.PermissionScope) string {
	names := make([]string, 0, len(scope))
	for name := range scope {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(name)
		sb.WriteByte(':')
		sb.WriteString(string(scope[name]))
	}
	return sb.String()
}

// Downscope checks the requested permissions against the allowed permissions.
// If nothing was requested, the allowed permissions are returned.
// It never returns a level higher than requested.
func Downscope(allowed, requested core.PermissionScope) (core.PermissionScope, error) {
	if len(requested) == 0 {
		return allowed.Clone(), nil // no downscoping needed
	}

	final := make(core.PermissionScope)
	for reqKey, reqVal := range requested {
		allowedVal, ok := allowed[reqKey]
		if !ok {
			return nil, fmt.Errorf("permission '%s' is not allowed by policy", reqKey)
		}

		// compare the levels
		reqLevel := parseLevel(reqVal)
		allowedLevel := parseLevel(allowedVal)

		// handle unknown strings - exact match required in that case
		if reqLevel == LevelNone && allowedLevel == LevelNone {
			if reqVal != allowedVal {
				return nil, fmt.Errorf("permission '%s' value mismatch: requested '%s', allowed '%s'",
					reqKey, reqVal, allowedVal)
			}
		} else if reqLevel > allowedLevel {
			// cannot request a level higher than allowed
			return nil, fmt.Errorf("permission '%s' level too high: requested '%s', allowed '%s'",
				reqKey, reqVal, allowedVal)
		}

		final[reqKey] = reqVal
	}

	return final, nil
}
