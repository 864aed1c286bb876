package audit

import (
	"crypto/sha256"
	"encoding/base64"
	"sort"
)

const (
	DefaultFingerprintType = "default"
	GitHubFingerprintType  = "github"
)

// Fingerprinter derives a non-secret identifier from a token.
type Fingerprinter func(token string) string

var fingerprintRegistry = map[string]Fingerprinter{
	DefaultFingerprintType: func(_ string) string {
		return "(n/a)"
	},
	GitHubFingerprintType: calculateGitHubFingerprint,
}

func CalculateFingerprint(fingerprintType, token string) string {
	fn, ok := fingerprintRegistry[fingerprintType]
	if !ok {
		fn = fingerprintRegistry[DefaultFingerprintType]
	}
	return fn(token)
}

func RegisteredFingerprinterTypes() []string {
	types := make([]string, 0, len(fingerprintRegistry))
	for k := range fingerprintRegistry {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// calculateGitHubFingerprint matches the "hashed_token" field of GitHub's audit log.
func calculateGitHubFingerprint(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(hash[:])
}
