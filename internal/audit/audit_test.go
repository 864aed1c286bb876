package audit

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/darmiel/ghtoken/internal/core"
)

func TestCalculateFingerprint(t *testing.T) {
	got := CalculateFingerprint(GitHubFingerprintType, "ghs_test")
	if got == "" || strings.Contains(got, "ghs_test") {
		t.Fatalf("CalculateFingerprint() = %q", got)
	}
	if again := CalculateFingerprint(GitHubFingerprintType, "ghs_test"); again != got {
		t.Errorf("fingerprint not deterministic: %q != %q", again, got)
	}
	if other := CalculateFingerprint(GitHubFingerprintType, "ghs_other"); other == got {
		t.Errorf("different tokens share fingerprint %q", got)
	}
	if def := CalculateFingerprint("unknown", "ghs_test"); def != "(n/a)" {
		t.Errorf("unknown type fingerprint = %q, want (n/a)", def)
	}
}

func TestFileAuditor_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	auditor, err := NewFileAuditor(path)
	if err != nil {
		t.Fatalf("NewFileAuditor() error = %v", err)
	}

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	entries := []core.AuditEntry{
		{ID: "a", Time: now, Action: "token.issue", Owner: "octocat", Repository: "Hello-World", Granted: true, State: "Done"},
		{ID: "b", Time: now, Action: "token.issue", Owner: "octocat", Repository: "Spoon-Knife", State: "Failed", Kind: "installation not found"},
		{ID: "c", Time: now, Action: "token.issue", Owner: "octocat", Repository: "linguist", Granted: true, State: "Done"},
	}
	for _, e := range entries {
		if err := auditor.Log(e); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}
	if err := auditor.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got, err := ReadFile(path, 2)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !reflect.DeepEqual(got, entries[1:]) {
		t.Errorf("ReadFile() = %+v, want %+v", got, entries[1:])
	}
}

func TestReadFile_Missing(t *testing.T) {
	got, err := ReadFile(filepath.Join(t.TempDir(), "missing.jsonl"), 10)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadFile() = %v, want no entries", got)
	}
}
