package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	input := `
server: https://ghe.example.com
timeout: 15s
output:
  type: octopus
  variable: token
policy:
  expr: 'owner == "octocat"'
  max_permissions:
    contents: write
audit:
  enabled: true
  path: ./audit.jsonl
`
	cfg, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.ServerURL != "https://ghe.example.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %s, want 15s", cfg.Timeout)
	}
	if cfg.Output.Type != OutputOctopus {
		t.Errorf("Output.Type = %q, want octopus", cfg.Output.Type)
	}
	if got := cfg.Output.Config["variable"]; got != "token" {
		t.Errorf("Output.Config[variable] = %v, want token", got)
	}
	if cfg.Policy.MaxPermissions["contents"] != "write" {
		t.Errorf("Policy.MaxPermissions = %v", cfg.Policy.MaxPermissions)
	}
	if !cfg.Audit.Enabled || cfg.Audit.Path != "./audit.jsonl" {
		t.Errorf("Audit = %+v", cfg.Audit)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("audit:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want default 30s", cfg.Timeout)
	}
	if cfg.Output.Type != OutputPlain {
		t.Errorf("Output.Type = %q, want plain", cfg.Output.Type)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"Unknown Output", "output:\n  type: teamcity\n", "unknown output type"},
		{"Negative Timeout", "timeout: -1s\n", "timeout"},
		{"Relative Server", "server: ghe.example.com\n", "absolute URL"},
		{"Broken Policy", "policy:\n  expr: 'owner =='\n", "policy"},
		{"Audit Without Path", "audit:\n  enabled: true\n", "audit.path"},
		{"Empty Permission Ceiling", "policy:\n  max_permissions: {}\n", "max_permissions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghtoken.yaml")
	if err := os.WriteFile(path, []byte("output:\n  type: plain\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Load() of missing file expected error")
	}
}
