package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/darmiel/ghtoken/internal/policy"
)

// Config is the optional settings file. Credentials are never read from it.
type Config struct {
	// ServerURL is the GitHub Enterprise server URL.
	// For GitHub.com, this can be left empty.
	ServerURL string `yaml:"server"`

	// Timeout limits every HTTP request to GitHub. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`

	Output OutputConfig   `yaml:"output"`
	Policy policy.Options `yaml:"policy"`
	Audit  AuditConfig    `yaml:"audit"`
}

// OutputConfig selects where status messages and the token go.
type OutputConfig struct {
	Type   string         `yaml:"type"`    // e.g., "plain", "octopus"
	Config map[string]any `yaml:",inline"` // Capture remaining fields
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

const (
	OutputPlain   = "plain"
	OutputOctopus = "octopus"
)

// OutputTypes are the output types understood by the output registry.
var OutputTypes = []string{OutputPlain, OutputOctopus}

// Default returns the settings used if no file is given.
func Default() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Output:  OutputConfig{Type: OutputPlain},
	}
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML settings. Unset fields keep their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server must be an absolute URL, got '%s'", c.ServerURL)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.Output.Type == "" {
		c.Output.Type = OutputPlain
	}
	if !slices.Contains(OutputTypes, c.Output.Type) {
		return fmt.Errorf("unknown output type '%s'", c.Output.Type)
	}
	if _, err := policy.Compile(c.Policy); err != nil {
		return fmt.Errorf("validating policy: %w", err)
	}
	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("audit.path is required if audit is enabled")
	}
	return nil
}
