package cmd

import (
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/ghtoken/internal/audit"
	"github.com/darmiel/ghtoken/internal/config"
	"github.com/darmiel/ghtoken/internal/core"
	"github.com/darmiel/ghtoken/internal/issuance"
	"github.com/darmiel/ghtoken/internal/logging"
	"github.com/darmiel/ghtoken/internal/output"
	"github.com/darmiel/ghtoken/internal/policy"
	"github.com/darmiel/ghtoken/internal/providers/github"
)

// Factory builds the components of a command from the settings file and flags.
type Factory struct {
	// ConfigPath is the optional settings file. Empty means defaults.
	ConfigPath string
}

func NewFactory() *Factory {
	return &Factory{}
}

// LoadConfig loads the settings file, or returns the defaults if none is configured.
func (f *Factory) LoadConfig() (*config.Config, error) {
	if f.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(f.ConfigPath)
}

// Reporter builds the reporter selected by cfg. Status logs go to stderr, secrets to stdout.
func (f *Factory) Reporter(cfg *config.Config, stdout io.Writer) (core.Reporter, error) {
	return output.New(cfg.Output, stdout, logging.NewZLogger(log.Logger))
}

// Auditor opens the auditor selected by cfg. The caller must close it.
func (f *Factory) Auditor(cfg *config.Config) (core.Auditor, error) {
	if !cfg.Audit.Enabled {
		return audit.NewNoopAuditor(), nil
	}
	return audit.NewFileAuditor(cfg.Audit.Path)
}

// Orchestrator wires signer, GitHub client factory, policy and auditor.
func (f *Factory) Orchestrator(cfg *config.Config, auditor core.Auditor) (*issuance.Orchestrator, error) {
	p, err := policy.Compile(cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("compiling policy: %w", err)
	}

	platform := github.Factory(github.ClientOptions{
		ServerURL:  cfg.ServerURL,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})

	return issuance.New(
		github.NewSigner(),
		platform,
		issuance.WithPolicy(p),
		issuance.WithAuditor(auditor),
	), nil
}
