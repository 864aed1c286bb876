// Package output implements the reporters an issuance writes status and the token to.
package output

import (
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"

	"github.com/darmiel/ghtoken/internal/config"
	"github.com/darmiel/ghtoken/internal/core"
	"github.com/darmiel/ghtoken/internal/logging"
)

// New builds the reporter selected by cfg.
// Secrets and service messages go to stdout, logger receives status output of the plain reporter.
func New(cfg config.OutputConfig, stdout io.Writer, logger logging.InternalLogger) (core.Reporter, error) {
	switch cfg.Type {
	case config.OutputPlain, "":
		return NewPlainReporter(logger, stdout), nil
	case config.OutputOctopus:
		var conf OctopusConfig
		if err := decode(cfg.Config, &conf); err != nil {
			return nil, fmt.Errorf("decoding octopus output config: %w", err)
		}
		return NewOctopusReporter(stdout, conf), nil
	default:
		return nil, fmt.Errorf("unknown output type %q", cfg.Type)
	}
}

func decode(input map[string]any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   result,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	// the inline map also captures the "type" key
	rest := make(map[string]any, len(input))
	for k, v := range input {
		if k != "type" {
			rest[k] = v
		}
	}
	return decoder.Decode(rest)
}
