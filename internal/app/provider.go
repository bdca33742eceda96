package app

import (
	"fmt"

	"github.com/aatumaykin/anisette/internal/config"
	"github.com/aatumaykin/anisette/internal/headers"
	"github.com/aatumaykin/anisette/internal/logger"
	"github.com/aatumaykin/anisette/internal/retry"
)

// BuildProvider creates the configured header provider, wrapped with
// retries and output validation.
func BuildProvider(cfg config.ProviderConfig, log *logger.Logger) (headers.Provider, error) {
	var base headers.Provider

	switch cfg.Type {
	case "command":
		if cfg.Command == "" {
			return nil, fmt.Errorf("provider.command is required")
		}
		base = headers.NewCommandProvider(headers.CommandConfig{
			Path:    cfg.Command,
			Args:    cfg.Args,
			Env:     cfg.Env,
			Timeout: cfg.Timeout(),
		}, log)
	case "static":
		base = headers.NewStaticProvider(cfg.Headers)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}

	base = headers.WithRetry(base, retry.Config{
		MaxAttempts:    cfg.RetryAttempts,
		InitialBackoff: cfg.RetryBackoff(),
	}, log)

	return headers.WithValidation(base), nil
}
