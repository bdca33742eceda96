package headers

import (
	"context"

	"github.com/aatumaykin/anisette/internal/logger"
	"github.com/aatumaykin/anisette/internal/retry"
)

// RetryingProvider re-invokes a provider on failure with exponential backoff.
type RetryingProvider struct {
	provider Provider
	cfg      retry.Config
	logger   *logger.Logger
}

// WithRetry wraps p. With MaxAttempts <= 1 it returns p unchanged.
func WithRetry(p Provider, cfg retry.Config, log *logger.Logger) Provider {
	if cfg.MaxAttempts <= 1 {
		return p
	}
	return &RetryingProvider{provider: p, cfg: cfg, logger: log}
}

func (r *RetryingProvider) Generate() (Headers, error) {
	// Повторы выполняются внутри задачи воркера, контекст запроса сюда не доходит
	return retry.Do(context.Background(), r.cfg, r.logger, r.provider.Generate)
}
