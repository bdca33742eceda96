package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aatumaykin/anisette/internal/bridge"
	"github.com/aatumaykin/anisette/internal/config"
	"github.com/aatumaykin/anisette/internal/headers"
	"github.com/aatumaykin/anisette/internal/logger"
	"github.com/aatumaykin/anisette/internal/workers"
)

// GenerateOnce produces one header set on a dedicated single-worker pool.
func GenerateOnce(ctx context.Context, cfg *config.Config, log *logger.Logger) (headers.Headers, error) {
	provider, err := BuildProvider(cfg.Provider, log)
	if err != nil {
		return nil, err
	}
	return generateWith(ctx, provider, log)
}

func generateWith(ctx context.Context, provider headers.Provider, log *logger.Logger) (h headers.Headers, err error) {
	pool, err := workers.NewPool(workers.Config{Name: "oneshot", Size: 1}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer func() {
		// Ожидание завершения задачи прерывается вместе с ctx
		if stopErr := pool.Stop(ctx); stopErr != nil && !errors.Is(stopErr, workers.ErrShutdownTimeout) {
			err = errors.Join(err, stopErr)
		}
	}()

	return bridge.Run(ctx, pool, provider.Generate)
}
