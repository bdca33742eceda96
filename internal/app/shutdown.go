package app

import (
	"context"
	"fmt"

	"github.com/aatumaykin/anisette/internal/logger"
)

// Shutdown drains the worker pool. Queued and in-flight header generations
// finish before it returns, unless ctx ends first.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	pool := a.pool
	a.mu.Unlock()

	if pool == nil {
		return nil
	}

	a.logger.Info("shutting down application")
	if err := pool.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop worker pool: %w", err)
	}

	m := pool.Metrics()
	a.logger.Info("application stopped",
		logger.Field{Key: "tasks_completed", Value: m.TasksCompleted},
		logger.Field{Key: "tasks_panicked", Value: m.TasksPanicked})
	return nil
}
