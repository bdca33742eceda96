package cron

import (
	"context"
	"sync"

	"github.com/aatumaykin/anisette/internal/logger"
	"github.com/aatumaykin/anisette/internal/workers"
)

// StatsJobID identifies the pool statistics job.
const StatsJobID = "pool-stats"

// StatsSource is anything that can report pool metrics.
type StatsSource interface {
	Metrics() workers.PoolMetrics
}

// StatsReporter logs pool metrics and the change since the previous report.
type StatsReporter struct {
	source StatsSource
	logger *logger.Logger

	mu   sync.Mutex
	last workers.PoolMetrics
}

func NewStatsReporter(source StatsSource, log *logger.Logger) *StatsReporter {
	if log == nil {
		log = logger.Nop()
	}
	return &StatsReporter{source: source, logger: log}
}

// Job returns a scheduler job that calls Report on schedule.
func (r *StatsReporter) Job(schedule string) Job {
	return Job{
		ID:       StatsJobID,
		Schedule: schedule,
		Run:      func(ctx context.Context) { r.Report(ctx) },
	}
}

// Report logs one statistics line and returns the snapshot it logged.
func (r *StatsReporter) Report(ctx context.Context) workers.PoolMetrics {
	m := r.source.Metrics()

	r.mu.Lock()
	prev := r.last
	r.last = m
	r.mu.Unlock()

	r.logger.InfoCtx(ctx, "pool stats",
		logger.Field{Key: "workers", Value: m.Workers},
		logger.Field{Key: "active", Value: m.Active},
		logger.Field{Key: "queued", Value: m.Queued},
		logger.Field{Key: "tasks_submitted", Value: m.TasksSubmitted},
		logger.Field{Key: "tasks_completed", Value: m.TasksCompleted},
		logger.Field{Key: "tasks_panicked", Value: m.TasksPanicked},
		logger.Field{Key: "tasks_rejected", Value: m.TasksRejected},
		logger.Field{Key: "completed_since_last", Value: m.TasksCompleted - prev.TasksCompleted})
	return m
}
