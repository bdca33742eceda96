// Package cron runs periodic background jobs on robfig/cron/v3.
// The service uses it to report worker pool statistics on a schedule.
package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aatumaykin/anisette/internal/logger"
	"github.com/robfig/cron/v3"
)

// parser accepts an optional seconds field and descriptors like @every 1m.
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a cron expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	return parser.Parse(spec)
}

// Job is a named function run on a schedule.
type Job struct {
	ID       string
	Schedule string
	Run      func(ctx context.Context)
}

// Scheduler manages periodic jobs.
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.RWMutex

	jobs map[string]cron.EntryID
}

// NewScheduler creates a new cron scheduler instance
func NewScheduler(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
		),
		logger: log,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]cron.EntryID),
	}
}

// AddJob registers a job. It may be called before or after Start.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if job.Run == nil {
		return fmt.Errorf("job %s has no function", job.ID)
	}
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}

	ctx := s.ctx
	entryID, err := s.cron.AddFunc(job.Schedule, func() { job.Run(ctx) })
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	s.jobs[job.ID] = entryID

	s.logger.Info("cron job added",
		logger.Field{Key: "job_id", Value: job.ID},
		logger.Field{Key: "schedule", Value: job.Schedule})
	return nil
}

// RemoveJob unregisters a job by id.
func (s *Scheduler) RemoveJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	s.cron.Remove(entryID)
	delete(s.jobs, id)
	return nil
}

// Jobs returns the registered job ids in sorted order.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Start starts the scheduler in the background.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true
	s.cron.Start()
	s.logger.Info("cron scheduler started",
		logger.Field{Key: "jobs", Value: len(s.jobs)})
	return nil
}

// Stop stops the scheduler and waits for running jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler not started")
	}
	s.started = false
	s.mu.Unlock()

	s.cancel()
	done := s.cron.Stop().Done()

	select {
	case <-done:
		s.logger.Info("cron scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for cron jobs: %w", ctx.Err())
	}
}

// cronLogger adapts *logger.Logger to cron.Logger.
type cronLogger struct {
	l *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, toFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, err, toFields(keysAndValues)...)
}

func toFields(keysAndValues []any) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logger.Field{Key: fmt.Sprint(keysAndValues[i]), Value: keysAndValues[i+1]})
	}
	return fields
}
