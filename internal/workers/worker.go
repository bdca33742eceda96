package workers

import (
	"fmt"
	"time"

	"github.com/aatumaykin/anisette/internal/logger"
)

// worker is the main worker goroutine. It exits once the task channel is
// closed and drained.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("worker started",
		logger.Field{Key: "worker_id", Value: id})

	for task := range p.tasks {
		p.metrics.queued.Add(-1)
		p.runTask(id, task)
	}

	p.logger.Debug("worker stopping",
		logger.Field{Key: "worker_id", Value: id})
}

// runTask executes a single task with panic recovery and metrics.
func (p *Pool) runTask(workerID int, task Task) {
	startTime := time.Now()
	p.metrics.active.Add(1)
	p.observeActive()

	status := statusCompleted
	defer func() {
		if r := recover(); r != nil {
			status = statusPanicked
			p.logger.Error("worker panic recovered",
				fmt.Errorf("panic: %v", r),
				logger.Field{Key: "worker_id", Value: workerID})
		}

		duration := time.Since(startTime)
		p.metrics.active.Add(-1)
		p.metrics.finish(status, duration)
		p.observeActive()
		if p.cfg.Metrics != nil {
			p.cfg.Metrics.RecordTask(status, duration)
		}
	}()

	task()
}
