package workers

import (
	"sync/atomic"
	"time"
)

const (
	statusCompleted = "completed"
	statusPanicked  = "panicked"
	statusRejected  = "rejected"
)

// poolCounters holds the live counters behind Metrics.
type poolCounters struct {
	submitted atomic.Uint64
	rejected  atomic.Uint64
	completed atomic.Uint64
	panicked  atomic.Uint64
	active    atomic.Int64
	queued    atomic.Int64
	duration  atomic.Int64
}

func (c *poolCounters) finish(status string, d time.Duration) {
	if status == statusPanicked {
		c.panicked.Add(1)
	} else {
		c.completed.Add(1)
	}
	c.duration.Add(int64(d))
}

// Metrics returns the current pool metrics.
func (p *Pool) Metrics() PoolMetrics {
	return PoolMetrics{
		Workers:        p.cfg.Size,
		TasksSubmitted: p.metrics.submitted.Load(),
		TasksRejected:  p.metrics.rejected.Load(),
		TasksCompleted: p.metrics.completed.Load(),
		TasksPanicked:  p.metrics.panicked.Load(),
		Active:         p.metrics.active.Load(),
		Queued:         p.metrics.queued.Load(),
		TotalDuration:  time.Duration(p.metrics.duration.Load()),
	}
}

func (p *Pool) accept() {
	p.metrics.submitted.Add(1)
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.submitted.Inc()
		p.cfg.Metrics.queued.Set(float64(p.metrics.queued.Load()))
	}
}

func (p *Pool) reject() {
	p.metrics.rejected.Add(1)
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.tasksTotal.WithLabelValues(statusRejected).Inc()
	}
}

func (p *Pool) observeActive() {
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.SetCounts(p.metrics.active.Load(), p.metrics.queued.Load())
	}
}
