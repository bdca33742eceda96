// Package workers provides a bounded pool of goroutine workers for blocking tasks.
// Tasks are plain closures; results travel out-of-band through whatever handoff
// the submitter captures (see package bridge).
package workers

import (
	"errors"
	"fmt"
	"time"
)

// Task is a unit of blocking work. It is executed exactly once by exactly one worker.
type Task func()

// OverloadPolicy decides what Submit does when a bounded queue is full.
type OverloadPolicy string

const (
	// OverloadBlock makes the submitter wait for free queue space.
	OverloadBlock OverloadPolicy = "block"
	// OverloadReject fails the submission with ErrQueueFull.
	OverloadReject OverloadPolicy = "reject"
)

// Constants for worker pool configuration
const (
	DefaultPoolSize  = 20
	DefaultQueueSize = 0 // unbounded
)

var (
	ErrInvalidPoolSize = errors.New("pool size must be at least 1")
	ErrPoolClosed      = errors.New("worker pool is closed")
	ErrQueueFull       = errors.New("worker pool queue is full")
	ErrShutdownTimeout = errors.New("worker pool shutdown timed out")
	ErrNilTask         = errors.New("nil task")
)

// Config describes the shape of a pool.
type Config struct {
	Name      string         // used in log fields only
	Size      int            // number of workers, >= 1
	QueueSize int            // 0 means unbounded
	Overload  OverloadPolicy // applies when QueueSize > 0

	// Metrics, если задан, получает события пула
	Metrics *PrometheusMetrics
}

// Validate checks the configuration without starting anything.
func (c Config) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPoolSize, c.Size)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("queue size must not be negative: got %d", c.QueueSize)
	}
	switch c.Overload {
	case "", OverloadBlock, OverloadReject:
	default:
		return fmt.Errorf("unknown overload policy %q (expected: block, reject)", c.Overload)
	}
	return nil
}

// PoolMetrics is a point-in-time snapshot of pool counters.
type PoolMetrics struct {
	Workers        int
	TasksSubmitted uint64
	TasksRejected  uint64
	TasksCompleted uint64
	TasksPanicked  uint64
	Active         int64
	Queued         int64
	TotalDuration  time.Duration
}
