package workers

import (
	"context"
	"sync"

	"github.com/aatumaykin/anisette/internal/logger"
)

// Pool runs submitted tasks on a fixed number of goroutine workers.
// It is safe for concurrent use and is meant to be shared by handle.
type Pool struct {
	cfg Config

	// tasks is what workers range over. In unbounded mode it is fed by
	// the backlog goroutine from intake; otherwise submitters write to it.
	tasks  chan Task
	intake chan Task

	mu       sync.RWMutex
	closed   bool
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	wg      sync.WaitGroup
	logger  *logger.Logger
	metrics *poolCounters
}

// NewPool creates a pool and starts its workers.
func NewPool(cfg Config, log *logger.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Overload == "" {
		cfg.Overload = OverloadBlock
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Name != "" {
		log = log.With(logger.Field{Key: "pool", Value: cfg.Name})
	}

	p := &Pool{
		cfg:     cfg,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		logger:  log,
		metrics: &poolCounters{},
	}

	if cfg.QueueSize == 0 {
		p.tasks = make(chan Task)
		p.intake = make(chan Task)
		go p.backlog()
	} else {
		p.tasks = make(chan Task, cfg.QueueSize)
	}

	p.logger.Info("starting worker pool",
		logger.Field{Key: "workers", Value: cfg.Size},
		logger.Field{Key: "queue_size", Value: cfg.QueueSize},
		logger.Field{Key: "overload", Value: string(cfg.Overload)})

	for i := 0; i < cfg.Size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go func() {
		p.wg.Wait()
		close(p.done)
	}()

	return p, nil
}

// Submit enqueues a task for execution. It never waits for the task to run.
// With a bounded queue and OverloadBlock it waits for queue space until the
// pool is stopped; use SubmitWithContext to bound that wait.
func (p *Pool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext is Submit with a bound on the time spent waiting for
// queue space. The context does not reach the task itself.
func (p *Pool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return ErrNilTask
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.reject()
		return ErrPoolClosed
	}

	// Счётчик очереди увеличивается до отправки: воркер может забрать задачу сразу
	p.metrics.queued.Add(1)

	if p.intake != nil {
		p.intake <- task
		p.accept()
		return nil
	}

	if p.cfg.Overload == OverloadReject {
		select {
		case p.tasks <- task:
			p.accept()
			return nil
		default:
			p.metrics.queued.Add(-1)
			p.reject()
			return ErrQueueFull
		}
	}

	select {
	case p.tasks <- task:
		p.accept()
		return nil
	case <-p.quit:
		p.metrics.queued.Add(-1)
		p.reject()
		return ErrPoolClosed
	case <-ctx.Done():
		p.metrics.queued.Add(-1)
		p.reject()
		return ctx.Err()
	}
}

// Stop refuses further submissions, lets queued and in-flight tasks finish
// and releases the workers. It returns ErrShutdownTimeout if ctx ends first;
// workers keep draining in the background in that case. Safe to call more than once.
func (p *Pool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.logger.Info("stopping worker pool",
			logger.Field{Key: "queued", Value: p.metrics.queued.Load()},
			logger.Field{Key: "active", Value: p.metrics.active.Load()})

		// quit закрывается до захвата блокировки, чтобы освободить ожидающих отправителей
		close(p.quit)

		p.mu.Lock()
		p.closed = true
		if p.intake != nil {
			close(p.intake)
		} else {
			close(p.tasks)
		}
		p.mu.Unlock()
	})

	select {
	case <-p.done:
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out",
			logger.Field{Key: "queued", Value: p.metrics.queued.Load()},
			logger.Field{Key: "active", Value: p.metrics.active.Load()})
		return ErrShutdownTimeout
	}

	m := p.Metrics()
	p.logger.Info("worker pool stopped",
		logger.Field{Key: "tasks_submitted", Value: m.TasksSubmitted},
		logger.Field{Key: "tasks_completed", Value: m.TasksCompleted},
		logger.Field{Key: "tasks_panicked", Value: m.TasksPanicked},
		logger.Field{Key: "tasks_rejected", Value: m.TasksRejected})
	return nil
}

// Done is closed once every worker has exited.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.cfg.Size
}

// QueueSize returns the current number of tasks waiting for a worker.
func (p *Pool) QueueSize() int {
	return int(p.metrics.queued.Load())
}

// backlog keeps an unbounded FIFO between intake and the workers.
func (p *Pool) backlog() {
	defer close(p.tasks)

	var queue []Task
	for {
		var out chan Task
		var head Task
		if len(queue) > 0 {
			out = p.tasks
			head = queue[0]
		}

		select {
		case task, ok := <-p.intake:
			if !ok {
				for _, t := range queue {
					p.tasks <- t
				}
				return
			}
			queue = append(queue, task)
		case out <- head:
			queue[0] = nil
			queue = queue[1:]
		}
	}
}
