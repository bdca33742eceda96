// Package bridge adapts a blocking function into a one-shot future that is
// driven by polling and resumed by a wake callback.
//
// A Bridge moves through three states. The first Poll submits the blocking
// function to a worker pool and reports pending. The worker writes the outcome
// into a single-slot channel, closes it and calls the waker. The next Poll
// picks the outcome up and completes the bridge. Await runs that loop for
// callers that only need the value.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aatumaykin/anisette/internal/workers"
)

var (
	// ErrResultChannelBroken means the worker finished without delivering a value.
	ErrResultChannelBroken = errors.New("result channel closed before a value was sent")
	// ErrBridgeConsumed means the bridge already completed or was abandoned.
	ErrBridgeConsumed = errors.New("bridge already consumed")
)

// State is the lifecycle stage of a Bridge.
type State int32

const (
	NotStarted State = iota
	Started
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Started:
		return "started"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Submitter accepts tasks for execution. *workers.Pool satisfies it.
type Submitter interface {
	Submit(task workers.Task) error
}

// ContextSubmitter is implemented by pools whose submission may wait for queue space.
type ContextSubmitter interface {
	SubmitWithContext(ctx context.Context, task workers.Task) error
}

// Waker is called once, from the worker, after the outcome is in the slot.
type Waker func()

type outcome[T any] struct {
	value T
	err   error
}

// Bridge is a one-shot future over a blocking function. It is owned by a
// single caller and must not be reused.
type Bridge[T any] struct {
	mu    sync.Mutex
	pool  Submitter
	fn    func() (T, error)
	state State
	slot  chan outcome[T]
}

// New returns a bridge in the NotStarted state. Nothing is submitted until the first Poll.
func New[T any](pool Submitter, fn func() (T, error)) *Bridge[T] {
	return &Bridge[T]{
		pool:  pool,
		fn:    fn,
		state: NotStarted,
	}
}

// Run creates a bridge for fn and awaits it.
func Run[T any](ctx context.Context, pool Submitter, fn func() (T, error)) (T, error) {
	return New(pool, fn).Await(ctx)
}

// State returns the current state.
func (b *Bridge[T]) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Poll advances the bridge. It reports ready=false while the outcome is not
// yet available; then the caller should wait for wake. Spurious polls are safe.
// Once ready is true the returned value and error are final, and every later
// Poll reports ErrBridgeConsumed.
func (b *Bridge[T]) Poll(wake Waker) (T, bool, error) {
	return b.poll(context.Background(), wake)
}

// Await drives the bridge to completion. If ctx ends first the bridge is
// abandoned: the submitted function still runs to completion on its worker
// and its outcome is dropped.
func (b *Bridge[T]) Await(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	signal := make(chan struct{}, 1)
	wake := func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	}

	for {
		value, ready, err := b.poll(ctx, wake)
		if ready {
			return value, err
		}

		select {
		case <-signal:
		case <-ctx.Done():
			b.abandon()
			return zero, ctx.Err()
		}
	}
}

func (b *Bridge[T]) poll(ctx context.Context, wake Waker) (T, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	switch b.state {
	case NotStarted:
		if err := b.start(ctx, wake); err != nil {
			b.state = Completed
			return zero, true, err
		}
		b.state = Started
		return zero, false, nil

	case Started:
		select {
		case out, ok := <-b.slot:
			b.state = Completed
			b.slot = nil
			if !ok {
				return zero, true, ErrResultChannelBroken
			}
			return out.value, true, out.err
		default:
			return zero, false, nil
		}

	default:
		return zero, true, ErrBridgeConsumed
	}
}

// start submits the one task this bridge will ever submit.
func (b *Bridge[T]) start(ctx context.Context, wake Waker) error {
	slot := make(chan outcome[T], 1)
	fn := b.fn

	task := func() {
		// Закрытие и пробуждение выполняются и при панике fn
		defer func() {
			close(slot)
			if wake != nil {
				wake()
			}
		}()

		value, err := fn()
		slot <- outcome[T]{value: value, err: err}
	}

	var err error
	if cs, ok := b.pool.(ContextSubmitter); ok {
		err = cs.SubmitWithContext(ctx, task)
	} else {
		err = b.pool.Submit(task)
	}
	if err != nil {
		return fmt.Errorf("submit blocking task: %w", err)
	}

	b.slot = slot
	return nil
}

func (b *Bridge[T]) abandon() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Completed
	b.slot = nil
}
