package debounce

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the quiet period used when none is given
const DefaultDelay = 500 * time.Millisecond

// Debouncer runs fn for the latest value once input has been quiet for the
// delay. A newer Trigger cancels both the pending timer and the context of
// a call already in flight.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(ctx context.Context, value T)

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

// New creates a debouncer calling fn after delay
func New[T any](delay time.Duration, fn func(ctx context.Context, value T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger schedules fn(value), superseding anything scheduled or running
func (d *Debouncer[T]) Trigger(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.cancelLocked()

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if ctx.Err() != nil || d.stopped {
			d.mu.Unlock()
			return
		}
		d.wg.Add(1)
		d.mu.Unlock()

		defer d.wg.Done()
		d.fn(ctx, value)
	})
}

// Cancel drops the pending call and cancels one in flight
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Stop cancels everything, rejects further triggers and waits for a running call to return
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.cancelLocked()
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Debouncer[T]) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
