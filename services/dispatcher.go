package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Task is a unit of best-effort background work. It has no way to report
// back to whoever submitted it.
type Task func(ctx context.Context)

// Executor accepts background tasks without blocking the caller.
type Executor interface {
	Submit(name string, task Task) bool
}

type namedTask struct {
	name string
	run  Task
}

// Dispatcher runs tasks on a fixed pool of workers fed by a bounded queue.
// Submit never blocks: when the queue is full the task is dropped and logged.
type Dispatcher struct {
	deps
	queue   chan namedTask
	timeout time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(workers, queueSize int, timeout time.Duration, opts ...Option) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		deps:    newDeps(opts),
		queue:   make(chan namedTask, queueSize),
		timeout: timeout,
		baseCtx: baseCtx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) Submit(name string, task Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.metrics.IncDispatch("dropped")
		d.logger.Warn("dispatcher closed, task dropped", "task", name)
		return false
	}
	select {
	case d.queue <- namedTask{name: name, run: task}:
		return true
	default:
		d.metrics.IncDispatch("dropped")
		d.logger.Warn("dispatch queue full, task dropped", "task", name, "capacity", cap(d.queue))
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.queue {
		d.run(t)
	}
}

func (d *Dispatcher) run(t namedTask) {
	ctx := d.baseCtx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			d.metrics.IncDispatch("panicked")
			d.logger.Error("dispatch task panicked", "task", t.name, "panic", fmt.Sprint(r))
		}
	}()
	t.run(ctx)
}

// Close stops accepting tasks and waits for queued ones to finish. If ctx
// ends first, running tasks see their context cancelled and Close returns
// ctx's error.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

var _ Executor = (*Dispatcher)(nil)
