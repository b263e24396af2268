package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"progression-engine/logger"
)

// Job is a unit of best-effort background work.
type Job func(ctx context.Context) error

type task struct {
	name string
	job  Job
}

// Dispatcher runs jobs on a fixed pool of goroutines fed by a bounded queue.
// Submit never blocks the caller: when the queue is full the job is dropped.
type Dispatcher struct {
	queue      chan task
	workers    int
	jobTimeout time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup
	running sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewDispatcher(workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		queue:      make(chan task, queueSize),
		workers:    workers,
		jobTimeout: 30 * time.Second,
	}
}

// Start launches the workers. Jobs run with a context derived from ctx.
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)
	logger.Info().Int("workers", d.workers).Int("queue", cap(d.queue)).Msg("🔁 Starting background dispatcher")
	for i := 0; i < d.workers; i++ {
		d.running.Add(1)
		go d.run(i)
	}
}

func (d *Dispatcher) run(id int) {
	defer d.running.Done()
	for t := range d.queue {
		d.execute(id, t)
	}
}

func (d *Dispatcher) execute(id int, t task) {
	defer d.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("job", t.name).Int("worker", id).Interface("panic", r).Msg("⚠️ Background job panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(d.ctx, d.jobTimeout)
	defer cancel()
	if err := t.job(ctx); err != nil {
		logger.Warn().Err(err).Str("job", t.name).Int("worker", id).Msg("⚠️ Background job failed")
	}
}

// Submit queues job and reports whether it was accepted.
func (d *Dispatcher) Submit(name string, job func(ctx context.Context) error) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		logger.Warn().Str("job", name).Msg("Dispatcher stopped, dropping job")
		return false
	}

	d.pending.Add(1)
	select {
	case d.queue <- task{name: name, job: job}:
		return true
	default:
		d.pending.Done()
		logger.Warn().Str("job", name).Msg("⚠️ Background queue full, dropping job")
		return false
	}
}

// Wait blocks until every accepted job has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Stop stops accepting jobs, drains the queue and waits for the workers,
// giving up when ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.release()
		logger.Info().Msg("🛑 Background dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.release()
		return fmt.Errorf("stopping dispatcher: %w", ctx.Err())
	}
}

func (d *Dispatcher) release() {
	if d.cancel != nil {
		d.cancel()
	}
}
