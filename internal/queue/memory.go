package queue

import (
	"context"
	"log"
	"sync"
	"time"
)

// MemoryDispatcher runs tasks on a pool of worker goroutines with per-task
// retry and doubling backoff. It is the default driver; tasks do not survive a
// process restart, which matches the best-effort contract of everything routed
// through it.
type MemoryDispatcher struct {
	handler     Handler
	tasks       chan Task
	wg          sync.WaitGroup
	maxAttempts int
	backoff     time.Duration

	mu     sync.Mutex
	closed bool
}

// MemoryOptions tune the in-process dispatcher.
type MemoryOptions struct {
	Workers     int
	Buffer      int
	MaxAttempts int
	Backoff     time.Duration
}

// NewMemoryDispatcher starts the worker pool.
func NewMemoryDispatcher(handler Handler, opts MemoryOptions) *MemoryDispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}

	d := &MemoryDispatcher{
		handler:     handler,
		tasks:       make(chan Task, opts.Buffer),
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
	}

	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

// Enqueue submits a task without waiting for execution. When the buffer is
// full the task is dropped and logged rather than blocking the request path.
func (d *MemoryDispatcher) Enqueue(task Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		log.Printf("[Queue] Dispatcher closed, dropping task %s", task.Type)
		return nil
	}

	select {
	case d.tasks <- task:
	default:
		log.Printf("[Queue] Buffer full, dropping task %s", task.Type)
	}
	return nil
}

// Close stops accepting tasks and drains the workers.
func (d *MemoryDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *MemoryDispatcher) worker() {
	defer d.wg.Done()
	for task := range d.tasks {
		d.run(task)
	}
}

func (d *MemoryDispatcher) run(task Task) {
	delay := d.backoff
	for attempt := 1; ; attempt++ {
		err := d.handler(context.Background(), task)
		if err == nil {
			return
		}
		if attempt >= d.maxAttempts {
			log.Printf("[Queue] Task %s failed after %d attempts: %v", task.Type, attempt, err)
			return
		}
		log.Printf("[Queue] Task %s attempt %d failed, retrying in %s: %v", task.Type, attempt, delay, err)
		time.Sleep(delay)
		delay *= 2
	}
}
