package events

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher fans events out to sinks from a bounded worker pool. Events are
// accepted only after the triggering operation has committed, so consumers
// never hear about state that was rolled back. When the queue is full the
// event is dropped with a warning; delivery is best-effort by design.
type Dispatcher struct {
	queue  chan Event
	sinks  []Sink
	logger *slog.Logger
	wg     sync.WaitGroup

	// mu orders sends against the close of queue: Publish holds the read
	// side for the duration of its send, Shutdown takes the write side
	// before closing, so no send can hit a closed channel.
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts workers delivering queued events to every sink.
func NewDispatcher(workers, queueSize int, logger *slog.Logger, sinks ...Sink) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}

	d := &Dispatcher{
		queue:  make(chan Event, queueSize),
		sinks:  sinks,
		logger: logger.With("system", "events"),
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Publish enqueues an event without blocking. Events submitted during
// shutdown or while the queue is full are dropped.
func (d *Dispatcher) Publish(e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("event dropped during shutdown", "kind", e.Kind)
		return
	}

	select {
	case d.queue <- e:
	default:
		d.logger.Warn("event queue full, dropping event", "kind", e.Kind)
	}
}

// Shutdown stops accepting events and waits for queued events to drain.
// Safe to call more than once.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for e := range d.queue {
		for _, sink := range d.sinks {
			if err := sink.Publish(context.Background(), e); err != nil {
				d.logger.Warn("sink publish failed", "kind", e.Kind, "error", err)
			}
		}
	}
}
