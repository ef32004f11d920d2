package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Publish(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) kinds() []Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]Kind, len(s.events))
	for i, e := range s.events {
		kinds[i] = e.Kind
	}
	return kinds
}

type failingSink struct{}

func (failingSink) Publish(ctx context.Context, e Event) error {
	return errors.New("sink unavailable")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_DeliversToAllSinks(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	d := NewDispatcher(2, 16, discardLogger(), first, second)

	d.Publish(Event{Kind: DocumentCreated, OccurredOn: time.Now()})
	d.Publish(Event{Kind: DocumentModified, OccurredOn: time.Now()})
	d.Shutdown()

	for _, sink := range []*captureSink{first, second} {
		if len(sink.events) != 2 {
			t.Errorf("sink received %d events, want 2", len(sink.events))
		}
	}
}

func TestDispatcher_SinkFailureDoesNotStopDelivery(t *testing.T) {
	capture := &captureSink{}
	d := NewDispatcher(1, 16, discardLogger(), failingSink{}, capture)

	d.Publish(Event{Kind: SnapshotCaptured})
	d.Shutdown()

	if got := capture.kinds(); len(got) != 1 || got[0] != SnapshotCaptured {
		t.Errorf("capture sink received %v, want [snapshot.captured]", got)
	}
}

func TestDispatcher_DropsAfterShutdown(t *testing.T) {
	capture := &captureSink{}
	d := NewDispatcher(1, 16, discardLogger(), capture)
	d.Shutdown()

	// Must not panic or block.
	d.Publish(Event{Kind: DocumentCreated})

	if len(capture.events) != 0 {
		t.Errorf("sink received %d events after shutdown, want 0", len(capture.events))
	}
}

func TestDispatcher_PublishDuringShutdownDoesNotPanic(t *testing.T) {
	d := NewDispatcher(2, 4, discardLogger(), &captureSink{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d.Publish(Event{Kind: DocumentModified})
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.Shutdown()
	}()
	wg.Wait()

	// Repeated shutdown is a no-op.
	d.Shutdown()
}
