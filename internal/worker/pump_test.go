package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/listmsg/mailman-bridge/internal/model"
	"github.com/listmsg/mailman-bridge/internal/worker"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []*model.NotificationPayload
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, p *model.NotificationPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, p)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func payload(id string) *model.NotificationPayload {
	return &model.NotificationPayload{
		ID:    id,
		MList: model.ListInfo{ListID: "devel.lists.example.com"},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestPump(t *testing.T) {
	t.Run("drains queued payloads to the publisher", func(t *testing.T) {
		pub := &fakePublisher{}
		p := worker.NewPump(pub, zap.NewNop(), 16, 2)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() { _ = p.Run(ctx); close(done) }()

		for i := 0; i < 5; i++ {
			if !p.Enqueue(payload("id")) {
				t.Fatal("enqueue unexpectedly refused")
			}
		}
		waitFor(t, func() bool { return pub.count() == 5 })

		cancel()
		<-done
	})

	t.Run("enqueue refuses when the queue is full", func(t *testing.T) {
		// no running workers, so the buffer fills up
		p := worker.NewPump(&fakePublisher{}, zap.NewNop(), 2, 1)

		if !p.Enqueue(payload("a")) || !p.Enqueue(payload("b")) {
			t.Fatal("expected the first two enqueues to fit")
		}
		if p.Enqueue(payload("c")) {
			t.Fatal("expected refusal on a full queue")
		}
	})

	t.Run("publisher failure does not stop the pump", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("broker down")}
		p := worker.NewPump(pub, zap.NewNop(), 16, 1)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() { _ = p.Run(ctx); close(done) }()

		p.Enqueue(payload("x"))
		time.Sleep(50 * time.Millisecond) // let the failing publish happen

		// recover and confirm the worker is still alive
		pub.mu.Lock()
		pub.err = nil
		pub.mu.Unlock()
		p.Enqueue(payload("y"))
		waitFor(t, func() bool { return pub.count() == 1 })

		cancel()
		<-done
	})
}
