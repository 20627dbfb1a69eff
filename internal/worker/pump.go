// Package worker drains queued notification payloads to the bus so the
// archiver hook never blocks on broker round-trips.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/listmsg/mailman-bridge/internal/metrics"
	"github.com/listmsg/mailman-bridge/internal/model"
	"github.com/listmsg/mailman-bridge/internal/publisher"
)

// Pump fans queued payloads out to a pool of publishing goroutines.
type Pump struct {
	pub   publisher.Publisher
	log   *zap.Logger
	queue chan *model.NotificationPayload

	Workers int
}

func NewPump(pub publisher.Publisher, log *zap.Logger, queueSize, workers int) *Pump {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if workers <= 0 {
		workers = 4
	}
	return &Pump{
		pub:     pub,
		log:     log,
		queue:   make(chan *model.NotificationPayload, queueSize),
		Workers: workers,
	}
}

// Enqueue hands a payload to the pump without blocking. False means the
// queue is full and the payload was dropped.
func (p *Pump) Enqueue(payload *model.NotificationPayload) bool {
	select {
	case p.queue <- payload:
		return true
	default:
		return false
	}
}

// Run starts the worker pool and blocks until ctx is cancelled. Queued
// payloads still in flight when ctx ends are abandoned; the bridge is
// at-most-once by design.
func (p *Pump) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < p.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.runWorker(ctx)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

func (p *Pump) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-p.queue:
			p.publishOne(ctx, payload)
		}
	}
}

func (p *Pump) publishOne(ctx context.Context, payload *model.NotificationPayload) {
	start := time.Now()
	err := p.pub.Publish(ctx, payload)
	metrics.PublishSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.EventsTotal.WithLabelValues("publish_failed").Inc()
		p.log.Error("giving up on notification",
			zap.String("id", payload.ID),
			zap.String("list_id", payload.MList.ListID),
			zap.Error(err),
		)
		return
	}

	metrics.EventsTotal.WithLabelValues("published").Inc()
	p.log.Debug("notification published",
		zap.String("id", payload.ID),
		zap.String("list_id", payload.MList.ListID),
	)
}
