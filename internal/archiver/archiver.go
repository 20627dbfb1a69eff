// Package archiver implements the host-facing hook: the mailing-list
// manager invokes it once per delivered email, and it decides whether
// the email becomes a bus notification.
package archiver

import (
	"context"

	"go.uber.org/zap"

	"github.com/listmsg/mailman-bridge/internal/filter"
	"github.com/listmsg/mailman-bridge/internal/metrics"
	"github.com/listmsg/mailman-bridge/internal/model"
	"github.com/listmsg/mailman-bridge/internal/util"
)

// Hook is the archiver entry point. Implementations must never let a
// publishing problem propagate back into mail delivery.
type Hook interface {
	ArchiveMessage(ctx context.Context, event model.ArchiveEvent) error
}

// Sink accepts payloads for asynchronous publishing. Enqueue must not
// block; it reports false when the payload had to be dropped.
type Sink interface {
	Enqueue(payload *model.NotificationPayload) bool
}

// Archiver filters and enriches archive events and hands the surviving
// payloads to the sink. It holds only the immutable config snapshot, so
// concurrent ArchiveMessage calls are safe.
type Archiver struct {
	snap filter.Snapshot
	sink Sink
	log  *zap.Logger
}

func New(snap filter.Snapshot, sink Sink, log *zap.Logger) *Archiver {
	return &Archiver{snap: snap, sink: sink, log: log}
}

// ArchiveMessage evaluates one event. Exclusion and queue overflow are
// normal outcomes, not errors; the returned error is always nil and
// exists to satisfy the host contract.
func (a *Archiver) ArchiveMessage(_ context.Context, event model.ArchiveEvent) error {
	metrics.EventsTotal.WithLabelValues("received").Inc()

	payload, ok := a.snap.BuildPayload(event)
	if !ok {
		metrics.EventsTotal.WithLabelValues("excluded").Inc()
		a.log.Debug("list excluded from publication",
			zap.String("list_id", event.MList.ListID),
			zap.String("message_id", event.MessageID),
		)
		return nil
	}

	payload.ID = util.NewEventID()

	if !a.sink.Enqueue(payload) {
		metrics.EventsTotal.WithLabelValues("dropped").Inc()
		a.log.Warn("publish queue full, dropping notification",
			zap.String("list_id", event.MList.ListID),
			zap.String("message_id", event.MessageID),
		)
	}
	return nil
}

// Permalink returns the archive URL for a message, when an archive base
// URL is configured.
func (a *Archiver) Permalink(listID, messageID string) (string, bool) {
	return a.snap.BuildArchiveURL(listID, messageID)
}
