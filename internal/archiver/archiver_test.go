package archiver_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/listmsg/mailman-bridge/internal/archiver"
	"github.com/listmsg/mailman-bridge/internal/filter"
	"github.com/listmsg/mailman-bridge/internal/model"
)

type fakeSink struct {
	payloads []*model.NotificationPayload
	full     bool
}

func (s *fakeSink) Enqueue(p *model.NotificationPayload) bool {
	if s.full {
		return false
	}
	s.payloads = append(s.payloads, p)
	return true
}

func newArchiver(sink *fakeSink) *archiver.Archiver {
	snap := filter.New(
		[]string{"bugzilla.lists.fedoraproject.org"},
		[]string{"centos.org"},
		"https://lists.fedoraproject.org/archives/",
	)
	return archiver.New(snap, sink, zap.NewNop())
}

func devEvent(listID string) model.ArchiveEvent {
	return model.ArchiveEvent{
		MList: model.ListInfo{
			ListID:       listID,
			ListName:     "devel",
			FQDNListname: "devel@lists.fedoraproject.org",
		},
		MessageID: "<dummy@host>",
		Sender:    "bob@centos.org",
		Headers: map[string]string{
			"from":       "bob@centos.org",
			"message-id": "<dummy@host>",
			"subject":    "test",
		},
	}
}

func TestArchiveMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("included event is enqueued with an id", func(t *testing.T) {
		sink := &fakeSink{}
		a := newArchiver(sink)

		if err := a.ArchiveMessage(ctx, devEvent("devel.lists.fedoraproject.org")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sink.payloads) != 1 {
			t.Fatalf("expected 1 enqueued payload, got %d", len(sink.payloads))
		}
		p := sink.payloads[0]
		if p.ID == "" {
			t.Fatal("expected an assigned event id")
		}
		if p.SenderUsername != "bob" {
			t.Fatalf("expected sender_username=bob, got %q", p.SenderUsername)
		}
	})

	t.Run("excluded event is swallowed", func(t *testing.T) {
		sink := &fakeSink{}
		a := newArchiver(sink)

		if err := a.ArchiveMessage(ctx, devEvent("bugzilla.lists.fedoraproject.org")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sink.payloads) != 0 {
			t.Fatalf("expected nothing enqueued, got %d", len(sink.payloads))
		}
	})

	t.Run("queue overflow never fails delivery", func(t *testing.T) {
		sink := &fakeSink{full: true}
		a := newArchiver(sink)

		if err := a.ArchiveMessage(ctx, devEvent("devel.lists.fedoraproject.org")); err != nil {
			t.Fatalf("drop must not surface an error, got %v", err)
		}
	})

	t.Run("event ids are unique per invocation", func(t *testing.T) {
		sink := &fakeSink{}
		a := newArchiver(sink)

		ev := devEvent("devel.lists.fedoraproject.org")
		_ = a.ArchiveMessage(ctx, ev)
		_ = a.ArchiveMessage(ctx, ev)
		if len(sink.payloads) != 2 {
			t.Fatalf("expected 2 payloads, got %d", len(sink.payloads))
		}
		if sink.payloads[0].ID == sink.payloads[1].ID {
			t.Fatal("expected distinct event ids")
		}
	})
}

func TestPermalink(t *testing.T) {
	a := newArchiver(&fakeSink{})

	u, ok := a.Permalink("devel.lists.fedoraproject.org", "<abc@host>")
	if !ok {
		t.Fatal("expected a permalink with a base url configured")
	}
	want := "https://lists.fedoraproject.org/archives/list/devel.lists.fedoraproject.org/message/abc@host/"
	if u != want {
		t.Fatalf("got %q want %q", u, want)
	}

	bare := archiver.New(filter.New(nil, nil, ""), &fakeSink{}, zap.NewNop())
	if _, ok := bare.Permalink("devel.lists.fedoraproject.org", "<abc@host>"); ok {
		t.Fatal("expected no permalink without a base url")
	}
}
