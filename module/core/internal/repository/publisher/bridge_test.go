package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
)

type published struct {
	subjectID    string
	geofenceName string
	event        domain.GeofenceEvent
}

type mockPublisher struct {
	publishFn func(ctx context.Context, subjectID, geofenceName string, event domain.GeofenceEvent) error
}

func (m *mockPublisher) PublishEvent(ctx context.Context, subjectID, geofenceName string, event domain.GeofenceEvent) error {
	if m.publishFn != nil {
		return m.publishFn(ctx, subjectID, geofenceName, event)
	}
	return nil
}

func TestBridge_PublishesEnqueuedEvents(t *testing.T) {
	out := make(chan published, 2)
	pub := &mockPublisher{publishFn: func(_ context.Context, subjectID, geofenceName string, event domain.GeofenceEvent) error {
		out <- published{subjectID, geofenceName, event}
		return nil
	}}

	b := NewBridge(pub, "walker-1", func(id string) string {
		if id == "hq" {
			return "Head Office"
		}
		return ""
	})
	defer b.Close()

	b.Enqueue(domain.GeofenceEvent{Type: domain.GeofenceEnter, GeofenceID: "hq", Timestamp: 1})
	b.Enqueue(domain.GeofenceEvent{Type: domain.GeofenceExit, GeofenceID: "gone", Timestamp: 2})

	first := waitPublished(t, out)
	if first.subjectID != "walker-1" || first.geofenceName != "Head Office" {
		t.Errorf("unexpected first publish: %+v", first)
	}
	if first.event.Type != domain.GeofenceEnter {
		t.Errorf("expected enter first, got %s", first.event.Type)
	}

	second := waitPublished(t, out)
	if second.geofenceName != "" {
		t.Errorf("expected empty name for an unknown fence, got %q", second.geofenceName)
	}
	if second.event.Type != domain.GeofenceExit {
		t.Errorf("expected exit second, got %s", second.event.Type)
	}
}

func TestBridge_PublishFailureOnlyLogs(t *testing.T) {
	out := make(chan published, 2)
	pub := &mockPublisher{publishFn: func(_ context.Context, subjectID, geofenceName string, event domain.GeofenceEvent) error {
		out <- published{subjectID, geofenceName, event}
		return errors.New("broker down")
	}}

	b := NewBridge(pub, "walker-1", nil)
	defer b.Close()

	b.Enqueue(domain.GeofenceEvent{Type: domain.GeofenceEnter, GeofenceID: "a"})
	b.Enqueue(domain.GeofenceEvent{Type: domain.GeofenceExit, GeofenceID: "a"})

	waitPublished(t, out)
	if got := waitPublished(t, out); got.event.Type != domain.GeofenceExit {
		t.Fatalf("a failed publish must not stop the queue, got %s", got.event.Type)
	}
}

func TestBridge_CloseDrainsQueue(t *testing.T) {
	out := make(chan published, 8)
	pub := &mockPublisher{publishFn: func(_ context.Context, subjectID, geofenceName string, event domain.GeofenceEvent) error {
		out <- published{subjectID, geofenceName, event}
		return nil
	}}

	b := NewBridge(pub, "walker-1", nil)
	for i := int64(1); i <= 5; i++ {
		b.Enqueue(domain.GeofenceEvent{Type: domain.GeofenceEnter, GeofenceID: "a", Timestamp: i})
	}
	b.Close()

	if len(out) != 5 {
		t.Fatalf("expected all queued events published before Close returns, got %d", len(out))
	}
}

func TestBridge_EnqueueAfterCloseIsNoop(t *testing.T) {
	count := 0
	pub := &mockPublisher{publishFn: func(context.Context, string, string, domain.GeofenceEvent) error {
		count++
		return nil
	}}

	b := NewBridge(pub, "walker-1", nil)
	b.Close()
	b.Enqueue(domain.GeofenceEvent{Type: domain.GeofenceEnter, GeofenceID: "a"})
	b.Close()

	if count != 0 {
		t.Fatalf("expected no publishes after close, got %d", count)
	}
}

func waitPublished(t *testing.T, out chan published) published {
	t.Helper()
	select {
	case p := <-out:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a publish")
		return published{}
	}
}
