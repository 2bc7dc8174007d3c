package publisher

import (
	"context"
	"log"
	"sync"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
)

const bridgeQueueSize = 256

// Bridge connects the engine's synchronous event listeners to an
// EventPublisher. Enqueue is cheap and never blocks: events go into a
// bounded queue and a single goroutine publishes them in order, so a
// slow or down broker costs dropped notifications, never stalled
// location processing.
type Bridge struct {
	pub       EventPublisher
	subjectID string
	nameOf    func(geofenceID string) string

	mu     sync.Mutex
	closed bool
	queue  chan domain.GeofenceEvent
	done   chan struct{}
}

// NewBridge starts the forwarding goroutine. nameOf resolves a geofence
// id to its display name at publish time; it may return "" for a fence
// that no longer exists and must be safe to call from the bridge's
// goroutine.
func NewBridge(pub EventPublisher, subjectID string, nameOf func(geofenceID string) string) *Bridge {
	b := &Bridge{
		pub:       pub,
		subjectID: subjectID,
		nameOf:    nameOf,
		queue:     make(chan domain.GeofenceEvent, bridgeQueueSize),
		done:      make(chan struct{}),
	}
	go b.run()
	return b
}

// Enqueue accepts one event for publishing. It is shaped to be passed
// to the engine's Subscribe. When the queue is full the event is
// dropped and logged; after Close it is a no-op.
func (b *Bridge) Enqueue(event domain.GeofenceEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.queue <- event:
	default:
		log.Printf("event bridge: queue full, dropping %s for %s", event.Type, event.GeofenceID)
	}
}

// Close stops accepting events, publishes what is already queued, and
// waits for the forwarding goroutine to finish. Safe to call more than
// once.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	<-b.done
}

func (b *Bridge) run() {
	defer close(b.done)
	for event := range b.queue {
		name := ""
		if b.nameOf != nil {
			name = b.nameOf(event.GeofenceID)
		}
		if err := b.pub.PublishEvent(context.Background(), b.subjectID, name, event); err != nil {
			log.Printf("event bridge: publish %s for %s failed: %v", event.Type, event.GeofenceID, err)
		}
	}
}
