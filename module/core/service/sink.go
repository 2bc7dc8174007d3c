package service

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/repository/store"
)

// ListenerFunc receives each recorded event synchronously, in emission
// order. Listeners run on the engine's processing path: they must return
// quickly and must not call back into the engine.
type ListenerFunc func(domain.GeofenceEvent)

// EventSink keeps a bounded sliding window of emitted events and fans
// each one out to subscribed listeners. Once the window is full the
// oldest entry is evicted. The window is a recent-history view for
// queries, not a durable audit trail; each event is also handed to the
// store on a goroutine, best-effort.
type EventSink struct {
	store    store.Store
	capacity int

	mu        sync.RWMutex
	events    []domain.GeofenceEvent
	listeners map[string]ListenerFunc
}

func NewEventSink(st store.Store, capacity int) *EventSink {
	if capacity <= 0 {
		capacity = DefaultEventLogCapacity
	}
	return &EventSink{
		store:     st,
		capacity:  capacity,
		events:    make([]domain.GeofenceEvent, 0, capacity),
		listeners: make(map[string]ListenerFunc),
	}
}

// Record appends event to the window, schedules the store append, and
// notifies every listener. A panicking listener is logged and skipped;
// the remaining listeners still run. Listeners are invoked outside the
// sink's own lock, so a listener may subscribe, unsubscribe or query
// the sink without deadlocking.
func (s *EventSink) Record(event domain.GeofenceEvent) {
	s.mu.Lock()
	if len(s.events) >= s.capacity {
		s.events = s.events[1:]
	}
	s.events = append(s.events, event)
	listeners := make([]ListenerFunc, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	s.persistAsync(event)

	for _, fn := range listeners {
		notify(fn, event)
	}
}

// Subscribe registers fn and returns an opaque token for Unsubscribe.
func (s *EventSink) Subscribe(fn ListenerFunc) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.listeners[token] = fn
	return token
}

// Unsubscribe removes the listener registered under token. It reports
// whether the token was known; unknown tokens are a no-op.
func (s *EventSink) Unsubscribe(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listeners[token]; !ok {
		return false
	}
	delete(s.listeners, token)
	return true
}

// Query returns a copy of the windowed events, oldest first, filtered
// by geofence id. An empty id returns everything in the window.
func (s *EventSink) Query(geofenceID string) []domain.GeofenceEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]domain.GeofenceEvent, 0, len(s.events))
	for _, event := range s.events {
		if geofenceID == "" || event.GeofenceID == geofenceID {
			events = append(events, event)
		}
	}
	return events
}

// Warm seeds the window from the store's recent history, oldest first.
// On error the window is left as it was.
func (s *EventSink) Warm() {
	events, err := s.store.LoadRecentEvents(context.Background(), s.capacity)
	if err != nil {
		log.Printf("event sink: load recent events failed: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = s.events[:0]
	for _, event := range events {
		if len(s.events) >= s.capacity {
			break
		}
		s.events = append(s.events, event)
	}
}

func (s *EventSink) persistAsync(event domain.GeofenceEvent) {
	go func() {
		if err := s.store.AppendEvent(context.Background(), event); err != nil {
			log.Printf("event sink: append failed: %v", err)
		}
	}()
}

func notify(fn ListenerFunc, event domain.GeofenceEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("event sink: listener panicked on %s %s: %v", event.Type, event.GeofenceID, r)
		}
	}()
	fn(event)
}
