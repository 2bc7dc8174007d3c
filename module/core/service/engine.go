package service

import (
	"errors"
	"sync"
	"time"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/repository/store"
)

// ErrNotMonitoring is returned by ProcessLocationUpdate when monitoring
// has not been started or has been stopped.
var ErrNotMonitoring = errors.New("geofence engine is not monitoring")

const (
	DefaultDwellDuration    = 5 * time.Minute
	DefaultEventLogCapacity = 500
)

// Config tunes an Engine. Zero values fall back to the defaults above.
type Config struct {
	// SubjectID names the entity whose location stream this engine
	// tracks, for labelling only; the engine itself is single-subject.
	SubjectID string

	// DwellDuration is how long a continuous stay inside a fence must
	// last before a dwell event fires.
	DwellDuration time.Duration

	// EventLogCapacity bounds the in-memory event window.
	EventLogCapacity int
}

// Engine is the facade over the geofence core: the registry of fence
// definitions, the membership tracker and the event sink. Definition
// changes are accepted at any time; location samples are only processed
// between StartMonitoring and StopMonitoring.
//
// Every entry point that touches membership state, including the dwell
// timer callbacks (which arrive on their own goroutines), serializes
// through one mutex. Listeners are invoked on the processing path while
// that mutex is held, so a listener must never call back into the
// engine.
type Engine struct {
	subjectID string
	dwell     time.Duration
	registry  *Registry
	sink      *EventSink

	mu         sync.Mutex
	tracker    *Tracker
	monitoring bool
}

// NewEngine builds an engine over st. The stored geofence set is loaded
// immediately; membership starts empty and monitoring starts stopped.
func NewEngine(st store.Store, cfg Config) *Engine {
	dwell := cfg.DwellDuration
	if dwell <= 0 {
		dwell = DefaultDwellDuration
	}

	e := &Engine{
		subjectID: cfg.SubjectID,
		dwell:     dwell,
		registry:  NewRegistry(st),
		sink:      NewEventSink(st, cfg.EventLogCapacity),
	}
	e.tracker = NewTracker(dwell, e.handleDwell)
	return e
}

// StartMonitoring reloads the persisted geofence set, warms the event
// window from stored history, and resets every membership to outside.
// No assumption is made about where the subject is; the first samples
// after a start re-enter whatever fences contain them. Starting while
// already monitoring just resets membership the same way.
func (e *Engine) StartMonitoring() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.Reload()
	e.sink.Warm()
	e.tracker.Reset()
	e.monitoring = true
}

// StopMonitoring cancels all outstanding dwell timers and drops all
// membership state. Geofence definitions survive; membership does not.
// A timer that already fired but has not run yet is recognized as stale
// and emits nothing.
func (e *Engine) StopMonitoring() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracker.Reset()
	e.monitoring = false
}

// Monitoring reports whether location samples are currently processed.
func (e *Engine) Monitoring() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.monitoring
}

// ProcessLocationUpdate evaluates one location sample against every
// registered geofence and emits the resulting transition events, in
// registry order, before returning. Samples are rejected when the
// coordinate is out of range or monitoring is stopped; both leave all
// membership state untouched.
func (e *Engine) ProcessLocationUpdate(sample domain.LocationSample) error {
	if err := sample.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.monitoring {
		return ErrNotMonitoring
	}
	for _, event := range e.tracker.Evaluate(sample, e.registry.List()) {
		e.sink.Record(event)
	}
	return nil
}

// AddGeofence validates fence and adds it to the registry, replacing
// any existing definition with the same id. Replacing a fence keeps its
// membership state; the next sample re-evaluates against the new shape.
func (e *Engine) AddGeofence(fence domain.Geofence) error {
	if err := fence.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.Add(fence)
	return nil
}

// RemoveGeofence deletes the definition and discards any membership
// state for id, without emitting a synthetic exit. It reports whether
// the id was registered.
func (e *Engine) RemoveGeofence(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.registry.Remove(id) {
		return false
	}
	e.tracker.Drop(id)
	return true
}

// Geofences returns the registered definitions in registry order.
func (e *Engine) Geofences() []domain.Geofence {
	return e.registry.List()
}

// GetGeofence returns the definition registered under id.
func (e *Engine) GetGeofence(id string) (domain.Geofence, bool) {
	return e.registry.Get(id)
}

// CurrentMemberships returns the fences the subject is inside right
// now, in registry order.
func (e *Engine) CurrentMemberships() []domain.Membership {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Memberships(e.registry.List())
}

// Subscribe registers a listener for every subsequent event and returns
// a token for Unsubscribe.
func (e *Engine) Subscribe(fn ListenerFunc) string {
	return e.sink.Subscribe(fn)
}

// Unsubscribe removes the listener registered under token.
func (e *Engine) Unsubscribe(token string) bool {
	return e.sink.Unsubscribe(token)
}

// Events returns the windowed event history, oldest first, optionally
// filtered by geofence id (empty means all).
func (e *Engine) Events(geofenceID string) []domain.GeofenceEvent {
	return e.sink.Query(geofenceID)
}

// SubjectID returns the label of the tracked subject.
func (e *Engine) SubjectID() string {
	return e.subjectID
}

// handleDwell runs on a dwell timer's goroutine. It re-enters the
// engine through the mutex so the staleness check in DwellElapsed sees
// settled state.
func (e *Engine) handleDwell(geofenceID string, seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.monitoring {
		return
	}
	if event, ok := e.tracker.DwellElapsed(geofenceID, seq); ok {
		e.sink.Record(event)
	}
}
