package service

import (
	"time"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/geo"
)

// Tracker runs the per-geofence membership state machine for a single
// subject. Each geofence is either outside or inside; an inside
// membership additionally remembers whether its one dwell event fired.
//
// Tracker is not safe for concurrent use by itself. The engine owns it
// and serializes every call, including dwell timer callbacks, through
// its own mutex.
type Tracker struct {
	dwell   time.Duration
	onDwell func(geofenceID string, seq uint64)

	state map[string]*membership
}

// membership is the tracked state for one geofence. seq increments on
// every enter; a dwell timer carries the seq it was armed under, so a
// timer that outlives its entry (stopped too late to prevent the
// callback) is recognized as stale and ignored.
type membership struct {
	inside     bool
	enteredAt  int64
	dwellFired bool
	seq        uint64
	lastSample domain.LocationSample
	timer      *time.Timer
}

func (m *membership) cancelTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// NewTracker builds a tracker that arms a dwell timer on every enter.
// onDwell is invoked on the timer's own goroutine when it fires; the
// caller routes it back through its lock into DwellElapsed. A nil
// onDwell or non-positive dwell disables timers entirely.
func NewTracker(dwell time.Duration, onDwell func(geofenceID string, seq uint64)) *Tracker {
	return &Tracker{
		dwell:   dwell,
		onDwell: onDwell,
		state:   make(map[string]*membership),
	}
}

// Evaluate runs one location sample against every fence, updates
// membership, and returns the resulting transition events in fences
// order. A sample inside a fence the subject was already inside of
// produces no event; it only refreshes the position a later dwell event
// will carry. Fences the subject stays outside of leave no state behind.
func (t *Tracker) Evaluate(sample domain.LocationSample, fences []domain.Geofence) []domain.GeofenceEvent {
	now := time.Now().UnixMilli()

	var events []domain.GeofenceEvent
	for _, fence := range fences {
		contained := geo.Contains(sample.Coordinate, fence.Shape)
		st := t.state[fence.ID]
		wasInside := st != nil && st.inside

		switch {
		case contained && !wasInside:
			if st == nil {
				st = &membership{}
				t.state[fence.ID] = st
			}
			st.inside = true
			st.enteredAt = sample.Timestamp
			st.dwellFired = false
			st.lastSample = sample
			st.seq++
			t.armDwell(fence.ID, st)
			events = append(events, domain.GeofenceEvent{
				Type:       domain.GeofenceEnter,
				GeofenceID: fence.ID,
				Sample:     sample,
				Timestamp:  now,
			})

		case !contained && wasInside:
			st.cancelTimer()
			st.inside = false
			st.enteredAt = 0
			st.dwellFired = false
			events = append(events, domain.GeofenceEvent{
				Type:       domain.GeofenceExit,
				GeofenceID: fence.ID,
				Sample:     sample,
				Timestamp:  now,
			})

		case contained && wasInside:
			st.lastSample = sample
		}
	}
	return events
}

func (t *Tracker) armDwell(geofenceID string, st *membership) {
	if t.dwell <= 0 || t.onDwell == nil {
		return
	}
	seq := st.seq
	st.timer = time.AfterFunc(t.dwell, func() {
		t.onDwell(geofenceID, seq)
	})
}

// DwellElapsed resolves a fired dwell timer. The membership is
// re-checked instead of trusting the timer: an exit, removal or re-enter
// processed between the timer firing and this call winning the lock
// makes the firing stale, and stale firings emit nothing. At most one
// dwell event is emitted per continuous stay.
func (t *Tracker) DwellElapsed(geofenceID string, seq uint64) (domain.GeofenceEvent, bool) {
	st := t.state[geofenceID]
	if st == nil || !st.inside || st.dwellFired || st.seq != seq {
		return domain.GeofenceEvent{}, false
	}
	st.dwellFired = true
	st.timer = nil
	return domain.GeofenceEvent{
		Type:         domain.GeofenceDwell,
		GeofenceID:   geofenceID,
		Sample:       st.lastSample,
		Timestamp:    time.Now().UnixMilli(),
		DwellSeconds: t.dwell.Seconds(),
	}, true
}

// Drop discards all state for a removed geofence and cancels its dwell
// timer. No synthetic exit is emitted: a consumer that saw an enter for
// a fence that is then removed will not see a matching exit.
func (t *Tracker) Drop(geofenceID string) {
	st := t.state[geofenceID]
	if st == nil {
		return
	}
	st.cancelTimer()
	delete(t.state, geofenceID)
}

// Reset cancels every outstanding dwell timer and forgets all
// membership. Timers are stopped individually; dropping the map alone
// would leave armed timers to fire against whatever state comes next.
func (t *Tracker) Reset() {
	for _, st := range t.state {
		st.cancelTimer()
	}
	t.state = make(map[string]*membership)
}

// Memberships returns the fences the subject is currently inside, in
// fences order.
func (t *Tracker) Memberships(fences []domain.Geofence) []domain.Membership {
	var current []domain.Membership
	for _, fence := range fences {
		if st := t.state[fence.ID]; st != nil && st.inside {
			current = append(current, domain.Membership{
				GeofenceID: fence.ID,
				EnteredAt:  st.enteredAt,
				DwellFired: st.dwellFired,
			})
		}
	}
	return current
}
