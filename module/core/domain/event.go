package domain

// GeofenceEventType discriminates the three membership transitions.
type GeofenceEventType string

const (
	GeofenceEnter GeofenceEventType = "geofence_enter"
	GeofenceExit  GeofenceEventType = "geofence_exit"
	GeofenceDwell GeofenceEventType = "geofence_dwell"
)

// GeofenceEvent records one membership transition for one geofence.
// Events are immutable once emitted. Sample is the location reading that
// triggered the transition; for dwell events it is the most recent
// reading taken inside the fence. Timestamp is the emission time in
// epoch milliseconds. DwellSeconds is set on dwell events only.
type GeofenceEvent struct {
	Type         GeofenceEventType `json:"type"`
	GeofenceID   string            `json:"geofence_id"`
	Sample       LocationSample    `json:"sample"`
	Timestamp    int64             `json:"timestamp"`
	DwellSeconds float64           `json:"dwell_seconds,omitempty"`
}

// Membership is a point-in-time view of one geofence the subject is
// currently inside. EnteredAt is the timestamp of the sample that caused
// the enter, in epoch milliseconds.
type Membership struct {
	GeofenceID string `json:"geofence_id"`
	EnteredAt  int64  `json:"entered_at"`
	DwellFired bool   `json:"dwell_fired"`
}
