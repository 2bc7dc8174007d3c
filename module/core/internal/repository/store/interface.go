package store

import (
	"context"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
)

// Store is the persistence collaborator of the geofence engine. The
// engine treats it as best-effort: in-memory state stays authoritative
// for the running session, writes are fired off asynchronously, and any
// failure is logged rather than surfaced to location processing.
//
// SaveGeofences replaces the whole stored set with the given snapshot.
// LoadRecentEvents returns at most limit events, oldest first.
type Store interface {
	LoadGeofences(ctx context.Context) ([]domain.Geofence, error)
	SaveGeofences(ctx context.Context, fences []domain.Geofence) error
	AppendEvent(ctx context.Context, event domain.GeofenceEvent) error
	LoadRecentEvents(ctx context.Context, limit int) ([]domain.GeofenceEvent, error)
}
