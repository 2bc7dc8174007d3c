package publisher

import (
	"context"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
)

// EventPublisher hands a geofence event to external consumers (reward
// logic, notification dispatch). geofenceName may be empty when the
// fence was removed between emission and publish.
type EventPublisher interface {
	PublishEvent(ctx context.Context, subjectID, geofenceName string, event domain.GeofenceEvent) error
}
