package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/repository/publisher"
)

var _ publisher.EventPublisher = (*EventPublisher)(nil)

const (
	exchangeName = "poetcam.geofence"
	queueName    = "geofence_events"
)

type EventPublisher struct {
	ch *amqp.Channel
}

func NewEventPublisher(conn *amqp.Connection) (*EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &EventPublisher{ch: ch}, nil
}

type eventMessage struct {
	SubjectID    string                   `json:"subject_id"`
	Event        domain.GeofenceEventType `json:"event"`
	GeofenceID   string                   `json:"geofence_id"`
	GeofenceName string                   `json:"geofence_name,omitempty"`
	Latitude     float64                  `json:"latitude"`
	Longitude    float64                  `json:"longitude"`
	Timestamp    int64                    `json:"timestamp"`
	DwellSeconds float64                  `json:"dwell_seconds,omitempty"`
}

func (p *EventPublisher) PublishEvent(ctx context.Context, subjectID, geofenceName string, event domain.GeofenceEvent) error {
	msg := eventMessage{
		SubjectID:    subjectID,
		Event:        event.Type,
		GeofenceID:   event.GeofenceID,
		GeofenceName: geofenceName,
		Latitude:     event.Sample.Lat,
		Longitude:    event.Sample.Lon,
		Timestamp:    event.Timestamp,
		DwellSeconds: event.DwellSeconds,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.ch.PublishWithContext(ctx, exchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
