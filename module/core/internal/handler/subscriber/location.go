package subscriber

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
)

const topicPattern = "poetcam/subject/%s/location"

type locationProcessor interface {
	ProcessLocationUpdate(sample domain.LocationSample) error
}

type locationMessage struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Altitude  float64 `json:"altitude,omitempty"`
	Heading   float64 `json:"heading,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// LocationSubscriber feeds the position stream of one subject into the
// geofence engine. Malformed or out-of-range payloads are logged and
// dropped so the stream keeps flowing.
type LocationSubscriber struct {
	client mqtt.Client
	engine locationProcessor
	topic  string
}

func NewLocationSubscriber(client mqtt.Client, engine locationProcessor, subjectID string) *LocationSubscriber {
	return &LocationSubscriber{
		client: client,
		engine: engine,
		topic:  fmt.Sprintf(topicPattern, subjectID),
	}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(s.topic, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid location message: %v", err)
		return
	}

	if err := validateLocationMessage(&raw); err != nil {
		log.Printf("validation error: %v", err)
		return
	}

	sample := domain.LocationSample{
		Coordinate: domain.Coordinate{
			Lat:      raw.Latitude,
			Lon:      raw.Longitude,
			Accuracy: raw.Accuracy,
			Altitude: raw.Altitude,
			Heading:  raw.Heading,
			Speed:    raw.Speed,
		},
		Timestamp: raw.Timestamp,
	}

	if err := s.engine.ProcessLocationUpdate(sample); err != nil {
		log.Printf("process location error: %v", err)
	}
}

func validateLocationMessage(msg *locationMessage) error {
	if msg.Latitude < -90 || msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if msg.Longitude < -180 || msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive epoch milliseconds")
	}
	return nil
}
