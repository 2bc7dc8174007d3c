package subscriber

import (
	"encoding/json"
	"testing"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/service"
)

type mockProcessor struct {
	processFn func(sample domain.LocationSample) error
}

func (m *mockProcessor) ProcessLocationUpdate(sample domain.LocationSample) error {
	if m.processFn != nil {
		return m.processFn(sample)
	}
	return nil
}

type fakeMQTTMessage struct {
	payload []byte
}

func (f *fakeMQTTMessage) Duplicate() bool   { return false }
func (f *fakeMQTTMessage) Qos() byte         { return 0 }
func (f *fakeMQTTMessage) Retained() bool    { return false }
func (f *fakeMQTTMessage) Topic() string     { return "poetcam/subject/walker-1/location" }
func (f *fakeMQTTMessage) MessageID() uint16 { return 0 }
func (f *fakeMQTTMessage) Payload() []byte   { return f.payload }
func (f *fakeMQTTMessage) Ack()              {}

func TestHandleMessage_Success(t *testing.T) {
	var processed *domain.LocationSample
	engine := &mockProcessor{
		processFn: func(sample domain.LocationSample) error {
			processed = &sample
			return nil
		},
	}

	sub := NewLocationSubscriber(nil, engine, "walker-1")

	msg := locationMessage{
		Latitude:  37.5665,
		Longitude: 126.978,
		Accuracy:  8.5,
		Speed:     1.4,
		Timestamp: 1715003456000,
	}
	payload, _ := json.Marshal(msg)
	sub.handleMessage(nil, &fakeMQTTMessage{payload: payload})

	if processed == nil {
		t.Fatal("expected ProcessLocationUpdate to be called")
	}
	if processed.Lat != 37.5665 || processed.Lon != 126.978 {
		t.Errorf("unexpected coordinate: %f, %f", processed.Lat, processed.Lon)
	}
	if processed.Accuracy != 8.5 || processed.Speed != 1.4 {
		t.Errorf("telemetry dropped: accuracy %f speed %f", processed.Accuracy, processed.Speed)
	}
	if processed.Timestamp != 1715003456000 {
		t.Errorf("expected epoch millis preserved, got %d", processed.Timestamp)
	}
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	engine := &mockProcessor{
		processFn: func(domain.LocationSample) error {
			t.Fatal("ProcessLocationUpdate should not be called")
			return nil
		},
	}

	sub := NewLocationSubscriber(nil, engine, "walker-1")
	sub.handleMessage(nil, &fakeMQTTMessage{payload: []byte("invalid")})
}

func TestHandleMessage_ValidationError(t *testing.T) {
	engine := &mockProcessor{
		processFn: func(domain.LocationSample) error {
			t.Fatal("ProcessLocationUpdate should not be called")
			return nil
		},
	}

	sub := NewLocationSubscriber(nil, engine, "walker-1")

	// missing timestamp
	msg := locationMessage{Latitude: 37.5, Longitude: 127.0}
	payload, _ := json.Marshal(msg)
	sub.handleMessage(nil, &fakeMQTTMessage{payload: payload})
}

func TestHandleMessage_EngineErrorIsSwallowed(t *testing.T) {
	calls := 0
	engine := &mockProcessor{
		processFn: func(domain.LocationSample) error {
			calls++
			return service.ErrNotMonitoring
		},
	}

	sub := NewLocationSubscriber(nil, engine, "walker-1")

	msg := locationMessage{Latitude: 37.5, Longitude: 127.0, Timestamp: 1715003456000}
	payload, _ := json.Marshal(msg)
	sub.handleMessage(nil, &fakeMQTTMessage{payload: payload})
	sub.handleMessage(nil, &fakeMQTTMessage{payload: payload})

	if calls != 2 {
		t.Fatalf("an engine error must not stop the stream, got %d calls", calls)
	}
}

func TestSubscriberTopicIsSubjectScoped(t *testing.T) {
	sub := NewLocationSubscriber(nil, &mockProcessor{}, "walker-1")
	if sub.topic != "poetcam/subject/walker-1/location" {
		t.Fatalf("unexpected topic %q", sub.topic)
	}
}

func TestValidateLocationMessage(t *testing.T) {
	tests := []struct {
		name    string
		msg     locationMessage
		wantErr bool
	}{
		{"valid", locationMessage{Latitude: 0, Longitude: 0, Timestamp: 1}, false},
		{"lat too low", locationMessage{Latitude: -91, Longitude: 0, Timestamp: 1}, true},
		{"lat too high", locationMessage{Latitude: 91, Longitude: 0, Timestamp: 1}, true},
		{"lon too low", locationMessage{Latitude: 0, Longitude: -181, Timestamp: 1}, true},
		{"lon too high", locationMessage{Latitude: 0, Longitude: 181, Timestamp: 1}, true},
		{"zero timestamp", locationMessage{Latitude: 0, Longitude: 0, Timestamp: 0}, true},
		{"negative timestamp", locationMessage{Latitude: 0, Longitude: 0, Timestamp: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLocationMessage(&tt.msg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateLocationMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
