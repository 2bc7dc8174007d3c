package core

import (
	"database/sql"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	handler "github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/handler/http"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/handler/subscriber"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/repository/publisher"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/repository/publisher/rabbitmq"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/repository/store"
	badgerstore "github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/repository/store/badger"
	pgstore "github.com/plusbeauxjours/poetcam-app-sub000/module/core/internal/repository/store/postgres"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/service"
)

type Module struct {
	Engine *service.Engine

	geofenceHandler *handler.GeofenceHandler
	streamHandler   *handler.StreamHandler
	subscriber      *subscriber.LocationSubscriber
	bridge          *publisher.Bridge
	bridgeToken     string
}

// Build wires the geofence engine with its adapters. Exactly one store
// backend is used: badger when kv is non-nil, otherwise postgres via db.
func Build(db *sql.DB, kv *badger.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, cfg service.Config) (*Module, error) {
	var st store.Store
	switch {
	case kv != nil:
		s, err := badgerstore.NewStore(kv)
		if err != nil {
			return nil, fmt.Errorf("badger store: %w", err)
		}
		st = s
	case db != nil:
		st = pgstore.NewStore(db)
	default:
		return nil, errors.New("no store backend provided")
	}

	engine := service.NewEngine(st, cfg)

	eventPub, err := rabbitmq.NewEventPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("event publisher: %w", err)
	}

	bridge := publisher.NewBridge(eventPub, engine.SubjectID(), func(geofenceID string) string {
		fence, ok := engine.GetGeofence(geofenceID)
		if !ok {
			return ""
		}
		return fence.Name
	})
	token := engine.Subscribe(bridge.Enqueue)

	return &Module{
		Engine:          engine,
		geofenceHandler: handler.NewGeofenceHandler(engine, engine),
		streamHandler:   handler.NewStreamHandler(engine),
		subscriber:      subscriber.NewLocationSubscriber(mqttClient, engine, engine.SubjectID()),
		bridge:          bridge,
		bridgeToken:     token,
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.geofenceHandler.Register(r)
	m.streamHandler.Register(r)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}

func (m *Module) StartMonitoring() {
	m.Engine.StartMonitoring()
}

// Shutdown stops the monitoring session: dwell timers are cancelled,
// the event bridge is detached and drained.
func (m *Module) Shutdown() {
	m.Engine.Unsubscribe(m.bridgeToken)
	m.Engine.StopMonitoring()
	m.bridge.Close()
}
