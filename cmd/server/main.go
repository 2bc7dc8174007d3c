package main

import (
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/plusbeauxjours/poetcam-app-sub000/config"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var (
		db  *sql.DB
		kv  *badger.DB
		err error
	)
	switch cfg.StoreBackend {
	case "postgres":
		db, err = config.NewPostgres(cfg)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer func() { _ = db.Close() }()
	case "badger":
		kv, err = config.NewBadger(cfg)
		if err != nil {
			log.Fatalf("badger: %v", err)
		}
		defer func() { _ = kv.Close() }()
	default:
		log.Fatalf("unknown STORE_BACKEND %q (want postgres or badger)", cfg.StoreBackend)
	}

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	coreModule, err := core.Build(db, kv, amqpConn, mqttClient, service.Config{
		SubjectID:        cfg.SubjectID,
		DwellDuration:    cfg.DwellDuration,
		EventLogCapacity: cfg.EventLogCapacity,
	})
	if err != nil {
		log.Fatalf("core module: %v", err)
	}

	coreModule.StartMonitoring()
	if err := coreModule.StartSubscribers(); err != nil {
		log.Fatalf("start subscribers: %v", err)
	}

	r := gin.Default()

	health := config.NewHealthChecker(db, kv, amqpConn, mqttClient)
	health.Register(r)

	coreModule.RegisterRoutes(&r.RouterGroup)

	go func() {
		if err := r.Run(":" + cfg.HTTPPort); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()
	log.Printf("monitoring subject %s (%s store, dwell %v), listening on :%s",
		cfg.SubjectID, cfg.StoreBackend, cfg.DwellDuration, cfg.HTTPPort)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	coreModule.Shutdown()
	log.Println("shutting down")
}
