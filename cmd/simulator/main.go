package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Scripted walk: approach the fence from the south, stay inside long
// enough for a dwell event, then leave again, forever. Distances are
// meters north of the fence center (negative = south of it).
var walkScript = []float64{
	-1200, -1000, -800, -600, -400, -250, -120,
	-60, -30, -10, 0, 10, 20, 30, 40, 50,
	-120, -250, -400, -600, -800, -1000, -1200,
	-1400, -1400,
}

// One degree of latitude in meters (earth radius 6371000 * pi / 180).
const metersPerDegreeLat = 111194.9266

type locationMessage struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}
	subjectID := "subject-1"
	if v := os.Getenv("SUBJECT_ID"); v != "" {
		subjectID = v
	}
	centerLat := envFloat("CENTER_LAT", 37.5665)
	centerLon := envFloat("CENTER_LON", 126.978)

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("poetcam-simulator")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	topic := fmt.Sprintf("poetcam/subject/%s/location", subjectID)
	log.Printf("connected to %s, walking %s around (%f, %f) every %ds...",
		broker, subjectID, centerLat, centerLon, intervalSec)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	step := 0
	for range ticker.C {
		metersNorth := walkScript[step%len(walkScript)]
		step++

		msg := locationMessage{
			Latitude:  centerLat + metersNorth/metersPerDegreeLat,
			Longitude: centerLon,
			Accuracy:  5 + rand.Float64()*10,
			Timestamp: time.Now().UnixMilli(),
		}

		payload, _ := json.Marshal(msg)
		token := client.Publish(topic, 1, false, payload)
		token.Wait()

		log.Printf("published %.0fm from center: %s", metersNorth, payload)
	}
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return f
}
