package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/service"
)

const streamBufferSize = 32

type eventStream interface {
	Subscribe(fn service.ListenerFunc) string
	Unsubscribe(token string) bool
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// StreamHandler pushes geofence events to websocket clients as JSON
// frames. Each connection gets its own buffered queue between the
// engine's synchronous listener and the socket write; a client that
// cannot keep up loses frames instead of holding up event emission.
type StreamHandler struct {
	stream eventStream
}

func NewStreamHandler(stream eventStream) *StreamHandler {
	return &StreamHandler{stream: stream}
}

func (h *StreamHandler) Register(r *gin.RouterGroup) {
	r.GET("/events/stream", h.Stream)
}

func (h *StreamHandler) Stream(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("event stream: upgrade failed: %v", err)
		return
	}
	defer func() { _ = ws.Close() }()

	frames := make(chan domain.GeofenceEvent, streamBufferSize)
	token := h.stream.Subscribe(func(event domain.GeofenceEvent) {
		select {
		case frames <- event:
		default:
			log.Printf("event stream: slow client, dropping %s for %s", event.Type, event.GeofenceID)
		}
	})
	defer h.stream.Unsubscribe(token)

	// Reads are discarded; the loop only notices the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event := <-frames:
			if err := ws.WriteJSON(event); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
