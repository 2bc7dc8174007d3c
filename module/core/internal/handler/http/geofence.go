package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/domain"
	"github.com/plusbeauxjours/poetcam-app-sub000/module/core/service"
)

type geofenceService interface {
	AddGeofence(fence domain.Geofence) error
	RemoveGeofence(id string) bool
	Geofences() []domain.Geofence
	GetGeofence(id string) (domain.Geofence, bool)
}

type monitorService interface {
	StartMonitoring()
	StopMonitoring()
	Monitoring() bool
	ProcessLocationUpdate(sample domain.LocationSample) error
	CurrentMemberships() []domain.Membership
	Events(geofenceID string) []domain.GeofenceEvent
}

type locationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Altitude  float64 `json:"altitude"`
	Heading   float64 `json:"heading"`
	Speed     float64 `json:"speed"`
	Timestamp int64   `json:"timestamp"`
}

type GeofenceHandler struct {
	geofenceSvc geofenceService
	monitorSvc  monitorService
}

func NewGeofenceHandler(geofenceSvc geofenceService, monitorSvc monitorService) *GeofenceHandler {
	return &GeofenceHandler{geofenceSvc: geofenceSvc, monitorSvc: monitorSvc}
}

func (h *GeofenceHandler) Register(r *gin.RouterGroup) {
	r.POST("/geofences", h.CreateGeofence)
	r.GET("/geofences", h.ListGeofences)
	r.GET("/geofences/:geofence_id", h.GetGeofence)
	r.DELETE("/geofences/:geofence_id", h.DeleteGeofence)
	r.GET("/events", h.GetEvents)
	r.GET("/memberships", h.GetMemberships)
	r.POST("/locations", h.PushLocation)
	r.POST("/monitoring/start", h.StartMonitoring)
	r.POST("/monitoring/stop", h.StopMonitoring)
	r.GET("/monitoring", h.GetMonitoring)
}

// CreateGeofence registers a new fence or replaces the one already
// registered under the same id. A blank id gets a generated one.
func (h *GeofenceHandler) CreateGeofence(c *gin.Context) {
	var fence domain.Geofence
	if err := c.ShouldBindJSON(&fence); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if fence.ID == "" {
		fence.ID = uuid.NewString()
	}

	if err := h.geofenceSvc.AddGeofence(fence); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, fence)
}

func (h *GeofenceHandler) ListGeofences(c *gin.Context) {
	c.JSON(http.StatusOK, h.geofenceSvc.Geofences())
}

func (h *GeofenceHandler) GetGeofence(c *gin.Context) {
	fence, ok := h.geofenceSvc.GetGeofence(c.Param("geofence_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "geofence not found"})
		return
	}

	c.JSON(http.StatusOK, fence)
}

func (h *GeofenceHandler) DeleteGeofence(c *gin.Context) {
	if !h.geofenceSvc.RemoveGeofence(c.Param("geofence_id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "geofence not found"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *GeofenceHandler) GetEvents(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitorSvc.Events(c.Query("geofence_id")))
}

func (h *GeofenceHandler) GetMemberships(c *gin.Context) {
	memberships := h.monitorSvc.CurrentMemberships()
	if memberships == nil {
		memberships = []domain.Membership{}
	}
	c.JSON(http.StatusOK, memberships)
}

// PushLocation is the HTTP alternative to the MQTT position source for
// hosts that poll rather than stream.
func (h *GeofenceHandler) PushLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Timestamp <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timestamp: must be positive epoch milliseconds"})
		return
	}

	sample := domain.LocationSample{
		Coordinate: domain.Coordinate{
			Lat:      req.Latitude,
			Lon:      req.Longitude,
			Accuracy: req.Accuracy,
			Altitude: req.Altitude,
			Heading:  req.Heading,
			Speed:    req.Speed,
		},
		Timestamp: req.Timestamp,
	}

	if err := h.monitorSvc.ProcessLocationUpdate(sample); err != nil {
		switch {
		case errors.Is(err, service.ErrNotMonitoring):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrInvalidCoordinate):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process location"})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *GeofenceHandler) StartMonitoring(c *gin.Context) {
	h.monitorSvc.StartMonitoring()
	c.JSON(http.StatusOK, gin.H{"monitoring": true})
}

func (h *GeofenceHandler) StopMonitoring(c *gin.Context) {
	h.monitorSvc.StopMonitoring()
	c.JSON(http.StatusOK, gin.H{"monitoring": false})
}

func (h *GeofenceHandler) GetMonitoring(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"monitoring": h.monitorSvc.Monitoring()})
}
