package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/domain"
	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionHandler exposes the map session actions over HTTP. Every endpoint
// addresses the caller's own session: the id comes from the auth token, so
// a driver cannot drive another driver's map.
type SessionHandler struct {
	sessions *service.SessionManager
}

func NewSessionHandler(sessions *service.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) session(c *gin.Context) (*service.MapSession, bool) {
	driverID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing driver identity"})
		return nil, false
	}
	session, ok := h.sessions.Get(driverID.String())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active map session; connect the map first"})
		return nil, false
	}
	return session, true
}

// Locate runs the multi-sample acquisition and reports the resolved fix.
// Each acquisition failure maps to a distinct remediation hint.
func (h *SessionHandler) Locate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	fix, err := session.LocateMe(c.Request.Context())
	if err != nil {
		status, hint := locateFailure(err)
		c.JSON(status, gin.H{"error": err.Error(), "action": hint})
		return
	}

	c.JSON(http.StatusOK, gin.H{"fix": fix})
}

func locateFailure(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrServicesDisabled):
		return http.StatusUnprocessableEntity, "enable location services (GPS) and retry"
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, "grant location permission and retry"
	case errors.Is(err, domain.ErrNoReadings):
		return http.StatusServiceUnavailable, "no GPS signal; move outdoors and retry"
	case errors.Is(err, domain.ErrAcquisitionTimeout):
		return http.StatusGatewayTimeout, "location took too long; retry"
	default:
		return http.StatusInternalServerError, "retry"
	}
}

func (h *SessionHandler) Sync(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	count, err := session.SyncPackages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load packages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"packages": count})
}

func (h *SessionHandler) Fit(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	delivered := session.FitToPackages()
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}

func (h *SessionHandler) ClearMarkers(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	cleared := session.ClearMarkers()
	c.JSON(http.StatusOK, gin.H{"cleared": cleared})
}

type ReportLocationRequest struct {
	Lat       float64  `json:"lat" binding:"required,latitude"`
	Lng       float64  `json:"lng" binding:"required,longitude"`
	Accuracy  float64  `json:"accuracy" binding:"required,gt=0"`
	Altitude  *float64 `json:"altitude"`
	Speed     *float64 `json:"speed"`
	Heading   *float64 `json:"heading"`
	Timestamp string   `json:"timestamp"`
}

// ReportLocation is the HTTP alternative to the websocket locationReading
// event, for clients that keep the map socket for commands only.
func (h *SessionHandler) ReportLocation(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req ReportLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reading := domain.LocationReading{
		Latitude:   req.Lat,
		Longitude:  req.Lng,
		AccuracyM:  req.Accuracy,
		AltitudeM:  req.Altitude,
		SpeedMPS:   req.Speed,
		HeadingDeg: req.Heading,
		Timestamp:  time.Now().UTC(),
	}
	if req.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
			reading.Timestamp = ts
		}
	}

	if err := session.ReportDriverLocation(c.Request.Context(), reading); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record location"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "recorded"})
}

// History returns the fixes resolved during this session, plus channel
// delivery diagnostics.
func (h *SessionHandler) History(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fixes":    session.History(),
		"markers":  session.Markers(),
		"ready":    session.Channel().Ready(),
		"queued":   session.Channel().QueuedCount(),
		"delivery": session.Channel().DeliveryLog(),
	})
}
