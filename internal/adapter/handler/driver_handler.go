package handler

import (
	"net/http"
	"strconv"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/adapter/storage/postgres"
	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/port"
	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/service"
	"github.com/gin-gonic/gin"
)

type DriverHandler struct {
	repo postgres.Store
	auth *service.AuthService
	geo  port.GeoFinder
}

func NewDriverHandler(repo postgres.Store, auth *service.AuthService, geo port.GeoFinder) *DriverHandler {
	return &DriverHandler{repo: repo, auth: auth, geo: geo}
}

type CreateDriverRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required,e164"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *DriverHandler) CreateDriver(c *gin.Context) {
	var req CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := h.auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create driver"})
		return
	}

	driver, err := h.repo.CreateDriver(c.Request.Context(), postgres.CreateDriverParams{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create driver"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         driver.ID,
		"created_at": driver.CreatedAt,
		"status":     "success",
	})
}

// FindNearestDrivers answers dispatch lookups against the geo index kept
// current by the sessions' driver location reports.
func (h *DriverHandler) FindNearestDrivers(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng"})
		return
	}
	radiusKm := 5.0
	if raw := c.Query("radius_km"); raw != "" {
		if radiusKm, err = strconv.ParseFloat(raw, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius_km"})
			return
		}
	}

	drivers, err := h.geo.FindNearestDrivers(c.Request.Context(), lat, lng, radiusKm)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "geo lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"drivers": drivers})
}
