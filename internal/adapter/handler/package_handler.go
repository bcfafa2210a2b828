package handler

import (
	"errors"
	"net/http"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/adapter/storage/postgres"
	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PackageHandler struct {
	repo postgres.Store
}

func NewPackageHandler(repo postgres.Store) *PackageHandler {
	return &PackageHandler{repo: repo}
}

type CreatePackageRequest struct {
	DriverID      string  `json:"driver_id" binding:"omitempty,uuid"`
	RecipientName string  `json:"recipient_name" binding:"required"`
	Address       string  `json:"address" binding:"required"`
	Lat           float64 `json:"lat" binding:"required,latitude"`
	Lng           float64 `json:"lng" binding:"required,longitude"`
	SequenceNum   int     `json:"sequence_num"`
}

func (h *PackageHandler) CreatePackage(c *gin.Context) {
	var req CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := postgres.CreatePackageParams{
		RecipientName: req.RecipientName,
		Address:       req.Address,
		Latitude:      req.Lat,
		Longitude:     req.Lng,
		SequenceNum:   req.SequenceNum,
	}
	if req.DriverID != "" {
		driverUUID, _ := uuid.Parse(req.DriverID)
		params.DriverID = &driverUUID
	}

	pkg, err := h.repo.CreatePackage(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create package"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         pkg.ID,
		"status":     pkg.Status,
		"created_at": pkg.CreatedAt,
	})
}

type AssignRouteRequest struct {
	DriverID   string   `json:"driver_id" binding:"required,uuid"`
	PackageIDs []string `json:"package_ids" binding:"required,min=1,dive,uuid"`
}

// AssignRoute attaches a batch of pending packages to a driver; the order of
// package_ids becomes the delivery sequence.
func (h *PackageHandler) AssignRoute(c *gin.Context) {
	var req AssignRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	driverID, _ := uuid.Parse(req.DriverID)
	packageIDs := make([]uuid.UUID, len(req.PackageIDs))
	for i, id := range req.PackageIDs {
		packageIDs[i], _ = uuid.Parse(id)
	}

	err := h.repo.AssignRouteTx(c.Request.Context(), postgres.AssignRouteTxParams{
		DriverID:   driverID,
		PackageIDs: packageIDs,
	})
	if err != nil {
		if errors.Is(err, domain.ErrPackageNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "a package in the route is not pending"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assign route"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assigned": len(packageIDs)})
}

func (h *PackageHandler) ListDriverPackages(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid driver id"})
		return
	}

	packages, err := h.repo.ListPackagesByDriver(c.Request.Context(), driverID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list packages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"packages": packages, "count": len(packages)})
}

func (h *PackageHandler) MarkDelivered(c *gin.Context) {
	packageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid package id"})
		return
	}
	driverID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing driver identity"})
		return
	}

	rows, err := h.repo.MarkPackageDelivered(c.Request.Context(), packageID, driverID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update package"})
		return
	}
	if rows == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "package is not deliverable by this driver"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "delivered"})
}
