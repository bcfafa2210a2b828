package domain

import (
	"time"

	"github.com/google/uuid"
)

type PackageStatus string

const (
	PackageStatusPending   PackageStatus = "PENDING"
	PackageStatusAssigned  PackageStatus = "ASSIGNED"
	PackageStatusInTransit PackageStatus = "IN_TRANSIT"
	PackageStatusDelivered PackageStatus = "DELIVERED"
	PackageStatusFailed    PackageStatus = "FAILED"
)

type Package struct {
	ID            uuid.UUID     `json:"id"`
	DriverID      *uuid.UUID    `json:"driver_id,omitempty"`
	RecipientName string        `json:"recipient_name"`
	Address       string        `json:"address"`
	Latitude      float64       `json:"latitude"`
	Longitude     float64       `json:"longitude"`
	Status        PackageStatus `json:"status"`
	SequenceNum   int           `json:"sequence_num"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (p *Package) IsDeliverable() bool {
	return p.Status == PackageStatusAssigned || p.Status == PackageStatusInTransit
}
