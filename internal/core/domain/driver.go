package domain

import "time"

type DriverStatus string

const (
	DriverStatusOffline    DriverStatus = "OFFLINE"
	DriverStatusIdle       DriverStatus = "IDLE"
	DriverStatusDelivering DriverStatus = "DELIVERING"
)

type Driver struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Status    DriverStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d *Driver) CanTakePackages() bool {
	return d.Status == DriverStatusIdle
}
