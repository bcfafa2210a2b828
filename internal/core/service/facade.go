package service

import (
	"fmt"
	"strings"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	centerAnimationMs = 1000
	centerEasing      = "easeOut"
	fitPaddingPx      = 50
)

// MapCommandFacade translates high-level map intents into well-formed
// messages routed through the channel. Every method returns the boolean
// result of the underlying send; invalid input degrades to a logged no-op,
// never a panic.
type MapCommandFacade struct {
	channel *MessageChannel
	logger  *zap.Logger
}

func NewMapCommandFacade(channel *MessageChannel, logger *zap.Logger) *MapCommandFacade {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapCommandFacade{channel: channel, logger: logger}
}

// CenterOnLocation pans the map to coord at a zoom level derived from the
// accuracy of the fix that produced it.
func (f *MapCommandFacade) CenterOnLocation(coord domain.Coordinate, accuracyM float64) bool {
	return f.channel.Send(domain.MsgCenterOnLocation, domain.CenterOnLocationPayload{
		Latitude:   coord.Latitude,
		Longitude:  coord.Longitude,
		Zoom:       domain.ZoomForAccuracy(accuracyM),
		Animate:    true,
		DurationMs: centerAnimationMs,
		Easing:     centerEasing,
	})
}

// AddUserLocationMarker draws a marker for the given fix, with a
// human-readable description covering accuracy and averaging provenance.
func (f *MapCommandFacade) AddUserLocationMarker(fix domain.LocationFix) bool {
	marker := domain.UserLocationMarker{
		MarkerID:    "user-" + uuid.NewString(),
		Latitude:    fix.Latitude,
		Longitude:   fix.Longitude,
		AccuracyM:   fix.AccuracyM,
		Precision:   string(domain.TierForAccuracy(fix.AccuracyM)),
		Title:       "Your location",
		Description: markerDescription(fix),
	}
	return f.channel.Send(domain.MsgAddUserLocationMarker, domain.AddUserLocationMarkerPayload{Marker: marker})
}

// ClearUserMarkers removes every user-location marker on the peer. Marker
// history is owned by the caller and should be cleared only on success.
func (f *MapCommandFacade) ClearUserMarkers() bool {
	return f.channel.Send(domain.MsgClearUserMarkers, domain.ClearUserMarkersPayload{})
}

// LoadPackagesOnMap pushes the package list to the peer. An empty list is a
// logged no-op.
func (f *MapCommandFacade) LoadPackagesOnMap(packages []domain.Package, driverLocation *domain.Coordinate) bool {
	if len(packages) == 0 {
		f.logger.Info("no packages to load on map, skipping")
		return false
	}
	return f.channel.Send(domain.MsgLoadPackages, domain.LoadPackagesPayload{
		Packages:       packages,
		DriverLocation: driverLocation,
	})
}

// UpdateDriverLocation moves the driver marker. A nil reading is a no-op.
func (f *MapCommandFacade) UpdateDriverLocation(reading *domain.LocationReading) bool {
	if reading == nil {
		f.logger.Debug("nil driver location, skipping update")
		return false
	}
	return f.channel.Send(domain.MsgUpdateDriverLocation, domain.UpdateDriverLocationPayload{
		Latitude:   reading.Latitude,
		Longitude:  reading.Longitude,
		AccuracyM:  reading.AccuracyM,
		HeadingDeg: reading.HeadingDeg,
		SpeedMPS:   reading.SpeedMPS,
		Timestamp:  reading.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// FitToPackages asks the peer to fit the viewport around the packages it
// already holds.
func (f *MapCommandFacade) FitToPackages() bool {
	return f.channel.Send(domain.MsgFitToPackages, domain.FitToPackagesPayload{Padding: fitPaddingPx})
}

func markerDescription(fix domain.LocationFix) string {
	parts := []string{fmt.Sprintf("Accuracy ±%.0fm (%s)", fix.AccuracyM, domain.TierForAccuracy(fix.AccuracyM))}
	if fix.IsAveraged {
		parts = append(parts, fmt.Sprintf("averaged from %d of %d readings", fix.GoodReadings, fix.TotalReadings))
	} else {
		parts = append(parts, fmt.Sprintf("best of %d readings", fix.TotalReadings))
	}
	if fix.AltitudeM != nil {
		parts = append(parts, fmt.Sprintf("alt %.0fm", *fix.AltitudeM))
	}
	if fix.SpeedMPS != nil {
		parts = append(parts, fmt.Sprintf("speed %.1fm/s", *fix.SpeedMPS))
	}
	if fix.HeadingDeg != nil {
		parts = append(parts, fmt.Sprintf("heading %.0f deg", *fix.HeadingDeg))
	}
	return strings.Join(parts, ", ")
}
