package port

import (
	"context"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/domain"
)

// LocationProvider yields raw device readings. PermissionGranted and
// ServicesEnabled are checked by the caller before sampling begins; the
// sampler itself only pulls readings.
type LocationProvider interface {
	CurrentReading(ctx context.Context) (domain.LocationReading, error)
	PermissionGranted() bool
	ServicesEnabled() bool
}

// ReadingSink accepts raw readings pushed from the transport side (the map
// peer streams device GPS samples up to the host).
type ReadingSink interface {
	Publish(reading domain.LocationReading)
}

// CapabilitySink receives the permission/services flags the peer reports in
// its ready event.
type CapabilitySink interface {
	SetPermissionGranted(granted bool)
	SetServicesEnabled(enabled bool)
}
