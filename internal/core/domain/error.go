package domain

import "errors"

var (
	ErrDriverNotFound  = errors.New("driver not found")
	ErrPackageNotFound = errors.New("package not found")
)

// Location acquisition failures. Callers are required to handle each of
// these distinctly; every other error class inside the channel and facade is
// converted to a boolean result at the component boundary.
var (
	ErrNoReadings         = errors.New("no location readings obtained")
	ErrPermissionDenied   = errors.New("location permission denied")
	ErrServicesDisabled   = errors.New("location services disabled")
	ErrAcquisitionTimeout = errors.New("location acquisition timed out")
)
