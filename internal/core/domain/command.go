package domain

// Payloads for commands sent to the map peer. Every command is serialized
// as a single JSON object with a `type` discriminator.

type CenterOnLocationPayload struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Zoom       float64 `json:"zoom"`
	Animate    bool    `json:"animate"`
	DurationMs int     `json:"duration"`
	Easing     string  `json:"easing"`
}

type UserLocationMarker struct {
	MarkerID    string  `json:"markerId"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	AccuracyM   float64 `json:"accuracy"`
	Precision   string  `json:"precision"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
}

type AddUserLocationMarkerPayload struct {
	Marker UserLocationMarker `json:"marker"`
}

type LoadPackagesPayload struct {
	Packages       []Package   `json:"packages"`
	DriverLocation *Coordinate `json:"driverLocation,omitempty"`
}

type ClearUserMarkersPayload struct{}

type UpdateDriverLocationPayload struct {
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	AccuracyM  float64  `json:"accuracy,omitempty"`
	HeadingDeg *float64 `json:"heading,omitempty"`
	SpeedMPS   *float64 `json:"speed,omitempty"`
	Timestamp  string   `json:"timestamp"`
}

type FitToPackagesPayload struct {
	Padding int `json:"padding"`
}
