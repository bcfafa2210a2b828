package domain

import "encoding/json"

// InboundEvent is the envelope for messages received from the map peer.
// Payload fields live at the top level of the JSON object, so handlers get
// the raw bytes back to decode their own shape.
type InboundEvent struct {
	Type MessageType `json:"type"`
}

type MapReadyEvent struct {
	Type         MessageType      `json:"type"`
	Capabilities *MapCapabilities `json:"capabilities,omitempty"`
}

type MapCapabilities struct {
	LocationPermission bool `json:"locationPermission"`
	LocationServices   bool `json:"locationServices"`
}

type MarkerAddedEvent struct {
	Type        MessageType `json:"type"`
	MarkerID    string      `json:"markerId"`
	Coordinates *Coordinate `json:"coordinates,omitempty"`
	AccuracyM   float64     `json:"accuracy,omitempty"`
	Precision   string      `json:"precision,omitempty"`
}

type MarkerErrorEvent struct {
	Type     MessageType `json:"type"`
	Error    string      `json:"error"`
	MarkerID string      `json:"markerId,omitempty"`
}

type MapCenteredEvent struct {
	Type        MessageType `json:"type"`
	Coordinates *Coordinate `json:"coordinates,omitempty"`
	Zoom        float64     `json:"zoom,omitempty"`
}

type PeerErrorEvent struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error"`
}

type LocationReadingEvent struct {
	Type    MessageType     `json:"type"`
	Reading LocationReading `json:"reading"`
}

// DecodeEventType pulls the discriminator out of a raw inbound payload.
func DecodeEventType(raw []byte) (MessageType, error) {
	var env InboundEvent
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", err
	}
	return env.Type, nil
}
