package domain

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

type MessageType string

// Commands sent to the map peer.
const (
	MsgAddUserLocationMarker MessageType = "addUserLocationMarker"
	MsgCenterOnLocation      MessageType = "centerOnLocation"
	MsgLoadPackages          MessageType = "loadPackages"
	MsgClearUserMarkers      MessageType = "clearUserMarkers"
	MsgUpdateDriverLocation  MessageType = "updateDriverLocation"
	MsgFitToPackages         MessageType = "fitToPackages"
)

// Events emitted by the map peer.
const (
	EvtMapReady        MessageType = "mapReady"
	EvtMarkerAdded     MessageType = "userLocationMarkerAdded"
	EvtMarkerError     MessageType = "userLocationMarkerError"
	EvtMapCentered     MessageType = "mapCentered"
	EvtError           MessageType = "error"
	EvtLocationReading MessageType = "locationReading"
)

// Message is one unit sent to the map peer. The channel never mutates a
// message after it has been enqueued.
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	MessageID string          `json:"messageId"`
	Timestamp string          `json:"timestamp"`
	Source    string          `json:"source"`
}

// NewMessageID builds a correlation id from the creation time plus a random
// suffix. It is used for log tracing, not for deduplication.
func NewMessageID(now time.Time) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("msg_%d_%s", now.UnixMilli(), hex.EncodeToString(buf))
}

// QueuedMessage wraps a message held while the peer is not ready, with a
// snapshot of the readiness flags at enqueue time for diagnostics.
type QueuedMessage struct {
	Message      Message
	QueuedAt     time.Time
	PeerAttached bool
	PeerLoaded   bool
	PeerSignaled bool
}

// DeliveryAttempt is one entry in the channel's rolling delivery log.
type DeliveryAttempt struct {
	MessageID string
	Type      MessageType
	OK        bool
	Error     string
	FromQueue bool
	At        time.Time
}
