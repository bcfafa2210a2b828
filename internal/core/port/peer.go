package port

// MessagePeer is the narrow capability the channel needs from the map peer
// transport. The channel depends only on this, never on a concrete
// connection type.
type MessagePeer interface {
	Post(text string) error
}
