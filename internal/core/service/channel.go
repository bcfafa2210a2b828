package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/domain"
	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/port"
	"go.uber.org/zap"
)

const (
	defaultStagger     = 120 * time.Millisecond
	defaultDeliveryLog = 20
	inboundLogMaxBytes = 256
)

// InboundHandler receives the raw JSON of a peer event, type discriminator
// included.
type InboundHandler func(raw json.RawMessage)

type ChannelConfig struct {
	// Source tags every outbound message with its logical sender.
	Source string
	// Stagger is the delay between successive deliveries when draining the
	// queue after a ready transition.
	Stagger time.Duration
	// DeliveryLogSize bounds the rolling log of delivery attempts.
	DeliveryLogSize int
}

func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		Source:          "host",
		Stagger:         defaultStagger,
		DeliveryLogSize: defaultDeliveryLog,
	}
}

// MessageChannel delivers messages to a single map peer, masking the peer's
// not-yet-ready window from callers. Messages sent before the peer is ready
// are queued and drained in enqueue order once all three readiness
// conditions hold: a peer handle is attached, the peer's page has loaded,
// and the peer runtime has signaled ready.
//
// One channel is created per map session and torn down with Destroy; the
// queue never outlives the session.
type MessageChannel struct {
	cfg    ChannelConfig
	clock  port.Clock
	logger *zap.Logger

	mu           sync.Mutex
	peer         port.MessagePeer
	peerLoaded   bool
	peerSignaled bool
	destroyed    bool
	queue        []domain.QueuedMessage
	handlers     map[domain.MessageType]InboundHandler
	attempts     []domain.DeliveryAttempt
}

func NewMessageChannel(cfg ChannelConfig, clock port.Clock, logger *zap.Logger) *MessageChannel {
	if cfg.Stagger <= 0 {
		cfg.Stagger = defaultStagger
	}
	if cfg.DeliveryLogSize <= 0 {
		cfg.DeliveryLogSize = defaultDeliveryLog
	}
	if cfg.Source == "" {
		cfg.Source = "host"
	}
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageChannel{
		cfg:      cfg,
		clock:    clock,
		logger:   logger,
		handlers: make(map[domain.MessageType]InboundHandler),
	}
}

// Send builds a fully populated message from the caller's type and payload
// and either delivers it immediately (peer ready) or appends it to the
// queue. The return value reports immediate delivery success only; a queued
// message yields false without being an error.
func (c *MessageChannel) Send(msgType domain.MessageType, payload any) bool {
	now := c.clock.Now()
	msg := domain.Message{
		Type:      msgType,
		MessageID: domain.NewMessageID(now),
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Source:    c.cfg.Source,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			c.logger.Error("marshal command payload",
				zap.String("messageId", msg.MessageID),
				zap.String("type", string(msgType)),
				zap.Error(err))
			c.mu.Lock()
			c.recordAttemptLocked(msg, false, err.Error(), false, now)
			c.mu.Unlock()
			return false
		}
		msg.Payload = raw
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return false
	}
	if !c.readyLocked() {
		c.queue = append(c.queue, domain.QueuedMessage{
			Message:      msg,
			QueuedAt:     now,
			PeerAttached: c.peer != nil,
			PeerLoaded:   c.peerLoaded,
			PeerSignaled: c.peerSignaled,
		})
		c.logger.Debug("peer not ready, message queued",
			zap.String("messageId", msg.MessageID),
			zap.String("type", string(msgType)),
			zap.Int("queueDepth", len(c.queue)))
		return false
	}
	return c.deliverLocked(msg, false)
}

// AttachPeer installs (or, with nil, releases) the peer handle.
func (c *MessageChannel) AttachPeer(p port.MessagePeer) {
	c.transition(func() { c.peer = p })
}

// MarkPeerLoaded records whether the peer's underlying page finished
// loading.
func (c *MessageChannel) MarkPeerLoaded(loaded bool) {
	c.transition(func() { c.peerLoaded = loaded })
}

// MarkPeerSignaledReady records whether the peer runtime reported its own
// ready event. The false→true readiness transition drains the queue.
func (c *MessageChannel) MarkPeerSignaledReady(signaled bool) {
	c.transition(func() { c.peerSignaled = signaled })
}

func (c *MessageChannel) transition(apply func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	wasReady := c.readyLocked()
	apply()
	if !wasReady && c.readyLocked() {
		c.flushLocked()
	}
}

func (c *MessageChannel) readyLocked() bool {
	return c.peer != nil && c.peerLoaded && c.peerSignaled
}

// flushLocked snapshots and clears the queue before any delivery, so
// messages enqueued by a later not-ready window are never re-flushed by
// this pass. The lock is held across the staggered drain; sends racing the
// flush observe the ready state once it completes, which keeps queue order
// intact.
func (c *MessageChannel) flushLocked() {
	queued := c.queue
	c.queue = nil
	if len(queued) == 0 {
		return
	}
	c.logger.Info("peer ready, draining queued messages", zap.Int("count", len(queued)))
	for i, qm := range queued {
		if i > 0 {
			c.clock.Sleep(c.cfg.Stagger)
		}
		c.deliverLocked(qm.Message, true)
	}
}

func (c *MessageChannel) deliverLocked(msg domain.Message, fromQueue bool) bool {
	wire, err := json.Marshal(msg)
	if err == nil {
		err = c.peer.Post(string(wire))
	}
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	c.recordAttemptLocked(msg, err == nil, errText, fromQueue, c.clock.Now())
	if err != nil {
		c.logger.Warn("message delivery failed",
			zap.String("messageId", msg.MessageID),
			zap.String("type", string(msg.Type)),
			zap.Bool("fromQueue", fromQueue),
			zap.Error(err))
		return false
	}
	return true
}

func (c *MessageChannel) recordAttemptLocked(msg domain.Message, ok bool, errText string, fromQueue bool, at time.Time) {
	c.attempts = append(c.attempts, domain.DeliveryAttempt{
		MessageID: msg.MessageID,
		Type:      msg.Type,
		OK:        ok,
		Error:     errText,
		FromQueue: fromQueue,
		At:        at,
	})
	if over := len(c.attempts) - c.cfg.DeliveryLogSize; over > 0 {
		c.attempts = append(c.attempts[:0], c.attempts[over:]...)
	}
}

// On registers the handler invoked for inbound events of the given type.
func (c *MessageChannel) On(evtType domain.MessageType, h InboundHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[evtType] = h
}

// HandleInbound parses one raw peer message and dispatches it by type.
// Malformed JSON is dropped with a diagnostic; unknown types are ignored.
// The handler runs outside the channel lock so it may call back into Send
// or the readiness setters.
func (c *MessageChannel) HandleInbound(raw []byte) {
	evtType, err := domain.DecodeEventType(raw)
	if err != nil {
		c.logger.Warn("malformed peer message dropped",
			zap.ByteString("raw", truncateForLog(raw)),
			zap.Error(err))
		return
	}
	c.mu.Lock()
	h := c.handlers[evtType]
	c.mu.Unlock()
	if h == nil {
		c.logger.Debug("unhandled peer event ignored", zap.String("type", string(evtType)))
		return
	}
	h(raw)
}

// Ready reports whether all three readiness conditions currently hold.
func (c *MessageChannel) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyLocked()
}

// QueuedCount returns the number of messages waiting for a ready transition.
func (c *MessageChannel) QueuedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// DeliveryLog returns a copy of the most recent delivery attempts.
func (c *MessageChannel) DeliveryLog() []domain.DeliveryAttempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.DeliveryAttempt, len(c.attempts))
	copy(out, c.attempts)
	return out
}

// Destroy releases the peer handle and discards the queue. The channel
// accepts no further sends or transitions afterwards.
func (c *MessageChannel) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
	c.peer = nil
	c.peerLoaded = false
	c.peerSignaled = false
	c.queue = nil
}

func truncateForLog(raw []byte) []byte {
	if len(raw) <= inboundLogMaxBytes {
		return raw
	}
	return raw[:inboundLogMaxBytes]
}
