package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePeer struct {
	mu      sync.Mutex
	posts   []string
	calls   int
	failAll bool
	failOn  map[int]bool
}

func (p *fakePeer) Post(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failAll || p.failOn[p.calls] {
		return errors.New("stale peer handle")
	}
	p.posts = append(p.posts, text)
	return nil
}

func (p *fakePeer) Posts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.posts))
	copy(out, p.posts)
	return out
}

func (p *fakePeer) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

func newTestChannel(peer *fakePeer, clock *fakeClock) *MessageChannel {
	ch := NewMessageChannel(ChannelConfig{Source: "test-host"}, clock, nil)
	ch.AttachPeer(peer)
	ch.MarkPeerLoaded(true)
	return ch
}

func decodeMessage(t *testing.T, wire string) domain.Message {
	t.Helper()
	var msg domain.Message
	require.NoError(t, json.Unmarshal([]byte(wire), &msg))
	return msg
}

func TestSendQueuesUntilPeerReady(t *testing.T) {
	peer := &fakePeer{}
	clock := newFakeClock()
	ch := newTestChannel(peer, clock)

	assert.False(t, ch.Send(domain.MsgCenterOnLocation, domain.CenterOnLocationPayload{Latitude: 40.7, Longitude: -74.0, Zoom: 17}))
	assert.False(t, ch.Send(domain.MsgAddUserLocationMarker, nil))

	assert.Empty(t, peer.Posts(), "nothing may reach the peer before ready")
	assert.Equal(t, 2, ch.QueuedCount())

	ch.MarkPeerSignaledReady(true)

	posts := peer.Posts()
	require.Len(t, posts, 2)
	first := decodeMessage(t, posts[0])
	second := decodeMessage(t, posts[1])
	assert.Equal(t, domain.MsgCenterOnLocation, first.Type)
	assert.Equal(t, domain.MsgAddUserLocationMarker, second.Type)
	assert.NotEqual(t, first.MessageID, second.MessageID)
	assert.Equal(t, "test-host", first.Source)
	assert.Equal(t, 0, ch.QueuedCount())

	sleeps := clock.Sleeps()
	require.Len(t, sleeps, 1, "one stagger between two queued messages")
	assert.GreaterOrEqual(t, sleeps[0], 100*time.Millisecond)
}

func TestFlushDeliversEveryQueuedMessage(t *testing.T) {
	peer := &fakePeer{failOn: map[int]bool{3: true}}
	clock := newFakeClock()
	ch := newTestChannel(peer, clock)

	for i := 0; i < 5; i++ {
		ch.Send(domain.MsgUpdateDriverLocation, domain.UpdateDriverLocationPayload{Latitude: float64(i)})
	}
	ch.MarkPeerSignaledReady(true)

	assert.Equal(t, 5, peer.Calls(), "every queued message gets a delivery attempt")
	assert.Len(t, peer.Posts(), 4, "one failing message does not block the rest")

	log := ch.DeliveryLog()
	require.Len(t, log, 5)
	failed := 0
	for _, attempt := range log {
		assert.True(t, attempt.FromQueue)
		if !attempt.OK {
			failed++
			assert.NotEmpty(t, attempt.Error)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestReadyTransitionIsIdempotent(t *testing.T) {
	peer := &fakePeer{}
	clock := newFakeClock()
	ch := newTestChannel(peer, clock)

	ch.Send(domain.MsgFitToPackages, nil)
	ch.MarkPeerSignaledReady(true)
	require.Len(t, peer.Posts(), 1)

	ch.MarkPeerSignaledReady(true)
	ch.MarkPeerLoaded(true)

	assert.Len(t, peer.Posts(), 1, "redundant ready signals must not redeliver")
	assert.Empty(t, clock.Sleeps(), "single queued message needs no stagger")
}

func TestSendDeliversImmediatelyWhenReady(t *testing.T) {
	peer := &fakePeer{}
	ch := newTestChannel(peer, newFakeClock())
	ch.MarkPeerSignaledReady(true)

	assert.True(t, ch.Send(domain.MsgClearUserMarkers, domain.ClearUserMarkersPayload{}))
	assert.Equal(t, 0, ch.QueuedCount())

	posts := peer.Posts()
	require.Len(t, posts, 1)
	msg := decodeMessage(t, posts[0])
	assert.Equal(t, domain.MsgClearUserMarkers, msg.Type)
	assert.NotEmpty(t, msg.MessageID)
	assert.NotEmpty(t, msg.Timestamp)
}

func TestSendReturnsFalseOnTransportError(t *testing.T) {
	peer := &fakePeer{failAll: true}
	ch := newTestChannel(peer, newFakeClock())
	ch.MarkPeerSignaledReady(true)

	assert.False(t, ch.Send(domain.MsgFitToPackages, nil))

	log := ch.DeliveryLog()
	require.Len(t, log, 1)
	assert.False(t, log[0].OK)
	assert.Contains(t, log[0].Error, "stale peer handle")
}

func TestPeerReloadBlocksDirectSends(t *testing.T) {
	peer := &fakePeer{}
	ch := newTestChannel(peer, newFakeClock())
	ch.MarkPeerSignaledReady(true)

	require.True(t, ch.Send(domain.MsgFitToPackages, nil))

	// Peer page reloads: loaded flag drops, sends must queue again.
	ch.MarkPeerLoaded(false)
	assert.False(t, ch.Send(domain.MsgClearUserMarkers, nil))
	assert.Equal(t, 1, ch.QueuedCount())
	assert.Len(t, peer.Posts(), 1)

	ch.MarkPeerLoaded(true)
	assert.Len(t, peer.Posts(), 2)
	assert.Equal(t, 0, ch.QueuedCount())
}

func TestHandleInboundMalformedIsDropped(t *testing.T) {
	ch := newTestChannel(&fakePeer{}, newFakeClock())
	called := false
	ch.On(domain.EvtMapReady, func(raw json.RawMessage) { called = true })

	ch.HandleInbound([]byte("{not json"))

	assert.False(t, called, "malformed payloads must not reach handlers")
}

func TestHandleInboundUnknownTypeIgnored(t *testing.T) {
	ch := newTestChannel(&fakePeer{}, newFakeClock())
	called := false
	ch.On(domain.EvtMapReady, func(raw json.RawMessage) { called = true })

	ch.HandleInbound([]byte(`{"type":"somethingNew","extra":1}`))

	assert.False(t, called)
}

func TestHandleInboundDispatchesByType(t *testing.T) {
	ch := newTestChannel(&fakePeer{}, newFakeClock())
	var got json.RawMessage
	ch.On(domain.EvtMapCentered, func(raw json.RawMessage) { got = raw })

	ch.HandleInbound([]byte(`{"type":"mapCentered","zoom":15}`))

	require.NotNil(t, got)
	assert.Contains(t, string(got), `"zoom":15`)
}

func TestDeliveryLogIsBounded(t *testing.T) {
	peer := &fakePeer{}
	ch := newTestChannel(peer, newFakeClock())
	ch.MarkPeerSignaledReady(true)

	for i := 0; i < 25; i++ {
		ch.Send(domain.MsgUpdateDriverLocation, domain.UpdateDriverLocationPayload{Latitude: float64(i)})
	}

	log := ch.DeliveryLog()
	assert.Len(t, log, 20)
	for _, attempt := range log {
		assert.True(t, attempt.OK)
	}
}

func TestDestroyDiscardsQueueAndPeer(t *testing.T) {
	peer := &fakePeer{}
	ch := newTestChannel(peer, newFakeClock())

	ch.Send(domain.MsgFitToPackages, nil)
	require.Equal(t, 1, ch.QueuedCount())

	ch.Destroy()

	assert.Equal(t, 0, ch.QueuedCount())
	assert.False(t, ch.Send(domain.MsgFitToPackages, nil))
	ch.MarkPeerSignaledReady(true)
	assert.Empty(t, peer.Posts(), "destroyed channel never flushes")
}

func TestQueuedMessagesKeepUniqueIDs(t *testing.T) {
	peer := &fakePeer{}
	ch := newTestChannel(peer, newFakeClock())

	for i := 0; i < 10; i++ {
		ch.Send(domain.MsgUpdateDriverLocation, domain.UpdateDriverLocationPayload{Latitude: float64(i)})
	}
	ch.MarkPeerSignaledReady(true)

	seen := map[string]bool{}
	for _, wire := range peer.Posts() {
		msg := decodeMessage(t, wire)
		require.False(t, seen[msg.MessageID], fmt.Sprintf("duplicate message id %s", msg.MessageID))
		seen[msg.MessageID] = true
	}
	assert.Len(t, seen, 10)
}
