package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var errClientClosed = errors.New("peer connection closed")

// Client wraps one map-peer connection. It implements port.MessagePeer:
// Post serializes writes behind a mutex with a deadline, so the channel can
// call it from any goroutine.
type Client struct {
	conn   *websocket.Conn
	logger *zap.Logger

	writeMu   sync.Mutex
	closed    chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		conn:   conn,
		logger: logger,
		closed: make(chan struct{}),
	}
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return c
}

// Post sends one text message to the peer.
func (c *Client) Post(text string) error {
	select {
	case <-c.closed:
		return errClientClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Run pumps inbound messages into onMessage until the connection drops,
// then calls onClose once with the terminating error. It also keeps the
// connection alive with periodic pings.
func (c *Client) Run(onMessage func([]byte), onClose func(error)) {
	go c.pingLoop()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.Close()
			onClose(err)
			return
		}
		onMessage(raw)
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("peer ping failed", zap.Error(err))
				c.Close()
				return
			}
		}
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}
