package websocket

import (
	"net/http"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub upgrades incoming connections and binds each one as the map peer of a
// driver's session. Disconnects detach the peer and drop the session so a
// reconnect starts a clean handshake.
type Hub struct {
	upgrader websocket.Upgrader
	sessions *service.SessionManager
	logger   *zap.Logger
}

func NewHub(sessions *service.SessionManager, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sessions: sessions,
		logger:   logger,
	}
}

// HandleConnection is the gin handler for the map websocket endpoint. The
// authenticated driver id comes from the auth middleware.
func (h *Hub) HandleConnection(c *gin.Context) {
	driverID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing driver identity"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, h.logger)
	session := h.sessions.Create(driverID)
	session.AttachPeer(client)
	h.logger.Info("map peer connected", zap.String("sessionId", session.ID()))

	go client.Run(session.Channel().HandleInbound, func(err error) {
		session.DetachPeer()
		h.sessions.Remove(session)
		h.logger.Info("map peer disconnected",
			zap.String("sessionId", session.ID()),
			zap.Error(err))
	})
}
