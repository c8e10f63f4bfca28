package websocket

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"teamchat/internal/transport/httpdto"
)

// TokenParser resolves an access token to the authenticated user.
type TokenParser interface {
	ParseAccessToken(token string) (uuid.UUID, error)
}

// Presence is told about every connection a user opens or closes.
type Presence interface {
	TypingSetter
	Connect(ctx context.Context, userID, connID uuid.UUID)
	Disconnect(ctx context.Context, userID, connID uuid.UUID)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	auth     TokenParser
	hub      *Hub
	presence Presence
	reads    ReadMarker
}

func NewHandler(auth TokenParser, hub *Hub, presence Presence, reads ReadMarker) *Handler {
	return &Handler{auth: auth, hub: hub, presence: presence, reads: reads}
}

// Connect upgrades an authenticated request and serves the connection
// until either side closes it.
func (h *Handler) Connect(c *gin.Context) {
	userID, err := h.auth.ParseAccessToken(extractToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", httpdto.CodeUnauthorized))
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.Error("upgrade_failed", err)
		return
	}

	conn := h.hub.Register(userID)
	h.presence.Connect(context.Background(), userID, conn.ID)

	client := NewClient(h.hub, ws, conn, h.presence, h.reads)
	go client.WritePump()
	client.ReadPump()

	h.hub.Unregister(conn)
	h.presence.Disconnect(context.Background(), userID, conn.ID)
}

func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
