package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"honestbox/backend/internal/feed"
	"honestbox/backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The token is the access control; origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeFeed upgrades the connection and attaches it to the moderation
// feed hub. The moderator token is validated inline because this route
// sits outside the API group.
func (h *Handler) ServeFeed(c *gin.Context) {
	if _, err := h.moderatorFromRequest(c); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
		return
	}

	client := &feed.WebSocketClient{
		ID:   uuid.NewString(),
		Conn: conn,
		Hub:  h.Hub,
		Send: make(chan models.ModerationEvent, 256),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}
