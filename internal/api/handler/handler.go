// Package handler wires the moderation engine into the admin HTTP API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"honestbox/backend/internal/feed"
	"honestbox/backend/internal/moderation"
)

// Handler holds the moderation engine, the feed hub and the token secret.
type Handler struct {
	Engine    *moderation.Service
	Hub       *feed.Hub
	JWTSecret []byte
}

func NewHandler(engine *moderation.Service, hub *feed.Hub, jwtSecret []byte) *Handler {
	return &Handler{Engine: engine, Hub: hub, JWTSecret: jwtSecret}
}

// RegisterRoutes mounts the admin API. Everything except the websocket
// upgrade sits behind the bearer-token middleware; the upgrade endpoint
// validates the token itself because browsers cannot set headers on
// websocket dials uniformly.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api", h.AuthRequired())

	api.GET("/bans", h.ListBans)
	api.POST("/bans", h.CreateBan)
	api.GET("/bans/:caseID", h.GetBanByCase)
	api.DELETE("/bans/:caseID", h.DeleteBanByCase)
	api.DELETE("/bans/hash/:hash", h.DeleteBanByHash)

	api.GET("/submissions/:id", h.GetSubmission)
	api.POST("/submissions/:id/approve", h.ApproveSubmission)
	api.POST("/submissions/:id/deny", h.DenySubmission)
	api.POST("/submissions/:id/ban", h.BanSubmitter)

	r.GET("/ws/feed", h.ServeFeed)
}

// abortWithError maps engine errors onto HTTP statuses: validation
// failures are the caller's fault, everything else is ours.
func abortWithError(c *gin.Context, err error) {
	var verr *moderation.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		return
	}
	if errors.Is(err, moderation.ErrCaseIDExhausted) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "case id space exhausted"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
