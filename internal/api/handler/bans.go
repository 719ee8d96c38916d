package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createBanRequest struct {
	UserHash string `json:"user_hash" binding:"required"`
	Reason   string `json:"reason"`
}

// ListBans returns all active bans in creation order.
func (h *Handler) ListBans(c *gin.Context) {
	bans, err := h.Engine.ListBans()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bans": bans})
}

// GetBanByCase looks a ban up by its case id.
func (h *Handler) GetBanByCase(c *gin.Context) {
	ban, err := h.Engine.GetBanByCase(c.Param("caseID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if ban == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no ban for that case id"})
		return
	}
	c.JSON(http.StatusOK, ban)
}

// CreateBan bans a user hash directly, without going through a submission.
func (h *Handler) CreateBan(c *gin.Context) {
	var req createBanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_hash is required"})
		return
	}

	res, err := h.Engine.Ban(req.UserHash, moderatorFrom(c), req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"case_id": res.CaseID, "rebanned": res.ReBanned})
}

// DeleteBanByCase lifts a ban by case id and returns the removed record.
func (h *Handler) DeleteBanByCase(c *gin.Context) {
	ban, err := h.Engine.UnbanByCase(c.Param("caseID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if ban == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no ban for that case id"})
		return
	}
	c.JSON(http.StatusOK, ban)
}

// DeleteBanByHash lifts a ban by user hash. Idempotent: repeated calls
// report removed=false.
func (h *Handler) DeleteBanByHash(c *gin.Context) {
	removed, err := h.Engine.Unban(c.Param("hash"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
