package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type approveRequest struct {
	PostedTS string `json:"posted_ts" binding:"required"`
}

type banSubmitterRequest struct {
	Reason string `json:"reason"`
}

func submissionID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return 0, false
	}
	return uint(id), true
}

// GetSubmission returns one submission by id.
func (h *Handler) GetSubmission(c *gin.Context) {
	id, ok := submissionID(c)
	if !ok {
		return
	}
	sub, err := h.Engine.GetSubmission(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ApproveSubmission records an approve decision. The caller has already
// published the content and passes the resulting reference; an absent or
// already-reviewed submission reads as applied=false, never an error.
func (h *Handler) ApproveSubmission(c *gin.Context) {
	id, ok := submissionID(c)
	if !ok {
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "posted_ts is required"})
		return
	}

	applied, err := h.Engine.Approve(id, moderatorFrom(c), req.PostedTS)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

// DenySubmission records a deny decision under the same no-op rules.
func (h *Handler) DenySubmission(c *gin.Context) {
	id, ok := submissionID(c)
	if !ok {
		return
	}
	applied, err := h.Engine.Deny(id, moderatorFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

// BanSubmitter bans the author of a submission and cascades a deny onto
// it when still pending.
func (h *Handler) BanSubmitter(c *gin.Context) {
	id, ok := submissionID(c)
	if !ok {
		return
	}
	var req banSubmitterRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.Engine.BanForSubmission(id, moderatorFrom(c), req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if res == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"case_id": res.CaseID, "rebanned": res.ReBanned})
}
